package content

import "strings"

// Tipos de conteúdo conhecidos. Qualquer outro valor é aceito, mas aparece como
// "other" nas métricas.
const (
	TypeBlogPost    = "blog_post"
	TypeArticle     = "article"
	TypeSocialMedia = "social_media"
	TypeScript      = "script"
	TypeOther       = "other"
)

// MetricLabel reduz content_type a um conjunto fechado de valores.
func MetricLabel(contentType string) string {
	switch t := strings.ToLower(strings.TrimSpace(contentType)); t {
	case TypeBlogPost, TypeArticle, TypeSocialMedia, TypeScript:
		return t
	default:
		return TypeOther
	}
}

// Request é o corpo aceito pela rota de geração.
type Request struct {
	ContentType       string `json:"content_type"`
	Topic             string `json:"topic"`
	Tone              string `json:"tone,omitempty"`
	Length            int    `json:"length,omitempty"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

// Result é o conteúdo gerado e onde ele foi salvo.
type Result struct {
	Content string
	Locator string
}

// Normalize remove espaços das pontas; só espaços conta como ausente.
func (r Request) Normalize() Request {
	r.ContentType = strings.TrimSpace(r.ContentType)
	r.Topic = strings.TrimSpace(r.Topic)
	r.Tone = strings.TrimSpace(r.Tone)
	r.AdditionalContext = strings.TrimSpace(r.AdditionalContext)
	if r.Length < 0 {
		r.Length = 0
	}
	return r
}

// Validate exige content_type e topic não vazios (após trim).
func (r Request) Validate() error {
	n := r.Normalize()
	var missing []string
	if n.ContentType == "" {
		missing = append(missing, "content_type")
	}
	if n.Topic == "" {
		missing = append(missing, "topic")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
