package content

import (
	"fmt"
	"strings"
)

// BuildPrompt monta o prompt na ordem fixa: tipo/tema, tom, tamanho, contexto.
// Cada cláusula opcional carrega a própria pontuação.
func BuildPrompt(req Request) string {
	req = req.Normalize()

	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s about '%s'", req.ContentType, req.Topic)
	if req.Tone != "" {
		fmt.Fprintf(&b, " in a %s tone", req.Tone)
	}
	if req.Length > 0 {
		fmt.Fprintf(&b, ". Aim for approximately %d words", req.Length)
	}
	if req.AdditionalContext != "" {
		fmt.Fprintf(&b, ". Additional context: %s", req.AdditionalContext)
	}
	return b.String()
}
