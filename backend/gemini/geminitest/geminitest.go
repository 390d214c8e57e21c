// Package geminitest é um fake do protocolo generateContent do Gemini,
// usado nos testes e pelo binário stub-gemini.
package geminitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// Reply descreve o que o fake responde para um prompt.
type Reply struct {
	Status       int
	Text         string
	Parts        []string
	NoCandidates bool
	Message      string
	Delay        time.Duration
}

// Request é o que o fake recebeu.
type Request struct {
	Model       string
	APIKey      string
	Prompt      string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Fake implementa http.Handler. Reply nil usa Echo.
type Fake struct {
	Reply  func(prompt string) Reply
	APIKey string

	mu       sync.Mutex
	requests []Request
}

// Echo devolve um texto curto que cita o prompt.
func Echo(prompt string) Reply {
	return Reply{Status: http.StatusOK, Text: "Generated content for: " + prompt}
}

// NewServer sobe um httptest.Server com o fake. Lembre de chamar Close.
func NewServer(reply func(prompt string) Reply) (*httptest.Server, *Fake) {
	f := &Fake{Reply: reply}
	return httptest.NewServer(f), f
}

func (f *Fake) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type wireRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		TopP            float64 `json:"topP"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func (f *Fake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	model, ok := parseModel(r.URL.Path)
	if !ok || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	key := r.Header.Get("x-goog-api-key")
	if key == "" {
		key = r.URL.Query().Get("key")
	}
	if f.APIKey != "" && key != f.APIKey {
		writeError(w, http.StatusUnauthorized, "API key not valid")
		return
	}

	var wr wireRequest
	if err := json.NewDecoder(r.Body).Decode(&wr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	var prompt []string
	for _, c := range wr.Contents {
		for _, p := range c.Parts {
			prompt = append(prompt, p.Text)
		}
	}

	req := Request{
		Model:       model,
		APIKey:      key,
		Prompt:      strings.Join(prompt, "\n"),
		Temperature: wr.GenerationConfig.Temperature,
		TopP:        wr.GenerationConfig.TopP,
		MaxTokens:   wr.GenerationConfig.MaxOutputTokens,
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	replyFn := f.Reply
	if replyFn == nil {
		replyFn = Echo
	}
	rep := replyFn(req.Prompt)

	if rep.Delay > 0 {
		select {
		case <-time.After(rep.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if rep.Status == 0 {
		rep.Status = http.StatusOK
	}
	if rep.Status != http.StatusOK {
		msg := rep.Message
		if msg == "" {
			msg = http.StatusText(rep.Status)
		}
		writeError(w, rep.Status, msg)
		return
	}

	writeJSON(w, http.StatusOK, buildResponse(rep, req.Prompt))
}

func buildResponse(rep Reply, prompt string) map[string]any {
	if rep.NoCandidates {
		return map[string]any{"candidates": []any{}}
	}
	parts := rep.Parts
	if parts == nil && rep.Text != "" {
		parts = []string{rep.Text}
	}
	wireParts := make([]map[string]string, 0, len(parts))
	completion := 0
	for _, p := range parts {
		wireParts = append(wireParts, map[string]string{"text": p})
		completion += len(strings.Fields(p))
	}
	return map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": wireParts},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     len(strings.Fields(prompt)),
			"candidatesTokenCount": completion,
			"totalTokenCount":      len(strings.Fields(prompt)) + completion,
		},
	}
}

// parseModel extrai o modelo de ".../models/{model}:generateContent".
func parseModel(path string) (string, bool) {
	i := strings.Index(path, "/models/")
	if i < 0 {
		return "", false
	}
	rest := path[i+len("/models/"):]
	model, ok := strings.CutSuffix(rest, ":generateContent")
	if !ok || model == "" {
		return "", false
	}
	return model, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": msg, "status": statusName(status)},
	})
}

func statusName(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "RESOURCE_EXHAUSTED"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "PERMISSION_DENIED"
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	case http.StatusNotFound:
		return "NOT_FOUND"
	default:
		return "UNAVAILABLE"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
