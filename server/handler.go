package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"content-gateway/content"
	"content-gateway/middleware/ratelimit"
	"content-gateway/observability/logger"
)

// MaxBodyBytes limita o corpo da rota de geração.
const MaxBodyBytes = 1 << 20

// Generator é o pipeline chamado pelo handler (content.Generator em produção).
type Generator interface {
	Generate(ctx context.Context, req content.Request) (content.Result, error)
}

type rateLimitInfo struct {
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

type generateResponse struct {
	Content   string         `json:"content"`
	Filename  string         `json:"filename"`
	RateLimit *rateLimitInfo `json:"rateLimit,omitempty"`
}

type errorResponse struct {
	Error     string         `json:"error"`
	RateLimit *rateLimitInfo `json:"rateLimit,omitempty"`
}

// GenerateHandler atende POST /api/generate. Chega aqui só o que as camadas de rate limit admitiram.
type GenerateHandler struct {
	Generator Generator
}

func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tel := telemetryOf(ctx)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed", RateLimit: tel})
		return
	}

	var req content.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		msg := "Invalid request body"
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			msg = "Request body too large"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, RateLimit: tel})
		return
	}

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), RateLimit: tel})
		return
	}

	res, err := h.Generator.Generate(ctx, req)
	if err != nil {
		status := http.StatusInternalServerError
		var ve *content.ValidationError
		if errors.As(err, &ve) {
			status = http.StatusBadRequest
		}
		logger.Warn(ctx, "generate request failed", "status", status, "error", err.Error())
		writeJSON(w, status, errorResponse{Error: err.Error(), RateLimit: tel})
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Content:   res.Content,
		Filename:  res.Locator,
		RateLimit: tel,
	})
}

// telemetryOf lê a decisão mais restritiva registrada pelas camadas de rate limit.
func telemetryOf(ctx context.Context) *rateLimitInfo {
	t, ok := ratelimit.TelemetryFromContext(ctx)
	if !ok {
		return nil
	}
	return &rateLimitInfo{Remaining: t.Remaining, Reset: t.ResetAt.Unix()}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
