// Package gemini fala com a API REST models/{model}:generateContent do Gemini.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"content-gateway/content"
	"content-gateway/observability/metrics"
	"content-gateway/observability/tracer"
)

const (
	providerName   = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash"
)

// Client é o backend de geração. Uma chamada por Generate, sem retry.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	httpClient  *http.Client
	maxTokens   int
	temperature float64
	topP        float64
	limiter     *rate.Limiter
}

var _ content.Backend = (*Client)(nil)

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

func WithTemperature(v float64) Option {
	return func(c *Client) { c.temperature = v }
}

func WithTopP(v float64) Option {
	return func(c *Client) { c.topP = v }
}

// WithRequestRate limita chamadas de saída (token bucket). rps <= 0 desliga.
// Sem token disponível a chamada falha na hora com quota excedida.
func WithRequestRate(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		model:       DefaultModel,
		httpClient:  http.DefaultClient,
		maxTokens:   2048,
		temperature: 0.7,
		topP:        0.95,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Model() string { return c.model }

type generateRequest struct {
	Contents         []wireContent     `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      wireContent `json:"content"`
		FinishReason string      `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate implementa content.Backend.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "gemini.generateContent")
	defer span.End()
	span.SetAttributes(attribute.String("llm.provider", providerName), attribute.String("llm.model", c.model))

	start := time.Now()
	text, usage, err := c.generate(ctx, prompt)
	metrics.LLMCallDuration.WithLabelValues(providerName, c.model).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.LLMCallTotal.WithLabelValues(providerName, c.model, callStatus(err)).Inc()
		return "", err
	}

	metrics.LLMCallTotal.WithLabelValues(providerName, c.model, "success").Inc()
	metrics.LLMTokensUsed.WithLabelValues(providerName, c.model, "prompt").Add(float64(usage.PromptTokenCount))
	metrics.LLMTokensUsed.WithLabelValues(providerName, c.model, "completion").Add(float64(usage.CandidatesTokenCount))
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, usageMetadata, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return "", usageMetadata{}, &content.GenerationError{Err: content.ErrQuotaExceeded, Detail: "local request budget exhausted"}
	}

	body, err := json.Marshal(c.buildRequest(prompt))
	if err != nil {
		return "", usageMetadata{}, &content.GenerationError{Err: content.ErrMalformedPrompt, Detail: err.Error()}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", usageMetadata{}, &content.GenerationError{Err: content.ErrBackendUnavailable, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		detail := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			detail = "generation timed out"
		}
		return "", usageMetadata{}, &content.GenerationError{Err: content.ErrBackendUnavailable, Detail: detail}
	}
	defer resp.Body.Close()

	if err := mapHTTPError(resp); err != nil {
		return "", usageMetadata{}, err
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", usageMetadata{}, &content.GenerationError{Err: content.ErrBackendUnavailable, Detail: "decode response: " + err.Error()}
	}
	if len(gr.Candidates) == 0 {
		return "", usageMetadata{}, &content.GenerationError{Err: content.ErrEmptyResponse}
	}

	// várias partes de texto são unidas por quebra de linha
	var parts []string
	for _, p := range gr.Candidates[0].Content.Parts {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	usage := usageMetadata{
		PromptTokenCount:     gr.UsageMetadata.PromptTokenCount,
		CandidatesTokenCount: gr.UsageMetadata.CandidatesTokenCount,
	}
	return strings.Join(parts, "\n"), usage, nil
}

type usageMetadata struct {
	PromptTokenCount     int64
	CandidatesTokenCount int64
}

func (c *Client) buildRequest(prompt string) generateRequest {
	gc := &generationConfig{
		Temperature: &c.temperature,
		TopP:        &c.topP,
	}
	if c.maxTokens > 0 {
		gc.MaxOutputTokens = &c.maxTokens
	}
	return generateRequest{
		Contents: []wireContent{{
			Role:  "user",
			Parts: []wirePart{{Text: prompt}},
		}},
		GenerationConfig: gc,
	}
}

func mapHTTPError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	detail := strings.TrimSpace(string(raw))
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error.Message != "" {
		detail = er.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &content.GenerationError{Err: content.ErrQuotaExceeded, Detail: detail}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &content.GenerationError{Err: content.ErrAuthFailed, Detail: detail}
	case http.StatusBadRequest:
		return &content.GenerationError{Err: content.ErrMalformedPrompt, Detail: detail}
	default:
		if detail == "" {
			return &content.GenerationError{Err: content.ErrBackendUnavailable, Detail: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		return &content.GenerationError{Err: content.ErrBackendUnavailable, Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, detail)}
	}
}

func callStatus(err error) string {
	switch {
	case errors.Is(err, content.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, content.ErrAuthFailed):
		return "auth_failed"
	case errors.Is(err, content.ErrMalformedPrompt):
		return "bad_request"
	case errors.Is(err, content.ErrEmptyResponse):
		return "empty"
	default:
		return "unavailable"
	}
}
