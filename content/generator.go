package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"content-gateway/observability/logger"
	"content-gateway/observability/metrics"
	"content-gateway/observability/tracer"
)

// Backend gera texto a partir de um prompt. Sem retry: uma chamada, um resultado.
// Uma resposta vazia bem-sucedida é "" sem erro.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Store persiste o conteúdo e devolve o locator.
type Store interface {
	Save(ctx context.Context, content, contentType string) (string, error)
}

// Generator liga prompt, backend e store.
type Generator struct {
	backend Backend
	store   Store
	timeout time.Duration
}

type GeneratorOption func(*Generator)

// WithTimeout limita backend + gravação. 0 desliga o limite (fica só o ctx da request).
func WithTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.timeout = d }
}

func NewGenerator(backend Backend, store Store, opts ...GeneratorOption) *Generator {
	g := &Generator{
		backend: backend,
		store:   store,
		timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate faz no máximo uma chamada ao backend e uma gravação.
//
// Erros: *ValidationError (backend não é chamado), *GenerationError, *StorageError.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "content.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("content.type", req.ContentType),
		attribute.Int("content.length", req.Length),
	)

	label := MetricLabel(req.ContentType)
	start := time.Now()
	res, err := g.run(ctx, req)
	metrics.GenerationDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.GenerationTotal.WithLabelValues(label, statusOf(err)).Inc()
		attrs := []any{"content_type", req.ContentType}
		var se *StorageError
		if errors.As(err, &se) {
			attrs = append(attrs, "path", se.Path, "cause", fmt.Sprint(se.Err))
		}
		logger.Error(ctx, "content generation failed", err, attrs...)
		return Result{}, err
	}

	words := len(strings.Fields(res.Content))
	metrics.GenerationTotal.WithLabelValues(label, "success").Inc()
	metrics.GeneratedWords.WithLabelValues(label).Observe(float64(words))
	logger.Info(ctx, "content generated",
		"content_type", req.ContentType,
		"words", words,
		"locator", res.Locator,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (g *Generator) run(ctx context.Context, req Request) (Result, error) {
	text, err := g.backend.Generate(ctx, BuildPrompt(req))
	if err != nil {
		return Result{}, asGenerationError(err)
	}

	locator, err := g.store.Save(ctx, text, req.ContentType)
	if err != nil {
		metrics.StorageWritesTotal.WithLabelValues("error").Inc()
		var se *StorageError
		if !errors.As(err, &se) {
			se = &StorageError{Err: err}
		}
		return Result{}, se
	}
	metrics.StorageWritesTotal.WithLabelValues("success").Inc()

	return Result{Content: text, Locator: locator}, nil
}

func asGenerationError(err error) *GenerationError {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &GenerationError{Err: ErrBackendUnavailable, Detail: "generation timed out"}
	case errors.Is(err, context.Canceled):
		return &GenerationError{Err: ErrBackendUnavailable, Detail: "request canceled"}
	}
	return &GenerationError{Err: ErrBackendUnavailable, Detail: err.Error()}
}

func statusOf(err error) string {
	var se *StorageError
	switch {
	case errors.As(err, &se):
		return "storage_error"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	default:
		return "generation_error"
	}
}
