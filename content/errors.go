package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Causas de falha do backend de geração.
var (
	ErrQuotaExceeded      = errors.New("generation quota exceeded")
	ErrMalformedPrompt    = errors.New("prompt rejected by backend")
	ErrBackendUnavailable = errors.New("generation backend unavailable")
	ErrAuthFailed         = errors.New("generation backend authentication failed")
	ErrEmptyResponse      = errors.New("generation backend returned no candidates")
)

// ValidationError indica campos obrigatórios ausentes.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "Content type and topic are required"
}

// Missing lista os campos faltantes separados por vírgula.
func (e *ValidationError) Missing() string {
	return strings.Join(e.Fields, ", ")
}

// GenerationError é a falha de uma chamada ao backend. A mensagem é devolvida ao cliente como está.
type GenerationError struct {
	Err    error
	Detail string
}

func (e *GenerationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("content generation failed: %v", e.Err)
	}
	return fmt.Sprintf("content generation failed: %v: %s", e.Err, e.Detail)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StorageError é a falha ao persistir o conteúdo gerado.
//
// Error() vai para o cliente e não carrega caminhos do servidor; Path e Err
// ficam para o log.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return "failed to save content"
	}
	return "failed to save content: " + withoutPath(e.Err)
}

func withoutPath(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Op + ": " + pe.Err.Error()
	}
	var le *os.LinkError
	if errors.As(err, &le) {
		return le.Op + ": " + le.Err.Error()
	}
	return err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }
