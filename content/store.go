package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// DefaultOutputDir é o diretório usado quando storage.output_dir não é configurado.
const DefaultOutputDir = "generated_content"

const locatorTimeLayout = "20060102_150405.000000"

// maxTypeLen limita o prefixo do nome do arquivo bem abaixo do NAME_MAX dos filesystems.
const maxTypeLen = 64

// FileStore grava cada resultado num arquivo próprio e devolve o caminho como locator.
//
// Locator: <dir>/<content_type>_<YYYYMMDD_HHMMSS.ffffff>.txt. Dois saves do mesmo tipo
// no mesmo microssegundo caem no mesmo arquivo e o último vence.
type FileStore struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

type FileStoreOption func(*FileStore)

// WithFs troca o filesystem (ex: afero.NewMemMapFs nos testes).
func WithFs(fs afero.Fs) FileStoreOption {
	return func(s *FileStore) { s.fs = fs }
}

func WithStoreClock(now func() time.Time) FileStoreOption {
	return func(s *FileStore) { s.now = now }
}

func NewFileStore(dir string, opts ...FileStoreOption) *FileStore {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultOutputDir
	}
	s := &FileStore{
		fs:  afero.NewOsFs(),
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FileStore) Dir() string { return s.dir }

// Save grava em arquivo temporário e renomeia, então o locator nunca aponta
// para um arquivo pela metade.
func (s *FileStore) Save(ctx context.Context, content, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &StorageError{Err: err}
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", &StorageError{Path: s.dir, Err: err}
	}

	name := fmt.Sprintf("%s_%s.txt", sanitizeType(contentType), s.now().Format(locatorTimeLayout))
	locator := filepath.Join(s.dir, name)

	tmp, err := afero.TempFile(s.fs, s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return "", &StorageError{Path: locator, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return "", &StorageError{Path: locator, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", &StorageError{Path: locator, Err: err}
	}
	if err := s.fs.Chmod(tmpName, 0o644); err != nil && !os.IsNotExist(err) {
		_ = s.fs.Remove(tmpName)
		return "", &StorageError{Path: locator, Err: err}
	}
	if err := s.fs.Rename(tmpName, locator); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", &StorageError{Path: locator, Err: err}
	}
	return locator, nil
}

// sanitizeType mantém só [A-Za-z0-9_-], o resto vira "_", e corta em maxTypeLen.
func sanitizeType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return "content"
	}
	if r := []rune(contentType); len(r) > maxTypeLen {
		contentType = string(r[:maxTypeLen])
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, contentType)
}
