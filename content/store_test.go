package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestFileStore_SaveWritesFileOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := NewFileStore(dir)

	locator, err := s.Save(context.Background(), "hello bees", "article")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(locator), "article_"))
	assert.Equal(t, ".txt", filepath.Ext(locator))

	data, err := os.ReadFile(locator)
	require.NoError(t, err)
	assert.Equal(t, "hello bees", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestFileStore_LocatorFormat(t *testing.T) {
	fs := afero.NewMemMapFs()
	at := time.Date(2026, 10, 16, 10, 15, 0, 123456000, time.UTC)
	s := NewFileStore("generated_content", WithFs(fs), WithStoreClock(fixedClock(at)))

	locator, err := s.Save(context.Background(), "x", "blog_post")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("generated_content", "blog_post_20261016_101500.123456.txt"), locator)
}

func TestFileStore_SameInstantIsLastWriteWins(t *testing.T) {
	fs := afero.NewMemMapFs()
	at := time.Date(2026, 10, 16, 10, 15, 0, 0, time.UTC)
	s := NewFileStore("out", WithFs(fs), WithStoreClock(fixedClock(at)))

	first, err := s.Save(context.Background(), "first", "article")
	require.NoError(t, err)
	second, err := s.Save(context.Background(), "second", "article")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	data, err := afero.ReadFile(fs, second)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestFileStore_SameSecondSavesDoNotCrash(t *testing.T) {
	s := NewFileStore(t.TempDir())
	for i := 0; i < 5; i++ {
		locator, err := s.Save(context.Background(), "x", "article")
		require.NoError(t, err)
		assert.NotEmpty(t, locator)
	}
}

func TestFileStore_SanitizesContentType(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFileStore("out", WithFs(fs))

	locator, err := s.Save(context.Background(), "x", "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "out", filepath.Dir(locator))
	assert.True(t, strings.HasPrefix(filepath.Base(locator), "______etc_passwd_"))
}

func TestFileStore_FailsWhenDirCannotBeCreated(t *testing.T) {
	s := NewFileStore("out", WithFs(afero.NewReadOnlyFs(afero.NewMemMapFs())))

	_, err := s.Save(context.Background(), "x", "article")
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "failed to save content")
}

func TestFileStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileStore("out", WithFs(afero.NewMemMapFs())).Save(ctx, "x", "article")
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeType(t *testing.T) {
	assert.Equal(t, "blog_post", sanitizeType("blog_post"))
	assert.Equal(t, "social-media", sanitizeType(" social-media "))
	assert.Equal(t, "a_b", sanitizeType("a b"))
	assert.Equal(t, "content", sanitizeType(""))
	assert.Equal(t, strings.Repeat("a", maxTypeLen), sanitizeType(strings.Repeat("a", 300)))
}

func TestFileStore_LongTypeFitsOnDisk(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, WithFs(afero.NewOsFs()))

	locator, err := s.Save(context.Background(), "hello", strings.Repeat("a", 300))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(locator), strings.Repeat("a", maxTypeLen)+"_"))

	saved, err := os.ReadFile(locator)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(saved))
}

func TestFileStore_ErrorHidesServerPath(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := NewFileStore(filepath.Join(blocker, "out"), WithFs(afero.NewOsFs()))
	_, err := s.Save(context.Background(), "x", "article")

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.NotEmpty(t, se.Path)
	assert.True(t, strings.HasPrefix(se.Error(), "failed to save content"))
	assert.NotContains(t, se.Error(), base)
}
