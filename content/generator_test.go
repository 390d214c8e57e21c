package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-gateway/observability/metrics"
)

type fakeBackend struct {
	calls   int
	prompts []string
	text    string
	err     error
	wait    bool
}

func (b *fakeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	b.calls++
	b.prompts = append(b.prompts, prompt)
	if b.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return b.text, b.err
}

type failingStore struct{ err error }

func (s failingStore) Save(context.Context, string, string) (string, error) { return "", s.err }

func TestGenerator_Success(t *testing.T) {
	fs := afero.NewMemMapFs()
	backend := &fakeBackend{text: "Bees are great."}
	g := NewGenerator(backend, NewFileStore("out", WithFs(fs)))

	res, err := g.Generate(context.Background(), Request{ContentType: "article", Topic: " bees "})
	require.NoError(t, err)

	assert.Equal(t, "Bees are great.", res.Content)
	assert.NotEmpty(t, res.Locator)
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, []string{"Write a article about 'bees'"}, backend.prompts)

	saved, err := afero.ReadFile(fs, res.Locator)
	require.NoError(t, err)
	assert.Equal(t, "Bees are great.", string(saved))
}

func TestGenerator_EmptyContentIsSaved(t *testing.T) {
	g := NewGenerator(&fakeBackend{text: ""}, NewFileStore("out", WithFs(afero.NewMemMapFs())))

	res, err := g.Generate(context.Background(), Request{ContentType: "article", Topic: "bees"})
	require.NoError(t, err)
	assert.Equal(t, "", res.Content)
	assert.NotEmpty(t, res.Locator)
}

func TestGenerator_ValidationNeverCallsBackend(t *testing.T) {
	backend := &fakeBackend{text: "x"}
	g := NewGenerator(backend, NewFileStore("out", WithFs(afero.NewMemMapFs())))

	_, err := g.Generate(context.Background(), Request{ContentType: "article"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, backend.calls)
}

func TestGenerator_BackendErrorIsGenerationError(t *testing.T) {
	backend := &fakeBackend{err: &GenerationError{Err: ErrQuotaExceeded}}
	g := NewGenerator(backend, NewFileStore("out", WithFs(afero.NewMemMapFs())))

	_, err := g.Generate(context.Background(), Request{ContentType: "article", Topic: "bees"})
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 1, backend.calls)
}

func TestGenerator_PlainBackendErrorIsWrapped(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection reset")}
	g := NewGenerator(backend, NewFileStore("out", WithFs(afero.NewMemMapFs())))

	_, err := g.Generate(context.Background(), Request{ContentType: "article", Topic: "bees"})
	require.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGenerator_StorageError(t *testing.T) {
	g := NewGenerator(&fakeBackend{text: "x"}, failingStore{err: errors.New("disk full")})

	_, err := g.Generate(context.Background(), Request{ContentType: "article", Topic: "bees"})
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "disk full")
}

func TestGenerator_TimeoutBoundsBackendCall(t *testing.T) {
	backend := &fakeBackend{wait: true}
	g := NewGenerator(backend, NewFileStore("out", WithFs(afero.NewMemMapFs())), WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := g.Generate(context.Background(), Request{ContentType: "article", Topic: "bees"})
	require.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), time.Second)
}

func TestMetricLabel(t *testing.T) {
	assert.Equal(t, TypeBlogPost, MetricLabel("blog_post"))
	assert.Equal(t, TypeArticle, MetricLabel(" Article "))
	assert.Equal(t, TypeSocialMedia, MetricLabel("social_media"))
	assert.Equal(t, TypeScript, MetricLabel("script"))
	assert.Equal(t, TypeOther, MetricLabel("haiku"))
	assert.Equal(t, TypeOther, MetricLabel(strings.Repeat("x", 1000)))
}

func TestGenerator_MetricSeriesStayBounded(t *testing.T) {
	g := NewGenerator(&fakeBackend{text: "x"}, NewFileStore("out", WithFs(afero.NewMemMapFs())))

	before := testutil.CollectAndCount(metrics.GenerationTotal)
	otherBefore := testutil.ToFloat64(metrics.GenerationTotal.WithLabelValues(TypeOther, "success"))

	for i := 0; i < 4; i++ {
		_, err := g.Generate(context.Background(), Request{ContentType: fmt.Sprintf("custom-%d", i), Topic: "bees"})
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, testutil.CollectAndCount(metrics.GenerationTotal)-before, 1)
	assert.Equal(t, otherBefore+4, testutil.ToFloat64(metrics.GenerationTotal.WithLabelValues(TypeOther, "success")))
}
