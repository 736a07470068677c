package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ldpfile/internal/graph"
	"ldpfile/internal/ldp"

	"github.com/knakk/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves canned headers and a canned metadata graph, counting
// fetches the way a memoizing source would.
type fakeSource struct {
	mu        sync.Mutex
	header    http.Header
	metadata  string
	headErr   error
	heads     int
	refreshes int
	head      *ldp.Response
}

func newFakeSource(kv ...string) *fakeSource {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Add(kv[i], kv[i+1])
	}
	return &fakeSource{header: h}
}

func (s *fakeSource) URI() string { return "http://localhost:8080/rest/files/a" }

func (s *fakeSource) Head(ctx context.Context) (*ldp.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.headErr != nil {
		return nil, s.headErr
	}
	if s.head == nil {
		s.heads++
		s.head = &ldp.Response{URI: s.URI(), StatusCode: http.StatusOK, Header: s.header.Clone()}
	}
	return s.head, nil
}

func (s *fakeSource) Metadata(ctx context.Context) (*graph.Graph, error) {
	return graph.Parse(strings.NewReader(s.metadata), rdf.Turtle)
}

func (s *fakeSource) Content(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (s *fakeSource) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	s.head = nil
}

func TestNewRecordDefaults(t *testing.T) {
	ctx := context.Background()
	f := New()

	assert.True(t, f.IsNewRecord())
	assert.Equal(t, "", f.URI())

	mt, err := f.MimeType(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultMimeType, mt)

	name, err := f.OriginalName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", name)

	_, ok, err := f.PersistedSize(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = f.Size(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	has, err := f.HasContent(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	empty, err := f.Empty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	digests, err := f.Digest(ctx)
	require.NoError(t, err)
	assert.Empty(t, digests)

	links, err := f.Links(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestPersistedAttributes(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(
		"Content-Type", "image/tiff",
		"Content-Disposition", `attachment; filename="scan%2001.tif"; creation-date="Tue, 01 Jan 2019 00:00:00 GMT"; size=2048`,
		"Content-Length", "2048",
		"Link", `<http://www.w3.org/ns/ldp#NonRDFSource>;rel="type"`,
	)
	f := Open(src)

	mt, err := f.MimeType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "image/tiff", mt)

	name, err := f.OriginalName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "scan 01.tif", name)

	size, ok, err := f.Size(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 2048, size)

	has, err := f.HasContent(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	binary, err := f.IsNonRDFSource(ctx)
	require.NoError(t, err)
	assert.True(t, binary)

	assert.Equal(t, 1, src.heads, "HEAD is fetched once")
}

func TestSettersOverrideRepository(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource("Content-Type", "image/tiff")
	f := Open(src)

	f.SetMimeType("application/pdf")
	f.SetOriginalName("renamed.pdf")

	mt, err := f.MimeType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mt)

	name, err := f.OriginalName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "renamed.pdf", name)

	assert.Equal(t, 0, src.heads)
}

func TestMissingHeaders(t *testing.T) {
	ctx := context.Background()
	f := Open(newFakeSource())

	mt, err := f.MimeType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", mt)

	name, err := f.OriginalName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", name)

	size, ok, err := f.PersistedSize(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 0, size)

	empty, err := f.Empty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestEmptyContentTypeIsMemoized(t *testing.T) {
	ctx := context.Background()

	src := newFakeSource("Content-Type", "")
	f := Open(src)
	mt, err := f.MimeType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", mt)

	src.head.Header.Set("Content-Type", "text/html")
	mt, err = f.MimeType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", mt, "a present empty header is kept")

	src = newFakeSource()
	f = Open(src)
	_, err = f.MimeType(ctx)
	require.NoError(t, err)

	src.head.Header.Set("Content-Type", "text/html")
	mt, err = f.MimeType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "text/html", mt, "a missing header is looked up again")
}

func TestDirtySizeWins(t *testing.T) {
	ctx := context.Background()
	f := Open(newFakeSource("Content-Length", "100"))

	_, ok := f.DirtySize()
	assert.False(t, ok, "unchanged file has no dirty size")

	f.SetContent(strings.NewReader("hello"))
	assert.True(t, f.Changed())

	size, ok := f.DirtySize()
	assert.True(t, ok)
	assert.EqualValues(t, 5, size)

	size, ok, err := f.Size(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 5, size)

	f.SetContent(bytes.NewReader(nil))
	empty, err := f.Empty(ctx)
	require.NoError(t, err)
	assert.True(t, empty, "empty dirty content beats the persisted size")
}

func TestDirtySizeUnknownFallsBack(t *testing.T) {
	ctx := context.Background()
	f := Open(newFakeSource("Content-Length", "100"))

	// io.MultiReader cannot report a size
	f.SetContent(io.MultiReader(strings.NewReader("abc")))
	_, ok := f.DirtySize()
	assert.False(t, ok)

	size, ok, err := f.Size(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 100, size)
}

func TestContentSizeKinds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content")
	require.NoError(t, os.WriteFile(path, []byte("123456"), 0o644))
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	tests := []struct {
		name string
		r    io.Reader
		want int64
		ok   bool
	}{
		{"strings.Reader", strings.NewReader("abcd"), 4, true},
		{"bytes.Reader", bytes.NewReader([]byte{1, 2}), 2, true},
		{"bytes.Buffer", bytes.NewBufferString("xyz"), 3, true},
		{"os.File", fh, 6, true},
		{"nil", nil, 0, false},
		{"pipe", &io.PipeReader{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := contentSize(tt.r)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRecordWithContent(t *testing.T) {
	ctx := context.Background()
	f := New()
	f.SetContent(strings.NewReader("data"))

	size, ok, err := f.Size(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 4, size)

	has, err := f.HasContent(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestHeadErrorPropagates(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.headErr = ldp.ErrNotFound
	f := Open(src)

	_, err := f.MimeType(ctx)
	assert.True(t, errors.Is(err, ldp.ErrNotFound))

	_, _, err = f.Size(ctx)
	assert.True(t, errors.Is(err, ldp.ErrNotFound))

	_, err = f.Empty(ctx)
	assert.Error(t, err)

	_, err = f.Links(ctx)
	assert.Error(t, err)
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource("Content-Type", "text/csv")
	f := Open(src)

	_, err := f.MimeType(ctx)
	require.NoError(t, err)
	f.SetContent(strings.NewReader("x"))

	src.mu.Lock()
	src.header.Set("Content-Type", "application/json")
	src.mu.Unlock()

	f.Reload()
	assert.False(t, f.Changed())
	assert.Nil(t, f.Content())
	assert.Equal(t, 1, src.refreshes)

	mt, err := f.MimeType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "application/json", mt)
	assert.Equal(t, 2, src.heads)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource("Content-Type", "text/csv", "Content-Length", "10")
	f := Open(src)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.MimeType(ctx)
			_, _, _ = f.Size(ctx)
			_, _ = f.Empty(ctx)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, src.heads)
}
