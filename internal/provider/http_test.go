package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"ldpfile/internal/core/types"
	"ldpfile/internal/file"
	"ldpfile/internal/ldp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const binaryDescription = `@prefix premis: <http://www.loc.gov/premis/rdf/v1#> .
<%s/rest/files/scan>
    premis:hasMessageDigest <urn:sha1:a9993e364706816aba3e25717850c26c9cd0d89d> .
`

// fakeFedora serves one binary at /rest/files/scan with its description at
// /rest/files/scan/fcr:metadata.
type fakeFedora struct {
	*httptest.Server
	heads    atomic.Int32
	metadata atomic.Int32
	auth     atomic.Value
}

func newFakeFedora(t *testing.T, describedBy bool) *fakeFedora {
	t.Helper()
	f := &fakeFedora{}
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/files/scan", func(w http.ResponseWriter, r *http.Request) {
		f.auth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Disposition", `attachment; filename="abc.txt"; size=3`)
		w.Header().Add("Link", `<http://www.w3.org/ns/ldp#NonRDFSource>;rel="type"`)
		if describedBy {
			w.Header().Add("Link", `</rest/files/scan/fcr:metadata>; rel="describedby"`)
		}
		w.Header().Set("Content-Length", "3")
		if r.Method == http.MethodHead {
			f.heads.Add(1)
			return
		}
		_, _ = io.WriteString(w, "abc")
	})
	mux.HandleFunc("/rest/files/scan/fcr:metadata", func(w http.ResponseWriter, r *http.Request) {
		f.metadata.Add(1)
		assert.Contains(t, r.Header.Get("Accept"), "text/turtle")
		assert.Contains(t, r.Header.Get("Prefer"), "PreferContainment")
		w.Header().Set("Content-Type", "text/turtle;charset=utf-8")
		_, _ = io.WriteString(w, strings.ReplaceAll(binaryDescription, "%s", f.URL))
	})
	mux.HandleFunc("/rest/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newTestHTTPProvider(t *testing.T, srv *fakeFedora, mutate func(*types.ProviderConfig)) Provider {
	t.Helper()
	cfg := types.DefaultProviderConfig()
	cfg.ID = "fedora"
	cfg.Type = "fedora"
	cfg.BaseURL = srv.URL + "/rest"
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := NewProvider(cfg, Options{HTTPClient: srv.Client()})
	require.NoError(t, err)
	return p
}

func TestHTTPProviderFileAttributes(t *testing.T) {
	for _, describedBy := range []bool{true, false} {
		srv := newFakeFedora(t, describedBy)
		p := newTestHTTPProvider(t, srv, nil)
		ctx := context.Background()

		src, err := p.Open(ctx, "files/scan")
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/rest/files/scan", src.URI())

		f := file.Open(src)

		mt, err := f.MimeType(ctx)
		require.NoError(t, err)
		assert.Equal(t, "text/plain", mt)

		name, err := f.OriginalName(ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc.txt", name)

		size, ok, err := f.Size(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.EqualValues(t, 3, size)

		sums, err := f.Checksums(ctx)
		require.NoError(t, err)
		require.Len(t, sums, 1)

		content, err := src.Content(ctx)
		require.NoError(t, err)
		assert.NoError(t, sums[0].Verify(content))
		content.Close()

		// A second lookup hits the cached graph
		_, err = f.Digest(ctx)
		require.NoError(t, err)

		assert.EqualValues(t, 1, srv.heads.Load())
		assert.EqualValues(t, 1, srv.metadata.Load())

		f.Reload()
		_, err = f.Digest(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, srv.heads.Load())
		assert.EqualValues(t, 2, srv.metadata.Load())
	}
}

func TestHTTPProviderAuth(t *testing.T) {
	srv := newFakeFedora(t, true)
	ctx := context.Background()

	p := newTestHTTPProvider(t, srv, func(cfg *types.ProviderConfig) { cfg.Token = "tok" })
	src, err := p.Open(ctx, "files/scan")
	require.NoError(t, err)
	_, err = src.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", srv.auth.Load())

	p = newTestHTTPProvider(t, srv, func(cfg *types.ProviderConfig) {
		cfg.Username = "fedoraAdmin"
		cfg.Password = "secret"
	})
	src, err = p.Open(ctx, "files/scan")
	require.NoError(t, err)
	_, err = src.Head(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(srv.auth.Load().(string), "Basic "))
}

func TestHTTPProviderErrors(t *testing.T) {
	srv := newFakeFedora(t, true)
	p := newTestHTTPProvider(t, srv, nil)
	ctx := context.Background()

	src, err := p.Open(ctx, "missing")
	require.NoError(t, err)
	_, err = file.Open(src).MimeType(ctx)
	assert.True(t, errors.Is(err, ldp.ErrNotFound))

	src, err = p.Open(ctx, "gone")
	require.NoError(t, err)
	_, err = file.Open(src).Digest(ctx)
	assert.True(t, errors.Is(err, ldp.ErrGone))

	_, err = p.Open(ctx, "../../etc/passwd")
	assert.Error(t, err)
}

func TestHTTPProviderRejectsBadBaseURL(t *testing.T) {
	cfg := types.DefaultProviderConfig()
	cfg.BaseURL = "ftp://example.org/rest"
	_, err := NewHTTPProvider(cfg, Options{})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	srv := newFakeFedora(t, true)
	t.Cleanup(ResetProviders)

	err := InitializeProviders(map[string]types.ProviderConfig{
		"local": {Type: "http", BaseURL: srv.URL + "/rest"},
	}, Options{HTTPClient: srv.Client()})
	require.NoError(t, err)

	assert.Equal(t, []string{"local"}, ListProviders())

	p, err := GetProvider("local")
	require.NoError(t, err)
	assert.Equal(t, "local", p.GetID())
	assert.Equal(t, "http", p.GetName())

	_, err = GetProvider("nope")
	assert.Error(t, err)

	err = InitializeProviders(map[string]types.ProviderConfig{"bad": {Type: "gopher"}}, Options{})
	assert.Error(t, err)
}
