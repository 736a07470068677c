package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"ldpfile/internal/core/types"
	"ldpfile/internal/file"
	"ldpfile/internal/graph"
	"ldpfile/internal/ldp"
	"ldpfile/internal/transport"
	"ldpfile/internal/transport/request"
	"ldpfile/internal/vocab"
)

// metadataAccept asks for Turtle first since every Fedora release serves it.
const metadataAccept = "text/turtle, application/n-triples;q=0.9"

// metadataPrefer leaves container membership out of the description.
const metadataPrefer = `return=representation; omit="http://www.w3.org/ns/ldp#PreferContainment http://www.w3.org/ns/ldp#PreferMembership"`

// HTTPProvider implements the Provider interface for LDP servers such as Fedora
type HTTPProvider struct {
	id             string
	cfg            *types.ProviderConfig
	baseURL        *url.URL
	metadataSuffix string
	logger         *slog.Logger
	httpTransfer   *transport.HTTPTransfer
}

func NewHTTPProvider(cfg types.ProviderConfig, opts Options) (Provider, error) {
	baseURL, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base_url %q: %w", cfg.BaseURL, err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid base_url %q: scheme must be http or https", cfg.BaseURL)
	}

	reqOpts := []transport.HTTPRequestOption{}
	if len(cfg.Headers) > 0 {
		reqOpts = append(reqOpts, request.WithHeaders(cfg.Headers))
	}
	switch {
	case cfg.Token != "":
		reqOpts = append(reqOpts, request.WithBearerToken(cfg.Token))
	case cfg.Username != "":
		reqOpts = append(reqOpts, request.WithBasicAuth(cfg.Username, cfg.Password))
	}
	if opts.UserAgent != "" {
		reqOpts = append(reqOpts, request.WithUserAgent(opts.UserAgent))
	}

	httpOpts := []transport.HTTPTransferOption{
		transport.HTTPWithTimeout(types.ParseDuration(cfg.Timeout, 30*time.Second)),
		transport.HTTPWithRequestOptions(reqOpts...),
	}
	if opts.HTTPClient != nil {
		httpOpts = append(httpOpts, transport.HTTPWithClient(opts.HTTPClient))
	}

	suffix := cfg.MetadataSuffix
	if suffix == "" {
		suffix = types.DefaultMetadataSuffix
	}

	return &HTTPProvider{
		id:             cfg.ID,
		cfg:            &cfg,
		baseURL:        baseURL,
		metadataSuffix: suffix,
		logger:         opts.logger().With("provider", cfg.ID),
		httpTransfer:   transport.NewHTTPTransfer(httpOpts...),
	}, nil
}

func (p *HTTPProvider) GetName() string {
	if p.cfg.Name != "" {
		return p.cfg.Name
	}
	return p.cfg.Type
}

func (p *HTTPProvider) GetID() string {
	return p.id
}

// Open resolves path against the base URL. Absolute URLs must live under it.
func (p *HTTPProvider) Open(ctx context.Context, path string) (file.Source, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid resource path %q: %w", path, err)
	}
	uri := p.baseURL.ResolveReference(ref)
	if !strings.HasPrefix(uri.String(), p.baseURL.String()) {
		return nil, fmt.Errorf("resource %s is outside repository %s", uri, p.baseURL)
	}

	return &HTTPResource{
		uri:            strings.TrimSuffix(uri.String(), "/"),
		metadataSuffix: p.metadataSuffix,
		transfer:       p.httpTransfer,
		logger:         p.logger,
	}, nil
}

// HTTPResource is one LDP resource. HEAD and metadata responses are kept
// until Refresh.
type HTTPResource struct {
	uri            string
	metadataSuffix string
	transfer       *transport.HTTPTransfer
	logger         *slog.Logger

	mu       sync.Mutex
	head     *ldp.Response
	metadata *graph.Graph
}

func (r *HTTPResource) URI() string {
	return r.uri
}

func (r *HTTPResource) Head(ctx context.Context) (*ldp.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadHead(ctx)
}

func (r *HTTPResource) loadHead(ctx context.Context) (*ldp.Response, error) {
	if r.head != nil {
		return r.head, nil
	}

	var head *ldp.Response
	err := r.transfer.Head(ctx, r.uri, func(resp *http.Response) error {
		if err := ldp.CheckStatus(http.MethodHead, r.uri, resp.StatusCode); err != nil {
			return err
		}
		head = ldp.NewResponse(r.uri, resp)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("fetched head", "uri", r.uri, "content_type", head.ContentType())
	r.head = head
	return head, nil
}

// MetadataURI returns where the resource's description lives: the
// describedby link when the server sends one, the resource itself for RDF
// sources, and <uri>/fcr:metadata otherwise.
func (r *HTTPResource) MetadataURI(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metadataURI(ctx)
}

func (r *HTTPResource) metadataURI(ctx context.Context) (string, error) {
	head, err := r.loadHead(ctx)
	if err != nil {
		return "", err
	}
	if described, ok := ldp.DescribedBy(head); ok {
		return described, nil
	}
	if ldp.HasType(head, vocab.LDPRDFSource.String()) && !ldp.HasType(head, vocab.LDPNonRDFSource.String()) {
		return r.uri, nil
	}
	return r.uri + r.metadataSuffix, nil
}

func (r *HTTPResource) Metadata(ctx context.Context) (*graph.Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.metadata != nil {
		return r.metadata, nil
	}

	metadataURI, err := r.metadataURI(ctx)
	if err != nil {
		return nil, err
	}

	var g *graph.Graph
	err = r.transfer.Get(ctx, metadataURI, func(resp *http.Response) error {
		if err := ldp.CheckStatus(http.MethodGet, metadataURI, resp.StatusCode); err != nil {
			return err
		}
		format, err := graph.FormatForMediaType(resp.Header.Get("Content-Type"))
		if err != nil {
			return err
		}
		g, err = graph.Parse(resp.Body, format)
		return err
	}, request.WithAccept(metadataAccept), request.WithPrefer(metadataPrefer))
	if err != nil {
		return nil, fmt.Errorf("metadata for %s: %w", r.uri, err)
	}

	r.logger.Debug("fetched metadata", "uri", metadataURI, "triples", g.Len())
	r.metadata = g
	return g, nil
}

// Content opens the persisted bytes. The caller closes the reader.
func (r *HTTPResource) Content(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.transfer.Stream(ctx, r.uri)
	if err != nil {
		return nil, err
	}
	if err := ldp.CheckStatus(http.MethodGet, r.uri, resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (r *HTTPResource) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = nil
	r.metadata = nil
}

func init() {
	RegisterProviderFactory("http", NewHTTPProvider)
	RegisterProviderFactory("fedora", NewHTTPProvider)
}
