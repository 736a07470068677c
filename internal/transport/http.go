package transport

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// DefaultHTTPClient returns a client that negotiates HTTP/2 over TLS and
// falls back to HTTP/1.1 for plain http repositories.
func DefaultHTTPClient() *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	// ConfigureTransport only fails when the transport is already configured
	_ = http2.ConfigureTransport(t)
	return &http.Client{Transport: t}
}

type HTTPTransferOption func(*HTTPTransfer)

func HTTPWithClient(c *http.Client) HTTPTransferOption {
	return func(t *HTTPTransfer) {
		if c != nil {
			t.client = c
		}
	}
}

// HTTPWithTimeout bounds each request, including reading the response
// inside the callback. Zero disables the bound.
func HTTPWithTimeout(d time.Duration) HTTPTransferOption {
	return func(t *HTTPTransfer) {
		t.timeout = d
	}
}

// HTTPWithRequestOptions applies opts to every request.
func HTTPWithRequestOptions(opts ...HTTPRequestOption) HTTPTransferOption {
	return func(t *HTTPTransfer) {
		t.defaults = append(t.defaults, opts...)
	}
}

type HTTPTransfer struct {
	client   *http.Client
	timeout  time.Duration
	defaults []HTTPRequestOption
}

func DefaultHTTPTransfer() *HTTPTransfer {
	return &HTTPTransfer{
		client: DefaultHTTPClient(),
	}
}

func NewHTTPTransfer(opts ...HTTPTransferOption) *HTTPTransfer {
	ht := DefaultHTTPTransfer()

	for _, opt := range opts {
		opt(ht)
	}

	return ht
}

type HTTPRequestOption func(*http.Request)

// HTTPResponseCallback consumes a response. The body is closed by the
// transfer once the callback returns.
type HTTPResponseCallback func(*http.Response) error

func (ht *HTTPTransfer) Do(
	ctx context.Context,
	method, url string,
	respCb HTTPResponseCallback,
	reqOpts ...HTTPRequestOption,
) error {
	if ht.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ht.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}

	for _, opt := range ht.defaults {
		opt(req)
	}
	for _, opt := range reqOpts {
		opt(req)
	}

	resp, err := ht.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return respCb(resp)
}

// Stream issues a GET and hands back the open response. The caller closes
// the body. No timeout is applied since the body outlives this call.
func (ht *HTTPTransfer) Stream(ctx context.Context, url string, reqOpts ...HTTPRequestOption) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for _, opt := range ht.defaults {
		opt(req)
	}
	for _, opt := range reqOpts {
		opt(req)
	}
	return ht.client.Do(req)
}

func (ht *HTTPTransfer) Get(ctx context.Context, url string, respCb HTTPResponseCallback, reqOpts ...HTTPRequestOption) error {
	return ht.Do(ctx, http.MethodGet, url, respCb, reqOpts...)
}

func (ht *HTTPTransfer) Head(ctx context.Context, url string, respCb HTTPResponseCallback, reqOpts ...HTTPRequestOption) error {
	return ht.Do(ctx, http.MethodHead, url, respCb, reqOpts...)
}
