package request

import (
	"net/http"

	"ldpfile/internal/transport"
)

// WithHeaders creates a request option that sets multiple headers
func WithHeaders(headers map[string]string) transport.HTTPRequestOption {
	return func(req *http.Request) {
		for key, value := range headers {
			req.Header.Set(key, value)
		}
	}
}

// WithBasicAuth creates a request option that sets Basic Authentication
func WithBasicAuth(username, password string) transport.HTTPRequestOption {
	return func(req *http.Request) {
		req.SetBasicAuth(username, password)
	}
}

// WithBearerToken creates a request option that sets Bearer token authentication
func WithBearerToken(token string) transport.HTTPRequestOption {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// WithUserAgent creates a request option that sets the User-Agent header
func WithUserAgent(userAgent string) transport.HTTPRequestOption {
	return func(req *http.Request) {
		req.Header.Set("User-Agent", userAgent)
	}
}

// WithAccept creates a request option that sets the Accept header
func WithAccept(contentType string) transport.HTTPRequestOption {
	return func(req *http.Request) {
		req.Header.Set("Accept", contentType)
	}
}

// WithPrefer sets an RFC 7240 Prefer header, used by LDP servers to trim
// or extend representations.
func WithPrefer(preference string) transport.HTTPRequestOption {
	return func(req *http.Request) {
		req.Header.Set("Prefer", preference)
	}
}
