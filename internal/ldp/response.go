// Package ldp reads Linked Data Platform responses: the headers a
// repository returns for a resource and the links it advertises.
package ldp

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/tomnomnom/linkheader"
)

var (
	// ErrNotFound is returned when the repository has no resource at a URI.
	ErrNotFound = errors.New("resource not found")
	// ErrGone is returned for deleted resources (Fedora tombstones).
	ErrGone = errors.New("resource gone")
)

// StatusError represents a non-2xx response from the repository.
type StatusError struct {
	Method     string
	URI        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.URI, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusGone:
		return ErrGone
	}
	return nil
}

// CheckStatus returns a *StatusError for anything outside 2xx.
func CheckStatus(method, uri string, statusCode int) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	return &StatusError{Method: method, URI: uri, StatusCode: statusCode}
}

// Response is the header half of a repository response.
type Response struct {
	URI        string
	StatusCode int
	Header     http.Header
}

// NewResponse copies the status and headers out of resp.
func NewResponse(uri string, resp *http.Response) *Response {
	return &Response{
		URI:        uri,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
	}
}

// ContentType returns the Content-Type header as sent.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// ContentDisposition returns the raw Content-Disposition header.
func (r *Response) ContentDisposition() string {
	return r.Header.Get("Content-Disposition")
}

// ContentLength reads Content-Length the lenient way: leading digits are
// the value, anything else (missing, garbage) is zero.
func (r *Response) ContentLength() int64 {
	return leadingInt(r.Header.Get("Content-Length"))
}

func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		d := int64(c - '0')
		if n > (math.MaxInt64-d)/10 {
			// Saturate rather than wrap
			n = math.MaxInt64
			break
		}
		n = n*10 + d
	}
	if neg {
		return -n
	}
	return n
}

var filenamePattern = regexp.MustCompile(`filename="([^"]*)";`)

// Filename extracts the quoted filename parameter of a Content-Disposition
// value and percent-decodes it. Fedora always terminates the parameter with
// a semicolon; a value without one does not match. ok is false when no
// filename is present.
func Filename(contentDisposition string) (name string, ok bool) {
	m := filenamePattern.FindStringSubmatch(contentDisposition)
	if m == nil {
		return "", false
	}
	decoded, err := url.PathUnescape(m[1])
	if err != nil {
		// Malformed escapes are returned as sent
		return m[1], true
	}
	return decoded, true
}

// Links parses every Link header into a map from rel to targets, in
// header order.
func Links(r *Response) map[string][]string {
	links := make(map[string][]string)
	if r == nil {
		return links
	}
	for _, l := range linkheader.ParseMultiple(r.Header.Values("Link")) {
		for _, rel := range strings.Fields(l.Rel) {
			links[rel] = append(links[rel], l.URL)
		}
	}
	return links
}

// HasType reports whether a rel="type" link points at typeIRI.
func HasType(r *Response, typeIRI string) bool {
	for _, t := range Links(r)["type"] {
		if t == typeIRI {
			return true
		}
	}
	return false
}

// DescribedBy returns the rel="describedby" target resolved against the
// response URI.
func DescribedBy(r *Response) (string, bool) {
	targets := Links(r)["describedby"]
	if len(targets) == 0 {
		return "", false
	}
	return resolve(r.URI, targets[0]), true
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := b.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
