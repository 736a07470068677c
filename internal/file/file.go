// Package file exposes the metadata of a repository binary: MIME type,
// original filename, checksums and size.
//
// Values that come from the repository are fetched on first use and kept
// for the life of the File. A File created with New is a new record: it
// has never been saved, so nothing is fetched and defaults apply. Local
// content assigned with SetContent takes precedence over the persisted
// size until the file is reloaded.
package file

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"ldpfile/internal/graph"
	"ldpfile/internal/ldp"
)

// DefaultMimeType is reported for files that have not been saved.
const DefaultMimeType = "text/plain"

// ErrNewRecord is returned for operations that need a persisted resource.
var ErrNewRecord = errors.New("file has not been persisted")

// Source is the remote side of a file. Implementations memoize Head and
// Metadata until Refresh is called.
type Source interface {
	URI() string
	Head(ctx context.Context) (*ldp.Response, error)
	Metadata(ctx context.Context) (*graph.Graph, error)
	Content(ctx context.Context) (io.ReadCloser, error)
	Refresh()
}

// File is a binary resource and its cached attributes. All methods are
// safe for concurrent use.
type File struct {
	mu     sync.Mutex
	source Source

	mimeType     *string
	originalName *string
	links        map[string][]string

	content io.Reader
	changed bool
}

// New returns a file that has not been persisted.
func New() *File {
	return &File{}
}

// Open returns a file backed by src.
func Open(src Source) *File {
	return &File{source: src}
}

// IsNewRecord reports whether the file has no persisted counterpart.
func (f *File) IsNewRecord() bool {
	return f.source == nil
}

// URI returns the repository URI, or "" for a new record.
func (f *File) URI() string {
	if f.source == nil {
		return ""
	}
	return f.source.URI()
}

// SetMimeType assigns the MIME type, overriding the repository's.
func (f *File) SetMimeType(mimeType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mimeType = &mimeType
}

// MimeType returns the assigned MIME type, or the repository's
// Content-Type. A new record reports DefaultMimeType.
func (f *File) MimeType(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mimeType != nil {
		return *f.mimeType, nil
	}
	if f.source == nil {
		mt := DefaultMimeType
		f.mimeType = &mt
		return mt, nil
	}

	head, err := f.source.Head(ctx)
	if err != nil {
		return "", err
	}
	mt := head.ContentType()
	if len(head.Header.Values("Content-Type")) > 0 {
		f.mimeType = &mt
	}
	return mt, nil
}

// SetOriginalName assigns the original filename.
func (f *File) SetOriginalName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.originalName = &name
}

// OriginalName returns the assigned name, or the filename the repository
// advertises in Content-Disposition. It is "" for a new record and when
// the header carries no filename.
func (f *File) OriginalName(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.originalName != nil {
		return *f.originalName, nil
	}
	if f.source == nil {
		return "", nil
	}

	head, err := f.source.Head(ctx)
	if err != nil {
		return "", err
	}
	name, ok := ldp.Filename(head.ContentDisposition())
	if !ok {
		return "", nil
	}
	f.originalName = &name
	return name, nil
}

// SetContent replaces the local content and marks the file changed.
func (f *File) SetContent(r io.Reader) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = r
	f.changed = true
}

// Content returns the local content set with SetContent.
func (f *File) Content() io.Reader {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content
}

// Changed reports whether local content has been assigned since the file
// was opened or reloaded.
func (f *File) Changed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changed
}

// DirtySize returns the size of unsaved local content. ok is false when
// nothing changed or the content cannot report its size.
func (f *File) DirtySize() (size int64, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirtySize()
}

func (f *File) dirtySize() (int64, bool) {
	if !f.changed {
		return 0, false
	}
	return contentSize(f.content)
}

// PersistedSize returns the repository's Content-Length. ok is false for
// a new record.
func (f *File) PersistedSize(ctx context.Context) (size int64, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.persistedSize(ctx)
}

func (f *File) persistedSize(ctx context.Context) (int64, bool, error) {
	if f.source == nil {
		return 0, false, nil
	}
	head, err := f.source.Head(ctx)
	if err != nil {
		return 0, false, err
	}
	return head.ContentLength(), true, nil
}

// Size prefers the dirty size over the persisted one. ok is false when
// neither is known.
func (f *File) Size(ctx context.Context) (size int64, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size(ctx)
}

func (f *File) size(ctx context.Context) (int64, bool, error) {
	if size, ok := f.dirtySize(); ok {
		return size, true, nil
	}
	return f.persistedSize(ctx)
}

// HasContent reports whether the size is known and positive.
func (f *File) HasContent(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	size, ok, err := f.size(ctx)
	if err != nil {
		return false, err
	}
	return ok && size > 0, nil
}

// Empty is the negation of HasContent.
func (f *File) Empty(ctx context.Context) (bool, error) {
	has, err := f.HasContent(ctx)
	if err != nil {
		return false, err
	}
	return !has, nil
}

// Links returns the Link headers of the persisted resource grouped by rel.
// A new record has none.
func (f *File) Links(ctx context.Context) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLinks(ctx)
}

func (f *File) loadLinks(ctx context.Context) (map[string][]string, error) {
	if f.links != nil {
		return f.links, nil
	}
	if f.source == nil {
		return map[string][]string{}, nil
	}
	head, err := f.source.Head(ctx)
	if err != nil {
		return nil, err
	}
	f.links = ldp.Links(head)
	return f.links, nil
}

// IsNonRDFSource reports whether the repository types the resource as an
// LDP binary.
func (f *File) IsNonRDFSource(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	links, err := f.loadLinks(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range links["type"] {
		if t == ldpNonRDFSource {
			return true, nil
		}
	}
	return false, nil
}

// Reload forgets every cached attribute and local change, and asks the
// source to fetch fresh responses.
func (f *File) Reload() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mimeType = nil
	f.originalName = nil
	f.links = nil
	f.content = nil
	f.changed = false
	if f.source != nil {
		f.source.Refresh()
	}
}

// PersistedContent opens the repository's copy of the bytes. The caller
// closes the reader.
func (f *File) PersistedContent(ctx context.Context) (io.ReadCloser, error) {
	if f.source == nil {
		return nil, ErrNewRecord
	}
	return f.source.Content(ctx)
}

func contentSize(r io.Reader) (int64, bool) {
	switch c := r.(type) {
	case interface{ Size() int64 }:
		return c.Size(), true
	case interface{ Len() int }:
		return int64(c.Len()), true
	case interface{ Stat() (os.FileInfo, error) }:
		info, err := c.Stat()
		if err != nil {
			return 0, false
		}
		return info.Size(), true
	}
	return 0, false
}
