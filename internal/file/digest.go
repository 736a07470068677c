package file

import (
	"context"
	"crypto"
	_ "crypto/md5"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"ldpfile/internal/vocab"

	"github.com/grailbio/base/digest"
	"github.com/knakk/rdf"
)

var (
	// ErrInvalidChecksum is returned for digest values that are not urn:<alg>:<hex>.
	ErrInvalidChecksum = errors.New("invalid checksum")
	// ErrUnknownAlgorithm is returned when a checksum names a hash we cannot compute.
	ErrUnknownAlgorithm = errors.New("unknown checksum algorithm")
	// ErrChecksumMismatch is returned by Verify when the content hashes differently.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

var ldpNonRDFSource = vocab.LDPNonRDFSource.String()

// Digest returns the checksum values recorded in the resource's metadata
// graph under premis:hasMessageDigest. Repositories older than Fedora 4.3
// record them under fedora:digest instead, which is consulted when the
// first predicate has no values. A new record has no digests.
func (f *File) Digest(ctx context.Context) ([]rdf.Object, error) {
	if f.source == nil {
		return nil, nil
	}

	g, err := f.source.Metadata(ctx)
	if err != nil {
		return nil, err
	}

	objects := g.Objects(vocab.PREMISHasMessageDigest)
	if len(objects) == 0 {
		objects = g.Objects(vocab.Fcrepo4Digest)
	}
	return objects, nil
}

// Checksums returns Digest parsed into algorithm and value pairs. Values
// that are not checksum URNs are skipped.
func (f *File) Checksums(ctx context.Context) ([]Checksum, error) {
	objects, err := f.Digest(ctx)
	if err != nil {
		return nil, err
	}

	var sums []Checksum
	for _, o := range objects {
		sum, err := ParseChecksum(o.String())
		if err != nil {
			continue
		}
		sums = append(sums, sum)
	}
	return sums, nil
}

// Checksum is a hash algorithm name and the lowercase hex digest.
type Checksum struct {
	Algorithm string
	Value     string
}

var algorithms = map[string]crypto.Hash{
	"md5":    crypto.MD5,
	"sha1":   crypto.SHA1,
	"sha256": crypto.SHA256,
	"sha512": crypto.SHA512,
}

// ParseChecksum parses a "urn:<alg>:<hex>" value. Algorithm names are
// normalized, so "sha-256" and "SHA256" are the same.
func ParseChecksum(s string) (Checksum, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || !strings.EqualFold(parts[0], "urn") || parts[1] == "" {
		return Checksum{}, fmt.Errorf("%w: %q", ErrInvalidChecksum, s)
	}
	value := strings.ToLower(parts[2])
	if _, err := hex.DecodeString(value); err != nil || value == "" {
		return Checksum{}, fmt.Errorf("%w: %q", ErrInvalidChecksum, s)
	}
	alg := strings.ToLower(strings.ReplaceAll(parts[1], "-", ""))
	return Checksum{Algorithm: alg, Value: value}, nil
}

func (c Checksum) String() string {
	return "urn:" + c.Algorithm + ":" + c.Value
}

// Supported reports whether Verify can compute the algorithm and the
// value is a digest of that algorithm.
func (c Checksum) Supported() bool {
	_, err := c.Digest()
	return err == nil
}

// Digester returns the digester for the checksum's algorithm.
func (c Checksum) Digester() (digest.Digester, error) {
	h, ok := algorithms[c.Algorithm]
	if !ok || !h.Available() {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, c.Algorithm)
	}
	return digest.Digester(h), nil
}

// Digest returns the recorded value as a digest. The hex length must
// match the algorithm.
func (c Checksum) Digest() (digest.Digest, error) {
	d, err := c.Digester()
	if err != nil {
		return digest.Digest{}, err
	}
	if len(c.Value) != 2*crypto.Hash(d).Size() {
		return digest.Digest{}, fmt.Errorf("%w: %s", ErrInvalidChecksum, c)
	}
	return digest.ParseHash(crypto.Hash(d), c.Value)
}

// Match compares a computed digest with the checksum.
func (c Checksum) Match(got digest.Digest) error {
	want, err := c.Digest()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s want %s got %s", ErrChecksumMismatch, c.Algorithm, want.Hex(), got.Hex())
	}
	return nil
}

// Verify hashes r to EOF and compares it with the checksum.
func (c Checksum) Verify(r io.Reader) error {
	d, err := c.Digester()
	if err != nil {
		return err
	}
	w := d.NewWriter()
	if _, err := io.Copy(w, r); err != nil {
		return err
	}
	return c.Match(w.Digest())
}
