package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"ldpfile/internal/core/types"
	"ldpfile/internal/file"
	"ldpfile/internal/transfer"

	"github.com/dustin/go-humanize"
)

// PrintInfo writes every attribute of f in a "Key: value" listing.
func PrintInfo(ctx context.Context, w io.Writer, f *file.File) error {
	mimeType, err := f.MimeType(ctx)
	if err != nil {
		return fmt.Errorf("mime type: %w", err)
	}
	name, err := f.OriginalName(ctx)
	if err != nil {
		return fmt.Errorf("original name: %w", err)
	}
	size, sizeKnown, err := f.Size(ctx)
	if err != nil {
		return fmt.Errorf("size: %w", err)
	}
	empty, err := f.Empty(ctx)
	if err != nil {
		return fmt.Errorf("empty: %w", err)
	}
	binary, err := f.IsNonRDFSource(ctx)
	if err != nil {
		return fmt.Errorf("links: %w", err)
	}
	digests, err := f.Digest(ctx)
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}

	fmt.Fprintf(w, "URI: %s\n", f.URI())
	fmt.Fprintf(w, "MIME Type: %s\n", orNone(mimeType))
	fmt.Fprintf(w, "Original Name: %s\n", orNone(name))
	if sizeKnown {
		fmt.Fprintf(w, "Size: %s (%d bytes)\n", humanize.Bytes(uint64(max(size, 0))), size)
	} else {
		fmt.Fprintf(w, "Size: unknown\n")
	}
	fmt.Fprintf(w, "Empty: %t\n", empty)
	fmt.Fprintf(w, "Binary: %t\n", binary)
	fmt.Fprintf(w, "Digests: %d\n", len(digests))
	for _, d := range digests {
		fmt.Fprintf(w, "  - %s\n", d.String())
	}
	return nil
}

// PrintDigests writes one digest value per line.
func PrintDigests(ctx context.Context, w io.Writer, f *file.File) error {
	digests, err := f.Digest(ctx)
	if err != nil {
		return err
	}
	for _, d := range digests {
		fmt.Fprintln(w, d.String())
	}
	return nil
}

// PrintLinks writes the resource's Link headers grouped by rel.
func PrintLinks(ctx context.Context, w io.Writer, f *file.File) error {
	links, err := f.Links(ctx)
	if err != nil {
		return err
	}
	rels := make([]string, 0, len(links))
	for rel := range links {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	for _, rel := range rels {
		for _, target := range links[rel] {
			fmt.Fprintf(w, "%s: %s\n", rel, target)
		}
	}
	return nil
}

// PrintDownload summarizes a finished download.
func PrintDownload(w io.Writer, dest string, res transfer.Result) {
	fmt.Fprintf(w, "✓ Wrote %s to %s\n", types.Bytes(res.Bytes), dest)
	if res.Duration > 0 {
		fmt.Fprintf(w, "Took: %s (%s/s)\n", res.Duration.Round(time.Millisecond), humanize.Bytes(uint64(res.Speed)))
	}
	switch {
	case res.Verified:
		fmt.Fprintf(w, "Checksum: %s (verified)\n", res.Checksum)
	default:
		fmt.Fprintf(w, "Checksum: not verified\n")
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
