// Package graph is an in-memory RDF graph for resource descriptions.
//
// A Graph is filled once from a serialized description (Turtle or
// N-Triples) and then queried by triple pattern. It is read-only after
// construction and safe for concurrent use.
package graph

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/knakk/rdf"
)

// ErrUnsupportedFormat is returned for serializations the decoder cannot read.
var ErrUnsupportedFormat = errors.New("unsupported RDF format")

// Graph is a set of triples.
type Graph struct {
	triples []rdf.Triple
}

// Pattern selects triples. Nil fields match anything.
type Pattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
}

// New builds a graph from already decoded triples.
func New(triples ...rdf.Triple) *Graph {
	g := &Graph{}
	for _, t := range triples {
		g.add(t)
	}
	return g
}

// Parse decodes r in the given format.
func Parse(r io.Reader, format rdf.Format) (*Graph, error) {
	switch format {
	case rdf.Turtle, rdf.NTriples:
	default:
		return nil, ErrUnsupportedFormat
	}

	dec := rdf.NewTripleDecoder(r, format)
	g := &Graph{}
	for {
		t, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode triple %d: %w", len(g.triples)+1, err)
		}
		g.add(t)
	}
	return g, nil
}

// FormatForMediaType maps a response Content-Type to a decoder format.
// An empty media type is read as Turtle, which is what Fedora serves by default.
func FormatForMediaType(mediaType string) (rdf.Format, error) {
	if mediaType == "" {
		return rdf.Turtle, nil
	}
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, mediaType)
	}
	switch strings.ToLower(mt) {
	case "text/turtle", "application/x-turtle":
		return rdf.Turtle, nil
	case "application/n-triples", "text/plain":
		return rdf.NTriples, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, mediaType)
}

func (g *Graph) add(t rdf.Triple) {
	for _, existing := range g.triples {
		if sameTriple(existing, t) {
			return
		}
	}
	g.triples = append(g.triples, t)
}

// Len returns the number of triples.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.triples)
}

// Empty reports whether the graph holds no triples.
func (g *Graph) Empty() bool {
	return g.Len() == 0
}

// Triples returns a copy of every triple in insertion order.
func (g *Graph) Triples() []rdf.Triple {
	if g == nil {
		return nil
	}
	return append([]rdf.Triple(nil), g.triples...)
}

// Query returns the triples matching p in insertion order.
func (g *Graph) Query(p Pattern) []rdf.Triple {
	if g == nil {
		return nil
	}
	var out []rdf.Triple
	for _, t := range g.triples {
		if matches(p.Subject, t.Subj) && matches(p.Predicate, t.Pred) && matches(p.Object, t.Obj) {
			out = append(out, t)
		}
	}
	return out
}

// Objects returns the objects of all triples with the given predicate.
func (g *Graph) Objects(predicate rdf.Term) []rdf.Object {
	matched := g.Query(Pattern{Predicate: predicate})
	if len(matched) == 0 {
		return nil
	}
	objects := make([]rdf.Object, 0, len(matched))
	for _, t := range matched {
		objects = append(objects, t.Obj)
	}
	return objects
}

func matches(want, got rdf.Term) bool {
	if want == nil {
		return true
	}
	return rdf.TermsEqual(want, got)
}

func sameTriple(a, b rdf.Triple) bool {
	return rdf.TermsEqual(a.Subj, b.Subj) && rdf.TermsEqual(a.Pred, b.Pred) && rdf.TermsEqual(a.Obj, b.Obj)
}
