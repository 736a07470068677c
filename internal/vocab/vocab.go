// Package vocab holds the RDF terms the repository client looks up.
package vocab

import "github.com/knakk/rdf"

const (
	PREMISNamespace  = "http://www.loc.gov/premis/rdf/v1#"
	Fcrepo4Namespace = "http://fedora.info/definitions/v4/repository#"
	LDPNamespace     = "http://www.w3.org/ns/ldp#"
)

var (
	// PREMISHasMessageDigest is the current checksum predicate.
	PREMISHasMessageDigest = iri(PREMISNamespace + "hasMessageDigest")

	// Fcrepo4Digest was used for checksums by Fedora < 4.3 and dropped from
	// the 2015-07-24 repository ontology.
	Fcrepo4Digest = iri(Fcrepo4Namespace + "digest")

	LDPRDFSource    = iri(LDPNamespace + "RDFSource")
	LDPNonRDFSource = iri(LDPNamespace + "NonRDFSource")
)

func iri(s string) rdf.IRI {
	u, err := rdf.NewIRI(s)
	if err != nil {
		panic("invalid vocabulary IRI: " + s)
	}
	return u
}
