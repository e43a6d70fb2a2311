// Package svo queries a Scientific Variables Ontology triple store for
// entities matching a technical term and scores each candidate with a
// composite string-similarity rank in [0,1].
package svo

import "strings"

// Entity is one ranked ontology candidate for a search term.
//
// URI is the full entity URI. Label is the rdfs:label that matched, PrefLabel
// the skos:prefLabel. Class is the short (fragment) name of the entity's
// rdf:type. Linked marks candidates found through link traversal from a
// first-degree match rather than by label search.
type Entity struct {
	Term      string
	URI       string
	Label     string
	PrefLabel string
	Class     string
	Linked    bool
	Rank      float64
}

// Namespace returns the namespace portion of the entity URI: the last path
// segment before the fragment.
func (e Entity) Namespace() string {
	s := e.URI
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[:i]
	}
	return s
}

// LocalName returns the fragment portion of the entity URI.
func (e Entity) LocalName() string {
	if i := strings.LastIndex(e.URI, "#"); i >= 0 {
		return e.URI[i+1:]
	}
	return e.URI
}

// ClassVariable is the ontology class of complete variable entities; matches
// of this class are reported separately from other entity matches.
const ClassVariable = "Variable"

// ValidClasses lists the top-level ontology classes a search may filter by.
var ValidClasses = []string{
	"Variable", "Phenomenon", "Property", "Process", "Abstraction",
	"Operator", "Attribute", "Part", "Role", "Trajectory",
}
