// Package kg holds the scientific-variable terminology knowledge graph: the
// node store with its synonym index, the external-entity index, the builder
// that expands seed terms through decomposition and enrichment, and the
// inference pass that assigns categories and propagates match ranks.
package kg

// Node is one technical term in the graph, keyed by its canonical lowercase
// spelling. Every field is optional; a zero field means the annotation was
// never produced, which is distinct from an empty one.
//
// Rank-valued maps (HasSVOEntity, HasSVOVar, HasSVOMatch) are keyed by the
// entity-index hash id and hold match ranks in [0,1]. HasWMIndicator is keyed
// by indicator name.
type Node struct {
	PosSeq   []string `json:"pos_seq,omitempty"`
	LemmaSeq []string `json:"lemma_seq,omitempty"`
	Type     string   `json:"type,omitempty"`

	Components    []string `json:"components,omitempty"`
	IsComponentOf []string `json:"isComponentOf,omitempty"`

	HasType  []string `json:"hasType,omitempty"`
	IsTypeOf []string `json:"isTypeOf,omitempty"`

	HasAttribute  []string `json:"hasAttribute,omitempty"`
	IsAttributeOf []string `json:"isAttributeOf,omitempty"`

	HasComponentNounConcept  []string `json:"hasComponentNounConcept,omitempty"`
	IsComponentNounConceptOf []string `json:"isComponentNounConceptOf,omitempty"`

	HasSVOEntity map[string]float64 `json:"hasSVOEntity,omitempty"`
	HasSVOVar    map[string]float64 `json:"hasSVOVar,omitempty"`
	HasSVOMatch  map[string]float64 `json:"hasSVOMatch,omitempty"`

	HasWMIndicator map[string]float64 `json:"hasWMIndicator,omitempty"`

	DetSVOCategory string `json:"detSVOCategory,omitempty"`

	HasWWNCategory   []string `json:"hasWWNCategory,omitempty"`
	HasWWNDefinition []string `json:"hasWWNDefinition,omitempty"`
	IsWWNDefinedBy   []string `json:"isWWNDefinedBy,omitempty"`

	HasSynonym         []string `json:"hasSynonym,omitempty"`
	IsDefinedBy        []string `json:"isDefinedBy,omitempty"`
	IsCloselyRelatedTo []string `json:"isCloselyRelatedTo,omitempty"`
	IsRelatedTo        []string `json:"isRelatedTo,omitempty"`

	ModifiedTerms []string `json:"modified_terms,omitempty"`
	TermAspects   []string `json:"term_aspects,omitempty"`
}

// CategoryNames are the reserved top-level category words. A term matching
// one of these is terminal and is never decomposed further.
var CategoryNames = []string{
	"process", "property", "phenomenon", "role", "attribute",
	"matter", "body", "domain", "operator", "variable",
	"part", "trajectory", "form", "condition", "state",
	"abstraction", "equation", "expression",
}

// IsCategoryName reports whether term is a reserved top-level category word.
func IsCategoryName(term string) bool {
	for _, name := range CategoryNames {
		if term == name {
			return true
		}
	}
	return false
}
