package kg

import (
	"sort"
	"strings"

	"github.com/scivar-kg/backend/pkg/logger"
	"github.com/scivar-kg/backend/pkg/parse"
)

// Category names assigned by inference.
const (
	CategoryPhenomenon = "Phenomenon"
	CategoryProperty   = "Property"
	CategoryAttribute  = "Attribute"
	CategoryProcess    = "Process"
	CategoryVariable   = "Variable"

	specializedPrefix = "Specialized"
)

// Propagation tuning. Type and attribute links preserve rank almost fully;
// looser links decay faster. Contributions below the threshold are noise and
// are not written.
const (
	decayTight     = 0.98
	decayLoose     = 0.9
	writeThreshold = 0.05
)

// Infer assigns a category to every node and propagates match ranks along
// the structural and definitional links. It runs single-threaded over a
// quiescent store; builds call it after expansion completes.
func Infer(store *Store, entities *EntityIndex) {
	store.mu.Lock()
	defer store.mu.Unlock()

	keys := make([]string, 0, len(store.nodes))
	for key := range store.nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Single words first: every composite pass reads their categories.
	for _, key := range keys {
		node := store.nodes[key]
		switch parse.GroupType(node.Type) {
		case parse.TypeAdjective:
			node.DetSVOCategory = CategoryAttribute
		case parse.TypeNoun:
			node.DetSVOCategory = nounCategory(node, entities)
		default:
			node.DetSVOCategory = CategoryPhenomenon
		}
	}
	for _, key := range keys {
		node := store.nodes[key]
		if parse.GroupType(node.Type) == parse.TypeNounGroup {
			node.DetSVOCategory = compositeCategory(linkedCategories(store, node.HasComponentNounConcept))
		}
	}
	for _, key := range keys {
		node := store.nodes[key]
		switch parse.GroupType(node.Type) {
		case parse.TypeModNoun, parse.TypeModNounGroup:
			node.DetSVOCategory = modifiedCategory(store, node)
		}
	}
	for _, key := range keys {
		node := store.nodes[key]
		if parse.GroupType(node.Type) == parse.TypeCompound {
			node.DetSVOCategory = compoundCategory(linkedCategories(store, node.Components))
		}
	}

	propagate(store, keys, []linkSet{
		{links: func(n *Node) []string { return n.Components }, factor: decayLoose},
		{links: func(n *Node) []string { return n.HasComponentNounConcept }, factor: decayLoose},
		{links: func(n *Node) []string { return n.HasType }, factor: decayTight},
		{links: func(n *Node) []string { return n.HasAttribute }, factor: decayTight},
	})
	propagate(store, keys, []linkSet{
		{links: func(n *Node) []string { return n.IsDefinedBy }, factor: decayLoose},
		{links: func(n *Node) []string { return n.IsWWNDefinedBy }, factor: decayLoose},
	})

	logger.Info("inference pass complete", "nodes", len(store.nodes))
}

// nounCategory derives a single noun's category from its exact ontology
// match classes, falling back to its lexicon categories.
func nounCategory(node *Node, entities *EntityIndex) string {
	var classes []string
	ids := make([]string, 0, len(node.HasSVOMatch))
	for id := range node.HasSVOMatch {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if ref, ok := entities.Lookup(id); ok && ref.Class != "" {
			classes = append(classes, ref.Class)
		}
	}
	if len(classes) == 0 {
		for _, category := range node.HasWWNCategory {
			classes = append(classes, titleCase(category))
		}
	}
	switch {
	case containsAny(classes, CategoryPhenomenon, "Matter", "Role", "Form"):
		return CategoryPhenomenon
	case containsAny(classes, CategoryProperty):
		return CategoryProperty
	case containsAny(classes, CategoryAttribute):
		return CategoryAttribute
	case containsAny(classes, CategoryProcess):
		return CategoryProcess
	case len(classes) > 0:
		return classes[0]
	default:
		return CategoryPhenomenon
	}
}

// compositeCategory combines constituent categories for a plain noun group.
// Categories are tallied and only the plurality winners enter the precedence
// ladder, so a lone property does not outvote two phenomena. A phenomenon
// measured by a property is a variable.
func compositeCategory(categories []string) string {
	counts := make(map[string]int)
	best := 0
	for _, category := range categories {
		counts[category]++
		if counts[category] > best {
			best = counts[category]
		}
	}
	var winners []string
	for _, category := range categories {
		if counts[category] == best {
			winners = append(winners, category)
			counts[category] = -1 // each winner once, in first-seen order
		}
	}
	switch {
	case containsAny(winners, CategoryPhenomenon) && containsAny(winners, CategoryProperty):
		return CategoryVariable
	case len(winners) == 0 || containsAny(winners, CategoryPhenomenon):
		return CategoryPhenomenon
	case containsAny(winners, CategoryProperty):
		return CategoryProperty
	case containsAny(winners, CategoryAttribute):
		return CategoryAttribute
	case containsAny(winners, CategoryProcess):
		return CategoryProcess
	default:
		return winners[0]
	}
}

// modifiedCategory specializes the root type's category for adjective
// modified nodes. Attributes and variables stay what they are.
func modifiedCategory(store *Store, node *Node) string {
	if len(node.HasType) == 0 {
		return node.DetSVOCategory
	}
	rootKey, ok := store.synonyms[node.HasType[0]]
	if !ok {
		return node.DetSVOCategory
	}
	root, ok := store.nodes[rootKey]
	if !ok || root.DetSVOCategory == "" {
		return node.DetSVOCategory
	}
	switch root.DetSVOCategory {
	case CategoryAttribute, CategoryVariable:
		return root.DetSVOCategory
	default:
		return specializedPrefix + root.DetSVOCategory
	}
}

// compoundCategory derives the category of adposition-joined compounds from
// the leading component, with the phenomenon-property pairing again yielding
// a variable. Specialized categories count as their base for the pairing.
// A leading category outside the known set passes through unchanged; no
// combined "<category> of <modifier>" name is synthesized.
func compoundCategory(categories []string) string {
	bases := make([]string, 0, len(categories))
	for _, category := range categories {
		bases = append(bases, strings.TrimPrefix(category, specializedPrefix))
	}
	if containsAny(bases, CategoryPhenomenon) && containsAny(bases, CategoryProperty) {
		return CategoryVariable
	}
	if len(bases) == 0 {
		return CategoryPhenomenon
	}
	switch bases[0] {
	case CategoryPhenomenon, CategoryProperty, CategoryAttribute, CategoryProcess:
		return specializedPrefix + bases[0]
	default:
		return categories[0]
	}
}

func linkedCategories(store *Store, links []string) []string {
	var categories []string
	for _, link := range links {
		key, ok := store.synonyms[link]
		if !ok {
			continue
		}
		if node, ok := store.nodes[key]; ok && node.DetSVOCategory != "" {
			categories = append(categories, node.DetSVOCategory)
		}
	}
	return categories
}

type linkSet struct {
	links  func(*Node) []string
	factor float64
}

// propagate spreads variable, entity, and indicator ranks from linked terms
// into each node. A linked term's contribution is its rank scaled by the
// link factor and averaged over the linked terms; accumulated contributions
// above the threshold merge in, keeping the maximum and clamping to [0,1].
func propagate(store *Store, keys []string, sets []linkSet) {
	for _, key := range keys {
		node := store.nodes[key]
		for _, set := range sets {
			var linked []*Node
			for _, link := range set.links(node) {
				if lk, ok := store.synonyms[link]; ok {
					if ln, ok := store.nodes[lk]; ok {
						linked = append(linked, ln)
					}
				}
			}
			if len(linked) == 0 {
				continue
			}
			vars := make(map[string]float64)
			ents := make(map[string]float64)
			inds := make(map[string]float64)
			n := float64(len(linked))
			for _, ln := range linked {
				accumulate(vars, ln.HasSVOVar, set.factor, n)
				accumulate(ents, ln.HasSVOEntity, set.factor, n)
				accumulate(inds, ln.HasWMIndicator, set.factor, n)
			}
			node.HasSVOVar = applyContributions(node.HasSVOVar, vars)
			node.HasSVOEntity = applyContributions(node.HasSVOEntity, ents)
			node.HasWMIndicator = applyContributions(node.HasWMIndicator, inds)
		}
	}
}

func accumulate(acc, ranks map[string]float64, factor, n float64) {
	for id, rank := range ranks {
		acc[id] += factor * rank / n
	}
}

func applyContributions(dst, contributions map[string]float64) map[string]float64 {
	for id, value := range contributions {
		if value <= writeThreshold {
			continue
		}
		if value > 1 {
			value = 1
		}
		if dst == nil {
			dst = make(map[string]float64)
		}
		if existing, ok := dst[id]; !ok || value > existing {
			dst[id] = value
		}
	}
	return dst
}

func containsAny(list []string, values ...string) bool {
	for _, item := range list {
		for _, v := range values {
			if item == v {
				return true
			}
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
