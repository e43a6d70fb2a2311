package kg

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/scivar-kg/backend/pkg/parse"
	"github.com/scivar-kg/backend/pkg/svo"
	"github.com/scivar-kg/backend/pkg/wikipedia"
)

type fakeTagger struct {
	sentences map[string][]parse.Sentence
}

func (f *fakeTagger) TagText(_ context.Context, text string) ([]parse.Sentence, error) {
	if s, ok := f.sentences[text]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("no tagging for %q", text)
}

type fakeOntology struct {
	entities map[string][]svo.Entity
}

func (f *fakeOntology) RankSearch(_ context.Context, terms []string, _ string) ([]svo.Entity, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	return f.entities[terms[0]], nil
}

type fakeEncyclopedia struct {
	pages map[string]wikipedia.Page
}

func (f *fakeEncyclopedia) GetPage(_ context.Context, term string) (wikipedia.Page, error) {
	if p, ok := f.pages[term]; ok {
		return p, nil
	}
	return wikipedia.Page{}, fmt.Errorf("no page for %q", term)
}

type fakeLexicon struct {
	categories map[string]map[string]string
}

func (f *fakeLexicon) Categories(term string) map[string]string {
	return f.categories[term]
}

func nounSentence(texts ...string) []parse.Sentence {
	words := make([]parse.Word, len(texts))
	for i, text := range texts {
		words[i] = parse.Word{Text: text, Lemma: text, UPOS: "NOUN"}
	}
	return []parse.Sentence{{Words: words}}
}

func thermalConductivityBuilder(store *Store, entities *EntityIndex) *Builder {
	tagger := &fakeTagger{sentences: map[string][]parse.Sentence{
		"thermal conductivity": {{Words: []parse.Word{
			{Text: "thermal", Lemma: "thermal", UPOS: "ADJ"},
			{Text: "conductivity", Lemma: "conductivity", UPOS: "NOUN"},
		}}},
	}}
	ontology := &fakeOntology{entities: map[string][]svo.Entity{
		"conductivity": {
			{
				Term:      "conductivity",
				URI:       testNS + "#conductivity",
				Label:     "conductivity",
				PrefLabel: "conductivity",
				Class:     "Property",
				Rank:      1,
			},
			{
				Term:      "conductivity",
				URI:       "http://www.geoscienceontology.org/svo/svl/variable#soil_thermal_conductivity",
				Label:     "soil thermal conductivity",
				PrefLabel: "soil thermal conductivity",
				Class:     "Variable",
				Rank:      0.6,
			},
		},
	}}
	return NewBuilder(NewBuilderParams{
		Store:        store,
		Entities:     entities,
		Tagger:       tagger,
		Ontology:     ontology,
		Encyclopedia: &fakeEncyclopedia{},
		Lexicon:      &fakeLexicon{},
	})
}

func TestAddConceptDecomposition(t *testing.T) {
	store := NewStore()
	entities := NewEntityIndex()
	b := thermalConductivityBuilder(store, entities)

	if err := b.AddConcept(context.Background(), "Thermal Conductivity", 1); err != nil {
		t.Fatalf("AddConcept() error: %v", err)
	}

	parent, ok := store.Get("thermal conductivity")
	if !ok {
		t.Fatal("parent node missing")
	}
	if want := []string{"conductivity"}; !reflect.DeepEqual(parent.HasType, want) {
		t.Errorf("HasType = %v, want %v", parent.HasType, want)
	}
	if want := []string{"thermal"}; !reflect.DeepEqual(parent.HasAttribute, want) {
		t.Errorf("HasAttribute = %v, want %v", parent.HasAttribute, want)
	}
	if parent.Type != string(parse.TypeModNoun) {
		t.Errorf("parent Type = %q, want modnoun", parent.Type)
	}

	root, ok := store.Get("conductivity")
	if !ok {
		t.Fatal("root node missing")
	}
	if want := []string{"thermal conductivity"}; !reflect.DeepEqual(root.IsTypeOf, want) {
		t.Errorf("IsTypeOf = %v, want %v", root.IsTypeOf, want)
	}

	attr, ok := store.Get("thermal")
	if !ok {
		t.Fatal("attribute node missing")
	}
	if want := []string{"thermal conductivity"}; !reflect.DeepEqual(attr.IsAttributeOf, want) {
		t.Errorf("IsAttributeOf = %v, want %v", attr.IsAttributeOf, want)
	}
	if attr.Type != string(parse.TypeAdjective) {
		t.Errorf("attribute Type = %q, want adj", attr.Type)
	}
}

func TestAddConceptOntologyAnnotations(t *testing.T) {
	store := NewStore()
	entities := NewEntityIndex()
	b := thermalConductivityBuilder(store, entities)

	if err := b.AddConcept(context.Background(), "thermal conductivity", 1); err != nil {
		t.Fatalf("AddConcept() error: %v", err)
	}

	root, _ := store.Get("conductivity")
	// entity refs are registered under the short namespace segment
	matchID := HashOf("property", "conductivity")
	if root.HasSVOMatch[matchID] != 1 {
		t.Errorf("HasSVOMatch = %v, want rank 1 under %s", root.HasSVOMatch, matchID)
	}
	varID := HashOf("variable", "soil_thermal_conductivity")
	if root.HasSVOVar[varID] != 0.6 {
		t.Errorf("HasSVOVar = %v, want rank 0.6 under %s", root.HasSVOVar, varID)
	}

	// the multiword parent is never searched
	parent, _ := store.Get("thermal conductivity")
	if len(parent.HasSVOMatch)+len(parent.HasSVOVar)+len(parent.HasSVOEntity) != 0 {
		t.Errorf("multiword node has ontology annotations: %+v", parent)
	}

	if _, ok := entities.Lookup(matchID); !ok {
		t.Error("exact match entity not registered in the index")
	}
}

func TestAddConceptIdempotent(t *testing.T) {
	store := NewStore()
	entities := NewEntityIndex()
	b := thermalConductivityBuilder(store, entities)

	if err := b.AddConcept(context.Background(), "thermal conductivity", 1); err != nil {
		t.Fatalf("AddConcept() error: %v", err)
	}
	first, err := json.Marshal(snapshot(store))
	if err != nil {
		t.Fatal(err)
	}

	if err := b.AddConcept(context.Background(), "thermal conductivity", 1); err != nil {
		t.Fatalf("second AddConcept() error: %v", err)
	}
	second, err := json.Marshal(snapshot(store))
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Errorf("re-adding a concept changed the graph:\n%s\nvs\n%s", first, second)
	}
}

func snapshot(s *Store) map[string]*Node {
	out := make(map[string]*Node)
	for _, key := range s.Keys() {
		node, _ := s.Get(key)
		out[key] = node
	}
	return out
}

// Depth expansion follows lexicon definition chains; requests beyond the
// maximum depth behave exactly like the maximum.
func TestAddConceptDepthClamp(t *testing.T) {
	chain := map[string]string{"alpha": "beta", "beta": "gamma", "gamma": "delta", "delta": "epsilon"}

	newChainBuilder := func(store *Store) *Builder {
		sentences := map[string][]parse.Sentence{}
		categories := map[string]map[string]string{}
		for term, def := range chain {
			sentences[term] = nounSentence(term)
			sentences[def] = nounSentence(def)
			categories[term] = map[string]string{"matter": def}
		}
		return NewBuilder(NewBuilderParams{
			Store:        store,
			Entities:     NewEntityIndex(),
			Tagger:       &fakeTagger{sentences: sentences},
			Ontology:     &fakeOntology{},
			Encyclopedia: &fakeEncyclopedia{},
			Lexicon:      &fakeLexicon{categories: categories},
		})
	}

	clamped := NewStore()
	if err := newChainBuilder(clamped).AddConcept(context.Background(), "alpha", 9); err != nil {
		t.Fatalf("AddConcept(depth 9) error: %v", err)
	}
	exact := NewStore()
	if err := newChainBuilder(exact).AddConcept(context.Background(), "alpha", MaxDepth); err != nil {
		t.Fatalf("AddConcept(depth max) error: %v", err)
	}

	if !reflect.DeepEqual(clamped.Keys(), exact.Keys()) {
		t.Errorf("clamped expansion %v differs from max-depth expansion %v", clamped.Keys(), exact.Keys())
	}
	if _, ok := clamped.Resolve("delta"); ok {
		t.Error("expansion went beyond the depth limit")
	}
	for _, term := range []string{"alpha", "beta", "gamma"} {
		if _, ok := clamped.Resolve(term); !ok {
			t.Errorf("term %q missing from expansion", term)
		}
	}
}
