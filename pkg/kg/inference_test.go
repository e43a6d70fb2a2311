package kg

import (
	"math"
	"testing"
)

// buildInferenceFixture assembles a small graph around thermal conductivity
// with categories still unassigned.
func buildInferenceFixture() (*Store, *EntityIndex) {
	store := NewStore()
	entities := NewEntityIndex()

	propID := entities.Register(EntityRef{Namespace: "property", Entity: "conductivity", PrefLabel: "conductivity", Class: "Property"})
	varID := entities.Register(EntityRef{Namespace: "variable", Entity: "soil_thermal_conductivity", PrefLabel: "soil thermal conductivity", Class: "Variable"})

	_, conductivity := store.Ensure("conductivity")
	conductivity.Type = "noun"
	conductivity.HasSVOMatch = map[string]float64{propID: 1}
	conductivity.HasSVOVar = map[string]float64{varID: 0.8}
	conductivity.HasWMIndicator = map[string]float64{"drought index": 0.9}
	conductivity.IsTypeOf = []string{"thermal conductivity"}

	_, thermal := store.Ensure("thermal")
	thermal.Type = "adj"

	_, parent := store.Ensure("thermal conductivity")
	parent.Type = "modnoun"
	parent.HasType = []string{"conductivity"}
	parent.HasAttribute = []string{"thermal"}

	_, water := store.Ensure("water")
	water.Type = "noun"

	_, temperature := store.Ensure("temperature")
	temperature.Type = "noun"
	temperature.HasSVOMatch = map[string]float64{propID: 1}
	wtVarID := entities.Register(EntityRef{Namespace: "variable", Entity: "sea_water_temperature", PrefLabel: "sea water temperature", Class: "Variable"})
	temperature.HasSVOVar = map[string]float64{wtVarID: 0.7}

	_, waterTemp := store.Ensure("water temperature")
	waterTemp.Type = "noungrp"
	waterTemp.HasComponentNounConcept = []string{"water", "temperature"}

	_, rate := store.Ensure("rate")
	rate.Type = "noun"
	_, change := store.Ensure("change")
	change.Type = "noun"
	_, compound := store.Ensure("rate of change")
	compound.Type = "compound"
	compound.Components = []string{"rate", "change"}

	_, defined := store.Ensure("insulation")
	defined.Type = "noun"
	defined.IsDefinedBy = []string{"conductivity"}

	return store, entities
}

func TestInferCategories(t *testing.T) {
	store, entities := buildInferenceFixture()
	Infer(store, entities)

	tests := []struct {
		term string
		want string
	}{
		{"thermal", CategoryAttribute},
		{"conductivity", CategoryProperty},
		{"water", CategoryPhenomenon},
		{"temperature", CategoryProperty},
		// a phenomenon paired with a property is a variable
		{"water temperature", CategoryVariable},
		// the adjective specializes the root type's category
		{"thermal conductivity", "SpecializedProperty"},
		{"rate of change", "SpecializedPhenomenon"},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			node, ok := store.Get(tt.term)
			if !ok {
				t.Fatalf("node %q missing", tt.term)
			}
			if node.DetSVOCategory != tt.want {
				t.Errorf("DetSVOCategory = %q, want %q", node.DetSVOCategory, tt.want)
			}
		})
	}
}

func TestInferPropagation(t *testing.T) {
	store, entities := buildInferenceFixture()
	varID := HashOf("variable", "soil_thermal_conductivity")
	Infer(store, entities)

	parent, _ := store.Get("thermal conductivity")
	// type links decay gently
	if want := decayTight * 0.8; math.Abs(parent.HasSVOVar[varID]-want) > 1e-9 {
		t.Errorf("HasSVOVar[%s] = %v, want %v", varID, parent.HasSVOVar[varID], want)
	}
	if want := decayTight * 0.9; math.Abs(parent.HasWMIndicator["drought index"]-want) > 1e-9 {
		t.Errorf("HasWMIndicator = %v, want %v", parent.HasWMIndicator, want)
	}

	// noun-group constituents contribute at the loose decay, averaged over
	// the constituents
	group, _ := store.Get("water temperature")
	wtVarID := HashOf("variable", "sea_water_temperature")
	if want := decayLoose * 0.7 / 2; math.Abs(group.HasSVOVar[wtVarID]-want) > 1e-9 {
		t.Errorf("HasSVOVar[%s] = %v, want %v", wtVarID, group.HasSVOVar[wtVarID], want)
	}

	// definition links decay faster
	defined, _ := store.Get("insulation")
	if want := decayLoose * 0.8; math.Abs(defined.HasSVOVar[varID]-want) > 1e-9 {
		t.Errorf("HasSVOVar[%s] = %v, want %v", varID, defined.HasSVOVar[varID], want)
	}

	// the source keeps its own ranks
	source, _ := store.Get("conductivity")
	if source.HasSVOVar[varID] != 0.8 {
		t.Errorf("source rank changed: %v", source.HasSVOVar[varID])
	}
}

func TestPropagationThresholdAndClamp(t *testing.T) {
	store := NewStore()
	entities := NewEntityIndex()

	_, leaf := store.Ensure("leaf")
	leaf.Type = "noun"
	leaf.HasSVOVar = map[string]float64{"1": 0.04, "2": 1}

	_, parent := store.Ensure("leaf group")
	parent.Type = "modnoun"
	parent.HasType = []string{"leaf"}

	Infer(store, entities)

	got, _ := store.Get("leaf group")
	if _, ok := got.HasSVOVar["1"]; ok {
		t.Errorf("sub-threshold contribution was written: %v", got.HasSVOVar)
	}
	if rank := got.HasSVOVar["2"]; rank <= 0 || rank > 1 {
		t.Errorf("propagated rank out of bounds: %v", rank)
	}
}

func TestCompositeCategoryTieBreaks(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		want       string
	}{
		{"empty defaults to phenomenon", nil, CategoryPhenomenon},
		{"phenomenon and property make a variable", []string{CategoryPhenomenon, CategoryProperty}, CategoryVariable},
		{"plurality phenomenon beats a lone property", []string{CategoryPhenomenon, CategoryPhenomenon, CategoryProperty}, CategoryPhenomenon},
		{"plurality property beats a lone phenomenon", []string{CategoryProperty, CategoryPhenomenon, CategoryProperty}, CategoryProperty},
		{"phenomenon wins alone", []string{CategoryProcess, CategoryPhenomenon}, CategoryPhenomenon},
		{"property before attribute", []string{CategoryAttribute, CategoryProperty}, CategoryProperty},
		{"attribute before process", []string{CategoryProcess, CategoryAttribute}, CategoryAttribute},
		{"fallback to first", []string{"Operator", "Part"}, "Operator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compositeCategory(tt.categories); got != tt.want {
				t.Errorf("compositeCategory(%v) = %q, want %q", tt.categories, got, tt.want)
			}
		})
	}
}
