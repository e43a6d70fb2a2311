package parse

import (
	"reflect"
	"testing"
)

func word(text, lemma, upos string) Word {
	return Word{Text: text, Lemma: lemma, UPOS: upos}
}

func groupNames(groups []*NounGroup) []string {
	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	return names
}

func TestExtractGroups(t *testing.T) {
	tests := []struct {
		name  string
		words []Word
		want  []string
	}{
		{
			name:  "no nouns",
			words: []Word{word("is", "be", "AUX"), word("high", "high", "ADJ")},
			want:  nil,
		},
		{
			name: "single noun",
			words: []Word{
				word("the", "the", "DET"),
				word("conductivity", "conductivity", "NOUN"),
			},
			want: []string{"conductivity"},
		},
		{
			name: "adjective modified noun",
			words: []Word{
				word("thermal", "thermal", "ADJ"),
				word("conductivity", "conductivity", "NOUN"),
			},
			want: []string{"thermal conductivity"},
		},
		{
			name: "adposition compound",
			words: []Word{
				word("rate", "rate", "NOUN"),
				word("of", "of", "ADP"),
				word("change", "change", "NOUN"),
			},
			want: []string{"rate of change"},
		},
		{
			name: "two separate groups",
			words: []Word{
				word("conductivity", "conductivity", "NOUN"),
				word("is", "be", "AUX"),
				word("high", "high", "ADJ"),
				word("in", "in", "ADP"),
				word("metal", "metal", "NOUN"),
			},
			want: []string{"conductivity", "metal"},
		},
		{
			name: "adjective after adposition stops the group",
			words: []Word{
				word("flow", "flow", "NOUN"),
				word("of", "of", "ADP"),
				word("cold", "cold", "ADJ"),
				word("water", "water", "NOUN"),
			},
			want: []string{"flow of cold water"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := groupNames(ExtractGroups(tt.words))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractGroups() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractGroupsModifiedNoun(t *testing.T) {
	groups := ExtractGroups([]Word{
		word("thermal", "thermal", "ADJ"),
		word("conductivity", "conductivity", "NOUN"),
	})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.Type != TypeModNoun {
		t.Errorf("Type = %v, want %v", g.Type, TypeModNoun)
	}
	if g.RootType == nil || g.RootType.Name != "conductivity" || g.RootType.Type != TypeNoun {
		t.Errorf("RootType = %+v, want noun %q", g.RootType, "conductivity")
	}
	if len(g.Attributes) != 1 || g.Attributes[0].Name != "thermal" || g.Attributes[0].Type != TypeAdjective {
		t.Errorf("Attributes = %+v, want adjective %q", g.Attributes, "thermal")
	}
}

func TestExtractGroupsCompoundComponents(t *testing.T) {
	tests := []struct {
		name  string
		words []Word
		want  []string
	}{
		{
			name: "two components",
			words: []Word{
				word("rate", "rate", "NOUN"),
				word("of", "of", "ADP"),
				word("change", "change", "NOUN"),
			},
			want: []string{"rate", "change"},
		},
		{
			// a lone noun between two adpositions carries no meaning of
			// its own and is skipped together with its adpositions
			name: "wedged noun skipped",
			words: []Word{
				word("rate", "rate", "NOUN"),
				word("of", "of", "ADP"),
				word("flow", "flow", "NOUN"),
				word("of", "of", "ADP"),
				word("water", "water", "NOUN"),
			},
			want: []string{"rate", "water"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := ExtractGroups(tt.words)
			if len(groups) != 1 {
				t.Fatalf("expected 1 group, got %d", len(groups))
			}
			if groups[0].Type != TypeCompound {
				t.Errorf("Type = %v, want %v", groups[0].Type, TypeCompound)
			}
			got := groupNames(groups[0].Components)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Components = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		pos  []string
		want GroupType
	}{
		{"single noun", []string{PosNoun}, TypeNoun},
		{"noun sequence", []string{PosNoun, PosNoun}, TypeNounGroup},
		{"leading adjective", []string{PosAdjective, PosNoun}, TypeModNoun},
		{"inner adjective", []string{PosNoun, PosAdjective, PosNoun}, TypeModNounGroup},
		{"adposition", []string{PosNoun, PosAdposition, PosNoun}, TypeCompound},
		{"adjectives only", []string{PosAdjective}, TypeAdjective},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.pos); got != tt.want {
				t.Errorf("classify(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestCountGroupsAndTermGroups(t *testing.T) {
	sentences := []Sentence{
		{Words: []Word{
			word("thermal", "thermal", "ADJ"),
			word("conductivity", "conductivity", "NOUN"),
		}},
		{Words: []Word{
			word("thermal", "thermal", "ADJ"),
			word("conductivity", "conductivity", "NOUN"),
		}},
		{Words: []Word{
			word("conductivity", "conductivity", "NOUN"),
			word("of", "of", "ADP"),
			word("metal", "metal", "NOUN"),
		}},
	}

	counts := CountGroups(sentences)
	want := []GroupCount{
		{Name: "thermal conductivity", Count: 2, Kind: KindAdjectival},
		{Name: "conductivity", Count: 1, Kind: KindSimple},
		{Name: "conductivity of metal", Count: 1, Kind: KindMultiple},
		{Name: "metal", Count: 1, Kind: KindSimple},
	}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("CountGroups() = %v, want %v", counts, want)
	}

	modified, aspects := TermGroups(counts, "conductivity")
	wantModified := []string{"thermal conductivity"}
	wantAspects := []string{"conductivity of metal"}
	if !reflect.DeepEqual(modified, wantModified) {
		t.Errorf("modified = %v, want %v", modified, wantModified)
	}
	if !reflect.DeepEqual(aspects, wantAspects) {
		t.Errorf("aspects = %v, want %v", aspects, wantAspects)
	}
}
