package parse

import "testing"

// conductivityIsSentence tags "Thermal conductivity is a property of metal."
// the way the tagging service does: the subject attaches to the predicate
// nominal, the copula too.
func conductivityIsSentence() Sentence {
	return Sentence{
		Text: "Thermal conductivity is a property of metal.",
		Words: []Word{
			{Text: "Thermal", Lemma: "thermal", UPOS: "ADJ", Deprel: "amod", Head: 2},
			{Text: "conductivity", Lemma: "conductivity", UPOS: "NOUN", Deprel: "nsubj", Head: 5},
			{Text: "is", Lemma: "be", UPOS: "AUX", Deprel: "cop", Head: 5},
			{Text: "a", Lemma: "a", UPOS: "DET", Deprel: "det", Head: 5},
			{Text: "property", Lemma: "property", UPOS: "NOUN", Deprel: "root", Head: 0},
			{Text: "of", Lemma: "of", UPOS: "ADP", Deprel: "case", Head: 7},
			{Text: "metal", Lemma: "metal", UPOS: "NOUN", Deprel: "nmod", Head: 5},
		},
	}
}

func TestIsSubjectOfBe(t *testing.T) {
	copula := conductivityIsSentence()

	compound := Sentence{
		Text: "Sea ice describes frozen seawater.",
		Words: []Word{
			{Text: "Sea", Lemma: "sea", UPOS: "NOUN", Deprel: "compound", Head: 2},
			{Text: "ice", Lemma: "ice", UPOS: "NOUN", Deprel: "nsubj", Head: 3},
			{Text: "describes", Lemma: "describe", UPOS: "VERB", Deprel: "root", Head: 0},
			{Text: "frozen", Lemma: "frozen", UPOS: "ADJ", Deprel: "amod", Head: 5},
			{Text: "seawater", Lemma: "seawater", UPOS: "NOUN", Deprel: "obj", Head: 3},
		},
	}

	noBe := Sentence{
		Text: "Metal conducts heat.",
		Words: []Word{
			{Text: "Metal", Lemma: "metal", UPOS: "NOUN", Deprel: "nsubj", Head: 2},
			{Text: "conducts", Lemma: "conduct", UPOS: "VERB", Deprel: "root", Head: 0},
			{Text: "heat", Lemma: "heat", UPOS: "NOUN", Deprel: "obj", Head: 2},
		},
	}

	tests := []struct {
		name     string
		sentence Sentence
		term     string
		want     bool
	}{
		{"copula subject", copula, "conductivity", true},
		{"term absent from text", copula, "temperature", false},
		{"term present but not subject", copula, "metal", false},
		{"compound subject phrase", compound, "sea ice", true},
		{"partial compound does not match full term", compound, "sea", false},
		{"no existence verb", noBe, "metal", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSubjectOfBe(tt.sentence, tt.term); got != tt.want {
				t.Errorf("IsSubjectOfBe(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestFindDefinitionParagraph(t *testing.T) {
	filler := Sentence{
		Text: "Metal conducts heat.",
		Words: []Word{
			{Text: "Metal", Lemma: "metal", UPOS: "NOUN", Deprel: "nsubj", Head: 2},
			{Text: "conducts", Lemma: "conduct", UPOS: "VERB", Deprel: "root", Head: 0},
			{Text: "heat", Lemma: "heat", UPOS: "NOUN", Deprel: "obj", Head: 2},
		},
	}
	paragraphs := [][]Sentence{
		{filler},
		{filler, conductivityIsSentence()},
	}

	if got := FindDefinitionParagraph(paragraphs, "conductivity"); got != 1 {
		t.Errorf("FindDefinitionParagraph() = %d, want 1", got)
	}
	if got := FindDefinitionParagraph(paragraphs, "temperature"); got != -1 {
		t.Errorf("FindDefinitionParagraph() = %d, want -1", got)
	}
}
