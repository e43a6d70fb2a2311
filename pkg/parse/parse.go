package parse

import (
	"context"
	"strings"
)

// Word is a single token with the linguistic annotations produced by the
// tagging service.
//
// UPOS is the universal part-of-speech tag ("NOUN", "ADJ", "ADP", "VERB", ...).
// Head is the 1-based index of the word's dependency head within its
// sentence, 0 for the root.
type Word struct {
	Text   string `json:"text"`
	Lemma  string `json:"lemma"`
	UPOS   string `json:"upos"`
	Deprel string `json:"deprel"`
	Head   int    `json:"head"`
}

// Sentence is one tagged sentence.
type Sentence struct {
	Text  string `json:"text"`
	Words []Word `json:"words"`
}

// Tagger is the external part-of-speech tagging collaborator. Implementations
// wrap a tagging service; tests inject fakes.
type Tagger interface {
	TagText(ctx context.Context, text string) ([]Sentence, error)
}

// lemmas of the existence verbs that mark a definition sentence
var beVerbLemmas = map[string]bool{
	"be":       true,
	"describe": true,
	"define":   true,
	"refer":    true,
}

// IsSubjectOfBe reports whether term is the subject of an existence verb
// ("to be", "to describe", "to define", "to refer") in the sentence. The
// subject phrase is assembled from the nsubj word plus any compound words
// attached to it, so multi-word terms match too.
func IsSubjectOfBe(s Sentence, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || !strings.Contains(strings.ToLower(s.Text), term) {
		return false
	}

	beVerbs := map[int]bool{}
	for i, w := range s.Words {
		if beVerbLemmas[w.Lemma] && (w.UPOS == "VERB" || w.UPOS == "AUX") {
			beVerbs[i+1] = true
		}
	}
	if len(beVerbs) == 0 {
		return false
	}

	for i, w := range s.Words {
		if !strings.HasPrefix(w.Deprel, "nsubj") {
			continue
		}
		attached := beVerbs[w.Head]
		if !attached {
			// copula: the be-verb and the subject both attach to the
			// predicate nominal
			for vb := range beVerbs {
				if s.Words[vb-1].Head == w.Head {
					attached = true
					break
				}
			}
		}
		if attached && subjectPhrase(s.Words, i) == term {
			return true
		}
	}
	return false
}

// subjectPhrase joins the compound words leading into the subject at index
// subj (0-based) with the subject itself, lowercased.
func subjectPhrase(words []Word, subj int) string {
	target := subj + 1
	var parts []string
	for i, w := range words {
		if i == subj {
			continue
		}
		if !strings.HasPrefix(w.Deprel, "compound") {
			continue
		}
		// follow compound chains up to their head
		head := w.Head
		for head > 0 && head <= len(words) &&
			strings.HasPrefix(words[head-1].Deprel, "compound") {
			head = words[head-1].Head
		}
		if head == target && i < subj {
			parts = append(parts, w.Text)
		}
	}
	parts = append(parts, words[subj].Text)
	return strings.ToLower(strings.Join(parts, " "))
}

// FindDefinitionParagraph returns the index of the first paragraph whose
// sentences contain a definition ("is" statement) of term, or -1.
func FindDefinitionParagraph(paragraphs [][]Sentence, term string) int {
	for p, sentences := range paragraphs {
		for _, s := range sentences {
			if IsSubjectOfBe(s, term) {
				return p
			}
		}
	}
	return -1
}
