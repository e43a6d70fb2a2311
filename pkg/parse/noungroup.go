package parse

import (
	"sort"
	"strings"
)

// Part-of-speech labels used inside noun groups. The tagger's universal tags
// are collapsed onto these three.
const (
	PosNoun       = "NOUN"
	PosAdjective  = "ADJECTIVE"
	PosAdposition = "ADPOSITION"
)

// GroupType classifies a noun group by its part-of-speech shape.
type GroupType string

const (
	TypeNoun         GroupType = "noun"       // single noun
	TypeNounGroup    GroupType = "noungrp"    // nouns only, more than one word
	TypeModNoun      GroupType = "modnoun"    // noun(s) with leading adjective(s)
	TypeModNounGroup GroupType = "modnoungrp" // adjective inside the noun sequence
	TypeCompound     GroupType = "compound"   // groups joined by adpositions
	TypeAdjective    GroupType = "adj"        // adjective(s) only
)

// NounGroup is the fundamental unit of technical terminology: a maximal
// cluster of nouns, adjectives, and adpositions ending in a noun.
//
// Components holds the adposition-separated sub-groups of a compound group.
// RootType and Attributes are set for adjective-modified groups: RootType is
// the trailing noun sequence, Attributes the leading adjectives.
type NounGroup struct {
	Name       string
	PosSeq     []string
	LemmaSeq   []string
	Type       GroupType
	Components []*NounGroup
	RootType   *NounGroup
	Attributes []*NounGroup
}

// ExtractGroups finds all noun groups in a tagged sentence.
//
// Valid noun groups end in a noun, contain only nouns, adjectives, and
// adpositions, and never start with an adposition. The scan runs backwards so
// a group only opens at a root noun.
func ExtractGroups(words []Word) []*NounGroup {
	var groups []*NounGroup

	inGroup := false
	var texts, pos, lemmas []string

	flush := func() {
		if len(texts) > 0 {
			if g := newGroup(texts, pos, lemmas); g != nil {
				groups = append(groups, g)
			}
		}
		texts, pos, lemmas = nil, nil, nil
	}

	for i := len(words) - 1; i >= 0; i-- {
		w := words[i]
		switch {
		case w.UPOS == "NOUN" && !inGroup:
			inGroup = true
			texts = []string{w.Text}
			pos = []string{PosNoun}
			lemmas = []string{w.Lemma}
		case w.UPOS == "NOUN" && inGroup:
			texts = prepend(texts, w.Text)
			pos = prepend(pos, PosNoun)
			lemmas = prepend(lemmas, w.Lemma)
		case w.UPOS == "ADJ" && inGroup && pos[0] != PosAdposition:
			texts = prepend(texts, w.Text)
			pos = prepend(pos, PosAdjective)
			lemmas = prepend(lemmas, w.Lemma)
		case w.UPOS == "ADP" && inGroup:
			texts = prepend(texts, w.Text)
			pos = prepend(pos, PosAdposition)
			lemmas = prepend(lemmas, w.Lemma)
		default:
			inGroup = false
			flush()
		}
	}
	flush()

	// restore document order (the scan collects right to left)
	for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
		groups[i], groups[j] = groups[j], groups[i]
	}
	return groups
}

func prepend(list []string, v string) []string {
	return append([]string{v}, list...)
}

// newGroup builds a NounGroup from a raw word cluster, stripping leading
// adpositions (and anything before them) that cannot start a group.
func newGroup(texts, pos, lemmas []string) *NounGroup {
	start := 0
	for i := 0; i < len(pos) && pos[i] != PosNoun; i++ {
		if pos[i] == PosAdposition {
			start = i + 1
		}
	}
	if start >= len(texts) {
		return nil
	}
	texts, pos, lemmas = texts[start:], pos[start:], lemmas[start:]

	g := buildGroup(texts, pos, lemmas)
	g.Components = decompose(texts, pos, lemmas)
	return g
}

// buildGroup classifies a cluster and splits off its root type and leading
// adjective attributes. It does not decompose at adpositions.
func buildGroup(texts, pos, lemmas []string) *NounGroup {
	g := &NounGroup{
		Name:     strings.Join(texts, " "),
		PosSeq:   pos,
		LemmaSeq: lemmas,
		Type:     classify(pos),
	}

	if g.Type == TypeCompound || !contains(pos, PosNoun) {
		return g
	}

	// split leading non-nouns from the trailing noun sequence
	i := 0
	for i < len(pos) && pos[i] != PosNoun {
		i++
	}
	if i == 0 || i >= len(pos) {
		return g
	}

	rootType := TypeNoun
	if len(pos)-i > 1 {
		rootType = TypeNounGroup
	}
	g.RootType = &NounGroup{
		Name:     strings.Join(texts[i:], " "),
		PosSeq:   pos[i:],
		LemmaSeq: lemmas[i:],
		Type:     rootType,
	}
	for j := 0; j < i; j++ {
		g.Attributes = append(g.Attributes, &NounGroup{
			Name:     texts[j],
			PosSeq:   []string{PosAdjective},
			LemmaSeq: []string{lemmas[j]},
			Type:     TypeAdjective,
		})
	}
	return g
}

func classify(pos []string) GroupType {
	joined := strings.Join(pos, " ")
	switch {
	case contains(pos, PosAdposition):
		return TypeCompound
	case strings.Contains(joined, PosNoun+" "+PosAdjective):
		return TypeModNounGroup
	case contains(pos, PosNoun) && contains(pos, PosAdjective):
		return TypeModNoun
	case contains(pos, PosAdjective):
		return TypeAdjective
	case len(pos) > 1:
		return TypeNounGroup
	default:
		return TypeNoun
	}
}

// decompose splits a compound cluster into its adposition-separated
// sub-groups. A single noun wedged between two adpositions ("in regards to")
// is not significant and is skipped together with its adpositions.
func decompose(texts, pos, lemmas []string) []*NounGroup {
	adpLoc := findSequence(pos, []string{PosAdposition})
	if len(adpLoc) == 0 {
		return nil
	}
	adpNounAdp := map[int]bool{}
	for _, i := range findSequence(pos, []string{PosAdposition, PosNoun, PosAdposition}) {
		adpNounAdp[i] = true
	}
	isAdp := map[int]bool{}
	for _, i := range adpLoc {
		isAdp[i] = true
	}

	var groups []*NounGroup
	start := 0
	for _, adp := range adpLoc {
		if !adpNounAdp[start] && !isAdp[start] && start < adp {
			groups = append(groups, buildGroup(texts[start:adp], pos[start:adp], lemmas[start:adp]))
		}
		if adpNounAdp[adp] {
			start = adp + 3
		} else {
			start = adp + 1
		}
	}
	if start < len(texts) {
		groups = append(groups, buildGroup(texts[start:], pos[start:], lemmas[start:]))
	}
	return groups
}

// findSequence returns every index in list where seq begins.
func findSequence(list, seq []string) []int {
	var found []int
	for i := range list {
		j := 0
		for j < len(seq) && i+j < len(list) && list[i+j] == seq[j] {
			j++
		}
		if j == len(seq) {
			found = append(found, i)
		}
	}
	return found
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// GroupKind classifies a counted noun group by surface shape.
type GroupKind string

const (
	KindSimple     GroupKind = "simple"     // nouns only
	KindAdjectival GroupKind = "adjectival" // contains adjectives
	KindMultiple   GroupKind = "multiple"   // contains adpositions
)

// GroupCount is one entry of a document-level noun-group tally.
type GroupCount struct {
	Name  string
	Count int
	Kind  GroupKind
}

// CountGroups tallies the noun groups (and their adposition components)
// occurring across sentences, sorted by descending count, then name. Groups
// containing characters other than letters, digits, and spaces are skipped.
func CountGroups(sentences []Sentence) []GroupCount {
	counts := map[string]*GroupCount{}

	tally := func(g *NounGroup) {
		if !plainText(g.Name) {
			return
		}
		name := strings.ToLower(g.Name)
		if c, ok := counts[name]; ok {
			c.Count++
			return
		}
		kind := KindSimple
		if contains(g.PosSeq, PosAdposition) {
			kind = KindMultiple
		} else if contains(g.PosSeq, PosAdjective) {
			kind = KindAdjectival
		}
		counts[name] = &GroupCount{Name: name, Count: 1, Kind: kind}
	}

	for _, s := range sentences {
		for _, g := range ExtractGroups(s.Words) {
			tally(g)
			for _, comp := range g.Components {
				tally(comp)
			}
		}
	}

	out := make([]GroupCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TermGroups filters a noun-group tally for groups involving term and splits
// them into modified terms (term is the head, with leading modifiers) and
// term aspects (term inside a larger group or an adposition compound).
func TermGroups(counts []GroupCount, term string) (modified, aspects []string) {
	term = strings.ToLower(term)
	for _, c := range counts {
		if c.Name == term || !strings.Contains(c.Name, term) {
			continue
		}
		headOf := strings.HasSuffix(strings.TrimSpace(c.Name), " "+term)
		switch {
		case c.Kind == KindMultiple:
			aspects = append(aspects, c.Name)
		case headOf:
			modified = append(modified, c.Name)
		default:
			aspects = append(aspects, c.Name)
		}
	}
	return modified, aspects
}

func plainText(s string) bool {
	for _, r := range s {
		if r != ' ' && !isAlnum(r) {
			return false
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
