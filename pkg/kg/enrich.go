package kg

import (
	"context"
	"strings"

	"github.com/scivar-kg/backend/internal/util"
	"github.com/scivar-kg/backend/pkg/logger"
	"github.com/scivar-kg/backend/pkg/parse"
	"github.com/scivar-kg/backend/pkg/wikipedia"
)

// Only the opening sentences of a definition paragraph carry definitional
// weight: the first defines, the next two relate.
const maxDefinitionSentences = 3

// addEncyclopediaDef annotates a node from its encyclopedia page: synonym
// and relatedness links from the page title, isDefinedBy terms from the
// definition paragraph, and the page-wide modified-term and aspect lists.
// Disambiguation pages are skipped entirely.
func (b *Builder) addEncyclopediaDef(ctx context.Context, key, lemma string) {
	b.mu.Lock()
	node, ok := b.store.Get(key)
	done := ok && node.IsDefinedBy != nil
	b.mu.Unlock()
	if !ok || done {
		return
	}

	page, err := util.RetryWithContext(ctx, b.maxRetries, func(ctx context.Context) (wikipedia.Page, error) {
		return b.encyclopedia.GetPage(ctx, key)
	})
	if err != nil {
		logger.Warn("encyclopedia lookup failed, leaving node undefined", "term", key, "error", err)
		return
	}
	if page.Disambiguation {
		logger.Debug("skipping disambiguation page", "term", key, "title", page.Title)
		return
	}

	title := NormalizeTerm(page.Title)
	redirect := NormalizeTerm(page.RedirectTitle)
	useName := key
	if titleMatchesTerm(title, redirect, key, lemma) {
		useName = title
	}

	b.mu.Lock()
	if useName != title && title != "" {
		if node, ok := b.store.Get(key); ok {
			node.IsRelatedTo = unionStrings(node.IsRelatedTo, title)
		}
	}
	if useName != key {
		if node, ok := b.store.Get(key); ok {
			node.HasSynonym = unionStrings(node.HasSynonym, useName)
		}
		b.store.AddSynonym(key, useName)
	}
	target := key
	if resolved, ok := b.store.Resolve(useName); ok {
		target = resolved
	}
	b.mu.Unlock()

	tagged := make([][]parse.Sentence, 0, len(page.Paragraphs))
	var all []parse.Sentence
	for _, paragraph := range page.Paragraphs {
		sentences, err := b.tagger.TagText(ctx, paragraph)
		if err != nil {
			logger.Warn("skipping untaggable paragraph", "term", key, "error", err)
			continue
		}
		tagged = append(tagged, sentences)
		all = append(all, sentences...)
	}

	defIdx := parse.FindDefinitionParagraph(tagged, useName)
	if defIdx < 0 && useName != key {
		defIdx = parse.FindDefinitionParagraph(tagged, key)
	}
	if defIdx < 0 {
		logger.Debug("no definition paragraph found", "term", key, "title", page.Title)
	} else {
		var defined, related []string
		paragraph := tagged[defIdx]
		limit := len(paragraph)
		if limit > maxDefinitionSentences {
			limit = maxDefinitionSentences
		}
		for si := 0; si < limit; si++ {
			for _, group := range parse.ExtractGroups(paragraph[si].Words) {
				name := NormalizeTerm(group.Name)
				if name == "" || name == useName || name == key || name == target {
					continue
				}
				if si == 0 {
					defined = append(defined, name)
				} else {
					related = append(related, name)
				}
			}
		}
		b.mu.Lock()
		if node, ok := b.store.Get(target); ok {
			node.IsDefinedBy = unionStrings(node.IsDefinedBy, defined...)
			node.IsCloselyRelatedTo = unionStrings(node.IsCloselyRelatedTo, related...)
		}
		b.mu.Unlock()
	}

	counts := parse.CountGroups(all)
	modified, aspects := parse.TermGroups(counts, useName)
	b.mu.Lock()
	defer b.mu.Unlock()
	if node, ok := b.store.Get(target); ok {
		node.ModifiedTerms = unionStrings(node.ModifiedTerms, dropTerm(modified, useName, key)...)
		node.TermAspects = unionStrings(node.TermAspects, dropTerm(aspects, useName, key)...)
	}
}

// titleMatchesTerm decides whether the page title can stand in for the term:
// the term redirects to it, the lemma equals it, or the title carries the
// term parenthesized.
func titleMatchesTerm(title, redirect, term, lemma string) bool {
	if term == redirect || (lemma != "" && (lemma == title || lemma == redirect)) {
		return true
	}
	for _, probe := range []string{term, lemma} {
		if probe == "" {
			continue
		}
		paren := "(" + probe + ")"
		if strings.Contains(title, paren) || strings.Contains(redirect, paren) {
			return true
		}
	}
	return false
}

func dropTerm(terms []string, exclude ...string) []string {
	out := terms[:0]
	for _, t := range terms {
		name := NormalizeTerm(t)
		skip := false
		for _, e := range exclude {
			if name == e {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, name)
		}
	}
	return out
}
