package kg

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/scivar-kg/backend/internal/util"
	"github.com/scivar-kg/backend/pkg/logger"
	"github.com/scivar-kg/backend/pkg/parse"
	"github.com/scivar-kg/backend/pkg/svo"
	"github.com/scivar-kg/backend/pkg/wikipedia"
)

// MaxDepth bounds concept expansion. Requests beyond it are clamped.
const MaxDepth = 3

// OntologySearcher finds and ranks external ontology entities for a term.
type OntologySearcher interface {
	RankSearch(ctx context.Context, terms []string, class string) ([]svo.Entity, error)
}

// EncyclopediaSearcher fetches the encyclopedia page for a term.
type EncyclopediaSearcher interface {
	GetPage(ctx context.Context, term string) (wikipedia.Page, error)
}

// LexiconSearcher returns lexicon categories with their definitions.
type LexiconSearcher interface {
	Categories(term string) map[string]string
}

// Builder expands seed terms into the graph. External lookups run in
// parallel up to LookupLimit; node writes are serialized on an internal
// mutex so collaborators can respond in any order.
type Builder struct {
	store        *Store
	entities     *EntityIndex
	tagger       parse.Tagger
	ontology     OntologySearcher
	encyclopedia EncyclopediaSearcher
	lexicon      LexiconSearcher
	lookupLimit  int
	maxRetries   int

	mu sync.Mutex
}

type NewBuilderParams struct {
	Store        *Store
	Entities     *EntityIndex
	Tagger       parse.Tagger
	Ontology     OntologySearcher
	Encyclopedia EncyclopediaSearcher
	Lexicon      LexiconSearcher

	// LookupLimit bounds concurrent external lookups per term. Defaults to 3.
	LookupLimit int
	// MaxRetries is the attempt count for external lookups. Defaults to 2.
	MaxRetries int
}

func NewBuilder(params NewBuilderParams) *Builder {
	if params.LookupLimit <= 0 {
		params.LookupLimit = 3
	}
	if params.MaxRetries <= 0 {
		params.MaxRetries = 2
	}
	return &Builder{
		store:        params.Store,
		entities:     params.Entities,
		tagger:       params.Tagger,
		ontology:     params.Ontology,
		encyclopedia: params.Encyclopedia,
		lexicon:      params.Lexicon,
		lookupLimit:  params.LookupLimit,
		maxRetries:   params.MaxRetries,
	}
}

type frontierItem struct {
	term  string
	depth int
}

// AddConcept decomposes term into the graph and expands definition terms
// breadth-first for depth levels. Depth is clamped to [1,MaxDepth]. Already
// processed terms are revisited only when a deeper expansion is requested,
// so re-adding a concept is idempotent.
func (b *Builder) AddConcept(ctx context.Context, term string, depth int) error {
	if depth > MaxDepth {
		logger.Warn("clamping expansion depth", "term", term, "requested", depth, "max", MaxDepth)
		depth = MaxDepth
	}
	if depth < 1 {
		logger.Warn("clamping expansion depth", "term", term, "requested", depth, "min", 1)
		depth = 1
	}

	visited := make(map[string]int)
	queue := []frontierItem{{term: NormalizeTerm(term), depth: depth}}
	seed := true
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.term == "" || item.depth < 1 {
			continue
		}
		if prev, ok := visited[item.term]; ok && prev >= item.depth {
			continue
		}
		visited[item.term] = item.depth

		sentences, err := util.RetryWithContext(ctx, b.maxRetries, func(ctx context.Context) ([]parse.Sentence, error) {
			return b.tagger.TagText(ctx, item.term)
		})
		if err != nil {
			if seed {
				return fmt.Errorf("tagging concept %q: %w", item.term, err)
			}
			logger.Warn("skipping untaggable term", "term", item.term, "error", err)
			continue
		}
		seed = false

		for _, sentence := range sentences {
			for _, group := range parse.ExtractGroups(sentence.Words) {
				key := b.addTermNode(ctx, group, "")
				if item.depth > 1 {
					for _, child := range b.children(key) {
						queue = append(queue, frontierItem{term: NormalizeTerm(child), depth: item.depth - 1})
					}
				}
			}
		}
	}

	b.store.UpdateSynonyms()
	return nil
}

// children returns the definition terms a node expands into.
func (b *Builder) children(key string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	node, ok := b.store.Get(key)
	if !ok {
		return nil
	}
	children := make([]string, 0, len(node.IsDefinedBy)+len(node.IsWWNDefinedBy))
	children = append(children, node.IsDefinedBy...)
	children = append(children, node.IsWWNDefinedBy...)
	return children
}

// addTermNode ensures a node for the group and recursively for its
// structural constituents, wiring the inverse link pairs as it goes, then
// enriches the node from the external sources. Returns the canonical key.
func (b *Builder) addTermNode(ctx context.Context, group *parse.NounGroup, componentOf string) string {
	name := NormalizeTerm(group.Name)
	lemma := NormalizeTerm(strings.Join(group.LemmaSeq, " "))

	b.mu.Lock()
	key, node := b.store.Ensure(name)
	if node.Type == "" {
		node.PosSeq = group.PosSeq
		node.LemmaSeq = group.LemmaSeq
		node.Type = string(group.Type)
	}
	if componentOf != "" {
		node.IsComponentOf = unionStrings(node.IsComponentOf, componentOf)
	}
	b.mu.Unlock()

	// Reserved category words are terminal: no decomposition, no enrichment.
	if IsCategoryName(name) || IsCategoryName(lemma) {
		return key
	}

	if len(group.Components) > 0 {
		for _, comp := range group.Components {
			compKey := b.addTermNode(ctx, comp, key)
			b.mu.Lock()
			node.Components = unionStrings(node.Components, compKey)
			b.mu.Unlock()
		}
	}

	if group.RootType != nil {
		rootKey := b.addTermNode(ctx, group.RootType, "")
		b.mu.Lock()
		node.HasType = unionStrings(node.HasType, rootKey)
		if rootNode, ok := b.store.Get(rootKey); ok {
			rootNode.IsTypeOf = unionStrings(rootNode.IsTypeOf, key)
		}
		b.mu.Unlock()
	}

	for _, attr := range group.Attributes {
		attrKey := b.addTermNode(ctx, attr, "")
		b.mu.Lock()
		node.HasAttribute = unionStrings(node.HasAttribute, attrKey)
		if attrNode, ok := b.store.Get(attrKey); ok {
			attrNode.IsAttributeOf = unionStrings(attrNode.IsAttributeOf, key)
		}
		b.mu.Unlock()
	}

	// Plain multiword noun groups additionally link each constituent noun.
	if group.Type == parse.TypeNounGroup {
		words := strings.Fields(name)
		for i, word := range words {
			wordLemma := word
			if i < len(group.LemmaSeq) {
				wordLemma = group.LemmaSeq[i]
			}
			wordGroup := &parse.NounGroup{
				Name:     word,
				PosSeq:   []string{parse.PosNoun},
				LemmaSeq: []string{wordLemma},
				Type:     parse.TypeNoun,
			}
			wordKey := b.addTermNode(ctx, wordGroup, "")
			b.mu.Lock()
			node.HasComponentNounConcept = unionStrings(node.HasComponentNounConcept, wordKey)
			if wordNode, ok := b.store.Get(wordKey); ok {
				wordNode.IsComponentNounConceptOf = unionStrings(wordNode.IsComponentNounConceptOf, key)
			}
			b.mu.Unlock()
		}
	}

	b.enrich(ctx, key, lemma)
	return key
}

// enrich runs the external lookups for one node. The two remote sources run
// concurrently; each fetches without holding the graph lock and applies its
// results under it. Lookup failures degrade to warnings, never abort the
// build.
func (b *Builder) enrich(ctx context.Context, key, lemma string) {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.lookupLimit)

	if !strings.Contains(key, " ") {
		eg.Go(func() error {
			b.addOntologyInfo(gctx, key, lemma)
			return nil
		})
	}
	eg.Go(func() error {
		b.addEncyclopediaDef(gctx, key, lemma)
		return nil
	})
	_ = eg.Wait()

	b.addLexiconInfo(key, lemma)
	b.addLexiconDef(ctx, key)
}

// addOntologyInfo attaches ranked ontology matches to a single-word node,
// splitting them into exact matches, variables, and other entities.
func (b *Builder) addOntologyInfo(ctx context.Context, key, lemma string) {
	b.mu.Lock()
	node, ok := b.store.Get(key)
	done := ok && (node.HasSVOEntity != nil || node.HasSVOVar != nil || node.HasSVOMatch != nil)
	b.mu.Unlock()
	if !ok || done {
		return
	}

	terms := []string{key}
	if lemma != "" && lemma != key {
		terms = append(terms, lemma)
	}
	entities, err := util.RetryWithContext(ctx, b.maxRetries, func(ctx context.Context) ([]svo.Entity, error) {
		return b.ontology.RankSearch(ctx, terms, "")
	})
	if err != nil {
		logger.Warn("ontology search failed, leaving node unannotated", "term", key, "error", err)
		return
	}

	matches := make(map[string]float64)
	vars := make(map[string]float64)
	others := make(map[string]float64)
	for _, entity := range entities {
		id := b.entities.Register(EntityRef{
			Namespace: entity.Namespace(),
			Entity:    entity.LocalName(),
			PrefLabel: entity.PrefLabel,
			Class:     entity.Class,
		})
		switch {
		case entity.Rank >= 1:
			matches = mergeRankMax(matches, map[string]float64{id: entity.Rank})
		case entity.Class == svo.ClassVariable:
			vars = mergeRankMax(vars, map[string]float64{id: entity.Rank})
		default:
			others = mergeRankMax(others, map[string]float64{id: entity.Rank})
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if node, ok := b.store.Get(key); ok {
		node.HasSVOMatch = mergeRankMax(node.HasSVOMatch, matches)
		node.HasSVOVar = mergeRankMax(node.HasSVOVar, vars)
		node.HasSVOEntity = mergeRankMax(node.HasSVOEntity, others)
	}
}

// addLexiconInfo attaches lexicon categories and their definitions. The
// lemma is tried when the surface form is not in the lexicon.
func (b *Builder) addLexiconInfo(key, lemma string) {
	b.mu.Lock()
	node, ok := b.store.Get(key)
	done := ok && node.HasWWNCategory != nil
	b.mu.Unlock()
	if !ok || done {
		return
	}

	categories := b.lexicon.Categories(key)
	if len(categories) == 0 && lemma != "" && lemma != key {
		categories = b.lexicon.Categories(lemma)
	}
	if len(categories) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	node, ok = b.store.Get(key)
	if !ok {
		return
	}
	for _, category := range sortedKeys(categories) {
		node.HasWWNCategory = unionStrings(node.HasWWNCategory, category)
		node.HasWWNDefinition = unionStrings(node.HasWWNDefinition, categories[category])
	}
}

// addLexiconDef decomposes the node's lexicon definitions into noun groups
// and records them as isWWNDefinedBy terms.
func (b *Builder) addLexiconDef(ctx context.Context, key string) {
	b.mu.Lock()
	node, ok := b.store.Get(key)
	var definitions []string
	if ok && node.IsWWNDefinedBy == nil {
		definitions = append(definitions, node.HasWWNDefinition...)
	}
	b.mu.Unlock()
	if len(definitions) == 0 {
		return
	}

	var terms []string
	for _, definition := range definitions {
		sentences, err := b.tagger.TagText(ctx, definition)
		if err != nil {
			logger.Warn("skipping untaggable lexicon definition", "term", key, "error", err)
			continue
		}
		for _, sentence := range sentences {
			for _, group := range parse.ExtractGroups(sentence.Words) {
				name := NormalizeTerm(group.Name)
				if name != key {
					terms = append(terms, name)
				}
			}
		}
	}
	if len(terms) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if node, ok := b.store.Get(key); ok {
		node.IsWWNDefinedBy = unionStrings(node.IsWWNDefinedBy, terms...)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
