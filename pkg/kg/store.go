package kg

import (
	"sort"
	"strings"
	"sync"

	"github.com/scivar-kg/backend/pkg/logger"
)

// Store holds the graph nodes together with the synonym index that maps
// surface forms to canonical node keys. Map access is guarded by the mutex;
// callers that mutate node contents serialize those writes themselves.
type Store struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	synonyms map[string]string
}

func NewStore() *Store {
	return &Store{
		nodes:    make(map[string]*Node),
		synonyms: make(map[string]string),
	}
}

// NormalizeTerm lowercases a term and collapses internal whitespace. Every
// key entering the store goes through this first.
func NormalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Keys returns all canonical node keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.nodes))
	for key := range s.nodes {
		keys = append(keys, key)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Resolve maps a surface form to its canonical node key. Resolution is a
// single hop: canonical keys map to themselves, so resolving a resolved key
// is a no-op.
func (s *Store) Resolve(term string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.synonyms[NormalizeTerm(term)]
	return key, ok
}

// Get returns the node a surface form resolves to.
func (s *Store) Get(term string) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.synonyms[NormalizeTerm(term)]
	if !ok {
		return nil, false
	}
	node, ok := s.nodes[key]
	return node, ok
}

// Ensure returns the node for term, creating an empty one (and its identity
// synonym entry) if the term is unknown. The canonical key is returned
// alongside the node.
func (s *Store) Ensure(term string) (string, *Node) {
	name := NormalizeTerm(term)
	s.mu.Lock()
	defer s.mu.Unlock()
	if key, ok := s.synonyms[name]; ok {
		if node, ok := s.nodes[key]; ok {
			return key, node
		}
	}
	node := &Node{}
	s.nodes[name] = node
	s.synonyms[name] = name
	return name, node
}

// Put installs node under the normalized term, replacing any existing node
// and registering the identity synonym entry.
func (s *Store) Put(term string, node *Node) string {
	name := NormalizeTerm(term)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[name] = node
	s.synonyms[name] = name
	return name
}

// AddSynonym records that synonym resolves to the node canonical resolves
// to. Unknown canonicals and already-indexed synonyms are ignored, so the
// operation is idempotent and never rebinds an existing surface form.
func (s *Store) AddSynonym(canonical, synonym string) {
	name := NormalizeTerm(synonym)
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.synonyms[NormalizeTerm(canonical)]
	if !ok {
		return
	}
	if _, exists := s.synonyms[name]; exists {
		return
	}
	if _, ok := s.nodes[key]; !ok {
		return
	}
	s.synonyms[name] = key
}

// MergeSynonym folds the node keyed duplicate into the node keyed canonical,
// repoints every surface form that resolved to duplicate, and drops the
// duplicate node. Both arguments must be canonical keys; anything else is a
// no-op.
func (s *Store) MergeSynonym(duplicate, canonical string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeSynonymLocked(duplicate, canonical)
}

func (s *Store) mergeSynonymLocked(duplicate, canonical string) {
	if duplicate == canonical {
		return
	}
	src, ok := s.nodes[duplicate]
	if !ok {
		return
	}
	dst, ok := s.nodes[canonical]
	if !ok {
		return
	}
	mergeNodes(canonical, dst, src)
	for form, key := range s.synonyms {
		if key == duplicate {
			s.synonyms[form] = canonical
		}
	}
	delete(s.nodes, duplicate)
}

// UpdateSynonyms sweeps the graph merging every node whose hasSynonym list
// names another existing node. Each pass can expose new merge opportunities,
// so the sweep repeats until it finds none.
func (s *Store) UpdateSynonyms() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		merged := false
		keys := make([]string, 0, len(s.nodes))
		for key := range s.nodes {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			node, ok := s.nodes[key]
			if !ok {
				continue
			}
			for _, syn := range node.HasSynonym {
				name := NormalizeTerm(syn)
				if name == key {
					continue
				}
				if _, exists := s.nodes[name]; exists {
					logger.Debug("merging synonym nodes", "duplicate", name, "canonical", key)
					s.mergeSynonymLocked(name, key)
					merged = true
				} else if _, indexed := s.synonyms[name]; !indexed {
					s.synonyms[name] = key
				}
			}
		}
		if !merged {
			return
		}
	}
}

// RemapEntityHashes rewrites every entity-hash key in the rank maps of every
// node using remap (old id to new id). Keys absent from remap are dropped;
// the dropped count is returned.
func (s *Store) RemapEntityHashes(remap map[string]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for _, node := range s.nodes {
		node.HasSVOEntity, dropped = remapRanks(node.HasSVOEntity, remap, dropped)
		node.HasSVOVar, dropped = remapRanks(node.HasSVOVar, remap, dropped)
		node.HasSVOMatch, dropped = remapRanks(node.HasSVOMatch, remap, dropped)
	}
	if dropped > 0 {
		logger.Warn("dropped entity references with no index entry during rehash", "count", dropped)
	}
	return dropped
}

func remapRanks(ranks map[string]float64, remap map[string]string, dropped int) (map[string]float64, int) {
	if len(ranks) == 0 {
		return ranks, dropped
	}
	out := make(map[string]float64, len(ranks))
	for old, rank := range ranks {
		id, ok := remap[old]
		if !ok {
			dropped++
			continue
		}
		if existing, exists := out[id]; !exists || rank > existing {
			out[id] = rank
		}
	}
	return out, dropped
}
