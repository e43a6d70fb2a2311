package kg

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/scivar-kg/backend/pkg/logger"
)

// SaveGraph writes all nodes as a single JSON object keyed by canonical term.
// encoding/json emits map keys in sorted order, so saves are diffable.
func (s *Store) SaveGraph(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.nodes, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SaveSynonyms writes the synonym index as a JSON object mapping surface
// forms to canonical keys.
func (s *Store) SaveSynonyms(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.synonyms, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadGraph replaces the store contents with the graph at graphPath and the
// synonym index at synonymPath. A missing or unreadable graph file leaves the
// store empty with a warning so builds can start fresh. A missing synonym
// file is reconstructed as the identity map over node keys. After loading,
// pending hasSynonym merges are applied.
func (s *Store) LoadGraph(graphPath, synonymPath string) {
	nodes := make(map[string]*Node)
	data, err := os.ReadFile(graphPath)
	if err != nil {
		logger.Warn("could not read graph file, starting empty", "path", graphPath, "error", err)
	} else if err := json.Unmarshal(data, &nodes); err != nil {
		logger.Warn("could not parse graph file, starting empty", "path", graphPath, "error", err)
		nodes = make(map[string]*Node)
	}

	synonyms := make(map[string]string)
	synData, err := os.ReadFile(synonymPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("could not read synonym index, rebuilding", "path", synonymPath, "error", err)
		}
	} else if err := json.Unmarshal(synData, &synonyms); err != nil {
		logger.Warn("could not parse synonym index, rebuilding", "path", synonymPath, "error", err)
		synonyms = make(map[string]string)
	}
	for key := range nodes {
		if _, ok := synonyms[key]; !ok {
			synonyms[key] = key
		}
	}
	// Drop entries pointing at nodes that no longer exist.
	for form, key := range synonyms {
		if _, ok := nodes[key]; !ok {
			delete(synonyms, form)
		}
	}

	s.mu.Lock()
	s.nodes = nodes
	s.synonyms = synonyms
	s.mu.Unlock()

	s.UpdateSynonyms()
	logger.Info("loaded graph", "nodes", s.Len(), "path", graphPath)
}
