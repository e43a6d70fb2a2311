// Package wiktiwordnet answers category lookups against a WiktiWordNet JSON
// dump, a lexicon organizing noun definitions under broad domain categories.
package wiktiwordnet

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/scivar-kg/backend/pkg/logger"
)

// The dump nests definitions as category -> term -> part of speech -> text.
// Only noun senses matter here.
const posNoun = "Noun"

type dump map[string]map[string]map[string][]string

// Client serves lookups from an in-memory dump. A missing or unparsable
// dump file degrades to an empty lexicon with a warning, so builds proceed
// without lexicon annotations rather than failing.
type Client struct {
	data dump
}

type NewClientParams struct {
	// Path to the JSON dump file.
	Path string
}

func NewClient(params NewClientParams) *Client {
	data, err := os.ReadFile(params.Path)
	if err != nil {
		logger.Warn("could not read lexicon dump, lookups will be empty", "path", params.Path, "error", err)
		return &Client{data: dump{}}
	}
	var d dump
	if err := json.Unmarshal(data, &d); err != nil {
		logger.Warn("could not parse lexicon dump, lookups will be empty", "path", params.Path, "error", err)
		return &Client{data: dump{}}
	}
	logger.Info("loaded lexicon dump", "path", params.Path, "categories", len(d))
	return &Client{data: d}
}

// Categories returns the categories listing term as a noun, each with the
// first definition text recorded for it. The empty map means the term is
// not in the lexicon.
func (c *Client) Categories(term string) map[string]string {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make(map[string]string)
	for category, terms := range c.data {
		senses, ok := terms[term]
		if !ok {
			continue
		}
		definitions, ok := senses[posNoun]
		if !ok || len(definitions) == 0 {
			continue
		}
		out[category] = definitions[0]
	}
	return out
}

// CheckDomain reports whether term appears in any category and returns the
// first category containing it, in lexicographic order for determinism.
func (c *Client) CheckDomain(term string) (string, bool) {
	categories := c.Categories(term)
	if len(categories) == 0 {
		return "", false
	}
	best := ""
	for category := range categories {
		if best == "" || category < best {
			best = category
		}
	}
	return best, true
}
