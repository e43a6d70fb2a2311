package routes

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/scivar-kg/backend/internal/server/middleware"
	"github.com/scivar-kg/backend/pkg/kg"
)

const defaultRankingLimit = 10

// RankedEntry is one row in a ranked listing.
type RankedEntry struct {
	Name  string  `json:"name"`
	Class string  `json:"class,omitempty"`
	Rank  float64 `json:"rank"`
}

type rankingResponse struct {
	Message string        `json:"message"`
	Term    string        `json:"term,omitempty"`
	Entries []RankedEntry `json:"entries,omitempty"`
}

// GetConceptVariablesHandler lists the ontology variables matched to a term,
// best rank first. Exact matches of variable class are included alongside
// the ranked variable candidates.
func GetConceptVariablesHandler(c echo.Context) error {
	term := c.Param("term")
	store, entities := c.(*middleware.AppContext).App.Graph.Graph()

	key, ok := store.Resolve(term)
	if !ok {
		return c.JSON(http.StatusNotFound, rankingResponse{Message: "Concept not found"})
	}
	node, ok := store.Get(key)
	if !ok {
		return c.JSON(http.StatusNotFound, rankingResponse{Message: "Concept not found"})
	}

	entries := make([]RankedEntry, 0, len(node.HasSVOVar)+len(node.HasSVOMatch))
	entries = appendEntityEntries(entries, entities, node.HasSVOVar, "")
	entries = appendEntityEntries(entries, entities, node.HasSVOMatch, "Variable")
	sortEntries(entries)

	return c.JSON(http.StatusOK, rankingResponse{
		Message: "OK",
		Term:    key,
		Entries: truncateEntries(entries, rankingLimit(c)),
	})
}

// GetConceptIndicatorsHandler lists the WM indicators attached to a term,
// best rank first.
func GetConceptIndicatorsHandler(c echo.Context) error {
	term := c.Param("term")
	store, _ := c.(*middleware.AppContext).App.Graph.Graph()

	key, ok := store.Resolve(term)
	if !ok {
		return c.JSON(http.StatusNotFound, rankingResponse{Message: "Concept not found"})
	}
	node, ok := store.Get(key)
	if !ok {
		return c.JSON(http.StatusNotFound, rankingResponse{Message: "Concept not found"})
	}

	entries := make([]RankedEntry, 0, len(node.HasWMIndicator))
	for name, rank := range node.HasWMIndicator {
		entries = append(entries, RankedEntry{Name: name, Rank: rank})
	}
	sortEntries(entries)

	return c.JSON(http.StatusOK, rankingResponse{
		Message: "OK",
		Term:    key,
		Entries: truncateEntries(entries, rankingLimit(c)),
	})
}

// appendEntityEntries resolves entity hash ids to their labels. classFilter
// restricts to a single entity class; entries whose id is missing from the
// index are skipped.
func appendEntityEntries(entries []RankedEntry, entities *kg.EntityIndex, ranks map[string]float64, classFilter string) []RankedEntry {
	for id, rank := range ranks {
		ref, ok := entities.Lookup(id)
		if !ok {
			continue
		}
		if classFilter != "" && ref.Class != classFilter {
			continue
		}
		name := ref.PrefLabel
		if name == "" {
			name = ref.Entity
		}
		entries = append(entries, RankedEntry{Name: name, Class: ref.Class, Rank: rank})
	}
	return entries
}

func sortEntries(entries []RankedEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rank != entries[j].Rank {
			return entries[i].Rank > entries[j].Rank
		}
		return entries[i].Name < entries[j].Name
	})
}

func truncateEntries(entries []RankedEntry, limit int) []RankedEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func rankingLimit(c echo.Context) int {
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			return limit
		}
	}
	return defaultRankingLimit
}
