package svo

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/scivar-kg/backend/pkg/logger"
)

// Heuristic constants of the composite rank. Tuned for relative ordering of
// outcomes, not for any principled absolute meaning.
const (
	rankFloor          = 0.1  // minimum rank for any returned candidate
	missingTermWeight  = 0.2  // weight of the missing-word penalty
	maxDistancePenalty = 0.05 // cap on the edit-distance penalty
	linkedFactor       = 0.7  // discount for link-traversal matches
	exactBoost         = 0.1  // flat boost for exact label matches
)

// RankEntities computes the composite rank for every distinct entity among
// the candidate rows and returns one ranked Entity per URI, sorted by
// descending rank, then label.
//
// The rank combines word-occurrence coverage over the entity identifier's
// constituent labels, a penalty for search-term words with no match, and the
// minimum normalized edit distance between the entity's labels and the search
// terms. Link-traversal candidates are discounted, exact matches boosted, and
// the result clamped to [0,1].
func RankEntities(terms []string, rows []Entity) []Entity {
	byURI := map[string][]Entity{}
	var order []string
	for _, row := range rows {
		if _, ok := byURI[row.URI]; !ok {
			order = append(order, row.URI)
		}
		byURI[row.URI] = append(byURI[row.URI], row)
	}

	var ranked []Entity
	for _, uri := range order {
		group := byURI[uri]
		best := group[0]

		labels := map[string]bool{}
		duplicate := false
		for _, row := range group {
			if labels[row.Label] && row.Label == best.Label && row.Linked == best.Linked {
				duplicate = true
			}
			labels[row.Label] = true
			labels[row.PrefLabel] = true
		}
		if duplicate {
			logger.Warn("Entity label found twice", "entity", uri)
		}

		rank := scoreEntity(terms, group, labels)
		if best.Linked {
			rank *= linkedFactor
		}
		best.Rank = clamp01(rank)
		ranked = append(ranked, best)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Rank != ranked[j].Rank {
			return ranked[i].Rank > ranked[j].Rank
		}
		return ranked[i].Label < ranked[j].Label
	})
	return ranked
}

func scoreEntity(terms []string, group []Entity, labels map[string]bool) float64 {
	idLabel := unescapeLabel(group[0].LocalName())

	// words of the search terms that matched this entity
	occurrences := map[string]bool{}
	for _, row := range group {
		occurrences[strings.ToLower(row.Term)] = true
	}
	numOccurrences := len(occurrences)

	// penalty for search-term words with no match; the best (least
	// incomplete) term counts
	maxTermLen := 0
	termPenalty := 1.0
	for _, term := range terms {
		words := strings.Fields(term)
		if len(words) == 0 {
			continue
		}
		missing := 0
		for _, word := range words {
			if !occurrences[strings.ToLower(word)] {
				missing++
			}
		}
		if p := float64(missing) / float64(len(words)); p < termPenalty {
			termPenalty = p
		}
		if len(words) > maxTermLen {
			maxTermLen = len(words)
		}
	}
	if numOccurrences > maxTermLen {
		numOccurrences = maxTermLen
	}

	// minimum edit distance between any label and any term, normalized by
	// label length
	minDistance := -1
	minLabelLen := 0
	exact := false
	for label := range labels {
		if label == "" {
			continue
		}
		clean := strings.ReplaceAll(strings.ReplaceAll(label, "_of_", " "), "_", " ")
		for _, term := range terms {
			dist := levenshtein.ComputeDistance(
				strings.ToLower(clean), strings.ToLower(strings.TrimSpace(term)))
			if minDistance < 0 || dist < minDistance {
				minDistance = dist
				minLabelLen = len(clean)
			}
			if dist == 0 {
				exact = true
			}
		}
	}
	distancePenalty := 0.0
	if minDistance > 0 && minLabelLen > 0 {
		normalized := float64(minDistance) / float64(minLabelLen)
		if normalized > 1 {
			normalized = 1
		}
		distancePenalty = maxDistancePenalty * normalized
	}

	// constituent count of the entity identifier
	lenID := identifierLength(idLabel)
	if numOccurrences > lenID {
		numOccurrences = lenID
	}

	coverage := (float64(numOccurrences) - missingTermWeight*termPenalty) / float64(lenID)
	rank := coverage - distancePenalty
	if rank < rankFloor {
		rank = rankFloor
	}
	if exact {
		rank += exactBoost
	}
	return rank
}

// identifierLength counts the constituent concepts of an entity identifier.
// Modifier markers (@, @medium) and adposition joins (_of_) introduce words
// that are not standalone concepts and are subtracted out.
func identifierLength(idLabel string) int {
	atMedium := strings.Count(idLabel, "@medium")
	at := strings.Count(idLabel, "@") - atMedium
	adp := strings.Count(idLabel, "_of_")

	normalized := strings.NewReplacer(
		"@", "_", "~", "_", "(", "", ")", "",
		"-or-", "_", "-and-", "_", "-per-", "_", "-to-", "_",
	).Replace(idLabel)

	length := len(strings.Split(normalized, "_")) - 2*at - atMedium - adp
	if length < 1 {
		length = 1
	}
	return length
}

var labelUnescaper = strings.NewReplacer(
	"%40", "@",
	"%7E", "~",
	"%28", "(",
	"%29", ")",
)

func unescapeLabel(label string) string {
	return labelUnescaper.Replace(label)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
