package kg

import "github.com/scivar-kg/backend/pkg/logger"

// unionStrings appends each value not already present, preserving insertion
// order. All list-valued node attributes merge through this.
func unionStrings(dst []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		found := false
		for _, existing := range dst {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// mergeRankMax folds src into dst keeping the maximum rank per key. All
// rank-valued node attributes merge through this.
func mergeRankMax(dst, src map[string]float64) map[string]float64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]float64, len(src))
	}
	for key, rank := range src {
		if existing, ok := dst[key]; !ok || rank > existing {
			dst[key] = rank
		}
	}
	return dst
}

// mergeScalar overwrites dst with src when they conflict, logging the loss.
// Scalar attributes have no sensible union, so last writer wins.
func mergeScalar(attr, term, dst, src string) string {
	if src == "" {
		return dst
	}
	if dst != "" && dst != src {
		logger.Warn("conflicting scalar attribute during merge, overwriting",
			"attribute", attr, "term", term, "old", dst, "new", src)
	}
	return src
}

// mergeNodes folds src into dst. Lists union, rank maps keep the maximum per
// key, scalars overwrite with a warning on conflict.
func mergeNodes(term string, dst, src *Node) {
	dst.PosSeq = mergeSeq(dst.PosSeq, src.PosSeq)
	dst.LemmaSeq = mergeSeq(dst.LemmaSeq, src.LemmaSeq)
	dst.Type = mergeScalar("type", term, dst.Type, src.Type)

	dst.Components = unionStrings(dst.Components, src.Components...)
	dst.IsComponentOf = unionStrings(dst.IsComponentOf, src.IsComponentOf...)
	dst.HasType = unionStrings(dst.HasType, src.HasType...)
	dst.IsTypeOf = unionStrings(dst.IsTypeOf, src.IsTypeOf...)
	dst.HasAttribute = unionStrings(dst.HasAttribute, src.HasAttribute...)
	dst.IsAttributeOf = unionStrings(dst.IsAttributeOf, src.IsAttributeOf...)
	dst.HasComponentNounConcept = unionStrings(dst.HasComponentNounConcept, src.HasComponentNounConcept...)
	dst.IsComponentNounConceptOf = unionStrings(dst.IsComponentNounConceptOf, src.IsComponentNounConceptOf...)

	dst.HasSVOEntity = mergeRankMax(dst.HasSVOEntity, src.HasSVOEntity)
	dst.HasSVOVar = mergeRankMax(dst.HasSVOVar, src.HasSVOVar)
	dst.HasSVOMatch = mergeRankMax(dst.HasSVOMatch, src.HasSVOMatch)
	dst.HasWMIndicator = mergeRankMax(dst.HasWMIndicator, src.HasWMIndicator)

	dst.DetSVOCategory = mergeScalar("detSVOCategory", term, dst.DetSVOCategory, src.DetSVOCategory)

	dst.HasWWNCategory = unionStrings(dst.HasWWNCategory, src.HasWWNCategory...)
	dst.HasWWNDefinition = unionStrings(dst.HasWWNDefinition, src.HasWWNDefinition...)
	dst.IsWWNDefinedBy = unionStrings(dst.IsWWNDefinedBy, src.IsWWNDefinedBy...)

	dst.HasSynonym = unionStrings(dst.HasSynonym, src.HasSynonym...)
	dst.IsDefinedBy = unionStrings(dst.IsDefinedBy, src.IsDefinedBy...)
	dst.IsCloselyRelatedTo = unionStrings(dst.IsCloselyRelatedTo, src.IsCloselyRelatedTo...)
	dst.IsRelatedTo = unionStrings(dst.IsRelatedTo, src.IsRelatedTo...)

	dst.ModifiedTerms = unionStrings(dst.ModifiedTerms, src.ModifiedTerms...)
	dst.TermAspects = unionStrings(dst.TermAspects, src.TermAspects...)
}

// mergeSeq keeps the existing tag sequence unless it is empty. Sequences are
// positional, so unioning them element-wise would corrupt them.
func mergeSeq(dst, src []string) []string {
	if len(dst) == 0 {
		return src
	}
	return dst
}
