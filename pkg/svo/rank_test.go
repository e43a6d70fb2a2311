package svo

import (
	"math"
	"testing"
)

const propertyNS = "http://www.geoscienceontology.org/svo/svl/property"

func propEntity(name, label, term string, linked bool) Entity {
	return Entity{
		Term:      term,
		URI:       propertyNS + "#" + name,
		Label:     label,
		PrefLabel: label,
		Class:     "Property",
		Linked:    linked,
	}
}

func TestIdentifierLength(t *testing.T) {
	tests := []struct {
		id   string
		want int
	}{
		{"conductivity", 1},
		{"thermal_conductivity", 2},
		{"water_of_lake", 2},
		{"soil@water", 1},
		{"temperature@medium_air", 2},
		{"flow-or-discharge", 1},
		{"", 1},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := identifierLength(tt.id); got != tt.want {
				t.Errorf("identifierLength(%q) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}

func TestRankEntitiesExactMatch(t *testing.T) {
	ranked := RankEntities(
		[]string{"conductivity"},
		[]Entity{propEntity("conductivity", "conductivity", "conductivity", false)},
	)
	if len(ranked) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(ranked))
	}
	if ranked[0].Rank != 1 {
		t.Errorf("exact match rank = %v, want 1", ranked[0].Rank)
	}
}

func TestRankEntitiesMultiwordCoverage(t *testing.T) {
	rows := []Entity{
		propEntity("thermal_conductivity", "thermal_conductivity", "thermal", false),
		propEntity("thermal_conductivity", "thermal_conductivity", "conductivity", false),
	}
	ranked := RankEntities([]string{"thermal conductivity"}, rows)
	if len(ranked) != 1 {
		t.Fatalf("expected rows of one URI to collapse, got %d entities", len(ranked))
	}
	if ranked[0].Rank != 1 {
		t.Errorf("full coverage rank = %v, want 1", ranked[0].Rank)
	}
}

func TestRankEntitiesPartialBelowExact(t *testing.T) {
	ranked := RankEntities(
		[]string{"thermal conductivity"},
		[]Entity{
			propEntity("conductivity", "conductivity", "conductivity", false),
		},
	)
	if len(ranked) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(ranked))
	}
	rank := ranked[0].Rank
	if rank >= 1 {
		t.Errorf("partial match rank = %v, want < 1", rank)
	}
	if rank < rankFloor {
		t.Errorf("partial match rank = %v, want >= floor %v", rank, rankFloor)
	}
}

func TestRankEntitiesLinkedDiscount(t *testing.T) {
	direct := RankEntities(
		[]string{"conductivity"},
		[]Entity{propEntity("conductivity", "conductivity", "conductivity", false)},
	)
	linked := RankEntities(
		[]string{"conductivity"},
		[]Entity{propEntity("conductivity", "conductivity", "conductivity", true)},
	)
	want := (1 + exactBoost) * linkedFactor
	if math.Abs(linked[0].Rank-want) > 1e-9 {
		t.Errorf("linked rank = %v, want %v", linked[0].Rank, want)
	}
	if linked[0].Rank >= direct[0].Rank {
		t.Errorf("linked rank %v not below direct rank %v", linked[0].Rank, direct[0].Rank)
	}
}

func TestRankEntitiesSortedAndBounded(t *testing.T) {
	rows := []Entity{
		propEntity("conductivity", "conductivity", "conductivity", true),
		propEntity("thermal_conductivity", "thermal_conductivity", "conductivity", false),
		propEntity("conductivity", "conductivity", "conductivity", false),
	}
	// two URIs: the duplicate direct/linked rows collapse per URI
	ranked := RankEntities([]string{"conductivity"}, rows)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(ranked))
	}
	for i, e := range ranked {
		if e.Rank < 0 || e.Rank > 1 {
			t.Errorf("rank out of bounds: %v", e.Rank)
		}
		if i > 0 && ranked[i-1].Rank < e.Rank {
			t.Errorf("ranks not sorted descending: %v before %v", ranked[i-1].Rank, e.Rank)
		}
	}
	if ranked[0].URI != propertyNS+"#conductivity" {
		t.Errorf("best entity = %s, want exact-label match first", ranked[0].URI)
	}
}
