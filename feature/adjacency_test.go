package feature

import (
	"math"
	"testing"

	"github.com/janelia-flyem/tracks/tracks"
)

func TestNormalizeAdjacency(t *testing.T) {
	adj := [][][]float64{
		{
			{0, 1},
			{1, 0},
		},
	}
	normalized, err := NormalizeAdjacency(adj, 1e-5)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	// Both nodes have degree 1, so off-diagonal entries become
	// (1 + eps)^-1 which is just under 1.
	want := 1.0 / (1 + 1e-5)
	if got := normalized[0][0][1]; math.Abs(got-want) > 1e-12 {
		t.Errorf("normalized[0][0][1] = %v, want %v", got, want)
	}
	if got := normalized[0][1][0]; math.Abs(got-normalized[0][0][1]) > 1e-12 {
		t.Errorf("normalization broke symmetry: %v vs %v", got, normalized[0][0][1])
	}
	if normalized[0][0][0] != 0 {
		t.Errorf("zero entries should stay zero, got %v", normalized[0][0][0])
	}
	if adj[0][0][1] != 1 {
		t.Errorf("input was mutated")
	}
}

func TestNormalizeAdjacencyRejectsNonSquare(t *testing.T) {
	adj := [][][]float64{
		{
			{0, 1, 2},
			{1, 0},
		},
	}
	if _, err := NormalizeAdjacency(adj, 1e-5); err == nil {
		t.Errorf("expected non-square adjacency to fail")
	}
}

func TestNormalizeAdjacencyBatch(t *testing.T) {
	adj := [][][][]float64{
		{{{0, 1}, {1, 0}}},
		{{{0, 2}, {2, 0}}},
	}
	normalized, err := NormalizeAdjacencyBatch(adj, 1e-5)
	if err != nil {
		t.Fatalf("batch normalize failed: %v", err)
	}
	if len(normalized) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(normalized))
	}
}

func TestCountPairs(t *testing.T) {
	vol := tracks.NewLabelVolume(3, 8, 8)
	for f := 0; f < 3; f++ {
		vol.SetValue(f, 0, 0, 1)
		vol.SetValue(f, 4, 4, 2)
	}
	// avg 2 cells/frame, max 2: (2-1)*3 non-self cellframes * 2 = 6 pairings,
	// doubled by the 0.5 sampling odds.
	if got := CountPairs([]*tracks.LabelVolume{vol}, 0.5); got != 12 {
		t.Errorf("expected 12 pairs, got %d", got)
	}
	if got := CountPairs(nil, 0.5); got != 0 {
		t.Errorf("expected 0 pairs for no movies, got %d", got)
	}
}
