/*
	Adjacency-matrix degree normalization and pairwise-sampling statistics.
	These are straightforward numeric transforms over already-validated data.
*/

package feature

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/tracks/tracks"
)

// NormalizeAdjacency symmetrically normalizes a (frames, n, n) adjacency
// matrix sequence by node degree: D^-1/2 * A * D^-1/2 per frame, with epsilon
// added to degrees before the inverse square root.  The input is not mutated.
func NormalizeAdjacency(adj [][][]float64, epsilon float64) ([][][]float64, error) {
	normalized := make([][][]float64, len(adj))
	for t, frame := range adj {
		n := len(frame)
		degrees := make([]float64, n)
		for i, row := range frame {
			if len(row) != n {
				return nil, fmt.Errorf("frame %d adjacency is not square: row %d has %d entries, want %d",
					t, i, len(row), n)
			}
			for _, w := range row {
				degrees[i] += w
			}
		}
		for i := range degrees {
			degrees[i] = math.Pow(degrees[i]+epsilon, -0.5)
		}

		normalized[t] = make([][]float64, n)
		for i := 0; i < n; i++ {
			normalized[t][i] = make([]float64, n)
			for j := 0; j < n; j++ {
				normalized[t][i][j] = degrees[i] * frame[i][j] * degrees[j]
			}
		}
	}
	return normalized, nil
}

// NormalizeAdjacencyBatch applies NormalizeAdjacency across a leading batch
// dimension.  Only rank-3 and rank-4 inputs are supported, which these two
// functions embody.
func NormalizeAdjacencyBatch(adj [][][][]float64, epsilon float64) ([][][][]float64, error) {
	normalized := make([][][][]float64, len(adj))
	for b, movie := range adj {
		var err error
		if normalized[b], err = NormalizeAdjacency(movie, epsilon); err != nil {
			return nil, fmt.Errorf("batch %d: %v", b, err)
		}
	}
	return normalized, nil
}

// CountPairs estimates how many training samples must be drawn to observe all
// cell pairs across the given movies, assuming sameProbability odds that a
// sampled pair is a self pairing.
func CountPairs(movies []*tracks.LabelVolume, sameProbability float64) int {
	totalPairs := 0
	for _, vol := range movies {
		if vol.NumFrames == 0 {
			continue
		}
		cellSum := 0
		maxCells := 0
		for f := 0; f < vol.NumFrames; f++ {
			n := vol.Frame(f).NumCells()
			cellSum += n
			if n > maxCells {
				maxCells = n
			}
		}

		// Non-self pairings vastly outnumber self pairings, so estimate those
		// assuming the average cell appears in every frame and scale by the
		// sampling odds.  The assumption undercounts possible pairings.
		avgCellsPerFrame := cellSum / vol.NumFrames
		nonSelfCellframes := (avgCellsPerFrame - 1) * vol.NumFrames
		nonSelfPairings := nonSelfCellframes * maxCells
		totalPairs += int(float64(nonSelfPairings) / sameProbability)
	}
	return totalPairs
}
