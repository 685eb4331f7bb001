/*
	Summary statistics over track container files.
*/

package trk

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Stats summarizes the cell tracks of one container file.
type Stats struct {
	Filename  string
	FileSize  int64
	RawShape  []int
	NumMovies int

	TotalTracks    int
	TotalDivisions int

	// AvgCellDensity is the mean number of cells per 100 square pixels of frame.
	AvgCellDensity float64

	// AvgTrackLength is the mean number of frames per track.
	AvgTrackLength float64
}

// FileStats computes summary statistics for a .trk or .trks file.
func FileStats(filename string) (*Stats, error) {
	ext := filepath.Ext(filename)
	if ext != TrkExt && ext != TrksExt {
		return nil, fmt.Errorf("%w: expected %s or %s, found %q", ErrExtension, TrkExt, TrksExt, filename)
	}
	info, err := os.Stat(filename)
	if err != nil {
		return nil, err
	}
	loaded, err := Load(filename)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Filename:  filename,
		FileSize:  info.Size(),
		RawShape:  loaded.Raw.Shape,
		NumMovies: loaded.NumMovies(),
	}

	var densitySum, lengthSum float64
	for movie, lineage := range loaded.Lineages {
		stats.TotalTracks += len(lineage)
		stats.TotalDivisions += lineage.NumDivisions()

		frameSum := 0
		for _, track := range lineage {
			frameSum += len(track.Frames)
		}
		if len(lineage) > 0 {
			lengthSum += float64(frameSum) / float64(len(lineage))
		}

		vol, err := loaded.TrackedVolume(movie)
		if err != nil {
			return nil, err
		}
		cellSum := 0
		for f := 0; f < vol.NumFrames; f++ {
			cellSum += vol.Frame(f).NumCells()
		}
		if vol.NumFrames > 0 {
			avgCells := float64(cellSum) / float64(vol.NumFrames)
			densitySum += avgCells / float64(vol.Height*vol.Width)
		}
	}
	if stats.NumMovies > 0 {
		stats.AvgCellDensity = densitySum / float64(stats.NumMovies) * 100
		stats.AvgTrackLength = lengthSum / float64(stats.NumMovies)
	}
	return stats, nil
}

// Render returns the statistics as a readable table.
func (s *Stats) Render() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Dataset Statistics: %s", filepath.Base(s.Filename))
	tw.AppendRows([]table.Row{
		{"File size", humanize.Bytes(uint64(s.FileSize))},
		{"Image data shape", shapeString(s.RawShape)},
		{"Number of lineages", s.NumMovies},
		{"Total unique tracks (cells)", s.TotalTracks},
		{"Total divisions", s.TotalDivisions},
		{"Avg cell density (cells/100 sq pixels)", fmt.Sprintf("%.4f", s.AvgCellDensity)},
		{"Avg number of frames per track", fmt.Sprintf("%.1f", s.AvgTrackLength)},
	})
	return tw.Render()
}

func shapeString(shape []int) string {
	out := "("
	for i, dim := range shape {
		if i > 0 {
			out += ", "
		}
		out += strconv.Itoa(dim)
	}
	return out + ")"
}
