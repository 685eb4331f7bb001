/*
	This file supports label volumes: movies of labeled segmentation frames where
	each non-zero pixel value is a cell instance identifier.
*/

package tracks

import (
	"fmt"
	"sort"
)

// LabelVolume is a 3d (frame, y, x) array of int32 cell labels for one movie.
// Label 0 is background.  Within a frame each non-zero value denotes one cell
// instance; values may be gapped or reused across a dataset until relabeled.
type LabelVolume struct {
	NumFrames int
	Height    int
	Width     int

	// Data is frame-major, then row-major within a frame, so the pixel at
	// (f, y, x) is Data[f*Height*Width + y*Width + x].
	Data []int32
}

// NewLabelVolume returns a zeroed label volume of the given shape.
func NewLabelVolume(numFrames, height, width int) *LabelVolume {
	return &LabelVolume{
		NumFrames: numFrames,
		Height:    height,
		Width:     width,
		Data:      make([]int32, numFrames*height*width),
	}
}

// CheckShape returns an error if the data length doesn't match the declared shape.
func (v *LabelVolume) CheckShape() error {
	expected := v.NumFrames * v.Height * v.Width
	if len(v.Data) != expected {
		return fmt.Errorf("label volume data has %d elements, expected %d for shape (%d, %d, %d)",
			len(v.Data), expected, v.NumFrames, v.Height, v.Width)
	}
	return nil
}

// Value returns the label at pixel (f, y, x).
func (v *LabelVolume) Value(f, y, x int) int32 {
	return v.Data[(f*v.Height+y)*v.Width+x]
}

// SetValue sets the label at pixel (f, y, x).
func (v *LabelVolume) SetValue(f, y, x int, label int32) {
	v.Data[(f*v.Height+y)*v.Width+x] = label
}

// FrameData returns the pixels of frame f as a slice sharing the volume's storage.
func (v *LabelVolume) FrameData(f int) []int32 {
	sz := v.Height * v.Width
	return v.Data[f*sz : (f+1)*sz]
}

// Frame returns frame f as a single label image sharing the volume's storage.
func (v *LabelVolume) Frame(f int) *LabelFrame {
	return &LabelFrame{Height: v.Height, Width: v.Width, Data: v.FrameData(f)}
}

// Clone returns a deep copy of the volume.
func (v *LabelVolume) Clone() *LabelVolume {
	data := make([]int32, len(v.Data))
	copy(data, v.Data)
	return &LabelVolume{NumFrames: v.NumFrames, Height: v.Height, Width: v.Width, Data: data}
}

// CellIDs returns the sorted distinct non-zero labels present anywhere in the volume.
func (v *LabelVolume) CellIDs() []int32 {
	present := make(map[int32]struct{})
	for _, label := range v.Data {
		if label != 0 {
			present[label] = struct{}{}
		}
	}
	ids := make([]int32, 0, len(present))
	for label := range present {
		ids = append(ids, label)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CellIDSet returns the distinct non-zero labels present anywhere in the volume
// as a set.
func (v *LabelVolume) CellIDSet() map[int32]struct{} {
	present := make(map[int32]struct{})
	for _, label := range v.Data {
		if label != 0 {
			present[label] = struct{}{}
		}
	}
	return present
}

// CellFrames returns the sorted frame indices in which the given label occurs.
func (v *LabelVolume) CellFrames(label int32) []int {
	frames := []int{}
	for f := 0; f < v.NumFrames; f++ {
		for _, value := range v.FrameData(f) {
			if value == label {
				frames = append(frames, f)
				break
			}
		}
	}
	return frames
}

// MaxCells returns the maximum number of distinct cells in any one frame.
func (v *LabelVolume) MaxCells() int {
	maxCells := 0
	for f := 0; f < v.NumFrames; f++ {
		if n := v.Frame(f).NumCells(); n > maxCells {
			maxCells = n
		}
	}
	return maxCells
}

// LabelFrame is a single 2d labeled segmentation image.
type LabelFrame struct {
	Height int
	Width  int
	Data   []int32
}

// Value returns the label at pixel (y, x).
func (f *LabelFrame) Value(y, x int) int32 {
	return f.Data[y*f.Width+x]
}

// CellIDs returns the sorted distinct non-zero labels in the frame.
func (f *LabelFrame) CellIDs() []int32 {
	present := make(map[int32]struct{})
	for _, label := range f.Data {
		if label != 0 {
			present[label] = struct{}{}
		}
	}
	ids := make([]int32, 0, len(present))
	for label := range present {
		ids = append(ids, label)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NumCells returns the number of distinct non-zero labels in the frame.
func (f *LabelFrame) NumCells() int {
	present := make(map[int32]struct{})
	for _, label := range f.Data {
		if label != 0 {
			present[label] = struct{}{}
		}
	}
	return len(present)
}
