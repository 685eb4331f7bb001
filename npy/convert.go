/*
	Conversions between generic .npy arrays and the typed label volumes of the
	tracks package.  Raw image stacks stay as generic arrays since the codec
	treats them as opaque; label stacks get typed access for validation and
	relabeling.
*/

package npy

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/janelia-flyem/tracks/tracks"
)

// IsInt reports whether the array holds a signed or unsigned integer dtype.
func (a *Array) IsInt() bool {
	switch a.DType {
	case "i1", "u1", "i2", "u2", "i4", "u4", "i8", "u8":
		return true
	}
	return false
}

// IntAt returns element i widened to int64.  The array must hold an integer dtype.
func (a *Array) IntAt(i int) int64 {
	switch a.DType {
	case "i1":
		return int64(int8(a.Data[i]))
	case "u1":
		return int64(a.Data[i])
	case "i2":
		return int64(int16(binary.LittleEndian.Uint16(a.Data[i*2:])))
	case "u2":
		return int64(binary.LittleEndian.Uint16(a.Data[i*2:]))
	case "i4":
		return int64(int32(binary.LittleEndian.Uint32(a.Data[i*4:])))
	case "u4":
		return int64(binary.LittleEndian.Uint32(a.Data[i*4:]))
	case "i8":
		return int64(binary.LittleEndian.Uint64(a.Data[i*8:]))
	case "u8":
		return int64(binary.LittleEndian.Uint64(a.Data[i*8:]))
	}
	panic(fmt.Sprintf("IntAt on non-integer dtype %q", a.DType))
}

// FloatAt returns element i widened to float64.  The array must hold a float dtype.
func (a *Array) FloatAt(i int) float64 {
	switch a.DType {
	case "f4":
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(a.Data[i*4:])))
	case "f8":
		return math.Float64frombits(binary.LittleEndian.Uint64(a.Data[i*8:]))
	}
	panic(fmt.Sprintf("FloatAt on non-float dtype %q", a.DType))
}

// SetFloatAt stores v at element i.  The array must hold a float dtype.
func (a *Array) SetFloatAt(i int, v float64) {
	switch a.DType {
	case "f4":
		binary.LittleEndian.PutUint32(a.Data[i*4:], math.Float32bits(float32(v)))
	case "f8":
		binary.LittleEndian.PutUint64(a.Data[i*8:], math.Float64bits(v))
	default:
		panic(fmt.Sprintf("SetFloatAt on non-float dtype %q", a.DType))
	}
}

// FromLabelVolume returns the movie's label volume as an int32 array of shape
// (frames, height, width).
func FromLabelVolume(v *tracks.LabelVolume) *Array {
	data := make([]byte, len(v.Data)*4)
	for i, label := range v.Data {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(label))
	}
	return &Array{
		DType: "i4",
		Shape: []int{v.NumFrames, v.Height, v.Width},
		Data:  data,
	}
}

// LabelVolume converts a rank-3 integer array of shape (frames, height, width)
// into a label volume.  Labels outside the int32 range are decode failures.
func (a *Array) LabelVolume() (*tracks.LabelVolume, error) {
	if a.Rank() != 3 {
		return nil, fmt.Errorf("label volume must be rank 3, got shape %v", a.Shape)
	}
	if !a.IsInt() {
		return nil, fmt.Errorf("label volume must hold an integer dtype, got %q", a.DType)
	}
	vol := tracks.NewLabelVolume(a.Shape[0], a.Shape[1], a.Shape[2])
	for i := range vol.Data {
		label := a.IntAt(i)
		if label < math.MinInt32 || label > math.MaxInt32 {
			return nil, fmt.Errorf("label %d out of int32 range", label)
		}
		vol.Data[i] = int32(label)
	}
	return vol, nil
}

// LabelVolumeAt converts one movie of a rank-4 integer batch array of shape
// (movies, frames, height, width) into a label volume.
func (a *Array) LabelVolumeAt(movie int) (*tracks.LabelVolume, error) {
	if a.Rank() != 4 {
		return nil, fmt.Errorf("batch label stack must be rank 4, got shape %v", a.Shape)
	}
	if movie < 0 || movie >= a.Shape[0] {
		return nil, fmt.Errorf("movie %d out of range for batch of %d", movie, a.Shape[0])
	}
	sz := a.Shape[1] * a.Shape[2] * a.Shape[3] * a.ItemSize()
	sub := &Array{
		DType: a.DType,
		Shape: a.Shape[1:],
		Data:  a.Data[movie*sz : (movie+1)*sz],
	}
	return sub.LabelVolume()
}

// Stack joins arrays of identical dtype and shape into one array with a new
// leading dimension, in the given order.
func Stack(arrays []*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("cannot stack zero arrays")
	}
	first := arrays[0]
	for i, a := range arrays[1:] {
		if !sameShape(first.Shape, a.Shape) {
			return nil, fmt.Errorf("cannot stack arrays %d and 0: shape %v != %v",
				i+1, a.Shape, first.Shape)
		}
		if a.DType != first.DType {
			return nil, fmt.Errorf("cannot stack arrays %d and 0: dtype %s != %s",
				i+1, a.DType, first.DType)
		}
	}
	stacked := &Array{
		DType: first.DType,
		Shape: append([]int{len(arrays)}, first.Shape...),
		Data:  make([]byte, 0, len(arrays)*len(first.Data)),
	}
	for _, a := range arrays {
		stacked.Data = append(stacked.Data, a.Data...)
	}
	return stacked, nil
}

// Crop3 copies the sub-array [minY:maxY, minX:maxX, :] of a rank-3 (y, x, c)
// array, as used for per-cell appearance patches.
func (a *Array) Crop3(minY, minX, maxY, maxX int) (*Array, error) {
	if a.Rank() != 3 {
		return nil, fmt.Errorf("Crop3 requires rank 3, got shape %v", a.Shape)
	}
	if minY < 0 || minX < 0 || maxY > a.Shape[0] || maxX > a.Shape[1] || minY >= maxY || minX >= maxX {
		return nil, fmt.Errorf("bad crop [%d:%d, %d:%d] for shape %v", minY, maxY, minX, maxX, a.Shape)
	}
	channels := a.Shape[2]
	itemsz := a.ItemSize()
	rowBytes := (maxX - minX) * channels * itemsz
	crop := &Array{
		DType: a.DType,
		Shape: []int{maxY - minY, maxX - minX, channels},
		Data:  make([]byte, 0, (maxY-minY)*rowBytes),
	}
	for y := minY; y < maxY; y++ {
		offset := (y*a.Shape[1] + minX) * channels * itemsz
		crop.Data = append(crop.Data, a.Data[offset:offset+rowBytes]...)
	}
	return crop, nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
