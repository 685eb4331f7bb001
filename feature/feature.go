/*
Package feature holds per-cell feature extraction over validated tracking data.
Region measurement and patch resizing are external collaborators expressed as
interfaces; this package only requires that they produce one deterministic
record per object, in whatever order the implementation iterates them.
*/
package feature

import (
	"fmt"

	"github.com/janelia-flyem/tracks/npy"
	"github.com/janelia-flyem/tracks/tracks"
)

// BBox is an object's bounding box in pixel coordinates, half-open on the max
// edges like a slice bound.
type BBox struct {
	MinY, MinX, MaxY, MaxX int
}

// Region is one measured object in a label image.
type Region struct {
	Label        int32
	Centroid     [2]float64
	Area         float64
	Perimeter    float64
	Eccentricity float64
	BBox         BBox
}

// Regioner measures the objects of a single-channel label image.
type Regioner interface {
	Regions(frame *tracks.LabelFrame) []Region
}

// Resizer maps an arbitrary-sized (y, x, c) crop to a dim x dim x c tensor.
type Resizer interface {
	Resize(crop *npy.Array, dim int) (*npy.Array, error)
}

// Features holds the extracted per-object feature arrays, ordered as the
// Regioner iterated the objects.  Labels can be fetched by index to recover
// which object each row describes.
type Features struct {
	Labels    []int32
	Centroids [][2]float64

	// Morphologies rows are (area, perimeter, eccentricity).
	Morphologies [][3]float64

	// Appearances holds one dim x dim x c patch per object, cropped from the
	// raw image at the object's bounding box.
	Appearances []*npy.Array
}

// Extract returns features for every object of the label frame.  The raw image
// must be a rank-3 (y, x, c) array congruent with the frame.
func Extract(raw *npy.Array, frame *tracks.LabelFrame, appearanceDim int, regioner Regioner, resizer Resizer) (*Features, error) {
	if raw.Rank() != 3 {
		return nil, fmt.Errorf("raw image must be rank 3 (y, x, c), got shape %v", raw.Shape)
	}
	if raw.Shape[0] != frame.Height || raw.Shape[1] != frame.Width {
		return nil, fmt.Errorf("raw image shape %v does not match label frame (%d, %d)",
			raw.Shape, frame.Height, frame.Width)
	}

	regions := regioner.Regions(frame)
	features := &Features{
		Labels:       make([]int32, len(regions)),
		Centroids:    make([][2]float64, len(regions)),
		Morphologies: make([][3]float64, len(regions)),
		Appearances:  make([]*npy.Array, len(regions)),
	}
	for i, region := range regions {
		features.Labels[i] = region.Label
		features.Centroids[i] = region.Centroid
		features.Morphologies[i] = [3]float64{region.Area, region.Perimeter, region.Eccentricity}

		crop, err := raw.Crop3(region.BBox.MinY, region.BBox.MinX, region.BBox.MaxY, region.BBox.MaxX)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %v", region.Label, err)
		}
		appearance, err := resizer.Resize(crop, appearanceDim)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %v", region.Label, err)
		}
		features.Appearances[i] = appearance
	}
	return features, nil
}
