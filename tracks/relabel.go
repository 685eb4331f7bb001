/*
	This file renumbers label volumes and keeps their lineage graphs
	isomorphic to the new numbering.
*/

package tracks

import "fmt"

// RelabelSequential maps every distinct non-zero label in the volume to a unique
// integer in 1..K, in ascending order of the original labels, and returns the
// renumbered volume plus the forward map from old to new labels.  Background 0
// is preserved and never appears in the forward map.  The input is not mutated.
func RelabelSequential(vol *LabelVolume) (*LabelVolume, map[int32]int32) {
	ids := vol.CellIDs()
	forward := make(map[int32]int32, len(ids))
	for i, id := range ids {
		forward[id] = int32(i + 1)
	}

	relabeled := NewLabelVolume(vol.NumFrames, vol.Height, vol.Width)
	for i, label := range vol.Data {
		if label != 0 {
			relabeled.Data[i] = forward[label]
		}
	}
	return relabeled, forward
}

// Relabel densely renumbers a movie's label volume and rebuilds its lineage
// so image and graph stay consistent.  New tracks are built for every cell id
// present in the image; their frames are recomputed from the renumbered volume
// rather than copied, so stale frame lists are healed.  A daughter reference
// that does not resolve to a cell in the image is dropped with a warning.
// An image cell with no lineage record at all is a caller error.
// Neither input is mutated.
func Relabel(vol *LabelVolume, lineage Lineage) (*LabelVolume, Lineage, error) {
	relabeled, forward := RelabelSequential(vol)

	newLineage := make(Lineage, len(forward))
	for _, id := range vol.CellIDs() {
		newID := forward[id]
		track, found := lineage[id]
		if !found {
			return nil, nil, fmt.Errorf("cell %d in label image has no lineage record", id)
		}

		newTrack := &CellTrack{
			Label:     newID,
			Daughters: []int32{},
			Frames:    relabeled.CellFrames(newID),
		}

		if track.Parent != nil && *track.Parent != 0 {
			if newParent, found := forward[*track.Parent]; found {
				newTrack.Parent = &newParent
			} else {
				Warningf("Cell %d has parent %d which is not found in the label image\n",
					id, *track.Parent)
			}
		}

		for _, daughter := range track.Daughters {
			newDaughter, found := forward[daughter]
			if !found {
				// Missing labels would map to background, so drop the
				// reference rather than propagate it.
				Warningf("Cell %d has daughter %d which is not found in the label image\n",
					id, daughter)
				continue
			}
			newTrack.Daughters = append(newTrack.Daughters, newDaughter)
		}

		newLineage[newID] = newTrack
	}

	return relabeled, newLineage, nil
}

// RelabelFrames renumbers every frame of the volume so that cell ids are unique
// across all frames of the movie, assigning ids sequentially starting at nextID.
// If nextID < 1, numbering starts just past the total count of per-frame cells
// so new ids cannot collide with surviving ones.  Returns the renumbered volume
// and the next unassigned id, which callers thread into subsequent calls.
// The input is not mutated.
func RelabelFrames(vol *LabelVolume, nextID int32) (*LabelVolume, int32) {
	uniques := make([][]int32, vol.NumFrames)
	total := 0
	for f := 0; f < vol.NumFrames; f++ {
		uniques[f] = vol.Frame(f).CellIDs()
		total += len(uniques[f])
	}
	if nextID < 1 {
		nextID = int32(total) + 1
	}

	relabeled := NewLabelVolume(vol.NumFrames, vol.Height, vol.Width)
	for f := 0; f < vol.NumFrames; f++ {
		old := vol.FrameData(f)
		fresh := relabeled.FrameData(f)
		for _, cell := range uniques[f] {
			for i, label := range old {
				if label == cell {
					fresh[i] = nextID
				}
			}
			nextID++
		}
	}
	return relabeled, nextID
}
