/*
	This file checks a lineage graph against its label-image evidence.  Data
	problems never raise; they are reported as structured violations so callers
	can decide whether invalidity is fatal and tests can assert on which rule
	fired.
*/

package tracks

import "fmt"

// Rule identifies a lineage consistency rule checked by Validate.
type Rule uint8

const (
	// RuleCellInImage: every lineage record's cell id must occur as a pixel
	// value somewhere in the label volume.
	RuleCellInImage Rule = iota

	// RuleFrameMatch: a record's frames must exactly equal the frames in which
	// its id occurs in the label volume.
	RuleFrameMatch

	// RuleDaughterExists: every daughter id must be present both in the label
	// volume and in the lineage.
	RuleDaughterExists

	// RuleDaughterFrames: a daughter must appear in at least one frame.
	RuleDaughterFrames

	// RuleDivisionAdjacent: a daughter's first frame must immediately follow
	// the parent's last frame.
	RuleDivisionAdjacent

	// RuleParentExists: a declared parent must be present in the lineage.
	RuleParentExists

	// RuleParentFrames: a declared parent must appear in at least one frame.
	RuleParentFrames

	// RuleNoOrphans: every non-zero pixel id in the label volume must have a
	// lineage record.
	RuleNoOrphans
)

func (r Rule) String() string {
	switch r {
	case RuleCellInImage:
		return "cell must be present in label image"
	case RuleFrameMatch:
		return "recorded frames must match label image"
	case RuleDaughterExists:
		return "daughter must be present in image and lineage"
	case RuleDaughterFrames:
		return "daughter must have frames"
	case RuleDivisionAdjacent:
		return "daughter must first appear in frame after parent's last"
	case RuleParentExists:
		return "parent must be present in lineage"
	case RuleParentFrames:
		return "parent and cell must have frames"
	case RuleNoOrphans:
		return "every labeled cell must have a lineage record"
	default:
		return "unknown rule"
	}
}

// Violation records one lineage consistency failure.
type Violation struct {
	Rule Rule

	// Cell is the offending cell id.
	Cell int32

	// Related is the other cell involved (parent or daughter), or 0.
	Related int32

	// Detail holds observed vs expected values in readable form.
	Detail string
}

func (v Violation) String() string {
	if v.Related != 0 {
		return fmt.Sprintf("cell %d (re cell %d): %s: %s", v.Cell, v.Related, v.Rule, v.Detail)
	}
	return fmt.Sprintf("cell %d: %s: %s", v.Cell, v.Rule, v.Detail)
}

// Result is the outcome of validating a lineage against a label volume.
type Result struct {
	Valid      bool
	Violations []Violation
}

func invalid(v Violation) Result {
	return Result{Valid: false, Violations: []Violation{v}}
}

// Validate checks the lineage graph of a single movie against its label volume.
// Validation short-circuits on the first violation found.  Records are checked
// in ascending cell id order so results are deterministic.
func Validate(vol *LabelVolume, lineage Lineage) Result {
	imageIDs := vol.CellIDSet()

	// Tracks which labeled cells have been accounted for by a record.
	remaining := make(map[int32]struct{}, len(imageIDs))
	for id := range imageIDs {
		remaining[id] = struct{}{}
	}

	for _, id := range lineage.CellIDs() {
		track := lineage[id]

		if _, found := imageIDs[id]; !found {
			return invalid(Violation{
				Rule: RuleCellInImage, Cell: id,
				Detail: "cell not found in the label image",
			})
		}
		delete(remaining, id)

		frames := vol.CellFrames(id)
		if !equalFrames(frames, track.Frames) {
			return invalid(Violation{
				Rule: RuleFrameMatch, Cell: id,
				Detail: fmt.Sprintf("recorded frames %v but label image has %v", track.Frames, frames),
			})
		}

		// The id occurs in the image, so after the frame check the recorded
		// frame list cannot be empty.
		lastFrame, _ := track.LastFrame()

		for _, daughter := range track.Daughters {
			_, inImage := imageIDs[daughter]
			daughterTrack, inLineage := lineage[daughter]
			if !inImage || !inLineage {
				return invalid(Violation{
					Rule: RuleDaughterExists, Cell: id, Related: daughter,
					Detail: fmt.Sprintf("invalid daughters %v", track.Daughters),
				})
			}
			firstDaughterFrame, ok := daughterTrack.FirstFrame()
			if !ok {
				return invalid(Violation{
					Rule: RuleDaughterFrames, Cell: id, Related: daughter,
					Detail: "daughter has no frames",
				})
			}
			if firstDaughterFrame-lastFrame != 1 {
				return invalid(Violation{
					Rule: RuleDivisionAdjacent, Cell: id, Related: daughter,
					Detail: fmt.Sprintf("cell ends in frame %d but daughter first appears in frame %d",
						lastFrame, firstDaughterFrame),
				})
			}
		}

		if track.Parent != nil && *track.Parent != 0 {
			parent := *track.Parent
			parentTrack, found := lineage[parent]
			if !found {
				return invalid(Violation{
					Rule: RuleParentExists, Cell: id, Related: parent,
					Detail: "parent is not present in the lineage",
				})
			}
			lastParentFrame, ok := parentTrack.LastFrame()
			if !ok {
				return invalid(Violation{
					Rule: RuleParentFrames, Cell: id, Related: parent,
					Detail: "parent has no frames",
				})
			}
			firstFrame, ok := track.FirstFrame()
			if !ok {
				return invalid(Violation{
					Rule: RuleParentFrames, Cell: id, Related: parent,
					Detail: "cell has no frames",
				})
			}
			if firstFrame-lastParentFrame != 1 {
				return invalid(Violation{
					Rule: RuleDivisionAdjacent, Cell: id, Related: parent,
					Detail: fmt.Sprintf("parent ends in frame %d but cell first appears in frame %d",
						lastParentFrame, firstFrame),
				})
			}
		}
	}

	if len(remaining) > 0 {
		orphans := make([]int32, 0, len(remaining))
		for id := range remaining {
			orphans = append(orphans, id)
		}
		sortInt32s(orphans)
		return invalid(Violation{
			Rule: RuleNoOrphans, Cell: orphans[0],
			Detail: fmt.Sprintf("cells missing their lineage: %v", orphans),
		})
	}

	return Result{Valid: true}
}

// IsValid reports whether the lineage of a single movie is consistent with its
// label volume, logging each violation as a warning.
func IsValid(vol *LabelVolume, lineage Lineage) bool {
	result := Validate(vol, lineage)
	for _, violation := range result.Violations {
		Warningf("invalid lineage: %s\n", violation)
	}
	return result.Valid
}

func equalFrames(a, b []int) bool {
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
