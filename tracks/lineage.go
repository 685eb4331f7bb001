/*
	This file supports lineage graphs: per-cell records of identity continuity
	and divisions across one movie.
*/

package tracks

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// CellTrack describes one cell across its lifetime within a movie.
type CellTrack struct {
	// Label is the cell id and equals the cell's key in its Lineage.
	Label int32 `json:"label"`

	// Parent is the id of the cell this one divided from, or nil if the cell
	// exists from the movie's start or arose with no tracked parent.
	Parent *int32 `json:"parent"`

	// Daughters lists the cells this one divided into.  Empty means no division.
	Daughters []int32 `json:"daughters"`

	// Frames lists the frame indices in which this cell's id appears in the
	// label volume, in ascending order.
	Frames []int `json:"frames"`
}

// Clone returns a deep copy of the track.
func (t *CellTrack) Clone() *CellTrack {
	c := &CellTrack{Label: t.Label}
	if t.Parent != nil {
		parent := *t.Parent
		c.Parent = &parent
	}
	c.Daughters = append([]int32{}, t.Daughters...)
	c.Frames = append([]int{}, t.Frames...)
	return c
}

// FirstFrame returns the first frame of the track and whether any frame exists.
func (t *CellTrack) FirstFrame() (int, bool) {
	if len(t.Frames) == 0 {
		return 0, false
	}
	return t.Frames[0], true
}

// LastFrame returns the last frame of the track and whether any frame exists.
func (t *CellTrack) LastFrame() (int, bool) {
	if len(t.Frames) == 0 {
		return 0, false
	}
	return t.Frames[len(t.Frames)-1], true
}

// Lineage maps cell ids to their tracks for one movie.  The in-memory model is
// always keyed by integer id; stringified keys exist only in the JSON form.
type Lineage map[int32]*CellTrack

// CellIDs returns the sorted cell ids of the lineage.
func (l Lineage) CellIDs() []int32 {
	ids := make([]int32, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NumDivisions returns the number of tracks with at least one daughter.
func (l Lineage) NumDivisions() int {
	n := 0
	for _, track := range l {
		if len(track.Daughters) > 0 {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the lineage.
func (l Lineage) Clone() Lineage {
	c := make(Lineage, len(l))
	for id, track := range l {
		c[id] = track.Clone()
	}
	return c
}

// MarshalJSON implements json.Marshaler.  JSON only allows strings as keys, so
// integer cell ids are written as their decimal representation.
func (l Lineage) MarshalJSON() ([]byte, error) {
	rekeyed := make(map[string]*CellTrack, len(l))
	for id, track := range l {
		if track.Daughters == nil {
			track = track.Clone()
			track.Daughters = []int32{}
		}
		if track.Frames == nil {
			track = track.Clone()
			track.Frames = []int{}
		}
		rekeyed[strconv.FormatInt(int64(id), 10)] = track
	}
	return json.Marshal(rekeyed)
}

// UnmarshalJSON implements json.Unmarshaler, converting the stringified cell id
// keys back to integers.  A malformed or out-of-range key is a hard failure.
func (l *Lineage) UnmarshalJSON(b []byte) error {
	var rekeyed map[string]*CellTrack
	if err := json.Unmarshal(b, &rekeyed); err != nil {
		return err
	}
	lineage := make(Lineage, len(rekeyed))
	for key, track := range rekeyed {
		id, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return fmt.Errorf("bad cell id key %q in lineage: %v", key, err)
		}
		if track == nil {
			return fmt.Errorf("cell %s has no track data in lineage", key)
		}
		if track.Daughters == nil {
			track.Daughters = []int32{}
		}
		if track.Frames == nil {
			track.Frames = []int{}
		}
		lineage[int32(id)] = track
	}
	*l = lineage
	return nil
}
