/*
	This file supports the track container format: a gzipped tar archive
	holding a raw image stack, a tracked (label) image stack, and one lineage
	graph (.trk, single movie) or a list of lineage graphs (.trks, batch).
*/

package trk

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/janelia-flyem/tracks/npy"
	"github.com/janelia-flyem/tracks/tracks"
)

// Archive entry names and container extensions.
const (
	RawEntry      = "raw.npy"
	TrackedEntry  = "tracked.npy"
	LineageEntry  = "lineage.json"  // single-movie containers only
	LineagesEntry = "lineages.json" // batch containers only

	TrkExt  = ".trk"
	TrksExt = ".trks"
)

var (
	// ErrExtension means a container was saved to a path whose extension does
	// not match the requested container form.
	ErrExtension = errors.New("wrong extension for track container")

	// ErrMultipleLineages means more than one lineage was passed to the
	// single-movie save path.
	ErrMultipleLineages = errors.New("trk containers hold a single lineage")

	// ErrNoLineage means a loaded archive has neither lineage entry.
	ErrNoLineage = errors.New("invalid track container: no lineage data found")
)

// File is one loaded track container.  Lineages always holds one lineage per
// movie regardless of container form; index i of a batch raw/tracked stack
// corresponds to Lineages[i].
type File struct {
	Lineages []tracks.Lineage
	Raw      *npy.Array
	Tracked  *npy.Array
}

// NumMovies returns the number of movies in the container.
func (f *File) NumMovies() int {
	return len(f.Lineages)
}

// TrackedVolume returns movie i of the tracked stack as a label volume,
// accepting rank-3 (single movie) and rank-4 (batch) stacks.
func (f *File) TrackedVolume(movie int) (*tracks.LabelVolume, error) {
	switch f.Tracked.Rank() {
	case 3:
		if movie != 0 {
			return nil, fmt.Errorf("movie %d out of range for single-movie container", movie)
		}
		return f.Tracked.LabelVolume()
	case 4:
		return f.Tracked.LabelVolumeAt(movie)
	default:
		return nil, fmt.Errorf("tracked stack must be rank 3 or 4, got shape %v", f.Tracked.Shape)
	}
}

// Load reads a .trk or .trks file.
func Load(filename string) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	loaded, err := LoadReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return loaded, nil
}

// LoadReader reads a track container from any stream, e.g. an in-memory buffer.
func LoadReader(r io.Reader) (*File, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("bad track container: %w", err)
	}
	defer gz.Close()

	entries := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bad track container: %w", err)
		}
		switch hdr.Name {
		case RawEntry, TrackedEntry, LineageEntry, LineagesEntry:
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("bad %s entry: %w", hdr.Name, err)
			}
			entries[hdr.Name] = data
		}
	}

	// Single-movie entry name takes precedence, then the batch name.
	var lineages []tracks.Lineage
	if data, found := entries[LineageEntry]; found {
		if err := validateLineageJSON(data, false); err != nil {
			return nil, fmt.Errorf("bad %s entry: %w", LineageEntry, err)
		}
		var lineage tracks.Lineage
		if err := json.Unmarshal(data, &lineage); err != nil {
			return nil, fmt.Errorf("bad %s entry: %w", LineageEntry, err)
		}
		lineages = []tracks.Lineage{lineage}
	} else if data, found := entries[LineagesEntry]; found {
		if err := validateLineageJSON(data, true); err != nil {
			return nil, fmt.Errorf("bad %s entry: %w", LineagesEntry, err)
		}
		if err := json.Unmarshal(data, &lineages); err != nil {
			return nil, fmt.Errorf("bad %s entry: %w", LineagesEntry, err)
		}
	} else {
		return nil, ErrNoLineage
	}

	rawData, found := entries[RawEntry]
	if !found {
		return nil, fmt.Errorf("track container has no %s entry", RawEntry)
	}
	raw, err := npy.Decode(bytes.NewReader(rawData))
	if err != nil {
		return nil, fmt.Errorf("bad %s entry: %w", RawEntry, err)
	}

	trackedData, found := entries[TrackedEntry]
	if !found {
		return nil, fmt.Errorf("track container has no %s entry", TrackedEntry)
	}
	tracked, err := npy.Decode(bytes.NewReader(trackedData))
	if err != nil {
		return nil, fmt.Errorf("bad %s entry: %w", TrackedEntry, err)
	}

	return &File{Lineages: lineages, Raw: raw, Tracked: tracked}, nil
}

// SaveTrk writes a single movie to a .trk file.  The lineage slice must hold
// exactly one lineage; longer slices are a usage error.
func SaveTrk(filename string, lineages []tracks.Lineage, raw, tracked *npy.Array) error {
	if ext := filepath.Ext(filename); ext != TrkExt {
		return fmt.Errorf("%w: filename must end with %s, found %q", ErrExtension, TrkExt, filename)
	}
	lineage, err := singleLineage(lineages)
	if err != nil {
		return err
	}
	return saveToFile(filename, LineageEntry, lineage, raw, tracked)
}

// SaveTrkWriter writes a single movie to any stream, bypassing extension checks.
func SaveTrkWriter(w io.Writer, lineages []tracks.Lineage, raw, tracked *npy.Array) error {
	lineage, err := singleLineage(lineages)
	if err != nil {
		return err
	}
	return saveToWriter(w, LineageEntry, lineage, raw, tracked)
}

// SaveTrks writes a batch of movies to a .trks file.  The raw and tracked
// stacks carry a leading batch dimension corresponding to the lineage order.
func SaveTrks(filename string, lineages []tracks.Lineage, raw, tracked *npy.Array) error {
	if ext := filepath.Ext(filename); ext != TrksExt {
		return fmt.Errorf("%w: filename must end with %s, found %q", ErrExtension, TrksExt, filename)
	}
	return saveToFile(filename, LineagesEntry, lineages, raw, tracked)
}

// SaveTrksWriter writes a batch of movies to any stream, bypassing extension checks.
func SaveTrksWriter(w io.Writer, lineages []tracks.Lineage, raw, tracked *npy.Array) error {
	return saveToWriter(w, LineagesEntry, lineages, raw, tracked)
}

// singleLineage normalizes the one-or-none lineage slice of the single-movie
// save path to a single lineage.
func singleLineage(lineages []tracks.Lineage) (tracks.Lineage, error) {
	switch len(lineages) {
	case 1:
		return lineages[0], nil
	case 0:
		return nil, fmt.Errorf("no lineage given for trk container")
	default:
		return nil, fmt.Errorf("%w: got %d", ErrMultipleLineages, len(lineages))
	}
}

func saveToFile(filename, lineageName string, lineagePayload interface{}, raw, tracked *npy.Array) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := saveTrackData(f, lineageName, lineagePayload, raw, tracked, true); err != nil {
		f.Close()
		os.Remove(filename)
		return err
	}
	return f.Close()
}

func saveToWriter(w io.Writer, lineageName string, lineagePayload interface{}, raw, tracked *npy.Array) error {
	return saveTrackData(w, lineageName, lineagePayload, raw, tracked, false)
}

// saveTrackData writes the three-entry archive.  With useTemp set, binary
// entries are staged through temp files that are removed on every path.
func saveTrackData(w io.Writer, lineageName string, lineagePayload interface{}, raw, tracked *npy.Array, useTemp bool) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	lineageJSON, err := json.MarshalIndent(lineagePayload, "", "    ")
	if err != nil {
		return fmt.Errorf("cannot marshal lineage data: %v", err)
	}
	if err := addEntry(tw, lineageName, lineageJSON); err != nil {
		return err
	}

	if useTemp {
		if err := addArrayViaTemp(tw, RawEntry, raw); err != nil {
			return err
		}
		if err := addArrayViaTemp(tw, TrackedEntry, tracked); err != nil {
			return err
		}
	} else {
		if err := addArray(tw, RawEntry, raw); err != nil {
			return err
		}
		if err := addArray(tw, TrackedEntry, tracked); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func addEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

func addArray(tw *tar.Writer, name string, a *npy.Array) error {
	var buf bytes.Buffer
	if err := npy.Encode(&buf, a); err != nil {
		return fmt.Errorf("cannot encode %s: %v", name, err)
	}
	return addEntry(tw, name, buf.Bytes())
}

// addArrayViaTemp stages the encoded array in a temp file so large stacks
// aren't buffered in memory.  The temp file is removed before returning,
// including on error paths.
func addArrayViaTemp(tw *tar.Writer, name string, a *npy.Array) (err error) {
	tmp, err := os.CreateTemp("", "tracks-*.npy")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		if rmErr := os.Remove(tmp.Name()); rmErr != nil && err == nil {
			err = rmErr
		}
	}()

	if err = npy.Encode(tmp, a); err != nil {
		return fmt.Errorf("cannot encode %s: %v", name, err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return err
	}
	hdr := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    info.Size(),
		ModTime: time.Now(),
	}
	if err = tw.WriteHeader(hdr); err != nil {
		return err
	}
	if _, err = tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err = io.Copy(tw, tmp)
	return err
}
