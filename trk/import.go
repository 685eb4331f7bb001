/*
	This file assembles a directory of single-movie .trk files into one batch
	.trks file.
*/

package trk

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/janelia-flyem/tracks/npy"
	"github.com/janelia-flyem/tracks/tracks"
)

// FolderToTrks compiles a directory of trk files into one trks file written
// next to the directory.  Files are processed in natural alphanumeric order
// (digit runs compared numerically) so the batch order is deterministic; each
// file contributes its first lineage and its raw/tracked stacks, which must
// share one shape and dtype across the folder.  Any file that fails to load
// as a track container aborts the import.
func FolderToTrks(dirname, trksFilename string) error {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	tracks.SortNatural(names)

	timedLog := tracks.NewTimeLog()

	var lineages []tracks.Lineage
	var raws, trackeds []*npy.Array
	for _, name := range names {
		loaded, err := Load(filepath.Join(dirname, name))
		if err != nil {
			return err
		}
		// Each file is expected to hold a single movie, so we take the
		// first lineage.
		lineages = append(lineages, loaded.Lineages[0])
		raws = append(raws, loaded.Raw)
		trackeds = append(trackeds, loaded.Tracked)
	}

	raw, err := npy.Stack(raws)
	if err != nil {
		return fmt.Errorf("cannot batch raw stacks from %s: %v", dirname, err)
	}
	tracked, err := npy.Stack(trackeds)
	if err != nil {
		return fmt.Errorf("cannot batch tracked stacks from %s: %v", dirname, err)
	}

	outPath := filepath.Join(filepath.Dir(filepath.Clean(dirname)), trksFilename)
	if err := SaveTrks(outPath, lineages, raw, tracked); err != nil {
		return err
	}
	timedLog.Infof("Compiled %d trk files from %s into %s", len(names), dirname, outPath)
	return nil
}
