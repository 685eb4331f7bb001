package trk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/tracks/tracks"
)

func TestFolderToTrks(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "movies")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}

	// Raw fill values identify each movie so batch order is observable.
	fills := map[string]float64{
		"movie1.trk":  1,
		"movie2.trk":  2,
		"movie10.trk": 10,
	}
	for name, fill := range fills {
		lineage, raw, tracked := testMovie(fill)
		if err := SaveTrk(filepath.Join(dir, name), []tracks.Lineage{lineage}, raw, tracked); err != nil {
			t.Fatalf("save %s failed: %v", name, err)
		}
	}

	if err := FolderToTrks(dir, "all.trks"); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	loaded, err := Load(filepath.Join(parent, "all.trks"))
	if err != nil {
		t.Fatalf("load of batch failed: %v", err)
	}
	if loaded.NumMovies() != 3 {
		t.Fatalf("expected 3 movies, got %d", loaded.NumMovies())
	}
	if loaded.Raw.Rank() != 5 || loaded.Raw.Shape[0] != 3 {
		t.Fatalf("expected batched raw stack, got shape %v", loaded.Raw.Shape)
	}

	// Natural order is movie1, movie2, movie10 even though lexical order
	// would put movie10 second.
	movieSize := loaded.Raw.NumElements() / 3
	for i, want := range []float64{1, 2, 10} {
		if got := loaded.Raw.FloatAt(i * movieSize); got != want {
			t.Errorf("movie %d raw fill = %v, want %v", i, got, want)
		}
	}
}

func TestFolderToTrksPropagatesBadFile(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "movies")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	lineage, raw, tracked := testMovie(0)
	if err := SaveTrk(filepath.Join(dir, "good1.trk"), []tracks.Lineage{lineage}, raw, tracked); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.trk"), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := FolderToTrks(dir, "all.trks"); err == nil {
		t.Errorf("expected malformed file to abort the import")
	}
}
