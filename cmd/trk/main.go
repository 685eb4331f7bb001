// Command-line interface to cell-tracking dataset containers.
// Provides inspection, validation, relabeling, and batch bundling of
// .trk/.trks files.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/tracks/npy"
	"github.com/janelia-flyem/tracks/tracks"
	"github.com/janelia-flyem/tracks/trk"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Path to TOML configuration file.
	configFile = flag.String("config", "", "")
)

const helpMessage = `
trk is a command-line interface to cell-tracking dataset containers

Usage: trk [options] <command>

      -config     =string   Path to TOML configuration file (logging setup).
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	about
	stats    <file.trk | file.trks>
	validate <file.trk | file.trks>
	relabel  <in.trk> <out.trk>
	bundle   <directory> <out.trks>
`

type tomlConfig struct {
	Logging tracks.LogConfig
}

func loadConfig(path string) (*tomlConfig, error) {
	var config tomlConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("cannot read config file %q: %v", path, err)
	}
	return &config, nil
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = func() {
		fmt.Print(helpMessage)
	}
	flag.Parse()

	if *runVerbose {
		tracks.Verbose = true
		tracks.SetLogMode(tracks.DebugMode)
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}
	if *configFile != "" {
		config, err := loadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		config.Logging.SetLogger()
	}

	args := flag.Args()
	var err error
	switch args[0] {
	case "about":
		fmt.Printf("trk tool version %s\n", tracks.VersionSemVer())
	case "stats":
		err = doStats(args[1:])
	case "validate":
		err = doValidate(args[1:])
	case "relabel":
		err = doRelabel(args[1:])
	case "bundle":
		err = doBundle(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %q\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func doStats(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: trk stats <file.trk | file.trks>")
	}
	stats, err := trk.FileStats(args[0])
	if err != nil {
		return err
	}
	fmt.Println(stats.Render())
	return nil
}

func doValidate(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: trk validate <file.trk | file.trks>")
	}
	loaded, err := trk.Load(args[0])
	if err != nil {
		return err
	}
	bad := 0
	for movie, lineage := range loaded.Lineages {
		vol, err := loaded.TrackedVolume(movie)
		if err != nil {
			return err
		}
		result := tracks.Validate(vol, lineage)
		if result.Valid {
			fmt.Printf("movie %d: valid (%d tracks, %d divisions)\n",
				movie, len(lineage), lineage.NumDivisions())
			continue
		}
		bad++
		for _, violation := range result.Violations {
			fmt.Printf("movie %d: INVALID: %s\n", movie, violation)
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d movies have invalid lineages", bad, loaded.NumMovies())
	}
	return nil
}

func doRelabel(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: trk relabel <in.trk> <out.trk>")
	}
	loaded, err := trk.Load(args[0])
	if err != nil {
		return err
	}
	if loaded.NumMovies() != 1 {
		return fmt.Errorf("relabel expects a single-movie container, got %d movies", loaded.NumMovies())
	}
	vol, err := loaded.TrackedVolume(0)
	if err != nil {
		return err
	}
	newVol, newLineage, err := tracks.Relabel(vol, loaded.Lineages[0])
	if err != nil {
		return err
	}
	return trk.SaveTrk(args[1], []tracks.Lineage{newLineage}, loaded.Raw, npy.FromLabelVolume(newVol))
}

func doBundle(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: trk bundle <directory> <out.trks>")
	}
	return trk.FolderToTrks(args[0], args[1])
}
