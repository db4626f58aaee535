package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/eak1mov/go-libtmx/tmx"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type checkCmd struct {
	verbose bool
}

func (c *checkCmd) Name() string     { return "check" }
func (c *checkCmd) Synopsis() string { return "parse documents and report problems" }
func (c *checkCmd) Usage() string {
	return "tmxutils check [-v] <path>...\n"
}
func (c *checkCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.verbose, "v", false, "Log recoverable anomalies")
}

func (c *checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	paths := f.Args()
	if len(paths) == 0 {
		log.Println("no input files")
		return subcommands.ExitUsageError
	}

	logger := slog.New(slog.DiscardHandler)
	if c.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	loader := tmx.NewLocalLoader(tmx.LoaderParams{Logger: logger})

	bar := progressbar.New(len(paths))
	failures := 0
	for _, path := range paths {
		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".tsx":
			_, err = loader.ReadTileset(path)
		case ".tx":
			_, err = loader.ReadTemplate(path)
		default:
			_, err = loader.ReadMap(path)
		}
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "\n%v: %v\n", path, err)
		}
		bar.Add(1)
	}
	bar.Finish()
	fmt.Println()

	if failures > 0 {
		log.Printf("%v of %v documents failed", failures, len(paths))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
