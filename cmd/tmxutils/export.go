package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/eak1mov/go-libtmx/mapdb"
	"github.com/eak1mov/go-libtmx/tmx"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type exportCmd struct {
	inputPath  string
	outputPath string
}

func (c *exportCmd) Name() string     { return "export_sqlite" }
func (c *exportCmd) Synopsis() string { return "export map placements and objects to a SQLite file" }
func (c *exportCmd) Usage() string {
	return "tmxutils export_sqlite -i <path> -o <path>\n"
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map file path")
	f.StringVar(&c.outputPath, "o", "", "Output database file path")
}

func (c *exportCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	loader := tmx.NewLocalLoader(tmx.LoaderParams{})
	m, err := loader.ReadMap(c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	writer, err := mapdb.NewWriter(c.outputPath, mapdb.WithMetadata(map[string]string{
		"source": c.inputPath,
		"width":  strconv.Itoa(m.Width),
		"height": strconv.Itoa(m.Height),
	}))
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer writer.Close()

	bar := progressbar.New(len(m.Layers))
	for _, layer := range m.Layers {
		if err := writer.WriteLayer(layer); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		bar.Add(1)
	}
	bar.Finish()
	fmt.Println()

	if err := writer.Finalize(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
