package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/eak1mov/go-libtmx/tiled"
	"github.com/eak1mov/go-libtmx/tmx"
	"github.com/google/subcommands"
)

type infoCmd struct {
	inputPath string
}

func (c *infoCmd) Name() string     { return "info" }
func (c *infoCmd) Synopsis() string { return "print a summary of a map document" }
func (c *infoCmd) Usage() string {
	return "tmxutils info -i <path>\n"
}
func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map file path")
}

func (c *infoCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	loader := tmx.NewLocalLoader(tmx.LoaderParams{})
	m, err := loader.ReadMap(c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	fmt.Printf("map: %vx%v tiles of %vx%v px, %v\n",
		m.Width, m.Height, m.TileWidth, m.TileHeight, orientationName(m.Orientation))
	if m.Infinite {
		fmt.Println("infinite: yes")
	}

	fmt.Printf("tilesets: %v\n", len(m.Tilesets))
	for _, binding := range m.Tilesets {
		ts := binding.Tileset
		origin := ts.Source
		if origin == "" {
			origin = "(embedded)"
		}
		fmt.Printf("  firstgid=%-6v %-20q tiles=%-5v %v\n",
			binding.FirstGID, ts.Name, len(ts.Tiles), origin)
	}

	fmt.Printf("layers: %v\n", len(m.Layers))
	printLayers(m.Layers, 1)

	return subcommands.ExitSuccess
}

func printLayers(layers []tiled.Layer, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, layer := range layers {
		info := layer.Info()
		switch l := layer.(type) {
		case *tiled.TileLayer:
			bounds := l.Grid().Bounds()
			fmt.Printf("%vtile layer %q: %v placements in (%v,%v)-(%v,%v)\n",
				indent, info.Name, countPlacements(l), bounds.X1, bounds.Y1, bounds.X2, bounds.Y2)
		case *tiled.ObjectLayer:
			fmt.Printf("%vobject layer %q: %v objects\n", indent, info.Name, len(l.Objects))
		case *tiled.ImageLayer:
			source := ""
			if l.Image != nil {
				source = l.Image.Source
			}
			fmt.Printf("%vimage layer %q: %v\n", indent, info.Name, source)
		case *tiled.GroupLayer:
			fmt.Printf("%vgroup %q: %v layers\n", indent, info.Name, len(l.Layers))
			printLayers(l.Layers, depth+1)
		}
	}
}

func countPlacements(layer *tiled.TileLayer) int {
	count := 0
	bounds := layer.Grid().Bounds()
	for y := bounds.Y1; y <= bounds.Y2; y++ {
		for x := bounds.X1; x <= bounds.X2; x++ {
			if layer.TileAt(x, y) != nil {
				count++
			}
		}
	}
	return count
}

func orientationName(o tiled.Orientation) string {
	for name, value := range tiled.OrientationNames {
		if value == o {
			return name
		}
	}
	return "unknown"
}
