// Package spec implements the wire-level pieces of the TMX format family:
// attribute schemas with typed value parsing, the tile-data codec and the
// raw cell layout shared by map layers and tile objects.
package spec

import "github.com/eak1mov/go-libtmx/tiled"

// Flip flag bits embedded in the high bits of a raw cell value.
const (
	FlippedHorizontally uint32 = 0x80000000
	FlippedVertically   uint32 = 0x40000000
	FlippedDiagonally   uint32 = 0x20000000

	flipMask = FlippedHorizontally | FlippedVertically | FlippedDiagonally
)

// Cell is a raw 32-bit cell value decoded from tile data. The low 29 bits
// are a global tile id, the top 3 bits are flip flags. Zero means "no
// tile".
type Cell uint32

// GID returns the global tile id with the flip flags stripped.
func (c Cell) GID() uint32 {
	return uint32(c) &^ flipMask
}

// Flips extracts the three flip flags.
func (c Cell) Flips() tiled.Flips {
	return tiled.Flips{
		Horizontal: uint32(c)&FlippedHorizontally != 0,
		Vertical:   uint32(c)&FlippedVertically != 0,
		Diagonal:   uint32(c)&FlippedDiagonally != 0,
	}
}
