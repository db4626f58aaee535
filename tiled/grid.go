package tiled

// Flips are the three per-placement flip flags, orthogonal to the tile's
// identity.
type Flips struct {
	Horizontal bool
	Vertical   bool
	Diagonal   bool
}

// Bounds is the occupied bounding box of a tile layer, inclusive on all
// sides. An empty layer has the degenerate bounds (0,0)-(-1,-1).
type Bounds struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// EmptyBounds is the bounds of a layer without any placements.
var EmptyBounds = Bounds{0, 0, -1, -1}

func (b Bounds) Contains(x, y int) bool {
	return x >= b.X1 && x <= b.X2 && y >= b.Y1 && y <= b.Y2
}

func (b Bounds) Width() int  { return b.X2 - b.X1 + 1 }
func (b Bounds) Height() int { return b.Y2 - b.Y1 + 1 }
func (b Bounds) Area() int   { return b.Width() * b.Height() }

// Grid is the read contract shared by the sparse and dense cell storages.
// Queries outside Bounds return the zero values.
type Grid interface {
	TileAt(x, y int) *Tile
	FlipsAt(x, y int) Flips
	Bounds() Bounds
}

// A layer is stored sparsely while its occupied cells cover less than a
// quarter of the bounding-box area.
const denseOccupancy = 0.25

type cell struct {
	tile  *Tile
	flips Flips
}

func packKey(x, y int) uint64 {
	return uint64(uint32(x))<<32 | uint64(uint32(y))
}

// GridBuilder collects cell assignments and their bounding box, then picks
// the storage representation by occupancy.
type GridBuilder struct {
	cells  map[uint64]cell
	bounds Bounds
}

func NewGridBuilder() *GridBuilder {
	return &GridBuilder{
		cells:  make(map[uint64]cell),
		bounds: EmptyBounds,
	}
}

// Set assigns a cell. A nil tile with flips still occupies the cell; this
// happens when a placement references a tile no bound tileset covers.
func (b *GridBuilder) Set(x, y int, tile *Tile, flips Flips) {
	if len(b.cells) == 0 {
		b.bounds = Bounds{x, y, x, y}
	} else {
		b.bounds.X1 = min(b.bounds.X1, x)
		b.bounds.Y1 = min(b.bounds.Y1, y)
		b.bounds.X2 = max(b.bounds.X2, x)
		b.bounds.Y2 = max(b.bounds.Y2, y)
	}
	b.cells[packKey(x, y)] = cell{tile: tile, flips: flips}
}

// Build returns the storage for the collected assignments.
func (b *GridBuilder) Build() Grid {
	if len(b.cells) == 0 {
		return sparseGrid{cells: b.cells, bounds: b.bounds}
	}
	occupancy := float64(len(b.cells)) / float64(b.bounds.Area())
	if occupancy < denseOccupancy {
		return sparseGrid{cells: b.cells, bounds: b.bounds}
	}

	dense := denseGrid{
		cells:  make([]cell, b.bounds.Area()),
		bounds: b.bounds,
	}
	for key, c := range b.cells {
		x := int(int32(key >> 32))
		y := int(int32(key))
		dense.cells[dense.offset(x, y)] = c
	}
	return dense
}

type sparseGrid struct {
	cells  map[uint64]cell
	bounds Bounds
}

func (g sparseGrid) Bounds() Bounds { return g.bounds }

func (g sparseGrid) TileAt(x, y int) *Tile {
	return g.cells[packKey(x, y)].tile
}

func (g sparseGrid) FlipsAt(x, y int) Flips {
	return g.cells[packKey(x, y)].flips
}

type denseGrid struct {
	cells  []cell
	bounds Bounds
}

func (g denseGrid) Bounds() Bounds { return g.bounds }

func (g denseGrid) offset(x, y int) int {
	return (y-g.bounds.Y1)*g.bounds.Width() + (x - g.bounds.X1)
}

func (g denseGrid) TileAt(x, y int) *Tile {
	if !g.bounds.Contains(x, y) {
		return nil
	}
	return g.cells[g.offset(x, y)].tile
}

func (g denseGrid) FlipsAt(x, y int) Flips {
	if !g.bounds.Contains(x, y) {
		return Flips{}
	}
	return g.cells[g.offset(x, y)].flips
}
