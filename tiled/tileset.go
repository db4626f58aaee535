package tiled

import "time"

// ObjectAlignment controls how tile objects align to their position.
type ObjectAlignment uint8

const (
	AlignUnspecified ObjectAlignment = iota
	AlignTopLeft
	AlignTop
	AlignTopRight
	AlignLeft
	AlignCenter
	AlignRight
	AlignBottomLeft
	AlignBottom
	AlignBottomRight
)

var ObjectAlignmentNames = map[string]ObjectAlignment{
	"unspecified": AlignUnspecified,
	"topleft":     AlignTopLeft,
	"top":         AlignTop,
	"topright":    AlignTopRight,
	"left":        AlignLeft,
	"center":      AlignCenter,
	"right":       AlignRight,
	"bottomleft":  AlignBottomLeft,
	"bottom":      AlignBottom,
	"bottomright": AlignBottomRight,
}

// TileRenderSize selects the size tiles are rendered at.
type TileRenderSize uint8

const (
	RenderSizeTile TileRenderSize = iota
	RenderSizeGrid
)

var TileRenderSizeNames = map[string]TileRenderSize{
	"tile": RenderSizeTile,
	"grid": RenderSizeGrid,
}

// FillMode selects how scaled tiles fill their target rectangle.
type FillMode uint8

const (
	FillStretch FillMode = iota
	FillPreserveAspect
)

var FillModeNames = map[string]FillMode{
	"stretch":             FillStretch,
	"preserve-aspect-fit": FillPreserveAspect,
}

// GridOrientation is the orientation of the tile grid inside a tileset,
// independent of the map orientation.
type GridOrientation uint8

const (
	GridOrthogonal GridOrientation = iota
	GridIsometric
)

var GridOrientationNames = map[string]GridOrientation{
	"orthogonal": GridOrthogonal,
	"isometric":  GridIsometric,
}

// GridSettings overrides the grid used for tile alignment in a tileset.
type GridSettings struct {
	Orientation GridOrientation
	Width       int
	Height      int
}

// TileOffset is a drawing offset in pixels applied to every tile of a
// tileset.
type TileOffset struct {
	X int
	Y int
}

// Transformations describes which tile transformations a terrain tool may
// apply to tiles of the tileset.
type Transformations struct {
	FlipHorizontally    bool
	FlipVertically      bool
	Rotate              bool
	PreferUntransformed bool
}

// Image is a reference to an external raster image. The formats this
// library targets never embed pixel data.
type Image struct {
	Source           string
	Format           string
	TransparentColor *Color
	Width            int
	Height           int
}

// Tileset is a parsed tileset, either embedded in a map document or loaded
// from an external file. External tilesets are cached and shared between
// every document that references them.
type Tileset struct {
	// Source is the canonical path of the tileset file, empty for tilesets
	// embedded in a map document.
	Source string

	Name       string
	Class      string
	TileWidth  int
	TileHeight int
	Spacing    int
	Margin     int
	TileCount  int
	Columns    int

	ObjectAlignment ObjectAlignment
	TileRenderSize  TileRenderSize
	FillMode        FillMode

	TileOffset      TileOffset
	Grid            *GridSettings
	Transformations *Transformations

	// Image is the atlas image, nil for image-collection tilesets where
	// every tile carries its own image.
	Image *Image

	Tiles      []*Tile
	WangSets   []*WangSet
	Properties Properties

	tilesByID map[uint32]*Tile
}

// Tile returns the tile with the given local id, nil if the tileset has no
// such tile.
func (t *Tileset) Tile(id uint32) *Tile {
	return t.tilesByID[id]
}

// AddTile appends a tile to the tileset and indexes it by local id.
// The loader calls this while constructing the tileset; the result is
// treated as immutable afterwards.
func (t *Tileset) AddTile(tile *Tile) {
	if t.tilesByID == nil {
		t.tilesByID = make(map[uint32]*Tile)
	}
	t.Tiles = append(t.Tiles, tile)
	t.tilesByID[tile.ID] = tile
}

// Frame is a single frame of a tile animation.
type Frame struct {
	TileID   uint32
	Duration time.Duration
}

// Tile is an individual tile of a tileset, identified by its local id.
type Tile struct {
	ID          uint32
	Class       string
	Probability float64

	// Sub-rectangle of the tileset image occupied by this tile; unset for
	// atlas tilesets laid out by column count.
	X      int
	Y      int
	Width  int
	Height int

	// Image is set for tiles of image-collection tilesets.
	Image *Image

	Animation  []Frame
	Collision  *ObjectLayer
	Properties Properties
}
