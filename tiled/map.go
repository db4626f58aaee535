// Package tiled provides the in-memory document model for maps, tilesets
// and object templates produced by the Tiled map editor.
//
// Values in this package are constructed by the tmx package and are
// immutable after loading; tilesets and templates are shared by reference
// between every map that uses them.
package tiled

// Orientation determines how map coordinates project onto the screen.
type Orientation uint8

const (
	OrientationOrthogonal Orientation = iota
	OrientationIsometric
	OrientationStaggered
	OrientationHexagonal
)

// OrientationNames maps the wire-format attribute values to orientations.
var OrientationNames = map[string]Orientation{
	"orthogonal": OrientationOrthogonal,
	"isometric":  OrientationIsometric,
	"staggered":  OrientationStaggered,
	"hexagonal":  OrientationHexagonal,
}

// RenderOrder is the order in which tiles of a layer are drawn.
type RenderOrder uint8

const (
	RenderRightDown RenderOrder = iota
	RenderRightUp
	RenderLeftDown
	RenderLeftUp
)

var RenderOrderNames = map[string]RenderOrder{
	"right-down": RenderRightDown,
	"right-up":   RenderRightUp,
	"left-down":  RenderLeftDown,
	"left-up":    RenderLeftUp,
}

// StaggerAxis applies to staggered and hexagonal maps.
type StaggerAxis uint8

const (
	StaggerX StaggerAxis = iota
	StaggerY
)

var StaggerAxisNames = map[string]StaggerAxis{
	"x": StaggerX,
	"y": StaggerY,
}

// StaggerIndex selects whether even or odd rows/columns are shifted.
type StaggerIndex uint8

const (
	StaggerOdd StaggerIndex = iota
	StaggerEven
)

var StaggerIndexNames = map[string]StaggerIndex{
	"odd":  StaggerOdd,
	"even": StaggerEven,
}

// TilesetBinding attaches a tileset to a map or template together with the
// first global id under which the map addresses the tileset's tiles.
// Multiple bindings may share one tileset.
type TilesetBinding struct {
	FirstGID uint32
	Tileset  *Tileset
}

// Map is the top-level container for a parsed map document.
type Map struct {
	Version     string
	Class       string
	Orientation Orientation
	RenderOrder RenderOrder

	// Size in tiles and tile size in pixels. For infinite maps Width and
	// Height describe the initial viewport only.
	Width      int
	Height     int
	TileWidth  int
	TileHeight int

	Infinite      bool
	HexSideLength int
	StaggerAxis   StaggerAxis
	StaggerIndex  StaggerIndex

	ParallaxOriginX float64
	ParallaxOriginY float64
	BackgroundColor *Color

	NextLayerID  int
	NextObjectID int

	Tilesets   []TilesetBinding
	Layers     []Layer
	Properties Properties
}

// LayerWithName returns the first top-level layer with the given name,
// nil if there is none.
func (m *Map) LayerWithName(name string) Layer {
	for _, layer := range m.Layers {
		if layer.Info().Name == name {
			return layer
		}
	}
	return nil
}

// Template is a parsed object template document. An object referencing the
// template inherits every field its own attributes do not override.
type Template struct {
	Binding *TilesetBinding // nil unless the template object is a tile object
	Object  *Object
}
