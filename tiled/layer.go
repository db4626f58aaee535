package tiled

// Layer is implemented by the four concrete layer kinds: TileLayer,
// ObjectLayer, ImageLayer and GroupLayer.
type Layer interface {
	// Info returns the fields shared by every layer kind.
	Info() *LayerInfo
}

// LayerInfo holds the fields common to all layer kinds.
type LayerInfo struct {
	ID      int
	Name    string
	Class   string
	Opacity float64
	Visible bool
	Locked  bool

	OffsetX   float64
	OffsetY   float64
	ParallaxX float64
	ParallaxY float64
	TintColor *Color

	Properties Properties
}

func (i *LayerInfo) Info() *LayerInfo { return i }

// TileLayer is a rectangular arrangement of tile placements. The cell
// storage is chosen per layer based on occupancy; see Grid.
type TileLayer struct {
	LayerInfo

	// Declared size in tiles. For infinite maps this is the size written in
	// the document, while the actual occupied region is Grid().Bounds().
	Width  int
	Height int

	grid Grid
}

// Grid returns the layer's cell storage.
func (l *TileLayer) Grid() Grid { return l.grid }

// SetGrid installs the built cell storage. The loader calls this once the
// enclosing document's tileset bindings are known; the layer is immutable
// afterwards.
func (l *TileLayer) SetGrid(g Grid) { l.grid = g }

// TileAt is shorthand for Grid().TileAt.
func (l *TileLayer) TileAt(x, y int) *Tile { return l.grid.TileAt(x, y) }

// FlipsAt is shorthand for Grid().FlipsAt.
func (l *TileLayer) FlipsAt(x, y int) Flips { return l.grid.FlipsAt(x, y) }

// DrawOrder controls the order objects of an object layer are drawn in.
type DrawOrder uint8

const (
	DrawTopDown DrawOrder = iota
	DrawIndex
)

var DrawOrderNames = map[string]DrawOrder{
	"topdown": DrawTopDown,
	"index":   DrawIndex,
}

// ObjectLayer groups placed objects. It also models the collision group
// attached to individual tiles.
type ObjectLayer struct {
	LayerInfo

	Color     *Color
	DrawOrder DrawOrder
	Objects   []*Object
}

// ObjectWithID returns the object with the given id, nil if there is none.
func (l *ObjectLayer) ObjectWithID(id int) *Object {
	for _, obj := range l.Objects {
		if obj.ID == id {
			return obj
		}
	}
	return nil
}

// ImageLayer is a layer holding a single image.
type ImageLayer struct {
	LayerInfo

	Image   *Image
	RepeatX bool
	RepeatY bool
}

// GroupLayer nests other layers; offsets, opacity and visibility compose
// with those of the contained layers.
type GroupLayer struct {
	LayerInfo

	Layers []Layer
}
