package tiled

// ObjectKind is the shape of a placed object.
type ObjectKind uint8

const (
	ObjectRectangle ObjectKind = iota
	ObjectEllipse
	ObjectPoint
	ObjectPolygon
	ObjectPolyline
	ObjectText
	ObjectTile
)

// Point is a polygon or polyline vertex, relative to the object position.
type Point struct {
	X float64
	Y float64
}

// HAlign is the horizontal alignment of a text object.
type HAlign uint8

const (
	HAlignLeft HAlign = iota
	HAlignCenter
	HAlignRight
	HAlignJustify
)

var HAlignNames = map[string]HAlign{
	"left":    HAlignLeft,
	"center":  HAlignCenter,
	"right":   HAlignRight,
	"justify": HAlignJustify,
}

// VAlign is the vertical alignment of a text object.
type VAlign uint8

const (
	VAlignTop VAlign = iota
	VAlignCenter
	VAlignBottom
)

var VAlignNames = map[string]VAlign{
	"top":    VAlignTop,
	"center": VAlignCenter,
	"bottom": VAlignBottom,
}

// Text holds the content and font settings of a text object.
type Text struct {
	Value      string
	FontFamily string
	PixelSize  int
	Wrap       bool
	Color      Color
	Bold       bool
	Italic     bool
	Underline  bool
	Strikeout  bool
	Kerning    bool
	HAlign     HAlign
	VAlign     VAlign
}

// Object is a placed object on an object layer, or the object carried by an
// object template.
type Object struct {
	ID       int
	Name     string
	Class    string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Rotation float64
	Visible  bool

	Kind   ObjectKind
	Points []Point // polygon and polyline vertices
	Text   *Text

	// Tile and Flips are set for tile objects once the enclosing document's
	// global id table exists.
	Tile  *Tile
	Flips Flips

	// Template is the canonical path of the referenced template file, empty
	// when the object does not use one.
	Template string

	Properties Properties
}
