package tiled

// WangSetType restricts which parts of a Wang id a set uses.
type WangSetType uint8

const (
	WangSetCorner WangSetType = iota
	WangSetEdge
	WangSetMixed
)

var WangSetTypeNames = map[string]WangSetType{
	"corner": WangSetCorner,
	"edge":   WangSetEdge,
	"mixed":  WangSetMixed,
}

// WangColor is one terrain color of a Wang set.
type WangColor struct {
	Name        string
	Class       string
	Color       Color
	Tile        *Tile // representative tile, nil if unset
	Probability float64
	Properties  Properties
}

// WangTile assigns Wang colors to the eight directions around a tile,
// clockwise from the top edge. Even indexes are edges, odd indexes are
// corners; nil means no color in that direction.
type WangTile struct {
	Tile   *Tile
	Colors [8]*WangColor
}

// WangSet is a per-tileset coloring used by terrain-painting tools.
type WangSet struct {
	Name  string
	Class string
	Type  WangSetType
	Tile  *Tile // representative tile, nil if unset

	// Colors is the unified color list. EdgeColors and CornerColors alias
	// it unless the document declared the older separate lists.
	Colors       []*WangColor
	EdgeColors   []*WangColor
	CornerColors []*WangColor

	Tiles      []*WangTile
	Properties Properties
}

// WangTileFor returns the Wang assignment for the given tile, nil if the
// set does not color it.
func (s *WangSet) WangTileFor(tile *Tile) *WangTile {
	for _, wt := range s.Tiles {
		if wt.Tile == tile {
			return wt
		}
	}
	return nil
}
