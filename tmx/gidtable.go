package tmx

import (
	"fmt"

	"github.com/eak1mov/go-libtmx/tiled"
)

// gidTable maps global tile ids to tiles for one map or template. It is
// built after all tileset bindings of the document are known.
type gidTable struct {
	tiles map[uint32]*tiled.Tile
}

func newGIDTable(bindings []tiled.TilesetBinding) (*gidTable, error) {
	table := &gidTable{tiles: make(map[uint32]*tiled.Tile)}
	for _, binding := range bindings {
		for _, tile := range binding.Tileset.Tiles {
			gid := binding.FirstGID + tile.ID
			if _, exists := table.tiles[gid]; exists {
				return nil, fmt.Errorf("%w: global id %v bound twice", ErrGIDConflict, gid)
			}
			table.tiles[gid] = tile
		}
	}
	return table, nil
}

// Tile resolves a bare global id. Id 0 and ids no binding covers resolve
// to nil; the referenced tileset may be intentionally absent.
func (t *gidTable) Tile(gid uint32) *tiled.Tile {
	if gid == 0 {
		return nil
	}
	return t.tiles[gid]
}
