package tmx

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/eak1mov/go-libtmx/tiled"
	"github.com/eak1mov/go-libtmx/tmx/spec"
)

// tilesetSchema covers a standalone tileset document root.
var tilesetSchema = spec.Schema{
	"version":         true,
	"tiledversion":    false,
	"name":            false,
	"class":           false,
	"tilewidth":       true,
	"tileheight":      true,
	"spacing":         false,
	"margin":          false,
	"tilecount":       false,
	"columns":         false,
	"objectalignment": false,
	"tilerendersize":  false,
	"fillmode":        false,
}

// mapTilesetSchema covers a <tileset> child of a map or template, which is
// either an external reference (firstgid + source) or a full embedded
// tileset.
var mapTilesetSchema = spec.Schema{
	"firstgid":        true,
	"source":          false,
	"name":            false,
	"class":           false,
	"tilewidth":       false,
	"tileheight":      false,
	"spacing":         false,
	"margin":          false,
	"tilecount":       false,
	"columns":         false,
	"objectalignment": false,
	"tilerendersize":  false,
	"fillmode":        false,
}

// tilesetParse accumulates parts of a tileset that can only be stitched
// together once the whole element is read: explicitly declared tiles (the
// rest are materialized from the tile count) and Wang references by tile
// id.
type tilesetParse struct {
	ts       *tiled.Tileset
	explicit map[uint32]*tiled.Tile
	wang     []*wangSetFixup
}

type wangSetFixup struct {
	set    *tiled.WangSet
	tileID int
	colors []wangColorFixup
	tiles  []wangTileFixup
}

type wangColorFixup struct {
	color  *tiled.WangColor
	tileID int
}

type wangTileFixup struct {
	tileID  uint32
	indexes [8]uint8
}

// parseTilesetFile reads the root element of a .tsx document.
func (p *parser) parseTilesetFile(start xml.StartElement) (*tiled.Tileset, error) {
	attrs, err := tilesetSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}
	p.checkVersion(attrs["version"])

	ts, err := p.parseTilesetBody(start, attrs, p.path)
	if err != nil {
		return nil, err
	}
	// A tileset document has no tileset bindings of its own; tile objects
	// inside collision groups resolve against an empty table.
	if err := p.resolveDeferred(nil); err != nil {
		return nil, err
	}
	return ts, nil
}

// parseTilesetBody reads the children of a tileset element, shared between
// standalone documents and tilesets embedded in maps. source is the
// canonical document path for external tilesets, empty for embedded ones.
func (p *parser) parseTilesetBody(start xml.StartElement, attrs spec.Attrs, sourcePath string) (*tiled.Tileset, error) {
	ts := &tiled.Tileset{
		Source: sourcePath,
		Name:   attrs["name"],
		Class:  attrs["class"],
	}

	fail := func(err error) (*tiled.Tileset, error) { return nil, p.c.fatal(err) }
	var err error
	if ts.TileWidth, err = attrs.Int("tilewidth"); err != nil {
		return fail(err)
	}
	if ts.TileHeight, err = attrs.Int("tileheight"); err != nil {
		return fail(err)
	}
	if ts.Spacing, err = attrs.IntDefault("spacing", 0); err != nil {
		return fail(err)
	}
	if ts.Margin, err = attrs.IntDefault("margin", 0); err != nil {
		return fail(err)
	}
	if ts.TileCount, err = attrs.IntDefault("tilecount", 0); err != nil {
		return fail(err)
	}
	if ts.Columns, err = attrs.IntDefault("columns", 0); err != nil {
		return fail(err)
	}
	if ts.ObjectAlignment, err = spec.EnumDefault(attrs, "objectalignment", tiled.ObjectAlignmentNames, tiled.AlignUnspecified); err != nil {
		return fail(err)
	}
	if ts.TileRenderSize, err = spec.EnumDefault(attrs, "tilerendersize", tiled.TileRenderSizeNames, tiled.RenderSizeTile); err != nil {
		return fail(err)
	}
	if ts.FillMode, err = spec.EnumDefault(attrs, "fillmode", tiled.FillModeNames, tiled.FillStretch); err != nil {
		return fail(err)
	}

	tp := &tilesetParse{ts: ts, explicit: make(map[uint32]*tiled.Tile)}

	var seenImage, seenOffset, seenGrid, seenTransform, seenProps, seenWang bool
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "image":
				if seenImage {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if ts.Image, err = p.parseImage(t); err != nil {
					return nil, err
				}
				seenImage = true
			case "tileoffset":
				if seenOffset {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if ts.TileOffset, err = p.parseTileOffset(t); err != nil {
					return nil, err
				}
				seenOffset = true
			case "grid":
				if seenGrid {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if ts.Grid, err = p.parseGrid(t); err != nil {
					return nil, err
				}
				seenGrid = true
			case "transformations":
				if seenTransform {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if ts.Transformations, err = p.parseTransformations(t); err != nil {
					return nil, err
				}
				seenTransform = true
			case "properties":
				if seenProps {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if ts.Properties, err = p.parseProperties(t); err != nil {
					return nil, err
				}
				seenProps = true
			case "tile":
				if err := p.parseTilesetTile(t, tp); err != nil {
					return nil, err
				}
			case "wangsets":
				if seenWang {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if err := p.parseWangSets(t, tp); err != nil {
					return nil, err
				}
				seenWang = true
			default:
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if err := p.finalizeTileset(tp); err != nil {
				return nil, err
			}
			return ts, nil
		}
	}
}

var tileOffsetSchema = spec.Schema{"x": false, "y": false}

func (p *parser) parseTileOffset(start xml.StartElement) (tiled.TileOffset, error) {
	attrs, err := tileOffsetSchema.Parse(start, p.logger)
	if err != nil {
		return tiled.TileOffset{}, p.c.fatal(err)
	}
	var offset tiled.TileOffset
	if offset.X, err = attrs.IntDefault("x", 0); err != nil {
		return tiled.TileOffset{}, p.c.fatal(err)
	}
	if offset.Y, err = attrs.IntDefault("y", 0); err != nil {
		return tiled.TileOffset{}, p.c.fatal(err)
	}
	return offset, p.skipRest()
}

var gridSchema = spec.Schema{"orientation": false, "width": false, "height": false}

func (p *parser) parseGrid(start xml.StartElement) (*tiled.GridSettings, error) {
	attrs, err := gridSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}
	grid := &tiled.GridSettings{}
	if grid.Orientation, err = spec.EnumDefault(attrs, "orientation", tiled.GridOrientationNames, tiled.GridOrthogonal); err != nil {
		return nil, p.c.fatal(err)
	}
	if grid.Width, err = attrs.IntDefault("width", 0); err != nil {
		return nil, p.c.fatal(err)
	}
	if grid.Height, err = attrs.IntDefault("height", 0); err != nil {
		return nil, p.c.fatal(err)
	}
	return grid, p.skipRest()
}

var transformationsSchema = spec.Schema{
	"hflip":               false,
	"vflip":               false,
	"rotate":              false,
	"preferuntransformed": false,
}

func (p *parser) parseTransformations(start xml.StartElement) (*tiled.Transformations, error) {
	attrs, err := transformationsSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}
	tr := &tiled.Transformations{}
	if tr.FlipHorizontally, err = attrs.BoolIntDefault("hflip", false); err != nil {
		return nil, p.c.fatal(err)
	}
	if tr.FlipVertically, err = attrs.BoolIntDefault("vflip", false); err != nil {
		return nil, p.c.fatal(err)
	}
	if tr.Rotate, err = attrs.BoolIntDefault("rotate", false); err != nil {
		return nil, p.c.fatal(err)
	}
	if tr.PreferUntransformed, err = attrs.BoolIntDefault("preferuntransformed", false); err != nil {
		return nil, p.c.fatal(err)
	}
	return tr, p.skipRest()
}

// skipRest consumes the remaining children of an element whose content is
// attribute-only, warning about anything nested.
func (p *parser) skipRest() error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.c.ignoreUnexpected(t.Name); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

var tileSchema = spec.Schema{
	"id":          true,
	"type":        false,
	"class":       false,
	"probability": false,
	"x":           false,
	"y":           false,
	"width":       false,
	"height":      false,
}

func (p *parser) parseTilesetTile(start xml.StartElement, tp *tilesetParse) error {
	attrs, err := tileSchema.Parse(start, p.logger)
	if err != nil {
		return p.c.fatal(err)
	}

	tile := &tiled.Tile{}
	if tile.ID, err = attrs.Uint("id"); err != nil {
		return p.c.fatal(err)
	}
	tile.Class = attrs.String("class", attrs["type"])
	if tile.Probability, err = attrs.FloatDefault("probability", 1); err != nil {
		return p.c.fatal(err)
	}
	if tile.X, err = attrs.IntDefault("x", 0); err != nil {
		return p.c.fatal(err)
	}
	if tile.Y, err = attrs.IntDefault("y", 0); err != nil {
		return p.c.fatal(err)
	}
	if tile.Width, err = attrs.IntDefault("width", 0); err != nil {
		return p.c.fatal(err)
	}
	if tile.Height, err = attrs.IntDefault("height", 0); err != nil {
		return p.c.fatal(err)
	}

	var seenImage, seenAnim, seenObjects, seenProps bool
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "image":
				if seenImage {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return err
					}
					continue
				}
				if tile.Image, err = p.parseImage(t); err != nil {
					return err
				}
				seenImage = true
			case "animation":
				if seenAnim {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return err
					}
					continue
				}
				if tile.Animation, err = p.parseAnimation(t); err != nil {
					return err
				}
				seenAnim = true
			case "objectgroup":
				if seenObjects {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return err
					}
					continue
				}
				if tile.Collision, err = p.parseObjectLayer(t); err != nil {
					return err
				}
				seenObjects = true
			case "properties":
				if seenProps {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return err
					}
					continue
				}
				if tile.Properties, err = p.parseProperties(t); err != nil {
					return err
				}
				seenProps = true
			default:
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return err
				}
			}
		case xml.EndElement:
			tp.explicit[tile.ID] = tile
			return nil
		}
	}
}

var frameSchema = spec.Schema{"tileid": true, "duration": false}

func (p *parser) parseAnimation(start xml.StartElement) ([]tiled.Frame, error) {
	var frames []tiled.Frame
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "frame" {
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
				continue
			}
			attrs, err := frameSchema.Parse(t, p.logger)
			if err != nil {
				return nil, p.c.fatal(err)
			}
			var frame tiled.Frame
			if frame.TileID, err = attrs.Uint("tileid"); err != nil {
				return nil, p.c.fatal(err)
			}
			millis, err := attrs.IntDefault("duration", 0)
			if err != nil {
				return nil, p.c.fatal(err)
			}
			frame.Duration = time.Duration(millis) * time.Millisecond
			frames = append(frames, frame)
			if err := p.skipRest(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return frames, nil
		}
	}
}

// finalizeTileset materializes the implicit tiles of an atlas tileset,
// corrects a column count that does not match the atlas image, and
// resolves the collected Wang references.
func (p *parser) finalizeTileset(tp *tilesetParse) error {
	ts := tp.ts

	if ts.Image != nil && ts.Image.Width > 0 && ts.TileWidth+ts.Spacing > 0 {
		columns := (ts.Image.Width - 2*ts.Margin + ts.Spacing) / (ts.TileWidth + ts.Spacing)
		if columns > 0 && ts.Columns != columns {
			p.logger.Warn("tile count to column ratio does not match the tileset image, correcting",
				slog.Int("columns", ts.Columns),
				slog.Int("corrected", columns))
			ts.Columns = columns
		}
	}

	ids := make([]uint32, 0, max(ts.TileCount, len(tp.explicit)))
	if ts.Image != nil {
		for id := range ts.TileCount {
			ids = append(ids, uint32(id))
		}
	}
	for id := range tp.explicit {
		if ts.Image == nil || int(id) >= ts.TileCount {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	for _, id := range ids {
		tile := tp.explicit[id]
		if tile == nil {
			tile = &tiled.Tile{ID: id}
		}
		if ts.Image != nil && ts.Columns > 0 && tile.Width == 0 {
			column := int(id) % ts.Columns
			row := int(id) / ts.Columns
			tile.X = ts.Margin + column*(ts.TileWidth+ts.Spacing)
			tile.Y = ts.Margin + row*(ts.TileHeight+ts.Spacing)
			tile.Width = ts.TileWidth
			tile.Height = ts.TileHeight
		}
		ts.AddTile(tile)
	}

	for _, fixup := range tp.wang {
		if err := p.applyWangFixup(ts, fixup); err != nil {
			return err
		}
	}
	return nil
}

var wangSetSchema = spec.Schema{
	"name":  false,
	"class": false,
	"type":  false,
	"tile":  false,
}

func (p *parser) parseWangSets(start xml.StartElement, tp *tilesetParse) error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "wangset" {
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return err
				}
				continue
			}
			if err := p.parseWangSet(t, tp); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *parser) parseWangSet(start xml.StartElement, tp *tilesetParse) error {
	attrs, err := wangSetSchema.Parse(start, p.logger)
	if err != nil {
		return p.c.fatal(err)
	}

	set := &tiled.WangSet{
		Name:  attrs["name"],
		Class: attrs["class"],
	}
	if set.Type, err = spec.EnumDefault(attrs, "type", tiled.WangSetTypeNames, tiled.WangSetMixed); err != nil {
		return p.c.fatal(err)
	}
	fixup := &wangSetFixup{set: set}
	if fixup.tileID, err = attrs.IntDefault("tile", -1); err != nil {
		return p.c.fatal(err)
	}

	seenProps := false
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "wangcolor", "wangedgecolor", "wangcornercolor":
				if err := p.parseWangColor(t, set, fixup); err != nil {
					return err
				}
			case "wangtile":
				if err := p.parseWangTile(t, fixup); err != nil {
					return err
				}
			case "properties":
				if seenProps {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return err
					}
					continue
				}
				if set.Properties, err = p.parseProperties(t); err != nil {
					return err
				}
				seenProps = true
			default:
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return err
				}
			}
		case xml.EndElement:
			tp.ts.WangSets = append(tp.ts.WangSets, set)
			tp.wang = append(tp.wang, fixup)
			return nil
		}
	}
}

var wangColorSchema = spec.Schema{
	"name":        false,
	"class":       false,
	"color":       true,
	"tile":        false,
	"probability": false,
}

func (p *parser) parseWangColor(start xml.StartElement, set *tiled.WangSet, fixup *wangSetFixup) error {
	attrs, err := wangColorSchema.Parse(start, p.logger)
	if err != nil {
		return p.c.fatal(err)
	}

	color := &tiled.WangColor{
		Name:  attrs["name"],
		Class: attrs["class"],
	}
	if color.Color, err = attrs.Color("color"); err != nil {
		return p.c.fatal(err)
	}
	if color.Probability, err = attrs.FloatDefault("probability", 0); err != nil {
		return p.c.fatal(err)
	}
	tileID, err := attrs.IntDefault("tile", -1)
	if err != nil {
		return p.c.fatal(err)
	}
	fixup.colors = append(fixup.colors, wangColorFixup{color: color, tileID: tileID})

	// The unified list serves modern documents; older documents declare
	// separate edge and corner color lists.
	switch start.Name.Local {
	case "wangcolor":
		set.Colors = append(set.Colors, color)
	case "wangedgecolor":
		set.EdgeColors = append(set.EdgeColors, color)
	case "wangcornercolor":
		set.CornerColors = append(set.CornerColors, color)
	}

	seenProps := false
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "properties" || seenProps {
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return err
				}
				continue
			}
			if color.Properties, err = p.parseProperties(t); err != nil {
				return err
			}
			seenProps = true
		case xml.EndElement:
			return nil
		}
	}
}

var wangTileSchema = spec.Schema{"tileid": true, "wangid": true}

func (p *parser) parseWangTile(start xml.StartElement, fixup *wangSetFixup) error {
	attrs, err := wangTileSchema.Parse(start, p.logger)
	if err != nil {
		return p.c.fatal(err)
	}
	var ref wangTileFixup
	if ref.tileID, err = attrs.Uint("tileid"); err != nil {
		return p.c.fatal(err)
	}
	if ref.indexes, err = spec.ParseWangID(attrs["wangid"]); err != nil {
		return p.c.fatal(err)
	}
	fixup.tiles = append(fixup.tiles, ref)
	return p.skipRest()
}

// applyWangFixup resolves tile ids and color indexes collected for one
// Wang set against the finished tile list.
func (p *parser) applyWangFixup(ts *tiled.Tileset, fixup *wangSetFixup) error {
	set := fixup.set
	if fixup.tileID >= 0 {
		set.Tile = ts.Tile(uint32(fixup.tileID))
	}
	for _, cf := range fixup.colors {
		if cf.tileID >= 0 {
			cf.color.Tile = ts.Tile(uint32(cf.tileID))
		}
	}

	if len(set.EdgeColors) == 0 {
		set.EdgeColors = set.Colors
	}
	if len(set.CornerColors) == 0 {
		set.CornerColors = set.Colors
	}

	for _, ref := range fixup.tiles {
		wt := &tiled.WangTile{Tile: ts.Tile(ref.tileID)}
		for direction, index := range ref.indexes {
			if index == 0 {
				continue
			}
			list := set.EdgeColors
			if direction%2 == 1 {
				list = set.CornerColors
			}
			if int(index) > len(list) {
				return p.c.fatal(fmt.Errorf("%w: color index %v out of range for direction %v",
					spec.ErrBadWangID, index, direction))
			}
			wt.Colors[direction] = list[index-1]
		}
		set.Tiles = append(set.Tiles, wt)
	}
	return nil
}
