package tmx

import (
	"encoding/xml"

	"github.com/eak1mov/go-libtmx/tiled"
	"github.com/eak1mov/go-libtmx/tmx/spec"
)

var mapSchema = spec.Schema{
	"version":         true,
	"tiledversion":    false,
	"class":           false,
	"orientation":     true,
	"renderorder":     false,
	"width":           true,
	"height":          true,
	"tilewidth":       true,
	"tileheight":      true,
	"hexsidelength":   false,
	"staggeraxis":     false,
	"staggerindex":    false,
	"parallaxoriginx": false,
	"parallaxoriginy": false,
	"backgroundcolor": false,
	"infinite":        false,
	"nextlayerid":     false,
	"nextobjectid":    false,
}

func (p *parser) parseMap(start xml.StartElement) (*tiled.Map, error) {
	attrs, err := mapSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}

	m := &tiled.Map{
		Version: attrs["version"],
		Class:   attrs["class"],
	}
	p.checkVersion(m.Version)

	fail := func(err error) (*tiled.Map, error) { return nil, p.c.fatal(err) }
	if m.Orientation, err = spec.Enum(attrs, "orientation", tiled.OrientationNames); err != nil {
		return fail(err)
	}
	if m.RenderOrder, err = spec.EnumDefault(attrs, "renderorder", tiled.RenderOrderNames, tiled.RenderRightDown); err != nil {
		return fail(err)
	}
	if m.Width, err = attrs.Int("width"); err != nil {
		return fail(err)
	}
	if m.Height, err = attrs.Int("height"); err != nil {
		return fail(err)
	}
	if m.TileWidth, err = attrs.Int("tilewidth"); err != nil {
		return fail(err)
	}
	if m.TileHeight, err = attrs.Int("tileheight"); err != nil {
		return fail(err)
	}
	if m.Infinite, err = attrs.BoolIntDefault("infinite", false); err != nil {
		return fail(err)
	}
	if m.HexSideLength, err = attrs.IntDefault("hexsidelength", 0); err != nil {
		return fail(err)
	}
	if m.StaggerAxis, err = spec.EnumDefault(attrs, "staggeraxis", tiled.StaggerAxisNames, tiled.StaggerX); err != nil {
		return fail(err)
	}
	if m.StaggerIndex, err = spec.EnumDefault(attrs, "staggerindex", tiled.StaggerIndexNames, tiled.StaggerOdd); err != nil {
		return fail(err)
	}
	if m.ParallaxOriginX, err = attrs.FloatDefault("parallaxoriginx", 0); err != nil {
		return fail(err)
	}
	if m.ParallaxOriginY, err = attrs.FloatDefault("parallaxoriginy", 0); err != nil {
		return fail(err)
	}
	if m.BackgroundColor, err = attrs.OptColor("backgroundcolor"); err != nil {
		return fail(err)
	}
	if m.NextLayerID, err = attrs.IntDefault("nextlayerid", 0); err != nil {
		return fail(err)
	}
	if m.NextObjectID, err = attrs.IntDefault("nextobjectid", 0); err != nil {
		return fail(err)
	}

	seenProperties := false
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tileset":
				binding, err := p.parseMapTileset(t)
				if err != nil {
					return nil, err
				}
				m.Tilesets = append(m.Tilesets, binding)
			case "layer", "objectgroup", "imagelayer", "group":
				layer, err := p.parseLayer(t, m.Infinite)
				if err != nil {
					return nil, err
				}
				m.Layers = append(m.Layers, layer)
			case "properties":
				if seenProperties {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if m.Properties, err = p.parseProperties(t); err != nil {
					return nil, err
				}
				seenProperties = true
			default:
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if err := p.resolveDeferred(m.Tilesets); err != nil {
				return nil, err
			}
			return m, nil
		}
	}
}

// parseLayer dispatches one of the four layer elements.
func (p *parser) parseLayer(start xml.StartElement, infinite bool) (tiled.Layer, error) {
	switch start.Name.Local {
	case "layer":
		return p.parseTileLayer(start, infinite)
	case "objectgroup":
		return p.parseObjectLayer(start)
	case "imagelayer":
		return p.parseImageLayer(start)
	default:
		return p.parseGroupLayer(start, infinite)
	}
}

// parseMapTileset reads a <tileset> child of a map or template: either a
// reference to an external tileset file, which is loaded through the cache
// and recorded in the reference graph, or a tileset embedded in place.
func (p *parser) parseMapTileset(start xml.StartElement) (tiled.TilesetBinding, error) {
	attrs, err := mapTilesetSchema.Parse(start, p.logger)
	if err != nil {
		return tiled.TilesetBinding{}, p.c.fatal(err)
	}

	firstGID, err := attrs.Uint("firstgid")
	if err != nil {
		return tiled.TilesetBinding{}, p.c.fatal(err)
	}
	binding := tiled.TilesetBinding{FirstGID: firstGID}

	src, external := attrs["source"]
	if !external {
		if binding.Tileset, err = p.parseTilesetBody(start, attrs, ""); err != nil {
			return tiled.TilesetBinding{}, err
		}
		return binding, nil
	}

	canonical, err := p.resolvePath(src)
	if err != nil {
		return tiled.TilesetBinding{}, err
	}
	resource, err := p.ld.load(canonical, kindTileset)
	if err != nil {
		return tiled.TilesetBinding{}, err
	}
	ts, ok := resource.(*tiled.Tileset)
	if !ok {
		return tiled.TilesetBinding{}, p.c.fatal(ErrWrongKind)
	}
	p.ld.registerReference(p.path, canonical)
	binding.Tileset = ts

	// A reference element carries no children of its own.
	for {
		tok, err := p.next()
		if err != nil {
			return tiled.TilesetBinding{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.c.ignoreUnexpected(t.Name); err != nil {
				return tiled.TilesetBinding{}, err
			}
		case xml.EndElement:
			return binding, nil
		}
	}
}
