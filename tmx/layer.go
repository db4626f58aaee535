package tmx

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eak1mov/go-libtmx/tiled"
	"github.com/eak1mov/go-libtmx/tmx/spec"
)

// layerInfoNames are the attributes shared by every layer element.
var layerInfoNames = []string{
	"id", "name", "class", "opacity", "visible", "locked",
	"offsetx", "offsety", "parallaxx", "parallaxy", "tintcolor",
}

func layerSchema(extra ...string) spec.Schema {
	schema := make(spec.Schema, len(layerInfoNames)+len(extra))
	for _, name := range layerInfoNames {
		schema[name] = false
	}
	for _, name := range extra {
		schema[name] = false
	}
	return schema
}

func (p *parser) parseLayerInfo(attrs spec.Attrs) (tiled.LayerInfo, error) {
	info := tiled.LayerInfo{
		Name:  attrs["name"],
		Class: attrs["class"],
	}
	var err error
	if info.ID, err = attrs.IntDefault("id", 0); err != nil {
		return info, err
	}
	if info.Opacity, err = attrs.FloatDefault("opacity", 1); err != nil {
		return info, err
	}
	if info.Visible, err = attrs.BoolIntDefault("visible", true); err != nil {
		return info, err
	}
	if info.Locked, err = attrs.BoolIntDefault("locked", false); err != nil {
		return info, err
	}
	if info.OffsetX, err = attrs.FloatDefault("offsetx", 0); err != nil {
		return info, err
	}
	if info.OffsetY, err = attrs.FloatDefault("offsety", 0); err != nil {
		return info, err
	}
	if info.ParallaxX, err = attrs.FloatDefault("parallaxx", 1); err != nil {
		return info, err
	}
	if info.ParallaxY, err = attrs.FloatDefault("parallaxy", 1); err != nil {
		return info, err
	}
	if info.TintColor, err = attrs.OptColor("tintcolor"); err != nil {
		return info, err
	}
	return info, nil
}

// warnDeprecated reports attributes that older format versions wrote but
// current documents no longer carry meaning for.
func (p *parser) warnDeprecated(attrs spec.Attrs, names ...string) {
	for _, name := range names {
		if attrs.Has(name) {
			p.logger.Warn("ignoring deprecated attribute",
				slog.String("attribute", name),
				slog.String("location", p.c.location()))
		}
	}
}

var tileLayerSchema = layerSchema("width", "height", "x", "y")

func (p *parser) parseTileLayer(start xml.StartElement, infinite bool) (*tiled.TileLayer, error) {
	attrs, err := tileLayerSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}
	p.warnDeprecated(attrs, "x", "y")

	layer := &tiled.TileLayer{}
	if layer.LayerInfo, err = p.parseLayerInfo(attrs); err != nil {
		return nil, p.c.fatal(err)
	}
	if layer.Width, err = attrs.Int("width"); err != nil {
		return nil, p.c.fatal(err)
	}
	if layer.Height, err = attrs.Int("height"); err != nil {
		return nil, p.c.fatal(err)
	}

	pending := pendingLayer{layer: layer}
	var seenData, seenProps bool
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "data":
				if seenData {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if pending.chunks, err = p.parseData(t, layer, infinite); err != nil {
					return nil, err
				}
				seenData = true
			case "properties":
				if seenProps {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if layer.Properties, err = p.parseProperties(t); err != nil {
					return nil, err
				}
				seenProps = true
			default:
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			// A layer without data still gets an empty grid installed by
			// the deferred pass.
			p.pendingLayers = append(p.pendingLayers, pending)
			return layer, nil
		}
	}
}

var dataSchema = spec.Schema{"encoding": false, "compression": false}

// parseData reads a <data> element into raw chunks. A finite layer yields
// one chunk covering the declared layer size; an infinite layer yields one
// chunk per <chunk> child.
func (p *parser) parseData(start xml.StartElement, layer *tiled.TileLayer, infinite bool) ([]rawChunk, error) {
	attrs, err := dataSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}
	encoding, err := spec.EnumDefault(attrs, "encoding", spec.EncodingNames, spec.EncodingInline)
	if err != nil {
		return nil, p.c.fatal(err)
	}
	compression, err := spec.EnumDefault(attrs, "compression", spec.CompressionNames, spec.CompressionNone)
	if err != nil {
		return nil, p.c.fatal(err)
	}
	if compression != spec.CompressionNone && encoding != spec.EncodingBase64 {
		return nil, p.c.fatal(fmt.Errorf("%w: compression requires base64 encoding",
			spec.ErrBadCompression))
	}

	if !infinite {
		cells, err := p.parseCells(encoding, compression, layer.Width, layer.Height)
		if err != nil {
			return nil, err
		}
		return []rawChunk{{
			width:  layer.Width,
			height: layer.Height,
			cells:  cells,
		}}, nil
	}

	var chunks []rawChunk
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			// Stray text between chunks carries no cells.
		case xml.StartElement:
			if t.Name.Local != "chunk" {
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
				continue
			}
			chunk, err := p.parseChunk(t, encoding, compression)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, chunk)
		case xml.EndElement:
			return chunks, nil
		}
	}
}

var chunkSchema = spec.Schema{"x": true, "y": true, "width": true, "height": true}

func (p *parser) parseChunk(start xml.StartElement, encoding spec.Encoding, compression spec.Compression) (rawChunk, error) {
	attrs, err := chunkSchema.Parse(start, p.logger)
	if err != nil {
		return rawChunk{}, p.c.fatal(err)
	}
	var chunk rawChunk
	fail := func(err error) (rawChunk, error) { return rawChunk{}, p.c.fatal(err) }
	if chunk.x, err = attrs.Int("x"); err != nil {
		return fail(err)
	}
	if chunk.y, err = attrs.Int("y"); err != nil {
		return fail(err)
	}
	if chunk.width, err = attrs.Int("width"); err != nil {
		return fail(err)
	}
	if chunk.height, err = attrs.Int("height"); err != nil {
		return fail(err)
	}

	chunk.cells, err = p.parseCells(encoding, compression, chunk.width, chunk.height)
	if err != nil {
		return rawChunk{}, err
	}
	return chunk, nil
}

var inlineTileSchema = spec.Schema{"gid": false}

// parseCells reads the content of a <data> or <chunk> element until its end
// tag: accumulated text for CSV and base64 payloads, nested <tile> elements
// for the inline encoding.
func (p *parser) parseCells(encoding spec.Encoding, compression spec.Compression, width, height int) ([]spec.Cell, error) {
	var text strings.Builder
	var inline []spec.Cell

	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if t.Name.Local != "tile" || encoding != spec.EncodingInline {
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
				continue
			}
			attrs, err := inlineTileSchema.Parse(t, p.logger)
			if err != nil {
				return nil, p.c.fatal(err)
			}
			gid, err := attrs.UintDefault("gid", 0)
			if err != nil {
				return nil, p.c.fatal(err)
			}
			inline = append(inline, spec.Cell(gid))
			if err := p.skipRest(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if encoding == spec.EncodingInline {
				if len(inline) != width*height {
					return nil, p.c.fatal(fmt.Errorf("%w: %v cells, expected %v*%v",
						spec.ErrDataSize, len(inline), width, height))
				}
				return inline, nil
			}
			cells, err := spec.DecodeCells(text.String(), encoding, compression, width, height)
			if err != nil {
				return nil, p.c.fatal(err)
			}
			return cells, nil
		}
	}
}

var objectLayerSchema = layerSchema("color", "draworder", "x", "y", "width", "height")

func (p *parser) parseObjectLayer(start xml.StartElement) (*tiled.ObjectLayer, error) {
	attrs, err := objectLayerSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}
	p.warnDeprecated(attrs, "x", "y", "width", "height")

	layer := &tiled.ObjectLayer{}
	if layer.LayerInfo, err = p.parseLayerInfo(attrs); err != nil {
		return nil, p.c.fatal(err)
	}
	if layer.Color, err = attrs.OptColor("color"); err != nil {
		return nil, p.c.fatal(err)
	}
	if layer.DrawOrder, err = spec.EnumDefault(attrs, "draworder", tiled.DrawOrderNames, tiled.DrawTopDown); err != nil {
		return nil, p.c.fatal(err)
	}

	seenProps := false
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "object":
				object, err := p.parseObject(t)
				if err != nil {
					return nil, err
				}
				layer.Objects = append(layer.Objects, object)
			case "properties":
				if seenProps {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if layer.Properties, err = p.parseProperties(t); err != nil {
					return nil, err
				}
				seenProps = true
			default:
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return layer, nil
		}
	}
}

var imageLayerSchema = layerSchema("repeatx", "repeaty", "x", "y", "width", "height")

func (p *parser) parseImageLayer(start xml.StartElement) (*tiled.ImageLayer, error) {
	attrs, err := imageLayerSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}
	p.warnDeprecated(attrs, "x", "y", "width", "height")

	layer := &tiled.ImageLayer{}
	if layer.LayerInfo, err = p.parseLayerInfo(attrs); err != nil {
		return nil, p.c.fatal(err)
	}
	if layer.RepeatX, err = attrs.BoolIntDefault("repeatx", false); err != nil {
		return nil, p.c.fatal(err)
	}
	if layer.RepeatY, err = attrs.BoolIntDefault("repeaty", false); err != nil {
		return nil, p.c.fatal(err)
	}

	var seenImage, seenProps bool
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
				if layer.Image, err = p.parseImage(t); err != nil {
					return nil, err
				}
				seenImage = true
			case "properties":
				if seenProps {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if layer.Properties, err = p.parseProperties(t); err != nil {
					return nil, err
				}
				seenProps = true
			default:
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return layer, nil
		}
	}
}

var groupLayerSchema = layerSchema()

func (p *parser) parseGroupLayer(start xml.StartElement, infinite bool) (*tiled.GroupLayer, error) {
	attrs, err := groupLayerSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}

	group := &tiled.GroupLayer{}
	if group.LayerInfo, err = p.parseLayerInfo(attrs); err != nil {
		return nil, p.c.fatal(err)
	}

	seenProps := false
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "layer", "objectgroup", "imagelayer", "group":
				layer, err := p.parseLayer(t, infinite)
				if err != nil {
					return nil, err
				}
				group.Layers = append(group.Layers, layer)
			case "properties":
				if seenProps {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if group.Properties, err = p.parseProperties(t); err != nil {
					return nil, err
				}
				seenProps = true
			default:
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return group, nil
		}
	}
}
