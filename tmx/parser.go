package tmx

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/eak1mov/go-libtmx/tiled"
	"github.com/eak1mov/go-libtmx/tmx/spec"
)

// parser holds the per-document parse state: the cursor, the object-id
// index and the deferred edits applied once the whole document is read.
type parser struct {
	ld     *Loader
	c      *cursor
	path   string
	logger *slog.Logger

	objectsByID   map[int]*tiled.Object
	pendingProps  []pendingProperty
	pendingTiles  []pendingTileObject
	pendingLayers []pendingLayer
}

// pendingProperty is an object-valued custom property waiting for the
// object-id index; the referenced object may be declared later in the
// document.
type pendingProperty struct {
	props tiled.Properties
	name  string
	id    int
}

// pendingTileObject is a tile object waiting for the document's global-id
// table.
type pendingTileObject struct {
	object *tiled.Object
	cell   spec.Cell
}

// pendingLayer is a tile layer whose decoded cells await the global-id
// table. Finite layers carry a single chunk covering the whole layer.
type pendingLayer struct {
	layer  *tiled.TileLayer
	chunks []rawChunk
}

type rawChunk struct {
	x, y          int
	width, height int
	cells         []spec.Cell
}

// next is cursor.advance for use inside an open element, where running out
// of input is fatal.
func (p *parser) next() (xml.Token, error) {
	tok, err := p.c.advance()
	if err == io.EOF {
		return nil, p.c.fatal(ErrUnexpectedEOF)
	}
	return tok, err
}

// parseDocument reads the top level of a document, expecting exactly one
// element of the kind's root name. Additional matching elements are
// redundant; anything else is unexpected.
func (p *parser) parseDocument(kind resourceKind) (any, error) {
	want := rootElementNames[kind]
	var resource any

	for {
		tok, err := p.c.advance()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch {
		case start.Name.Local != want:
			if err := p.c.ignoreUnexpected(start.Name); err != nil {
				return nil, err
			}
		case resource != nil:
			if err := p.c.ignoreRedundant(start.Name); err != nil {
				return nil, err
			}
		default:
			switch kind {
			case kindMap:
				resource, err = p.parseMap(start)
			case kindTileset:
				resource, err = p.parseTilesetFile(start)
			case kindTemplate:
				resource, err = p.parseTemplate(start)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if resource == nil {
		return nil, p.c.fatal(fmt.Errorf("%w: expected <%v>", ErrNoDocument, want))
	}
	return resource, nil
}

// checkVersion warns on documents written by a format family this library
// does not target. A mismatch is recoverable.
func (p *parser) checkVersion(version string) {
	major, _, _ := strings.Cut(version, ".")
	if major != "1" {
		p.logger.Warn("unsupported format version",
			slog.String("version", version),
			slog.String("location", p.c.location()))
	}
}

// resolvePath resolves a path attribute relative to the current document
// and canonicalizes it.
func (p *parser) resolvePath(raw string) (string, error) {
	resolved, err := p.ld.src.Resolve(raw, p.path)
	if err != nil {
		return "", p.c.fatal(err)
	}
	return resolved, nil
}

// resolveDeferred applies the pending edits collected during the main
// parse: tile layer cells and tile objects are resolved against the
// document's global-id table, and object-valued properties against the
// object-id index. An object id that never appeared is fatal.
func (p *parser) resolveDeferred(bindings []tiled.TilesetBinding) error {
	table, err := newGIDTable(bindings)
	if err != nil {
		return p.c.fatal(err)
	}

	for _, pending := range p.pendingLayers {
		builder := tiled.NewGridBuilder()
		for _, chunk := range pending.chunks {
			for i, cell := range chunk.cells {
				if cell == 0 {
					continue
				}
				x := chunk.x + i%chunk.width
				y := chunk.y + i/chunk.width
				builder.Set(x, y, table.Tile(cell.GID()), cell.Flips())
			}
		}
		pending.layer.SetGrid(builder.Build())
	}

	for _, pending := range p.pendingTiles {
		pending.object.Tile = table.Tile(pending.cell.GID())
		pending.object.Flips = pending.cell.Flips()
	}

	for _, pending := range p.pendingProps {
		var object *tiled.Object
		if pending.id != 0 {
			obj, ok := p.objectsByID[pending.id]
			if !ok {
				return p.c.fatal(fmt.Errorf("%w: object property %q refers to unknown object %v",
					ErrUnresolvedRef, pending.name, pending.id))
			}
			object = obj
		}
		prop := pending.props[pending.name]
		prop.Value = object
		pending.props[pending.name] = prop
	}

	p.pendingLayers = nil
	p.pendingTiles = nil
	p.pendingProps = nil
	return nil
}

var propertySchema = spec.Schema{
	"name":         true,
	"type":         false,
	"propertytype": false,
	"value":        false,
}

// parseProperties reads a <properties> element.
func (p *parser) parseProperties(start xml.StartElement) (tiled.Properties, error) {
	props := make(tiled.Properties)
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "property" {
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
				continue
			}
			if err := p.parseProperty(t, props); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return props, nil
		}
	}
}

func (p *parser) parseProperty(start xml.StartElement, props tiled.Properties) error {
	attrs, err := propertySchema.Parse(start, p.logger)
	if err != nil {
		return p.c.fatal(err)
	}
	name := attrs["name"]
	propType, err := spec.EnumDefault(attrs, "type", tiled.PropertyTypeNames, tiled.PropertyString)
	if err != nil {
		return p.c.fatal(err)
	}

	raw, hasRaw := attrs["value"]
	var text strings.Builder
	var nested tiled.Properties
	seenNested := false

	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if t.Name.Local == "properties" && propType == tiled.PropertyClass {
				if seenNested {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return err
					}
					continue
				}
				nested, err = p.parseProperties(t)
				if err != nil {
					return err
				}
				seenNested = true
				continue
			}
			if err := p.c.ignoreUnexpected(t.Name); err != nil {
				return err
			}
		case xml.EndElement:
			if !hasRaw {
				// Multiline string values are stored as element text.
				raw = text.String()
			}
			value, err := p.propertyValue(propType, raw, nested)
			if err != nil {
				return err
			}
			props[name] = tiled.Property{
				Type:      propType,
				ClassName: attrs["propertytype"],
				Value:     value,
			}
			if propType == tiled.PropertyObject {
				id, _ := value.(int)
				p.pendingProps = append(p.pendingProps, pendingProperty{
					props: props,
					name:  name,
					id:    id,
				})
			}
			return nil
		}
	}
}

// propertyValue converts the raw value string by declared type. Object
// properties temporarily hold the referenced id; the deferred pass swaps
// in the object.
func (p *parser) propertyValue(propType tiled.PropertyType, raw string, nested tiled.Properties) (any, error) {
	badValue := func() error {
		return p.c.fatal(fmt.Errorf("%w: property value %q", spec.ErrBadAttribute, raw))
	}
	switch propType {
	case tiled.PropertyString:
		return raw, nil
	case tiled.PropertyInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, badValue()
		}
		return n, nil
	case tiled.PropertyFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, badValue()
		}
		return f, nil
	case tiled.PropertyBool:
		switch raw {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, badValue()
	case tiled.PropertyColor:
		if raw == "" {
			return tiled.Color{}, nil
		}
		color, err := spec.ParseColor(raw)
		if err != nil {
			return nil, p.c.fatal(err)
		}
		return color, nil
	case tiled.PropertyFile:
		if raw == "" {
			return "", nil
		}
		return p.resolvePath(raw)
	case tiled.PropertyObject:
		if raw == "" {
			return 0, nil
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, badValue()
		}
		return id, nil
	case tiled.PropertyClass:
		if nested == nil {
			nested = make(tiled.Properties)
		}
		return nested, nil
	}
	return raw, nil
}

var imageSchema = spec.Schema{
	"source": false,
	"format": false,
	"trans":  false,
	"width":  false,
	"height": false,
}

// parseImage reads an <image> element. The targeted format versions only
// support image references; embedded pixel data is dropped with a warning.
func (p *parser) parseImage(start xml.StartElement) (*tiled.Image, error) {
	attrs, err := imageSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}

	img := &tiled.Image{Format: attrs["format"]}
	if src, ok := attrs["source"]; ok {
		if img.Source, err = p.resolvePath(src); err != nil {
			return nil, err
		}
	}
	if img.TransparentColor, err = attrs.OptColor("trans"); err != nil {
		return nil, p.c.fatal(err)
	}
	if img.Width, err = attrs.IntDefault("width", 0); err != nil {
		return nil, p.c.fatal(err)
	}
	if img.Height, err = attrs.IntDefault("height", 0); err != nil {
		return nil, p.c.fatal(err)
	}

	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "data" {
				p.logger.Warn("ignoring embedded image data",
					slog.String("location", p.c.location()))
				if err := p.c.skipSubtree(); err != nil {
					return nil, err
				}
				continue
			}
			if err := p.c.ignoreUnexpected(t.Name); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return img, nil
		}
	}
}
