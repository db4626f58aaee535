package tmx

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/eak1mov/go-libtmx/tiled"
	"github.com/eak1mov/go-libtmx/tmx/spec"
)

var objectSchema = spec.Schema{
	"id":       false,
	"name":     false,
	"type":     false,
	"class":    false,
	"x":        false,
	"y":        false,
	"width":    false,
	"height":   false,
	"rotation": false,
	"visible":  false,
	"gid":      false,
	"template": false,
}

// parseObject reads an <object> element. When the object references a
// template, the template's object supplies the defaults and the element's
// own attributes and children override them.
func (p *parser) parseObject(start xml.StartElement) (*tiled.Object, error) {
	attrs, err := objectSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}

	object := &tiled.Object{Visible: true}
	if src, ok := attrs["template"]; ok {
		canonical, err := p.resolvePath(src)
		if err != nil {
			return nil, err
		}
		resource, err := p.ld.load(canonical, kindTemplate)
		if err != nil {
			return nil, err
		}
		tpl, ok := resource.(*tiled.Template)
		if !ok {
			return nil, p.c.fatal(ErrWrongKind)
		}
		p.ld.registerReference(p.path, canonical)
		object = cloneObject(tpl.Object)
		object.Template = canonical
	}

	fail := func(err error) (*tiled.Object, error) { return nil, p.c.fatal(err) }
	if object.ID, err = attrs.IntDefault("id", object.ID); err != nil {
		return fail(err)
	}
	object.Name = attrs.String("name", object.Name)
	// "type" is the pre-1.9 spelling of "class".
	object.Class = attrs.String("class", attrs.String("type", object.Class))
	if object.X, err = attrs.FloatDefault("x", object.X); err != nil {
		return fail(err)
	}
	if object.Y, err = attrs.FloatDefault("y", object.Y); err != nil {
		return fail(err)
	}
	if object.Width, err = attrs.FloatDefault("width", object.Width); err != nil {
		return fail(err)
	}
	if object.Height, err = attrs.FloatDefault("height", object.Height); err != nil {
		return fail(err)
	}
	if object.Rotation, err = attrs.FloatDefault("rotation", object.Rotation); err != nil {
		return fail(err)
	}
	if object.Visible, err = attrs.BoolIntDefault("visible", object.Visible); err != nil {
		return fail(err)
	}
	if gid, ok := attrs["gid"]; ok {
		value, err := strconv.ParseUint(gid, 10, 32)
		if err != nil {
			return fail(fmt.Errorf("%w: gid=%q is not an unsigned integer", spec.ErrBadAttribute, gid))
		}
		object.Kind = tiled.ObjectTile
		p.pendingTiles = append(p.pendingTiles, pendingTileObject{
			object: object,
			cell:   spec.Cell(value),
		})
	}

	if object.ID != 0 {
		p.objectsByID[object.ID] = object
	}

	seenShape := false
	seenProps := false
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch name {
			case "ellipse", "point", "polygon", "polyline", "text":
				if seenShape {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if err := p.parseShape(t, object); err != nil {
					return nil, err
				}
				seenShape = true
			case "properties":
				if seenProps {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				props, err := p.parseProperties(t)
				if err != nil {
					return nil, err
				}
				// Template properties the element does not override are
				// folded into the element's own map, which the deferred
				// object-reference pass updates in place.
				for key, value := range object.Properties {
					if _, overridden := props[key]; !overridden {
						props[key] = value
					}
				}
				object.Properties = props
				seenProps = true
			default:
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return object, nil
		}
	}
}

var polygonSchema = spec.Schema{"points": true}

func (p *parser) parseShape(start xml.StartElement, object *tiled.Object) error {
	switch start.Name.Local {
	case "ellipse":
		object.Kind = tiled.ObjectEllipse
		return p.skipRest()
	case "point":
		object.Kind = tiled.ObjectPoint
		return p.skipRest()
	case "polygon", "polyline":
		if start.Name.Local == "polygon" {
			object.Kind = tiled.ObjectPolygon
		} else {
			object.Kind = tiled.ObjectPolyline
		}
		attrs, err := polygonSchema.Parse(start, p.logger)
		if err != nil {
			return p.c.fatal(err)
		}
		if object.Points, err = parsePoints(attrs["points"]); err != nil {
			return p.c.fatal(err)
		}
		return p.skipRest()
	default:
		object.Kind = tiled.ObjectText
		text, err := p.parseText(start)
		if err != nil {
			return err
		}
		object.Text = text
		return nil
	}
}

// parsePoints parses the "x0,y0 x1,y1 ..." vertex list of a polygon or
// polyline.
func parsePoints(value string) ([]tiled.Point, error) {
	fields := strings.Fields(value)
	points := make([]tiled.Point, 0, len(fields))
	for _, field := range fields {
		xs, ys, ok := strings.Cut(field, ",")
		if !ok {
			return nil, fmt.Errorf("%w: points entry %q", spec.ErrBadAttribute, field)
		}
		x, errX := strconv.ParseFloat(xs, 64)
		y, errY := strconv.ParseFloat(ys, 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("%w: points entry %q", spec.ErrBadAttribute, field)
		}
		points = append(points, tiled.Point{X: x, Y: y})
	}
	return points, nil
}

var textSchema = spec.Schema{
	"fontfamily": false,
	"pixelsize":  false,
	"wrap":       false,
	"color":      false,
	"bold":       false,
	"italic":     false,
	"underline":  false,
	"strikeout":  false,
	"kerning":    false,
	"halign":     false,
	"valign":     false,
}

func (p *parser) parseText(start xml.StartElement) (*tiled.Text, error) {
	attrs, err := textSchema.Parse(start, p.logger)
	if err != nil {
		return nil, p.c.fatal(err)
	}

	text := &tiled.Text{
		FontFamily: attrs.String("fontfamily", "sans-serif"),
		Color:      tiled.Color{A: 0xff},
	}
	fail := func(err error) (*tiled.Text, error) { return nil, p.c.fatal(err) }
	if text.PixelSize, err = attrs.IntDefault("pixelsize", 16); err != nil {
		return fail(err)
	}
	if text.Wrap, err = attrs.BoolIntDefault("wrap", false); err != nil {
		return fail(err)
	}
	if color, err := attrs.OptColor("color"); err != nil {
		return fail(err)
	} else if color != nil {
		text.Color = *color
	}
	if text.Bold, err = attrs.BoolIntDefault("bold", false); err != nil {
		return fail(err)
	}
	if text.Italic, err = attrs.BoolIntDefault("italic", false); err != nil {
		return fail(err)
	}
	if text.Underline, err = attrs.BoolIntDefault("underline", false); err != nil {
		return fail(err)
	}
	if text.Strikeout, err = attrs.BoolIntDefault("strikeout", false); err != nil {
		return fail(err)
	}
	if text.Kerning, err = attrs.BoolIntDefault("kerning", true); err != nil {
		return fail(err)
	}
	if text.HAlign, err = spec.EnumDefault(attrs, "halign", tiled.HAlignNames, tiled.HAlignLeft); err != nil {
		return fail(err)
	}
	if text.VAlign, err = spec.EnumDefault(attrs, "valign", tiled.VAlignNames, tiled.VAlignTop); err != nil {
		return fail(err)
	}

	var value strings.Builder
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			value.Write(t)
		case xml.StartElement:
			if err := p.c.ignoreUnexpected(t.Name); err != nil {
				return nil, err
			}
		case xml.EndElement:
			text.Value = value.String()
			return text, nil
		}
	}
}

// cloneObject deep-copies a template object so per-placement overrides do
// not leak into the cached template.
func cloneObject(src *tiled.Object) *tiled.Object {
	if src == nil {
		return &tiled.Object{Visible: true}
	}
	dst := *src
	if src.Points != nil {
		dst.Points = make([]tiled.Point, len(src.Points))
		copy(dst.Points, src.Points)
	}
	if src.Text != nil {
		text := *src.Text
		dst.Text = &text
	}
	if src.Properties != nil {
		dst.Properties = make(tiled.Properties, len(src.Properties))
		for key, value := range src.Properties {
			dst.Properties[key] = value
		}
	}
	return &dst
}
