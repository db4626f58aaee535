package tmx

import (
	"encoding/xml"
	"fmt"

	"github.com/eak1mov/go-libtmx/tiled"
	"github.com/eak1mov/go-libtmx/tmx/spec"
)

var templateSchema = spec.Schema{}

// parseTemplate reads the root element of a .tx document: at most one
// tileset binding and exactly one object.
func (p *parser) parseTemplate(start xml.StartElement) (*tiled.Template, error) {
	if _, err := templateSchema.Parse(start, p.logger); err != nil {
		return nil, p.c.fatal(err)
	}

	tpl := &tiled.Template{}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tileset":
				if tpl.Binding != nil {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				binding, err := p.parseMapTileset(t)
				if err != nil {
					return nil, err
				}
				tpl.Binding = &binding
			case "object":
				if tpl.Object != nil {
					if err := p.c.ignoreRedundant(t.Name); err != nil {
						return nil, err
					}
					continue
				}
				if tpl.Object, err = p.parseObject(t); err != nil {
					return nil, err
				}
			default:
				if err := p.c.ignoreUnexpected(t.Name); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if tpl.Object == nil {
				return nil, p.c.fatal(fmt.Errorf("%w: <template> carries no <object>", ErrNoDocument))
			}
			var bindings []tiled.TilesetBinding
			if tpl.Binding != nil {
				bindings = append(bindings, *tpl.Binding)
			}
			if err := p.resolveDeferred(bindings); err != nil {
				return nil, err
			}
			return tpl, nil
		}
	}
}
