package spec

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/eak1mov/go-libtmx/tiled"
)

var (
	ErrMissingAttribute = errors.New("libtmx: missing required attribute")
	ErrBadAttribute     = errors.New("libtmx: malformed attribute value")
)

// Schema declares the attributes an element accepts, mapping each name to
// whether it is required.
type Schema map[string]bool

// Attrs is the raw name-to-value map extracted for one element.
type Attrs map[string]string

// Parse extracts the element's attributes according to the schema.
// Attributes outside the schema are dropped with a warning, a duplicate
// attribute keeps the first value and warns, and a required attribute
// absent after the full list is read is an error.
func (s Schema) Parse(start xml.StartElement, logger *slog.Logger) (Attrs, error) {
	attrs := make(Attrs, len(start.Attr))
	for _, a := range start.Attr {
		name := a.Name.Local
		if _, known := s[name]; !known {
			logger.Warn("ignoring unknown attribute",
				slog.String("element", start.Name.Local),
				slog.String("attribute", name))
			continue
		}
		if _, dup := attrs[name]; dup {
			logger.Warn("ignoring duplicate attribute",
				slog.String("element", start.Name.Local),
				slog.String("attribute", name))
			continue
		}
		attrs[name] = a.Value
	}
	for name, required := range s {
		if !required {
			continue
		}
		if _, ok := attrs[name]; !ok {
			return nil, fmt.Errorf("%w: <%v> needs %q", ErrMissingAttribute, start.Name.Local, name)
		}
	}
	return attrs, nil
}

// Has reports whether the attribute was present on the element.
func (a Attrs) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns the attribute value, or def if absent.
func (a Attrs) String(name, def string) string {
	if v, ok := a[name]; ok {
		return v
	}
	return def
}

func (a Attrs) Int(name string) (int, error) {
	v, ok := a[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	return a.parseInt(name, v)
}

func (a Attrs) IntDefault(name string, def int) (int, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	return a.parseInt(name, v)
}

func (a Attrs) parseInt(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v=%q is not an integer", ErrBadAttribute, name, v)
	}
	return n, nil
}

func (a Attrs) Uint(name string) (uint32, error) {
	v, ok := a[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	return a.parseUint(name, v)
}

func (a Attrs) UintDefault(name string, def uint32) (uint32, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	return a.parseUint(name, v)
}

func (a Attrs) parseUint(name, v string) (uint32, error) {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v=%q is not an unsigned integer", ErrBadAttribute, name, v)
	}
	return uint32(n), nil
}

func (a Attrs) Float(name string) (float64, error) {
	v, ok := a[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	return a.parseFloat(name, v)
}

func (a Attrs) FloatDefault(name string, def float64) (float64, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	return a.parseFloat(name, v)
}

func (a Attrs) parseFloat(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v=%q is not a number", ErrBadAttribute, name, v)
	}
	return f, nil
}

// Bool parses a "true"/"false" attribute.
func (a Attrs) Bool(name string) (bool, error) {
	v, ok := a[name]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	return a.parseBool(name, v)
}

func (a Attrs) BoolDefault(name string, def bool) (bool, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	return a.parseBool(name, v)
}

func (a Attrs) parseBool(name, v string) (bool, error) {
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: %v=%q is not a boolean", ErrBadAttribute, name, v)
}

// BoolInt parses a 0/1 attribute, the encoding used for visibility and
// lock flags.
func (a Attrs) BoolInt(name string) (bool, error) {
	v, ok := a[name]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	return a.parseBoolInt(name, v)
}

func (a Attrs) BoolIntDefault(name string, def bool) (bool, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	return a.parseBoolInt(name, v)
}

func (a Attrs) parseBoolInt(name, v string) (bool, error) {
	switch v {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("%w: %v=%q is not 0 or 1", ErrBadAttribute, name, v)
}

// Color parses a required "#RRGGBB" or "#AARRGGBB" attribute.
func (a Attrs) Color(name string) (tiled.Color, error) {
	v, ok := a[name]
	if !ok {
		return tiled.Color{}, fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	return parseColor(name, v)
}

// OptColor parses an optional color attribute, nil when absent.
func (a Attrs) OptColor(name string) (*tiled.Color, error) {
	v, ok := a[name]
	if !ok {
		return nil, nil
	}
	c, err := parseColor(name, v)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func parseColor(name, v string) (tiled.Color, error) {
	c, err := ParseColor(v)
	if err != nil {
		return tiled.Color{}, fmt.Errorf("%w: attribute %v", err, name)
	}
	return c, nil
}

// ParseColor parses a "#RRGGBB" or "#AARRGGBB" color value; the leading
// "#" is optional.
func ParseColor(v string) (tiled.Color, error) {
	hex := strings.TrimPrefix(v, "#")
	bad := func() (tiled.Color, error) {
		return tiled.Color{}, fmt.Errorf("%w: %q is not a #RRGGBB or #AARRGGBB color", ErrBadAttribute, v)
	}
	switch len(hex) {
	case 6:
		hex = "ff" + hex
	case 8:
	default:
		return bad()
	}
	var channels [4]uint8
	for i := range 4 {
		b, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return bad()
		}
		channels[i] = uint8(b)
	}
	return tiled.Color{A: channels[0], R: channels[1], G: channels[2], B: channels[3]}, nil
}

// Enum parses a required enumerated attribute by case-insensitive name
// against an explicit name table.
func Enum[T any](a Attrs, name string, names map[string]T) (T, error) {
	var zero T
	v, ok := a[name]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	return parseEnum(name, v, names)
}

// EnumDefault parses an optional enumerated attribute, returning def when
// absent.
func EnumDefault[T any](a Attrs, name string, names map[string]T, def T) (T, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	return parseEnum(name, v, names)
}

func parseEnum[T any](name, v string, names map[string]T) (T, error) {
	if t, ok := names[strings.ToLower(v)]; ok {
		return t, nil
	}
	var zero T
	legal := make([]string, 0, len(names))
	for n := range names {
		legal = append(legal, n)
	}
	slices.Sort(legal)
	return zero, fmt.Errorf("%w: %v=%q, expected one of %v",
		ErrBadAttribute, name, v, strings.Join(legal, ", "))
}
