package tiled

// PropertyType is the declared type of a custom property.
type PropertyType uint8

const (
	PropertyString PropertyType = iota
	PropertyInt
	PropertyFloat
	PropertyBool
	PropertyColor
	PropertyFile
	PropertyObject
	PropertyClass
)

var PropertyTypeNames = map[string]PropertyType{
	"string": PropertyString,
	"int":    PropertyInt,
	"float":  PropertyFloat,
	"bool":   PropertyBool,
	"color":  PropertyColor,
	"file":   PropertyFile,
	"object": PropertyObject,
	"class":  PropertyClass,
}

// Property is a single custom property value. Value holds, depending on
// Type: string, int, float64, bool, Color, string (canonical file path),
// *Object (nil for object id 0) or Properties for class properties.
type Property struct {
	Type      PropertyType
	ClassName string // set for class properties
	Value     any
}

// Properties is the custom property map attached to most document entities.
type Properties map[string]Property

// String returns a string property value, the empty string if the property
// is absent or of a different type.
func (p Properties) String(name string) string {
	v, _ := p[name].Value.(string)
	return v
}

// Int returns an int property value, 0 if absent or mistyped.
func (p Properties) Int(name string) int {
	v, _ := p[name].Value.(int)
	return v
}

// Float returns a float property value, 0 if absent or mistyped.
func (p Properties) Float(name string) float64 {
	v, _ := p[name].Value.(float64)
	return v
}

// Bool returns a bool property value, false if absent or mistyped.
func (p Properties) Bool(name string) bool {
	v, _ := p[name].Value.(bool)
	return v
}

// Object returns an object property value, nil if absent, mistyped or
// referencing object id 0.
func (p Properties) Object(name string) *Object {
	v, _ := p[name].Value.(*Object)
	return v
}
