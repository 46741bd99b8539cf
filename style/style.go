// Package style resolves effective formatting of markup elements by layering
// tag implied rules, element attributes and inline declarations over the
// style inherited from ancestors.
package style

import (
	"maps"
	"strings"
)

// Property is one of the formatting properties the cascade knows about.
type Property string

const (
	FontFamily      Property = "font-family"
	FontSize        Property = "font-size"
	FontWeight      Property = "font-weight"
	FontStyle       Property = "font-style"
	TextDecoration  Property = "text-decoration"
	Color           Property = "color"
	BackgroundColor Property = "background-color"
)

// Properties lists all known properties.
var Properties = []Property{FontFamily, FontSize, FontWeight, FontStyle, TextDecoration, Color, BackgroundColor}

// fontProperties are properties which affect font of a run.
var fontProperties = []Property{FontWeight, FontStyle, TextDecoration, Color, FontFamily, FontSize}

// Known reports whether name is one of the properties cascade tracks.
func Known(name string) (Property, bool) {
	p := Property(strings.ToLower(strings.TrimSpace(name)))
	switch p {
	case FontFamily, FontSize, FontWeight, FontStyle, TextDecoration, Color, BackgroundColor:
		return p, true
	}
	return "", false
}

// Map holds property values set at some node. Absence of a property means it
// was not set, defaults are decided only when formatting object is built.
type Map map[Property]string

// Clone returns independent copy of the map, never nil.
func (m Map) Clone() Map {
	c := make(Map, len(m)+2)
	maps.Copy(c, m)
	return c
}

// Get returns property value and whether it is set.
func (m Map) Get(p Property) (string, bool) {
	v, ok := m[p]
	return v, ok
}

// Changed reports whether cur differs from inherited in at least one font
// property which is set in cur. This is what decides if a run is needed.
func Changed(cur, inherited Map) bool {
	for _, p := range fontProperties {
		v, ok := cur[p]
		if !ok {
			continue
		}
		if iv, iok := inherited[p]; !iok || iv != v {
			return true
		}
	}
	return false
}

// IsBold reports whether font-weight value means bold face.
func IsBold(v string) bool {
	switch v = strings.ToLower(strings.TrimSpace(v)); v {
	case "bold", "bolder":
		return true
	case "600", "700", "800", "900":
		return true
	}
	return false
}

// IsItalic reports whether font-style value means slanted face.
func IsItalic(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "italic", "oblique":
		return true
	}
	return false
}

// IsUnderline reports whether text-decoration value asks for underline.
func IsUnderline(v string) bool {
	for _, f := range strings.Fields(strings.ToLower(v)) {
		if f == "underline" {
			return true
		}
	}
	return false
}
