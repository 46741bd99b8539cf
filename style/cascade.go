package style

import (
	"strconv"
	"strings"

	"hxc/css"
)

// Colors and fonts implied by tags.
const (
	LinkColor     = "#0563C1"
	MonospaceFont = "Courier New"
)

// Element is what cascade needs to know about markup element.
type Element interface {
	// Tag returns lower-cased tag name.
	Tag() string
	// Attr returns attribute value and whether attribute is present.
	Attr(name string) (string, bool)
}

// Resolve computes effective style of an element. Layers from lowest to
// highest precedence: inherited style, tag implied rules, element attributes
// and declarations from inline style attribute. Every layer only adds or
// overwrites properties, inherited map is never modified.
func Resolve(el Element, inherited Map) Map {
	m := inherited.Clone()
	tag := el.Tag()

	applyTag(tag, m)
	applyAttributes(tag, el, m)
	if text, ok := el.Attr("style"); ok {
		applyDeclarations(css.ParseDeclaration(text), m)
	}
	return m
}

func applyTag(tag string, m Map) {
	switch tag {
	case "b", "strong":
		m[FontWeight] = "bold"
	case "i", "em":
		m[FontStyle] = "italic"
	case "u":
		m[TextDecoration] = "underline"
	case "a":
		m[Color] = LinkColor
		m[TextDecoration] = "underline"
	case "code":
		m[FontFamily] = MonospaceFont
	}
}

func applyAttributes(tag string, el Element, m Map) {
	if v, ok := el.Attr("color"); ok {
		m[Color] = v
	}
	if v, ok := el.Attr("bgcolor"); ok {
		m[BackgroundColor] = v
	}
	if tag != "font" {
		return
	}
	// legacy <font face size color>
	if v, ok := el.Attr("face"); ok {
		m[FontFamily] = v
	}
	if v, ok := el.Attr("size"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			m[FontSize] = strconv.Itoa(10 + n)
		}
	}
}

func applyDeclarations(decls css.Declarations, m Map) {
	for name, value := range decls {
		if p, ok := Known(name); ok {
			m[p] = value
		}
	}
}
