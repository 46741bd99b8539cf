package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Pixel to point approximation and minimal readable font size used when no
// explicit Units are given.
var (
	PxToPt      = 0.75
	MinFontSize = 8.0
)

// Units controls conversion of font sizes to points. Zero fields fall back to
// package defaults.
type Units struct {
	PxToPt      float64
	MinFontSize float64
}

func (u Units) normalize() Units {
	if u.PxToPt <= 0 {
		u.PxToPt = PxToPt
	}
	if u.MinFontSize <= 0 {
		u.MinFontSize = MinFontSize
	}
	return u
}

// FontSize converts raw font-size value to whole points. Everything except
// digits and dots is ignored, "px" values are scaled, result never goes below
// minimal font size. Returns false when there are no digits to work with.
func (u Units) FontSize(raw string) (float64, bool) {
	u = u.normalize()

	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)
	if len(digits) == 0 {
		return 0, false
	}

	val, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(raw)), "px") {
		val *= u.PxToPt
	}
	return math.Max(u.MinFontSize, math.Round(val)), true
}

// FontSize converts raw font-size value using default units.
func FontSize(raw string) (float64, bool) {
	return Units{}.FontSize(raw)
}

// FontFamily returns first family from the font-family list with quotes
// removed.
func FontFamily(raw string) (string, bool) {
	first, _, _ := strings.Cut(raw, ",")
	name := strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '"' || r == '\'' {
			return -1
		}
		return r
	}, first))
	return name, len(name) > 0
}

// Color is opaque RGB color.
type Color struct {
	R, G, B uint8
}

// Hex returns color as "RRGGBB".
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// String returns color in CSS notation.
func (c Color) String() string {
	return "#" + c.Hex()
}

var namedColors = map[string]Color{
	"black":   {0, 0, 0},
	"white":   {255, 255, 255},
	"red":     {255, 0, 0},
	"green":   {0, 255, 0},
	"blue":    {0, 0, 255},
	"yellow":  {255, 255, 0},
	"gray":    {128, 128, 128},
	"grey":    {128, 128, 128},
	"orange":  {255, 200, 0},
	"purple":  {128, 0, 128},
	"brown":   {165, 42, 42},
	"pink":    {255, 175, 175},
	"cyan":    {0, 255, 255},
	"magenta": {255, 0, 255},
}

// ParseColor understands "#RGB", "#RRGGBB", "rgb(r, g, b)" and a small set of
// named colors. Anything else is reported as no color.
func ParseColor(raw string) (Color, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHexColor(s[1:])
	case strings.HasPrefix(s, "rgb"):
		if c, ok := parseRGBColor(s); ok {
			return c, true
		}
	}
	c, ok := namedColors[s]
	return c, ok
}

func parseHexColor(h string) (Color, bool) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6:
	default:
		return Color{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, false
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
}

// parseRGBColor handles functional notation with three integer components in
// 0-255 range. Anything following closing parenthesis is ignored.
func parseRGBColor(s string) (Color, bool) {
	var (
		comps  []uint8
		opened bool
		comma  = true
	)

	lexer := css.NewLexer(parse.NewInputString(s))
	for {
		tt, data := lexer.Next()
		switch tt {
		case css.WhitespaceToken:
			continue
		case css.FunctionToken:
			if opened || string(data) != "rgb(" {
				return Color{}, false
			}
			opened = true
		case css.IdentToken:
			// "rgb (" is tolerated
			if opened || string(data) != "rgb" {
				return Color{}, false
			}
		case css.LeftParenthesisToken:
			if opened {
				return Color{}, false
			}
			opened = true
		case css.NumberToken:
			if !opened || !comma {
				return Color{}, false
			}
			v, err := strconv.ParseUint(string(data), 10, 8)
			if err != nil {
				return Color{}, false
			}
			comps = append(comps, uint8(v))
			comma = false
		case css.CommaToken:
			if comma {
				return Color{}, false
			}
			comma = true
		case css.RightParenthesisToken:
			if !opened || comma || len(comps) != 3 {
				return Color{}, false
			}
			return Color{R: comps[0], G: comps[1], B: comps[2]}, true
		default:
			return Color{}, false
		}
	}
}
