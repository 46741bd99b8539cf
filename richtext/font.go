package richtext

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"hxc/css"
	"hxc/intern"
	"hxc/style"
)

// Font is formatting handle attached to runs. Zero values mean "host
// default". Fonts are created through FontBuilder and must not be modified
// afterwards since they are shared.
type Font struct {
	Family    string
	Size      float64 // points
	Bold      bool
	Italic    bool
	Underline bool
	Color     string // RRGGBB
}

// Key returns canonical signature of the font. Fonts with equal keys are
// interchangeable.
func (f Font) Key() string {
	var sb strings.Builder
	sb.Grow(96)

	sb.WriteString("family:")
	sb.WriteString(orDefault(f.Family))
	sb.WriteString("|size:")
	if f.Size > 0 {
		sb.WriteString(strconv.FormatFloat(f.Size, 'f', -1, 64))
	} else {
		sb.WriteString("default")
	}
	sb.WriteString("|weight:")
	sb.WriteString(pick(f.Bold, "bold", "normal"))
	sb.WriteString("|style:")
	sb.WriteString(pick(f.Italic, "italic", "normal"))
	sb.WriteString("|decoration:")
	sb.WriteString(pick(f.Underline, "underline", "none"))
	sb.WriteString("|color:")
	sb.WriteString(orDefault(f.Color))
	return sb.String()
}

// String is used for debugging.
func (f Font) String() string {
	return f.Key()
}

func orDefault(s string) string {
	if len(s) == 0 {
		return "default"
	}
	return s
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

// FontBuilder turns effective styles into shared Font handles.
type FontBuilder struct {
	units css.Units
	cache *intern.Cache[*Font]
	log   *zap.Logger
}

// NewFontBuilder creates builder which interns fonts in cache.
func NewFontBuilder(cache *intern.Cache[*Font], units css.Units, log *zap.Logger) *FontBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	return &FontBuilder{units: units, cache: cache, log: log.Named("fonts")}
}

// Signature returns signature of the font style m would produce. Properties
// which do not affect fonts do not affect signature.
func (b *FontBuilder) Signature(m style.Map) string {
	f, _ := b.describe(m)
	return f.Key()
}

// Build returns interned font for style m. Values which cannot be understood
// are reported and left at host defaults.
func (b *FontBuilder) Build(m style.Map) *Font {
	f, rejected := b.describe(m)
	return b.cache.GetOrCreate(f.Key(), func() *Font {
		for _, p := range rejected {
			b.log.Debug("Unable to apply property to font, using default", zap.String("property", string(p)), zap.String("value", m[p]))
		}
		font := f
		return &font
	})
}

// describe normalizes font properties of m. It also returns properties which
// were set but could not be applied.
func (b *FontBuilder) describe(m style.Map) (Font, []style.Property) {
	var (
		f        Font
		rejected []style.Property
		ok       bool
	)

	if v, set := m[style.FontFamily]; set {
		if f.Family, ok = css.FontFamily(v); !ok {
			rejected = append(rejected, style.FontFamily)
		}
	}
	if v, set := m[style.FontSize]; set {
		if f.Size, ok = b.units.FontSize(v); !ok {
			rejected = append(rejected, style.FontSize)
		}
	}
	f.Bold = style.IsBold(m[style.FontWeight])
	f.Italic = style.IsItalic(m[style.FontStyle])
	f.Underline = style.IsUnderline(m[style.TextDecoration])
	if v, set := m[style.Color]; set {
		if c, ok := css.ParseColor(v); ok {
			f.Color = c.Hex()
		} else {
			rejected = append(rejected, style.Color)
		}
	}
	return f, rejected
}
