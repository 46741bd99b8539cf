// Package richtext compiles parsed markup fragment into plain text and a list
// of formatting runs suitable for spreadsheet rich text cells.
package richtext

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"hxc/common"
	"hxc/css"
	"hxc/intern"
	"hxc/style"
)

// Textual decorations produced by structure elements.
const (
	Bullet        = "• "
	CellSeparator = " | "
)

// BackgroundFunc receives background colors of block elements in the order
// blocks are finished. Raw color value is passed as found in markup.
type BackgroundFunc func(color string)

// Options controls compilation.
type Options struct {
	Units         css.Units
	ListNumbering common.ListNumbering
}

// Compiler turns markup trees into fragments. It is safe for concurrent use,
// every Compile call keeps its own state.
type Compiler struct {
	fonts     *FontBuilder
	numbering common.ListNumbering
	log       *zap.Logger
}

// NewCompiler creates compiler interning fonts in cache.
func NewCompiler(fonts *intern.Cache[*Font], opts Options, log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	if !opts.ListNumbering.IsValid() {
		opts.ListNumbering = common.ListNumberingNested
	}
	return &Compiler{
		fonts:     NewFontBuilder(fonts, opts.Units, log),
		numbering: opts.ListNumbering,
		log:       log.Named("richtext"),
	}
}

type listState struct {
	ordered bool
	next    int
}

type rowState struct {
	cells int
}

// scope is passed down by value, pointers are shared by all nodes inside the
// same list or table row.
type scope struct {
	list *listState
	row  *rowState
}

// Compile walks tree rooted at root and produces fragment. Root itself is
// treated like any other element. bg may be nil.
func (c *Compiler) Compile(root *html.Node, bg BackgroundFunc) Fragment {
	b := &builder{}
	if root == nil {
		return b.fragment()
	}
	c.walk(b, root, style.Map{}, scope{list: &listState{next: 1}, row: &rowState{}}, bg)

	frag := b.fragment()
	c.log.Debug("Fragment compiled", zap.Int("chars", b.n), zap.Int("runs", len(frag.Runs)))
	return frag
}

func (c *Compiler) walk(b *builder, n *html.Node, inherited style.Map, sc scope, bg BackgroundFunc) {
	switch n.Type {
	case html.TextNode:
		b.text(normalizeText(n.Data))
		return
	case html.ElementNode, html.DocumentNode:
	default:
		return
	}

	kind := classify(n)
	switch kind {
	case kindIgnored:
		return
	case kindBreak:
		b.text("\n")
		return
	}

	st := style.Resolve(element{n}, inherited)

	switch kind {
	case kindListItem:
		if sc.list.ordered {
			b.text(strconv.Itoa(sc.list.next) + ". ")
			sc.list.next++
		} else {
			b.text(Bullet)
		}
		c.children(b, n, st, sc, bg)
		b.text("\n")

	case kindTableRow:
		sc.row = &rowState{}
		c.children(b, n, st, sc, bg)
		b.text("\n")

	case kindTableCell:
		if sc.row.cells > 0 {
			b.text(CellSeparator)
		}
		sc.row.cells++
		c.children(b, n, st, sc, bg)

	case kindList, kindBlock:
		start := b.n
		if kind == kindList {
			sc = c.enterList(sc, n.DataAtom == atom.Ol)
		}
		c.children(b, n, st, sc, bg)
		if kind == kindList {
			c.exitList(sc)
		}
		if b.n > start {
			b.text("\n")
		}
		if v, ok := st[style.BackgroundColor]; ok && bg != nil {
			bg(v)
		}

	default:
		start := b.n
		slot := b.reserve()
		c.children(b, n, st, sc, bg)
		if b.n > start && style.Changed(st, inherited) {
			b.fill(slot, start, b.n, c.fonts.Build(st))
		}
	}
}

func (c *Compiler) children(b *builder, n *html.Node, st style.Map, sc scope, bg BackgroundFunc) {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.walk(b, ch, st, sc, bg)
	}
}

func (c *Compiler) enterList(sc scope, ordered bool) scope {
	if c.numbering == common.ListNumberingFlat {
		sc.list.ordered, sc.list.next = ordered, 1
		return sc
	}
	sc.list = &listState{ordered: ordered, next: 1}
	return sc
}

func (c *Compiler) exitList(sc scope) {
	if c.numbering == common.ListNumberingFlat {
		sc.list.ordered, sc.list.next = false, 1
	}
}

// builder accumulates text and runs. Runs get their slot when element is
// entered, so outer runs precede inner ones starting at the same offset.
type builder struct {
	sb   strings.Builder
	n    int // characters written so far
	runs []Run
}

func (b *builder) text(s string) {
	if len(s) == 0 {
		return
	}
	b.sb.WriteString(s)
	b.n += utf8.RuneCountInString(s)
}

func (b *builder) reserve() int {
	b.runs = append(b.runs, Run{})
	return len(b.runs) - 1
}

func (b *builder) fill(slot, start, end int, f *Font) {
	b.runs[slot] = Run{Start: start, End: end, Font: f}
}

func (b *builder) fragment() Fragment {
	frag := Fragment{Text: b.sb.String()}
	for _, r := range b.runs {
		if r.Font != nil {
			frag.Runs = append(frag.Runs, r)
		}
	}
	return frag
}

// normalizeText replaces non-breaking spaces and collapses runs of line
// breaking whitespace into single space. Ordinary spaces are kept as is.
func normalizeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	inBreak := false
	for _, r := range s {
		switch r {
		case '\t', '\n', '\v', '\f', '\r', '\u0085', '\u2028', '\u2029':
			if !inBreak {
				sb.WriteByte(' ')
				inBreak = true
			}
			continue
		case '\u00a0':
			r = ' '
		}
		inBreak = false
		sb.WriteRune(r)
	}
	return sb.String()
}
