package richtext

import (
	"golang.org/x/net/html"

	"hxc/style"
	"hxc/utils/debug"
)

func (k tagKind) String() string {
	switch k {
	case kindIgnored:
		return "ignored"
	case kindBreak:
		return "break"
	case kindListItem:
		return "list-item"
	case kindTableRow:
		return "table-row"
	case kindTableCell:
		return "table-cell"
	case kindList:
		return "list"
	case kindBlock:
		return "block"
	}
	return "inline"
}

// DumpTree describes how compiler sees markup: kind of every element, styles
// it resolves to and fonts of elements producing runs.
func (c *Compiler) DumpTree(root *html.Node) string {
	tw := debug.NewTreeWriter()
	if root != nil {
		c.dumpNode(tw, root, 0, style.Map{})
	}
	return tw.String()
}

func (c *Compiler) dumpNode(tw *debug.TreeWriter, n *html.Node, depth int, inherited style.Map) {
	switch n.Type {
	case html.TextNode:
		tw.TextBlock(depth, "text", normalizeText(n.Data))
		return
	case html.ElementNode, html.DocumentNode:
	default:
		return
	}

	el := element{n}
	kind := classify(n)
	tw.Line(depth, "<%s> %s", el.Tag(), kind)
	if kind == kindIgnored || kind == kindBreak {
		return
	}

	st := style.Resolve(el, inherited)
	if style.Changed(st, inherited) {
		kv := make(map[string]string, len(st))
		for p, v := range st {
			kv[string(p)] = v
		}
		tw.Map(depth+1, "style", kv)
		if kind == kindInline {
			tw.Line(depth+1, "font: %s", c.fonts.Signature(st))
		}
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.dumpNode(tw, ch, depth+1, st)
	}
}
