package richtext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// tagKind decides how traverser treats an element.
type tagKind int

const (
	kindInline tagKind = iota
	kindIgnored
	kindBreak
	kindListItem
	kindTableRow
	kindTableCell
	kindList
	kindBlock
)

func classify(n *html.Node) tagKind {
	switch n.DataAtom {
	case atom.Script, atom.Style:
		return kindIgnored
	case atom.Br:
		return kindBreak
	case atom.Li:
		return kindListItem
	case atom.Tr:
		return kindTableRow
	case atom.Td, atom.Th:
		return kindTableCell
	case atom.Ul, atom.Ol:
		return kindList
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Table, atom.Blockquote:
		return kindBlock
	}
	return kindInline
}

// element adapts html node to style.Element.
type element struct {
	n *html.Node
}

func (e element) Tag() string {
	if e.n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(e.n.Data)
}

func (e element) Attr(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if len(a.Namespace) == 0 && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}
