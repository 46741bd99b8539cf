// Package links extracts hyperlink target of a markup fragment.
package links

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Target is what could be attached to a cell as hyperlink.
type Target interface {
	SetHyperlink(cell, url string) error
}

// FirstHref returns href of the first anchor under root in document order.
// Anchors with blank href are skipped.
func FirstHref(root *html.Node) (string, bool) {
	if root == nil {
		return "", false
	}

	var href string
	goquery.NewDocumentFromNode(root).Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("href")
		href = strings.TrimSpace(v)
		return len(href) == 0
	})
	return href, len(href) > 0
}

// Apply attaches first hyperlink of the fragment to cell. Returns whether link
// was found.
func Apply(root *html.Node, target Target, cell string) (bool, error) {
	href, ok := FirstHref(root)
	if !ok {
		return false, nil
	}
	return true, target.SetHyperlink(cell, href)
}
