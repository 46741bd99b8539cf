package links

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	if err != nil {
		t.Fatal(err)
	}
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}

func TestFirstHref(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
		found  bool
	}{
		{"none", "<p>plain</p>", "", false},
		{"single", `<a href="http://a.example">x</a>`, "http://a.example", true},
		{"document order", `<div><p><a href="first">1</a></p></div><a href="second">2</a>`, "first", true},
		{"nested before sibling", `<p><span><a href="deep">d</a></span></p><a href="later">l</a>`, "deep", true},
		{"anchor without href", `<a name="top">t</a><a href="real">r</a>`, "real", true},
		{"blank href skipped", `<a href="  ">t</a><a href="real">r</a>`, "real", true},
		{"only blank", `<a href="">t</a>`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FirstHref(parse(t, tt.markup))
			if got != tt.want || found != tt.found {
				t.Errorf("FirstHref() = %q, %v, want %q, %v", got, found, tt.want, tt.found)
			}
		})
	}
	if _, ok := FirstHref(nil); ok {
		t.Error("FirstHref(nil) found link")
	}
}

type target struct {
	cell, url string
	err       error
}

func (t *target) SetHyperlink(cell, url string) error {
	t.cell, t.url = cell, url
	return t.err
}

func TestApply(t *testing.T) {
	tg := &target{}
	found, err := Apply(parse(t, `<a href="x">x</a>`), tg, "C3")
	if err != nil || !found {
		t.Fatalf("Apply() = %v, %v", found, err)
	}
	if tg.cell != "C3" || tg.url != "x" {
		t.Errorf("hyperlink set to %s -> %s", tg.cell, tg.url)
	}

	tg = &target{err: errors.New("boom")}
	if _, err := Apply(parse(t, `<a href="x">x</a>`), tg, "C3"); err == nil {
		t.Error("target error was lost")
	}

	tg = &target{}
	if found, _ := Apply(parse(t, `no links`), tg, "C3"); found || tg.cell != "" {
		t.Error("hyperlink set without anchors")
	}
}
