package richtext

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"hxc/common"
	"hxc/css"
	"hxc/intern"
	"hxc/style"
)

type span struct {
	Start, End int
	Font       string
}

func compile(t *testing.T, markup string, numbering common.ListNumbering) (Fragment, *intern.Cache[*Font]) {
	t.Helper()

	root, err := Parse(markup)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", markup, err)
	}
	cache := intern.New[*Font](true)
	c := NewCompiler(cache, Options{Units: css.Units{PxToPt: 0.75, MinFontSize: 8}, ListNumbering: numbering}, zap.NewNop())
	return c.Compile(root, nil), cache
}

func spans(frag Fragment) []span {
	var out []span
	for _, r := range frag.Runs {
		out = append(out, span{r.Start, r.End, r.Font.Key()})
	}
	return out
}

func fontKey(f Font) string { return f.Key() }

func toMap(kv map[string]string) style.Map {
	m := make(style.Map, len(kv))
	for k, v := range kv {
		m[style.Property(k)] = v
	}
	return m
}

func TestCompile_Text(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"empty", "", ""},
		{"blank", "   \n ", "     "},
		{"plain", "hello", "hello"},
		{"paragraph", "<p>hello</p>", "hello\n"},
		{"empty block", "<div></div>", ""},
		{"nested empty blocks", "<div><p></p></div>after", "after"},
		{"blocks", "<h1>T</h1><p>a</p>", "T\na\n"},
		{"unordered list", "<ul><li>First</li><li>Second</li></ul>", "• First\n• Second\n\n"},
		{"ordered list", "<ol><li>a</li><li>b</li></ol>", "1. a\n2. b\n\n"},
		{"table", "<table><tr><td>A</td><td>B</td></tr></table>", "A | B\n\n"},
		{"table rows", "<table><tr><th>H1</th><th>H2</th></tr><tr><td>1</td><td>2</td></tr></table>", "H1 | H2\n1 | 2\n\n"},
		{"line break", "a<br>b", "a\nb"},
		{"nbsp", "a&nbsp;b", "a b"},
		{"whitespace collapse", "a\n\t\r\nb  c", "a b  c"},
		{"script ignored", "a<script>var x = 1;</script><style>p{}</style>b", "ab"},
		{"comment ignored", "a<!-- nothing -->b", "ab"},
		{"unknown tag inline", "<custom>x</custom>y", "xy"},
		{"blockquote", "<blockquote>q</blockquote>", "q\n"},
		{"lenient markup", "<p><b>unclosed<p>next", "unclosed\nnext\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, _ := compile(t, tt.markup, common.ListNumberingNested)
			if frag.Text != tt.want {
				t.Errorf("text = %q, want %q", frag.Text, tt.want)
			}
		})
	}
}

func TestCompile_Runs(t *testing.T) {
	frag, _ := compile(t, "<p><b>Bold</b> <i>Italic</i> <u>Underline</u></p>", common.ListNumberingNested)

	if frag.Text != "Bold Italic Underline\n" {
		t.Fatalf("text = %q", frag.Text)
	}
	want := []span{
		{0, 4, fontKey(Font{Bold: true})},
		{5, 11, fontKey(Font{Italic: true})},
		{12, 21, fontKey(Font{Underline: true})},
	}
	if diff := cmp.Diff(want, spans(frag)); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_NestedRuns(t *testing.T) {
	frag, _ := compile(t, "<b>x<i>y</i></b>z", common.ListNumberingNested)

	want := []span{
		{0, 2, fontKey(Font{Bold: true})},
		{1, 2, fontKey(Font{Bold: true, Italic: true})},
	}
	if diff := cmp.Diff(want, spans(frag)); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}

	var got []string
	for _, s := range frag.Segments() {
		k := "plain"
		if s.Font != nil {
			k = s.Font.Key()
		}
		got = append(got, s.Text+"="+k)
	}
	wantSeg := []string{
		"x=" + fontKey(Font{Bold: true}),
		"y=" + fontKey(Font{Bold: true, Italic: true}),
		"z=plain",
	}
	if diff := cmp.Diff(wantSeg, got); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_RunsOnlyWhenFontChanges(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   int
	}{
		{"plain span", "<span>x</span>", 0},
		{"repeated bold", "<b><strong>x</strong></b>", 1},
		{"background only", `<span style="background-color: red">x</span>`, 0},
		{"empty bold", "<b></b>x", 0},
		{"font tag", `<font size="2" face="Arial">x</font>`, 1},
		{"link", `<a href="http://example.com">x</a>`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, _ := compile(t, tt.markup, common.ListNumberingNested)
			if len(frag.Runs) != tt.want {
				t.Errorf("got %d runs, want %d: %v", len(frag.Runs), tt.want, spans(frag))
			}
		})
	}
}

func TestCompile_CharacterOffsets(t *testing.T) {
	frag, _ := compile(t, "ü<b>héllo</b>", common.ListNumberingNested)
	want := []span{{1, 6, fontKey(Font{Bold: true})}}
	if diff := cmp.Diff(want, spans(frag)); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_FontsAreShared(t *testing.T) {
	frag, cache := compile(t, `<span style="color:red">A</span><span style="color:#FF0000">B</span>`, common.ListNumberingNested)

	if len(frag.Runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(frag.Runs))
	}
	if frag.Runs[0].Font != frag.Runs[1].Font {
		t.Error("runs use different font instances")
	}
	if cache.Len() != 1 {
		t.Errorf("cache holds %d fonts, want 1", cache.Len())
	}
	if frag.Runs[0].Font.Color != "FF0000" {
		t.Errorf("color = %q", frag.Runs[0].Font.Color)
	}
}

func TestCompile_FontProperties(t *testing.T) {
	frag, _ := compile(t, `<span style="font-family: 'Times New Roman', serif; font-size: 16px; font-weight: 700; color: rgb(0, 128, 255)">x</span>`, common.ListNumberingNested)

	if len(frag.Runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(frag.Runs))
	}
	want := Font{Family: "Times New Roman", Size: 12, Bold: true, Color: "0080FF"}
	if diff := cmp.Diff(want, *frag.Runs[0].Font); diff != "" {
		t.Errorf("font mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_BadValuesKeepDefaults(t *testing.T) {
	frag, _ := compile(t, `<span style="color: notacolor; font-size: huge; font-weight: bold">x</span>`, common.ListNumberingNested)

	if len(frag.Runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(frag.Runs))
	}
	if diff := cmp.Diff(Font{Bold: true}, *frag.Runs[0].Font); diff != "" {
		t.Errorf("font mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_ListNumbering(t *testing.T) {
	const markup = "<ol><li>a<ol><li>b</li><li>c</li></ol></li><li>d</li></ol>"

	tests := []struct {
		numbering common.ListNumbering
		want      string
	}{
		{common.ListNumberingNested, "1. a1. b\n2. c\n\n\n2. d\n\n"},
		{common.ListNumberingFlat, "1. a1. b\n2. c\n\n\n• d\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.numbering.String(), func(t *testing.T) {
			frag, _ := compile(t, markup, tt.numbering)
			if frag.Text != tt.want {
				t.Errorf("text = %q, want %q", frag.Text, tt.want)
			}
		})
	}
}

func TestCompile_SiblingListsRestartNumbering(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "ordered after ordered",
			markup: "<ol><li>a</li><li>b</li></ol><ol><li>c</li></ol>",
			want:   "1. a\n2. b\n\n1. c\n\n",
		},
		{
			name:   "unordered in between",
			markup: "<ol><li>a</li><li>b</li></ol><ul><li>x</li></ul><ol><li>c</li></ol>",
			want:   "1. a\n2. b\n\n• x\n\n1. c\n\n",
		},
	}
	for _, numbering := range []common.ListNumbering{common.ListNumberingNested, common.ListNumberingFlat} {
		for _, tt := range tests {
			t.Run(numbering.String()+"/"+tt.name, func(t *testing.T) {
				frag, _ := compile(t, tt.markup, numbering)
				if frag.Text != tt.want {
					t.Errorf("text = %q, want %q", frag.Text, tt.want)
				}
			})
		}
	}
}

func TestCompile_ListItemOutsideList(t *testing.T) {
	frag, _ := compile(t, "<li>x</li>", common.ListNumberingNested)
	if frag.Text != "• x\n" {
		t.Errorf("text = %q", frag.Text)
	}
}

func TestCompile_Backgrounds(t *testing.T) {
	root, err := Parse(`<div style="background-color: yellow"><p bgcolor="red">x</p><span style="background-color: blue">y</span></div><p>z</p>`)
	if err != nil {
		t.Fatal(err)
	}
	c := NewCompiler(intern.New[*Font](true), Options{}, nil)

	var got []string
	c.Compile(root, func(color string) { got = append(got, color) })

	if diff := cmp.Diff([]string{"red", "yellow"}, got); diff != "" {
		t.Errorf("background calls mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_NilRoot(t *testing.T) {
	c := NewCompiler(intern.New[*Font](false), Options{}, nil)
	frag := c.Compile(nil, nil)
	if frag.Text != "" || len(frag.Runs) != 0 {
		t.Errorf("unexpected fragment %+v", frag)
	}
}

func TestCompile_DisabledCache(t *testing.T) {
	root, err := Parse(`<b>a</b><b>b</b>`)
	if err != nil {
		t.Fatal(err)
	}
	cache := intern.New[*Font](false)
	frag := NewCompiler(cache, Options{}, nil).Compile(root, nil)

	if len(frag.Runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(frag.Runs))
	}
	if frag.Runs[0].Font == frag.Runs[1].Font {
		t.Error("disabled cache returned shared font")
	}
	if *frag.Runs[0].Font != *frag.Runs[1].Font {
		t.Error("fonts differ in value")
	}
}

func TestFontBuilder_Signature(t *testing.T) {
	b := NewFontBuilder(intern.New[*Font](true), css.Units{}, nil)

	same := [][2]map[string]string{
		{{"color": "red"}, {"color": "#ff0000"}},
		{{"font-weight": "bold"}, {"font-weight": "700"}},
		{{"font-size": "16px"}, {"font-size": "12"}},
		{{"color": "red", "background-color": "blue"}, {"color": "red"}},
	}
	for _, pair := range same {
		a, c := toMap(pair[0]), toMap(pair[1])
		if b.Signature(a) != b.Signature(c) {
			t.Errorf("signatures differ: %v vs %v", pair[0], pair[1])
		}
	}
	if b.Signature(toMap(map[string]string{"color": "red"})) == b.Signature(toMap(map[string]string{"color": "blue"})) {
		t.Error("signatures of different colors are equal")
	}
}
