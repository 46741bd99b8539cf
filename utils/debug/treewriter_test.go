package debug

import (
	"testing"
)

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{"no depth", 0, "test", nil, "test\n"},
		{"depth 1", 1, "indented", nil, "  indented\n"},
		{"depth 2", 2, "double indent", nil, "    double indent\n"},
		{"with formatting", 1, "<%s> %d", []any{"p", 3}, "  <p> 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tw := NewTreeWriter()
	tw.TextBlock(1, "text", "a\nb ")
	tw.TextBlock(0, "empty", "")
	want := "  text: \"a\\nb \"\nempty: \n"
	if got := tw.String(); got != want {
		t.Errorf("TextBlock() = %q, want %q", got, want)
	}
}

func TestTreeWriter_Map(t *testing.T) {
	tw := NewTreeWriter()
	tw.Map(1, "style", map[string]string{"font-weight": "bold", "color": "red"})
	tw.Map(0, "none", nil)
	want := "  style: color=\"red\" font-weight=\"bold\"\nnone:\n"
	if got := tw.String(); got != want {
		t.Errorf("Map() = %q, want %q", got, want)
	}
}

func TestTreeWriter_Accumulates(t *testing.T) {
	tw := NewTreeWriter()
	if tw.String() != "" {
		t.Error("Expected empty string from new TreeWriter")
	}
	tw.Line(0, "root")
	tw.Line(1, "child")
	if got, want := tw.String(), "root\n  child\n"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
