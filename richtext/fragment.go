package richtext

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// Run applies font to characters [Start, End) of fragment text. Offsets count
// characters (runes), not bytes.
type Run struct {
	Start int
	End   int
	Font  *Font
}

// Fragment is compiled markup: plain text and formatting runs over it. Runs
// are ordered by Start. When runs overlap the later one wins for the
// overlapping characters.
type Fragment struct {
	Text string
	Runs []Run
}

// Len returns length of the text in characters.
func (f Fragment) Len() int {
	return utf8.RuneCountInString(f.Text)
}

// Segment is piece of text with single font, nil font means host default.
type Segment struct {
	Text string
	Font *Font
}

// Segments flattens runs into consecutive non-overlapping pieces covering the
// whole text, resolving overlaps in favor of later runs.
func (f Fragment) Segments() []Segment {
	if len(f.Text) == 0 {
		return nil
	}

	runes := []rune(f.Text)
	owner := make([]*Font, len(runes))
	for _, r := range f.Runs {
		for i := max(r.Start, 0); i < min(r.End, len(runes)); i++ {
			owner[i] = r.Font
		}
	}

	var segments []Segment
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i < len(runes) && owner[i] == owner[start] {
			continue
		}
		segments = append(segments, Segment{Text: string(runes[start:i]), Font: owner[start]})
		start = i
	}
	return segments
}

// WriteTo dumps fragment in human readable form, implementing io.WriterTo.
func (f Fragment) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := fmt.Fprintf(w, "text (%d chars): %q\n", f.Len(), f.Text)
	total += int64(n)
	if err != nil {
		return total, err
	}
	runes := []rune(f.Text)
	for i, r := range f.Runs {
		covered := string(runes[min(max(r.Start, 0), len(runes)):min(max(r.End, 0), len(runes))])
		n, err = fmt.Fprintf(w, "run %d [%d, %d) %q: %s\n", i, r.Start, r.End, covered, r.Font)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
