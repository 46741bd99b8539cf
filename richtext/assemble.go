package richtext

import (
	"hxc/common"
)

// Assemble enforces maxLength on fragment. When text is longer its head is
// kept and suffix appended so result has exactly maxLength characters. With
// clipping overflow runs are cut at the kept head, otherwise they are left
// untouched and host is expected to cope. Non-positive maxLength disables the
// limit. Second result reports whether text was truncated.
func Assemble(frag Fragment, maxLength int, suffix string, overflow common.RunOverflow) (Fragment, bool) {
	if maxLength <= 0 || frag.Len() <= maxLength {
		return frag, false
	}

	sfx := []rune(suffix)
	keep := maxLength - len(sfx)
	if keep < 0 {
		keep, sfx = 0, sfx[:maxLength]
	}

	runes := []rune(frag.Text)
	out := Fragment{Text: string(runes[:keep]) + string(sfx)}
	if !overflow.Clips() {
		out.Runs = frag.Runs
		return out, true
	}
	for _, r := range frag.Runs {
		if r.Start >= keep {
			continue
		}
		r.End = min(r.End, keep)
		if r.End > r.Start {
			out.Runs = append(out.Runs, r)
		}
	}
	return out, true
}
