// The only reason this package exists is that both configuration and the
// compiler need these enums and config must not import richtext. So enums
// live in a separate package.
package common

//go:generate go tool go-enum --marshal --names

// Numbering of ordered lists which are nested inside other lists.
// nested: every list keeps its own counter, inner lists do not disturb outer ones.
// flat: one list state per conversion, inner list overwrites it and leaving
// any list resets it to unordered.
// ENUM(nested, flat)
type ListNumbering int

// What to do with formatting runs which extend past truncated text.
// ENUM(clip, keep)
type RunOverflow int

// Clips reports whether runs have to be adjusted to truncated text.
func (o RunOverflow) Clips() bool {
	return o == RunOverflowClip
}
