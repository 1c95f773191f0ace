// Package visual validates the presentation identifiers ("VSIDs")
// agents may register at connect time: a 1-2 character text paired with
// one of a fixed enumeration of colors, with a small static table of
// reserved combinations the server refuses to hand out.
package visual
