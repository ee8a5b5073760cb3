// Package match implements fragment-group matching against line text.
// Matching is purely literal substring containment: there is no word
// boundary awareness, so a fragment may match inside a larger token.
package match

import "strings"

// Fold normalizes s under the given case policy. Case-insensitive jobs fold
// both line text and fragments through this before comparison.
func Fold(s string, ignoreCase bool) string {
	if ignoreCase {
		return strings.ToLower(s)
	}
	return s
}

// Fragments reports whether every fragment occurs in line. Inputs must
// already share a case policy (see Fold).
//
// With requireOrder unset, fragments may appear anywhere, in any order,
// possibly overlapping. With requireOrder set, fragments must appear in the
// given order at non-overlapping positions: fragment i is searched from the
// end of fragment i-1's match.
func Fragments(line string, fragments []string, requireOrder bool) bool {
	if len(fragments) == 0 {
		return false
	}

	if requireOrder {
		pos := 0
		for _, f := range fragments {
			idx := strings.Index(line[pos:], f)
			if idx < 0 {
				return false
			}
			pos += idx + len(f)
		}
		return true
	}

	for _, f := range fragments {
		if !strings.Contains(line, f) {
			return false
		}
	}
	return true
}

// Line is the convenience form: folds both sides per the case policy, then
// applies Fragments.
func Line(lineText string, fragments []string, ignoreCase, requireOrder bool) bool {
	line := Fold(lineText, ignoreCase)
	if !ignoreCase {
		return Fragments(line, fragments, requireOrder)
	}
	folded := make([]string, len(fragments))
	for i, f := range fragments {
		folded[i] = Fold(f, ignoreCase)
	}
	return Fragments(line, folded, requireOrder)
}
