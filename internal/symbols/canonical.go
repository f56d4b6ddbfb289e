package symbols

import "strings"

// EraseType returns the erased form of a declared type: the text before the
// first '<', trimmed. Text without type arguments is returned trimmed.
//
// Erasure is textual. Imports are not resolved, so two types with the same
// head but different packages compare equal, and an array suffix after a
// type argument list is dropped along with the list.
func EraseType(full string) string {
	if i := strings.IndexByte(full, '<'); i >= 0 {
		return strings.TrimSpace(full[:i])
	}
	return strings.TrimSpace(full)
}

// NormalizeType collapses formatting in a declared type so that layout-only
// edits compare equal: `Map< K ,V >` becomes `Map<K, V>`. A trailing `...`
// becomes `[]`.
func NormalizeType(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' && (tight(s[i-1]) || (i+1 < len(s) && tight(s[i+1]))) {
			continue
		}
		b.WriteByte(c)
		if c == ',' {
			b.WriteByte(' ')
		}
	}

	out := b.String()
	if strings.HasSuffix(out, "...") {
		out = strings.TrimSuffix(out, "...") + "[]"
	}
	return out
}

func tight(c byte) bool {
	switch c {
	case '<', '>', '[', ']', '.', ',':
		return true
	}
	return false
}
