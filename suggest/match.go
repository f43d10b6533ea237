package suggest

import "strings"

// FindBestMatch locates search within doc and returns the matched span as
// byte offsets [start, end). Matching is attempted in order of strictness:
//
//  1. Exact substring match.
//  2. If search ends with a newline, retry without it, accepting only when
//     the document continues with a newline (or ends) at the match end.
//  3. Whitespace-normalized match (CRLF/CR to LF, tabs to 4 spaces,
//     trailing per-line whitespace stripped), mapped back to original
//     document offsets.
//  4. Search trimmed of leading/trailing whitespace.
//
// Newlines must match newlines: a space or tab is never treated as
// equivalent to \n. Returns (-1, -1) when no candidate span exists.
func FindBestMatch(doc, search string) (int, int) {
	if search == "" {
		return -1, -1
	}

	if i := strings.Index(doc, search); i >= 0 {
		return i, i + len(search)
	}

	if strings.HasSuffix(search, "\n") {
		if start, end, ok := matchWithoutTrailingNewline(doc, search); ok {
			return start, end
		}
	}

	if start, end, ok := matchNormalized(doc, search); ok {
		return start, end
	}

	// Last resort: trimmed search. A search that differs only by its
	// trailing newline stays with the stricter retry above; trimming it
	// here would allow mid-line matches the newline was meant to forbid.
	trimmed := strings.TrimSpace(search)
	if trimmed != "" && trimmed != search && search != trimmed+"\n" {
		if i := strings.Index(doc, trimmed); i >= 0 {
			return i, i + len(trimmed)
		}
	}

	return -1, -1
}

// matchWithoutTrailingNewline retries the match with the trailing newline
// dropped, accepting only when the next document character is a newline or
// end-of-text. This avoids false positives mid-line.
func matchWithoutTrailingNewline(doc, search string) (int, int, bool) {
	body := search[:len(search)-1]
	if body == "" {
		return 0, 0, false
	}
	from := 0
	for {
		i := strings.Index(doc[from:], body)
		if i < 0 {
			return 0, 0, false
		}
		start := from + i
		end := start + len(body)
		if end == len(doc) {
			return start, end, true
		}
		if doc[end] == '\n' {
			return start, end + 1, true
		}
		from = start + 1
	}
}

// matchNormalized matches the whitespace-normalized forms of doc and
// search, then maps the normalized offsets back onto the original document.
func matchNormalized(doc, search string) (int, int, bool) {
	normDoc, offsets := normalizeWithOffsets(doc)
	normSearch, _ := normalizeWithOffsets(search)
	if normSearch == "" {
		return 0, 0, false
	}

	i := strings.Index(normDoc, normSearch)
	if i < 0 {
		return 0, 0, false
	}

	start := offsets[i]
	var end int
	if i+len(normSearch) < len(offsets) {
		end = offsets[i+len(normSearch)]
	} else {
		end = len(doc)
	}
	return start, end, true
}

// normalizeWithOffsets produces the normalized form of s plus a parallel
// slice mapping each normalized byte (and the position one past the end)
// to its originating offset in s. Line-structural whitespace is preserved:
// only CR conversion, tab expansion, and trailing-whitespace stripping are
// applied, never a newline-to-space equivalence.
func normalizeWithOffsets(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)

	// Pending run of spaces/tabs; dropped when a newline follows (trailing
	// whitespace) and flushed when real content follows.
	type pendingByte struct {
		ch  byte
		off int
	}
	var pending []pendingByte

	flush := func() {
		for _, p := range pending {
			if p.ch == '\t' {
				for range 4 {
					b.WriteByte(' ')
					offsets = append(offsets, p.off)
				}
			} else {
				b.WriteByte(p.ch)
				offsets = append(offsets, p.off)
			}
		}
		pending = pending[:0]
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case ' ', '\t':
			pending = append(pending, pendingByte{c, i})
		case '\r':
			pending = pending[:0]
			b.WriteByte('\n')
			offsets = append(offsets, i)
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
			pending = pending[:0]
			b.WriteByte('\n')
			offsets = append(offsets, i)
		default:
			flush()
			b.WriteByte(c)
			offsets = append(offsets, i)
		}
	}
	flush()
	offsets = append(offsets, len(s))

	return b.String(), offsets
}

// lineOfOffset returns the 1-indexed line containing the byte offset
func lineOfOffset(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}
