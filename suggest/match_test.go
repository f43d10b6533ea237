package suggest

import (
	"testing"

	"ghosttab/assert"
)

func TestFindBestMatch_Exact(t *testing.T) {
	doc := "alpha\nbeta\ngamma"
	start, end := FindBestMatch(doc, "beta")

	assert.Equal(t, 6, start, "match start")
	assert.Equal(t, 10, end, "match end")
}

func TestFindBestMatch_EmptySearch(t *testing.T) {
	start, end := FindBestMatch("anything", "")

	assert.Equal(t, -1, start, "empty search start")
	assert.Equal(t, -1, end, "empty search end")
}

func TestFindBestMatch_NotFound(t *testing.T) {
	start, end := FindBestMatch("alpha\nbeta", "delta")

	assert.Equal(t, -1, start, "unmatched start")
	assert.Equal(t, -1, end, "unmatched end")
}

func TestFindBestMatch_TrailingNewlineAtEOF(t *testing.T) {
	doc := "alpha\nbeta"
	start, end := FindBestMatch(doc, "beta\n")

	assert.Equal(t, 6, start, "match start")
	assert.Equal(t, 10, end, "match runs to end of document")
}

func TestFindBestMatch_TrailingNewlineMidDocument(t *testing.T) {
	doc := "alpha\nbeta\ngamma"
	start, end := FindBestMatch(doc, "beta\n")

	assert.Equal(t, 6, start, "match start")
	assert.Equal(t, 11, end, "newline included in span")
}

func TestFindBestMatch_TrailingNewlineRejectsMidLine(t *testing.T) {
	// "bet" appears mid-line; the dropped newline must not let it match
	doc := "alphabetagamma"
	start, _ := FindBestMatch(doc, "beta\n")

	assert.Equal(t, -1, start, "mid-line continuation rejected")
}

func TestFindBestMatch_TabsMatchSpaces(t *testing.T) {
	doc := "function test() {\n\treturn true;\n}"
	search := "function test() {\n    return true;\n}"

	start, end := FindBestMatch(doc, search)

	assert.Equal(t, 0, start, "normalized match start")
	assert.Equal(t, len(doc), end, "normalized match spans full document")
}

func TestFindBestMatch_TrailingWhitespaceIgnored(t *testing.T) {
	doc := "alpha   \nbeta"
	start, _ := FindBestMatch(doc, "alpha\nbeta")

	assert.Equal(t, 0, start, "trailing per-line whitespace ignored")
}

func TestFindBestMatch_CRLFMatchesLF(t *testing.T) {
	doc := "alpha\r\nbeta"
	start, _ := FindBestMatch(doc, "alpha\nbeta")

	assert.Equal(t, 0, start, "CRLF document matches LF search")
}

func TestFindBestMatch_NewlineNeverMatchesSpace(t *testing.T) {
	start, _ := FindBestMatch("line1 line2", "line1\nline2")
	assert.Equal(t, -1, start, "newline in search cannot match a space")

	start, _ = FindBestMatch("line1\nline2", "line1 line2")
	assert.Equal(t, -1, start, "space in search cannot match a newline")
}

func TestFindBestMatch_TrimmedFallback(t *testing.T) {
	doc := "alpha\nbeta\ngamma"
	start, end := FindBestMatch(doc, "\n  beta  \n")

	assert.Equal(t, 6, start, "trimmed search located")
	assert.Equal(t, 10, end, "trimmed span end")
}

func TestFindBestMatch_Idempotent(t *testing.T) {
	doc := "function test() {\n\treturn true;\n}"
	search := "function test() {\n    return true;\n}"

	start, end := FindBestMatch(doc, search)
	again, againEnd := FindBestMatch(doc, doc[start:end])

	assert.Equal(t, start, again, "re-matching the matched span is stable")
	assert.Equal(t, end, againEnd, "re-matched span end")
}

func TestLineOfOffset(t *testing.T) {
	text := "aaa\nbbb\nccc"

	assert.Equal(t, 1, lineOfOffset(text, 0), "offset 0")
	assert.Equal(t, 1, lineOfOffset(text, 3), "end of first line")
	assert.Equal(t, 2, lineOfOffset(text, 4), "start of second line")
	assert.Equal(t, 3, lineOfOffset(text, len(text)), "end of text")
}
