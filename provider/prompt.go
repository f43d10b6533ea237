package provider

import (
	"fmt"
	"strings"

	"ghosttab/suggest"
	"ghosttab/utils"
)

const systemPrompt = `You are an inline code completion engine. Given a source file with the marker ` + suggest.CursorSentinel + ` at the user's cursor, propose the edits the user is most likely about to make.

Respond ONLY with one or more change blocks in exactly this format:

<change><search><![CDATA[text to find]]></search><replace><![CDATA[replacement text]]></replace></change>

Rules:
- The search text must be copied verbatim from the file, including whitespace.
- To insert at the cursor without replacing anything, use ` + suggest.CursorSentinel + ` alone as the search text.
- You may place ` + suggest.CursorSentinel + ` inside the replace text to indicate where the cursor should land after the edit.
- Keep edits small and close to the cursor. Do not rewrite unrelated code.
- Output nothing outside the change blocks.`

// BuildPrompt renders the system and user messages for a suggestion
// request. The document is trimmed to maxContextTokens around the cursor
// and the cursor sentinel is spliced into the visible text.
func BuildPrompt(req *Request, maxContextTokens int) (string, string) {
	lines, row, col, _, trimmed := utils.TrimContentAroundCursor(req.Lines, req.CursorRow-1, req.CursorCol, maxContextTokens)

	window := make([]string, len(lines))
	copy(window, lines)
	if row >= 0 && row < len(window) {
		line := window[row]
		if col > len(line) {
			col = len(line)
		}
		window[row] = line[:col] + suggest.CursorSentinel + line[col:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", req.Path)
	if trimmed {
		b.WriteString("(excerpt around the cursor)\n")
	}
	b.WriteString("```\n")
	b.WriteString(strings.Join(window, "\n"))
	b.WriteString("\n```\n")

	return systemPrompt, b.String()
}
