package provider

import (
	"strings"
	"testing"

	"ghosttab/assert"
	"ghosttab/suggest"
)

func TestBuildPrompt_SpliceSentinelAtCursor(t *testing.T) {
	req := &Request{
		Path:      "main.go",
		Lines:     []string{"func main() {", "\tfmt.Println", "}"},
		CursorRow: 2,
		CursorCol: 5,
	}

	system, user := BuildPrompt(req, 0)

	assert.True(t, strings.Contains(system, suggest.CursorSentinel), "system prompt explains the sentinel")
	assert.True(t, strings.Contains(user, "File: main.go"), "user prompt names the file")
	assert.True(t, strings.Contains(user, "\tfmt."+suggest.CursorSentinel+"Println"), "sentinel spliced at cursor column")
	assert.False(t, strings.Contains(user, "excerpt"), "no excerpt note when untrimmed")
}

func TestBuildPrompt_ClampsCursorColumn(t *testing.T) {
	req := &Request{
		Path:      "main.go",
		Lines:     []string{"short"},
		CursorRow: 1,
		CursorCol: 99,
	}

	_, user := BuildPrompt(req, 0)

	assert.True(t, strings.Contains(user, "short"+suggest.CursorSentinel), "sentinel appended at end of line")
}

func TestBuildPrompt_TrimsLargeFiles(t *testing.T) {
	lines := make([]string, 500)
	for i := range lines {
		lines[i] = strings.Repeat("x", 40)
	}
	req := &Request{Path: "big.go", Lines: lines, CursorRow: 250, CursorCol: 0}

	_, user := BuildPrompt(req, 100)

	assert.True(t, strings.Contains(user, "excerpt"), "trimmed prompt notes the excerpt")
	assert.True(t, len(user) < 500*41, "prompt smaller than full file")
	assert.True(t, strings.Contains(user, suggest.CursorSentinel), "sentinel survives trimming")
}
