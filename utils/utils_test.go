package utils

import (
	"strings"
	"testing"

	"ghosttab/assert"
)

func TestTrimContentAroundCursor_NoTrimWhenSmall(t *testing.T) {
	lines := []string{"a", "b", "c"}

	out, row, col, start, trimmed := TrimContentAroundCursor(lines, 1, 0, 1000)

	assert.Equal(t, 3, len(out), "all lines kept")
	assert.Equal(t, 1, row, "cursor row unchanged")
	assert.Equal(t, 0, col, "cursor col unchanged")
	assert.Equal(t, 0, start, "no window offset")
	assert.False(t, trimmed, "not trimmed")
}

func TestTrimContentAroundCursor_EmptyFile(t *testing.T) {
	out, row, _, _, trimmed := TrimContentAroundCursor(nil, 0, 0, 100)

	assert.Equal(t, 0, len(out), "empty stays empty")
	assert.Equal(t, 0, row, "row zero")
	assert.False(t, trimmed, "not trimmed")
}

func TestTrimContentAroundCursor_WindowsAroundCursor(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = strings.Repeat("x", 20)
	}

	out, row, _, start, trimmed := TrimContentAroundCursor(lines, 50, 0, 100)

	assert.True(t, trimmed, "large file trimmed")
	assert.True(t, len(out) < 100, "window smaller than file")
	assert.Equal(t, 50-start, row, "cursor row consistent with window offset")
	assert.True(t, row >= 0 && row < len(out), "cursor inside window")
	assert.Equal(t, strings.Repeat("x", 20), out[row], "cursor line preserved")
}

func TestTrimContentAroundCursor_CursorNearTop(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = strings.Repeat("y", 20)
	}

	out, row, _, start, trimmed := TrimContentAroundCursor(lines, 0, 0, 100)

	assert.True(t, trimmed, "trimmed")
	assert.Equal(t, 0, start, "window pinned to top")
	assert.Equal(t, 0, row, "cursor at window start")
	assert.True(t, len(out) >= 1, "window non-empty")
}

func TestTrimContentAroundCursor_ClampsCursor(t *testing.T) {
	lines := []string{"a", "b"}

	_, row, _, _, _ := TrimContentAroundCursor(lines, 99, 0, 1000)
	assert.Equal(t, 1, row, "row clamped to last line")

	_, row, _, _, _ = TrimContentAroundCursor(lines, -5, 0, 1000)
	assert.Equal(t, 0, row, "negative row clamped to first line")
}

func TestEstimateCharsFromTokens(t *testing.T) {
	assert.Equal(t, 200, EstimateCharsFromTokens(100), "chars per token estimate")
}
