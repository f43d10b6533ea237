package buffer

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/neovim/go-client/nvim"

	"ghosttab/logger"
	"ghosttab/suggest"
)

type Config struct {
	NsID int
}

// NvimBuffer mirrors the state of the editor's current buffer and owns all
// round-trips to it: snapshotting for a suggestion request, driving the
// lua render layer, and applying accepted groups.
type NvimBuffer struct {
	client *nvim.Nvim

	lines   []string
	row     int // 1-indexed
	col     int // 0-indexed
	path    string
	version int
	id      nvim.Buffer

	viewportTop    int // 1-indexed
	viewportBottom int

	config Config
}

// SyncResult reports what changed during a Sync
type SyncResult struct {
	BufferChanged bool
	OldPath       string
	NewPath       string
}

func New(config Config) *NvimBuffer {
	return &NvimBuffer{
		lines:  []string{},
		row:    1,
		config: config,
	}
}

// SetClient stores the nvim client for all buffer operations
func (b *NvimBuffer) SetClient(n *nvim.Nvim) {
	b.client = n
}

func (b *NvimBuffer) Lines() []string { return b.lines }

func (b *NvimBuffer) Row() int { return b.row }

func (b *NvimBuffer) Col() int { return b.col }

func (b *NvimBuffer) Path() string { return b.path }

func (b *NvimBuffer) Version() int { return b.version }

func (b *NvimBuffer) ViewportBounds() (top, bottom int) {
	return b.viewportTop, b.viewportBottom
}

// Snapshot freezes the synced state into an immutable document for one
// suggestion session.
func (b *NvimBuffer) Snapshot() *suggest.Document {
	return &suggest.Document{
		Path: b.path,
		Text: strings.Join(b.lines, "\n"),
		Row:  b.row,
		Col:  b.col,
	}
}

// Sync reads current state from the editor in a single batched round-trip
func (b *NvimBuffer) Sync(workspacePath string) (*SyncResult, error) {
	defer logger.Trace("buffer.Sync")()
	if b.client == nil {
		return nil, fmt.Errorf("nvim client not set")
	}

	batch := b.client.NewBatch()

	var currentBuf nvim.Buffer
	var path string
	var lines [][]byte
	var cursor [2]int
	var viewportBounds [2]int
	var nvimCwd string

	batch.CurrentBuffer(&currentBuf)
	batch.BufferName(nvim.Buffer(0), &path)
	batch.BufferLines(nvim.Buffer(0), 0, -1, false, &lines)
	batch.WindowCursor(nvim.Window(0), &cursor)
	batch.ExecLua(`return vim.fn.getcwd()`, &nvimCwd, nil)
	batch.ExecLua(`
		return {vim.fn.line("w0"), vim.fn.line("w$")}
	`, &viewportBounds, nil)

	if err := batch.Execute(); err != nil {
		logger.Error("error executing sync batch: %v", err)
		return nil, err
	}

	linesStr := make([]string, len(lines))
	for i, line := range lines {
		linesStr[i] = string(line)
	}

	oldPath := b.path

	b.lines = linesStr
	b.row = cursor[0]
	b.col = cursor[1]
	b.viewportTop = viewportBounds[0]
	b.viewportBottom = viewportBounds[1]
	b.path = makeRelativeToWorkspace(path, nvimCwd)

	if b.id != currentBuf {
		b.id = currentBuf
		b.version = 0
		return &SyncResult{BufferChanged: true, OldPath: oldPath, NewPath: b.path}, nil
	}

	return &SyncResult{BufferChanged: false, OldPath: oldPath, NewPath: b.path}, nil
}

func makeRelativeToWorkspace(absolutePath, workspacePath string) string {
	absolutePath = filepath.Clean(absolutePath)
	workspacePath = filepath.Clean(workspacePath)

	if relativePath, found := strings.CutPrefix(absolutePath, workspacePath); found {
		return strings.TrimPrefix(relativePath, string(filepath.Separator))
	}
	return absolutePath
}

// RenderSuggestions pushes the current group set to the lua layer. The
// group at inlineIndex (when >= 0) renders as inline ghost text using
// inlineText at the cursor; every other group renders as decorations.
func (b *NvimBuffer) RenderSuggestions(f *suggest.File, inlineIndex int, inlineText string) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}

	payload := map[string]any{
		"ns_id":       b.config.NsID,
		"selected":    f.SelectedIndex(),
		"cursor_row":  b.row,
		"cursor_col":  b.col,
		"inline":      inlineIndex,
		"inline_text": inlineText,
		"groups":      groupsToLua(f.Groups()),
	}

	if jsonData, err := json.Marshal(payload); err == nil {
		logger.Debug("sending to lua on_suggestions_ready: %s", string(jsonData))
	}
	b.executeLuaFunction("require('ghosttab').on_suggestions_ready(...)", payload)
	return nil
}

func groupsToLua(groups []*suggest.Group) []map[string]any {
	out := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		var oldLines, newLines []string
		for _, op := range g.Deletions() {
			if !op.Placeholder {
				oldLines = append(oldLines, op.Content)
			}
		}
		for _, op := range g.Additions() {
			newLines = append(newLines, op.Content)
		}
		out = append(out, map[string]any{
			"kind":       string(g.Kind()),
			"start_line": g.MinOldLine(),
			"old_lines":  oldLines,
			"new_lines":  newLines,
		})
	}
	return out
}

// ClearUI removes all suggestion UI
func (b *NvimBuffer) ClearUI() error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	b.executeLuaFunction("require('ghosttab').on_clear()")
	return nil
}

// ApplyGroup writes one accepted group into the editor buffer and mirrors
// the edit locally. Placeholder deletions claim no text, so a group with
// only placeholders inserts rather than replaces.
func (b *NvimBuffer) ApplyGroup(g *suggest.Group) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}

	var newLines []string
	for _, op := range g.Additions() {
		newLines = append(newLines, op.Content)
	}

	startLine := -1
	endLine := -1 // exclusive, 0-indexed for SetBufferLines
	for _, op := range g.Deletions() {
		if op.Placeholder {
			continue
		}
		if startLine == -1 || op.OldLine < startLine {
			startLine = op.OldLine
		}
		if op.OldLine > endLine {
			endLine = op.OldLine
		}
	}

	var start, end int
	if startLine == -1 {
		// Pure insertion before the group's first line
		start = g.MinOldLine() - 1
		end = start
	} else {
		start = startLine - 1
		end = endLine
	}
	if start < 0 {
		start = 0
	}
	if end > len(b.lines) {
		end = len(b.lines)
	}

	newBytes := make([][]byte, len(newLines))
	for i, l := range newLines {
		newBytes[i] = []byte(l)
	}

	batch := b.client.NewBatch()
	batch.SetBufferLines(b.id, start, end, false, newBytes)
	if len(newLines) > 0 {
		lastLine := start + len(newLines)
		batch.SetWindowCursor(nvim.Window(0), [2]int{lastLine, maxCol(newLines)})
	}
	if err := batch.Execute(); err != nil {
		logger.Error("error applying group: %v", err)
		return err
	}

	// Mirror the edit so subsequent groups see consistent line numbers
	// without a round-trip.
	mirrored := make([]string, 0, len(b.lines)-(end-start)+len(newLines))
	mirrored = append(mirrored, b.lines[:start]...)
	mirrored = append(mirrored, newLines...)
	if end < len(b.lines) {
		mirrored = append(mirrored, b.lines[end:]...)
	}
	b.lines = mirrored
	b.version++

	return nil
}

func maxCol(lines []string) int {
	if len(lines) == 0 {
		return 0
	}
	return len(lines[len(lines)-1])
}

// MoveCursor moves the cursor to the start of the given 1-indexed line
func (b *NvimBuffer) MoveCursor(line int) error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	batch := b.client.NewBatch()
	batch.SetWindowCursor(nvim.Window(0), [2]int{line, 0})
	batch.ExecLua("vim.cmd('normal! ^')", nil, nil)
	return batch.Execute()
}

// executeLuaFunction fires a lua call without waiting on a result
func (b *NvimBuffer) executeLuaFunction(luaCode string, args ...any) {
	batch := b.client.NewBatch()
	if len(args) > 0 {
		batch.ExecLua(luaCode, nil, args...)
	} else {
		batch.ExecLua(luaCode, nil, nil)
	}
	if err := batch.Execute(); err != nil {
		logger.Error("error executing lua function: %v", err)
	}
}
