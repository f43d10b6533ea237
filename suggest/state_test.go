package suggest

import (
	"testing"

	"ghosttab/assert"
)

func TestState_LazyFileCreation(t *testing.T) {
	s := NewState()

	assert.True(t, s.Lookup("a.go") == nil, "no file before first access")

	f := s.File("a.go")
	assert.Equal(t, "a.go", f.Path, "file path")
	assert.True(t, f == s.File("a.go"), "same file returned on repeat access")
	assert.True(t, f == s.Lookup("a.go"), "lookup finds created file")
}

func TestState_FilesInsertionOrder(t *testing.T) {
	s := NewState()
	s.File("b.go")
	s.File("a.go")
	s.File("c.go")

	files := s.Files()
	assert.Equal(t, 3, len(files), "file count")
	assert.Equal(t, "b.go", files[0].Path, "first inserted first")
	assert.Equal(t, "a.go", files[1].Path, "second")
	assert.Equal(t, "c.go", files[2].Path, "third")
}

func TestState_ValidateDropsEmptyFiles(t *testing.T) {
	s := NewState()
	s.File("empty.go")
	full := s.File("full.go")
	full.AddOperation(&Operation{Type: OpAddition, Content: "x", Line: 1})

	s.Validate()

	assert.True(t, s.Lookup("empty.go") == nil, "empty file dropped")
	assert.True(t, s.Lookup("full.go") != nil, "non-empty file kept")
	assert.Equal(t, 1, len(s.Files()), "one file remains")
}

func TestState_HasSuggestions(t *testing.T) {
	s := NewState()
	assert.False(t, s.HasSuggestions(), "empty state")

	s.File("a.go")
	assert.False(t, s.HasSuggestions(), "file without groups")

	s.File("a.go").AddOperation(&Operation{Type: OpAddition, Content: "x", Line: 1})
	assert.True(t, s.HasSuggestions(), "file with a group")
}

func TestState_Clear(t *testing.T) {
	s := NewState()
	s.File("a.go").AddOperation(&Operation{Type: OpAddition, Content: "x", Line: 1})

	s.Clear()

	assert.False(t, s.HasSuggestions(), "cleared")
	assert.Equal(t, 0, len(s.Files()), "no files")
}
