package engine

import (
	"testing"

	"ghosttab/assert"
	"ghosttab/suggest"
)

func fileWithOps(ops ...*suggest.Operation) *suggest.File {
	f := suggest.NewFile("main.go")
	for _, op := range ops {
		f.AddOperation(op)
	}
	f.SortGroups()
	return f
}

func TestPlanPresentation_DeletionNeverInline(t *testing.T) {
	f := fileWithOps(
		&suggest.Operation{Type: suggest.OpDeletion, Content: "gone", Line: 10},
	)

	plan := PlanPresentation(f, 10, 5)

	assert.Equal(t, -1, plan.InlineIndex, "deletions render as decorations only")
}

func TestPlanPresentation_AdditionNearCursorInline(t *testing.T) {
	f := fileWithOps(
		&suggest.Operation{Type: suggest.OpAddition, Content: "new code", Line: 12},
	)

	plan := PlanPresentation(f, 10, 5)

	assert.Equal(t, 0, plan.InlineIndex, "nearby addition renders inline")
	assert.Equal(t, "new code", plan.InlineText, "inline ghost text")
}

func TestPlanPresentation_AdditionFarFromCursorDecorated(t *testing.T) {
	f := fileWithOps(
		&suggest.Operation{Type: suggest.OpAddition, Content: "new code", Line: 40},
	)

	plan := PlanPresentation(f, 10, 5)

	assert.Equal(t, -1, plan.InlineIndex, "distant addition decorated, not inline")
}

func TestPlanPresentation_ModificationWithSharedPrefix(t *testing.T) {
	f := fileWithOps(
		&suggest.Operation{Type: suggest.OpDeletion, Content: "foo", Line: 10},
		&suggest.Operation{Type: suggest.OpAddition, Content: "foobar", Line: 10},
	)

	plan := PlanPresentation(f, 10, 5)

	assert.Equal(t, 0, plan.InlineIndex, "extending modification renders inline")
	assert.Equal(t, "bar", plan.InlineText, "ghost text is the unshared suffix")
}

func TestPlanPresentation_ModificationWithoutPrefixDecorated(t *testing.T) {
	f := fileWithOps(
		&suggest.Operation{Type: suggest.OpDeletion, Content: "foo", Line: 10},
		&suggest.Operation{Type: suggest.OpAddition, Content: "xyz", Line: 10},
	)

	plan := PlanPresentation(f, 10, 5)

	assert.Equal(t, -1, plan.InlineIndex, "rewriting modification cannot render inline")
}

func TestPlanPresentation_MultilineAdditionInline(t *testing.T) {
	f := fileWithOps(
		&suggest.Operation{Type: suggest.OpAddition, Content: "line a", Line: 10},
		&suggest.Operation{Type: suggest.OpAddition, Content: "line b", Line: 11},
	)

	plan := PlanPresentation(f, 10, 5)

	assert.Equal(t, 0, plan.InlineIndex, "multiline addition inline")
	assert.Equal(t, "line a\nline b", plan.InlineText, "lines joined for ghost text")
}

func TestPlanPresentation_EmptyFile(t *testing.T) {
	f := suggest.NewFile("main.go")

	plan := PlanPresentation(f, 1, 5)

	assert.Equal(t, -1, plan.InlineIndex, "nothing to render")
}
