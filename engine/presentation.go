package engine

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"ghosttab/suggest"
)

// RenderPlan is the outcome of the presentation policy for one render
// pass: at most one group is shown as inline ghost text, the rest as
// decorations.
type RenderPlan struct {
	InlineIndex int // index of the inline group, -1 when none qualifies
	InlineText  string
}

// PlanPresentation decides how the selected group should render. Inline
// ghost text is only used when it cannot mislead: deletions never render
// inline, additions must sit within proximity lines of the cursor, and a
// modification qualifies only when the replacement genuinely extends what
// is already on screen (a shared prefix with the deleted text, or nothing
// real being deleted at all).
func PlanPresentation(f *suggest.File, cursorRow, proximity int) *RenderPlan {
	plan := &RenderPlan{InlineIndex: -1}

	g := f.SelectedGroup()
	if g == nil {
		return plan
	}

	text, ok := inlineText(g, cursorRow, proximity)
	if !ok {
		return plan
	}

	plan.InlineIndex = f.SelectedIndex()
	plan.InlineText = text
	return plan
}

func inlineText(g *suggest.Group, cursorRow, proximity int) (string, bool) {
	if g.Kind() == suggest.KindDeletion {
		return "", false
	}

	if proximity <= 0 {
		proximity = 5
	}
	if abs(g.MinOldLine()-cursorRow) > proximity {
		return "", false
	}

	added := g.AddedText()
	if added == "" {
		return "", false
	}

	if g.Kind() == suggest.KindAddition || g.PlaceholderOnly() {
		return added, true
	}

	deleted := g.DeletedText()
	if deleted == "" {
		return added, true
	}

	dmp := diffmatchpatch.New()
	prefix := dmp.DiffCommonPrefix(deleted, added)
	if prefix == 0 {
		return "", false
	}
	return added[prefix:], true
}
