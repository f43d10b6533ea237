package suggest

import (
	"testing"

	"ghosttab/assert"
)

func add(content string, line int) *Operation {
	return &Operation{Type: OpAddition, Content: content, Line: line}
}

func del(content string, line int) *Operation {
	return &Operation{Type: OpDeletion, Content: content, Line: line}
}

func TestAddOperation_PairsModification(t *testing.T) {
	f := NewFile("main.go")
	f.AddOperation(del("old", 5))
	f.AddOperation(add("new", 5))

	assert.Equal(t, 1, len(f.Groups()), "deletion and addition pair into one group")
	g := f.Groups()[0]
	assert.Equal(t, KindModification, g.Kind(), "group kind")
	assert.Equal(t, OpDeletion, g.Operations[0].Type, "deletion ordered first")
	assert.Equal(t, OpAddition, g.Operations[1].Type, "addition ordered second")
}

func TestAddOperation_PairsAcrossOrder(t *testing.T) {
	// Addition first, deletion second pairs just the same
	f := NewFile("main.go")
	f.AddOperation(add("new", 3))
	f.AddOperation(del("old", 3))

	assert.Equal(t, 1, len(f.Groups()), "group count")
	assert.Equal(t, KindModification, f.Groups()[0].Kind(), "group kind")
}

func TestAddOperation_PairPullsFromLargerGroup(t *testing.T) {
	f := NewFile("main.go")
	f.AddOperation(del("a", 4))
	f.AddOperation(del("b", 5))
	f.AddOperation(add("B", 5))

	assert.Equal(t, 2, len(f.Groups()), "deletion group plus modification pair")

	var pair, rest *Group
	for _, g := range f.Groups() {
		if g.Kind() == KindModification {
			pair = g
		} else {
			rest = g
		}
	}
	assert.Equal(t, KindModification, pair.Kind(), "pulled pair kind")
	assert.Equal(t, 5, pair.MinLine(), "pair line")
	assert.Equal(t, 1, len(rest.Operations), "remaining deletion group shrank")
	assert.Equal(t, 4, rest.MinLine(), "remaining deletion line")
}

func TestAddOperation_ExistingModificationNotRaided(t *testing.T) {
	f := NewFile("main.go")
	f.AddOperation(del("old", 2))
	f.AddOperation(add("new", 2))
	// A second addition on the same line must not steal the paired deletion
	f.AddOperation(add("another", 2))

	assert.Equal(t, 2, len(f.Groups()), "modification stays intact")
	assert.Equal(t, KindModification, f.Groups()[0].Kind(), "first group kind")
}

func TestAddOperation_ExtendsAdjacentSameType(t *testing.T) {
	f := NewFile("main.go")
	f.AddOperation(add("a", 2))
	f.AddOperation(add("b", 3))
	f.AddOperation(add("c", 4))

	assert.Equal(t, 1, len(f.Groups()), "adjacent additions cluster")
	assert.Equal(t, 2, f.Groups()[0].MinLine(), "min line")
	assert.Equal(t, 4, f.Groups()[0].MaxLine(), "max line")
}

func TestAddOperation_DistantOpStartsNewGroup(t *testing.T) {
	f := NewFile("main.go")
	f.AddOperation(add("a", 2))
	f.AddOperation(add("b", 10))

	assert.Equal(t, 2, len(f.Groups()), "distant ops stay separate")
}

func TestSortGroups_OrdersAndPrunes(t *testing.T) {
	f := NewFile("main.go")
	f.AddOperation(add("late", 9))
	f.AddOperation(add("early", 2))
	// Placeholder deletion with empty content, as produced for a
	// sentinel-only search
	f.AddOperation(&Operation{Type: OpDeletion, Content: "", Line: 2, Placeholder: true})

	f.SortGroups()

	groups := f.Groups()
	assert.Equal(t, 2, len(groups), "empty-content op pruned, its pair survives")
	assert.Equal(t, 2, groups[0].MinLine(), "sorted ascending")
	assert.Equal(t, 9, groups[1].MinLine(), "second group line")
	assert.Equal(t, KindAddition, groups[0].Kind(), "placeholder pruned leaves pure addition")
	assert.Equal(t, 0, f.SelectedIndex(), "selection resets to first")
}

func TestSortGroups_AllEmptyLeavesNoSelection(t *testing.T) {
	f := NewFile("main.go")
	f.AddOperation(&Operation{Type: OpDeletion, Content: "", Line: 1, Placeholder: true})

	f.SortGroups()

	assert.Equal(t, 0, len(f.Groups()), "group with only empty ops removed")
	assert.Equal(t, -1, f.SelectedIndex(), "no selection")
	assert.True(t, f.SelectedGroup() == nil, "selected group nil")
}

func TestDeleteSelectedGroup_RenumbersSubsequent(t *testing.T) {
	f := NewFile("main.go")
	// Addition group spanning lines 2-3 (net +2), then a distant group
	f.AddOperation(add("new1", 2))
	f.AddOperation(add("new2", 3))
	f.AddOperation(add("tail", 10))
	f.SortGroups()

	assert.Equal(t, 2, len(f.Groups()), "two groups before delete")
	assert.Equal(t, 2, f.Groups()[0].NetLineDelta(), "net delta of first group")

	f.DeleteSelectedGroup()

	assert.Equal(t, 1, len(f.Groups()), "one group remains")
	assert.Equal(t, 12, f.Groups()[0].Operations[0].OldLine, "subsequent group shifted by net delta")
	assert.Equal(t, 0, f.SelectedIndex(), "selection clamped")
}

func TestDeleteSelectedGroup_DeletionShiftsUp(t *testing.T) {
	f := NewFile("main.go")
	f.AddOperation(del("gone1", 2))
	f.AddOperation(del("gone2", 3))
	f.AddOperation(add("tail", 10))
	f.SortGroups()

	f.DeleteSelectedGroup()

	assert.Equal(t, 8, f.Groups()[0].Operations[0].OldLine, "later group shifted up after deletions")
}

func TestDeleteSelectedGroup_EmptyFileNoop(t *testing.T) {
	f := NewFile("main.go")
	f.DeleteSelectedGroup()

	assert.Equal(t, 0, len(f.Groups()), "still empty")
	assert.Equal(t, -1, f.SelectedIndex(), "no selection")
}

func TestSelectNextPrevious_Circular(t *testing.T) {
	f := NewFile("main.go")
	f.AddOperation(add("a", 1))
	f.AddOperation(add("b", 5))
	f.AddOperation(add("c", 9))
	f.SortGroups()

	assert.Equal(t, 0, f.SelectedIndex(), "initial selection")

	f.SelectNextGroup()
	f.SelectNextGroup()
	assert.Equal(t, 2, f.SelectedIndex(), "advanced twice")

	f.SelectNextGroup()
	assert.Equal(t, 0, f.SelectedIndex(), "wraps forward")

	f.SelectPreviousGroup()
	assert.Equal(t, 2, f.SelectedIndex(), "wraps backward")
}

func TestSelectNextPrevious_EmptyNoop(t *testing.T) {
	f := NewFile("main.go")
	f.SelectNextGroup()
	f.SelectPreviousGroup()

	assert.Equal(t, -1, f.SelectedIndex(), "selection untouched on empty file")
}

func TestSelectClosestGroup(t *testing.T) {
	f := NewFile("main.go")
	f.AddOperation(add("a", 2))
	f.AddOperation(add("b", 8))
	f.AddOperation(add("c", 20))
	f.SortGroups()

	f.SelectClosestGroup(9, 9)
	assert.Equal(t, 1, f.SelectedIndex(), "nearest to line 9")

	f.SelectClosestGroup(19, 25)
	assert.Equal(t, 2, f.SelectedIndex(), "group inside range wins")

	f.SelectClosestGroup(5, 5)
	assert.Equal(t, 0, f.SelectedIndex(), "tie breaks to first group")
}

func TestGroupKindAndText(t *testing.T) {
	g := &Group{Operations: []*Operation{
		del("old line", 3),
		add("new line", 3),
		add("extra", 4),
	}}

	assert.Equal(t, KindModification, g.Kind(), "mixed group kind")
	assert.Equal(t, "old line", g.DeletedText(), "deleted text")
	assert.Equal(t, "new line\nextra", g.AddedText(), "added text joined")
	assert.Equal(t, 1, g.NetLineDelta(), "net delta")
	assert.False(t, g.PlaceholderOnly(), "real deletion present")
}

func TestGroup_PlaceholderOnly(t *testing.T) {
	g := &Group{Operations: []*Operation{
		{Type: OpDeletion, Content: "", Line: 1, Placeholder: true},
		add("text", 1),
	}}

	assert.True(t, g.PlaceholderOnly(), "only placeholder deletions")
	assert.Equal(t, "", g.DeletedText(), "placeholders contribute no deleted text")
}
