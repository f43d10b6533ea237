package suggest

import "sort"

// File owns the ordered set of change groups for one document. Groups are
// built incrementally as the parser emits operations and finalized with
// SortGroups. Exactly one group may be selected at a time.
type File struct {
	Path string

	groups   []*Group
	selected int // index into groups, -1 when empty
}

// NewFile creates an empty suggestion file for the given document path
func NewFile(path string) *File {
	return &File{Path: path, selected: -1}
}

// Groups returns the current group list
func (f *File) Groups() []*Group {
	return f.groups
}

// SelectedIndex returns the selected group index, -1 when no groups exist
func (f *File) SelectedIndex() int {
	return f.selected
}

// SelectedGroup returns the selected group or nil
func (f *File) SelectedGroup() *Group {
	if f.selected < 0 || f.selected >= len(f.groups) {
		return nil
	}
	return f.groups[f.selected]
}

// AddOperation clusters op into the existing groups using a three-tier
// policy, evaluated in order:
//
//  1. Modification pairing: a deletion meeting an existing addition on the
//     same pre-edit line (or vice versa) pulls the counterpart out of its
//     group and forms a two-element modification group [deletion, addition].
//  2. Same-type extension: a group of the same kind whose min/max line is
//     within one line of op extends to include it.
//  3. Otherwise op starts a fresh singleton group.
func (f *File) AddOperation(op *Operation) {
	if op.OldLine == 0 {
		op.OldLine = op.Line
	}
	if op.NewLine == 0 {
		op.NewLine = op.Line
	}

	if f.pairModification(op) {
		return
	}
	if f.extendSameType(op) {
		return
	}

	f.groups = append(f.groups, &Group{Operations: []*Operation{op}})
	if f.selected < 0 {
		f.selected = 0
	}
}

// pairModification implements tier 1. Returns true when op was paired.
func (f *File) pairModification(op *Operation) bool {
	var wantType OperationType
	if op.Type == OpDeletion {
		wantType = OpAddition
	} else {
		wantType = OpDeletion
	}

	for gi, g := range f.groups {
		// Only pull counterparts out of pure groups; an operation already
		// inside a modification group is considered paired.
		if g.Kind() == KindModification {
			continue
		}
		for oi, other := range g.Operations {
			if other.Type != wantType || other.Line != op.Line {
				continue
			}

			g.Operations = append(g.Operations[:oi], g.Operations[oi+1:]...)

			deletion, addition := op, other
			if op.Type == OpAddition {
				deletion, addition = other, op
			}
			pair := &Group{Operations: []*Operation{deletion, addition}}

			if len(g.Operations) == 0 {
				f.groups[gi] = pair
			} else {
				f.groups = append(f.groups, pair)
			}
			if f.selected < 0 {
				f.selected = 0
			}
			return true
		}
	}
	return false
}

// extendSameType implements tier 2. Returns true when op was appended.
func (f *File) extendSameType(op *Operation) bool {
	opKind := KindAddition
	if op.Type == OpDeletion {
		opKind = KindDeletion
	}

	for _, g := range f.groups {
		if g.Kind() != opKind {
			continue
		}
		if op.Line >= g.MinLine()-1 && op.Line <= g.MaxLine()+1 {
			g.Operations = append(g.Operations, op)
			return true
		}
	}
	return false
}

// SortGroups orders groups by minimum line ascending and operations within
// each group by line ascending, then prunes operations with empty content
// (the parser legitimately produces empty-content deletions for zero-width
// placeholders, and a trailing newline in replace text yields an empty
// addition; neither must render as a visible edit). Groups left empty are
// removed. Selection resets to the first group, or -1 when none remain.
func (f *File) SortGroups() {
	sort.SliceStable(f.groups, func(i, j int) bool {
		return f.groups[i].MinLine() < f.groups[j].MinLine()
	})

	kept := f.groups[:0]
	for _, g := range f.groups {
		sort.SliceStable(g.Operations, func(i, j int) bool {
			return g.Operations[i].Line < g.Operations[j].Line
		})

		ops := g.Operations[:0]
		for _, op := range g.Operations {
			if op.Content != "" {
				ops = append(ops, op)
			}
		}
		g.Operations = ops

		if len(g.Operations) > 0 {
			kept = append(kept, g)
		}
	}
	f.groups = kept

	if len(f.groups) > 0 {
		f.selected = 0
	} else {
		f.selected = -1
	}
}

// DeleteSelectedGroup removes the selected group and re-bases the line
// numbers of subsequent groups by the net line delta the removed group
// introduced. This keeps the remaining groups valid after the edit is
// applied to the live document without re-parsing.
func (f *File) DeleteSelectedGroup() {
	g := f.SelectedGroup()
	if g == nil {
		return
	}

	delta := g.NetLineDelta()
	for i := f.selected + 1; i < len(f.groups); i++ {
		for _, op := range f.groups[i].Operations {
			op.OldLine += delta
			op.Line += delta
		}
	}

	f.groups = append(f.groups[:f.selected], f.groups[f.selected+1:]...)
	if len(f.groups) == 0 {
		f.selected = -1
	} else if f.selected >= len(f.groups) {
		f.selected = len(f.groups) - 1
	}
}

// SelectNextGroup advances the selection circularly; no-op on empty list
func (f *File) SelectNextGroup() {
	if len(f.groups) == 0 {
		return
	}
	f.selected = (f.selected + 1) % len(f.groups)
}

// SelectPreviousGroup retreats the selection circularly; no-op on empty list
func (f *File) SelectPreviousGroup() {
	if len(f.groups) == 0 {
		return
	}
	f.selected = (f.selected - 1 + len(f.groups)) % len(f.groups)
}

// SelectClosestGroup picks the group whose minimum drift-adjusted line is
// nearest the given selection range, used to restore a sensible selection
// after the document or cursor moves. Ties break to the first group found.
func (f *File) SelectClosestGroup(startLine, endLine int) {
	if len(f.groups) == 0 {
		f.selected = -1
		return
	}
	if endLine < startLine {
		startLine, endLine = endLine, startLine
	}

	bestIdx := 0
	bestDist := -1
	for i, g := range f.groups {
		line := g.MinOldLine()
		var dist int
		switch {
		case line < startLine:
			dist = startLine - line
		case line > endLine:
			dist = line - endLine
		default:
			dist = 0
		}
		if bestDist == -1 || dist < bestDist {
			bestDist = dist
			bestIdx = i
		}
		if bestDist == 0 {
			break
		}
	}
	f.selected = bestIdx
}
