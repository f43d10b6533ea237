package suggest

// OperationType distinguishes line additions from line deletions
type OperationType int

const (
	OpAddition OperationType = iota
	OpDeletion
)

// String returns the diff-style marker for the operation type
func (t OperationType) String() string {
	if t == OpAddition {
		return "+"
	}
	return "-"
}

// Operation is the atomic line-edit unit produced by the parser.
// Line is the position in the pre-edit document used for grouping and
// matching; OldLine and NewLine track position drift as groups are
// consumed. Operations are never mutated after creation except for
// OldLine/Line renumbering when a preceding group is applied.
type Operation struct {
	Type    OperationType
	Content string
	Line    int // 1-indexed
	OldLine int // 1-indexed
	NewLine int // 1-indexed

	// Placeholder marks a deletion whose content was only the cursor
	// sentinel (a zero-width anchor, not real document text). Grouping
	// and presentation treat such deletions as invisible.
	Placeholder bool
}

// GroupKind classifies a change group
type GroupKind string

const (
	KindAddition     GroupKind = "+"
	KindDeletion     GroupKind = "-"
	KindModification GroupKind = "/"
)

// Group is an ordered sequence of operations considered one coherent edit.
// A group is one of three kinds: pure addition, pure deletion, or a
// modification (mixed, paired by adjacency).
type Group struct {
	Operations []*Operation
}

// Kind returns "+" if all operations are additions, "-" if all are
// deletions, "/" when mixed.
func (g *Group) Kind() GroupKind {
	hasAdd := false
	hasDel := false
	for _, op := range g.Operations {
		if op.Type == OpAddition {
			hasAdd = true
		} else {
			hasDel = true
		}
	}
	switch {
	case hasAdd && hasDel:
		return KindModification
	case hasDel:
		return KindDeletion
	default:
		return KindAddition
	}
}

// MinLine returns the smallest pre-edit line in the group
func (g *Group) MinLine() int {
	minLine := -1
	for _, op := range g.Operations {
		if minLine == -1 || op.Line < minLine {
			minLine = op.Line
		}
	}
	return minLine
}

// MaxLine returns the largest pre-edit line in the group
func (g *Group) MaxLine() int {
	maxLine := -1
	for _, op := range g.Operations {
		if op.Line > maxLine {
			maxLine = op.Line
		}
	}
	return maxLine
}

// MinOldLine returns the smallest drift-adjusted line in the group
func (g *Group) MinOldLine() int {
	minLine := -1
	for _, op := range g.Operations {
		if minLine == -1 || op.OldLine < minLine {
			minLine = op.OldLine
		}
	}
	return minLine
}

// NetLineDelta is the line-count drift this group introduces when applied:
// each addition contributes +1, each deletion -1.
func (g *Group) NetLineDelta() int {
	delta := 0
	for _, op := range g.Operations {
		if op.Type == OpAddition {
			delta++
		} else {
			delta--
		}
	}
	return delta
}

// Additions returns the addition operations in group order
func (g *Group) Additions() []*Operation {
	var ops []*Operation
	for _, op := range g.Operations {
		if op.Type == OpAddition {
			ops = append(ops, op)
		}
	}
	return ops
}

// Deletions returns the deletion operations in group order
func (g *Group) Deletions() []*Operation {
	var ops []*Operation
	for _, op := range g.Operations {
		if op.Type == OpDeletion {
			ops = append(ops, op)
		}
	}
	return ops
}

// AddedText joins the addition contents with newlines
func (g *Group) AddedText() string {
	return joinContents(g.Additions())
}

// DeletedText joins the deletion contents with newlines. Placeholder
// deletions contribute nothing.
func (g *Group) DeletedText() string {
	var ops []*Operation
	for _, op := range g.Deletions() {
		if !op.Placeholder {
			ops = append(ops, op)
		}
	}
	return joinContents(ops)
}

// PlaceholderOnly reports whether every deletion in the group is a
// placeholder (or the group has no deletions at all).
func (g *Group) PlaceholderOnly() bool {
	for _, op := range g.Operations {
		if op.Type == OpDeletion && !op.Placeholder {
			return false
		}
	}
	return true
}

func joinContents(ops []*Operation) string {
	switch len(ops) {
	case 0:
		return ""
	case 1:
		return ops[0].Content
	}
	n := len(ops) - 1
	for _, op := range ops {
		n += len(op.Content)
	}
	b := make([]byte, 0, n)
	for i, op := range ops {
		if i > 0 {
			b = append(b, '\n')
		}
		b = append(b, op.Content...)
	}
	return string(b)
}
