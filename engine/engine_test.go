package engine

import (
	"testing"

	"ghosttab/assert"
	"ghosttab/metrics"
	"ghosttab/suggest"
)

func TestEventTypeFromString(t *testing.T) {
	assert.Equal(t, EventAccept, EventTypeFromString("accept"), "known event")
	assert.Equal(t, EventType(""), EventTypeFromString("bogus"), "unknown event")
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, findTransition(stateIdle, EventTextChanged) != nil, "idle handles text_changed")
	assert.True(t, findTransition(stateShowing, EventAccept) != nil, "showing handles accept")
	assert.True(t, findTransition(stateIdle, EventAccept) == nil, "idle ignores accept")
	assert.True(t, findTransition(stateRequesting, EventNextGroup) == nil, "requesting ignores navigation")
}

func TestDispatch_OwnEditDoesNotCancelSession(t *testing.T) {
	e := New(nil, metrics.NewTracker("", "", "test", "", true), Config{})
	e.state = stateShowing
	e.pendingApplyEdits = 1

	e.dispatch(Event{Type: EventTextChanged})
	assert.Equal(t, stateShowing, e.state, "echoed write leaves the session showing")
	assert.Equal(t, 0, e.pendingApplyEdits, "latch consumed by the echoed event")

	e.dispatch(Event{Type: EventTextChanged})
	assert.Equal(t, stateIdle, e.state, "a real edit still cancels")
}

func TestCancelToken(t *testing.T) {
	token := &CancelToken{}
	assert.False(t, token.Cancelled(), "fresh token")

	token.Cancel()
	assert.True(t, token.Cancelled(), "cancelled")

	token.Cancel()
	assert.True(t, token.Cancelled(), "idempotent")
}

func TestSessionMetricsFor(t *testing.T) {
	doc := &suggest.Document{Path: "main.go", Text: "aaa\nbbb", Row: 1, Col: 0}
	s := newSession(7, doc, func() {})

	f := s.suggestions.File(doc.Path)
	f.AddOperation(&suggest.Operation{Type: suggest.OpDeletion, Content: "aaa", Line: 1})
	f.AddOperation(&suggest.Operation{Type: suggest.OpAddition, Content: "AAA", Line: 1})
	f.AddOperation(&suggest.Operation{Type: suggest.OpDeletion, Content: "", Line: 2, Placeholder: true})

	m := s.metricsFor(f)
	assert.Equal(t, "session-7", m.ID, "metrics id from session")
	assert.Equal(t, 1, m.Additions, "addition count")
	assert.Equal(t, 1, m.Deletions, "placeholder deletions not counted")
}

func TestSessionMetricsForNilFile(t *testing.T) {
	doc := &suggest.Document{Path: "main.go", Row: 1}
	s := newSession(1, doc, func() {})

	m := s.metricsFor(nil)
	assert.Equal(t, 0, m.Additions, "no file, no counts")
}
