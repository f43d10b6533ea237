package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"ghosttab/metrics"
	"ghosttab/provider"
	"ghosttab/suggest"
	"ghosttab/types"
)

// CancelToken is a cooperative cancellation flag checked at every point a
// stale session could still touch shared state. Cancelling the request
// context stops I/O; the token stops everything already in flight.
type CancelToken struct {
	cancelled atomic.Bool
}

func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

func (t *CancelToken) Cancelled() bool {
	return t.cancelled.Load()
}

// session is the state of one suggestion request, from provider call to
// acceptance or dismissal. A new session always replaces the old one
// wholesale; nothing is shared between sessions.
type session struct {
	id          int64
	doc         *suggest.Document
	parser      *suggest.Parser
	suggestions *suggest.State
	token       *CancelToken
	cancel      context.CancelFunc
	stream      *provider.Stream

	firstRendered bool
	shownAt       time.Time
	usage         types.Usage
}

func newSession(id int64, doc *suggest.Document, cancel context.CancelFunc) *session {
	return &session{
		id:          id,
		doc:         doc,
		parser:      suggest.NewParser(doc),
		suggestions: suggest.NewState(),
		token:       &CancelToken{},
		cancel:      cancel,
	}
}

// metricsFor summarizes the session's visible suggestion for tracking
func (s *session) metricsFor(f *suggest.File) *metrics.SuggestionMetrics {
	m := &metrics.SuggestionMetrics{
		ID:      fmt.Sprintf("session-%d", s.id),
		ShownAt: s.shownAt,
	}
	if f == nil {
		return m
	}
	for _, g := range f.Groups() {
		m.Additions += len(g.Additions())
		for _, op := range g.Deletions() {
			if !op.Placeholder {
				m.Deletions++
			}
		}
	}
	return m
}
