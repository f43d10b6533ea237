package engine

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"ghosttab/logger"
)

// EventType represents the type of event in the engine
type EventType string

const (
	EventEsc           EventType = "esc"
	EventTextChanged   EventType = "text_changed"
	EventDebounceFired EventType = "trigger_suggestion"
	EventCursorMoved   EventType = "cursor_moved"
	EventInsertLeave   EventType = "insert_leave"
	EventAccept        EventType = "accept"
	EventNextGroup     EventType = "next_group"
	EventPreviousGroup EventType = "prev_group"
	EventManualTrigger EventType = "suggest"
)

// Event represents an event in the engine
type Event struct {
	Type EventType
	Data any
}

var eventTypeMap map[string]EventType

func init() {
	eventTypeMap = buildEventTypeMap()
	transitionMap = make(map[transitionKey]*Transition)
	for i := range transitions {
		t := &transitions[i]
		transitionMap[transitionKey{from: t.From, event: t.Event}] = t
	}
}

func buildEventTypeMap() map[string]EventType {
	eventMap := make(map[string]EventType)
	for _, eventType := range []EventType{
		EventEsc,
		EventTextChanged,
		EventDebounceFired,
		EventCursorMoved,
		EventInsertLeave,
		EventAccept,
		EventNextGroup,
		EventPreviousGroup,
		EventManualTrigger,
	} {
		eventMap[string(eventType)] = eventType
	}
	return eventMap
}

// EventTypeFromString converts a string to EventType
func EventTypeFromString(s string) EventType {
	if eventType, exists := eventTypeMap[s]; exists {
		return eventType
	}
	return ""
}

// Transition represents a valid state transition in the engine's state machine
type Transition struct {
	From   state
	Event  EventType
	Action func(*Engine, Event)
}

// transitions defines all valid state transitions.
//
// State Machine:
//
//	                DebounceFired / ManualTrigger
//	  +-------+            +------------+    first chunk   +-----------+
//	  | Idle  |----------->| Requesting |----------------->| Streaming |
//	  +-------+            +------------+                  +-----------+
//	      ^                      |                              |
//	      |                      |                              | stream closed
//	      |                      v                              v
//	      |                 (no output)                   +-----------+
//	      +<----------------------------------------------| Showing   |
//	          Esc / Accept of last group / far movement   +-----------+
//
//	Stream chunks arrive over a channel selected in the event loop, not
//	through this table. TextChanged while anything is pending cancels it
//	and re-arms the debounce (last write wins).
var transitions = []Transition{
	// From stateIdle
	{stateIdle, EventTextChanged, (*Engine).doStartDebounce},
	{stateIdle, EventDebounceFired, (*Engine).doRequestTyping},
	{stateIdle, EventManualTrigger, (*Engine).doRequestManual},

	// From stateRequesting
	{stateRequesting, EventTextChanged, (*Engine).doCancelAndDebounce},
	{stateRequesting, EventEsc, (*Engine).doDismiss},
	{stateRequesting, EventInsertLeave, (*Engine).doDismiss},
	{stateRequesting, EventManualTrigger, (*Engine).doRequestManual},

	// From stateStreaming
	{stateStreaming, EventTextChanged, (*Engine).doCancelAndDebounce},
	{stateStreaming, EventEsc, (*Engine).doDismiss},
	{stateStreaming, EventInsertLeave, (*Engine).doDismiss},
	{stateStreaming, EventAccept, (*Engine).doAccept},
	{stateStreaming, EventNextGroup, (*Engine).doSelectNext},
	{stateStreaming, EventPreviousGroup, (*Engine).doSelectPrevious},
	{stateStreaming, EventCursorMoved, (*Engine).doCursorMoved},
	{stateStreaming, EventManualTrigger, (*Engine).doRequestManual},

	// From stateShowing
	{stateShowing, EventTextChanged, (*Engine).doCancelAndDebounce},
	{stateShowing, EventEsc, (*Engine).doDismiss},
	{stateShowing, EventInsertLeave, (*Engine).doDismiss},
	{stateShowing, EventAccept, (*Engine).doAccept},
	{stateShowing, EventNextGroup, (*Engine).doSelectNext},
	{stateShowing, EventPreviousGroup, (*Engine).doSelectPrevious},
	{stateShowing, EventCursorMoved, (*Engine).doCursorMoved},
	{stateShowing, EventManualTrigger, (*Engine).doRequestManual},
}

// transitionMap provides O(1) lookup for transitions by (state, event) pair
var transitionMap map[transitionKey]*Transition

type transitionKey struct {
	from  state
	event EventType
}

func findTransition(from state, event EventType) *Transition {
	return transitionMap[transitionKey{from: from, event: event}]
}

// dispatch finds and executes the appropriate transition for an event.
// Change notifications echoed back from the engine's own buffer writes are
// consumed here, before the transition table can treat them as user edits.
func (e *Engine) dispatch(event Event) bool {
	if event.Type == EventTextChanged && e.pendingApplyEdits > 0 {
		e.pendingApplyEdits--
		logger.Debug("ignoring change notification from our own edit")
		return true
	}

	t := findTransition(e.state, event.Type)
	if t == nil {
		logger.Debug("no transition for %v in state %d", event.Type, e.state)
		return false
	}
	if t.Action != nil {
		t.Action(e, event)
	}
	return true
}

// eventLoopRestarts tracks restarts after panic recovery
var eventLoopRestarts atomic.Int32

const maxEventLoopRestarts = 3

func (e *Engine) eventLoop(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			restarts := eventLoopRestarts.Add(1)
			logger.Error("event loop panic [%d/%d]: %v\n%s",
				restarts, maxEventLoopRestarts, r, debug.Stack())

			if int(restarts) < maxEventLoopRestarts {
				e.eventLoop(e.mainCtx)
			} else {
				logger.Error("max event loop restarts reached, stopping engine")
				go e.Stop()
			}
		}
	}()

	for {
		e.mu.RLock()
		chunkChan := e.chunkChan
		e.mu.RUnlock()

		select {
		case <-ctx.Done():
			return

		case chunk, ok := <-chunkChan:
			e.mu.Lock()
			if e.stopped {
				e.mu.Unlock()
				return
			}
			if e.chunkChan != chunkChan {
				// A newer session replaced the stream while we were blocked
				e.mu.Unlock()
				continue
			}
			if !ok {
				e.handleStreamClosed()
				e.mu.Unlock()
				continue
			}
			e.handleStreamChunk(chunk)
			e.mu.Unlock()

		case event, ok := <-e.eventChan:
			if !ok {
				return
			}

			e.mu.Lock()
			if e.stopped {
				e.mu.Unlock()
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("event handler panic recovered for %v: %v\n%s",
							event.Type, r, debug.Stack())
					}
				}()
				logger.Debug("handle event: %v", event.Type)
				e.dispatch(event)
			}()
			e.mu.Unlock()
		}
	}
}
