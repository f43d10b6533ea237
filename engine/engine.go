package engine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/neovim/go-client/nvim"

	"ghosttab/buffer"
	"ghosttab/logger"
	"ghosttab/metrics"
	"ghosttab/provider"
	"ghosttab/suggest"
	"ghosttab/types"
)

type state int

const (
	stateIdle state = iota
	stateRequesting
	stateStreaming
	stateShowing
)

// farMoveLines is how far the cursor may wander from the nearest group
// before a visible suggestion is dismissed.
const farMoveLines = 30

type Config struct {
	NsID            int
	RequestTimeout  time.Duration
	DebounceDelay   time.Duration
	InlineProximity int
	AutoTrigger     bool
}

// Engine owns the suggestion lifecycle: it debounces editor activity,
// issues provider requests, feeds the stream into the parser, and drives
// rendering and acceptance. All mutation happens on the event loop under
// one mutex.
type Engine struct {
	WorkspacePath string

	provider provider.Provider
	n        *nvim.Nvim
	buffer   *buffer.NvimBuffer
	metrics  *metrics.Tracker
	config   Config

	mu        sync.RWMutex
	state     state
	eventChan chan Event

	mainCtx    context.Context
	mainCancel context.CancelFunc
	stopped    bool
	stopOnce   sync.Once

	debounceTimer *time.Timer

	// Current suggestion session; nil outside Requesting/Streaming/Showing
	session       *session
	chunkChan     <-chan types.StreamChunk
	nextSessionID int64

	// Change notifications still expected to echo back from our own
	// accepted-group writes. The dispatcher consumes these instead of
	// letting them cancel the session they came from.
	pendingApplyEdits int
}

func New(p provider.Provider, tracker *metrics.Tracker, config Config) *Engine {
	workspacePath, err := os.Getwd()
	if err != nil {
		logger.Warn("error getting current directory, using home: %v", err)
		workspacePath = "~"
	}

	return &Engine{
		WorkspacePath: workspacePath,
		provider:      p,
		buffer:        buffer.New(buffer.Config{NsID: config.NsID}),
		metrics:       tracker,
		config:        config,
		state:         stateIdle,
		eventChan:     make(chan Event, 100),
	}
}

// SetNvim attaches the editor client and re-registers the RPC event
// handler for the new connection.
func (e *Engine) SetNvim(n *nvim.Nvim) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.n = n
	e.buffer.SetClient(n)
	e.mu.Unlock()

	if err := n.RegisterHandler("ghosttab_event", func(_ *nvim.Nvim, event string) {
		e.Emit(event, nil)
	}); err != nil {
		logger.Error("error registering event handler for new connection: %v", err)
	}
}

func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.mainCtx, e.mainCancel = context.WithCancel(ctx)
	e.mu.Unlock()

	go e.eventLoop(e.mainCtx)
	logger.Info("engine started")
}

// Stop gracefully shuts down the engine and cleans up all resources
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		logger.Info("stopping engine...")
		e.stopped = true
		if e.mainCancel != nil {
			e.mainCancel()
		}
		e.cancelSession(false)
		e.stopDebounceTimer()
		close(e.eventChan)
		logger.Info("engine stopped")
	})
}

// Emit queues an editor event for the event loop. Unknown event names are
// dropped with a warning.
func (e *Engine) Emit(name string, data any) {
	eventType := EventTypeFromString(name)
	if eventType == "" {
		logger.Warn("unknown event %q", name)
		return
	}

	e.mu.RLock()
	stopped := e.stopped
	e.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case e.eventChan <- Event{Type: eventType, Data: data}:
	default:
		logger.Warn("event channel full, dropping %v", eventType)
	}
}

// --- transition actions (all run on the event loop, mutex held) ---

func (e *Engine) doStartDebounce(_ Event) {
	if !e.config.AutoTrigger {
		return
	}
	e.startDebounceTimer()
}

func (e *Engine) doCancelAndDebounce(_ Event) {
	e.cancelSession(true)
	e.state = stateIdle
	if e.config.AutoTrigger {
		e.startDebounceTimer()
	}
}

func (e *Engine) doRequestTyping(_ Event) {
	e.requestSuggestion(types.SuggestionSourceTyping)
}

func (e *Engine) doRequestManual(_ Event) {
	e.stopDebounceTimer()
	e.cancelSession(true)
	e.requestSuggestion(types.SuggestionSourceManual)
}

func (e *Engine) doDismiss(_ Event) {
	if s := e.session; s != nil && s.firstRendered {
		e.metrics.TrackDismissed(s.metricsFor(e.currentFile()))
	}
	e.cancelSession(true)
	e.state = stateIdle
}

func (e *Engine) doAccept(_ Event) {
	e.acceptSelectedGroup()
}

func (e *Engine) doSelectNext(_ Event) {
	if f := e.currentFile(); f != nil {
		f.SelectNextGroup()
		e.render(f)
	}
}

func (e *Engine) doSelectPrevious(_ Event) {
	if f := e.currentFile(); f != nil {
		f.SelectPreviousGroup()
		e.render(f)
	}
}

func (e *Engine) doCursorMoved(_ Event) {
	f := e.currentFile()
	if f == nil {
		return
	}
	if err := e.syncBuffer(); err != nil {
		return
	}

	f.SelectClosestGroup(e.buffer.Row(), e.buffer.Row())
	g := f.SelectedGroup()
	if g != nil && abs(g.MinOldLine()-e.buffer.Row()) > farMoveLines {
		logger.Debug("cursor moved far from suggestion, dismissing")
		e.doDismiss(Event{})
		return
	}
	e.render(f)
}

// --- debounce ---

func (e *Engine) startDebounceTimer() {
	e.stopDebounceTimer()
	delay := e.config.DebounceDelay
	if delay <= 0 {
		delay = 150 * time.Millisecond
	}
	e.debounceTimer = time.AfterFunc(delay, func() {
		e.Emit(string(EventDebounceFired), nil)
	})
}

func (e *Engine) stopDebounceTimer() {
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
		e.debounceTimer = nil
	}
}

// --- session lifecycle ---

func (e *Engine) requestSuggestion(source types.SuggestionSource) {
	if e.stopped || e.n == nil {
		return
	}

	if err := e.syncBuffer(); err != nil {
		e.state = stateIdle
		return
	}
	if e.buffer.Path() == "" {
		logger.Debug("no file in current buffer, skipping request")
		e.state = stateIdle
		return
	}

	doc := e.buffer.Snapshot()

	timeout := e.config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(e.mainCtx, timeout)

	req := &provider.Request{
		Path:      doc.Path,
		Lines:     e.buffer.Lines(),
		CursorRow: doc.Row,
		CursorCol: doc.Col,
		Source:    source,
	}

	stream, err := e.provider.StreamEdits(ctx, req)
	if err != nil {
		cancel()
		logger.Error("provider request failed: %v", err)
		e.state = stateIdle
		return
	}

	e.nextSessionID++
	e.session = newSession(e.nextSessionID, doc, cancel)
	e.chunkChan = stream.Chunks()
	e.session.stream = stream
	e.state = stateRequesting
	logger.Info("session %d: requesting suggestions for %s:%d", e.session.id, doc.Path, doc.Row)
}

// cancelSession tears down the current session. When clearUI is set the
// editor-side suggestion UI is cleared as well.
func (e *Engine) cancelSession(clearUI bool) {
	s := e.session
	if s == nil {
		return
	}
	s.token.Cancel()
	s.cancel()
	e.chunkChan = nil
	e.session = nil
	if clearUI && e.n != nil {
		e.buffer.ClearUI()
	}
}

// --- streaming (called from the event loop's channel select) ---

func (e *Engine) handleStreamChunk(chunk types.StreamChunk) {
	s := e.session
	if s == nil || s.token.Cancelled() {
		return
	}

	switch chunk.Type {
	case types.ChunkUsage:
		s.usage.Add(chunk.Usage)
		e.metrics.AddUsage(chunk.Usage)
		return
	case types.ChunkText:
	}

	if e.state == stateRequesting {
		e.state = stateStreaming
	}

	changes := s.parser.Feed(chunk.Text)
	if e.ingestChanges(s, changes) {
		e.refresh(s)
	}
	if s.parser.IsComplete() {
		logger.Debug("session %d: response structurally complete", s.id)
	}
}

func (e *Engine) handleStreamClosed() {
	s := e.session
	if s == nil {
		return
	}

	if err := s.stream.Err(); err != nil && e.mainCtx.Err() == nil {
		if !s.token.Cancelled() {
			logger.Error("session %d: stream failed: %v", s.id, err)
			e.cancelSession(true)
			e.state = stateIdle
		}
		return
	}

	recovered := s.parser.Finish()
	e.ingestChanges(s, recovered)

	e.refresh(s)
	if e.currentFile() == nil {
		logger.Info("session %d: no usable suggestions", s.id)
		e.cancelSession(true)
		e.state = stateIdle
		return
	}
	e.state = stateShowing
	logger.Info("session %d: showing %d group(s)", s.id, len(e.currentFile().Groups()))
}

// ingestChanges anchors parsed changes into the session state. Returns
// true when any operations were added.
func (e *Engine) ingestChanges(s *session, changes []suggest.ParsedChange) bool {
	added := false
	for _, c := range changes {
		ops, err := s.parser.Anchor(c)
		if err != nil {
			logger.Error("session %d: anchor failed: %v", s.id, err)
			continue
		}
		if ops == nil {
			continue
		}
		f := s.suggestions.File(s.doc.Path)
		for _, op := range ops {
			f.AddOperation(op)
		}
		added = true
	}
	return added
}

// refresh re-sorts, re-selects, and re-renders the current suggestions.
// Rendering starts as soon as the first visible group exists; later
// chunks extend the display in place.
func (e *Engine) refresh(s *session) {
	if s.token.Cancelled() {
		return
	}
	f := s.suggestions.Lookup(s.doc.Path)
	if f == nil {
		return
	}
	f.SortGroups()
	s.suggestions.Validate()
	if len(f.Groups()) == 0 {
		return
	}
	f.SelectClosestGroup(s.doc.Row, s.doc.Row)
	e.render(f)

	if !s.firstRendered {
		s.firstRendered = true
		s.shownAt = time.Now()
		e.metrics.TrackShown(s.metricsFor(f))
	}
}

// render pushes the current groups to the editor using the presentation
// policy for the selected group.
func (e *Engine) render(f *suggest.File) {
	if e.n == nil || f == nil || len(f.Groups()) == 0 {
		return
	}
	plan := PlanPresentation(f, e.buffer.Row(), e.config.InlineProximity)
	if err := e.buffer.RenderSuggestions(f, plan.InlineIndex, plan.InlineText); err != nil {
		logger.Error("render failed: %v", err)
	}
}

// currentFile returns the suggestion file for the active session, or nil
func (e *Engine) currentFile() *suggest.File {
	if e.session == nil {
		return nil
	}
	return e.session.suggestions.Lookup(e.session.doc.Path)
}

// acceptSelectedGroup writes the selected group into the buffer, then
// either advances to the next group or ends the session.
func (e *Engine) acceptSelectedGroup() {
	s := e.session
	f := e.currentFile()
	if s == nil || f == nil {
		return
	}
	g := f.SelectedGroup()
	if g == nil {
		return
	}

	if err := e.buffer.ApplyGroup(g); err != nil {
		logger.Error("apply failed: %v", err)
		e.cancelSession(true)
		e.state = stateIdle
		return
	}
	// The write we just issued echoes back as a text_changed autocmd
	// after this dispatch returns; latch it so it cannot cancel the
	// session it belongs to.
	e.pendingApplyEdits++

	e.metrics.TrackAccepted(s.metricsFor(f))

	f.DeleteSelectedGroup()
	s.suggestions.Validate()

	if !s.suggestions.HasSuggestions() {
		logger.Info("session %d: all groups consumed", s.id)
		e.cancelSession(true)
		e.state = stateIdle
		return
	}
	e.render(f)
}

func (e *Engine) syncBuffer() error {
	if e.n == nil {
		return fmt.Errorf("nvim client not set")
	}
	result, err := e.buffer.Sync(e.WorkspacePath)
	if err != nil {
		logger.Error("buffer sync failed: %v", err)
		return err
	}
	if result.BufferChanged && e.session != nil {
		logger.Debug("buffer switched %s -> %s, dropping session", result.OldPath, result.NewPath)
		e.cancelSession(true)
		e.state = stateIdle
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
