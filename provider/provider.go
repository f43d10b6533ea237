package provider

import (
	"context"
	"fmt"

	"ghosttab/types"
)

// Request carries everything a provider needs to suggest edits for one
// cursor position.
type Request struct {
	Path      string
	Lines     []string
	CursorRow int // 1-indexed
	CursorCol int // 0-indexed
	Source    types.SuggestionSource
}

// Stream delivers a provider response incrementally. Chunks is closed when
// the response ends; Err reports the terminal error, valid only after
// Chunks is drained.
type Stream struct {
	chunks chan types.StreamChunk
	err    error
}

func newStream() *Stream {
	return &Stream{chunks: make(chan types.StreamChunk, 32)}
}

// Chunks returns the chunk channel
func (s *Stream) Chunks() <-chan types.StreamChunk {
	return s.chunks
}

// Err returns the terminal stream error, if any. Only valid once Chunks
// has been closed.
func (s *Stream) Err() error {
	return s.err
}

// finish records the terminal error and closes the channel. The err write
// is ordered before the close, so readers that observe the closed channel
// see it.
func (s *Stream) finish(err error) {
	s.err = err
	close(s.chunks)
}

func (s *Stream) sendText(ctx context.Context, text string) bool {
	select {
	case s.chunks <- types.StreamChunk{Type: types.ChunkText, Text: text}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Stream) sendUsage(ctx context.Context, in, out int) {
	select {
	case s.chunks <- types.StreamChunk{Type: types.ChunkUsage, Usage: types.Usage{InputTokens: in, OutputTokens: out}}:
	case <-ctx.Done():
	}
}

// Provider produces streamed edit suggestions for a document position
type Provider interface {
	Name() string
	StreamEdits(ctx context.Context, req *Request) (*Stream, error)
}

// New constructs the provider selected by ptype
func New(ptype types.ProviderType, cfg *types.ProviderConfig) (Provider, error) {
	switch ptype {
	case types.ProviderTypeOpenAI:
		return newOpenAIProvider(cfg), nil
	case types.ProviderTypeAnthropic:
		return newAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown provider type %q", ptype)
	}
}
