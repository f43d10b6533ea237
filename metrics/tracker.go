package metrics

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"

	"ghosttab/logger"
	"ghosttab/types"
)

const (
	EventShown     = "suggestion_shown"
	EventAccepted  = "suggestion_accepted"
	EventDismissed = "suggestion_dismissed"
)

// EventRequest is the upload format for one suggestion lifecycle event.
// Bodies are brotli-compressed on the wire.
type EventRequest struct {
	EventType          string `json:"event_type"`
	SuggestionID       string `json:"suggestion_id"`
	Additions          int    `json:"additions"`
	Deletions          int    `json:"deletions"`
	Lifespan           *int64 `json:"lifespan"`
	InputTokens        int    `json:"input_tokens"`
	OutputTokens       int    `json:"output_tokens"`
	DeviceID           string `json:"device_id"`
	EditorInfo         string `json:"editor_info"`
	PrivacyModeEnabled bool   `json:"privacy_mode_enabled"`
}

// SuggestionMetrics captures what a session showed and when
type SuggestionMetrics struct {
	ID        string
	Additions int
	Deletions int
	ShownAt   time.Time
}

// Tracker records suggestion lifecycle events and token usage. With an
// empty endpoint or privacy mode enabled it degrades to counting only.
type Tracker struct {
	endpoint   string
	apiKey     string
	editorInfo string
	deviceID   string
	privacy    bool
	httpClient *http.Client

	mu    sync.Mutex
	usage types.Usage
}

func NewTracker(endpoint, apiKey, editorInfo, dataDir string, privacy bool) *Tracker {
	return &Tracker{
		endpoint:   endpoint,
		apiKey:     apiKey,
		editorInfo: editorInfo,
		deviceID:   loadOrCreateDeviceID(dataDir),
		privacy:    privacy,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// AddUsage accumulates token usage reported by a provider stream
func (t *Tracker) AddUsage(u types.Usage) {
	t.mu.Lock()
	t.usage.Add(u)
	t.mu.Unlock()
}

// Usage returns the accumulated token usage
func (t *Tracker) Usage() types.Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage
}

func (t *Tracker) TrackShown(m *SuggestionMetrics) {
	t.send(t.newRequest(EventShown, m, nil))
}

func (t *Tracker) TrackAccepted(m *SuggestionMetrics) {
	t.send(t.newRequest(EventAccepted, m, nil))
}

func (t *Tracker) TrackDismissed(m *SuggestionMetrics) {
	lifespan := time.Since(m.ShownAt).Milliseconds()
	t.send(t.newRequest(EventDismissed, m, &lifespan))
}

func (t *Tracker) newRequest(event string, m *SuggestionMetrics, lifespan *int64) *EventRequest {
	usage := t.Usage()
	return &EventRequest{
		EventType:          event,
		SuggestionID:       m.ID,
		Additions:          m.Additions,
		Deletions:          m.Deletions,
		Lifespan:           lifespan,
		InputTokens:        usage.InputTokens,
		OutputTokens:       usage.OutputTokens,
		DeviceID:           t.deviceID,
		EditorInfo:         t.editorInfo,
		PrivacyModeEnabled: t.privacy,
	}
}

func (t *Tracker) send(req *EventRequest) {
	if t.endpoint == "" || t.privacy {
		logger.Debug("metrics: %s (id=%s, upload disabled)", req.EventType, req.SuggestionID)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		jsonData, err := json.Marshal(req)
		if err != nil {
			logger.Debug("metrics: marshal error: %v", err)
			return
		}

		// Quality 1: these payloads are tiny, speed wins
		var compressed bytes.Buffer
		w := brotli.NewWriterLevel(&compressed, 1)
		if _, err := w.Write(jsonData); err != nil {
			logger.Debug("metrics: compress error: %v", err)
			return
		}
		if err := w.Close(); err != nil {
			logger.Debug("metrics: compress close error: %v", err)
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", t.endpoint, &compressed)
		if err != nil {
			logger.Debug("metrics: create request error: %v", err)
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Content-Encoding", "br")
		if t.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
		}

		resp, err := t.httpClient.Do(httpReq)
		if err != nil {
			logger.Debug("metrics: send error: %v", err)
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 400 {
			logger.Debug("metrics: server returned %d for %s", resp.StatusCode, req.EventType)
		} else {
			logger.Debug("metrics: sent %s (id=%s)", req.EventType, req.SuggestionID)
		}
	}()
}

func loadOrCreateDeviceID(dataDir string) string {
	if dataDir == "" {
		return GenerateUUID()
	}

	idPath := filepath.Join(dataDir, "device_id")

	data, err := os.ReadFile(idPath)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id
		}
	}

	id := GenerateUUID()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		logger.Warn("metrics: could not create data dir %s: %v", dataDir, err)
		return id
	}
	if err := os.WriteFile(idPath, []byte(id), 0644); err != nil {
		logger.Warn("metrics: could not write device_id: %v", err)
	}
	return id
}

func GenerateUUID() string {
	var uuid [16]byte
	if _, err := rand.Read(uuid[:]); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	uuid[6] = (uuid[6] & 0x0f) | 0x40 // version 4
	uuid[8] = (uuid[8] & 0x3f) | 0x80 // variant 2
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16])
}
