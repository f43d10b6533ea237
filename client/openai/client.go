package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ghosttab/logger"
)

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest matches the OpenAI chat completions request format
type ChatRequest struct {
	Model         string        `json:"model"`
	Messages      []Message     `json:"messages"`
	Temperature   float64       `json:"temperature"`
	MaxTokens     int           `json:"max_tokens,omitempty"`
	Stop          []string      `json:"stop,omitempty"`
	Stream        bool          `json:"stream"`
	StreamOptions *StreamOption `json:"stream_options,omitempty"`
}

// StreamOption controls streaming extras
type StreamOption struct {
	IncludeUsage bool `json:"include_usage"`
}

// streamChunk is a single SSE data payload from a streaming chat response
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Client is a reusable OpenAI-compatible chat API client
type Client struct {
	HTTPClient *http.Client
	URL        string
	APIKey     string
}

// NewClient creates a client for an OpenAI-compatible base URL
func NewClient(url, apiKey string) *Client {
	return &Client{
		HTTPClient: &http.Client{},
		URL:        strings.TrimRight(url, "/"),
		APIKey:     apiKey,
	}
}

// DoStreamingChat sends a streaming chat request, invoking onDelta for each
// content fragment as it arrives and onUsage once if the server reports
// token usage. Blocks until the stream ends or ctx is cancelled.
func (c *Client) DoStreamingChat(ctx context.Context, req *ChatRequest, onDelta func(string), onUsage func(in, out int)) error {
	req.Stream = true
	if req.StreamOptions == nil {
		req.StreamOptions = &StreamOption{IncludeUsage: true}
	}

	var reqBody bytes.Buffer
	encoder := json.NewEncoder(&reqBody)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(req); err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.URL+"/v1/chat/completions", &reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return c.readStream(ctx, resp.Body, onDelta, onUsage)
}

func (c *Client) readStream(ctx context.Context, body io.Reader, onDelta func(string), onUsage func(in, out int)) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if line == "data: [DONE]" {
			break
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
			logger.Debug("openai stream: failed to parse chunk: %v", err)
			continue
		}

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			onDelta(chunk.Choices[0].Delta.Content)
		}
		if chunk.Usage != nil && onUsage != nil {
			onUsage(chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read error: %w", err)
	}
	return nil
}
