package anthropic

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 1024

// Client wraps the official Anthropic SDK for streaming text generation
type Client struct {
	client sdk.Client
	model  string
}

// NewClient creates an Anthropic client. The API key is required; the
// model falls back to a sensible default when empty.
func NewClient(apiKey, model string) (*Client, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("anthropic client requires an API key")
	}
	m := strings.TrimSpace(model)
	if m == "" {
		m = string(sdk.ModelClaudeSonnet4_5)
	}
	return &Client{
		client: sdk.NewClient(option.WithAPIKey(key)),
		model:  m,
	}, nil
}

// ModelName returns the configured model identifier
func (c *Client) ModelName() string {
	return c.model
}

// DoStreamingMessage streams one system+user exchange, invoking onDelta per
// text fragment and onUsage with the final token counts. Blocks until the
// stream ends or ctx is cancelled.
func (c *Client) DoStreamingMessage(ctx context.Context, system, user string, maxTokens int, temperature float64, onDelta func(string), onUsage func(in, out int)) error {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if temperature > 0 {
		params.Temperature = sdk.Float(temperature)
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	if stream == nil {
		return fmt.Errorf("anthropic stream failed: no stream returned")
	}
	defer stream.Close()

	inputTokens := 0
	outputTokens := 0

	for stream.Next() {
		switch event := stream.Current().AsAny().(type) {
		case sdk.MessageStartEvent:
			inputTokens = int(event.Message.Usage.InputTokens)
		case sdk.ContentBlockDeltaEvent:
			if delta, ok := event.Delta.AsAny().(sdk.TextDelta); ok && delta.Text != "" {
				onDelta(delta.Text)
			}
		case sdk.MessageDeltaEvent:
			outputTokens = int(event.Usage.OutputTokens)
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("anthropic stream failed: %w", err)
	}

	if onUsage != nil {
		onUsage(inputTokens, outputTokens)
	}
	return nil
}
