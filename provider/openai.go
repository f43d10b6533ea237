package provider

import (
	"context"
	"fmt"

	"ghosttab/client/openai"
	"ghosttab/logger"
	"ghosttab/types"
)

const defaultOpenAIMaxTokens = 1024

type openAIProvider struct {
	client *openai.Client
	config *types.ProviderConfig
}

func newOpenAIProvider(cfg *types.ProviderConfig) *openAIProvider {
	return &openAIProvider{
		client: openai.NewClient(cfg.ProviderURL, cfg.APIKey),
		config: cfg,
	}
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) StreamEdits(ctx context.Context, req *Request) (*Stream, error) {
	if p.config.ProviderURL == "" {
		return nil, fmt.Errorf("openai provider requires a base URL")
	}

	system, user := BuildPrompt(req, p.config.MaxContextTokens)

	maxTokens := p.config.ProviderMaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultOpenAIMaxTokens
	}
	chatReq := &openai.ChatRequest{
		Model: p.config.ProviderModel,
		Messages: []openai.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: p.config.ProviderTemperature,
		MaxTokens:   maxTokens,
	}

	s := newStream()
	go func() {
		err := p.client.DoStreamingChat(ctx, chatReq,
			func(delta string) {
				s.sendText(ctx, delta)
			},
			func(in, out int) {
				s.sendUsage(ctx, in, out)
			},
		)
		if err != nil && ctx.Err() == nil {
			logger.Warn("openai provider: stream failed: %v", err)
		}
		s.finish(err)
	}()
	return s, nil
}
