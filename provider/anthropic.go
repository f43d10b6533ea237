package provider

import (
	"context"

	"ghosttab/client/anthropic"
	"ghosttab/logger"
	"ghosttab/types"
)

type anthropicProvider struct {
	client *anthropic.Client
	config *types.ProviderConfig
}

func newAnthropicProvider(cfg *types.ProviderConfig) (*anthropicProvider, error) {
	client, err := anthropic.NewClient(cfg.APIKey, cfg.ProviderModel)
	if err != nil {
		return nil, err
	}
	return &anthropicProvider{client: client, config: cfg}, nil
}

func (p *anthropicProvider) Name() string {
	return "anthropic"
}

func (p *anthropicProvider) StreamEdits(ctx context.Context, req *Request) (*Stream, error) {
	system, user := BuildPrompt(req, p.config.MaxContextTokens)

	s := newStream()
	go func() {
		err := p.client.DoStreamingMessage(ctx, system, user,
			p.config.ProviderMaxTokens, p.config.ProviderTemperature,
			func(delta string) {
				s.sendText(ctx, delta)
			},
			func(in, out int) {
				s.sendUsage(ctx, in, out)
			},
		)
		if err != nil && ctx.Err() == nil {
			logger.Warn("anthropic provider: stream failed: %v", err)
		}
		s.finish(err)
	}()
	return s, nil
}
