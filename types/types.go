package types

// StreamChunkType discriminates the chunks a provider stream emits
type StreamChunkType int

const (
	// ChunkText carries raw protocol text to be fed to the suggestion parser
	ChunkText StreamChunkType = iota
	// ChunkUsage carries token accounting; passed through to metrics, never parsed
	ChunkUsage
)

// StreamChunk is one element of a provider's streamed response
type StreamChunk struct {
	Type  StreamChunkType
	Text  string
	Usage Usage
}

// Usage holds token counts reported by a provider
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates counts from another usage report
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// SuggestionSource indicates what triggered a suggestion request
type SuggestionSource int

const (
	SuggestionSourceTyping SuggestionSource = iota
	SuggestionSourceManual
)

// ProviderType represents the type of provider
type ProviderType string

const (
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeAnthropic ProviderType = "anthropic"
)

// ProviderConfig holds configuration for providers
type ProviderConfig struct {
	ProviderURL         string  // Base URL of an OpenAI-compatible server
	APIKey              string  // Resolved API key for authenticated requests
	ProviderModel       string  // Model name
	ProviderTemperature float64 // Sampling temperature
	ProviderMaxTokens   int     // Max tokens to generate
	MaxContextTokens    int     // Budget for the prompt window around the cursor
	PrivacyMode         bool    // Don't send telemetry
}
