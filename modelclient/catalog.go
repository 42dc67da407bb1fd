package modelclient

import "strings"

// ModelInfo describes a known model.
type ModelInfo struct {
	ID            string
	Provider      string
	ContextWindow int
	MaxOutput     int
}

// catalog holds well-known models so a request naming only a model can be
// routed to the right provider. Entries are ordered newest first per
// provider; DefaultModel returns the first match.
var catalog = []ModelInfo{
	{ID: "gpt-4o", Provider: "openai", ContextWindow: 128000, MaxOutput: 16384},
	{ID: "gpt-4o-mini", Provider: "openai", ContextWindow: 128000, MaxOutput: 16384},
	{ID: "gpt-4-turbo", Provider: "openai", ContextWindow: 128000, MaxOutput: 4096},
	{ID: "o3-mini", Provider: "openai", ContextWindow: 200000, MaxOutput: 100000},
	{ID: "claude-sonnet-4-5", Provider: "anthropic", ContextWindow: 200000, MaxOutput: 64000},
	{ID: "claude-opus-4-1", Provider: "anthropic", ContextWindow: 200000, MaxOutput: 32000},
	{ID: "claude-3-5-haiku", Provider: "anthropic", ContextWindow: 200000, MaxOutput: 8192},
}

// GetModelInfo looks up a model by ID. Dated variants such as
// "claude-sonnet-4-5-20250929" match their undated catalog entry.
func GetModelInfo(id string) *ModelInfo {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i]
		}
	}
	for i := range catalog {
		if strings.HasPrefix(id, catalog[i].ID+"-") {
			return &catalog[i]
		}
	}
	return nil
}

// DefaultModel returns the first catalog entry for a provider, or nil if
// the provider is unknown.
func DefaultModel(provider string) *ModelInfo {
	for i := range catalog {
		if catalog[i].Provider == provider {
			return &catalog[i]
		}
	}
	return nil
}
