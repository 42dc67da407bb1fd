package agentloop

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds loop configuration. The zero value is not usable; start
// from DefaultConfig or ConfigFromEnv.
type Config struct {
	// Model and Provider select the completion backend. Empty values defer
	// to the model client's own resolution.
	Model    string `env:"TOOLLOOP_MODEL"`
	Provider string `env:"TOOLLOOP_PROVIDER"`

	// SystemPrompt, when set, is prepended to every model request.
	SystemPrompt string `env:"TOOLLOOP_SYSTEM_PROMPT"`

	// MaxIterations bounds the number of model round-trips per Run call.
	MaxIterations int `env:"TOOLLOOP_MAX_ITERATIONS" envDefault:"10"`

	// RepeatLimit is the number of consecutive identical failing tool calls
	// tolerated before a steering warning is injected. 0 disables tracking.
	RepeatLimit int `env:"TOOLLOOP_REPEAT_LIMIT" envDefault:"3"`

	// AbortOnRepeat ends the run early (with the exhaustion message) when a
	// failing call has been repeated 2*RepeatLimit times. Off by default:
	// the iteration budget remains the authoritative bound.
	AbortOnRepeat bool `env:"TOOLLOOP_ABORT_ON_REPEAT"`

	// ParallelToolCalls executes same-turn tool calls concurrently.
	// Transcript ordering still matches request order.
	ParallelToolCalls bool `env:"TOOLLOOP_PARALLEL_TOOL_CALLS"`

	// ToolCharLimits and ToolLineLimits override output truncation per tool.
	ToolCharLimits map[string]int `env:"-"`
	ToolLineLimits map[string]int `env:"-"`

	// EventBufferSize sizes the emitter channel.
	EventBufferSize int `env:"TOOLLOOP_EVENT_BUFFER" envDefault:"256"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations:   10,
		RepeatLimit:     3,
		EventBufferSize: 256,
	}
}

// ConfigFromEnv builds a Config from TOOLLOOP_* environment variables on
// top of the defaults.
func ConfigFromEnv() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing loop config from environment: %w", err)
	}
	return cfg, nil
}

// validate normalizes config values the loop depends on.
func (c *Config) validate() {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 10
	}
	if c.EventBufferSize <= 0 {
		c.EventBufferSize = 256
	}
}
