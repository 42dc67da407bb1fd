package agentloop

import (
	"sync"
	"time"

	"github.com/martinemde/toolloop/modelclient"
)

// TurnKind discriminates between turn types.
type TurnKind string

const (
	TurnUser        TurnKind = "user"
	TurnAssistant   TurnKind = "assistant"
	TurnToolResults TurnKind = "tool_results"
	TurnSteering    TurnKind = "steering"
)

// Turn is a single entry in the conversation transcript.
type Turn struct {
	Kind        TurnKind                 `json:"kind"`
	Timestamp   time.Time                `json:"timestamp"`
	Content     string                   `json:"content,omitempty"`
	ToolCalls   []modelclient.ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []modelclient.ToolResult `json:"tool_results,omitempty"`
	Usage       modelclient.Usage        `json:"usage,omitempty"`
}

// NewUserTurn creates a Turn wrapping user input.
func NewUserTurn(content string) Turn {
	return Turn{Kind: TurnUser, Timestamp: time.Now(), Content: content}
}

// NewAssistantTurn creates a Turn wrapping a model response.
func NewAssistantTurn(content string, toolCalls []modelclient.ToolCall, usage modelclient.Usage) Turn {
	return Turn{
		Kind:      TurnAssistant,
		Timestamp: time.Now(),
		Content:   content,
		ToolCalls: toolCalls,
		Usage:     usage,
	}
}

// NewToolResultsTurn creates a Turn wrapping tool execution results.
func NewToolResultsTurn(results []modelclient.ToolResult) Turn {
	return Turn{Kind: TurnToolResults, Timestamp: time.Now(), ToolResults: results}
}

// NewSteeringTurn creates a Turn wrapping an injected steering message.
func NewSteeringTurn(content string) Turn {
	return Turn{Kind: TurnSteering, Timestamp: time.Now(), Content: content}
}

// Transcript is the append-only conversation state for one Run invocation.
// The loop is the only writer; hosts may read it concurrently while a run
// is in flight.
type Transcript struct {
	mu    sync.Mutex
	turns []Turn
}

// Append adds a turn.
func (t *Transcript) Append(turn Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, turn)
}

// Turns returns a copy of the recorded turns.
func (t *Transcript) Turns() []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}

// ToolResults returns all tool results in transcript order.
func (t *Transcript) ToolResults() []modelclient.ToolResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	var results []modelclient.ToolResult
	for _, turn := range t.turns {
		if turn.Kind == TurnToolResults {
			results = append(results, turn.ToolResults...)
		}
	}
	return results
}

// ToMessages converts the transcript into model messages. Steering turns
// are sent as user messages so the model treats them as additional
// instructions.
func (t *Transcript) ToMessages() []modelclient.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	var messages []modelclient.Message
	for _, turn := range t.turns {
		switch turn.Kind {
		case TurnUser, TurnSteering:
			messages = append(messages, modelclient.UserMessage(turn.Content))
		case TurnAssistant:
			messages = append(messages, modelclient.AssistantToolCallMessage(turn.Content, turn.ToolCalls))
		case TurnToolResults:
			for _, result := range turn.ToolResults {
				messages = append(messages, modelclient.ToolResultMessage(result))
			}
		}
	}
	return messages
}
