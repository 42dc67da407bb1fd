package agentloop

import (
	"encoding/json"
	"testing"

	"github.com/martinemde/toolloop/modelclient"
)

func TestTranscriptToMessages(t *testing.T) {
	tr := &Transcript{}
	tr.Append(NewUserTurn("find the answer"))
	tr.Append(NewAssistantTurn("", []modelclient.ToolCall{
		{ID: "c1", Name: "search", Arguments: json.RawMessage(`{"query": "answer"}`)},
	}, modelclient.Usage{}))
	tr.Append(NewToolResultsTurn([]modelclient.ToolResult{
		{ToolCallID: "c1", Content: "42", IsError: false},
	}))
	tr.Append(NewSteeringTurn("be brief"))

	messages := tr.ToMessages()
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}

	if messages[0].Role != modelclient.RoleUser || messages[0].Text != "find the answer" {
		t.Errorf("messages[0] = %+v", messages[0])
	}
	if messages[1].Role != modelclient.RoleAssistant || len(messages[1].ToolCalls) != 1 {
		t.Errorf("messages[1] = %+v", messages[1])
	}
	if messages[2].Role != modelclient.RoleTool || messages[2].ToolResult == nil {
		t.Errorf("messages[2] = %+v", messages[2])
	}
	// Steering goes to the model as a user message.
	if messages[3].Role != modelclient.RoleUser || messages[3].Text != "be brief" {
		t.Errorf("messages[3] = %+v", messages[3])
	}
}

func TestTranscriptTurnsReturnsCopy(t *testing.T) {
	tr := &Transcript{}
	tr.Append(NewUserTurn("one"))

	turns := tr.Turns()
	turns[0].Content = "mutated"

	if tr.Turns()[0].Content != "one" {
		t.Error("Turns() must return a copy")
	}
}

func TestTranscriptToolResultsOrder(t *testing.T) {
	tr := &Transcript{}
	tr.Append(NewToolResultsTurn([]modelclient.ToolResult{
		{ToolCallID: "c1", Content: "first"},
		{ToolCallID: "c2", Content: "second"},
	}))
	tr.Append(NewToolResultsTurn([]modelclient.ToolResult{
		{ToolCallID: "c3", Content: "third"},
	}))

	results := tr.ToolResults()
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"first", "second", "third"} {
		if results[i].Content != want {
			t.Errorf("results[%d] = %q, want %q", i, results[i].Content, want)
		}
	}
}
