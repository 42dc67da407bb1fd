package agentloop

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/martinemde/toolloop/modelclient"
)

func echoTool(name string) RegisteredTool {
	return RegisteredTool{
		Definition: modelclient.ToolDefinition{
			Name:        name,
			Description: "echoes its input",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		Func: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			return string(arguments), nil
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewToolRegistry()
	if err := reg.Register(echoTool("echo")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Get("echo") == nil {
		t.Error("expected to find registered tool")
	}
	if reg.Get("missing") != nil {
		t.Error("expected nil for unregistered tool")
	}
	if reg.Count() != 1 {
		t.Errorf("count = %d", reg.Count())
	}
}

func TestRegistryRejectsInvalidDefinitions(t *testing.T) {
	reg := NewToolRegistry()

	if err := reg.Register(RegisteredTool{}); err == nil {
		t.Error("expected error for unnamed tool")
	}

	noFunc := echoTool("broken")
	noFunc.Func = nil
	if err := reg.Register(noFunc); err == nil {
		t.Error("expected error for tool without implementation")
	}

	badSchema := echoTool("bad_schema")
	badSchema.Definition.Parameters = map[string]interface{}{"type": "string"}
	if err := reg.Register(badSchema); err == nil {
		t.Error("expected error for non-object parameter schema")
	}
}

func TestRegistryNamesAndDefinitionsSorted(t *testing.T) {
	reg := NewToolRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(echoTool(name)); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"alpha", "mid", "zeta"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v", got)
	}
	defs := reg.Definitions()
	for i, def := range defs {
		if def.Name != want[i] {
			t.Errorf("Definitions()[%d] = %q, want %q", i, def.Name, want[i])
		}
	}
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewToolRegistry()
	if err := reg.Register(echoTool("echo")); err != nil {
		t.Fatal(err)
	}
	reg.Unregister("echo")
	if reg.Get("echo") != nil {
		t.Error("expected tool to be removed")
	}
}

func TestParseArguments(t *testing.T) {
	args, err := ParseArguments(json.RawMessage(`{"query": "go", "limit": 5, "deep": true}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s, ok := GetStringArg(args, "query"); !ok || s != "go" {
		t.Errorf("query = %q, %v", s, ok)
	}
	if n, ok := GetIntArg(args, "limit"); !ok || n != 5 {
		t.Errorf("limit = %d, %v", n, ok)
	}
	if b, ok := GetBoolArg(args, "deep"); !ok || !b {
		t.Errorf("deep = %v, %v", b, ok)
	}
	if _, ok := GetStringArg(args, "absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestParseArgumentsEmpty(t *testing.T) {
	args, err := ParseArguments(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 0 {
		t.Errorf("expected empty map, got %v", args)
	}
}

func TestParseArgumentsMalformed(t *testing.T) {
	if _, err := ParseArguments(json.RawMessage(`[1,2,3]`)); err == nil {
		t.Error("expected error for non-object arguments")
	}
}
