package agentloop

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/martinemde/toolloop/modelclient"
)

// Executor resolves a tool call against the registry, validates its
// parameters, runs the implementation, and classifies any failure. Every
// call resolves to exactly one of: success output, *AgentError, or
// *InfraError.
type Executor struct {
	registry *ToolRegistry
}

// NewExecutor creates an Executor over a registry.
func NewExecutor(registry *ToolRegistry) *Executor {
	return &Executor{registry: registry}
}

// Execute runs one tool call. The returned error, when non-nil, is always
// *AgentError or *InfraError.
func (e *Executor) Execute(ctx context.Context, call modelclient.ToolCall) (output string, err error) {
	tool := e.registry.Get(call.Name)
	if tool == nil {
		return "", ErrInvalidTool(call.Name, e.registry.Names())
	}

	args, parseErr := ParseArguments(call.Arguments)
	if parseErr != nil {
		return "", ErrInvalidParams(
			fmt.Sprintf("arguments for %s are not a JSON object", call.Name),
			"send arguments as a JSON object matching the tool's parameter schema")
	}

	if agentErr := validateParams(call.Name, tool.Definition.Parameters, args); agentErr != nil {
		return "", agentErr
	}

	// A panicking tool must not take the loop down with it.
	defer func() {
		if r := recover(); r != nil {
			output = ""
			err = ErrExecutionFailed(call.Name, fmt.Errorf("panic: %v", r))
		}
	}()

	output, runErr := tool.Func(ctx, call.Arguments)
	if runErr != nil {
		return "", Classify(call.Name, runErr)
	}
	return output, nil
}

// validateParams checks the model's arguments against the tool's JSON
// Schema: every required parameter must be present, and declared property
// types must match. The returned hint names the exact offending field.
func validateParams(toolName string, schema map[string]interface{}, args map[string]interface{}) *AgentError {
	if schema == nil {
		return nil
	}

	properties, _ := schema["properties"].(map[string]interface{})

	if required, ok := schema["required"].([]string); ok {
		for _, name := range required {
			if missing := requireParam(toolName, name, args); missing != nil {
				return missing
			}
		}
	} else if required, ok := schema["required"].([]interface{}); ok {
		for _, v := range required {
			name, _ := v.(string)
			if missing := requireParam(toolName, name, args); missing != nil {
				return missing
			}
		}
	}

	for name, value := range args {
		propSchema, ok := properties[name].(map[string]interface{})
		if !ok {
			continue
		}
		wantType, _ := propSchema["type"].(string)
		if wantType == "" || matchesSchemaType(wantType, value) {
			continue
		}
		return ErrInvalidParams(
			fmt.Sprintf("parameter %q of %s has the wrong type", name, toolName),
			fmt.Sprintf("%q must be of type %s", name, wantType))
	}

	return nil
}

func requireParam(toolName, name string, args map[string]interface{}) *AgentError {
	if name == "" {
		return nil
	}
	// Presence is what "required" means; an empty string is a legitimate
	// value (e.g. writing an empty file).
	if _, ok := args[name]; ok {
		return nil
	}
	return ErrInvalidParams(
		fmt.Sprintf("missing required parameter %q for %s", name, toolName),
		fmt.Sprintf("%q is required", name))
}

// matchesSchemaType checks a decoded JSON value against a JSON Schema type
// tag. Numbers decode as float64, so "integer" accepts whole floats.
func matchesSchemaType(schemaType string, value interface{}) bool {
	switch schemaType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch n := value.(type) {
		case float64:
			return n == float64(int64(n))
		case json.Number:
			_, err := n.Int64()
			return err == nil
		default:
			return false
		}
	case "number":
		switch value.(type) {
		case float64, json.Number:
			return true
		default:
			return false
		}
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	default:
		return true
	}
}
