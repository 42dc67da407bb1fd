package agentloop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/martinemde/toolloop/modelclient"
)

// ErrorCode identifies the failure category of an AgentError.
type ErrorCode string

const (
	CodeInvalidTool     ErrorCode = "invalid_tool"
	CodeInvalidParams   ErrorCode = "invalid_params"
	CodeExecutionFailed ErrorCode = "tool_execution_failed"
	CodeRateLimited     ErrorCode = "rate_limited"
	CodeAuthFailed      ErrorCode = "auth_failed"
	CodeTimeout         ErrorCode = "timeout"
	CodeOutputTooLarge  ErrorCode = "output_too_large"
)

// AgentError is a recoverable failure meant to be shown to the model. The
// Hint, when present, tells the model how to correct its next call. Hints
// are always system-generated; tool output is never promoted into a hint.
type AgentError struct {
	Code        ErrorCode
	Message     string
	Hint        string
	Recoverable bool
	Cause       error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AgentError) Unwrap() error { return e.Cause }

// NewAgentError creates a recoverable AgentError with the given code.
func NewAgentError(code ErrorCode, message, hint string) *AgentError {
	return &AgentError{Code: code, Message: message, Hint: hint, Recoverable: true}
}

// ErrInvalidTool reports a call to an unregistered tool.
func ErrInvalidTool(name string, registered []string) *AgentError {
	return NewAgentError(CodeInvalidTool,
		fmt.Sprintf("unknown tool %q", name),
		"available tools: "+strings.Join(registered, ", "))
}

// ErrInvalidParams reports missing or malformed tool parameters. The hint
// must name the offending field.
func ErrInvalidParams(message, hint string) *AgentError {
	return NewAgentError(CodeInvalidParams, message, hint)
}

// ErrExecutionFailed wraps a recoverable domain failure raised by tool logic.
func ErrExecutionFailed(toolName string, cause error) *AgentError {
	e := NewAgentError(CodeExecutionFailed, fmt.Sprintf("tool %s failed: %v", toolName, cause), "")
	e.Cause = cause
	return e
}

// InfraError is a fatal failure outside the agent's control. It is never
// shown to the model; the loop aborts and surfaces a generic failure string
// to the caller.
type InfraError struct {
	Message string
	Cause   error
}

func (e *InfraError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("infrastructure error: %s: %v", e.Message, e.Cause)
	}
	return "infrastructure error: " + e.Message
}

func (e *InfraError) Unwrap() error { return e.Cause }

// NewInfraError creates an InfraError.
func NewInfraError(message string, cause error) *InfraError {
	return &InfraError{Message: message, Cause: cause}
}

// FailureMessage renders the user-facing string for an aborted loop. No
// internal details beyond the infra error's summary line are leaked.
func FailureMessage(e *InfraError) string {
	return fmt.Sprintf("System error: %s. Please try again later.", e.Message)
}

// ToolErrorPayload is the structured error shape serialized into the
// conversation as a tool result so the model can self-correct.
type ToolErrorPayload struct {
	Error       bool      `json:"error"`
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
	Hint        string    `json:"hint,omitempty"`
	Recoverable bool      `json:"recoverable"`
}

// ToToolResponse renders an AgentError into its model-consumable payload.
// Pure transformation: calling it twice on the same error yields identical
// payloads.
func ToToolResponse(e *AgentError) ToolErrorPayload {
	return ToolErrorPayload{
		Error:       true,
		Code:        e.Code,
		Message:     e.Message,
		Hint:        e.Hint,
		Recoverable: e.Recoverable,
	}
}

// JSON serializes the payload for the transcript.
func (p ToolErrorPayload) JSON() string {
	b, err := json.Marshal(p)
	if err != nil {
		// Payload fields are plain strings and bools; this cannot fail in
		// practice, but a tool response must never be silently dropped.
		return fmt.Sprintf(`{"error":true,"code":%q,"message":"error payload serialization failed"}`, p.Code)
	}
	return string(b)
}

// Classify reclassifies an untyped error at the executor boundary into
// exactly one of the two taxonomy kinds. Typed errors pass through
// unchanged; connectivity and cancellation failures become InfraError;
// everything else becomes a recoverable AgentError.
func Classify(toolName string, err error) error {
	if err == nil {
		return nil
	}

	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr
	}
	var infraErr *InfraError
	if errors.As(err, &infraErr) {
		return infraErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewInfraError(fmt.Sprintf("tool %s timed out", toolName), err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewInfraError(fmt.Sprintf("tool %s network failure", toolName), err)
	}
	var clientNetErr *modelclient.NetworkError
	if errors.As(err, &clientNetErr) {
		return NewInfraError(fmt.Sprintf("tool %s network failure", toolName), err)
	}

	return ErrExecutionFailed(toolName, err)
}
