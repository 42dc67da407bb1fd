package agentloop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/martinemde/toolloop/modelclient"
)

// ExhaustedMessage is returned when the iteration budget runs out before
// the model produces a final answer.
const ExhaustedMessage = "Task too complex: no final answer within the iteration budget. Break the task into smaller steps and try again."

var (
	// ErrIterationsExhausted reports that Run hit MaxIterations.
	ErrIterationsExhausted = errors.New("iteration budget exhausted")

	// ErrRepeatedFailure reports an early abort because the model kept
	// reissuing an identical failing tool call.
	ErrRepeatedFailure = errors.New("model repeated an identical failing tool call")
)

// Loop orchestrates the request/response/tool-execution cycle between the
// model and the executor until a final answer is produced or the iteration
// budget is exhausted.
type Loop struct {
	id         string
	config     Config
	registry   *ToolRegistry
	executor   *Executor
	client     modelclient.Caller
	emitter    *Emitter
	observer   *Observer
	steering   []string
	transcript *Transcript
	mu         sync.Mutex
}

// Option configures a Loop.
type Option func(*Loop)

// WithObserver sets the observer used for structured execution records.
func WithObserver(o *Observer) Option {
	return func(l *Loop) { l.observer = o }
}

// WithLogger is shorthand for WithObserver(NewObserver(logger)).
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) { l.observer = NewObserver(logger) }
}

// New creates a Loop over a tool registry. A nil client falls back to the
// module-level default model client.
func New(config Config, registry *ToolRegistry, client modelclient.Caller, opts ...Option) *Loop {
	config.validate()
	if client == nil {
		client = modelclient.GetDefaultClient()
	}
	l := &Loop{
		id:       uuid.New().String(),
		config:   config,
		registry: registry,
		executor: NewExecutor(registry),
		client:   client,
		observer: NewObserver(nil),
	}
	l.emitter = NewEmitter(l.id, config.EventBufferSize)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ID returns the loop identifier.
func (l *Loop) ID() string { return l.id }

// Events returns the event channel for the host application.
func (l *Loop) Events() <-chan Event { return l.emitter.Events() }

// Close closes the event channel.
func (l *Loop) Close() { l.emitter.Close() }

// Steer queues a message to be injected into the transcript after the
// current tool round.
func (l *Loop) Steer(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steering = append(l.steering, message)
}

// Transcript returns the turns recorded by the most recent Run call. The
// transcript is rebuilt on every invocation; nothing persists across runs.
func (l *Loop) Transcript() []Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.transcript == nil {
		return nil
	}
	return l.transcript.Turns()
}

// Run processes one user message through the loop and returns the final
// answer text. On abort the returned string is a fixed user-facing failure
// message and the error carries the typed cause: an *InfraError, or
// ErrIterationsExhausted / ErrRepeatedFailure when no answer was produced
// within budget.
func (l *Loop) Run(ctx context.Context, userMessage string) (string, error) {
	transcript := &Transcript{}
	tracker := NewRepeatTracker(l.config.RepeatLimit)

	l.mu.Lock()
	l.transcript = transcript
	l.mu.Unlock()

	l.emitter.Emit(EventRunStart, map[string]interface{}{"input": userMessage})
	transcript.Append(NewUserTurn(userMessage))
	l.drainSteering(transcript)

	for iteration := 1; iteration <= l.config.MaxIterations; iteration++ {
		select {
		case <-ctx.Done():
			infra := NewInfraError("request cancelled", ctx.Err())
			return l.abort(infra)
		default:
		}

		req := modelclient.Request{
			Model:      l.config.Model,
			Provider:   l.config.Provider,
			Messages:   l.buildMessages(transcript),
			Tools:      l.registry.Definitions(),
			ToolChoice: modelclient.ToolChoiceAuto,
		}

		start := time.Now()
		resp, err := l.client.Complete(ctx, req)
		if err != nil {
			infra := NewInfraError("model call failed", err)
			return l.abort(infra)
		}

		toolCalls := resp.ToolCalls()
		l.observer.ModelRoundTrip(l.id, iteration, len(toolCalls), time.Since(start))
		transcript.Append(NewAssistantTurn(resp.Text(), toolCalls, resp.Usage))
		l.emitter.Emit(EventModelResponse, map[string]interface{}{
			"iteration":  iteration,
			"text":       resp.Text(),
			"tool_calls": len(toolCalls),
		})

		// No tool calls: the model's text is the final answer.
		if len(toolCalls) == 0 {
			l.emitter.Emit(EventRunEnd, map[string]interface{}{"iterations": iteration})
			return resp.Text(), nil
		}

		results, repeatCount, infra := l.executeCalls(ctx, toolCalls, iteration, tracker)
		if len(results) > 0 {
			transcript.Append(NewToolResultsTurn(results))
		}
		if infra != nil {
			return l.abort(infra)
		}

		l.drainSteering(transcript)

		if tracker.ShouldAbort(repeatCount) && l.config.AbortOnRepeat {
			l.emitter.Emit(EventRepeatDetected, map[string]interface{}{
				"count":   repeatCount,
				"aborted": true,
			})
			return ExhaustedMessage, ErrRepeatedFailure
		}
		if tracker.ShouldWarn(repeatCount) {
			warning := tracker.Warning()
			transcript.Append(NewSteeringTurn(warning))
			l.emitter.Emit(EventRepeatDetected, map[string]interface{}{
				"count":   repeatCount,
				"message": warning,
			})
		}
	}

	l.emitter.Emit(EventIterationLimit, map[string]interface{}{
		"max_iterations": l.config.MaxIterations,
	})
	return ExhaustedMessage, ErrIterationsExhausted
}

// abort surfaces an infrastructure failure: the model never sees it, the
// caller gets a generic failure string, and the typed error is returned
// for programmatic handling.
func (l *Loop) abort(infra *InfraError) (string, error) {
	l.emitter.Emit(EventAborted, map[string]interface{}{"error": infra.Error()})
	return FailureMessage(infra), infra
}

// buildMessages prepends the configured system prompt to the transcript.
func (l *Loop) buildMessages(transcript *Transcript) []modelclient.Message {
	messages := transcript.ToMessages()
	if l.config.SystemPrompt == "" {
		return messages
	}
	return append([]modelclient.Message{modelclient.SystemMessage(l.config.SystemPrompt)}, messages...)
}

// drainSteering injects queued steering messages into the transcript.
func (l *Loop) drainSteering(transcript *Transcript) {
	l.mu.Lock()
	queued := l.steering
	l.steering = nil
	l.mu.Unlock()

	for _, msg := range queued {
		transcript.Append(NewSteeringTurn(msg))
		l.emitter.Emit(EventSteering, map[string]interface{}{"content": msg})
	}
}

// emitToolCallStart fires at the moment execution begins so hosts streaming
// events see accurate start/end timing.
func (l *Loop) emitToolCallStart(call modelclient.ToolCall) {
	l.emitter.Emit(EventToolCallStart, map[string]interface{}{
		"tool":    call.Name,
		"call_id": call.ID,
	})
}

// callOutcome holds one tool execution outcome prior to ordered processing.
type callOutcome struct {
	output   string
	err      error
	duration time.Duration
	ran      bool
}

// executeCalls runs the turn's tool calls and converts each outcome into a
// transcript result. Results are ordered by request order regardless of
// execution mode. An InfraError stops processing immediately; calls after
// the failing one are not resolved.
func (l *Loop) executeCalls(ctx context.Context, calls []modelclient.ToolCall, iteration int, tracker *RepeatTracker) ([]modelclient.ToolResult, int, *InfraError) {
	outcomes := make([]callOutcome, len(calls))

	if l.config.ParallelToolCalls && len(calls) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i, call := range calls {
			g.Go(func() error {
				l.emitToolCallStart(call)
				start := time.Now()
				output, err := l.executor.Execute(gctx, call)
				outcomes[i] = callOutcome{output: output, err: err, duration: time.Since(start), ran: true}
				var infra *InfraError
				if errors.As(err, &infra) {
					// Cancel sibling executions; the ordered pass below
					// decides which failure is surfaced.
					return infra
				}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, call := range calls {
			l.emitToolCallStart(call)
			start := time.Now()
			output, err := l.executor.Execute(ctx, call)
			outcomes[i] = callOutcome{output: output, err: err, duration: time.Since(start), ran: true}
			var infra *InfraError
			if errors.As(err, &infra) {
				break
			}
		}
	}

	var results []modelclient.ToolResult
	maxRepeat := 0

	for i, call := range calls {
		outcome := outcomes[i]
		if !outcome.ran {
			break
		}

		if outcome.err == nil {
			truncated := TruncateToolOutput(outcome.output, call.Name, l.config.ToolCharLimits, l.config.ToolLineLimits)
			results = append(results, modelclient.ToolResult{
				ToolCallID: call.ID,
				Content:    truncated,
				IsError:    false,
			})
			tracker.Observe(call.Name, call.Arguments, false)
			l.observer.ToolOutcome(ToolOutcome{
				RunID:     l.id,
				Tool:      call.Name,
				CallID:    call.ID,
				Iteration: iteration,
				Duration:  outcome.duration,
			})
			l.emitter.Emit(EventToolCallEnd, map[string]interface{}{
				"call_id": call.ID,
				"output":  outcome.output, // full untruncated output
			})
			continue
		}

		var agentErr *AgentError
		if errors.As(outcome.err, &agentErr) {
			payload := ToToolResponse(agentErr)
			results = append(results, modelclient.ToolResult{
				ToolCallID: call.ID,
				Content:    payload.JSON(),
				IsError:    true,
			})
			if count := tracker.Observe(call.Name, call.Arguments, true); count > maxRepeat {
				maxRepeat = count
			}
			l.observer.ToolOutcome(ToolOutcome{
				RunID:       l.id,
				Tool:        call.Name,
				CallID:      call.ID,
				Iteration:   iteration,
				Duration:    outcome.duration,
				Code:        agentErr.Code,
				Recoverable: agentErr.Recoverable,
				Hint:        agentErr.Hint,
			})
			l.emitter.Emit(EventAgentError, map[string]interface{}{
				"call_id": call.ID,
				"code":    string(agentErr.Code),
				"hint":    agentErr.Hint,
			})
			l.emitter.Emit(EventToolCallEnd, map[string]interface{}{
				"call_id": call.ID,
				"error":   agentErr.Error(),
			})
			continue
		}

		var infra *InfraError
		if !errors.As(outcome.err, &infra) {
			// Executor contract: errors are always classified.
			infra = NewInfraError("unclassified tool failure", outcome.err)
		}
		l.observer.ToolOutcome(ToolOutcome{
			RunID:     l.id,
			Tool:      call.Name,
			CallID:    call.ID,
			Iteration: iteration,
			Duration:  outcome.duration,
			Infra:     true,
		})
		l.emitter.Emit(EventToolCallEnd, map[string]interface{}{
			"call_id": call.ID,
			"error":   infra.Error(),
		})
		return results, maxRepeat, infra
	}

	return results, maxRepeat, nil
}
