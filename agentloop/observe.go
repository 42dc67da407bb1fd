package agentloop

import (
	"time"

	"go.uber.org/zap"
)

// ToolOutcome is the structured record emitted once per tool execution.
type ToolOutcome struct {
	RunID       string
	Tool        string
	CallID      string
	Iteration   int
	Duration    time.Duration
	Code        ErrorCode // empty on success
	Recoverable bool
	Hint        string
	Infra       bool
}

// Observer writes one structured log record per tool execution outcome.
// It is side-effect only and never alters control flow; the zero value and
// a nil logger both log nowhere.
type Observer struct {
	logger *zap.Logger
}

// NewObserver creates an Observer. A nil logger disables output.
func NewObserver(logger *zap.Logger) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Observer{logger: logger}
}

// Logger returns the underlying zap logger.
func (o *Observer) Logger() *zap.Logger {
	if o == nil || o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

// ToolOutcome records the outcome of one tool execution.
func (o *Observer) ToolOutcome(out ToolOutcome) {
	if o == nil || o.logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("run_id", out.RunID),
		zap.String("tool", out.Tool),
		zap.String("call_id", out.CallID),
		zap.Int("iteration", out.Iteration),
		zap.Duration("duration", out.Duration),
	}
	switch {
	case out.Infra:
		o.logger.Error("tool execution aborted", fields...)
	case out.Code != "":
		fields = append(fields,
			zap.String("code", string(out.Code)),
			zap.Bool("recoverable", out.Recoverable),
		)
		if out.Hint != "" {
			fields = append(fields, zap.String("hint", out.Hint))
		}
		o.logger.Warn("tool execution failed", fields...)
	default:
		o.logger.Info("tool execution succeeded", fields...)
	}
}

// ModelRoundTrip records one completed model call.
func (o *Observer) ModelRoundTrip(runID string, iteration int, toolCalls int, duration time.Duration) {
	if o == nil || o.logger == nil {
		return
	}
	o.logger.Info("model round-trip",
		zap.String("run_id", runID),
		zap.Int("iteration", iteration),
		zap.Int("tool_calls", toolCalls),
		zap.Duration("duration", duration),
	)
}
