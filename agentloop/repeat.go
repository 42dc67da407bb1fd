package agentloop

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// callSignature computes a deterministic signature for a tool call
// (name + hash of arguments).
func callSignature(name string, arguments json.RawMessage) string {
	h := sha256.Sum256(arguments)
	return fmt.Sprintf("%s:%x", name, h[:8])
}

// RepeatTracker counts consecutive identical failing tool calls. A model
// that keeps reissuing the same broken call is warned once the limit is
// reached and, when aborting is enabled, cut off at twice the limit rather
// than being allowed to burn the whole iteration budget.
type RepeatTracker struct {
	limit    int
	lastSig  string
	failures int
}

// NewRepeatTracker creates a tracker. A limit of 0 disables tracking.
func NewRepeatTracker(limit int) *RepeatTracker {
	return &RepeatTracker{limit: limit}
}

// Observe records one tool call outcome and returns the current count of
// consecutive identical failures for that signature.
func (t *RepeatTracker) Observe(name string, arguments json.RawMessage, failed bool) int {
	if t == nil || t.limit <= 0 {
		return 0
	}
	sig := callSignature(name, arguments)
	if !failed {
		// Any success breaks the consecutive-failure streak.
		t.failures = 0
		t.lastSig = sig
		return 0
	}
	if sig == t.lastSig {
		t.failures++
	} else {
		t.lastSig = sig
		t.failures = 1
	}
	return t.failures
}

// ShouldWarn reports whether the warning threshold has just been crossed.
func (t *RepeatTracker) ShouldWarn(count int) bool {
	return t != nil && t.limit > 0 && count == t.limit
}

// ShouldAbort reports whether the hard threshold has been reached.
func (t *RepeatTracker) ShouldAbort(count int) bool {
	return t != nil && t.limit > 0 && count >= 2*t.limit
}

// Warning returns the steering message injected when a repeat is detected.
func (t *RepeatTracker) Warning() string {
	return fmt.Sprintf("The last %d tool calls were identical and all failed. Re-read the error hint and change the call before trying again.", t.limit)
}
