package agentloop

import (
	"encoding/json"
	"testing"
)

func TestRepeatTrackerCountsIdenticalFailures(t *testing.T) {
	tracker := NewRepeatTracker(3)
	args := json.RawMessage(`{"query": "go"}`)

	for want := 1; want <= 3; want++ {
		if got := tracker.Observe("search", args, true); got != want {
			t.Errorf("count = %d, want %d", got, want)
		}
	}
	if !tracker.ShouldWarn(3) {
		t.Error("expected warning at the limit")
	}
	if tracker.ShouldAbort(3) {
		t.Error("abort threshold is twice the limit")
	}
	if !tracker.ShouldAbort(6) {
		t.Error("expected abort at twice the limit")
	}
}

func TestRepeatTrackerResetsOnDifferentCall(t *testing.T) {
	tracker := NewRepeatTracker(3)

	tracker.Observe("search", json.RawMessage(`{"query": "a"}`), true)
	tracker.Observe("search", json.RawMessage(`{"query": "a"}`), true)
	if got := tracker.Observe("search", json.RawMessage(`{"query": "b"}`), true); got != 1 {
		t.Errorf("count after changed arguments = %d, want 1", got)
	}
	if got := tracker.Observe("read_file", json.RawMessage(`{"query": "b"}`), true); got != 1 {
		t.Errorf("count after changed tool name = %d, want 1", got)
	}
}

func TestRepeatTrackerResetsOnSuccess(t *testing.T) {
	tracker := NewRepeatTracker(3)
	args := json.RawMessage(`{"query": "a"}`)

	tracker.Observe("search", args, true)
	tracker.Observe("search", args, true)
	tracker.Observe("search", args, false)
	if got := tracker.Observe("search", args, true); got != 1 {
		t.Errorf("count after success = %d, want 1", got)
	}
}

func TestRepeatTrackerSuccessOfOtherCallBreaksStreak(t *testing.T) {
	tracker := NewRepeatTracker(3)
	a := json.RawMessage(`{"query": "a"}`)
	b := json.RawMessage(`{"query": "b"}`)

	tracker.Observe("search", a, true)
	tracker.Observe("search", b, false)
	if got := tracker.Observe("search", b, true); got != 1 {
		t.Errorf("count = %d, want 1: a failure following an unrelated call's success is a fresh streak", got)
	}
}

func TestRepeatTrackerDisabled(t *testing.T) {
	tracker := NewRepeatTracker(0)
	args := json.RawMessage(`{}`)
	for i := 0; i < 10; i++ {
		if got := tracker.Observe("search", args, true); got != 0 {
			t.Fatalf("disabled tracker returned count %d", got)
		}
	}
	if tracker.ShouldWarn(0) || tracker.ShouldAbort(0) {
		t.Error("disabled tracker should never warn or abort")
	}
}
