package modelclient

import (
	"context"
	"errors"
	"testing"
)

// stubAdapter is a scripted ProviderAdapter for client tests.
type stubAdapter struct {
	name      string
	responses []*Response
	errs      []error
	calls     int
	lastReq   Request
	closed    bool
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	idx := s.calls
	s.calls++
	s.lastReq = req
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return &Response{Message: AssistantMessage("done"), FinishReason: FinishStop}, nil
}

func (s *stubAdapter) Close() error {
	s.closed = true
	return nil
}

func noRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 0}
}

func TestClientRoutesToDefaultProvider(t *testing.T) {
	adapter := &stubAdapter{name: "openai"}
	client := NewClient(WithProvider("openai", adapter), WithRetryPolicy(noRetry()))

	resp, err := client.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []Message{UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "done" {
		t.Errorf("unexpected response text: %q", resp.Text())
	}
	if adapter.lastReq.Provider != "openai" {
		t.Errorf("provider not stamped on request: %q", adapter.lastReq.Provider)
	}
}

func TestClientResolvesProviderFromCatalog(t *testing.T) {
	openai := &stubAdapter{name: "openai"}
	anthropic := &stubAdapter{name: "anthropic"}
	client := NewClient(
		WithProvider("openai", openai),
		WithProvider("anthropic", anthropic),
		WithRetryPolicy(noRetry()),
	)
	// Two providers and no default: the model decides.
	_, err := client.Complete(context.Background(), Request{
		Model:    "claude-sonnet-4-5",
		Messages: []Message{UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if anthropic.calls != 1 || openai.calls != 0 {
		t.Errorf("expected anthropic routing, got openai=%d anthropic=%d", openai.calls, anthropic.calls)
	}
}

func TestClientUnregisteredProvider(t *testing.T) {
	client := NewClient(WithRetryPolicy(noRetry()))
	_, err := client.Complete(context.Background(), Request{
		Provider: "gemini",
		Messages: []Message{UserMessage("hi")},
	})
	var config *ConfigurationError
	if !errors.As(err, &config) {
		t.Fatalf("expected *ConfigurationError, got %T", err)
	}
}

func TestClientNoProviderConfigured(t *testing.T) {
	client := NewClient(WithRetryPolicy(noRetry()))
	_, err := client.Complete(context.Background(), Request{
		Model:    "some-unknown-model",
		Messages: []Message{UserMessage("hi")},
	})
	var config *ConfigurationError
	if !errors.As(err, &config) {
		t.Fatalf("expected *ConfigurationError, got %T", err)
	}
}

func TestClientMiddlewareOrder(t *testing.T) {
	adapter := &stubAdapter{name: "openai"}
	var order []string
	mw := func(tag string) Middleware {
		return func(ctx context.Context, req Request, next func(context.Context, Request) (*Response, error)) (*Response, error) {
			order = append(order, tag)
			return next(ctx, req)
		}
	}
	client := NewClient(
		WithProvider("openai", adapter),
		WithMiddleware(mw("first"), mw("second")),
		WithRetryPolicy(noRetry()),
	)
	if _, err := client.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("middleware ran out of order: %v", order)
	}
}

func TestClientRetriesRetryableFailures(t *testing.T) {
	adapter := &stubAdapter{
		name: "openai",
		errs: []error{
			&ServerError{ProviderError{ClientError: ClientError{Message: "502"}, Retryable: true}},
			nil,
		},
		responses: []*Response{nil, {Message: AssistantMessage("recovered"), FinishReason: FinishStop}},
	}
	policy := fastPolicy()
	client := NewClient(WithProvider("openai", adapter), WithRetryPolicy(policy))

	resp, err := client.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "recovered" {
		t.Errorf("unexpected text: %q", resp.Text())
	}
	if adapter.calls != 2 {
		t.Errorf("expected 2 adapter calls, got %d", adapter.calls)
	}
}

func TestClientClose(t *testing.T) {
	adapter := &stubAdapter{name: "openai"}
	client := NewClient(WithProvider("openai", adapter))
	if err := client.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !adapter.closed {
		t.Error("expected adapter to be closed")
	}
}

func TestDefaultClientOverride(t *testing.T) {
	original := GetDefaultClient()
	defer SetDefaultClient(original)

	custom := NewClient()
	SetDefaultClient(custom)
	if GetDefaultClient() != custom {
		t.Error("expected custom default client")
	}
}
