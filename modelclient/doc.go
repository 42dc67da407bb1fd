// Package modelclient provides the model-facing boundary of the agent loop:
// a provider-agnostic client for blocking chat completions with tool calls.
//
// The package deliberately exposes a single seam to the rest of the module,
// the Caller interface, so the loop can be driven by a real provider in
// production and by a scripted mock in tests:
//
//	type Caller interface {
//	    Complete(ctx context.Context, req Request) (*Response, error)
//	}
//
// A Client routes requests to registered ProviderAdapter implementations,
// applies middleware, and retries retryable provider failures with
// exponential backoff. The bundled GollmAdapter backs the client with the
// gollm SDK for OpenAI and Anthropic.
//
// Errors returned by this package are classified: every failure is one of
// the typed errors in errors.go, and IsRetryable reports whether repeating
// the identical request may succeed. Callers treat non-retryable failures
// (and retryable ones that survive the retry budget) as infrastructure
// faults.
package modelclient
