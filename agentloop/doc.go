// Package agentloop implements a self-correcting tool-calling loop for
// language models.
//
// The loop mediates between a model proposing tool calls and a registry of
// callable tools. Every tool failure is classified into one of two kinds:
// an AgentError is recoverable and is serialized back into the conversation
// so the model can correct its next call, while an InfraError is fatal and
// aborts the loop with a user-facing failure message. The loop is bounded
// by a configurable iteration budget so a model that never converges cannot
// run up unbounded cost.
//
// # Architecture
//
//   - Loop: the orchestrator driving model calls, tool execution, and the
//     conversation transcript for one user request.
//   - ToolRegistry / Executor: registration, lookup, parameter validation,
//     and classified execution of tools.
//   - AgentError / InfraError: the two-tier error taxonomy.
//   - Observer: structured zap logging of every tool execution outcome.
//   - Emitter: typed event stream for host application integration.
//
// # Quick Start
//
//	registry := agentloop.NewToolRegistry()
//	agentloop.RegisterCoreTools(registry)
//
//	loop := agentloop.New(agentloop.DefaultConfig(), registry, nil)
//	answer, err := loop.Run(ctx, "summarize the README in /tmp/project")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(answer)
package agentloop
