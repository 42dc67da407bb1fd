package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/martinemde/toolloop/agentloop"
	"github.com/martinemde/toolloop/modelclient"
)

var (
	model         string
	provider      string
	systemPrompt  string
	maxIterations int
	parallel      bool
	showEvents    bool
	verbose       bool
	timeout       time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "toolloop",
	Short:        "toolloop - run an LLM tool-calling agent from the command line",
	SilenceUsage: true,
	Long: `toolloop drives a bounded tool-calling loop against an LLM provider.

The model is given a set of tools (file reads/writes, HTTP fetches) and
iterates until it produces a final answer or runs out of iterations.
Recoverable tool errors are fed back to the model so it can self-correct;
infrastructure failures abort the run.

Provider credentials come from OPENAI_API_KEY / ANTHROPIC_API_KEY.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [message]",
	Short: "Run one task through the agent loop",
	Long: `Sends a message to the model and loops through tool calls until the
model answers in plain text.

Example:
  toolloop run "summarize the first 50 lines of /etc/services"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTask,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the built-in tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := agentloop.NewToolRegistry()
		agentloop.RegisterCoreTools(reg)
		for _, def := range reg.Definitions() {
			fmt.Printf("%-12s %s\n", def.Name, def.Description)
		}
		return nil
	},
}

func runTask(cmd *cobra.Command, args []string) error {
	cfg, err := agentloop.ConfigFromEnv()
	if err != nil {
		return err
	}
	if model != "" {
		cfg.Model = model
	}
	if provider != "" {
		cfg.Provider = provider
	}
	if systemPrompt != "" {
		cfg.SystemPrompt = systemPrompt
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.MaxIterations = maxIterations
	}
	if parallel {
		cfg.ParallelToolCalls = true
	}

	client := modelclient.NewClientFromEnv()
	defer client.Close()

	reg := agentloop.NewToolRegistry()
	agentloop.RegisterCoreTools(reg)

	loop := agentloop.New(cfg, reg, client, agentloop.WithLogger(logger))
	defer loop.Close()

	if showEvents {
		go printEvents(loop)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	message := args[0]
	for _, extra := range args[1:] {
		message += " " + extra
	}

	answer, err := loop.Run(ctx, message)
	fmt.Println(answer)
	if err != nil {
		logger.Debug("run ended with error", zap.Error(err))
		return err
	}
	return nil
}

func printEvents(loop *agentloop.Loop) {
	for event := range loop.Events() {
		switch event.Kind {
		case agentloop.EventToolCallStart:
			fmt.Fprintf(os.Stderr, "→ %v\n", event.Data["tool"])
		case agentloop.EventAgentError:
			fmt.Fprintf(os.Stderr, "✗ %v: %v\n", event.Data["code"], event.Data["hint"])
		case agentloop.EventRepeatDetected:
			fmt.Fprintf(os.Stderr, "! repeated failing call (%v)\n", event.Data["count"])
		case agentloop.EventModelResponse:
			fmt.Fprintf(os.Stderr, "· iteration %v (%v tool calls)\n",
				event.Data["iteration"], event.Data["tool_calls"])
		}
	}
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	runCmd.Flags().StringVar(&model, "model", "", "Model to use (e.g. gpt-4o-mini, claude-sonnet-4-5)")
	runCmd.Flags().StringVar(&provider, "provider", "", "Provider to use (openai, anthropic)")
	runCmd.Flags().StringVar(&systemPrompt, "system", "", "System prompt prepended to every request")
	runCmd.Flags().IntVar(&maxIterations, "max-iterations", 10, "Maximum model round-trips per run")
	runCmd.Flags().BoolVar(&parallel, "parallel", false, "Execute same-turn tool calls concurrently")
	runCmd.Flags().BoolVar(&showEvents, "events", false, "Print loop progress to stderr")
	runCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall run timeout")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(toolsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
