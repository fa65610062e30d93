package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/traeagent/trae-agent-go/internal/agent"
	"github.com/traeagent/trae-agent-go/internal/agent/llm"
	"github.com/traeagent/trae-agent-go/internal/agent/tools"
	"github.com/traeagent/trae-agent-go/internal/agent/tools/bash"
	"github.com/traeagent/trae-agent-go/internal/agent/tools/editor"
	"github.com/traeagent/trae-agent-go/internal/agent/tools/jsonedit"
	"github.com/traeagent/trae-agent-go/internal/agent/tools/taskdone"
	"github.com/traeagent/trae-agent-go/internal/agent/tools/thinking"
	"github.com/traeagent/trae-agent-go/internal/config"
	"github.com/traeagent/trae-agent-go/internal/events"
	"github.com/traeagent/trae-agent-go/internal/trajectory"
)

var (
	task            string
	projectPath     string
	mustPatch       bool
	baseCommit      string
	patchPath       string
	maxSteps        int
	trajectoryFile  string
	apiKeyFlag      string
	modelFlag       string
	interactiveMode bool

	rootCmd = &cobra.Command{
		Use:   "trae-agent",
		Short: "An autonomous software-engineering agent",
		Long: `trae-agent drives an LLM-backed agent loop over a code
repository, executing tool calls (shell, file edit, JSON edit,
sequential thinking) until the task is complete or a git diff against
the repository validates the result.`,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a task to completion (or drive it interactively)",
		RunE:  runTask,
	}
)

func init() {
	runCmd.Flags().StringVar(&task, "task", "", "task description or issue text")
	runCmd.Flags().StringVar(&projectPath, "project-path", "", "repository root the agent operates over")
	runCmd.Flags().BoolVar(&mustPatch, "must-patch", false, "require a non-empty, non-test-only diff before accepting completion")
	runCmd.Flags().StringVar(&baseCommit, "base-commit", "", "diff base_commit..HEAD instead of the working tree")
	runCmd.Flags().StringVar(&patchPath, "patch-path", "", "write the final diff to this path on success")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "override the configured max step budget")
	runCmd.Flags().StringVar(&trajectoryFile, "trajectory-file", "", "record the full step trajectory as JSON to this path")
	runCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "LLM provider API key (overrides configured/env key)")
	runCmd.Flags().StringVar(&modelFlag, "model", "", "override the configured model")
	runCmd.Flags().BoolVar(&interactiveMode, "interactive", false, "drive the task as a REPL instead of one-shot")

	rootCmd.AddCommand(runCmd)
}

func buildRegistry() *tools.Registry {
	registry := tools.NewRegistry()
	registry.Register(bash.New())
	registry.Register(editor.New())
	registry.Register(jsonedit.New())
	registry.Register(thinking.New())
	registry.Register(taskdone.New())
	return registry
}

func runTask(cmd *cobra.Command, args []string) error {
	if task == "" {
		return fmt.Errorf("--task is required")
	}

	model := modelFlag
	if model == "" {
		model = config.Global.Model
	}
	apiKey := config.ResolveAPIKey(apiKeyFlag, "OPENAI_API_KEY")
	if apiKey != "" {
		os.Setenv("OPENAI_API_KEY", apiKey)
	}

	client, err := llm.NewOpenAIClient(model)
	if err != nil {
		return fmt.Errorf("constructing LLM client: %w", err)
	}

	steps := maxSteps
	if steps == 0 {
		steps = config.Global.MaxSteps
	}

	registry := buildRegistry()
	taskAgent := agent.NewTaskAgent(client, registry, steps)
	taskAgent.Emitter = events.NewEmitter()
	taskAgent.Emitter.Subscribe(events.LoggingHandler(slog.Default(), slog.LevelInfo))

	if trajectoryFile != "" {
		taskAgent.Trajectory = func(t, provider, model string, maxSteps int, extraArgs map[string]string) (agent.TrajectorySink, error) {
			return trajectory.New(trajectoryFile, t, provider, model, maxSteps, extraArgs)
		}
	}

	taskArgs := map[string]any{
		"project_path": projectPath,
		"must_patch":   strconv.FormatBool(mustPatch),
		"base_commit":  baseCommit,
		"patch_path":   patchPath,
	}
	if err := taskAgent.NewTask(task, taskArgs); err != nil {
		return fmt.Errorf("setting up task: %w", err)
	}

	ctx := context.Background()

	if interactiveMode {
		return runInteractive(ctx, taskAgent)
	}

	if err := taskAgent.ExecuteTask(ctx); err != nil {
		return fmt.Errorf("executing task: %w", err)
	}

	if taskAgent.Record.Success && patchPath != "" {
		taskAgent.SavePatch(ctx)
	}

	fmt.Println(taskAgent.Record.FinalResult)
	return nil
}

func runInteractive(ctx context.Context, taskAgent *agent.TaskAgent) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Interactive session started. Type 'exit' to quit.")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" || line == "quit" {
			break
		}

		delta, err := taskAgent.ExecuteInteractiveTurn(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "turn failed: %v\n", err)
			continue
		}

		for _, msg := range delta {
			if msg.Role == llm.RoleAssistant && msg.Content != "" {
				fmt.Println(msg.Content)
			}
		}
	}

	if patchPath != "" {
		taskAgent.SavePatch(ctx)
	}
	return nil
}
