package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/traeagent/trae-agent-go/internal/agent/llm"
	"github.com/traeagent/trae-agent-go/internal/agent/tools"
	"github.com/traeagent/trae-agent-go/internal/gitdiff"
)

const systemPrompt = `You are a software-engineering agent operating over a code repository.
Use the tools available to you to investigate, edit, and validate your changes.
When you are confident the task is complete, call the task_done tool with a
brief summary of what you did.`

// GitDiffer is the subset of internal/gitdiff's contract the Task
// Agent needs for patch validation and persistence.
type GitDiffer interface {
	GetDiff(ctx context.Context, projectPath, baseCommit string) (string, error)
}

// TrajectoryFactory builds a TrajectorySink for a new task, seeded
// with the header metadata spec §4.7 requires.
type TrajectoryFactory func(task, provider, model string, maxSteps int, extraArgs map[string]string) (TrajectorySink, error)

// TaskAgent composes the Base Agent Loop with the software-engineering
// system prompt, batch/interactive completion policies, and patch
// validation/persistence (spec §4.7).
type TaskAgent struct {
	*Agent

	GitDiff    GitDiffer
	Trajectory TrajectoryFactory

	issue string
}

// NewTaskAgent constructs a TaskAgent bound to client and registry.
func NewTaskAgent(client llm.Client, registry *tools.Registry, maxSteps int) *TaskAgent {
	return &TaskAgent{
		Agent:   NewAgent(client, registry, maxSteps),
		GitDiff: gitdiff.Default{},
	}
}

// NewTask resets history and seeds the system+user prompts from task
// and task_args, per spec §4.7's new_task.
func (t *TaskAgent) NewTask(task string, taskArgs map[string]any) error {
	if strings.TrimSpace(task) == "" && taskArgs["issue"] == nil {
		return ErrEmptyTask
	}

	t.History = nil
	t.SystemPrompt = systemPrompt
	t.Task = task
	t.lastTaskDoneArgs = nil
	t.lastTaskDoneCalled = false

	t.ProjectPath, _ = taskArgs["project_path"].(string)
	t.BaseCommit, _ = taskArgs["base_commit"].(string)
	t.PatchPath, _ = taskArgs["patch_path"].(string)
	t.MustPatch = parseBool(taskArgs["must_patch"])
	issue, _ := taskArgs["issue"].(string)
	t.issue = issue

	var problem string
	if issue != "" {
		problem = fmt.Sprintf("[Problem statement]: We're currently solving the following issue within our repository. Here's the issue text:\n%s", issue)
	} else {
		problem = task
	}
	if t.ProjectPath != "" {
		problem += fmt.Sprintf("\n[Project root path]: %s", t.ProjectPath)
	}

	t.History = append(t.History, llm.Message{Role: llm.RoleUser, Content: problem})

	if t.Trajectory != nil {
		extraArgs := map[string]string{
			"project_path": t.ProjectPath,
			"base_commit":  t.BaseCommit,
			"must_patch":   strconv.FormatBool(t.MustPatch),
		}
		sink, err := t.Trajectory(task, t.Client.Name(), t.Client.Model(), t.MaxSteps, extraArgs)
		if err != nil {
			slog.Warn("trajectory recording disabled", "error", err)
		} else {
			t.Sink = sink
		}
	}

	return nil
}

// parseBool accepts a bool, or a case-insensitive "true"/"false" string,
// defaulting to false for anything else (including nil/absent).
func parseBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	default:
		return false
	}
}

// ExecuteTask runs the batch (one-shot) completion policy to
// completion.
func (t *TaskAgent) ExecuteTask(ctx context.Context) error {
	return t.RunLoop(ctx, t.shouldStop, t.finalMessage)
}

// shouldStop implements fn_should_stop (spec §4.7).
func (t *TaskAgent) shouldStop(ctx context.Context, a *Agent, resp *llm.Response, step int) Decision {
	if step >= a.MaxSteps {
		return Decision{Reason: MaxStepsReached}
	}

	signaled := hasToolCall(resp, taskDoneToolName) || containsCompletionCue(resp.Content)
	if !signaled {
		return Decision{Reason: Continue}
	}

	if !t.MustPatch {
		return Decision{Reason: TaskCompleted}
	}

	if t.ProjectPath == "" {
		return Decision{Reason: ValidationFailed, Message: ErrNoProjectPath.Error()}
	}

	diff, err := t.GitDiff.GetDiff(ctx, t.ProjectPath, t.BaseCommit)
	if err != nil {
		return Decision{
			Reason:  ValidationFailed,
			Message: fmt.Sprintf("ERROR! Could not verify patch due to git diff error: %v. Please try the fix again.", err),
		}
	}

	filtered := gitdiff.RemovePatchesToTests(diff)
	if strings.TrimSpace(filtered) == "" {
		return Decision{
			Reason:  ValidationFailed,
			Message: "ERROR! Your Patch is empty. Please make sure you have made changes to the repository and that your changes are not limited to test files.",
		}
	}

	return Decision{Reason: TaskCompleted}
}

// finalMessage implements the final-message extractor (spec §4.7).
func (t *TaskAgent) finalMessage(a *Agent, resp *llm.Response) string {
	if a.lastTaskDoneCalled {
		if summary, ok := a.lastTaskDoneArgs["summary"].(string); ok && summary != "" {
			return fmt.Sprintf("Task completed. Summary: %s", summary)
		}
		return "Task marked as done by the agent."
	}
	return resp.Content
}

// SavePatch persists the current git diff to PatchPath, per spec
// §4.7's patch-persistence step. Write failures are logged and never
// fail the task.
func (t *TaskAgent) SavePatch(ctx context.Context) {
	if t.PatchPath == "" || t.ProjectPath == "" {
		return
	}

	diff, err := t.GitDiff.GetDiff(ctx, t.ProjectPath, t.BaseCommit)
	if err != nil {
		slog.Warn("failed to compute patch for persistence", "error", err)
		return
	}

	if err := os.WriteFile(t.PatchPath, []byte(diff), 0o644); err != nil {
		slog.Warn("failed to write patch file", "path", t.PatchPath, "error", err)
	}
}

// interactiveStepCap bounds the per-turn micro-step count.
func (t *TaskAgent) interactiveStepCap() int {
	if t.MaxSteps < 2 {
		return t.MaxSteps
	}
	return 2
}

// ExecuteInteractiveTurn runs fn_should_stop_interactive (spec
// §4.7): a bounded sub-execution of at most interactiveStepCap()
// micro-steps, returning the message delta appended to history during
// this turn.
func (t *TaskAgent) ExecuteInteractiveTurn(ctx context.Context, userMessage string) ([]llm.Message, error) {
	t.History = append(t.History, llm.Message{Role: llm.RoleUser, Content: userMessage})
	preLen := len(t.History)

	stepCap := t.interactiveStepCap()
	err := t.RunLoop(ctx, func(ctx context.Context, a *Agent, resp *llm.Response, step int) Decision {
		if step >= stepCap {
			return Decision{Reason: TaskCompleted}
		}
		if !resp.HasToolCalls() {
			return Decision{Reason: TaskCompleted}
		}
		if step > 1 {
			return Decision{Reason: TaskCompleted}
		}
		return Decision{Reason: Continue}
	}, t.finalMessage)
	if err != nil {
		return nil, err
	}

	delta := make([]llm.Message, len(t.History)-preLen)
	copy(delta, t.History[preLen:])
	return delta, nil
}
