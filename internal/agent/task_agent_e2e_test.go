package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/traeagent/trae-agent-go/internal/agent/llm"
	"github.com/traeagent/trae-agent-go/internal/agent/tools"
	"github.com/traeagent/trae-agent-go/internal/agent/tools/bash"
	"github.com/traeagent/trae-agent-go/internal/agent/tools/editor"
	"github.com/traeagent/trae-agent-go/internal/agent/tools/taskdone"
)

// stubGitDiffer is a test double for the GitDiffer collaborator.
type stubGitDiffer struct {
	diff string
	err  error
}

func (s stubGitDiffer) GetDiff(ctx context.Context, projectPath, baseCommit string) (string, error) {
	return s.diff, s.err
}

func TestTaskAgent_ImmediateTaskDone(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(taskdone.New())

	client := llm.NewMockClient()
	client.QueueToolCall("task_done", map[string]any{"summary": "ok"})

	ta := NewTaskAgent(client, registry, 10)
	if err := ta.NewTask("do the thing", nil); err != nil {
		t.Fatalf("NewTask: %v", err)
	}

	if err := ta.ExecuteTask(context.Background()); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}

	if !ta.Record.Success {
		t.Fatal("expected Success = true")
	}
	if ta.Record.FinalResult != "Task completed. Summary: ok" {
		t.Errorf("FinalResult = %q", ta.Record.FinalResult)
	}
	if len(ta.Record.Steps) != 1 {
		t.Errorf("len(Steps) = %d, want 1", len(ta.Record.Steps))
	}
	last := ta.History[len(ta.History)-1]
	if last.Role != llm.RoleTool || len(last.ToolResults) != 1 {
		t.Errorf("expected history to end with a tool-role message, got %+v", last)
	}
}

func TestTaskAgent_TextualCueMustPatchEmptyDiff(t *testing.T) {
	registry := tools.NewRegistry()

	client := llm.NewMockClient()
	client.SetDefaultResponse(&llm.Response{Content: "Task completed successfully.", StopReason: llm.StopEndTurn})

	ta := NewTaskAgent(client, registry, 3)
	ta.GitDiff = stubGitDiffer{diff: ""}
	if err := ta.NewTask("fix it", map[string]any{
		"project_path": "/repo",
		"must_patch":   "true",
	}); err != nil {
		t.Fatalf("NewTask: %v", err)
	}

	if err := ta.ExecuteTask(context.Background()); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}

	if ta.Record.Success {
		t.Fatal("expected Success = false")
	}
	if !strings.Contains(ta.Record.Error, "maximum steps") {
		t.Errorf("Error = %q, want it to mention max steps", ta.Record.Error)
	}

	foundValidation := false
	for _, msg := range ta.History {
		if msg.Role == llm.RoleUser && strings.Contains(msg.Content, "Patch is empty") {
			foundValidation = true
		}
	}
	if !foundValidation {
		t.Error("expected a ValidationFailed message appended to history")
	}
}

func TestTaskAgent_MaxStepsReached(t *testing.T) {
	registry := tools.NewRegistry()

	client := llm.NewMockClient()
	client.SetDefaultResponse(&llm.Response{Content: "working", StopReason: llm.StopEndTurn})

	ta := NewTaskAgent(client, registry, 3)
	if err := ta.NewTask("keep going", nil); err != nil {
		t.Fatalf("NewTask: %v", err)
	}

	if err := ta.ExecuteTask(context.Background()); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}

	if len(ta.Record.Steps) != 3 {
		t.Errorf("len(Steps) = %d, want 3", len(ta.Record.Steps))
	}
	if ta.Record.Success {
		t.Fatal("expected Success = false")
	}
	if !strings.Contains(ta.Record.Error, "maximum steps") {
		t.Errorf("Error = %q, want it to mention max steps", ta.Record.Error)
	}
}

func TestTaskAgent_ShellTimeout(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(bash.New())
	registry.Register(taskdone.New())

	client := llm.NewMockClient()
	client.QueueToolCall("bash", map[string]any{"command": "sleep 5", "timeout": 1})
	client.QueueToolCall("task_done", map[string]any{"summary": "done"})

	ta := NewTaskAgent(client, registry, 10)
	if err := ta.NewTask("run a slow command", nil); err != nil {
		t.Fatalf("NewTask: %v", err)
	}

	if err := ta.ExecuteTask(context.Background()); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}

	if !ta.Record.Success {
		t.Fatal("expected the loop to continue past the timeout and still succeed")
	}

	firstStep := ta.Record.Steps[0]
	if len(firstStep.ToolResults) != 1 {
		t.Fatalf("expected 1 tool result in step 1, got %d", len(firstStep.ToolResults))
	}
	res := firstStep.ToolResults[0]
	if !res.IsError || !strings.Contains(res.Content, "timed out after 1 seconds") {
		t.Errorf("tool result = %+v, want timeout error", res)
	}
}

func TestTaskAgent_StrReplaceAmbiguity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("world world world"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	registry := tools.NewRegistry()
	registry.Register(editor.New())
	registry.Register(taskdone.New())

	client := llm.NewMockClient()
	client.QueueToolCall("str_replace_based_edit_tool", map[string]any{
		"command": "str_replace",
		"path":    path,
		"old_str": "world",
		"new_str": "earth",
	})
	client.QueueToolCall("task_done", map[string]any{"summary": "done"})

	ta := NewTaskAgent(client, registry, 10)
	if err := ta.NewTask("replace a string", nil); err != nil {
		t.Fatalf("NewTask: %v", err)
	}

	if err := ta.ExecuteTask(context.Background()); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}

	firstStep := ta.Record.Steps[0]
	res := firstStep.ToolResults[0]
	if !res.IsError || !strings.Contains(res.Content, "found 3 times") {
		t.Errorf("tool result = %+v, want ambiguity error", res)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading seeded file: %v", err)
	}
	if string(data) != "world world world" {
		t.Errorf("file was mutated: %q", data)
	}
}

func TestTaskAgent_PatchPersistenceAfterSuccess(t *testing.T) {
	patchPath := filepath.Join(t.TempDir(), "out.patch")
	sampleDiff := "diff --git a/a.go b/a.go\n--- a/a.go\n+++ b/a.go\n@@ -1 +1 @@\n-old\n+new\n"

	registry := tools.NewRegistry()
	registry.Register(taskdone.New())

	client := llm.NewMockClient()
	client.QueueToolCall("task_done", map[string]any{"summary": "ok"})

	ta := NewTaskAgent(client, registry, 10)
	ta.GitDiff = stubGitDiffer{diff: sampleDiff}
	if err := ta.NewTask("fix it", map[string]any{
		"project_path": "/repo",
		"must_patch":   "true",
		"patch_path":   patchPath,
	}); err != nil {
		t.Fatalf("NewTask: %v", err)
	}

	if err := ta.ExecuteTask(context.Background()); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}
	if !ta.Record.Success {
		t.Fatal("expected Success = true")
	}

	ta.SavePatch(context.Background())

	data, err := os.ReadFile(patchPath)
	if err != nil {
		t.Fatalf("reading patch file: %v", err)
	}
	if !strings.Contains(string(data), "--- a/") || !strings.Contains(string(data), "+++ b/") {
		t.Errorf("patch file content = %q, want unified diff markers", data)
	}
}

func TestTaskAgent_PatchWriteFailureDoesNotFailTask(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(taskdone.New())

	client := llm.NewMockClient()
	client.QueueToolCall("task_done", map[string]any{"summary": "ok"})

	ta := NewTaskAgent(client, registry, 10)
	ta.GitDiff = stubGitDiffer{diff: "diff --git a/a.go b/a.go\n"}
	if err := ta.NewTask("fix it", map[string]any{
		"project_path": "/repo",
		"must_patch":   "true",
		"patch_path":   "/nonexistent-dir-xyz/out.patch",
	}); err != nil {
		t.Fatalf("NewTask: %v", err)
	}

	if err := ta.ExecuteTask(context.Background()); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}
	if !ta.Record.Success {
		t.Fatal("expected Success = true even though patch persistence will fail")
	}

	ta.SavePatch(context.Background())

	if _, err := os.Stat("/nonexistent-dir-xyz/out.patch"); !os.IsNotExist(err) {
		t.Errorf("expected patch file to be absent, stat err = %v", err)
	}
}
