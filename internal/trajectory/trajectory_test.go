package trajectory

import (
	"path/filepath"
	"testing"

	"github.com/traeagent/trae-agent-go/internal/agent"
	"github.com/traeagent/trae-agent-go/internal/agent/llm"
)

func TestRecorder_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "trajectory.json")

	rec, err := New(path, "fix the bug", "openai", "gpt-4o-mini", 50, map[string]string{
		"project_path": "/repo",
		"must_patch":   "true",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := rec.RecordStep(agent.StepRecord{StepNumber: 1, State: agent.StateThinking}); err != nil {
		t.Fatalf("RecordStep: %v", err)
	}
	if err := rec.RecordStep(agent.StepRecord{StepNumber: 2, State: agent.StateCompleted}); err != nil {
		t.Fatalf("RecordStep: %v", err)
	}

	tokens := llm.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}
	if err := rec.Finalize(true, "done", tokens); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if doc.Header.Version != schemaVersion {
		t.Errorf("Version = %q, want %q", doc.Header.Version, schemaVersion)
	}
	if doc.Header.Task != "fix the bug" {
		t.Errorf("Task = %q", doc.Header.Task)
	}
	if doc.Header.ExtraArgs["project_path"] != "/repo" {
		t.Errorf("ExtraArgs[project_path] = %q", doc.Header.ExtraArgs["project_path"])
	}
	if !doc.Success {
		t.Error("expected Success = true")
	}
	if doc.FinalResult != "done" {
		t.Errorf("FinalResult = %q", doc.FinalResult)
	}
	if len(doc.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2", len(doc.Steps))
	}
	if doc.Steps[0].State != agent.StateThinking || doc.Steps[1].State != agent.StateCompleted {
		t.Errorf("unexpected step states: %v, %v", doc.Steps[0].State, doc.Steps[1].State)
	}
	if doc.TotalTokens == nil || doc.TotalTokens.TotalTokens != 120 {
		t.Errorf("TotalTokens = %+v, want TotalTokens=120", doc.TotalTokens)
	}
}

func TestRecorder_NoTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trajectory.json")

	rec, err := New(path, "task", "openai", "gpt-4o-mini", 10, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := rec.Finalize(false, "", llm.TokenUsage{}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.TotalTokens != nil {
		t.Errorf("expected nil TotalTokens, got %+v", doc.TotalTokens)
	}
	if doc.Success {
		t.Error("expected Success = false")
	}
}
