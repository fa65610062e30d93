package taskdone

import (
	"context"
	"strings"
	"testing"
)

func TestTool_WithSummary(t *testing.T) {
	tool := New()
	res, err := tool.Execute(context.Background(), map[string]any{"summary": "Successfully completed all objectives."})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(*res.Output, "Summary: Successfully completed all objectives.") {
		t.Fatalf("unexpected output: %q", *res.Output)
	}
	if res.ErrorCode != 0 {
		t.Fatalf("expected error code 0, got %d", res.ErrorCode)
	}
}

func TestTool_WithoutSummary(t *testing.T) {
	tool := New()
	res, err := tool.Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(*res.Output, "Summary: No summary provided.") {
		t.Fatalf("unexpected output: %q", *res.Output)
	}
}

func TestTool_EmptySummary(t *testing.T) {
	tool := New()
	res, err := tool.Execute(context.Background(), map[string]any{"summary": ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(*res.Output, "Summary: ") {
		t.Fatalf("unexpected output: %q", *res.Output)
	}
}
