// Package thinking implements the "sequential_thinking" tool: a purely
// reflective tool that records an LLM-supplied thought and echoes it
// back as a structured record.
package thinking

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/traeagent/trae-agent-go/internal/agent/tools"
)

// Thought is the structured record of one sequential-thinking call.
type Thought struct {
	Thought           string  `json:"thought"`
	ThoughtNumber     int     `json:"thought_number"`
	TotalThoughts     int     `json:"total_thoughts"`
	NextThoughtNeeded bool    `json:"next_thought_needed"`
	IsRevision        *bool   `json:"is_revision,omitempty"`
	RevisesThought    *int    `json:"revises_thought,omitempty"`
	BranchFromThought *int    `json:"branch_from_thought,omitempty"`
	BranchID          *string `json:"branch_id,omitempty"`
	NeedsMoreThoughts *bool   `json:"needs_more_thoughts,omitempty"`
}

// Tool implements tools.Tool for sequential thinking.
type Tool struct{}

// New returns the sequential_thinking tool.
func New() *Tool { return &Tool{} }

func (*Tool) Name() string { return "sequential_thinking" }

func (*Tool) Description() string {
	return "Records a single step of structured, sequential reasoning. Purely reflective: " +
		"it does not affect the repository. Use it to break a problem into a chain of thoughts."
}

func (*Tool) Parameters() map[string]tools.ParamDef {
	return map[string]tools.ParamDef{
		"thought":             {Type: tools.TypeString, Description: "The current thought text.", Required: true},
		"thought_number":      {Type: tools.TypeInteger, Description: "1-indexed position of this thought in the chain.", Required: true},
		"total_thoughts":      {Type: tools.TypeInteger, Description: "Current estimate of how many thoughts the chain needs.", Required: true},
		"next_thought_needed": {Type: tools.TypeBoolean, Description: "Whether another thought should follow.", Required: true},
		"is_revision":         {Type: tools.TypeBoolean, Description: "Whether this thought revises an earlier one."},
		"revises_thought":     {Type: tools.TypeInteger, Description: "The thought number being revised."},
		"branch_from_thought": {Type: tools.TypeInteger, Description: "The thought number this branch diverges from."},
		"branch_id":           {Type: tools.TypeString, Description: "Identifier for this branch of reasoning."},
		"needs_more_thoughts": {Type: tools.TypeBoolean, Description: "Whether the total_thoughts estimate should grow."},
	}
}

func (*Tool) Required() []string {
	return []string{"thought", "thought_number", "total_thoughts", "next_thought_needed"}
}

func (t *Tool) Execute(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	thought, _ := args["thought"].(string)
	thoughtNumber := intOf(args["thought_number"])
	totalThoughts := intOf(args["total_thoughts"])
	nextNeeded, _ := args["next_thought_needed"].(bool)

	if thoughtNumber < 1 {
		return nil, tools.InvalidArguments(t.Name(), "thought_number must be >= 1")
	}
	if totalThoughts < 1 {
		return nil, tools.InvalidArguments(t.Name(), "total_thoughts must be >= 1")
	}

	record := Thought{
		Thought:           thought,
		ThoughtNumber:     thoughtNumber,
		TotalThoughts:     totalThoughts,
		NextThoughtNeeded: nextNeeded,
	}
	if v, ok := args["is_revision"].(bool); ok {
		record.IsRevision = &v
	}
	if v, ok := args["revises_thought"]; ok {
		n := intOf(v)
		record.RevisesThought = &n
	}
	if v, ok := args["branch_from_thought"]; ok {
		n := intOf(v)
		record.BranchFromThought = &n
	}
	if v, ok := args["branch_id"].(string); ok {
		record.BranchID = &v
	}
	if v, ok := args["needs_more_thoughts"].(bool); ok {
		record.NeedsMoreThoughts = &v
	}

	pretty, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, tools.ExecutionFailed(t.Name(), err.Error())
	}

	status := fmt.Sprintf("Recorded thought %d/%d (more needed: %v)", thoughtNumber, totalThoughts, nextNeeded)
	out := fmt.Sprintf("%s\n%s", status, string(pretty))
	return &tools.ExecResult{Output: &out}, nil
}

func intOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
