// Package taskdone implements the "task_done" tool: an explicit
// completion signal the agent's control flow recognizes by invocation.
package taskdone

import (
	"context"
	"fmt"

	"github.com/traeagent/trae-agent-go/internal/agent/tools"
)

// Tool implements tools.Tool for signaling task completion.
type Tool struct{}

// New returns the task_done tool.
func New() *Tool { return &Tool{} }

func (*Tool) Name() string { return "task_done" }

func (*Tool) Description() string {
	return "Signals that the current task is considered complete by the agent. " +
		"Call this when you are confident the objectives have been met. " +
		"Optionally provide a summary of the work."
}

func (*Tool) Parameters() map[string]tools.ParamDef {
	return map[string]tools.ParamDef{
		"summary": {
			Type:        tools.TypeString,
			Description: "An optional summary of what was achieved or the final state of the task.",
		},
	}
}

func (*Tool) Required() []string { return nil }

func (t *Tool) Execute(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	summary, ok := args["summary"].(string)
	if !ok {
		summary = "No summary provided."
	}
	out := fmt.Sprintf("Task completion signaled. Summary: %s", summary)
	return &tools.ExecResult{Output: &out, ErrorCode: 0}, nil
}
