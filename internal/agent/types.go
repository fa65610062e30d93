// Package agent implements the Base Agent Loop and the Task Agent
// that composes it: a step-driven state machine that interleaves LLM
// calls and tool executions until a completion policy says to stop.
package agent

import (
	"context"
	"time"

	"github.com/traeagent/trae-agent-go/internal/agent/llm"
)

// State is the internal state of a single step.
type State string

const (
	StateThinking             State = "thinking"
	StateCallingTool          State = "calling_tool"
	StateProcessingToolResult State = "processing_tool_result"
	StateError                State = "error"
	StateCompleted            State = "completed"
)

// ToolCallRecord pairs a tool call with the result obtained for it.
type ToolCallRecord struct {
	Call   llm.ToolCall
	Result llm.ToolCallResult
}

// StepRecord is one recorded iteration of the loop.
type StepRecord struct {
	StepNumber   int
	State        State
	MessagesSent []llm.Message
	Response     *llm.Response
	ToolCalls    []llm.ToolCall
	ToolResults  []llm.ToolCallResult
	Reflection   string
	Error        string
	Duration     time.Duration
}

// ExecutionRecord is the full record of one task execution.
type ExecutionRecord struct {
	Task        string
	StartUnix   int64
	EndUnix     int64
	Steps       []StepRecord
	Success     bool
	FinalResult string
	TotalTokens llm.TokenUsage
	Error       string
}

// StopReason is the outcome of evaluating a completion policy for one step.
type StopReason int

const (
	Continue StopReason = iota
	TaskCompleted
	MaxStepsReached
	ValidationFailed
)

// Decision is the full result of a should-stop evaluation: the reason,
// plus the validation message when the reason is ValidationFailed.
type Decision struct {
	Reason  StopReason
	Message string
}

// StepSummarizer is an optional post-hoc per-step summarizer (e.g. an
// LLM-based "lakeview" pass). No concrete implementation ships; the
// Task Agent calls it only when one is configured.
type StepSummarizer interface {
	Summarize(ctx context.Context, step *StepRecord) (string, error)
}
