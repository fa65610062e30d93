// Package events provides the event types emitted by the Base Agent
// Loop and Task Agent, and the handlers that observe them.
//
// Events let external systems (trajectory recording, metrics,
// interactive CLIs) observe agent behavior without the loop coupling
// to any one of them directly.
package events

import "time"

// Type identifies the kind of event.
type Type string

const (
	// TypeStepBegin is emitted when a new step starts.
	TypeStepBegin Type = "step_begin"

	// TypeStepStateChange is emitted when the step's internal state changes.
	TypeStepStateChange Type = "step_state_change"

	// TypeLLMRequestSent is emitted just before a request is sent to the LLM.
	TypeLLMRequestSent Type = "llm_request_sent"

	// TypeLLMResponseReceived is emitted when the LLM responds.
	TypeLLMResponseReceived Type = "llm_response_received"

	// TypeToolCallAttempt is emitted before a tool call is executed.
	TypeToolCallAttempt Type = "tool_call_attempt"

	// TypeToolCallResult is emitted after a tool call completes.
	TypeToolCallResult Type = "tool_call_result"

	// TypeStatusUpdate carries a free-text progress message.
	TypeStatusUpdate Type = "status_update"

	// TypeTaskCompleted is emitted once when the task finishes successfully.
	TypeTaskCompleted Type = "task_completed"

	// TypeTaskFailed is emitted once when the task finishes unsuccessfully.
	TypeTaskFailed Type = "task_failed"
)

// Event is one observation of agent behavior.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	Step      int            `json:"step"`
	Data      any            `json:"data,omitempty"`
	Metadata  *EventMetadata `json:"metadata,omitempty"`
}

// EventMetadata carries optional cross-cutting context about an event.
type EventMetadata struct {
	TraceID  string            `json:"trace_id,omitempty"`
	Source   string            `json:"source,omitempty"`
	Priority int               `json:"priority,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// StepBeginData is the data for TypeStepBegin.
type StepBeginData struct {
	StepNumber int `json:"step_number"`
	MaxSteps   int `json:"max_steps"`
}

// StepStateChangeData is the data for TypeStepStateChange.
type StepStateChangeData struct {
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	Reason    string `json:"reason,omitempty"`
}

// LLMRequestSentData is the data for TypeLLMRequestSent.
type LLMRequestSentData struct {
	Model        string `json:"model"`
	MessageCount int    `json:"message_count"`
	ToolCount    int    `json:"tool_count,omitempty"`
}

// LLMResponseReceivedData is the data for TypeLLMResponseReceived.
type LLMResponseReceivedData struct {
	Model         string        `json:"model"`
	StopReason    string        `json:"stop_reason"`
	Duration      time.Duration `json:"duration"`
	TokensIn      int           `json:"tokens_in"`
	TokensOut     int           `json:"tokens_out"`
	ToolCallCount int           `json:"tool_call_count,omitempty"`
}

// ToolCallAttemptData is the data for TypeToolCallAttempt.
type ToolCallAttemptData struct {
	ToolName     string `json:"tool_name"`
	InvocationID string `json:"invocation_id"`
}

// ToolCallResultData is the data for TypeToolCallResult.
type ToolCallResultData struct {
	ToolName     string        `json:"tool_name"`
	InvocationID string        `json:"invocation_id"`
	Success      bool          `json:"success"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error,omitempty"`
}

// StatusUpdateData is the data for TypeStatusUpdate.
type StatusUpdateData struct {
	Message string `json:"message"`
}

// TaskCompletedData is the data for TypeTaskCompleted.
type TaskCompletedData struct {
	StepsTaken   int           `json:"steps_taken"`
	Duration     time.Duration `json:"duration"`
	FinalMessage string        `json:"final_message,omitempty"`
	TotalTokens  int           `json:"total_tokens,omitempty"`
}

// TaskFailedData is the data for TypeTaskFailed.
type TaskFailedData struct {
	StepsTaken int           `json:"steps_taken"`
	Duration   time.Duration `json:"duration"`
	Reason     string        `json:"reason"`
}

// Handler processes one event. Handlers must not block the emitter
// for long; use ChannelHandler to hand events off asynchronously.
type Handler func(e *Event)

// Filter reports whether an event should be delivered to a handler.
type Filter func(e *Event) bool
