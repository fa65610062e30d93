// Package llm defines the unified chat-completion contract the Base
// Agent Loop calls against, independent of any concrete provider.
package llm

import (
	"context"
	"time"

	"github.com/traeagent/trae-agent-go/internal/agent/tools"
)

// Role is the role of a message in the conversation history.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool-call request emitted by the assistant.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON text
}

// ToolCallResult is a tool result attached to a tool-role message.
type ToolCallResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// Message is one entry in the append-only conversation history.
type Message struct {
	Role        Role
	Content     string
	ToolCalls   []ToolCall       // assistant only
	ToolResults []ToolCallResult // tool role only
}

// ChoiceKind describes why generation stopped for a response.
type ChoiceKind string

const (
	StopEndTurn   ChoiceKind = "end_turn"
	StopToolUse   ChoiceKind = "tool_use"
	StopMaxTokens ChoiceKind = "max_tokens"
)

// TokenUsage is the aggregated token accounting for one call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ToolChoiceType selects how the model should use tools.
type ToolChoiceType string

const (
	ToolChoiceAutoType     ToolChoiceType = "auto"
	ToolChoiceAnyType      ToolChoiceType = "any"
	ToolChoiceRequiredType ToolChoiceType = "required"
	ToolChoiceNoneType     ToolChoiceType = "none"
)

// ToolChoice constrains tool usage for a single request.
type ToolChoice struct {
	Type ToolChoiceType
	Name string // only meaningful when Type forces a specific tool
}

func ToolChoiceAuto() *ToolChoice     { return &ToolChoice{Type: ToolChoiceAutoType} }
func ToolChoiceAny() *ToolChoice      { return &ToolChoice{Type: ToolChoiceAnyType} }
func ToolChoiceRequired() *ToolChoice { return &ToolChoice{Type: ToolChoiceRequiredType} }
func ToolChoiceNone() *ToolChoice     { return &ToolChoice{Type: ToolChoiceNoneType} }

// Request is a single chat-completion request.
type Request struct {
	SystemPrompt  string
	Messages      []Message
	Tools         []tools.Definition
	ToolChoice    *ToolChoice
	MaxTokens     int
	Temperature   float64
	StopSequences []string
}

// Response is a single chat-completion response.
type Response struct {
	Content    string
	ToolCalls  []ToolCall
	StopReason ChoiceKind
	Usage      TokenUsage
	Duration   time.Duration
	Model      string
}

// HasToolCalls reports whether the response includes any tool calls.
func (r *Response) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// ErrorKind classifies an LLM call failure.
type ErrorKind string

const (
	ErrNetwork          ErrorKind = "network"
	ErrAPI              ErrorKind = "api_error"
	ErrParsing          ErrorKind = "parsing_error"
	ErrNoAPIKey         ErrorKind = "no_api_key"
	ErrUnsupportedModel ErrorKind = "unsupported_model"
	ErrOther            ErrorKind = "other"
)

// Error is the structured error type Complete returns.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

// Client is the unified chat interface every LLM provider implements.
type Client interface {
	// Complete sends messages (and optional tools) to the model and
	// returns its response.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Name identifies the provider, used in trajectory records.
	Name() string

	// Model identifies the bound model configuration.
	Model() string
}
