// Package tools defines the contract every agent tool implements, a
// registry keyed by tool name, and an executor that dispatches
// tool-call requests against registered tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ParamType is the JSON-schema-shaped type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// ParamDef describes one parameter in a tool's schema.
type ParamDef struct {
	Type        ParamType
	Description string
	Required    bool
	Enum        []string
	Items       *ParamDef
	Properties  map[string]ParamDef
}

// Definition is the JSON-schema-shaped function definition exposed to
// the LLM: a name, a description, and an object schema built from the
// tool's parameter list.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]ParamDef
	Required    []string
}

// ExecResult is the internal outcome of a tool's execute call: an
// optional output string, an optional error message, and an integer
// error code where 0 means success.
type ExecResult struct {
	Output    *string
	Error     *string
	ErrorCode int
}

// Success reports the exec result as successful (error_code == 0).
func (r ExecResult) Success() bool { return r.ErrorCode == 0 }

// Error kinds a Tool's Execute may return.
type Kind string

const (
	KindInvalidArguments Kind = "invalid_arguments"
	KindExecutionFailed  Kind = "execution_failed"
	KindNotFound         Kind = "not_found"
	KindOther            Kind = "other"
)

// ToolError is the structured error type tools return from Execute.
type ToolError struct {
	Kind    Kind
	Tool    string
	Path    string
	Message string
}

func (e *ToolError) Error() string {
	switch e.Kind {
	case KindInvalidArguments:
		return fmt.Sprintf("%s: invalid arguments: %s", e.Tool, e.Message)
	case KindNotFound:
		return fmt.Sprintf("not found: %s", e.Path)
	case KindExecutionFailed:
		return fmt.Sprintf("%s: execution failed: %s", e.Tool, e.Message)
	default:
		return e.Message
	}
}

// InvalidArguments builds a KindInvalidArguments ToolError.
func InvalidArguments(tool, message string) *ToolError {
	return &ToolError{Kind: KindInvalidArguments, Tool: tool, Message: message}
}

// ExecutionFailed builds a KindExecutionFailed ToolError.
func ExecutionFailed(tool, message string) *ToolError {
	return &ToolError{Kind: KindExecutionFailed, Tool: tool, Message: message}
}

// NotFound builds a KindNotFound ToolError.
func NotFound(path string) *ToolError {
	return &ToolError{Kind: KindNotFound, Path: path, Message: path}
}

// Other builds a KindOther ToolError.
func Other(message string) *ToolError {
	return &ToolError{Kind: KindOther, Message: message}
}

// Tool is the contract every concrete tool implements.
type Tool interface {
	// Name is the stable identifier the LLM and the registry use.
	Name() string

	// Description is free text shown to the LLM.
	Description() string

	// Parameters returns the parameter schema for this tool.
	Parameters() map[string]ParamDef

	// Required lists the names of required top-level parameters.
	Required() []string

	// Execute runs the tool against parsed JSON arguments (a JSON
	// object, or nil for an empty/whitespace argument string).
	Execute(ctx context.Context, args map[string]any) (*ExecResult, error)
}

// Define builds a Definition from a Tool.
func Define(t Tool) Definition {
	return Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
		Required:    t.Required(),
	}
}

// ParseArguments parses a tool-call argument string into a JSON
// object or nil. An empty or whitespace-only string is treated as
// null. Any other non-object top-level value is rejected.
func ParseArguments(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON arguments: %w", err)
	}

	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return val, nil
	default:
		return nil, fmt.Errorf("arguments must be a JSON object or null, got %T", v)
	}
}
