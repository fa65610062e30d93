package tools

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Invocation is a single tool-call request to execute.
type Invocation struct {
	ID        string
	ToolName  string
	Arguments string // raw JSON text, as produced by the LLM
}

// Result is the outcome of executing one Invocation, shaped for
// inclusion in conversation history and for the LLM to see.
type Result struct {
	InvocationID string
	Success      bool
	Output       *string
	Error        *string
}

// Executor dispatches tool-call requests against a Registry.
type Executor struct {
	registry *Registry
}

// NewExecutor builds an Executor over the given registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Execute runs a single tool-call request: look up the tool, parse
// its argument string, call Execute, and map the outcome to a Result.
// The invocation id is always echoed back unchanged.
func (e *Executor) Execute(ctx context.Context, inv Invocation) Result {
	tool, ok := e.registry.Get(inv.ToolName)
	if !ok {
		err := (&NotFoundError{Name: inv.ToolName, Available: e.registry.Names()}).Error()
		return Result{InvocationID: inv.ID, Success: false, Error: &err}
	}

	args, parseErr := ParseArguments(inv.Arguments)
	if parseErr != nil {
		msg := parseErr.Error()
		return Result{InvocationID: inv.ID, Success: false, Error: &msg}
	}

	execResult, err := tool.Execute(ctx, args)
	if err != nil {
		msg := err.Error()
		return Result{InvocationID: inv.ID, Success: false, Error: &msg}
	}

	return Result{
		InvocationID: inv.ID,
		Success:      execResult.Success(),
		Output:       execResult.Output,
		Error:        execResult.Error,
	}
}

// SequentialToolCalls runs each invocation in order, waiting for one
// to finish before starting the next, and returns results in the same
// order as the inputs. This is what the Base Loop uses.
func (e *Executor) SequentialToolCalls(ctx context.Context, invs []Invocation) []Result {
	out := make([]Result, len(invs))
	for i, inv := range invs {
		out[i] = e.Execute(ctx, inv)
	}
	return out
}

// ParallelToolCalls runs every invocation concurrently, joining all of
// them before returning, and preserves input ordering in the output
// slice regardless of completion order.
func (e *Executor) ParallelToolCalls(ctx context.Context, invs []Invocation) []Result {
	out := make([]Result, len(invs))
	g, gCtx := errgroup.WithContext(ctx)
	for i, inv := range invs {
		i, inv := i, inv
		g.Go(func() error {
			out[i] = e.Execute(gCtx, inv)
			return nil // a failed tool call is a Result, not a group error
		})
	}
	_ = g.Wait()
	return out
}
