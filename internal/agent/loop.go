package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/traeagent/trae-agent-go/internal/agent/llm"
	"github.com/traeagent/trae-agent-go/internal/agent/tools"
	"github.com/traeagent/trae-agent-go/internal/events"
)

// TrajectorySink is the interface the Base Agent Loop records steps
// and finalizes execution against. internal/trajectory.Recorder
// implements it; kept here (rather than importing that package) to
// avoid a dependency cycle and to let the loop stay sink-agnostic.
type TrajectorySink interface {
	RecordStep(step StepRecord) error
	Finalize(success bool, finalResult string, totalTokens llm.TokenUsage) error
}

// ShouldStopFunc is the completion-detection policy injected into the
// loop. It observes the current agent state and the step's LLM
// response and decides whether to continue, stop successfully, stop
// on a max-steps condition, or reject with a validation message the
// model should see and try to correct.
type ShouldStopFunc func(ctx context.Context, a *Agent, resp *llm.Response, step int) Decision

// FinalMessageFunc extracts the human-readable final result from the
// step at which the loop stopped successfully.
type FinalMessageFunc func(a *Agent, resp *llm.Response) string

// Agent holds everything the Base Agent Loop operates on: the bound
// LLM client and tool registry, the append-only conversation history,
// and the bookkeeping needed by the Task Agent's completion policy.
type Agent struct {
	Client   llm.Client
	Registry *tools.Registry
	Executor *tools.Executor
	Emitter  *events.Emitter
	Sink     TrajectorySink

	SystemPrompt string
	Task         string
	History      []llm.Message
	MaxSteps     int

	ProjectPath string
	BaseCommit  string
	PatchPath   string
	MustPatch   bool

	Summarizer StepSummarizer

	Record ExecutionRecord

	// lastTaskDoneArgs remembers the most recently invoked task_done
	// tool's parsed arguments, for the final-message extractor.
	lastTaskDoneArgs   map[string]any
	lastTaskDoneCalled bool
}

// NewAgent constructs an Agent bound to client and registry.
func NewAgent(client llm.Client, registry *tools.Registry, maxSteps int) *Agent {
	return &Agent{
		Client:   client,
		Registry: registry,
		Executor: tools.NewExecutor(registry),
		MaxSteps: maxSteps,
	}
}

func (a *Agent) emit(typ events.Type, data any) {
	if a.Emitter == nil {
		return
	}
	a.Emitter.Emit(typ, data)
}

// RunLoop executes the Base Agent Loop (spec §4.6) to completion: it
// seeds no history itself (callers populate a.History via new_task
// first) and runs steps until shouldStop reports TaskCompleted or
// MaxStepsReached.
func (a *Agent) RunLoop(ctx context.Context, shouldStop ShouldStopFunc, finalMessage FinalMessageFunc) error {
	start := time.Now()
	a.Record = ExecutionRecord{Task: a.Task, StartUnix: start.Unix()}

	for step := 1; step <= a.MaxSteps; step++ {
		stepStart := time.Now()
		if a.Emitter != nil {
			a.Emitter.SetStep(step)
		}
		a.emit(events.TypeStepBegin, &events.StepBeginData{StepNumber: step, MaxSteps: a.MaxSteps})

		record := StepRecord{StepNumber: step, State: StateThinking}
		a.emitStateChange(StateThinking, "")

		messagesSent := make([]llm.Message, len(a.History))
		copy(messagesSent, a.History)
		record.MessagesSent = messagesSent

		defs := a.Registry.Definitions()
		req := &llm.Request{
			SystemPrompt: a.SystemPrompt,
			Messages:     a.History,
			Tools:        defs,
		}
		a.emit(events.TypeLLMRequestSent, &events.LLMRequestSentData{
			Model:        a.Client.Model(),
			MessageCount: len(a.History),
			ToolCount:    len(defs),
		})

		resp, err := a.Client.Complete(ctx, req)
		if err != nil {
			record.State = StateError
			record.Error = err.Error()
			record.Duration = time.Since(stepStart)
			a.Record.Steps = append(a.Record.Steps, record)
			a.finish(false, "", fmt.Sprintf("LLM call failed: %v", err))
			return err
		}

		a.emit(events.TypeLLMResponseReceived, &events.LLMResponseReceivedData{
			Model:         resp.Model,
			StopReason:    string(resp.StopReason),
			Duration:      resp.Duration,
			TokensIn:      resp.Usage.PromptTokens,
			TokensOut:     resp.Usage.CompletionTokens,
			ToolCallCount: len(resp.ToolCalls),
		})
		record.Response = resp
		a.Record.TotalTokens.PromptTokens += resp.Usage.PromptTokens
		a.Record.TotalTokens.CompletionTokens += resp.Usage.CompletionTokens
		a.Record.TotalTokens.TotalTokens += resp.Usage.TotalTokens

		a.History = append(a.History, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		decision := shouldStop(ctx, a, resp, step)
		switch decision.Reason {
		case TaskCompleted:
			record.State = StateCompleted
			record.Duration = time.Since(stepStart)
			a.Record.Steps = append(a.Record.Steps, record)
			a.recordStep(record)
			final := finalMessage(a, resp)
			a.finish(true, final, "")
			return nil

		case MaxStepsReached:
			record.State = StateError
			record.Error = ErrMaxStepsExceeded.Error()
			record.Duration = time.Since(stepStart)
			a.Record.Steps = append(a.Record.Steps, record)
			a.recordStep(record)
			a.finish(false, "", ErrMaxStepsExceeded.Error())
			return nil

		case ValidationFailed:
			a.History = append(a.History, llm.Message{Role: llm.RoleUser, Content: decision.Message})
		}

		if len(resp.ToolCalls) > 0 {
			record.State = StateCallingTool
			a.emitStateChange(StateCallingTool, "")
			record.ToolCalls = resp.ToolCalls

			invocations := make([]tools.Invocation, len(resp.ToolCalls))
			for i, tc := range resp.ToolCalls {
				invocations[i] = tools.Invocation{ID: tc.ID, ToolName: tc.Name, Arguments: tc.Arguments}
				a.emit(events.TypeToolCallAttempt, &events.ToolCallAttemptData{ToolName: tc.Name, InvocationID: tc.ID})
			}

			results := a.Executor.SequentialToolCalls(ctx, invocations)
			record.State = StateProcessingToolResult
			a.emitStateChange(StateProcessingToolResult, "")

			for i, res := range results {
				tc := resp.ToolCalls[i]
				a.emit(events.TypeToolCallResult, &events.ToolCallResultData{
					ToolName:     tc.Name,
					InvocationID: res.InvocationID,
					Success:      res.Success,
				})

				var content string
				if res.Success && res.Output != nil {
					content = *res.Output
				} else if res.Error != nil {
					content = *res.Error
				}
				toolResult := llm.ToolCallResult{ToolCallID: res.InvocationID, Content: content, IsError: !res.Success}
				record.ToolResults = append(record.ToolResults, toolResult)

				if tc.Name == taskDoneToolName {
					a.lastTaskDoneCalled = true
					if args, parseErr := tools.ParseArguments(tc.Arguments); parseErr == nil {
						a.lastTaskDoneArgs = args
					}
				}

				a.History = append(a.History, llm.Message{
					Role:        llm.RoleTool,
					ToolResults: []llm.ToolCallResult{toolResult},
				})
			}
		}

		if a.Summarizer != nil {
			if summary, err := a.Summarizer.Summarize(ctx, &record); err == nil {
				record.Reflection = summary
			}
		}

		record.Duration = time.Since(stepStart)
		a.Record.Steps = append(a.Record.Steps, record)
		a.recordStep(record)
	}

	a.finish(false, "", ErrMaxStepsExceeded.Error())
	return nil
}

const taskDoneToolName = "task_done"

func (a *Agent) emitStateChange(to State, reason string) {
	a.emit(events.TypeStepStateChange, &events.StepStateChangeData{ToState: string(to), Reason: reason})
}

func (a *Agent) recordStep(step StepRecord) {
	if a.Sink == nil {
		return
	}
	_ = a.Sink.RecordStep(step)
}

func (a *Agent) finish(success bool, finalResult, errMsg string) {
	end := time.Now()
	a.Record.EndUnix = end.Unix()
	a.Record.Success = success
	a.Record.FinalResult = finalResult
	a.Record.Error = errMsg

	duration := end.Sub(time.Unix(a.Record.StartUnix, 0))

	if success {
		a.emit(events.TypeTaskCompleted, &events.TaskCompletedData{
			StepsTaken:   len(a.Record.Steps),
			Duration:     duration,
			FinalMessage: finalResult,
			TotalTokens:  a.Record.TotalTokens.TotalTokens,
		})
	} else {
		a.emit(events.TypeTaskFailed, &events.TaskFailedData{
			StepsTaken: len(a.Record.Steps),
			Duration:   duration,
			Reason:     errMsg,
		})
	}

	if a.Sink != nil {
		_ = a.Sink.Finalize(success, finalResult, a.Record.TotalTokens)
	}
}

// hasToolCall reports whether resp includes a tool call with the given name.
func hasToolCall(resp *llm.Response, name string) bool {
	for _, tc := range resp.ToolCalls {
		if tc.Name == name {
			return true
		}
	}
	return false
}

// containsCompletionCue reports whether content (case-insensitively)
// contains any textual completion cue recognized by the Task Agent.
func containsCompletionCue(content string) bool {
	lower := strings.ToLower(content)
	for _, cue := range []string{
		"task completed", "task finished", "done", "completed successfully", "finished successfully",
	} {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}
