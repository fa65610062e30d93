package events

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("traeagent.agent")

// MetricsCollector subscribes to an Emitter and records otel/metric
// instruments for the agent's step, tool, and LLM activity.
type MetricsCollector struct {
	once sync.Once
	err  error

	stepsTotal     metric.Int64Counter
	toolCallsTotal metric.Int64Counter
	toolDuration   metric.Float64Histogram
	llmRequests    metric.Int64Counter
	llmDuration    metric.Float64Histogram
	tokensTotal    metric.Int64Counter
	tasksCompleted metric.Int64Counter
	tasksFailed    metric.Int64Counter
}

// NewMetricsCollector constructs a MetricsCollector. Instruments are
// registered lazily on first use, matching the teacher's initMetrics
// idiom.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

func (c *MetricsCollector) init() error {
	c.once.Do(func() {
		var err error
		if c.stepsTotal, err = meter.Int64Counter("agent_steps_total",
			metric.WithDescription("Total agent steps executed")); err != nil {
			c.err = err
			return
		}
		if c.toolCallsTotal, err = meter.Int64Counter("agent_tool_calls_total",
			metric.WithDescription("Total tool calls by tool name and outcome")); err != nil {
			c.err = err
			return
		}
		if c.toolDuration, err = meter.Float64Histogram("agent_tool_call_duration_seconds",
			metric.WithDescription("Tool call duration"), metric.WithUnit("s")); err != nil {
			c.err = err
			return
		}
		if c.llmRequests, err = meter.Int64Counter("agent_llm_requests_total",
			metric.WithDescription("Total LLM requests by model")); err != nil {
			c.err = err
			return
		}
		if c.llmDuration, err = meter.Float64Histogram("agent_llm_request_duration_seconds",
			metric.WithDescription("LLM request duration"), metric.WithUnit("s")); err != nil {
			c.err = err
			return
		}
		if c.tokensTotal, err = meter.Int64Counter("agent_tokens_total",
			metric.WithDescription("Total tokens consumed by direction (in/out)")); err != nil {
			c.err = err
			return
		}
		if c.tasksCompleted, err = meter.Int64Counter("agent_tasks_completed_total",
			metric.WithDescription("Total tasks that finished successfully")); err != nil {
			c.err = err
			return
		}
		if c.tasksFailed, err = meter.Int64Counter("agent_tasks_failed_total",
			metric.WithDescription("Total tasks that finished unsuccessfully")); err != nil {
			c.err = err
			return
		}
	})
	return c.err
}

// Handler returns an events.Handler that feeds this collector.
func (c *MetricsCollector) Handler() Handler {
	return func(event *Event) {
		ctx := context.Background()
		if err := c.init(); err != nil {
			return
		}

		switch data := event.Data.(type) {
		case *StepBeginData:
			c.stepsTotal.Add(ctx, 1)

		case *ToolCallResultData:
			outcome := "success"
			if !data.Success {
				outcome = "error"
			}
			attrs := metric.WithAttributes(
				attribute.String("tool", data.ToolName),
				attribute.String("outcome", outcome),
			)
			c.toolCallsTotal.Add(ctx, 1, attrs)
			c.toolDuration.Record(ctx, data.Duration.Seconds(), attrs)

		case *LLMRequestSentData:
			c.llmRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("model", data.Model)))

		case *LLMResponseReceivedData:
			attrs := metric.WithAttributes(attribute.String("model", data.Model))
			c.llmDuration.Record(ctx, data.Duration.Seconds(), attrs)
			c.tokensTotal.Add(ctx, int64(data.TokensIn), metric.WithAttributes(attribute.String("direction", "in")))
			c.tokensTotal.Add(ctx, int64(data.TokensOut), metric.WithAttributes(attribute.String("direction", "out")))

		case *TaskCompletedData:
			c.tasksCompleted.Add(ctx, 1)

		case *TaskFailedData:
			c.tasksFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", data.Reason)))
		}
	}
}
