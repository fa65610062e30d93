package events

import (
	"context"
	"log/slog"
)

// LoggingHandler builds a Handler that logs each event at level via logger.
func LoggingHandler(logger *slog.Logger, level slog.Level) Handler {
	return func(event *Event) {
		attrs := []any{
			slog.String("event_id", event.ID),
			slog.String("event_type", string(event.Type)),
			slog.String("session_id", event.SessionID),
			slog.Int("step", event.Step),
		}

		switch data := event.Data.(type) {
		case *StepStateChangeData:
			attrs = append(attrs, slog.String("from_state", data.FromState), slog.String("to_state", data.ToState))
		case *ToolCallAttemptData:
			attrs = append(attrs, slog.String("tool_name", data.ToolName), slog.String("invocation_id", data.InvocationID))
		case *ToolCallResultData:
			attrs = append(attrs,
				slog.String("tool_name", data.ToolName),
				slog.Bool("success", data.Success),
				slog.Duration("duration", data.Duration),
			)
			if data.Error != "" {
				attrs = append(attrs, slog.String("error", data.Error))
			}
		case *LLMRequestSentData:
			attrs = append(attrs, slog.String("model", data.Model), slog.Int("message_count", data.MessageCount))
		case *LLMResponseReceivedData:
			attrs = append(attrs,
				slog.String("model", data.Model),
				slog.String("stop_reason", data.StopReason),
				slog.Duration("duration", data.Duration),
			)
		case *TaskFailedData:
			attrs = append(attrs, slog.String("reason", data.Reason))
		}

		logger.Log(context.Background(), level, "agent event", attrs...)
	}
}

// ChannelHandler builds a Handler that sends events to ch. When
// dropOnFull is true a full channel drops the event instead of
// blocking the emitter.
func ChannelHandler(ch chan<- Event, dropOnFull bool) Handler {
	return func(event *Event) {
		if dropOnFull {
			select {
			case ch <- *event:
			default:
			}
			return
		}
		ch <- *event
	}
}

// MultiHandler builds a Handler that calls every handler in order.
func MultiHandler(handlers ...Handler) Handler {
	return func(event *Event) {
		for _, h := range handlers {
			h(event)
		}
	}
}

// FilteredHandler wraps handler so it only runs for events filter accepts.
func FilteredHandler(handler Handler, filter Filter) Handler {
	return func(event *Event) {
		if filter(event) {
			handler(event)
		}
	}
}

// TypeFilter builds a Filter matching any of the given types.
func TypeFilter(types ...Type) Filter {
	set := make(map[Type]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return func(event *Event) bool { return set[event.Type] }
}

// SessionFilter builds a Filter matching a specific session.
func SessionFilter(sessionID string) Filter {
	return func(event *Event) bool { return event.SessionID == sessionID }
}

// ErrorFilter builds a Filter that only passes task-failure events.
func ErrorFilter() Filter {
	return TypeFilter(TypeTaskFailed)
}
