package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type subscription struct {
	id      string
	handler Handler
	filter  Filter
}

// Emitter fans out agent events to subscribed handlers and keeps a
// ring buffer of recent events for later inspection.
//
// Safe for concurrent use.
type Emitter struct {
	mu sync.RWMutex

	sessionID string
	step      int

	subs []subscription

	bufferSize int
	buffer     []Event
}

// Option configures an Emitter at construction time.
type Option func(*Emitter)

// WithSessionID sets the initial session ID stamped on every event.
func WithSessionID(id string) Option {
	return func(e *Emitter) { e.sessionID = id }
}

// WithBufferSize bounds the ring buffer of retained events (default 1000).
func WithBufferSize(n int) Option {
	return func(e *Emitter) { e.bufferSize = n }
}

// NewEmitter constructs an Emitter.
func NewEmitter(opts ...Option) *Emitter {
	e := &Emitter{bufferSize: 1000}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers a handler invoked for every emitted event, or
// only events of the given types when any are passed.
func (e *Emitter) Subscribe(handler Handler, types ...Type) string {
	var filter Filter
	if len(types) > 0 {
		filter = TypeFilter(types...)
	}
	return e.SubscribeWithFilter(handler, filter)
}

// SubscribeWithFilter registers a handler invoked only for events that
// pass filter. A nil filter matches every event.
func (e *Emitter) SubscribeWithFilter(handler Handler, filter Filter) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := uuid.NewString()
	e.subs = append(e.subs, subscription{id: id, handler: handler, filter: filter})
	return id
}

// Unsubscribe removes a subscription by ID, reporting whether it existed.
func (e *Emitter) Unsubscribe(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subs {
		if s.id == id {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			return true
		}
	}
	return false
}

// SubscriptionCount returns the number of active subscriptions.
func (e *Emitter) SubscriptionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

// SetSessionID updates the session ID stamped on subsequently emitted events.
func (e *Emitter) SetSessionID(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionID = id
}

// SetStep sets the current step counter stamped on subsequently emitted events.
func (e *Emitter) SetStep(step int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.step = step
}

// IncrementStep increments and returns the current step counter.
func (e *Emitter) IncrementStep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.step++
	return e.step
}

// Emit builds an Event from typ and data, stamps it with the current
// session/step, buffers it, and dispatches it to every subscriber
// whose filter passes.
func (e *Emitter) Emit(typ Type, data any) {
	e.EmitWithMetadata(typ, data, nil)
}

// EmitWithMetadata is Emit with an attached EventMetadata.
func (e *Emitter) EmitWithMetadata(typ Type, data any, meta *EventMetadata) {
	e.mu.Lock()
	ev := Event{
		ID:        uuid.NewString(),
		Type:      typ,
		SessionID: e.sessionID,
		Timestamp: time.Now(),
		Step:      e.step,
		Data:      data,
		Metadata:  meta,
	}

	e.buffer = append(e.buffer, ev)
	if e.bufferSize > 0 && len(e.buffer) > e.bufferSize {
		e.buffer = e.buffer[len(e.buffer)-e.bufferSize:]
	}

	subs := make([]subscription, len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, s := range subs {
		if s.filter != nil && !s.filter(&ev) {
			continue
		}
		s.handler(&ev)
	}
}

// GetBuffer returns a copy of the retained event buffer.
func (e *Emitter) GetBuffer() []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Event, len(e.buffer))
	copy(out, e.buffer)
	return out
}

// GetBufferSince returns buffered events with a timestamp after t.
func (e *Emitter) GetBufferSince(t time.Time) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Event
	for _, ev := range e.buffer {
		if ev.Timestamp.After(t) {
			out = append(out, ev)
		}
	}
	return out
}

// GetBufferByType returns buffered events matching typ.
func (e *Emitter) GetBufferByType(typ Type) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Event
	for _, ev := range e.buffer {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// ClearBuffer discards all retained events without affecting subscriptions.
func (e *Emitter) ClearBuffer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer = nil
}

// Reset clears subscriptions, buffered events, and the step counter.
func (e *Emitter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = nil
	e.buffer = nil
	e.step = 0
}

// MockEmitter records every emitted event for test assertions, with
// no subscriber fan-out.
type MockEmitter struct {
	mu     sync.Mutex
	events []Event
}

// NewMockEmitter returns an empty MockEmitter.
func NewMockEmitter() *MockEmitter { return &MockEmitter{} }

// Emit records an event.
func (m *MockEmitter) Emit(typ Type, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Event{Type: typ, Data: data, Timestamp: time.Now()})
}

// EventCount returns the number of recorded events.
func (m *MockEmitter) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// GetEventsByType returns recorded events matching typ.
func (m *MockEmitter) GetEventsByType(typ Type) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, ev := range m.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Clear discards all recorded events.
func (m *MockEmitter) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
