// Package hsmx is an event-driven hierarchical state machine runtime.
//
// Behavior is modeled as a stack of active states: index 0 is the outermost
// (root) state, increasing index is deeper nesting. An incoming event is
// offered to each active state from the root downward; the first state whose
// capability set claims the event's kind decides the outcome, which is either
// no state change or a sibling transition that replaces the claiming state
// and everything below it. Events may be deferred for replay after the next
// transition.
//
// The engine is single-threaded and strictly synchronous: ProcessEvent runs
// to completion, including deferred replays and initial-substate cascades,
// before returning. Callers that need concurrent access must serialize calls
// externally; package runtime provides a ready-made serializing wrapper.
package hsmx

// StateKind identifies a state type. Every concrete state kind has exactly
// one canonical kind tag, compared by equality only.
type StateKind string

// EventKind identifies an event type.
type EventKind string

// Event is an immutable value routed through a machine. The machine clones
// an event when it is enqueued, so the caller keeps ownership of its original
// and may reuse or discard it as soon as ProcessEvent returns.
type Event interface {
	Kind() EventKind
	Clone() Event
}

// BasicEvent is a ready-made Event for the common case of a kind tag plus an
// optional payload. Clone copies the struct by value; Data is copied
// shallowly, so payloads shared by reference must be treated as read-only.
type BasicEvent struct {
	Type EventKind
	Data any
}

// NewEvent creates a BasicEvent. Returned by value for stack allocation.
func NewEvent(kind EventKind, data any) BasicEvent {
	return BasicEvent{Type: kind, Data: data}
}

// Kind returns the event's kind tag.
func (e BasicEvent) Kind() EventKind { return e.Type }

// Clone returns a copy of the event.
func (e BasicEvent) Clone() Event { return e }
