package hsmx

import (
	"fmt"

	"go.uber.org/zap"
)

// stackEntry is one level of the active nesting. The stack owns its states
// exclusively; a state never outlives its machine and never migrates between
// machines. Reactions are captured once at push time, so a state's capability
// set is fixed for its lifetime on the stack.
type stackEntry struct {
	state     State
	kind      StateKind
	reactions []Reaction
}

// StateMachine orchestrates the active state stack and routes events into it.
//
// A machine is constructed empty, set up once with Initialize, driven with
// ProcessEvent, and torn down with Stop. All methods must be called from a
// single goroutine; see package runtime for a serializing wrapper.
type StateMachine struct {
	id    string
	owner any

	stack []stackEntry

	// queue holds owned event clones awaiting dispatch for the current
	// ProcessEvent call; deferred holds clones set aside by Defer, replayed
	// oldest-first immediately after the next transition.
	queue    []Event
	deferred []Event

	initialized bool

	logger                      *zap.Logger
	abortOnUnknownEvent         bool
	abortOnUnimplementedHandler bool
}

// NewStateMachine creates an empty machine. Both abort options default to
// enabled: an event no active state claims, or a claimed event without a
// handler, stops the process unless configured otherwise.
func NewStateMachine(opts ...Option) *StateMachine {
	m := &StateMachine{
		id:                          newMachineID(),
		logger:                      zap.NewNop(),
		abortOnUnknownEvent:         true,
		abortOnUnimplementedHandler: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID returns the machine's instance identifier, used in diagnostics.
func (m *StateMachine) ID() string { return m.id }

// Owner returns the shared context supplied to Initialize. The machine does
// not own it and never mutates it.
func (m *StateMachine) Owner() any { return m.owner }

// OwnerOf returns the machine's owner as T. A wrong type is a contract
// violation between the embedding application and its states.
func OwnerOf[T any](m *StateMachine) T {
	owner, ok := m.Owner().(T)
	if !ok {
		panic(fmt.Sprintf("hsmx: owner is %T, not the requested type", m.Owner()))
	}
	return owner
}

// Initialize creates and pushes the root state, cascading into declared
// initial substates, and records the shared owner context. It may be called
// exactly once per machine; re-initializing is a contract violation.
func (m *StateMachine) Initialize(root StateFactory, owner any) {
	if m.initialized {
		panic("hsmx: machine is already initialized")
	}
	if len(m.stack) != 0 {
		panic("hsmx: machine stack is not empty")
	}
	if root == nil {
		panic("hsmx: Initialize requires a root state factory")
	}

	m.initialized = true
	m.owner = owner
	m.pushChain(root)
}

// ProcessEvent clones the event, appends the clone to the queue, and drains
// the queue to completion: each front event is dispatched down the stack,
// executing at most one transition, and any events deferred along the way are
// replayed as soon as a transition fires. No partial results are observable;
// the call returns only when everything it caused has settled.
func (m *StateMachine) ProcessEvent(event Event) {
	if event == nil {
		panic("hsmx: ProcessEvent requires an event")
	}

	m.queue = append(m.queue, event.Clone())

	for len(m.queue) > 0 {
		m.dispatchFront()
		m.queue = m.queue[1:]
	}
}

// Stop pops every active state leaf-to-root, invoking OnExit on each, and
// leaves the stack empty. Safe to call on an already-stopped machine.
func (m *StateMachine) Stop() {
	if len(m.stack) > 0 {
		m.popFrom(0)
	}
	m.queue = nil
	m.deferred = nil
}

// Active returns the kinds of the active states, root first.
func (m *StateMachine) Active() []StateKind {
	kinds := make([]StateKind, len(m.stack))
	for i, entry := range m.stack {
		kinds[i] = entry.kind
	}
	return kinds
}

// IsInState reports whether kind is among the active states.
func (m *StateMachine) IsInState(kind StateKind) bool {
	for _, entry := range m.stack {
		if entry.kind == kind {
			return true
		}
	}
	return false
}

// dispatchFront walks the stack from the root downward offering the front
// queue event to each state. The first state that recognizes the event ends
// the walk: NoChange consumes the event, Sibling replaces states from that
// depth to the leaf and then replays the deferred queue. If no state
// recognizes the event it is diagnosed as unknown.
func (m *StateMachine) dispatchFront() {
	if len(m.stack) == 0 {
		panic("hsmx: dispatch on a machine with no active states")
	}
	event := m.queue[0]

	for depth := 0; depth < len(m.stack); depth++ {
		result := m.react(m.stack[depth], event)
		switch {
		case result.IsNotHandled():
			continue

		case result.IsSibling():
			m.logger.Debug("transition",
				zap.String("machine", m.id),
				zap.String("event", string(event.Kind())),
				zap.String("from", string(m.stack[depth].kind)),
				zap.String("to", string(result.Target())),
				zap.Int("depth", depth))
			m.popFrom(depth)
			m.pushChain(result.Factory())
			m.replayDeferred()
			return

		default: // no change
			return
		}
	}

	if m.abortOnUnknownEvent {
		m.logger.Error("event not claimed by any active state",
			zap.String("machine", m.id),
			zap.String("event", string(event.Kind())))
		panic(fmt.Sprintf("hsmx: event %q not claimed by any active state", event.Kind()))
	}
	m.logger.Warn("discarding event not claimed by any active state",
		zap.String("machine", m.id),
		zap.String("event", string(event.Kind())))
}

// react offers event to a single state: a pure first-match lookup over the
// state's claimed kinds, with no fallthrough to other states. Ascending the
// stack is dispatchFront's job, not the state's.
func (m *StateMachine) react(entry stackEntry, event Event) Transition {
	for _, r := range entry.reactions {
		if r.Event != event.Kind() {
			continue
		}
		if r.Handle == nil {
			if m.abortOnUnimplementedHandler {
				m.logger.Error("claimed event has no handler",
					zap.String("machine", m.id),
					zap.String("state", string(entry.kind)),
					zap.String("event", string(event.Kind())))
				panic(fmt.Sprintf("hsmx: state %q claims event %q but supplies no handler", entry.kind, event.Kind()))
			}
			m.logger.Warn("claimed event has no handler",
				zap.String("machine", m.id),
				zap.String("state", string(entry.kind)),
				zap.String("event", string(event.Kind())))
			return NoChange()
		}
		return r.Handle(event)
	}
	return NotHandled()
}

// pushChain creates a state from factory at the current leaf position,
// invokes OnEnter, and cascades into declared initial substates until a
// state with none is reached.
func (m *StateMachine) pushChain(factory StateFactory) {
	for factory != nil {
		state := factory.New()
		if state == nil {
			panic(fmt.Sprintf("hsmx: factory for state %q allocated nil", factory.Kind()))
		}

		depth := len(m.stack)
		state.bind(m, depth)
		m.stack = append(m.stack, stackEntry{
			state:     state,
			kind:      factory.Kind(),
			reactions: state.Reactions(),
		})
		m.logger.Debug("state entered",
			zap.String("machine", m.id),
			zap.String("state", string(factory.Kind())),
			zap.Int("depth", depth))
		state.OnEnter()

		next := state.InitialSubstate()
		if next != nil && next.Kind() == factory.Kind() {
			// A state whose initial substate is itself has none.
			next = nil
		}
		factory = next
	}
}

// popFrom pops every state at depth and deeper, leaf first.
func (m *StateMachine) popFrom(depth int) {
	if depth < 0 || depth >= len(m.stack) {
		panic(fmt.Sprintf("hsmx: pop depth %d out of range [0,%d)", depth, len(m.stack)))
	}
	for i := len(m.stack) - 1; i >= depth; i-- {
		m.popLeaf()
	}
}

// popLeaf invokes OnExit on the leaf state and releases it.
func (m *StateMachine) popLeaf() {
	if len(m.stack) == 0 {
		panic("hsmx: pop on empty stack")
	}
	top := m.stack[len(m.stack)-1]
	top.state.OnExit()
	m.stack = m.stack[:len(m.stack)-1]
	m.logger.Debug("state exited",
		zap.String("machine", m.id),
		zap.String("state", string(top.kind)),
		zap.Int("depth", len(m.stack)))
}

// deferCurrent appends the event at the front of the queue, the one being
// dispatched right now, to the deferred queue. Calling Defer outside of a
// dispatch is a contract violation.
func (m *StateMachine) deferCurrent() {
	if len(m.queue) == 0 {
		panic("hsmx: defer outside of event dispatch")
	}
	m.deferred = append(m.deferred, m.queue[0])
}

// replayDeferred replays deferred events oldest first, immediately after a
// transition has executed. Each event is removed from the deferred queue
// before its dispatch, so a transition occurring mid-replay cannot replay the
// same event twice; the replay count is fixed at entry, so events deferred
// during the replay itself wait for the next transition. Replay is recursive
// through dispatchFront and fully resolves each event, including any further
// transitions it causes, before the next one starts.
func (m *StateMachine) replayDeferred() {
	for n := len(m.deferred); n > 0 && len(m.deferred) > 0; n-- {
		event := m.deferred[0]
		m.deferred = m.deferred[1:]

		m.queue = append([]Event{event}, m.queue...)
		m.dispatchFront()
		m.queue = m.queue[1:]
	}
}
