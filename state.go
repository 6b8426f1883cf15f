package hsmx

// Reaction pairs one claimed event kind with its handler. A state's claimed
// kinds are checked in declaration order and the first match wins. A claimed
// kind with a nil Handle is reported as an unimplemented handler: the machine
// emits a diagnostic naming the event kind and, unless configured otherwise,
// aborts; in the non-fatal mode it behaves as NoChange.
type Reaction struct {
	Event  EventKind
	Handle func(Event) Transition
}

// State is one level of the active nesting. States are independent objects
// with no awareness of each other beyond their recorded stack depth: a state
// cannot navigate to its parent or children. Concrete states embed Base,
// which supplies defaults for everything except the capability set.
type State interface {
	// Reactions returns the ordered capability set: the event kinds this
	// state claims, each with its handler. An empty set means the state
	// still participates in dispatch but never handles anything itself.
	Reactions() []Reaction

	// OnEnter is invoked exactly once, immediately after the state is
	// pushed onto the stack.
	OnEnter()

	// OnExit is invoked exactly once, immediately before the state is
	// popped and released.
	OnExit()

	// InitialSubstate names a substate to create and push immediately
	// after this state is entered, cascading until a state with no initial
	// substate is reached. Nil means none; a factory producing this
	// state's own kind is also treated as none.
	InitialSubstate() StateFactory

	// bind is installed by the machine at push time. Implemented by Base,
	// which every concrete state must embed.
	bind(m *StateMachine, depth int)
}

// Base is the mandatory embedded core of every concrete state. It records
// the back-reference to the owning machine and the state's stack depth, and
// provides the convenience results handlers return.
type Base struct {
	machine *StateMachine
	depth   int
}

func (b *Base) bind(m *StateMachine, depth int) {
	b.machine = m
	b.depth = depth
}

// Machine returns the owning state machine.
func (b *Base) Machine() *StateMachine {
	if b.machine == nil {
		panic("hsmx: state is not attached to a machine")
	}
	return b.machine
}

// Depth returns the state's stack depth, fixed at push time (root = 0).
func (b *Base) Depth() int { return b.depth }

// Owner returns the shared context supplied to Initialize.
func (b *Base) Owner() any { return b.Machine().Owner() }

// Reactions returns an empty capability set. Override to claim events.
func (b *Base) Reactions() []Reaction { return nil }

// OnEnter is a no-op by default.
func (b *Base) OnEnter() {}

// OnExit is a no-op by default.
func (b *Base) OnExit() {}

// InitialSubstate returns nil (no initial substate) by default.
func (b *Base) InitialSubstate() StateFactory { return nil }

// Finish reports that the handler did its work and no transition follows.
func (b *Base) Finish() Transition { return NoChange() }

// Discard reports that the handler intentionally ignores the event.
// Semantically identical to Finish; the two names record caller intent.
func (b *Base) Discard() Transition { return NoChange() }

// Transit requests a sibling transition to the target state.
func (b *Base) Transit(target StateFactory) Transition { return Sibling(target) }

// Defer sets the event currently being dispatched aside for replay
// immediately after the next transition, and reports no state change.
func (b *Base) Defer() Transition {
	b.Machine().deferCurrent()
	return NoChange()
}
