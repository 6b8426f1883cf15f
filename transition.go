package hsmx

type transitionKind int

const (
	// Zero value: recognized and processed, no state change.
	transitionNoChange transitionKind = iota
	transitionNotHandled
	transitionSibling
)

// Transition is the declared outcome of offering an event to a state. It
// carries at most a factory for the target state, never a live instance: the
// target is constructed only when the transition is executed, so returning a
// Transition from a handler has no side effect beyond describing intent.
type Transition struct {
	kind    transitionKind
	factory StateFactory
}

// NoChange reports that the event was recognized and processed with no state
// change.
func NoChange() Transition { return Transition{kind: transitionNoChange} }

// NotHandled reports that the state does not recognize the event's kind at
// all; dispatch continues with the next deeper state.
func NotHandled() Transition { return Transition{kind: transitionNotHandled} }

// Sibling requests replacing the claiming state, and every state below it,
// with a new chain rooted at the state produced by target.
func Sibling(target StateFactory) Transition {
	if target == nil {
		panic("hsmx: sibling transition requires a target factory")
	}
	return Transition{kind: transitionSibling, factory: target}
}

// IsNoChange reports whether the transition leaves the stack unchanged.
func (t Transition) IsNoChange() bool { return t.kind == transitionNoChange }

// IsNotHandled reports whether the event was not recognized.
func (t Transition) IsNotHandled() bool { return t.kind == transitionNotHandled }

// IsSibling reports whether the transition replaces states.
func (t Transition) IsSibling() bool { return t.kind == transitionSibling }

// Factory returns the target state factory of a sibling transition.
// Calling it on a transition without a target is a contract violation.
func (t Transition) Factory() StateFactory {
	if t.factory == nil {
		panic("hsmx: transition has no target factory")
	}
	return t.factory
}

// Target returns the kind of the transition's target state.
func (t Transition) Target() StateKind { return t.Factory().Kind() }
