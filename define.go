package hsmx

// Define assembles a StateFactory from functions, so small charts need no
// named struct types:
//
//	idle := hsmx.Define("idle",
//		hsmx.On("open", func(s *hsmx.Base, evt hsmx.Event) hsmx.Transition {
//			return s.Transit(active)
//		}),
//	)
//
// Handlers receive the state's Base, giving them the same conveniences a
// struct state gets by embedding it. Claimed kinds keep their declaration
// order. Forward references between defined states can be broken with
// LazyFactory.

type stateDef struct {
	kind      StateKind
	reactions []definedReaction
	enter     func(s *Base)
	exit      func(s *Base)
	initial   StateFactory
}

type definedReaction struct {
	event  EventKind
	handle func(s *Base, evt Event) Transition
}

// DefineOption configures a state assembled by Define.
type DefineOption func(*stateDef)

// On claims an event kind and supplies its handler.
func On(event EventKind, handle func(s *Base, evt Event) Transition) DefineOption {
	return func(d *stateDef) {
		d.reactions = append(d.reactions, definedReaction{event: event, handle: handle})
	}
}

// Claim claims an event kind without supplying a handler. Dispatching that
// kind to the state triggers the unimplemented-handler diagnostic.
func Claim(event EventKind) DefineOption {
	return func(d *stateDef) {
		d.reactions = append(d.reactions, definedReaction{event: event})
	}
}

// Enter sets the state's entry hook.
func Enter(fn func(s *Base)) DefineOption {
	return func(d *stateDef) { d.enter = fn }
}

// Exit sets the state's exit hook.
func Exit(fn func(s *Base)) DefineOption {
	return func(d *stateDef) { d.exit = fn }
}

// Initial declares the state's initial substate.
func Initial(target StateFactory) DefineOption {
	return func(d *stateDef) { d.initial = target }
}

// Define builds a StateFactory for a state assembled from options.
func Define(kind StateKind, opts ...DefineOption) StateFactory {
	def := &stateDef{kind: kind}
	for _, opt := range opts {
		opt(def)
	}
	return NewFactory(kind, func() State { return &definedState{def: def} })
}

// LazyFactory defers the lookup of a factory until a state is actually
// created, allowing mutually referential Define declarations.
func LazyFactory(kind StateKind, lookup func() StateFactory) StateFactory {
	return NewFactory(kind, func() State { return lookup().New() })
}

type definedState struct {
	Base
	def *stateDef
}

func (d *definedState) Reactions() []Reaction {
	reactions := make([]Reaction, 0, len(d.def.reactions))
	for _, r := range d.def.reactions {
		var handle func(Event) Transition
		if r.handle != nil {
			fn := r.handle
			handle = func(evt Event) Transition { return fn(&d.Base, evt) }
		}
		reactions = append(reactions, Reaction{Event: r.event, Handle: handle})
	}
	return reactions
}

func (d *definedState) OnEnter() {
	if d.def.enter != nil {
		d.def.enter(&d.Base)
	}
}

func (d *definedState) OnExit() {
	if d.def.exit != nil {
		d.def.exit(&d.Base)
	}
}

func (d *definedState) InitialSubstate() StateFactory { return d.def.initial }
