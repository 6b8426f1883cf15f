package hsmx_test

import (
	"testing"

	. "github.com/comalice/hsmx"
)

func benchMachine(b *testing.B, depth int) *StateMachine {
	b.Helper()

	// Leaf claims the hot event; every ancestor passes it through.
	leaf := Define("leaf",
		On(evPing, func(s *Base, evt Event) Transition { return s.Finish() }),
	)
	factory := leaf
	for i := depth; i > 0; i-- {
		inner := factory
		factory = Define(StateKind(rune('a'+i)), Initial(inner))
	}

	m := NewStateMachine(WithAbortOnUnknownEvent(false))
	m.Initialize(factory, nil)
	return m
}

func BenchmarkDispatchShallow(b *testing.B) {
	m := benchMachine(b, 0)
	evt := NewEvent(evPing, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.ProcessEvent(evt)
	}
}

func BenchmarkDispatchDeep(b *testing.B) {
	m := benchMachine(b, 8)
	evt := NewEvent(evPing, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.ProcessEvent(evt)
	}
}

func BenchmarkSiblingTransition(b *testing.B) {
	var left, right StateFactory
	left = Define("left",
		On(evOpen, func(s *Base, evt Event) Transition {
			return s.Transit(right)
		}),
	)
	right = Define("right",
		On(evOpen, func(s *Base, evt Event) Transition {
			return s.Transit(left)
		}),
	)

	m := NewStateMachine()
	m.Initialize(left, nil)
	evt := NewEvent(evOpen, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.ProcessEvent(evt)
	}
}

func BenchmarkDeferAndReplay(b *testing.B) {
	var wait, run StateFactory
	wait = Define("wait",
		On(evClose, func(s *Base, evt Event) Transition { return s.Defer() }),
		On(evOpen, func(s *Base, evt Event) Transition { return s.Transit(run) }),
	)
	run = Define("run",
		On(evClose, func(s *Base, evt Event) Transition { return s.Finish() }),
		On(evOpen, func(s *Base, evt Event) Transition { return s.Transit(wait) }),
	)

	m := NewStateMachine()
	m.Initialize(wait, nil)
	closeEvt := NewEvent(evClose, nil)
	openEvt := NewEvent(evOpen, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.ProcessEvent(closeEvt) // deferred in wait, handled in run
		m.ProcessEvent(openEvt)  // transition triggers replay
	}
}
