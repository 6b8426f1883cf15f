package hsmx

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option applies configuration to a StateMachine via functional options.
type Option func(*StateMachine)

// WithLogger configures the machine's diagnostic logger. The default is a
// no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *StateMachine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithID overrides the generated machine instance identifier.
func WithID(id string) Option {
	return func(m *StateMachine) {
		if id != "" {
			m.id = id
		}
	}
}

// WithAbortOnUnknownEvent controls whether an event no active state claims
// stops the process (default true) or is logged and consumed.
func WithAbortOnUnknownEvent(abort bool) Option {
	return func(m *StateMachine) {
		m.abortOnUnknownEvent = abort
	}
}

// WithAbortOnUnimplementedHandler controls whether a claimed event kind with
// no handler stops the process (default true) or is logged and treated as
// NoChange.
func WithAbortOnUnimplementedHandler(abort bool) Option {
	return func(m *StateMachine) {
		m.abortOnUnimplementedHandler = abort
	}
}

func newMachineID() string { return uuid.NewString() }
