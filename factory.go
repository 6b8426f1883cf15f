package hsmx

// StateFactory allocates new instances of one state kind. Factories are
// stateless creation strategies: two factories are interchangeable exactly
// when their kinds are equal.
type StateFactory interface {
	Kind() StateKind
	New() State
}

type factoryFunc struct {
	kind StateKind
	fn   func() State
}

func (f factoryFunc) Kind() StateKind { return f.kind }
func (f factoryFunc) New() State      { return f.fn() }

// NewFactory builds a StateFactory from a kind tag and an allocation func.
// The func must return a fresh instance on every call.
func NewFactory(kind StateKind, fn func() State) StateFactory {
	if fn == nil {
		panic("hsmx: NewFactory requires an allocation func")
	}
	return factoryFunc{kind: kind, fn: fn}
}
