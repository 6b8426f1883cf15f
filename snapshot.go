package hsmx

import (
	"context"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot is the serializable observation of a machine's runtime state: the
// active chain root-first plus any events waiting for the next transition.
// It is a trace artifact; states are live objects and are not restorable from
// a snapshot.
type Snapshot struct {
	MachineID string         `json:"machineID" yaml:"machineID"`
	Active    []StateKind    `json:"active" yaml:"active"`
	Deferred  []EventKind    `json:"deferred,omitempty" yaml:"deferred,omitempty"`
	OwnerData map[string]any `json:"ownerData,omitempty" yaml:"ownerData,omitempty"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
}

// Snapshot captures the machine's current active chain and deferred events.
// When the owner is a Store, its contents are recorded as OwnerData.
func (m *StateMachine) Snapshot() Snapshot {
	deferred := make([]EventKind, len(m.deferred))
	for i, evt := range m.deferred {
		deferred[i] = evt.Kind()
	}
	var ownerData map[string]any
	if store, ok := m.owner.(*Store); ok {
		ownerData = store.GetAll()
	}
	return Snapshot{
		MachineID: m.id,
		Active:    m.Active(),
		Deferred:  deferred,
		OwnerData: ownerData,
		Timestamp: time.Now().UTC(),
	}
}

// EncodeSnapshot serializes a snapshot to YAML.
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	return yaml.Marshal(snapshot)
}

// DecodeSnapshot deserializes a YAML snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// Persister saves machine snapshots.
type Persister interface {
	Save(ctx context.Context, snapshot Snapshot) error
}

// FilePersister writes YAML snapshots to a fixed path, overwriting the
// previous one.
type FilePersister struct {
	Path string
}

func (p FilePersister) Save(ctx context.Context, snapshot Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	return os.WriteFile(p.Path, data, 0o644)
}
