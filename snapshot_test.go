package hsmx_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/comalice/hsmx"
)

func deferringMachine(t *testing.T) *StateMachine {
	t.Helper()

	inner := Define("inner",
		On(evClose, func(s *Base, evt Event) Transition { return s.Defer() }),
	)
	root := Define("root", Initial(inner))

	m := NewStateMachine(WithID("machine-1"))
	m.Initialize(root, nil)
	m.ProcessEvent(NewEvent(evClose, nil))
	return m
}

func TestSnapshotCapturesActiveChainAndDeferred(t *testing.T) {
	m := deferringMachine(t)

	snap := m.Snapshot()
	if snap.MachineID != "machine-1" {
		t.Errorf("machine ID = %q", snap.MachineID)
	}
	if len(snap.Active) != 2 || snap.Active[0] != "root" || snap.Active[1] != "inner" {
		t.Errorf("active = %v, want [root inner]", snap.Active)
	}
	if len(snap.Deferred) != 1 || snap.Deferred[0] != evClose {
		t.Errorf("deferred = %v, want [close]", snap.Deferred)
	}
	if snap.Timestamp.IsZero() {
		t.Errorf("timestamp not set")
	}
}

func TestSnapshotYAMLRoundTrip(t *testing.T) {
	snap := deferringMachine(t).Snapshot()

	data, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.MachineID != snap.MachineID {
		t.Errorf("machine ID = %q, want %q", decoded.MachineID, snap.MachineID)
	}
	if len(decoded.Active) != 2 || decoded.Active[1] != "inner" {
		t.Errorf("active = %v", decoded.Active)
	}
	if len(decoded.Deferred) != 1 || decoded.Deferred[0] != evClose {
		t.Errorf("deferred = %v", decoded.Deferred)
	}
}

func TestFilePersister(t *testing.T) {
	m := deferringMachine(t)
	path := filepath.Join(t.TempDir(), "snapshot.yaml")

	p := FilePersister{Path: path}
	if err := p.Save(context.Background(), m.Snapshot()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.MachineID != "machine-1" {
		t.Errorf("machine ID = %q", decoded.MachineID)
	}
}

func TestFilePersisterHonorsCancelledContext(t *testing.T) {
	m := deferringMachine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := FilePersister{Path: filepath.Join(t.TempDir(), "snapshot.yaml")}
	if err := p.Save(ctx, m.Snapshot()); err == nil {
		t.Errorf("expected error from cancelled context")
	}
}

func TestSnapshotRecordsStoreOwnerData(t *testing.T) {
	counting := Define("counting",
		On(evPing, func(s *Base, evt Event) Transition {
			store := OwnerOf[*Store](s.Machine())
			hits, _ := store.Get("hits").(int)
			store.Set("hits", hits+1)
			return s.Finish()
		}),
	)

	store := NewStore()
	m := NewStateMachine(WithID("machine-2"))
	m.Initialize(counting, store)
	m.ProcessEvent(NewEvent(evPing, nil))

	snap := m.Snapshot()
	if snap.OwnerData["hits"] != 1 {
		t.Fatalf("ownerData = %v, want hits=1", snap.OwnerData)
	}

	// The recorded data is a copy, decoupled from later writes.
	store.Set("hits", 5)
	if snap.OwnerData["hits"] != 1 {
		t.Errorf("snapshot tracked later store writes")
	}

	data, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	// A fresh owner can be seeded from the decoded snapshot.
	seeded := NewStore()
	seeded.LoadAll(decoded.OwnerData)
	if seeded.Get("hits") != 1 {
		t.Errorf("seeded store hits = %v, want 1", seeded.Get("hits"))
	}
}

func TestSnapshotOmitsOwnerDataForCustomOwners(t *testing.T) {
	type owner struct{ name string }

	root := Define("root")
	m := NewStateMachine()
	m.Initialize(root, &owner{name: "custom"})

	if snap := m.Snapshot(); snap.OwnerData != nil {
		t.Errorf("ownerData = %v, want nil for non-Store owner", snap.OwnerData)
	}
}

func TestStore(t *testing.T) {
	store := NewStore()
	store.Set("mode", "fast")
	store.Set("count", 2)

	if store.Get("mode") != "fast" {
		t.Errorf("Get(mode) = %v", store.Get("mode"))
	}
	if store.Get("missing") != nil {
		t.Errorf("missing key should be nil")
	}

	all := store.GetAll()
	all["mode"] = "mutated" // defensive copy
	if store.Get("mode") != "fast" {
		t.Errorf("GetAll leaked internal map")
	}

	store.Delete("count")
	if store.Get("count") != nil {
		t.Errorf("Delete did not remove key")
	}

	store.LoadAll(map[string]any{"mode": "slow"})
	if store.Get("mode") != "slow" {
		t.Errorf("LoadAll did not replace data")
	}
}
