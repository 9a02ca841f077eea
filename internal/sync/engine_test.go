package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/apptrack/apptrack/internal/bus"
	"github.com/apptrack/apptrack/internal/record"
)

type fakeRemote struct {
	mu         gosync.Mutex
	table      record.Snapshot
	fetchErr   error
	pushErr    error
	fetches    int
	overwrites int
}

func (f *fakeRemote) Fetch(ctx context.Context) (record.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.table.Clone(), nil
}

func (f *fakeRemote) Overwrite(ctx context.Context, snap record.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overwrites++
	if f.pushErr != nil {
		return f.pushErr
	}
	f.table = snap.Clone()
	return nil
}

func (f *fakeRemote) snapshot() record.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.table.Clone()
}

func waitEvent(t *testing.T, c <-chan bus.Event) bus.Event {
	t.Helper()
	select {
	case evt := <-c:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return bus.Event{}
}

func assertNoEvent(t *testing.T, c <-chan bus.Event) {
	t.Helper()
	select {
	case evt := <-c:
		t.Fatalf("unexpected event %q", evt.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPullAdoptsDifferingRemote(t *testing.T) {
	b := bus.New()
	store := record.NewStore(b)
	store.Seed(record.Snapshot{
		{Company: "Acme", Position: "Engineer", Status: record.StatusSubmitted, DateApplied: "2024-01-02"},
	})
	remote := &fakeRemote{table: record.Snapshot{
		{Company: "Acme", Position: "Engineer", Status: record.StatusInterview, DateApplied: "2024-01-02"},
		{Company: "Globex", Position: "PM", Status: record.StatusSubmitted, DateApplied: "2024-01-05"},
	}}
	e := NewEngine(EngineConfig{Store: store, Remote: remote, Bus: b})

	sub := b.Subscribe("records.", 4)
	defer sub.Cancel()

	changed, err := e.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if !changed {
		t.Fatal("Pull() changed = false, want true")
	}

	evt := waitEvent(t, sub.C)
	if evt.Kind != bus.KindRecordsReplaced {
		t.Fatalf("event kind = %q, want %q", evt.Kind, bus.KindRecordsReplaced)
	}
	change, ok := evt.Payload.(record.Change)
	if !ok {
		t.Fatalf("event payload = %T, want record.Change", evt.Payload)
	}
	if change.Origin != record.OriginSync {
		t.Fatalf("change origin = %q, want %q", change.Origin, record.OriginSync)
	}
	assertNoEvent(t, sub.C)

	if !store.List().Equal(record.Normalize(remote.snapshot())) {
		t.Fatal("store does not match remote table after pull")
	}
	view := e.State().View()
	if view.LastSync.IsZero() || view.LastError != nil {
		t.Fatalf("state after pull = %+v, want success recorded", view)
	}
}

func TestPullEqualSnapshotsLeaveStoreUntouched(t *testing.T) {
	b := bus.New()
	store := record.NewStore(b)
	snap := record.Snapshot{
		{Company: "Acme", Position: "Engineer", Status: record.StatusSubmitted, DateApplied: "2024-01-02"},
	}
	store.Seed(snap)
	remote := &fakeRemote{table: snap.Clone()}
	e := NewEngine(EngineConfig{Store: store, Remote: remote, Bus: b})

	sub := b.Subscribe("records.", 4)
	defer sub.Cancel()
	done := b.Subscribe(bus.KindSyncCompleted, 4)
	defer done.Cancel()

	changed, err := e.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if changed {
		t.Fatal("Pull() changed = true, want false")
	}
	assertNoEvent(t, sub.C)

	evt := waitEvent(t, done.C)
	res, ok := evt.Payload.(Result)
	if !ok || res.Changed {
		t.Fatalf("completion payload = %+v, want unchanged pull result", evt.Payload)
	}
}

func TestPullFetchErrorIsSoft(t *testing.T) {
	b := bus.New()
	store := record.NewStore(b)
	store.Seed(record.Snapshot{
		{Company: "Acme", Position: "Engineer", Status: record.StatusSubmitted, DateApplied: "2024-01-02"},
	})
	remote := &fakeRemote{fetchErr: errors.New("service unavailable")}
	e := NewEngine(EngineConfig{Store: store, Remote: remote, Bus: b})

	failed := b.Subscribe(bus.KindSyncFailed, 4)
	defer failed.Cancel()

	if _, err := e.Pull(context.Background()); err == nil {
		t.Fatal("Pull() error = nil, want fetch error")
	}
	if store.Len() != 1 {
		t.Fatalf("store size = %d after failed pull, want 1", store.Len())
	}

	evt := waitEvent(t, failed.C)
	f, ok := evt.Payload.(Failure)
	if !ok || f.Op != "pull" {
		t.Fatalf("failure payload = %+v, want pull failure", evt.Payload)
	}
	if e.State().View().LastError == nil {
		t.Fatal("state did not record the pull error")
	}
}

func TestPushOverwritesRemote(t *testing.T) {
	b := bus.New()
	store := record.NewStore(b)
	remote := &fakeRemote{table: record.Snapshot{
		{Company: "Stale", Position: "Old", Status: record.StatusRejected, DateApplied: "2023-06-01"},
	}}
	e := NewEngine(EngineConfig{Store: store, Remote: remote, Bus: b})

	snap := record.Snapshot{
		{ID: 0, Company: "Acme", Position: "Engineer", Status: record.StatusSubmitted, DateApplied: "2024-01-02"},
		{ID: 1, Company: "Globex", Position: "PM", Status: record.StatusOffer, DateApplied: "2024-01-05"},
	}
	if err := e.Push(context.Background(), snap); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if !remote.snapshot().Equal(snap) {
		t.Fatal("remote table does not match pushed snapshot")
	}
}

func TestRequestPushPushesCurrentTable(t *testing.T) {
	b := bus.New()
	store := record.NewStore(b)
	remote := &fakeRemote{}
	e := NewEngine(EngineConfig{Store: store, Remote: remote, Bus: b})
	e.State().SetEnabled(true)
	e.Start()
	defer e.Stop()

	if _, err := store.Add(record.Application{Company: "Acme", Position: "Engineer"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	e.RequestPush()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if remote.snapshot().Equal(store.List()) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("remote never caught up with the local table")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRequestPushIgnoredWhenDisabled(t *testing.T) {
	b := bus.New()
	store := record.NewStore(b)
	remote := &fakeRemote{}
	e := NewEngine(EngineConfig{Store: store, Remote: remote, Bus: b})
	e.Start()
	defer e.Stop()

	if _, err := store.Add(record.Application{Company: "Acme", Position: "Engineer"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	e.RequestPush()
	time.Sleep(100 * time.Millisecond)

	remote.mu.Lock()
	overwrites := remote.overwrites
	remote.mu.Unlock()
	if overwrites != 0 {
		t.Fatalf("remote overwrites = %d while sync disabled, want 0", overwrites)
	}
}
