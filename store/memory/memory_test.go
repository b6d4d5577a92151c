package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"keygate/store"
)

func newRecord(id string) store.Record {
	return store.Record{
		ID:              id,
		Owner:           "user-1",
		RemotePublicKey: make([]byte, 32),
		LocalPublicKey:  make([]byte, 32),
		LocalPrivateKey: make([]byte, 32),
		Status:          store.StatusInitiated,
		CreatedAt:       time.Now(),
	}
}

func TestCreateGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	rec := newRecord("h1")
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, rec); err != store.ErrExists {
		t.Fatalf("duplicate Create: err = %v, want ErrExists", err)
	}

	got, err := s.Get(ctx, "h1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("Version = %d, want 1", got.Version)
	}

	// Mutating the returned copy must not touch stored state.
	got.RemotePublicKey[0] = 0xff
	again, _ := s.Get(ctx, "h1")
	if again.RemotePublicKey[0] != 0 {
		t.Fatalf("stored record aliased by Get result")
	}

	if _, err := s.Get(ctx, "missing"); err != store.ErrNotFound {
		t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
	}
}

func TestUpdateVersionConflict(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Create(ctx, newRecord("h1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	a, _ := s.Get(ctx, "h1")
	b, _ := s.Get(ctx, "h1")

	a.Status = store.StatusCompleted
	if err := s.Update(ctx, a); err != nil {
		t.Fatalf("first Update: %v", err)
	}

	b.Status = store.StatusSuspicious
	if err := s.Update(ctx, b); err != store.ErrVersionConflict {
		t.Fatalf("stale Update: err = %v, want ErrVersionConflict", err)
	}

	got, _ := s.Get(ctx, "h1")
	if got.Status != store.StatusCompleted || got.Version != 2 {
		t.Fatalf("record = %v v%d, want completed v2", got.Status, got.Version)
	}
}

func TestConcurrentUpdateSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Create(ctx, newRecord("h1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// All racers share the same snapshot; exactly one conditional write
	// may land.
	base, err := s.Get(ctx, "h1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := base.Clone()
			rec.Status = store.StatusCompleted
			if err := s.Update(ctx, rec); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	n := 0
	for range wins {
		n++
	}
	if n != 1 {
		t.Fatalf("winners = %d, want exactly 1", n)
	}
}
