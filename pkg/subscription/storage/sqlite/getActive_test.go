package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adamsanghera/go-ytnotify/pkg/subscription/storage"
)

/*
	Test Cases:

	1. Active view holds only verified, unexpired subscriptions
	2. An expired lease drops out of the view without a state change
	3. All returns every state in channel order
	4. Get on an unknown channel -> ErrNotFound
*/

func TestStore_ActiveView(t *testing.T) {
	store, err := New(NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err = store.Shutdown(); err != nil {
			t.Fatal(err)
		}
	}()

	ctx := context.Background()

	// chan-a: active with a healthy lease
	if err = store.MarkPending(ctx, "chan-a", "topic-a", ""); err != nil {
		t.Fatal(err)
	}
	if err = store.Activate(ctx, "chan-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	// chan-b: still pending
	if err = store.MarkPending(ctx, "chan-b", "topic-b", ""); err != nil {
		t.Fatal(err)
	}

	// chan-c: activated with a lease already lapsed
	if err = store.MarkPending(ctx, "chan-c", "topic-c", ""); err != nil {
		t.Fatal(err)
	}
	if err = store.Activate(ctx, "chan-c", time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	// 1 & 2. Only chan-a is visible
	active, err := store.Active(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Fatalf("len(active) = %d, want 1", len(active))
	}
	if active[0].Channel != "chan-a" {
		t.Fatalf("active[0].Channel = %q, want %q", active[0].Channel, "chan-a")
	}

	// The lapsed lease did not change state
	rec, err := store.Get(ctx, "chan-c")
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != storage.StateActive {
		t.Fatalf("chan-c State = %v, want %v", rec.State, storage.StateActive)
	}

	// 3. All sees everything, ordered
	all, err := store.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	for i, want := range []string{"chan-a", "chan-b", "chan-c"} {
		if all[i].Channel != want {
			t.Fatalf("all[%d].Channel = %q, want %q", i, all[i].Channel, want)
		}
	}

	// 4. Unknown channel
	_, err = store.Get(ctx, "chan-unknown")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatal(err)
	}
}
