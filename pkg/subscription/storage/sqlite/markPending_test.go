package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/adamsanghera/go-ytnotify/pkg/subscription/storage"
)

/*
	Test Cases:

	(Valid cases)
	1. Fresh channel marked pending
	2. Active channel re-marked pending (lease handshake refresh)
	3. Removed channel re-marked pending (resubscribe)

	(Error cases)
	1. Empty channel
	2. Empty topic
*/

func TestStore_MarkPending(t *testing.T) {
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

	// 1. Fresh channel
	err = store.MarkPending(ctx, "chan-a", "https://example.com/feed?channel_id=chan-a", "s3cret")
	if err != nil {
		t.Fatal(err)
	}

	rec, err := store.Get(ctx, "chan-a")
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != storage.StatePending {
		t.Fatalf("State = %v, want %v", rec.State, storage.StatePending)
	}
	if rec.Secret != "s3cret" {
		t.Fatalf("Secret = %q, want %q", rec.Secret, "s3cret")
	}
	if rec.RequestedAt.IsZero() {
		t.Fatal("RequestedAt is zero, want a timestamp")
	}

	// 2. Re-mark after activation resets state and clears the lease
	err = store.Activate(ctx, "chan-a", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	err = store.MarkPending(ctx, "chan-a", "https://example.com/feed?channel_id=chan-a", "s3cret")
	if err != nil {
		t.Fatal(err)
	}

	rec, err = store.Get(ctx, "chan-a")
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != storage.StatePending {
		t.Fatalf("State after re-mark = %v, want %v", rec.State, storage.StatePending)
	}
	if !rec.LeaseExpiresAt.IsZero() {
		t.Fatalf("LeaseExpiresAt after re-mark = %v, want zero", rec.LeaseExpiresAt)
	}

	// 3. Re-mark after removal
	err = store.Activate(ctx, "chan-a", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	err = store.Remove(ctx, "chan-a", "unsubscribed")
	if err != nil {
		t.Fatal(err)
	}
	err = store.MarkPending(ctx, "chan-a", "https://example.com/feed?channel_id=chan-a", "")
	if err != nil {
		t.Fatal(err)
	}

	rec, err = store.Get(ctx, "chan-a")
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != storage.StatePending {
		t.Fatalf("State after resubscribe = %v, want %v", rec.State, storage.StatePending)
	}
	if rec.RemovedReason != "" {
		t.Fatalf("RemovedReason after resubscribe = %q, want empty", rec.RemovedReason)
	}
}

func TestStore_MarkPending_Errors(t *testing.T) {
	store, err := New(NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err = store.Shutdown(); err != nil {
			t.Fatal(err)
		}
	}()

	// 1. Empty channel
	err = store.MarkPending(context.Background(), "", "topic", "")
	if err != ErrMalformedChannel {
		t.Fatal(err)
	}

	// 2. Empty topic
	err = store.MarkPending(context.Background(), "chan-a", "", "")
	if err != ErrMalformedTopic {
		t.Fatal(err)
	}
}
