// Package storage defines the subscription state store.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by queries for channels the store has never seen.
	ErrNotFound = errors.New("storage: no subscription for channel")

	// ErrWrongState is returned by transitions whose subscription is not in
	// the required starting state.
	ErrWrongState = errors.New("storage: subscription not in required state")
)

// State is the handshake state of a channel subscription.
type State string

const (
	// StatePending means a subscribe request was sent and the hub has not
	// verified it yet.
	StatePending State = "pending"
	// StateActive means the hub verified the subscription and granted a lease.
	StateActive State = "active"
	// StateRemoved means the subscription was unsubscribed or denied.
	StateRemoved State = "removed"
)

// Record is the stored state of one channel subscription.
type Record struct {
	Channel        string
	Topic          string
	Secret         string
	State          State
	RequestedAt    time.Time
	LeaseExpiresAt time.Time // zero until the hub grants a lease
	RemovedReason  string    // set when State is StateRemoved
}

// Storage manages the state of channel subscriptions.
type Storage interface {
	/* Commands */

	// MarkPending records that a subscribe request for the channel is in
	// flight. Re-marking an existing channel resets it to pending.
	MarkPending(ctx context.Context, channel, topic, secret string) error

	// Activate transitions a pending subscription to active with the lease
	// expiry the hub granted. Only pending subscriptions can be activated.
	Activate(ctx context.Context, channel string, leaseExpiry time.Time) error

	// Remove transitions an active subscription to removed. This is the
	// unsubscribe confirmation path; only active subscriptions qualify.
	Remove(ctx context.Context, channel, reason string) error

	// Deny transitions a pending or active subscription to removed. Hubs
	// may deny before verification or revoke long after it.
	Deny(ctx context.Context, channel, reason string) error

	/* Queries */

	// Get returns the subscription for a channel, or ErrNotFound.
	Get(ctx context.Context, channel string) (*Record, error)

	// All returns every known subscription, in channel order.
	All(ctx context.Context) ([]Record, error)

	// Active returns verified subscriptions whose lease has not expired, in
	// channel order.
	Active(ctx context.Context) ([]Record, error)

	// Shutdown releases the store.
	Shutdown() error
}
