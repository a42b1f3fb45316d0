package sqlite

import (
	"errors"
	"fmt"

	"github.com/adamsanghera/go-ytnotify/pkg/subscription/storage"
)

var (
	// ErrMalformedChannel is returned when a command names no channel.
	ErrMalformedChannel = errors.New("sqlite storage: channel provided is empty")

	// ErrMalformedTopic is returned when a pending subscription names no topic.
	ErrMalformedTopic = errors.New("sqlite storage: topic provided is empty")

	// ErrMalformedReason is returned when a removal carries no reason.
	ErrMalformedReason = errors.New("sqlite storage: removal reason provided is empty")
)

// ErrUpdateFailed is returned when a state transition fails to touch exactly
// one row, i.e. the subscription is missing or not in the required state.
type ErrUpdateFailed struct {
	numTouched int64
}

func (e ErrUpdateFailed) Error() string {
	return fmt.Sprintf("sqlite storage: update touched %d rows instead of 1", e.numTouched)
}

// Unwrap lets callers test with errors.Is against the interface contract.
func (e ErrUpdateFailed) Unwrap() error {
	return storage.ErrWrongState
}

// ErrMalformedTime is returned when a stored timestamp cannot be parsed back.
type ErrMalformedTime struct {
	badTime string
}

func (e ErrMalformedTime) Error() string {
	return fmt.Sprintf("sqlite storage: stored time value {%s} could not be parsed", e.badTime)
}
