package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/adamsanghera/go-ytnotify/pkg/subscription/storage"
)

// Get returns the subscription stored for a channel.
func (store *Store) Get(ctx context.Context, channel string) (*storage.Record, error) {
	if channel == "" {
		return nil, ErrMalformedChannel
	}

	row := store.db.QueryRowContext(ctx, `
		SELECT channel_id, topic_url, secret, state, requested_at, lease_expires_at, removed_reason
		FROM subscriptions
		WHERE channel_id=?;`,
		channel,
	)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
