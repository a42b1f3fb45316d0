package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// MarkPending records that a subscribe request for the channel is in flight.
// The channel's primary key replaces on conflict, so re-marking an existing
// subscription resets it to pending with a fresh request time and no lease.
func (store *Store) MarkPending(ctx context.Context, channel, topic, secret string) (err error) {
	if channel == "" {
		return ErrMalformedChannel
	}
	if topic == "" {
		return ErrMalformedTopic
	}

	tx, err := store.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: false})
	if err != nil {
		return err
	}

	// Defer a rollback, if an error is encountered
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO subscriptions
		(channel_id, topic_url, secret, state, requested_at) VALUES
		(?, ?, ?, 'pending', ?);`,
		channel, topic, secret,
		time.Now().UTC().Format(sqliteTimeFmt),
	); err != nil {
		return err
	}

	return tx.Commit()
}
