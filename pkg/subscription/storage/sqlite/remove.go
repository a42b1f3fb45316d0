package sqlite

import (
	"context"
	"database/sql"
)

// Remove transitions an active subscription to removed. This is the
// unsubscribe confirmation path; pending and already-removed subscriptions
// do not qualify, so repeated confirmations fail with ErrUpdateFailed.
func (store *Store) Remove(ctx context.Context, channel, reason string) (err error) {
	if channel == "" {
		return ErrMalformedChannel
	}
	if reason == "" {
		return ErrMalformedReason
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

	res, err := tx.ExecContext(ctx, `
		UPDATE subscriptions
		SET state='removed', lease_expires_at=NULL, removed_reason=?
		WHERE channel_id=? AND state='active';`,
		reason, channel,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrUpdateFailed{n}
	}

	return tx.Commit()
}
