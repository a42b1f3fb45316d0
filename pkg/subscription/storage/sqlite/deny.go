package sqlite

import (
	"context"
	"database/sql"
)

// Deny transitions a pending or active subscription to removed. Hubs may
// deny a request before verifying it, or revoke a subscription they already
// granted, so both starting states are accepted.
func (store *Store) Deny(ctx context.Context, channel, reason string) (err error) {
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
		WHERE channel_id=? AND state IN ('pending', 'active');`,
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
