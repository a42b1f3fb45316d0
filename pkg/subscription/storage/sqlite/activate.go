package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// Activate transitions a pending subscription to active, recording the lease
// expiry the hub granted. The WHERE clause is the concurrency guard: two
// racing confirmations for one channel cannot both touch the row.
func (store *Store) Activate(ctx context.Context, channel string, leaseExpiry time.Time) (err error) {
	if channel == "" {
		return ErrMalformedChannel
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
		SET state='active', lease_expires_at=?, removed_reason=NULL
		WHERE channel_id=? AND state='pending';`,
		leaseExpiry.UTC().Format(sqliteTimeFmt),
		channel,
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
