package sqlite

import (
	"context"

	"github.com/adamsanghera/go-ytnotify/pkg/subscription/storage"
)

// Active returns subscriptions the hub has verified and whose lease has not
// expired yet. Expiry is evaluated by the view at query time, so a lapsed
// lease drops out without any state transition.
func (store *Store) Active(ctx context.Context) ([]storage.Record, error) {
	rows, err := store.db.QueryContext(ctx, `
		SELECT channel_id, topic_url, secret, state, requested_at, lease_expires_at, removed_reason
		FROM active_subscriptions
		ORDER BY channel_id;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []storage.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
