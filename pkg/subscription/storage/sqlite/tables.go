package sqlite

const (
	sqliteTimeFmt = "2006-01-02 15:04:05"

	subscriptionTable = `
		CREATE TABLE IF NOT EXISTS subscriptions (
			channel_id TEXT NOT NULL,
			topic_url TEXT NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'pending',
			requested_at TEXT NOT NULL,
			lease_expires_at TEXT DEFAULT NULL,
			removed_reason TEXT DEFAULT NULL,

			CHECK (state IN ('pending', 'active', 'removed')),
			CHECK (state != 'active' OR lease_expires_at IS NOT NULL),
			PRIMARY KEY (channel_id) ON CONFLICT REPLACE);`

	activeView = `
		CREATE VIEW IF NOT EXISTS active_subscriptions (
			channel_id, topic_url, secret, state, requested_at, lease_expires_at, removed_reason
		) AS
		SELECT channel_id, topic_url, secret, state, requested_at, lease_expires_at, removed_reason
		FROM subscriptions
		WHERE (
			state = 'active'
			AND lease_expires_at IS NOT NULL
			AND datetime('now') < datetime(lease_expires_at))
		ORDER BY channel_id;`
)
