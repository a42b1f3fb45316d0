package sqlite

// Config is the configuration for the sqlite store.
type Config struct {
	DSN string // the 'data source name' the sqlite3 driver opens
}

// NewConfig returns the default Config (database in-memory only).
func NewConfig() *Config {
	return &Config{
		DSN: ":memory:",
	}
}
