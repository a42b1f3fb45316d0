// Package sqlite is a sqlite3 implementation of the subscription Storage
// interface. The default configuration keeps the database in memory only, so
// subscription state lives and dies with the process.
package sqlite

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver registration

	"github.com/adamsanghera/go-ytnotify/pkg/subscription/storage"
)

// Store is a sqlite3-backed storage.Storage.
type Store struct {
	db *sql.DB
}

// New opens the database and creates the schema.
func New(cfg *Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, err
	}

	// Every pool connection to :memory: would get its own empty database,
	// so the pool is pinned to a single connection.
	db.SetMaxOpenConns(1)

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}

	// Create tables, views
	if _, err = tx.Exec(subscriptionTable); err != nil {
		return nil, err
	}
	if _, err = tx.Exec(activeView); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Shutdown closes the database.
func (store *Store) Shutdown() error {
	return store.db.Close()
}

// scanRecord reads one row in the column order shared by every query here.
func scanRecord(scan func(dest ...any) error) (storage.Record, error) {
	var rec storage.Record
	var state, requestedAt string
	var leaseExpiresAt, removedReason sql.NullString

	if err := scan(&rec.Channel, &rec.Topic, &rec.Secret, &state, &requestedAt, &leaseExpiresAt, &removedReason); err != nil {
		return storage.Record{}, err
	}

	rec.State = storage.State(state)

	requested, err := time.Parse(sqliteTimeFmt, requestedAt)
	if err != nil {
		return storage.Record{}, ErrMalformedTime{requestedAt}
	}
	rec.RequestedAt = requested.UTC()

	if leaseExpiresAt.Valid {
		lease, err := time.Parse(sqliteTimeFmt, leaseExpiresAt.String)
		if err != nil {
			return storage.Record{}, ErrMalformedTime{leaseExpiresAt.String}
		}
		rec.LeaseExpiresAt = lease.UTC()
	}
	if removedReason.Valid {
		rec.RemovedReason = removedReason.String
	}

	return rec, nil
}
