package database

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	maxOpenConns = 25
	maxIdleConns = 5
)

// Connect opens the postgres pool and verifies it is reachable.
// sqlx.Connect pings as part of establishing the pool.
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	log.Printf("[DB] Connected: max_open=%d max_idle=%d", maxOpenConns, maxIdleConns)
	return db, nil
}
