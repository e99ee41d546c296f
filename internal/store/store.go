// Package store holds the session backends: an in-process map, SQLite via
// libSQL, PostgreSQL via pgx and Redis.
package store

import (
	"github.com/google/uuid"

	"github.com/davrodpin/scoundrel/internal/game"
)

// Backend is everything a store offers the game manager.
type Backend interface {
	game.Store
	game.HistoryStore
}

var (
	_ Backend      = (*Memory)(nil)
	_ Backend      = (*SQLite)(nil)
	_ Backend      = (*Postgres)(nil)
	_ Backend      = (*Redis)(nil)
	_ game.Sweeper = (*Memory)(nil)
	_ game.Sweeper = (*SQLite)(nil)
	_ game.Sweeper = (*Postgres)(nil)
)

func newSessionID() string {
	return uuid.NewString()
}
