package game

import (
	"context"
	"errors"
	"time"

	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

// ErrNotFound is returned by stores when a session does not exist.
var ErrNotFound = errors.New("not found")

// Store persists sessions. Create assigns the session ID. Save only
// updates an existing session and returns ErrNotFound otherwise. Delete is
// idempotent and also drops the session's history.
type Store interface {
	Create(ctx context.Context, s Session) (string, error)
	Load(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

// HistoryEntry records one accepted action.
type HistoryEntry struct {
	ID         string           `json:"id"`
	SessionID  string           `json:"sessionId"`
	Sequence   int64            `json:"sequence"`
	Action     scoundrel.Action `json:"action"`
	DrawnCards scoundrel.Cards  `json:"drawnCards,omitempty"`
	Health     int              `json:"health"`
	GameOver   bool             `json:"gameOver"`
	Score      int              `json:"score"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// HistoryStore is implemented by stores that keep a per-session action log.
// Entries are returned in the order they were appended.
type HistoryStore interface {
	AppendHistory(ctx context.Context, e HistoryEntry) error
	History(ctx context.Context, sessionID string) ([]HistoryEntry, error)
}

// Sweeper is implemented by stores that can drop idle sessions in bulk.
type Sweeper interface {
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
