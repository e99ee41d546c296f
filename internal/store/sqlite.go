package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/davrodpin/scoundrel/internal/game"
)

// SQLite stores each session as a JSONB document next to the columns needed
// to find and expire it. The schema is owned by the migrations package.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Create(ctx context.Context, sess game.Session) (string, error) {
	sess.ID = newSessionID()
	data, err := json.Marshal(sess)
	if err != nil {
		return "", oops.In("sqlite").With("operation", "marshal session").Wrap(err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, player_id, last_updated_at, data) VALUES (?, ?, ?, jsonb(?))`,
		sess.ID, sess.PlayerID, sess.LastUpdatedAt.UnixMilli(), string(data),
	)
	if err != nil {
		return "", oops.In("sqlite").With("operation", "insert session").Wrap(err)
	}
	return sess.ID, nil
}

func (s *SQLite) Load(ctx context.Context, id string) (game.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM sessions WHERE id = ?`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Session{}, game.ErrNotFound
	}
	if err != nil {
		return game.Session{}, oops.In("sqlite").With("operation", "select session").With("session_id", id).Wrap(err)
	}

	var sess game.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return game.Session{}, oops.In("sqlite").With("operation", "unmarshal session").With("session_id", id).Wrap(err)
	}
	return sess, nil
}

func (s *SQLite) Save(ctx context.Context, sess game.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return oops.In("sqlite").With("operation", "marshal session").With("session_id", sess.ID).Wrap(err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_updated_at = ?, data = jsonb(?) WHERE id = ?`,
		sess.LastUpdatedAt.UnixMilli(), string(data), sess.ID,
	)
	if err != nil {
		return oops.In("sqlite").With("operation", "update session").With("session_id", sess.ID).Wrap(err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return game.ErrNotFound
	}
	return nil
}

// Delete removes the session and its history. Foreign keys are a
// per-connection pragma, so history is cleared explicitly.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	return s.inTx(ctx, "delete session", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE session_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
		return err
	})
}

func (s *SQLite) AppendHistory(ctx context.Context, e game.HistoryEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return oops.In("sqlite").With("operation", "marshal history").With("session_id", e.SessionID).Wrap(err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO history (id, session_id, sequence, data)
		 SELECT ?, id, ?, jsonb(?) FROM sessions WHERE id = ?`,
		e.ID, e.Sequence, string(data), e.SessionID,
	)
	if err != nil {
		return oops.In("sqlite").With("operation", "insert history").With("session_id", e.SessionID).Wrap(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return game.ErrNotFound
	}
	return nil
}

func (s *SQLite) History(ctx context.Context, sessionID string) ([]game.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM history WHERE session_id = ? ORDER BY sequence`, sessionID,
	)
	if err != nil {
		return nil, oops.In("sqlite").With("operation", "select history").With("session_id", sessionID).Wrap(err)
	}
	defer rows.Close()

	entries := []game.HistoryEntry{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, oops.In("sqlite").With("operation", "scan history").Wrap(err)
		}
		var e game.HistoryEntry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, oops.In("sqlite").With("operation", "unmarshal history").Wrap(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.In("sqlite").With("operation", "iterate history").Wrap(err)
	}
	return entries, nil
}

func (s *SQLite) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	var n int64
	err := s.inTx(ctx, "delete expired", func(tx *sql.Tx) error {
		cutoff := before.UnixMilli()
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM history WHERE session_id IN (SELECT id FROM sessions WHERE last_updated_at < ?)`, cutoff,
		); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE last_updated_at < ?`, cutoff)
		if err != nil {
			return err
		}
		n, _ = result.RowsAffected()
		return nil
	})
	return int(n), err
}

func (s *SQLite) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.In("sqlite").With("operation", op).Wrapf(err, "begin")
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return oops.In("sqlite").With("operation", op).Wrap(err)
	}
	if err := tx.Commit(); err != nil {
		return oops.In("sqlite").With("operation", op).Wrapf(err, "commit")
	}
	return nil
}
