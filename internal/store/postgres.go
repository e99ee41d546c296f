package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/davrodpin/scoundrel/internal/game"
)

// pgPool is the subset of *pgxpool.Pool the store needs.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const pgForeignKeyViolation = "23503"

// Postgres stores sessions as JSONB documents. History rows cascade with
// their session.
type Postgres struct {
	pool pgPool
}

func NewPostgres(pool pgPool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Create(ctx context.Context, sess game.Session) (string, error) {
	sess.ID = newSessionID()
	data, err := json.Marshal(sess)
	if err != nil {
		return "", oops.In("postgres").With("operation", "marshal session").Wrap(err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO sessions (id, player_id, last_updated_at, data) VALUES ($1, $2, $3, $4)`,
		sess.ID, sess.PlayerID, sess.LastUpdatedAt, data,
	)
	if err != nil {
		return "", oops.In("postgres").With("operation", "insert session").Wrap(err)
	}
	return sess.ID, nil
}

func (p *Postgres) Load(ctx context.Context, id string) (game.Session, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM sessions WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Session{}, game.ErrNotFound
	}
	if err != nil {
		return game.Session{}, oops.In("postgres").With("operation", "select session").With("session_id", id).Wrap(err)
	}

	var sess game.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return game.Session{}, oops.In("postgres").With("operation", "unmarshal session").With("session_id", id).Wrap(err)
	}
	return sess, nil
}

func (p *Postgres) Save(ctx context.Context, sess game.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return oops.In("postgres").With("operation", "marshal session").With("session_id", sess.ID).Wrap(err)
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE sessions SET last_updated_at = $1, data = $2 WHERE id = $3`,
		sess.LastUpdatedAt, data, sess.ID,
	)
	if err != nil {
		return oops.In("postgres").With("operation", "update session").With("session_id", sess.ID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrNotFound
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return oops.In("postgres").With("operation", "delete session").With("session_id", id).Wrap(err)
	}
	return nil
}

func (p *Postgres) AppendHistory(ctx context.Context, e game.HistoryEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return oops.In("postgres").With("operation", "marshal history").With("session_id", e.SessionID).Wrap(err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO history (id, session_id, sequence, data) VALUES ($1, $2, $3, $4)`,
		e.ID, e.SessionID, e.Sequence, data,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return game.ErrNotFound
	}
	if err != nil {
		return oops.In("postgres").With("operation", "insert history").With("session_id", e.SessionID).Wrap(err)
	}
	return nil
}

func (p *Postgres) History(ctx context.Context, sessionID string) ([]game.HistoryEntry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT data FROM history WHERE session_id = $1 ORDER BY sequence`, sessionID,
	)
	if err != nil {
		return nil, oops.In("postgres").With("operation", "select history").With("session_id", sessionID).Wrap(err)
	}
	defer rows.Close()

	entries := []game.HistoryEntry{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, oops.In("postgres").With("operation", "scan history").Wrap(err)
		}
		var e game.HistoryEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, oops.In("postgres").With("operation", "unmarshal history").Wrap(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.In("postgres").With("operation", "iterate history").Wrap(err)
	}
	return entries, nil
}

func (p *Postgres) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE last_updated_at < $1`, before)
	if err != nil {
		return 0, oops.In("postgres").With("operation", "delete expired").Wrap(err)
	}
	return int(tag.RowsAffected()), nil
}
