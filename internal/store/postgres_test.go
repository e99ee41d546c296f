package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davrodpin/scoundrel/internal/game"
	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

func newTestPostgres(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgres(mock), mock
}

func TestPostgres_Create(t *testing.T) {
	p, mock := newTestPostgres(t)
	sess := newSession("p1", epoch)

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(pgxmock.AnyArg(), "p1", epoch, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := p.Create(context.Background(), sess)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Load(t *testing.T) {
	p, mock := newTestPostgres(t)
	sess := newSession("p1", epoch)
	sess.ID = "s1"
	data, err := json.Marshal(sess)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT data FROM sessions WHERE id = \$1`).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

	got, err := p.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadMissing(t *testing.T) {
	p, mock := newTestPostgres(t)

	mock.ExpectQuery(`SELECT data FROM sessions`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := p.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, game.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadFailure(t *testing.T) {
	p, mock := newTestPostgres(t)

	mock.ExpectQuery(`SELECT data FROM sessions`).
		WithArgs("s1").
		WillReturnError(errors.New("connection reset"))

	_, err := p.Load(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, game.ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgres_Save(t *testing.T) {
	tests := []struct {
		name    string
		rows    int64
		wantErr error
	}{
		{name: "updated", rows: 1},
		{name: "missing", rows: 0, wantErr: game.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, mock := newTestPostgres(t)
			sess := newSession("p1", epoch)
			sess.ID = "s1"

			mock.ExpectExec(`UPDATE sessions SET`).
				WithArgs(epoch, pgxmock.AnyArg(), "s1").
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.rows))

			err := p.Save(context.Background(), sess)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgres_Delete(t *testing.T) {
	p, mock := newTestPostgres(t)

	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WithArgs("s1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, p.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendHistory(t *testing.T) {
	p, mock := newTestPostgres(t)
	e := game.HistoryEntry{ID: "h1", SessionID: "s1", Sequence: 1, Action: scoundrel.Action{Type: scoundrel.DrawRoom}}

	mock.ExpectExec(`INSERT INTO history`).
		WithArgs("h1", "s1", int64(1), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, p.AppendHistory(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendHistoryMissingSession(t *testing.T) {
	p, mock := newTestPostgres(t)
	e := game.HistoryEntry{ID: "h1", SessionID: "gone", Sequence: 1}

	mock.ExpectExec(`INSERT INTO history`).
		WithArgs("h1", "gone", int64(1), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})

	assert.ErrorIs(t, p.AppendHistory(context.Background(), e), game.ErrNotFound)
}

func TestPostgres_History(t *testing.T) {
	p, mock := newTestPostgres(t)

	rows := pgxmock.NewRows([]string{"data"})
	for seq := int64(1); seq <= 2; seq++ {
		data, err := json.Marshal(game.HistoryEntry{SessionID: "s1", Sequence: seq, Action: scoundrel.Action{Type: scoundrel.DrawRoom}})
		require.NoError(t, err)
		rows.AddRow(data)
	}
	mock.ExpectQuery(`SELECT data FROM history WHERE session_id = \$1 ORDER BY sequence`).
		WithArgs("s1").
		WillReturnRows(rows)

	entries, err := p.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Sequence)
	assert.Equal(t, int64(2), entries[1].Sequence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteExpired(t *testing.T) {
	p, mock := newTestPostgres(t)

	mock.ExpectExec(`DELETE FROM sessions WHERE last_updated_at < \$1`).
		WithArgs(epoch).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := p.DeleteExpired(context.Background(), epoch)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
