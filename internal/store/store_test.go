package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davrodpin/scoundrel/internal/game"
	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newSession(player string, updated time.Time) game.Session {
	return game.Session{
		PlayerID:      player,
		State:         scoundrel.NewState(scoundrel.NewDeck(scoundrel.NewSeededRNG(3))),
		CreatedAt:     updated,
		LastUpdatedAt: updated,
	}
}

// testBackend runs the behaviour every Backend shares.
func testBackend(t *testing.T, newBackend func(t *testing.T) Backend) {
	ctx := context.Background()

	t.Run("create and load", func(t *testing.T) {
		b := newBackend(t)
		sess := newSession("p1", epoch)

		id, err := b.Create(ctx, sess)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := b.Load(ctx, id)
		require.NoError(t, err)
		sess.ID = id
		assert.Equal(t, sess, got)
	})

	t.Run("ids are unique", func(t *testing.T) {
		b := newBackend(t)
		a, err := b.Create(ctx, newSession("p", epoch))
		require.NoError(t, err)
		c, err := b.Create(ctx, newSession("p", epoch))
		require.NoError(t, err)
		assert.NotEqual(t, a, c)
	})

	t.Run("load missing", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Load(ctx, "missing")
		assert.ErrorIs(t, err, game.ErrNotFound)
	})

	t.Run("save replaces", func(t *testing.T) {
		b := newBackend(t)
		id, err := b.Create(ctx, newSession("p", epoch))
		require.NoError(t, err)

		sess, err := b.Load(ctx, id)
		require.NoError(t, err)
		sess.State = scoundrel.Apply(sess.State, scoundrel.Action{Type: scoundrel.DrawRoom})
		sess.ActionCount = 1
		sess.LastUpdatedAt = epoch.Add(time.Minute)
		require.NoError(t, b.Save(ctx, sess))

		got, err := b.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, sess, got)
		assert.Len(t, got.State.Room, 4)
	})

	t.Run("save missing", func(t *testing.T) {
		b := newBackend(t)
		sess := newSession("p", epoch)
		sess.ID = "missing"
		assert.ErrorIs(t, b.Save(ctx, sess), game.ErrNotFound)

		_, err := b.Load(ctx, "missing")
		assert.ErrorIs(t, err, game.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		b := newBackend(t)
		id, err := b.Create(ctx, newSession("p", epoch))
		require.NoError(t, err)

		require.NoError(t, b.Delete(ctx, id))
		require.NoError(t, b.Delete(ctx, id))

		_, err = b.Load(ctx, id)
		assert.ErrorIs(t, err, game.ErrNotFound)
	})

	t.Run("history in order and dropped with session", func(t *testing.T) {
		b := newBackend(t)
		id, err := b.Create(ctx, newSession("p", epoch))
		require.NoError(t, err)

		for seq := int64(1); seq <= 3; seq++ {
			require.NoError(t, b.AppendHistory(ctx, game.HistoryEntry{
				ID:        "e" + string(rune('0'+seq)),
				SessionID: id,
				Sequence:  seq,
				Action:    scoundrel.Action{Type: scoundrel.DrawRoom, Sequence: seq},
				Health:    20,
				CreatedAt: epoch,
			}))
		}

		entries, err := b.History(ctx, id)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		for i, e := range entries {
			assert.Equal(t, int64(i+1), e.Sequence)
			assert.Equal(t, scoundrel.DrawRoom, e.Action.Type)
			assert.Equal(t, id, e.SessionID)
		}

		require.NoError(t, b.Delete(ctx, id))
		entries, err = b.History(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("history of missing session", func(t *testing.T) {
		b := newBackend(t)
		err := b.AppendHistory(ctx, game.HistoryEntry{ID: "x", SessionID: "missing", Sequence: 1})
		assert.ErrorIs(t, err, game.ErrNotFound)

		entries, err := b.History(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

// testSweeper checks bulk expiry for stores that implement game.Sweeper.
func testSweeper(t *testing.T, newBackend func(t *testing.T) Backend) {
	ctx := context.Background()
	b := newBackend(t)
	sw, ok := b.(game.Sweeper)
	require.True(t, ok)

	old, err := b.Create(ctx, newSession("old", epoch))
	require.NoError(t, err)
	require.NoError(t, b.AppendHistory(ctx, game.HistoryEntry{ID: "h1", SessionID: old, Sequence: 1}))
	fresh, err := b.Create(ctx, newSession("fresh", epoch.Add(time.Hour)))
	require.NoError(t, err)

	n, err := sw.DeleteExpired(ctx, epoch.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = b.Load(ctx, old)
	assert.ErrorIs(t, err, game.ErrNotFound)
	entries, err := b.History(ctx, old)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = b.Load(ctx, fresh)
	assert.NoError(t, err)
}
