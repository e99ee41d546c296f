package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davrodpin/scoundrel/internal/game"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, 30*time.Minute), mr
}

func TestRedis(t *testing.T) {
	testBackend(t, func(t *testing.T) Backend {
		r, _ := newTestRedis(t)
		return r
	})
}

func TestRedis_SessionsExpireWithTTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	id, err := r.Create(ctx, newSession("p", epoch))
	require.NoError(t, err)
	require.NoError(t, r.AppendHistory(ctx, game.HistoryEntry{ID: "h1", SessionID: id, Sequence: 1}))

	assert.Equal(t, 30*time.Minute, mr.TTL(sessionKey(id)))
	assert.Equal(t, 30*time.Minute, mr.TTL(historyKey(id)))

	mr.FastForward(29 * time.Minute)
	sess, err := r.Load(ctx, id)
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, sess))
	assert.Equal(t, 30*time.Minute, mr.TTL(sessionKey(id)), "save refreshes ttl")

	mr.FastForward(31 * time.Minute)
	_, err = r.Load(ctx, id)
	assert.ErrorIs(t, err, game.ErrNotFound)
	assert.False(t, mr.Exists(historyKey(id)))
}

func TestRedis_Ping(t *testing.T) {
	r, mr := newTestRedis(t)
	require.NoError(t, r.Ping(context.Background()))

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))
}
