package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T) Backend {
	return NewMemory()
}

func TestMemory(t *testing.T) {
	testBackend(t, newTestMemory)
}

func TestMemory_DeleteExpired(t *testing.T) {
	testSweeper(t, newTestMemory)
}

func TestMemory_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	sess := newSession("p", epoch)

	id, err := m.Create(ctx, sess)
	require.NoError(t, err)

	sess.State.Dungeon[0] = nil
	got, err := m.Load(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, got.State.Dungeon[0])

	got.State.Dungeon = got.State.Dungeon[:1]
	again, err := m.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, again.State.Dungeon, 44)
	assert.Equal(t, 1, m.Len())
}
