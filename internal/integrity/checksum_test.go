package integrity_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davrodpin/scoundrel/internal/errutil"
	"github.com/davrodpin/scoundrel/internal/integrity"
	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

func freshState(t *testing.T) scoundrel.State {
	t.Helper()
	return scoundrel.NewState(scoundrel.NewDeck(scoundrel.NewSeededRNG(7)))
}

func TestChecksummer_StampThenVerify(t *testing.T) {
	c := integrity.New([]byte("secret"))

	s, err := c.Stamp(freshState(t))
	require.NoError(t, err)
	assert.Len(t, s.StateChecksum, 64)
	require.NoError(t, c.Verify(s))

	next := scoundrel.Apply(s, scoundrel.Action{Type: scoundrel.DrawRoom, Sequence: 1})
	next.LastActionSequence = 1
	next, err = c.Stamp(next)
	require.NoError(t, err)
	assert.NoError(t, c.Verify(next))
	assert.NotEqual(t, s.StateChecksum, next.StateChecksum)
}

func TestChecksummer_DetectsTampering(t *testing.T) {
	c := integrity.New([]byte("secret"))
	base, err := c.Stamp(freshState(t))
	require.NoError(t, err)

	tests := []struct {
		name   string
		tamper func(s *scoundrel.State)
	}{
		{name: "health", tamper: func(s *scoundrel.State) { s.Health = 99 }},
		{name: "max health", tamper: func(s *scoundrel.State) { s.MaxHealth = 30 }},
		{name: "sequence", tamper: func(s *scoundrel.State) { s.LastActionSequence = 10 }},
		{name: "game over", tamper: func(s *scoundrel.State) { s.GameOver = true }},
		{name: "dungeon order", tamper: func(s *scoundrel.State) {
			s.Dungeon[0], s.Dungeon[1] = s.Dungeon[1], s.Dungeon[0]
		}},
		{name: "dropped card", tamper: func(s *scoundrel.State) { s.Dungeon = s.Dungeon[1:] }},
		{name: "weapon", tamper: func(s *scoundrel.State) {
			w := scoundrel.Weapon{Face: scoundrel.Face{Suit: scoundrel.Diamonds, Rank: scoundrel.Ten}, Damage: 10}
			s.EquippedWeapon = &w
		}},
		{name: "checksum", tamper: func(s *scoundrel.State) { s.StateChecksum = strings.Repeat("0", 64) }},
		{name: "missing checksum", tamper: func(s *scoundrel.State) { s.StateChecksum = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base.Clone()
			tt.tamper(&s)

			err := c.Verify(s)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, integrity.CodeViolation)
		})
	}
}

func TestChecksummer_KeyMatters(t *testing.T) {
	s := freshState(t)

	a, err := integrity.New([]byte("one")).Compute(s)
	require.NoError(t, err)
	b, err := integrity.New([]byte("two")).Compute(s)
	require.NoError(t, err)
	plain, err := integrity.New(nil).Compute(s)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, plain)

	stamped, err := integrity.New([]byte("one")).Stamp(s)
	require.NoError(t, err)
	assert.Error(t, integrity.New([]byte("two")).Verify(stamped))
}

func TestChecksummer_LongKey(t *testing.T) {
	c := integrity.New([]byte(strings.Repeat("k", 200)))

	s, err := c.Stamp(freshState(t))
	require.NoError(t, err)
	assert.NoError(t, c.Verify(s))
}

func TestChecksummer_IgnoresStoredChecksum(t *testing.T) {
	c := integrity.New(nil)
	s := freshState(t)

	first, err := c.Compute(s)
	require.NoError(t, err)
	s.StateChecksum = "anything"
	second, err := c.Compute(s)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
