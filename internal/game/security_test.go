package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davrodpin/scoundrel/internal/errutil"
	"github.com/davrodpin/scoundrel/internal/integrity"
	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSecurity(now time.Time) *Security {
	return NewSecurity(DefaultSecurityConfig(), integrity.New([]byte("k")), func() time.Time { return now })
}

func TestSecurity_CheckRate(t *testing.T) {
	sec := newTestSecurity(epoch)

	tests := []struct {
		name    string
		sess    Session
		wantErr bool
	}{
		{name: "new session", sess: Session{}},
		{
			name: "under budget",
			sess: Session{WindowStart: epoch.Add(-time.Second), ActionsInLastMinute: 59},
		},
		{
			name:    "budget spent inside window",
			sess:    Session{WindowStart: epoch.Add(-time.Second), ActionsInLastMinute: 60},
			wantErr: true,
		},
		{
			name: "budget spent but window elapsed",
			sess: Session{WindowStart: epoch.Add(-61 * time.Second), LastActionTime: epoch.Add(-time.Second), ActionsInLastMinute: 60},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sec.CheckRate(tt.sess)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, CodeRateLimited)
			assert.Equal(t, msgRateLimited, PublicMessage(err))
		})
	}
}

func TestSecurity_CheckTimestamp(t *testing.T) {
	sec := newTestSecurity(epoch)

	tests := []struct {
		name    string
		offset  time.Duration
		wantErr bool
	}{
		{name: "exact", offset: 0},
		{name: "slightly behind", offset: -29 * time.Second},
		{name: "slightly ahead", offset: 29 * time.Second},
		{name: "at the limit", offset: 30 * time.Second},
		{name: "stale", offset: -31 * time.Second, wantErr: true},
		{name: "future", offset: 31 * time.Second, wantErr: true},
		{name: "zero timestamp", offset: -epoch.Sub(time.UnixMilli(0)), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := scoundrel.Action{Type: scoundrel.DrawRoom, Timestamp: epoch.Add(tt.offset).UnixMilli()}
			err := sec.CheckTimestamp(a)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, CodeTimestampDrift)
		})
	}
}

func TestSecurity_CheckSequence(t *testing.T) {
	sec := newTestSecurity(epoch)
	st := scoundrel.State{LastActionSequence: 4}

	for _, seq := range []int64{0, 3, 4, 6, 100, -5} {
		err := sec.CheckSequence(st, scoundrel.Action{Sequence: seq})
		errutil.AssertErrorCode(t, err, CodeSequenceMismatch)
		errutil.AssertErrorContext(t, err, "expected", int64(5))
	}
	assert.NoError(t, sec.CheckSequence(st, scoundrel.Action{Sequence: 5}))
}

func TestSecurity_CheckOrder(t *testing.T) {
	sec := newTestSecurity(epoch)
	sess := Session{WindowStart: epoch, ActionsInLastMinute: 60}
	a := scoundrel.Action{Sequence: 99, Timestamp: 0}

	errutil.AssertErrorCode(t, sec.Check(sess, a), CodeRateLimited)

	sess.ActionsInLastMinute = 0
	errutil.AssertErrorCode(t, sec.Check(sess, a), CodeTimestampDrift)

	a.Timestamp = epoch.UnixMilli()
	errutil.AssertErrorCode(t, sec.Check(sess, a), CodeSequenceMismatch)

	a.Sequence = 1
	assert.NoError(t, sec.Check(sess, a))
}

func TestSecurity_RecordAction(t *testing.T) {
	sec := newTestSecurity(epoch)

	windowStart := epoch.Add(-30 * time.Second)
	inWindow := sec.RecordAction(Session{
		WindowStart: windowStart, LastActionTime: epoch.Add(-10 * time.Second),
		ActionsInLastMinute: 7, ActionCount: 20,
	})
	assert.Equal(t, 8, inWindow.ActionsInLastMinute)
	assert.Equal(t, 21, inWindow.ActionCount)
	assert.Equal(t, epoch, inWindow.LastActionTime)
	assert.Equal(t, windowStart, inWindow.WindowStart)

	afterWindow := sec.RecordAction(Session{
		WindowStart: epoch.Add(-2 * time.Minute), LastActionTime: epoch.Add(-time.Second),
		ActionsInLastMinute: 60, ActionCount: 60,
	})
	assert.Equal(t, 1, afterWindow.ActionsInLastMinute)
	assert.Equal(t, 61, afterWindow.ActionCount)
	assert.Equal(t, epoch, afterWindow.WindowStart)
}

// clockAt returns a Security whose clock reads *now.
func clockAt(now *time.Time) *Security {
	return NewSecurity(DefaultSecurityConfig(), integrity.New([]byte("k")), func() time.Time { return *now })
}

func TestSecurity_SteadyPaceIsNeverLimited(t *testing.T) {
	now := epoch
	sec := clockAt(&now)

	var sess Session
	for i := 1; i <= 90; i++ {
		now = now.Add(10 * time.Second)
		require.NoError(t, sec.CheckRate(sess), "action %d after %s", i, now.Sub(epoch))
		sess = sec.RecordAction(sess)
		assert.LessOrEqual(t, sess.ActionsInLastMinute, 7)
	}
	assert.Equal(t, 90, sess.ActionCount)
}

func TestSecurity_BurstIsLimitedUntilWindowEnds(t *testing.T) {
	now := epoch
	sec := clockAt(&now)

	var sess Session
	for i := 1; i <= 60; i++ {
		now = now.Add(100 * time.Millisecond)
		require.NoError(t, sec.CheckRate(sess), "action %d", i)
		sess = sec.RecordAction(sess)
	}
	windowStart := sess.WindowStart

	now = now.Add(time.Second)
	errutil.AssertErrorCode(t, sec.CheckRate(sess), CodeRateLimited)

	now = windowStart.Add(time.Minute)
	errutil.AssertErrorCode(t, sec.CheckRate(sess), CodeRateLimited)

	now = windowStart.Add(time.Minute + time.Millisecond)
	require.NoError(t, sec.CheckRate(sess))
	sess = sec.RecordAction(sess)
	assert.Equal(t, 1, sess.ActionsInLastMinute)
	assert.Equal(t, now, sess.WindowStart)
}

func TestSecurity_Stamp(t *testing.T) {
	sec := newTestSecurity(epoch)
	st := scoundrel.NewState(scoundrel.NewDeck(scoundrel.NewSeededRNG(1)))

	stamped, err := sec.Stamp(st, scoundrel.Action{Sequence: 1, Timestamp: epoch.Add(-time.Second).UnixMilli()})
	require.NoError(t, err)

	assert.Equal(t, int64(1), stamped.LastActionSequence)
	assert.Equal(t, epoch.UnixMilli(), stamped.LastActionTimestamp)
	assert.NotEmpty(t, stamped.StateChecksum)
	assert.NoError(t, sec.Verify(stamped))

	stamped.Health--
	errutil.AssertErrorCode(t, sec.Verify(stamped), CodeIntegrityViolation)
}
