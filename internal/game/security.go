package game

import (
	"time"

	"github.com/davrodpin/scoundrel/internal/integrity"
	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

// SecurityConfig bounds how fast and how far off-clock a client may act.
type SecurityConfig struct {
	MaxActions int
	Window     time.Duration
	MaxDrift   time.Duration
}

func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxActions: 60,
		Window:     time.Minute,
		MaxDrift:   30 * time.Second,
	}
}

func (c SecurityConfig) withDefaults() SecurityConfig {
	d := DefaultSecurityConfig()
	if c.MaxActions <= 0 {
		c.MaxActions = d.MaxActions
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.MaxDrift <= 0 {
		c.MaxDrift = d.MaxDrift
	}
	return c
}

// Security screens actions from clients that can only send messages: it
// rate limits, rejects stale or future timestamps, enforces a gapless
// sequence and stamps the checksum over every accepted state.
type Security struct {
	cfg      SecurityConfig
	checksum *integrity.Checksummer
	now      func() time.Time
}

func NewSecurity(cfg SecurityConfig, checksum *integrity.Checksummer, now func() time.Time) *Security {
	if now == nil {
		now = time.Now
	}
	return &Security{cfg: cfg.withDefaults(), checksum: checksum, now: now}
}

// Check runs the rate, timestamp and sequence checks in that order.
func (s *Security) Check(sess Session, a scoundrel.Action) error {
	if err := s.CheckRate(sess); err != nil {
		return err
	}
	if err := s.CheckTimestamp(a); err != nil {
		return err
	}
	return s.CheckSequence(sess.State, a)
}

// CheckRate rejects a session that has used its budget within the current
// window. A window opens with the first action after the previous one has
// run its full length, so a steady pace below the budget is never limited.
func (s *Security) CheckRate(sess Session) error {
	if s.windowElapsed(sess) {
		return nil
	}
	if sess.ActionsInLastMinute >= s.cfg.MaxActions {
		return ErrRateLimited(sess.ActionsInLastMinute, s.cfg.MaxActions, s.cfg.Window)
	}
	return nil
}

// CheckTimestamp rejects actions stamped further than MaxDrift from the
// server clock in either direction.
func (s *Security) CheckTimestamp(a scoundrel.Action) error {
	drift := s.now().Sub(time.UnixMilli(a.Timestamp)).Abs()
	if drift > s.cfg.MaxDrift {
		return ErrTimestampDrift(drift, s.cfg.MaxDrift)
	}
	return nil
}

// CheckSequence accepts only the action that immediately follows the last
// accepted one.
func (s *Security) CheckSequence(st scoundrel.State, a scoundrel.Action) error {
	want := st.LastActionSequence + 1
	if a.Sequence != want {
		return ErrSequenceMismatch(want, a.Sequence)
	}
	return nil
}

// RecordAction returns sess with the accepted action counted.
func (s *Security) RecordAction(sess Session) Session {
	if s.windowElapsed(sess) {
		sess.WindowStart = s.now()
		sess.ActionsInLastMinute = 1
	} else {
		sess.ActionsInLastMinute++
	}
	sess.LastActionTime = s.now()
	sess.ActionCount++
	return sess
}

// Stamp records a as the last accepted action of st and recomputes the
// checksum. The recorded timestamp is server time, not a.Timestamp.
func (s *Security) Stamp(st scoundrel.State, a scoundrel.Action) (scoundrel.State, error) {
	st.LastActionSequence = a.Sequence
	st.LastActionTimestamp = s.now().UnixMilli()
	return s.checksum.Stamp(st)
}

// Verify checks the stored checksum of st.
func (s *Security) Verify(st scoundrel.State) error {
	return s.checksum.Verify(st)
}

func (s *Security) windowElapsed(sess Session) bool {
	return s.now().Sub(sess.WindowStart) > s.cfg.Window
}
