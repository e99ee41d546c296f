// Package game runs Scoundrel sessions: it loads a session, screens the
// incoming action for abuse, applies it through the state machine and
// persists the result.
package game

import (
	"time"

	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

// Session is one player's run together with its anti-abuse bookkeeping.
type Session struct {
	ID                  string          `json:"id"`
	PlayerID            string          `json:"playerId"`
	State               scoundrel.State `json:"state"`
	ActionCount         int             `json:"actionCount"`
	LastActionTime      time.Time       `json:"lastActionTime"`
	WindowStart         time.Time       `json:"windowStart"`
	ActionsInLastMinute int             `json:"actionsInLastMinute"`
	CreatedAt           time.Time       `json:"createdAt"`
	LastUpdatedAt       time.Time       `json:"lastUpdatedAt"`
}

// Expired reports whether the session has been idle for longer than timeout.
func (s Session) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastUpdatedAt) > timeout
}

// Clone returns a copy that shares no card slices with s.
func (s Session) Clone() Session {
	s.State = s.State.Clone()
	return s
}
