package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/davrodpin/scoundrel/internal/errutil"
	"github.com/davrodpin/scoundrel/internal/integrity"
	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

type Config struct {
	SessionTimeout time.Duration
	StoreTimeout   time.Duration
	Security       SecurityConfig
}

func DefaultConfig() Config {
	return Config{
		SessionTimeout: 30 * time.Minute,
		StoreTimeout:   5 * time.Second,
		Security:       DefaultSecurityConfig(),
	}
}

// Manager owns the lifecycle of game sessions. At most one action per
// session is in flight at any time; different sessions proceed in parallel.
type Manager struct {
	cfg      Config
	store    Store
	history  HistoryStore
	checksum *integrity.Checksummer
	security *Security
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
	rng      func() scoundrel.RNG
	locks    *keyedMutex
}

type Option func(*Manager)

// WithClock overrides the wall clock used for expiry, rate limiting and
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRNG overrides the shuffle source used for new games.
func WithRNG(rng func() scoundrel.RNG) Option {
	return func(m *Manager) { m.rng = rng }
}

// NewManager wires a Manager over store. If store also implements
// HistoryStore, accepted actions are logged there.
func NewManager(store Store, checksum *integrity.Checksummer, cfg Config, logger *slog.Logger, metrics *Metrics, opts ...Option) *Manager {
	d := DefaultConfig()
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = d.SessionTimeout
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = d.StoreTimeout
	}

	m := &Manager{
		cfg:      cfg,
		store:    store,
		checksum: checksum,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		rng:      scoundrel.NewRNG,
		locks:    newKeyedMutex(),
	}
	if h, ok := store.(HistoryStore); ok {
		m.history = h
	}
	for _, opt := range opts {
		opt(m)
	}
	m.security = NewSecurity(cfg.Security, checksum, m.now)
	return m
}

// CreateGame starts a new run for playerID on a freshly shuffled deck.
func (m *Manager) CreateGame(ctx context.Context, playerID string) (Session, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return Session{}, ErrInvalidRequest("playerId is required")
	}

	st, err := m.checksum.Stamp(scoundrel.NewState(scoundrel.NewDeck(m.rng())))
	if err != nil {
		return Session{}, oops.With("operation", "stamp new state").Wrap(err)
	}

	now := m.now()
	sess := Session{
		PlayerID:      playerID,
		State:         st,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	id, err := m.store.Create(sctx, sess)
	if err != nil {
		return Session{}, StoreError("create", "", err)
	}
	sess.ID = id

	m.metrics.SessionsCreated.Inc()
	m.logger.Info("game created", "session_id", id, "player_id", playerID)
	return sess, nil
}

// GetGame loads a session. Expired sessions are deleted and reported as not
// found; sessions failing their checksum are deleted and reported as an
// integrity violation.
func (m *Manager) GetGame(ctx context.Context, id string) (Session, error) {
	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		return Session{}, StoreError("lock", id, err)
	}
	defer unlock()
	return m.load(ctx, id)
}

// HandleAction screens a against the session's security bookkeeping and the
// game rules, applies it and persists the result. A rejected action or a
// failed save leaves the stored session untouched.
func (m *Manager) HandleAction(ctx context.Context, id string, a scoundrel.Action) (sess Session, err error) {
	start := time.Now()
	defer func() {
		m.metrics.ActionDuration.Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = strings.ToLower(ErrorCode(err))
			if result == "" {
				result = "error"
			}
		}
		m.metrics.ActionsTotal.WithLabelValues(actionLabel(a.Type), result).Inc()
	}()

	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		return Session{}, StoreError("lock", id, err)
	}
	defer unlock()

	prev, err := m.load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if err := m.security.Check(prev, a); err != nil {
		m.logger.Warn("action rejected", "session_id", id, "type", a.Type, "code", ErrorCode(err))
		return Session{}, err
	}
	if err := scoundrel.Validate(prev.State, a); err != nil {
		m.logger.Debug("illegal action", "session_id", id, "type", a.Type, "reason", PublicMessage(err))
		return Session{}, err
	}

	st := scoundrel.Settle(scoundrel.Apply(prev.State, a))
	st, err = m.security.Stamp(st, a)
	if err != nil {
		return Session{}, oops.With("operation", "stamp state").With("session_id", id).Wrap(err)
	}

	next := m.security.RecordAction(prev)
	next.State = st
	next.LastUpdatedAt = m.now()

	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	if err := m.store.Save(sctx, next); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrSessionNotFound(id)
		}
		return Session{}, StoreError("save", id, err)
	}

	m.record(ctx, prev, next, a)
	if st.GameOver {
		m.metrics.GamesFinished.Inc()
		m.logger.Info("game over", "session_id", id, "score", st.Score, "actions", next.ActionCount)
	}
	return next, nil
}

// History returns the accepted actions of a live session, oldest first.
func (m *Manager) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	if _, err := m.GetGame(ctx, id); err != nil {
		return nil, err
	}
	if m.history == nil {
		return []HistoryEntry{}, nil
	}

	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	entries, err := m.history.History(sctx, id)
	if err != nil {
		return nil, StoreError("history", id, err)
	}
	return entries, nil
}

// RunSweeper deletes idle sessions every interval until ctx is done. It
// returns immediately when the store cannot sweep or interval is zero.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) error {
	sw, ok := m.store.(Sweeper)
	if !ok || interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.sweep(ctx, sw)
		}
	}
}

func (m *Manager) sweep(ctx context.Context, sw Sweeper) {
	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()

	n, err := sw.DeleteExpired(sctx, m.now().Add(-m.cfg.SessionTimeout))
	if err != nil {
		errutil.LogError(m.logger, "sweeping expired sessions", StoreError("sweep", "", err))
		return
	}
	if n > 0 {
		m.metrics.SessionsExpired.Add(float64(n))
		m.logger.Info("swept expired sessions", "count", n)
	}
}

func (m *Manager) load(ctx context.Context, id string) (Session, error) {
	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()

	sess, err := m.store.Load(sctx, id)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrSessionNotFound(id)
	}
	if err != nil {
		return Session{}, StoreError("load", id, err)
	}

	if sess.Expired(m.now(), m.cfg.SessionTimeout) {
		m.discard(ctx, id)
		m.metrics.SessionsExpired.Inc()
		m.logger.Info("session expired", "session_id", id)
		return Session{}, ErrSessionNotFound(id)
	}

	if err := m.security.Verify(sess.State); err != nil {
		m.discard(ctx, id)
		m.metrics.IntegrityViolations.Inc()
		verr := ErrIntegrityViolation(id, err)
		errutil.LogError(m.logger, "destroying tampered session", verr)
		return Session{}, verr
	}
	return sess, nil
}

func (m *Manager) discard(ctx context.Context, id string) {
	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	if err := m.store.Delete(sctx, id); err != nil {
		errutil.LogError(m.logger, "deleting session", StoreError("delete", id, err))
	}
}

// record appends the history entry for an accepted action. Failures are
// logged and counted but never undo the action.
func (m *Manager) record(ctx context.Context, prev, next Session, a scoundrel.Action) {
	if m.history == nil {
		return
	}

	now := m.now()
	e := HistoryEntry{
		ID:         newEntryID(now),
		SessionID:  next.ID,
		Sequence:   a.Sequence,
		Action:     a,
		DrawnCards: drawn(prev.State, next.State),
		Health:     next.State.Health,
		GameOver:   next.State.GameOver,
		Score:      next.State.Score,
		CreatedAt:  now,
	}

	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	if err := m.history.AppendHistory(sctx, e); err != nil {
		m.metrics.HistoryFailures.Inc()
		errutil.LogError(m.logger, "appending history", StoreError("append history", next.ID, err))
	}
}

// drawn returns the cards taken off the top of the dungeon between prev and
// next.
func drawn(prev, next scoundrel.State) scoundrel.Cards {
	n := len(prev.Dungeon) - len(next.Dungeon)
	if n <= 0 {
		return nil
	}
	return prev.Dungeon[:n].Clone()
}
