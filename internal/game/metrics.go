package game

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

// Metrics holds the session counters exported on /metrics.
type Metrics struct {
	ActionsTotal        *prometheus.CounterVec
	ActionDuration      prometheus.Histogram
	SessionsCreated     prometheus.Counter
	SessionsExpired     prometheus.Counter
	GamesFinished       prometheus.Counter
	IntegrityViolations prometheus.Counter
	HistoryFailures     prometheus.Counter
}

// NewMetrics creates the session metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoundrel_actions_total",
				Help: "Actions handled by type and result code",
			},
			[]string{"type", "result"},
		),
		ActionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoundrel_action_duration_seconds",
			Help:    "Time spent handling one action, store round trips included",
			Buckets: prometheus.DefBuckets,
		}),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoundrel_sessions_created_total",
			Help: "Sessions started",
		}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoundrel_sessions_expired_total",
			Help: "Sessions removed after the inactivity timeout",
		}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoundrel_games_finished_total",
			Help: "Runs that reached game over",
		}),
		IntegrityViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoundrel_integrity_violations_total",
			Help: "Sessions destroyed because their stored checksum did not match",
		}),
		HistoryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoundrel_history_failures_total",
			Help: "Accepted actions whose history entry could not be written",
		}),
	}

	reg.MustRegister(
		m.ActionsTotal,
		m.ActionDuration,
		m.SessionsCreated,
		m.SessionsExpired,
		m.GamesFinished,
		m.IntegrityViolations,
		m.HistoryFailures,
	)
	return m
}

// actionLabel keeps client-chosen action types out of label values.
func actionLabel(t scoundrel.ActionType) string {
	switch t {
	case scoundrel.DrawRoom, scoundrel.AvoidRoom, scoundrel.FightMonster,
		scoundrel.UseWeapon, scoundrel.UseHealthPotion, scoundrel.EquipWeapon:
		return string(t)
	}
	return "unknown"
}
