package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/davrodpin/scoundrel/internal/game"
	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

// GameService is the session manager as seen by the transports.
type GameService interface {
	CreateGame(ctx context.Context, playerID string) (game.Session, error)
	GetGame(ctx context.Context, id string) (game.Session, error)
	HandleAction(ctx context.Context, id string, a scoundrel.Action) (game.Session, error)
	History(ctx context.Context, id string) ([]game.HistoryEntry, error)
}

// API serves the game over JSON, SSE and websocket.
type API struct {
	games  GameService
	tokens *Tokens
	broker *Broker
	logger *slog.Logger
}

func NewAPI(games GameService, tokens *Tokens, broker *Broker, logger *slog.Logger) *API {
	return &API{games: games, tokens: tokens, broker: broker, logger: logger}
}

// CreateGameRequest starts a run.
type CreateGameRequest struct {
	PlayerID string `json:"playerId" required:"true"`
}

// CreateGameResponse carries the new session and the token that unlocks it.
type CreateGameResponse struct {
	SessionID string          `json:"sessionId"`
	Token     string          `json:"token"`
	GameState scoundrel.State `json:"gameState"`
}

// GameResponse describes a live session.
type GameResponse struct {
	SessionID     string          `json:"sessionId"`
	PlayerID      string          `json:"playerId"`
	GameState     scoundrel.State `json:"gameState"`
	ActionCount   int             `json:"actionCount"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// ActionRequest is one player move. SessionID is optional on HTTP, where the
// path already names the session.
type ActionRequest struct {
	SessionID string           `json:"sessionId,omitempty"`
	Action    scoundrel.Action `json:"action" required:"true"`
}

// HistoryResponse lists the accepted actions of a session.
type HistoryResponse struct {
	Entries []game.HistoryEntry `json:"entries"`
}

func gameResponse(s game.Session) GameResponse {
	return GameResponse{
		SessionID:     s.ID,
		PlayerID:      s.PlayerID,
		GameState:     s.State,
		ActionCount:   s.ActionCount,
		CreatedAt:     s.CreatedAt,
		LastUpdatedAt: s.LastUpdatedAt,
	}
}
