package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davrodpin/scoundrel/internal/game"
	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

func (a *API) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := readJSON(w, r, &req); err != nil {
		writeGameError(w, a.logger, err)
		return
	}

	sess, err := a.games.CreateGame(r.Context(), req.PlayerID)
	if err != nil {
		writeGameError(w, a.logger, err)
		return
	}

	token, err := a.tokens.Issue(sess.PlayerID, sess.ID)
	if err != nil {
		writeGameError(w, a.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateGameResponse{
		SessionID: sess.ID,
		Token:     token,
		GameState: sess.State,
	})
}

func (a *API) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, err := a.games.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.publishFailure(chi.URLParam(r, "id"), err)
		writeGameError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse(sess))
}

func (a *API) handleAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ActionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeGameError(w, a.logger, err)
		return
	}
	if req.SessionID != "" && req.SessionID != id {
		writeGameError(w, a.logger, game.ErrInvalidRequest("sessionId does not match the game in the path"))
		return
	}

	st, err := a.act(r.Context(), id, req.Action)
	if err != nil {
		writeGameError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := a.games.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeGameError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}

// act runs one move and fans the resulting state out to every subscriber of
// the session.
func (a *API) act(ctx context.Context, id string, action scoundrel.Action) (scoundrel.State, error) {
	sess, err := a.games.HandleAction(ctx, id, action)
	if err != nil {
		a.publishFailure(id, err)
		return scoundrel.State{}, err
	}
	a.broker.Publish(id, Event{Type: EventGameStateUpdated, Data: sess.State})
	return sess.State, nil
}

// publishFailure tells subscribers when their session has been destroyed.
func (a *API) publishFailure(id string, err error) {
	if game.ErrorCode(err) != game.CodeIntegrityViolation {
		return
	}
	a.broker.Publish(id, Event{
		Type: EventError,
		Data: ErrorResponse{Message: game.PublicMessage(err), Code: game.CodeIntegrityViolation},
	})
}
