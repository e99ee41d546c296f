package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/davrodpin/scoundrel/internal/handler/health"
	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

type gamePath struct {
	ID string `path:"id"`
}

type eventsQuery struct {
	ID    string `path:"id"`
	Token string `query:"token" required:"true"`
}

type actionInput struct {
	gamePath
	ActionRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Scoundrel API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Authoritative server for the Scoundrel solitaire dungeon crawler.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of the session store.")
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws")
	getWS.SetSummary("Game socket")
	getWS.SetDescription("Upgrades to a WebSocket. Clients send create_game, join_game and game_action " +
		"messages and receive game_created, game_state, game_state_updated and error events.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// POST /api/games
	postGame, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	postGame.SetSummary("Create game")
	postGame.SetDescription("Deals a fresh dungeon and returns the session with a bearer token for it.")
	postGame.AddReqStructure(CreateGameRequest{})
	postGame.AddRespStructure(CreateGameResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postGame)

	// GET /api/games/{id}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/games/{id}")
	getGame.SetSummary("Get game")
	getGame.SetDescription("Returns the current state of a live session. Requires Bearer token.")
	getGame.AddReqStructure(gamePath{})
	getGame.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusGone))
	_ = r.AddOperation(getGame)

	// POST /api/games/{id}/actions
	postAction, _ := r.NewOperationContext(http.MethodPost, "/api/games/{id}/actions")
	postAction.SetSummary("Play action")
	postAction.SetDescription("Validates and applies one move. The sequence must follow the last accepted " +
		"action and the timestamp must be close to server time. Requires Bearer token.")
	postAction.AddReqStructure(actionInput{})
	postAction.AddRespStructure(scoundrel.State{}, openapi.WithHTTPStatus(http.StatusOK))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusGone))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postAction)

	// GET /api/games/{id}/history
	getHistory, _ := r.NewOperationContext(http.MethodGet, "/api/games/{id}/history")
	getHistory.SetSummary("Action history")
	getHistory.SetDescription("Lists the accepted actions of a live session, oldest first. Requires Bearer token.")
	getHistory.AddReqStructure(gamePath{})
	getHistory.AddRespStructure(HistoryResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHistory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	getHistory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getHistory)

	// GET /api/games/{id}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{id}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of state changes. Pass token as query parameter.")
	getEvents.AddReqStructure(eventsQuery{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
