package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

// Mount registers the game routes, the websocket endpoint and the API docs.
func (a *API) Mount(r chi.Router) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Scoundrel API", "/openapi.json", "/docs"))
	r.Get("/ws", a.handleSocket)

	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", a.handleCreateGame)
		r.Get("/{id}/events", a.handleEvents)

		// Everything else needs the bearer token issued with the game.
		r.Group(func(r chi.Router) {
			r.Use(a.requireSession)
			r.Get("/{id}", a.handleGetGame)
			r.Post("/{id}/actions", a.handleAction)
			r.Get("/{id}/history", a.handleHistory)
		})
	})
}
