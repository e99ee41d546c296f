package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleEvents streams state changes of one session as Server-Sent Events.
// EventSource cannot set headers, so the token travels as a query parameter.
func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := a.tokens.Authorize(r.URL.Query().Get("token"), id); err != nil {
		writeError(w, http.StatusUnauthorized, "Missing or invalid token", CodeUnauthorized)
		return
	}

	sess, err := a.games.GetGame(r.Context(), id)
	if err != nil {
		writeGameError(w, a.logger, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", CodeInternal)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := a.broker.Subscribe(id)
	defer a.broker.Unsubscribe(id, ch)

	initial, _ := json.Marshal(Event{Type: EventGameState, Data: sess.State})
	writeSSE(w, EventGameState, initial)
	flusher.Flush()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-ch:
			var ev struct {
				Type string `json:"type"`
			}
			_ = json.Unmarshal(data, &ev)
			writeSSE(w, ev.Type, data)
			flusher.Flush()
			if ev.Type == EventError {
				return
			}
		case <-ping.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, data []byte) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
