package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// requireSession rejects requests whose bearer token was not issued for the
// {id} in the path.
func (a *API) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := a.tokens.Authorize(bearerToken(r), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, errWrongSession):
			writeError(w, http.StatusForbidden, "Token does not grant access to this game", CodeForbidden)
			return
		case err != nil:
			writeError(w, http.StatusUnauthorized, "Missing or invalid token", CodeUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
