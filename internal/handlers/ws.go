package handlers

import (
	"net/http"

	"ledger/internal/auth"
	"ledger/internal/websocket"
)

// WSBalances upgrades to a websocket pushing balance updates for the
// authenticated owner. Browsers cannot set headers on websocket requests, so
// the token rides in the query string.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
