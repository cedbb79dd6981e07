package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/ledger"
	"ledger/internal/middleware"
	"ledger/internal/money"

	"github.com/go-chi/chi/v5"
)

type createAccountRequest struct {
	Type string `json:"type"`
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	account, err := h.engine.CreateAccount(r.Context(), ownerID, req.Type)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAccountType) {
			respondError(w, http.StatusBadRequest, "invalid_account_type")
			return
		}
		writeEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, accountJSON(account))
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accounts, err := h.engine.ListAccounts(r.Context(), ownerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	normalized := make([]map[string]any, 0, len(accounts))
	for _, account := range accounts {
		normalized = append(normalized, accountJSON(account))
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID := chi.URLParam(r, "id")
	account, err := h.engine.GetAccount(r.Context(), ownerID, accountID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"account_id":     account.ID,
		"account_number": account.AccountNumber,
		"balance":        money.FormatMinor(account.Balance),
	})
}
