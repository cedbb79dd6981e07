package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ledger/internal/ledger"
	"ledger/internal/middleware"

	"github.com/go-chi/chi/v5"
)

type movementRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	entryID, err := h.engine.Deposit(r.Context(), ownerID, req.AccountID, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"transaction_id": entryID})
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	entryID, err := h.engine.Withdraw(r.Context(), ownerID, req.AccountID, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"transaction_id": entryID})
}

type transferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	outEntryID, inEntryID, err := h.engine.Transfer(r.Context(), ownerID, req.FromAccountID, req.ToAccountID, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"debit_transaction_id":  outEntryID,
		"credit_transaction_id": inEntryID,
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID := chi.URLParam(r, "id")
	limit := parseInt(r.URL.Query().Get("limit"), 0)
	entries, err := h.engine.History(r.Context(), ownerID, accountID, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	normalized := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		normalized = append(normalized, entryJSON(entry))
	}
	respondJSON(w, http.StatusOK, normalized)
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case errors.Is(err, ledger.ErrInvalidAccountType):
		respondError(w, http.StatusBadRequest, "invalid_account_type")
	case errors.Is(err, ledger.ErrSameAccountTransfer):
		respondError(w, http.StatusBadRequest, "same_account_transfer")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		respondError(w, http.StatusBadRequest, "insufficient_funds")
	case errors.Is(err, ledger.ErrAccountNotFound):
		respondError(w, http.StatusNotFound, "account_not_found")
	case errors.Is(err, ledger.ErrStorageExhausted):
		respondError(w, http.StatusServiceUnavailable, "temporarily_unavailable")
	default:
		respondError(w, http.StatusInternalServerError, "operation_failed")
	}
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
