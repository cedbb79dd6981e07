package handlers

import (
	"encoding/json"
	"net/http"

	"ledger/internal/money"
	"ledger/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func accountJSON(account store.Account) map[string]any {
	return map[string]any{
		"id":             account.ID,
		"account_number": account.AccountNumber,
		"type":           account.Type,
		"balance":        money.FormatMinor(account.Balance),
		"created_at":     account.CreatedAt,
	}
}

func entryJSON(entry store.Entry) map[string]any {
	return map[string]any{
		"id":          entry.ID,
		"account_id":  entry.AccountID,
		"kind":        entry.Kind,
		"amount":      money.FormatMinor(entry.Amount),
		"description": entry.Description,
		"timestamp":   entry.CreatedAt,
	}
}
