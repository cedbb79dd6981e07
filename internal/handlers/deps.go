package handlers

import (
	"context"

	"ledger/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (store.User, error)
	GetByID(ctx context.Context, userID string) (store.User, error)
}

// LedgerEngine is the transactional core; handlers only parse input and
// render its typed results and errors.
type LedgerEngine interface {
	CreateAccount(ctx context.Context, ownerID, accountType string) (store.Account, error)
	ListAccounts(ctx context.Context, ownerID string) ([]store.Account, error)
	GetAccount(ctx context.Context, ownerID, accountID string) (store.Account, error)
	Deposit(ctx context.Context, ownerID, accountID string, amount int64) (int64, error)
	Withdraw(ctx context.Context, ownerID, accountID string, amount int64) (int64, error)
	Transfer(ctx context.Context, ownerID, fromAccountID, toAccountID string, amount int64) (int64, int64, error)
	History(ctx context.Context, ownerID, accountID string, limit int) ([]store.Entry, error)
}
