package store

import (
	"context"
	"errors"
	"time"
)

const (
	KindDeposit     = "deposit"
	KindWithdrawal  = "withdrawal"
	KindTransferOut = "transfer_out"
	KindTransferIn  = "transfer_in"
)

// ErrNonPositiveAmount guards the append-only log: entries always record a
// strictly positive movement.
var ErrNonPositiveAmount = errors.New("entry amount must be positive")

// TransactionLog is the append-only audit record of every balance change.
// Entries are never updated or deleted.
type TransactionLog struct {
	db DB
}

type Entry struct {
	ID          int64     `db:"id"`
	AccountID   string    `db:"account_id"`
	Kind        string    `db:"kind"`
	Amount      int64     `db:"amount"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

type EntryInput struct {
	AccountID   string
	Kind        string
	Amount      int64
	Description string
}

func NewTransactionLog(db DB) *TransactionLog {
	return &TransactionLog{db: db}
}

// Append writes one entry inside the caller's transaction and returns its
// assigned id.
func (s *TransactionLog) Append(ctx context.Context, tx Tx, input EntryInput) (int64, error) {
	if input.Amount <= 0 {
		return 0, ErrNonPositiveAmount
	}
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO transactions (account_id, kind, amount, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, input.AccountID, input.Kind, input.Amount, input.Description)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// RecentForAccount returns up to limit entries, newest first.
func (s *TransactionLog) RecentForAccount(ctx context.Context, accountID string, limit int) ([]Entry, error) {
	var rows []Entry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, kind, amount, description, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
