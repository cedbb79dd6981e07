package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	TypeChecking = "checking"
	TypeSavings  = "savings"
)

// ErrNumberSpaceExhausted is returned when account-number generation keeps
// colliding past the retry budget.
var ErrNumberSpaceExhausted = errors.New("account number space exhausted")

const numberAttempts = 5

type AccountStore struct {
	db DB
}

type Account struct {
	ID            string    `db:"id"`
	OwnerID       string    `db:"owner_id"`
	AccountNumber string    `db:"account_number"`
	Type          string    `db:"type"`
	Balance       int64     `db:"balance"`
	CreatedAt     time.Time `db:"created_at"`
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

// CreateAccount inserts a new account with a zero balance and a freshly
// generated account number, regenerating on collision. Each attempt is a
// single statement so a unique violation never poisons an enclosing
// transaction.
func (s *AccountStore) CreateAccount(ctx context.Context, ownerID, accountType string) (Account, error) {
	query := `
		INSERT INTO accounts (id, owner_id, account_number, type, balance)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id, owner_id, account_number, type, balance, created_at
	`
	for attempt := 1; attempt <= numberAttempts; attempt++ {
		var row Account
		err := s.db.GetContext(ctx, &row, query, uuid.NewString(), ownerID, newAccountNumber(), accountType)
		if err == nil {
			return row, nil
		}
		if isAccountNumberCollision(err) {
			continue
		}
		return Account{}, err
	}
	return Account{}, ErrNumberSpaceExhausted
}

// GetByOwner returns the owner's accounts ordered by creation time.
func (s *AccountStore) GetByOwner(ctx context.Context, ownerID string) ([]Account, error) {
	var rows []Account
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, owner_id, account_number, type, balance, created_at
		FROM accounts
		WHERE owner_id = $1
		ORDER BY created_at, id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetForOwner looks an account up scoped to its owner. A foreign account and
// a missing one both surface as sql.ErrNoRows so existence never leaks.
func (s *AccountStore) GetForOwner(ctx context.Context, accountID, ownerID string) (Account, error) {
	var row Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, owner_id, account_number, type, balance, created_at
		FROM accounts
		WHERE id = $1 AND owner_id = $2
	`, accountID, ownerID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

// GetForOwnerForUpdate is GetForOwner with a row lock, for use inside the
// caller's transaction.
func (s *AccountStore) GetForOwnerForUpdate(ctx context.Context, tx Getter, accountID, ownerID string) (Account, error) {
	var row Account
	err := tx.GetContext(ctx, &row, `
		SELECT id, owner_id, account_number, type, balance, created_at
		FROM accounts
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`, accountID, ownerID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

// AdjustBalance applies balance += delta in one conditional statement. The
// check and the write are never separated: if the resulting balance would
// drop below minBalance no row is touched and false is returned.
func (s *AccountStore) AdjustBalance(ctx context.Context, tx Execer, accountID string, delta, minBalance int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2 AND balance + $1 >= $3
	`, delta, accountID, minBalance)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func newAccountNumber() string {
	return fmt.Sprintf("%012d", rand.Int63n(1_000_000_000_000))
}

func isAccountNumberCollision(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// 23505 unique_violation on the account_number constraint
	return pqErr.Code == "23505" && pqErr.Constraint == "accounts_account_number_key"
}
