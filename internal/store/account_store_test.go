package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/lib/pq"
)

func numberCollisionErr() error {
	return &pq.Error{Code: "23505", Constraint: "accounts_account_number_key"}
}

func TestCreateAccountReturnsRow(t *testing.T) {
	var gotArgs []any
	db := &stubDB{
		getFn: func(ctx context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "INSERT INTO accounts") {
				t.Fatalf("unexpected query: %s", query)
			}
			gotArgs = args
			row := dest.(*Account)
			row.ID = args[0].(string)
			row.OwnerID = args[1].(string)
			row.AccountNumber = args[2].(string)
			row.Type = args[3].(string)
			return nil
		},
	}

	store := NewAccountStore(db)
	account, err := store.CreateAccount(context.Background(), "owner-1", TypeChecking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.OwnerID != "owner-1" || account.Type != TypeChecking {
		t.Fatalf("unexpected account: %+v", account)
	}
	if account.Balance != 0 {
		t.Fatalf("expected zero opening balance, got %d", account.Balance)
	}
	if len(gotArgs) != 4 {
		t.Fatalf("expected 4 insert args, got %d", len(gotArgs))
	}
	if number := gotArgs[2].(string); len(number) != 12 {
		t.Fatalf("expected 12-digit account number, got %q", number)
	}
}

func TestCreateAccountRetriesOnNumberCollision(t *testing.T) {
	calls := 0
	numbers := map[string]bool{}
	db := &stubDB{
		getFn: func(ctx context.Context, dest any, query string, args ...any) error {
			calls++
			numbers[args[2].(string)] = true
			if calls < 3 {
				return numberCollisionErr()
			}
			return nil
		},
	}

	store := NewAccountStore(db)
	if _, err := store.CreateAccount(context.Background(), "owner-1", TypeSavings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(numbers) != 3 {
		t.Fatalf("expected a fresh number per attempt, got %d distinct", len(numbers))
	}
}

func TestCreateAccountNumberSpaceExhausted(t *testing.T) {
	calls := 0
	db := &stubDB{
		getFn: func(ctx context.Context, dest any, query string, args ...any) error {
			calls++
			return numberCollisionErr()
		},
	}

	store := NewAccountStore(db)
	_, err := store.CreateAccount(context.Background(), "owner-1", TypeChecking)
	if !errors.Is(err, ErrNumberSpaceExhausted) {
		t.Fatalf("expected ErrNumberSpaceExhausted, got %v", err)
	}
	if calls != numberAttempts {
		t.Fatalf("expected %d attempts, got %d", numberAttempts, calls)
	}
}

func TestCreateAccountStopsOnOtherErrors(t *testing.T) {
	calls := 0
	db := &stubDB{
		getFn: func(ctx context.Context, dest any, query string, args ...any) error {
			calls++
			return errors.New("connection reset")
		},
	}

	store := NewAccountStore(db)
	if _, err := store.CreateAccount(context.Background(), "owner-1", TypeChecking); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestGetForOwnerScopesByOwner(t *testing.T) {
	db := &stubDB{
		getFn: func(ctx context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "owner_id = $2") {
				t.Fatalf("expected owner-scoped query, got: %s", query)
			}
			if args[0] != "acct-1" || args[1] != "owner-1" {
				t.Fatalf("unexpected args: %v", args)
			}
			return sql.ErrNoRows
		},
	}

	store := NewAccountStore(db)
	_, err := store.GetForOwner(context.Background(), "acct-1", "owner-1")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestGetForOwnerForUpdateLocksRow(t *testing.T) {
	tx := &stubTx{
		getFn: func(ctx context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("expected FOR UPDATE, got: %s", query)
			}
			row := dest.(*Account)
			row.ID = args[0].(string)
			row.Balance = 500
			return nil
		},
	}

	store := NewAccountStore(&stubDB{})
	account, err := store.GetForOwnerForUpdate(context.Background(), tx, "acct-1", "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 500 {
		t.Fatalf("unexpected balance: %d", account.Balance)
	}
}

func TestAdjustBalanceConditionalUpdate(t *testing.T) {
	var gotArgs []any
	tx := &stubTx{
		execFn: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "balance + $1 >= $3") {
				t.Fatalf("expected conditional update, got: %s", query)
			}
			gotArgs = args
			return stubResult{rows: 1}, nil
		},
	}

	store := NewAccountStore(&stubDB{})
	ok, err := store.AdjustBalance(context.Background(), tx, "acct-1", -250, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected update to apply")
	}
	if gotArgs[0] != int64(-250) || gotArgs[1] != "acct-1" || gotArgs[2] != int64(0) {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
}

func TestAdjustBalanceReportsNoRow(t *testing.T) {
	tx := &stubTx{
		execFn: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	}

	store := NewAccountStore(&stubDB{})
	ok, err := store.AdjustBalance(context.Background(), tx, "acct-1", -250, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no row to match")
	}
}

func TestGetByOwnerOrdersByCreation(t *testing.T) {
	db := &stubDB{
		selectFn: func(ctx context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "ORDER BY created_at, id") {
				t.Fatalf("expected deterministic ordering, got: %s", query)
			}
			rows := dest.(*[]Account)
			*rows = []Account{{ID: "a"}, {ID: "b"}}
			return nil
		},
	}

	store := NewAccountStore(db)
	accounts, err := store.GetByOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
}
