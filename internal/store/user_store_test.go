package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestUserCreateInsertsRow(t *testing.T) {
	var gotArgs []any
	tx := &stubTx{
		execFn: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO users") {
				t.Fatalf("unexpected query: %s", query)
			}
			gotArgs = args
			return stubResult{rows: 1}, nil
		},
	}

	store := NewUserStore(&stubDB{})
	if err := store.Create(context.Background(), tx, "user-1", "alice", "alice@example.com", "hash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotArgs[0] != "user-1" || gotArgs[2] != "alice@example.com" {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
}

func TestGetByEmail(t *testing.T) {
	db := &stubDB{
		getFn: func(ctx context.Context, dest any, query string, args ...any) error {
			if args[0] != "alice@example.com" {
				t.Fatalf("unexpected args: %v", args)
			}
			row := dest.(*User)
			row.ID = "user-1"
			row.Email = "alice@example.com"
			return nil
		},
	}

	store := NewUserStore(db)
	user, err := store.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}
