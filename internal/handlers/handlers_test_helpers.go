package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ledger/internal/auth"
	"ledger/internal/config"
	"ledger/internal/store"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByEmailFn func(ctx context.Context, email string) (store.User, error)
	getByIDFn    func(ctx context.Context, userID string) (store.User, error)
}

func (s *stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (store.User, error) {
	if s.getByEmailFn == nil {
		return store.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s *stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubEngine struct {
	createAccountFn func(ctx context.Context, ownerID, accountType string) (store.Account, error)
	listAccountsFn  func(ctx context.Context, ownerID string) ([]store.Account, error)
	getAccountFn    func(ctx context.Context, ownerID, accountID string) (store.Account, error)
	depositFn       func(ctx context.Context, ownerID, accountID string, amount int64) (int64, error)
	withdrawFn      func(ctx context.Context, ownerID, accountID string, amount int64) (int64, error)
	transferFn      func(ctx context.Context, ownerID, fromAccountID, toAccountID string, amount int64) (int64, int64, error)
	historyFn       func(ctx context.Context, ownerID, accountID string, limit int) ([]store.Entry, error)
}

func (s *stubEngine) CreateAccount(ctx context.Context, ownerID, accountType string) (store.Account, error) {
	if s.createAccountFn == nil {
		return store.Account{}, nil
	}
	return s.createAccountFn(ctx, ownerID, accountType)
}

func (s *stubEngine) ListAccounts(ctx context.Context, ownerID string) ([]store.Account, error) {
	if s.listAccountsFn == nil {
		return nil, nil
	}
	return s.listAccountsFn(ctx, ownerID)
}

func (s *stubEngine) GetAccount(ctx context.Context, ownerID, accountID string) (store.Account, error) {
	if s.getAccountFn == nil {
		return store.Account{ID: accountID, OwnerID: ownerID}, nil
	}
	return s.getAccountFn(ctx, ownerID, accountID)
}

func (s *stubEngine) Deposit(ctx context.Context, ownerID, accountID string, amount int64) (int64, error) {
	if s.depositFn == nil {
		return 1, nil
	}
	return s.depositFn(ctx, ownerID, accountID, amount)
}

func (s *stubEngine) Withdraw(ctx context.Context, ownerID, accountID string, amount int64) (int64, error) {
	if s.withdrawFn == nil {
		return 1, nil
	}
	return s.withdrawFn(ctx, ownerID, accountID, amount)
}

func (s *stubEngine) Transfer(ctx context.Context, ownerID, fromAccountID, toAccountID string, amount int64) (int64, int64, error) {
	if s.transferFn == nil {
		return 1, 2, nil
	}
	return s.transferFn(ctx, ownerID, fromAccountID, toAccountID, amount)
}

func (s *stubEngine) History(ctx context.Context, ownerID, accountID string, limit int) ([]store.Entry, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, ownerID, accountID, limit)
}

const testSecret = "test-secret"

func newTestHandler(t *testing.T, users *stubUserStore, engine *stubEngine) *Handler {
	t.Helper()
	cfg := config.Config{
		AppEnv:         "development",
		JWTSecret:      testSecret,
		TokenTTL:       time.Hour,
		AllowedOrigins: "*",
	}
	return New(fakeTxRunner{}, cfg, users, engine, nil)
}

func authedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, "owner-1", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}
