package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledger/internal/db"
	"ledger/internal/money"
	"ledger/internal/store"
	"ledger/internal/websocket"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidAccountType  = errors.New("invalid account type")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrSameAccountTransfer = errors.New("cannot transfer to same account")
	ErrStorageExhausted    = errors.New("could not allocate a unique account number")
	ErrStorageFailure      = errors.New("storage failure")
)

// DefaultHistoryLimit applies when a caller asks for history without a limit.
const DefaultHistoryLimit = 10

type AccountStore interface {
	CreateAccount(ctx context.Context, ownerID, accountType string) (store.Account, error)
	GetByOwner(ctx context.Context, ownerID string) ([]store.Account, error)
	GetForOwner(ctx context.Context, accountID, ownerID string) (store.Account, error)
	GetForOwnerForUpdate(ctx context.Context, tx store.Getter, accountID, ownerID string) (store.Account, error)
	AdjustBalance(ctx context.Context, tx store.Execer, accountID string, delta, minBalance int64) (bool, error)
}

type TransactionLog interface {
	Append(ctx context.Context, tx store.Tx, input store.EntryInput) (int64, error)
	RecentForAccount(ctx context.Context, accountID string, limit int) ([]store.Entry, error)
}

type BalanceHub interface {
	BroadcastBalance(ownerID string, update websocket.BalanceUpdate)
}

// Engine exposes the money-moving operations. Every mutation runs as a single
// serializable transaction: either the balance change and its log entries all
// commit, or nothing does.
type Engine struct {
	txRunner db.TxRunner
	accounts AccountStore
	log      TransactionLog
	hub      BalanceHub
}

func NewEngine(txRunner db.TxRunner, accounts AccountStore, log TransactionLog, hub BalanceHub) *Engine {
	return &Engine{
		txRunner: txRunner,
		accounts: accounts,
		log:      log,
		hub:      hub,
	}
}

func (e *Engine) CreateAccount(ctx context.Context, ownerID, accountType string) (store.Account, error) {
	if accountType != store.TypeChecking && accountType != store.TypeSavings {
		return store.Account{}, ErrInvalidAccountType
	}
	account, err := e.accounts.CreateAccount(ctx, ownerID, accountType)
	if err != nil {
		if errors.Is(err, store.ErrNumberSpaceExhausted) {
			return store.Account{}, ErrStorageExhausted
		}
		return store.Account{}, classify(err)
	}
	return account, nil
}

func (e *Engine) ListAccounts(ctx context.Context, ownerID string) ([]store.Account, error) {
	accounts, err := e.accounts.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, classify(err)
	}
	return accounts, nil
}

// GetAccount is an owner-scoped read; a foreign account is indistinguishable
// from a missing one.
func (e *Engine) GetAccount(ctx context.Context, ownerID, accountID string) (store.Account, error) {
	account, err := e.accounts.GetForOwner(ctx, accountID, ownerID)
	if err != nil {
		return store.Account{}, classify(notFoundOr(err))
	}
	return account, nil
}

func (e *Engine) Deposit(ctx context.Context, ownerID, accountID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var entryID int64
	var balanceAfter int64
	err := e.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := e.accounts.GetForOwnerForUpdate(ctx, tx, accountID, ownerID)
		if err != nil {
			return notFoundOr(err)
		}
		ok, err := e.accounts.AdjustBalance(ctx, tx, accountID, amount, 0)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("deposit update affected no rows")
		}
		balanceAfter = account.Balance + amount
		entryID, err = e.log.Append(ctx, tx, store.EntryInput{
			AccountID:   accountID,
			Kind:        store.KindDeposit,
			Amount:      amount,
			Description: "deposit",
		})
		return err
	})
	if err != nil {
		return 0, classify(err)
	}
	e.broadcast(ownerID, accountID, balanceAfter)
	return entryID, nil
}

func (e *Engine) Withdraw(ctx context.Context, ownerID, accountID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var entryID int64
	var balanceAfter int64
	err := e.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := e.accounts.GetForOwnerForUpdate(ctx, tx, accountID, ownerID)
		if err != nil {
			return notFoundOr(err)
		}
		ok, err := e.accounts.AdjustBalance(ctx, tx, accountID, -amount, 0)
		if err != nil {
			return err
		}
		if !ok {
			// Insufficient balance: abort with no mutation and no log entry.
			return ErrInsufficientFunds
		}
		balanceAfter = account.Balance - amount
		entryID, err = e.log.Append(ctx, tx, store.EntryInput{
			AccountID:   accountID,
			Kind:        store.KindWithdrawal,
			Amount:      amount,
			Description: "withdrawal",
		})
		return err
	})
	if err != nil {
		return 0, classify(err)
	}
	e.broadcast(ownerID, accountID, balanceAfter)
	return entryID, nil
}

// Transfer moves amount between two accounts of the same owner. Both legs are
// individually ownership-checked, both accounts are locked in ascending-id
// order, and the debit, credit and both log entries commit together or not at
// all, so the total across the pair is conserved.
func (e *Engine) Transfer(ctx context.Context, ownerID, fromAccountID, toAccountID string, amount int64) (int64, int64, error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if fromAccountID == toAccountID {
		return 0, 0, ErrSameAccountTransfer
	}
	var outEntryID, inEntryID int64
	var fromAfter, toAfter int64
	err := e.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		from, to, err := e.lockPair(ctx, tx, ownerID, fromAccountID, toAccountID)
		if err != nil {
			return notFoundOr(err)
		}
		ok, err := e.accounts.AdjustBalance(ctx, tx, fromAccountID, -amount, 0)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientFunds
		}
		ok, err = e.accounts.AdjustBalance(ctx, tx, toAccountID, amount, 0)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("credit update affected no rows")
		}
		outEntryID, err = e.log.Append(ctx, tx, store.EntryInput{
			AccountID:   fromAccountID,
			Kind:        store.KindTransferOut,
			Amount:      amount,
			Description: "transfer to " + to.AccountNumber,
		})
		if err != nil {
			return err
		}
		inEntryID, err = e.log.Append(ctx, tx, store.EntryInput{
			AccountID:   toAccountID,
			Kind:        store.KindTransferIn,
			Amount:      amount,
			Description: "transfer from " + from.AccountNumber,
		})
		if err != nil {
			return err
		}
		fromAfter = from.Balance - amount
		toAfter = to.Balance + amount
		return nil
	})
	if err != nil {
		return 0, 0, classify(err)
	}
	e.broadcast(ownerID, fromAccountID, fromAfter)
	e.broadcast(ownerID, toAccountID, toAfter)
	return outEntryID, inEntryID, nil
}

func (e *Engine) History(ctx context.Context, ownerID, accountID string, limit int) ([]store.Entry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if _, err := e.accounts.GetForOwner(ctx, accountID, ownerID); err != nil {
		return nil, classify(notFoundOr(err))
	}
	entries, err := e.log.RecentForAccount(ctx, accountID, limit)
	if err != nil {
		return nil, classify(err)
	}
	return entries, nil
}

// lockPair locks both accounts with owner-scoped FOR UPDATE reads in
// ascending-id order, regardless of transfer direction, so concurrent
// transfers over the same pair cannot deadlock.
func (e *Engine) lockPair(ctx context.Context, tx store.Getter, ownerID, fromID, toID string) (store.Account, store.Account, error) {
	firstID, secondID := fromID, toID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := e.accounts.GetForOwnerForUpdate(ctx, tx, firstID, ownerID)
	if err != nil {
		return store.Account{}, store.Account{}, err
	}
	second, err := e.accounts.GetForOwnerForUpdate(ctx, tx, secondID, ownerID)
	if err != nil {
		return store.Account{}, store.Account{}, err
	}
	if firstID == fromID {
		return first, second, nil
	}
	return second, first, nil
}

func (e *Engine) broadcast(ownerID, accountID string, balance int64) {
	if e.hub == nil {
		return
	}
	e.hub.BroadcastBalance(ownerID, websocket.BalanceUpdate{
		AccountID: accountID,
		Balance:   money.FormatMinor(balance),
	})
}

func notFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound
	}
	return err
}

// classify maps raw store and commit failures into the engine's error set.
// Domain errors pass through; anything else becomes ErrStorageFailure, which
// is safe to retry because the aborted unit made no partial mutation.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidAccountType),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrSameAccountTransfer),
		errors.Is(err, ErrStorageExhausted):
		return err
	case errors.Is(err, store.ErrNonPositiveAmount):
		return ErrInvalidAmount
	default:
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
}
