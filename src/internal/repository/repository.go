package repository

import (
	"context"
	"errors"
	"time"

	"wallet-service/src/internal/entity"
)

var (
	ErrAccountNotFound     = errors.New("wallet account not found")
	ErrEntryNotFound       = errors.New("ledger entry not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrConcurrencyConflict = errors.New("concurrent balance update conflict")
	ErrAlreadyApplied      = errors.New("delta already applied for entry")
	ErrDuplicateEntry      = errors.New("duplicate ledger entry")
)

// WalletStore is the only path allowed to read or mutate balances.
type WalletStore interface {
	FindAccount(ctx context.Context, userID string) (*entity.WalletAccount, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	// ApplyDelta atomically applies a signed amount to the balance,
	// correlated to one ledger entry. It returns the new balance,
	// ErrInsufficientFunds if a debit would take the balance below zero,
	// ErrAlreadyApplied if the same entry was settled before, or
	// ErrConcurrencyConflict after the CAS retry budget is exhausted.
	ApplyDelta(ctx context.Context, userID string, delta int64, entryID string) (int64, error)
}

// LedgerStore persists the append-only transaction log.
type LedgerStore interface {
	CreateEntry(ctx context.Context, entry *entity.LedgerEntry) error
	// UpdateEntryStatus transitions an entry from one status to another,
	// returning false when the entry was not in the expected status.
	UpdateEntryStatus(ctx context.Context, id, fromStatus, toStatus, failureReason string, settledAt time.Time) (bool, error)
	FindByID(ctx context.Context, id string) (*entity.LedgerEntry, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.LedgerEntry, error)
	FindByReference(ctx context.Context, reference string) (*entity.LedgerEntry, error)
	ListPending(ctx context.Context, olderThan time.Time, limit int) ([]entity.LedgerEntry, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]entity.LedgerEntry, error)
}
