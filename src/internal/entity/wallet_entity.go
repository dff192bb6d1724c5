package entity

import (
	"database/sql"
	"time"
)

// WalletAccount holds the user balance in kobo. Balance is only ever written
// through WalletRepository.ApplyDelta; Version is the compare-and-swap field
// guarding against lost updates.
type WalletAccount struct {
	UserID    string         `db:"user_id"`
	Balance   int64          `db:"balance"`
	Version   int64          `db:"version"`
	Currency  string         `db:"currency"`
	PinHash   sql.NullString `db:"pin_hash"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt *time.Time     `db:"updated_at"`
}

// WalletMutation is one row per applied balance delta, keyed by the ledger
// entry that caused it. The unique entry_id makes re-applying a settlement
// after a crash a detectable no-op instead of a double debit.
type WalletMutation struct {
	EntryID      string    `db:"entry_id"`
	OwnerID      string    `db:"owner_id"`
	Delta        int64     `db:"delta"`
	BalanceAfter int64     `db:"balance_after"`
	CreatedAt    time.Time `db:"created_at"`
}
