package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/pkg/databases/mysql"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

const applyDeltaAttempts = 3

type WalletRepository struct {
	DB mysql.DBInterface
}

func NewWalletRepository(db mysql.DBInterface) *WalletRepository {
	return &WalletRepository{
		DB: db,
	}
}

func (r *WalletRepository) FindAccount(ctx context.Context, userID string) (*entity.WalletAccount, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var account entity.WalletAccount
	query := `
		SELECT user_id, balance, version, currency, pin_hash, created_at, updated_at
		FROM wallet_accounts
		WHERE user_id = ?
	`
	err = db.GetContext(ctx, &account, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *WalletRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	account, err := r.FindAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// ApplyDelta is the single balance mutation primitive. One SQL transaction
// inserts the per-entry mutation row (unique entry_id) and performs a
// version-guarded conditional update; it never computes the new balance from
// a stale read outside the guard.
func (r *WalletRepository) ApplyDelta(ctx context.Context, userID string, delta int64, entryID string) (int64, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < applyDeltaAttempts; attempt++ {
		newBalance, err := r.tryApplyDelta(ctx, db, userID, delta, entryID)
		if errors.Is(err, ErrConcurrencyConflict) {
			continue
		}
		return newBalance, err
	}

	return 0, ErrConcurrencyConflict
}

func (r *WalletRepository) tryApplyDelta(ctx context.Context, db *sqlx.DB, userID string, delta int64, entryID string) (int64, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var account entity.WalletAccount
	err = tx.GetContext(ctx, &account,
		`SELECT user_id, balance, version FROM wallet_accounts WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}

	newBalance := account.Balance + delta
	if newBalance < 0 {
		return 0, ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO wallet_mutations (entry_id, owner_id, delta, balance_after, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entryID, userID, delta, newBalance, time.Now().UTC())
	if isDuplicateKeyError(err) {
		var applied entity.WalletMutation
		if dupErr := db.GetContext(ctx, &applied,
			`SELECT entry_id, owner_id, delta, balance_after, created_at FROM wallet_mutations WHERE entry_id = ?`,
			entryID); dupErr == nil {
			return applied.BalanceAfter, ErrAlreadyApplied
		}
		return 0, ErrAlreadyApplied
	}
	if err != nil {
		return 0, err
	}

	// The version predicate makes this a compare-and-swap; the balance
	// predicate re-enforces the non-negative invariant server side.
	res, err := tx.ExecContext(ctx,
		`UPDATE wallet_accounts
		 SET balance = balance + ?, version = version + 1, updated_at = ?
		 WHERE user_id = ? AND version = ? AND balance + ? >= 0`,
		delta, time.Now().UTC(), userID, account.Version, delta)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrConcurrencyConflict
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return newBalance, nil
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
