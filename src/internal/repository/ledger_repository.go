package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/pkg/databases/mysql"
)

type LedgerRepository struct {
	DB mysql.DBInterface
}

func NewLedgerRepository(db mysql.DBInterface) *LedgerRepository {
	return &LedgerRepository{
		DB: db,
	}
}

const ledgerColumns = `
	id, owner_id, direction, amount, category, description,
	external_reference, idempotency_key, status, failure_reason,
	created_at, settled_at
`

func (r *LedgerRepository) CreateEntry(ctx context.Context, entry *entity.LedgerEntry) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query,
		entry.ID,
		entry.OwnerID,
		entry.Direction,
		entry.Amount,
		entry.Category,
		entry.Description,
		entry.ExternalReference,
		entry.IdempotencyKey,
		entry.Status,
		entry.FailureReason,
		entry.CreatedAt,
		entry.SettledAt,
	)
	if isDuplicateKeyError(err) {
		return ErrDuplicateEntry
	}
	return err
}

// UpdateEntryStatus is a conditional transition: it only succeeds when the
// entry is still in fromStatus, which keeps terminal entries immutable and
// lets concurrent settlers race safely (exactly one wins).
func (r *LedgerRepository) UpdateEntryStatus(ctx context.Context, id, fromStatus, toStatus, failureReason string, settledAt time.Time) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	reason := sql.NullString{String: failureReason, Valid: failureReason != ""}
	var settled interface{}
	if !settledAt.IsZero() {
		settled = settledAt
	}

	res, err := db.ExecContext(ctx,
		`UPDATE ledger_entries
		 SET status = ?, failure_reason = ?, settled_at = ?
		 WHERE id = ? AND status = ?`,
		toStatus, reason, settled, id, fromStatus)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *LedgerRepository) FindByID(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	return r.findOne(ctx, `SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = ?`, id)
}

func (r *LedgerRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.LedgerEntry, error) {
	return r.findOne(ctx, `SELECT `+ledgerColumns+` FROM ledger_entries WHERE idempotency_key = ?`, key)
}

func (r *LedgerRepository) FindByReference(ctx context.Context, reference string) (*entity.LedgerEntry, error) {
	return r.findOne(ctx, `SELECT `+ledgerColumns+` FROM ledger_entries WHERE external_reference = ?`, reference)
}

func (r *LedgerRepository) findOne(ctx context.Context, query string, arg interface{}) (*entity.LedgerEntry, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var entry entity.LedgerEntry
	err = db.GetContext(ctx, &entry, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *LedgerRepository) ListPending(ctx context.Context, olderThan time.Time, limit int) ([]entity.LedgerEntry, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	var entries []entity.LedgerEntry
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE status = ? AND created_at < ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	err = db.SelectContext(ctx, &entries, query, entity.StatusPending, olderThan, limit)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *LedgerRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]entity.LedgerEntry, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var entries []entity.LedgerEntry
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE owner_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	err = db.SelectContext(ctx, &entries, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
