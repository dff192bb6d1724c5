package entity

import (
	"database/sql"
	"time"
)

const (
	DirectionDebit  = "DEBIT"
	DirectionCredit = "CREDIT"

	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

const (
	CategoryAirtime     = "airtime"
	CategoryData        = "data"
	CategoryElectricity = "electricity"
	CategoryHotel       = "hotel"
	CategoryFood        = "food"
	CategoryLaundry     = "laundry"
	CategoryLogistics   = "logistics"
	CategoryShop        = "shop"
	CategoryTopUp       = "topup"
)

// LedgerEntry is the auditable record of one attempted balance-affecting
// action. It is written PENDING before any provider call and only moves
// forward: PENDING -> SUCCESS or PENDING -> FAILED.
type LedgerEntry struct {
	ID                string         `db:"id"`
	OwnerID           string         `db:"owner_id"`
	Direction         string         `db:"direction"`
	Amount            int64          `db:"amount"`
	Category          string         `db:"category"`
	Description       string         `db:"description"`
	ExternalReference string         `db:"external_reference"`
	IdempotencyKey    sql.NullString `db:"idempotency_key"`
	Status            string         `db:"status"`
	FailureReason     sql.NullString `db:"failure_reason"`
	CreatedAt         time.Time      `db:"created_at"`
	SettledAt         *time.Time     `db:"settled_at"`
}

func (e *LedgerEntry) IsTerminal() bool {
	return e.Status == StatusSuccess || e.Status == StatusFailed
}

// SignedAmount is the delta ApplyDelta receives for this entry.
func (e *LedgerEntry) SignedAmount() int64 {
	if e.Direction == DirectionDebit {
		return -e.Amount
	}
	return e.Amount
}
