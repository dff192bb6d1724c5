package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Purchase outcome values surfaced to the caller. A purchase is never
// reported outside these three.
const (
	OutcomeSuccess    = "success"
	OutcomeFailed     = "failed"
	OutcomeProcessing = "processing"
)

type PurchaseItem struct {
	Name     string `json:"name" validate:"required,max=200"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Price    int64  `json:"price" validate:"required,gt=0"`
}

// PurchaseRequest is the validated in-memory description of what the user
// wants to buy. It is never persisted; a LedgerEntry is derived from it only
// after validation passes.
type PurchaseRequest struct {
	UserID      string `json:"-" validate:"required,max=100"`
	ActionToken string `json:"actionToken" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=airtime data electricity hotel food laundry logistics shop"`
	Recipient   string `json:"recipient" validate:"required,max=100"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description,omitempty" validate:"max=500"`

	// Category-specific parameters.
	Network       string         `json:"network,omitempty" validate:"max=50"`
	ServiceID     string         `json:"serviceId,omitempty" validate:"max=100"`
	VariationCode string         `json:"variationCode,omitempty" validate:"max=100"`
	MeterType     string         `json:"meterType,omitempty" validate:"omitempty,oneof=prepaid postpaid"`
	StartDate     string         `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string         `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Items         []PurchaseItem `json:"items,omitempty" validate:"dive"`
}

// IdempotencyKey derives the double-tap de-duplication key: identical
// requests from the same user inside one time bucket hash to the same value.
func (r *PurchaseRequest) IdempotencyKey(window time.Duration, now time.Time) string {
	bucket := now.Truncate(window).Unix()
	h := sha256.New()
	fmt.Fprintf(h, "%s:%s:%s:%d:%d", r.UserID, r.Category, r.Recipient, r.Amount, bucket)
	return hex.EncodeToString(h.Sum(nil))
}

type PurchaseResponse struct {
	TransactionID string `json:"transactionId"`
	Reference     string `json:"reference"`
	Outcome       string `json:"outcome"`
	Category      string `json:"category"`
	Amount        int64  `json:"amount"`
	Balance       *int64 `json:"balance,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
	Description   string `json:"description,omitempty"`
}

type VerifyMeterRequest struct {
	UserID    string `json:"-" validate:"required,max=100"`
	ServiceID string `json:"serviceId" validate:"required,max=100"`
	Meter     string `json:"meter" validate:"required,numeric,min=10,max=13"`
}

type VerifyMeterResponse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type ListTransactionsRequest struct {
	UserID string `json:"-" validate:"required,max=100"`
	Limit  int    `json:"limit" validate:"gte=0,lte=100"`
	Offset int    `json:"offset" validate:"gte=0"`
}

type BalanceResponse struct {
	UserID   string `json:"userId"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}
