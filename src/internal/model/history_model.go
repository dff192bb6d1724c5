package model

import "time"

type TransactionHistoryItem struct {
	TransactionID string     `json:"transactionId"`
	Direction     string     `json:"direction"`
	Category      string     `json:"category"`
	Amount        int64      `json:"amount"`
	Outcome       string     `json:"outcome"`
	Description   string     `json:"description,omitempty"`
	Reference     string     `json:"reference"`
	FailureReason string     `json:"failureReason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	SettledAt     *time.Time `json:"settledAt,omitempty"`
}
