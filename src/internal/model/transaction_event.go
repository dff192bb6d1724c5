package model

import "time"

// TransactionEvent is published when a ledger entry reaches a terminal
// state. Consumers (notification service, app balance subscription) treat it
// as a change signal, never as the balance source of truth.
type TransactionEvent struct {
	EventID   string     `json:"event_id"`
	EntryID   string     `json:"entry_id"`
	OwnerID   string     `json:"owner_id"`
	Direction string     `json:"direction"`
	Category  string     `json:"category"`
	Amount    int64      `json:"amount"`
	Status    string     `json:"status"`
	Reference string     `json:"reference"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

func (e *TransactionEvent) GetId() string {
	return e.EventID
}

// ReconciliationEvent surfaces an entry the reconciler could not resolve;
// it feeds the human-facing reconciliation view.
type ReconciliationEvent struct {
	EventID   string `json:"event_id"`
	EntryID   string `json:"entry_id"`
	OwnerID   string `json:"owner_id"`
	Reference string `json:"reference"`
	Category  string `json:"category"`
	AgeSecs   int64  `json:"age_seconds"`
}

func (e *ReconciliationEvent) GetId() string {
	return e.EventID
}
