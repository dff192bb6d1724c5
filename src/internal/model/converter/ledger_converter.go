package converter

import (
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/model"

	"github.com/google/uuid"
)

func EntryToOutcome(entry *entity.LedgerEntry) string {
	switch entry.Status {
	case entity.StatusSuccess:
		return model.OutcomeSuccess
	case entity.StatusFailed:
		return model.OutcomeFailed
	default:
		return model.OutcomeProcessing
	}
}

func EntryToPurchaseResponse(entry *entity.LedgerEntry, balance *int64) *model.PurchaseResponse {
	resp := &model.PurchaseResponse{
		TransactionID: entry.ID,
		Reference:     entry.ExternalReference,
		Outcome:       EntryToOutcome(entry),
		Category:      entry.Category,
		Amount:        entry.Amount,
		Balance:       balance,
		Description:   entry.Description,
	}
	if entry.FailureReason.Valid {
		resp.FailureReason = entry.FailureReason.String
	}
	return resp
}

func EntryToTopUpResponse(entry *entity.LedgerEntry, balance *int64) *model.TopUpVerifyResponse {
	return &model.TopUpVerifyResponse{
		TransactionID: entry.ID,
		Reference:     entry.ExternalReference,
		Outcome:       EntryToOutcome(entry),
		Amount:        entry.Amount,
		Balance:       balance,
	}
}

func EntriesToHistory(entries []entity.LedgerEntry) []model.TransactionHistoryItem {
	items := make([]model.TransactionHistoryItem, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		item := model.TransactionHistoryItem{
			TransactionID: entry.ID,
			Direction:     entry.Direction,
			Category:      entry.Category,
			Amount:        entry.Amount,
			Outcome:       EntryToOutcome(entry),
			Description:   entry.Description,
			Reference:     entry.ExternalReference,
			CreatedAt:     entry.CreatedAt,
			SettledAt:     entry.SettledAt,
		}
		if entry.FailureReason.Valid {
			item.FailureReason = entry.FailureReason.String
		}
		items = append(items, item)
	}
	return items
}

func EntryToEvent(entry *entity.LedgerEntry) *model.TransactionEvent {
	return &model.TransactionEvent{
		EventID:   uuid.NewString(),
		EntryID:   entry.ID,
		OwnerID:   entry.OwnerID,
		Direction: entry.Direction,
		Category:  entry.Category,
		Amount:    entry.Amount,
		Status:    entry.Status,
		Reference: entry.ExternalReference,
		SettledAt: entry.SettledAt,
	}
}

func EntryToReconciliationEvent(entry *entity.LedgerEntry, now time.Time) *model.ReconciliationEvent {
	return &model.ReconciliationEvent{
		EventID:   uuid.NewString(),
		EntryID:   entry.ID,
		OwnerID:   entry.OwnerID,
		Reference: entry.ExternalReference,
		Category:  entry.Category,
		AgeSecs:   int64(now.Sub(entry.CreatedAt).Seconds()),
	}
}
