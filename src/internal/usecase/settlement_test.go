package usecase

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/repository"
	"wallet-service/src/pkg/log"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingEntry(t *testing.T, ledgers *memLedgerStore, ownerID, direction string, amount int64) *entity.LedgerEntry {
	t.Helper()
	entry := &entity.LedgerEntry{
		ID:                uuid.NewString(),
		OwnerID:           ownerID,
		Direction:         direction,
		Amount:            amount,
		Category:          entity.CategoryAirtime,
		ExternalReference: uuid.NewString(),
		IdempotencyKey:    sql.NullString{String: uuid.NewString(), Valid: true},
		Status:            entity.StatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, ledgers.CreateEntry(context.Background(), entry))
	return entry
}

func TestSettleSuccessAppliesDeltaExactlyOnce(t *testing.T) {
	wallets := newMemWalletStore()
	ledgers := newMemLedgerStore()
	wallets.seed("user-1", 100_000)
	entry := pendingEntry(t, ledgers, "user-1", entity.DirectionDebit, 30_000)

	balance, err := settleSuccess(context.Background(), log.GetLogger(), wallets, ledgers, entry)
	require.NoError(t, err)
	assert.Equal(t, int64(70_000), balance)
	assert.Equal(t, entity.StatusSuccess, entry.Status)

	// the same call again, as a crashed-then-repaired settlement would make
	balance, err = settleSuccess(context.Background(), log.GetLogger(), wallets, ledgers, entry)
	require.NoError(t, err)
	assert.Equal(t, int64(70_000), balance)
	assert.Equal(t, int64(70_000), wallets.balance("user-1"))
}

func TestSettleSuccessInsufficientMarksEntryFailed(t *testing.T) {
	wallets := newMemWalletStore()
	ledgers := newMemLedgerStore()
	wallets.seed("user-1", 10_000)
	entry := pendingEntry(t, ledgers, "user-1", entity.DirectionDebit, 30_000)

	_, err := settleSuccess(context.Background(), log.GetLogger(), wallets, ledgers, entry)

	require.ErrorIs(t, err, repository.ErrInsufficientFunds)
	assert.Equal(t, int64(10_000), wallets.balance("user-1"))
	assert.Equal(t, entity.StatusFailed, ledgers.get(entry.ID).Status)
}

func TestTerminalEntriesNeverMoveBackward(t *testing.T) {
	wallets := newMemWalletStore()
	ledgers := newMemLedgerStore()
	wallets.seed("user-1", 100_000)

	settled := pendingEntry(t, ledgers, "user-1", entity.DirectionDebit, 20_000)
	_, err := settleSuccess(context.Background(), log.GetLogger(), wallets, ledgers, settled)
	require.NoError(t, err)

	// a late failure report must not demote a settled entry
	require.NoError(t, settleFailed(context.Background(), log.GetLogger(), ledgers, settled, "late provider failure"))
	assert.Equal(t, entity.StatusSuccess, ledgers.get(settled.ID).Status)

	failed := pendingEntry(t, ledgers, "user-1", entity.DirectionDebit, 20_000)
	require.NoError(t, settleFailed(context.Background(), log.GetLogger(), ledgers, failed, "rejected"))

	// and a late success must not resurrect a failed entry or debit for it
	_, err = settleSuccess(context.Background(), log.GetLogger(), wallets, ledgers, ledgers.get(failed.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, ledgers.get(failed.ID).Status)
	assert.Equal(t, int64(80_000), wallets.balance("user-1"))
}

func TestSettleFailedRecordsReason(t *testing.T) {
	wallets := newMemWalletStore()
	ledgers := newMemLedgerStore()
	wallets.seed("user-1", 100_000)
	entry := pendingEntry(t, ledgers, "user-1", entity.DirectionDebit, 20_000)

	require.NoError(t, settleFailed(context.Background(), log.GetLogger(), ledgers, entry, "TRANSACTION FAILED"))

	stored := ledgers.get(entry.ID)
	assert.Equal(t, entity.StatusFailed, stored.Status)
	assert.Equal(t, "TRANSACTION FAILED", stored.FailureReason.String)
	assert.NotNil(t, stored.SettledAt)
	assert.Equal(t, int64(100_000), wallets.balance("user-1"))
}
