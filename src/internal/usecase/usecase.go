package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/repository"
	"wallet-service/src/pkg/log"

	"github.com/hibiken/asynq"
)

// SecureActionGate is the capability check run before any balance-mutating
// action. It gates execution only; ledger correctness never depends on it.
type SecureActionGate interface {
	Authorize(ctx context.Context, userID, actionToken string) error
}

// DedupLocker is the fast-path duplicate-submission window. The unique
// idempotency key on the ledger remains the authoritative check.
type DedupLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

const (
	TypeReconcileEntry = "wallet:reconcile-entry"
	TypeSweepPending   = "wallet:sweep-pending"
)

type ReconcileEntryPayload struct {
	EntryID string `json:"entry_id"`
}

func NewReconcileEntryTask(entryID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReconcileEntryPayload{EntryID: entryID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReconcileEntry, payload), nil
}

func NewSweepPendingTask() *asynq.Task {
	return asynq.NewTask(TypeSweepPending, nil)
}

// settleSuccess is the single path that turns a confirmed provider success
// into a balance change plus a terminal ledger status. Both the orchestrator
// and the reconciler go through it, so a purchase settles exactly once no
// matter who gets there first: the mutation journal absorbs duplicate
// ApplyDelta calls and the conditional status transition absorbs duplicate
// transitions.
func settleSuccess(ctx context.Context, logger log.Log, wallets repository.WalletStore, ledgers repository.LedgerStore, entry *entity.LedgerEntry) (int64, error) {
	if entry.IsTerminal() {
		return wallets.GetBalance(ctx, entry.OwnerID)
	}

	newBalance, err := wallets.ApplyDelta(ctx, entry.OwnerID, entry.SignedAmount(), entry.ID)
	if errors.Is(err, repository.ErrAlreadyApplied) {
		err = nil
	}
	if errors.Is(err, repository.ErrInsufficientFunds) {
		// The provider delivered but the wallet cannot cover it: the
		// advisory check raced another purchase. Mark the entry failed
		// and flag loudly; this needs manual remediation.
		logger.Error("wallet-settlement",
			fmt.Sprintf("delivered purchase %s cannot be debited: insufficient funds", entry.ID),
			"settleSuccess", entry.OwnerID)
		_, _ = ledgers.UpdateEntryStatus(ctx, entry.ID, entity.StatusPending, entity.StatusFailed,
			"insufficient funds at settlement", time.Now().UTC())
		return 0, err
	}
	if err != nil {
		return 0, err
	}

	settledAt := time.Now().UTC()
	ok, err := ledgers.UpdateEntryStatus(ctx, entry.ID, entity.StatusPending, entity.StatusSuccess, "", settledAt)
	if err != nil {
		return newBalance, err
	}
	if !ok {
		// A concurrent settler already moved the entry; the delta above
		// was a no-op thanks to the mutation journal.
		logger.Info("wallet-settlement", fmt.Sprintf("entry %s already settled elsewhere", entry.ID), "settleSuccess", entry.OwnerID)
	}

	entry.Status = entity.StatusSuccess
	entry.SettledAt = &settledAt
	return newBalance, nil
}

func settleFailed(ctx context.Context, logger log.Log, ledgers repository.LedgerStore, entry *entity.LedgerEntry, reason string) error {
	settledAt := time.Now().UTC()
	ok, err := ledgers.UpdateEntryStatus(ctx, entry.ID, entity.StatusPending, entity.StatusFailed, reason, settledAt)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info("wallet-settlement", fmt.Sprintf("entry %s no longer pending, skip fail transition", entry.ID), "settleFailed", entry.OwnerID)
		return nil
	}

	entry.Status = entity.StatusFailed
	entry.FailureReason.String = reason
	entry.FailureReason.Valid = reason != ""
	entry.SettledAt = &settledAt
	return nil
}
