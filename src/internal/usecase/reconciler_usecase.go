package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/gateway/billing"
	"wallet-service/src/internal/gateway/collection"
	"wallet-service/src/internal/gateway/messaging"
	"wallet-service/src/internal/model/converter"
	"wallet-service/src/internal/repository"
	"wallet-service/src/pkg/log"

	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
)

// ReconcilerUseCase drives pending entries to a terminal state after the
// synchronous path could not. It re-asks the authoritative provider for each
// entry and applies the same settlement primitives the orchestrator uses, so
// a settlement raced from both sides still lands exactly once.
type ReconcilerUseCase struct {
	Log              log.Log
	WalletRepository repository.WalletStore
	LedgerRepository repository.LedgerStore
	Billing          billing.Client
	Collection       collection.Client
	Producer         *messaging.TransactionProducer
	Config           *viper.Viper
}

func NewReconcilerUseCase(
	logger log.Log,
	walletRepository repository.WalletStore,
	ledgerRepository repository.LedgerStore,
	billingClient billing.Client,
	collectionClient collection.Client,
	producer *messaging.TransactionProducer,
	cfg *viper.Viper,
) *ReconcilerUseCase {
	return &ReconcilerUseCase{
		Log:              logger,
		WalletRepository: walletRepository,
		LedgerRepository: ledgerRepository,
		Billing:          billingClient,
		Collection:       collectionClient,
		Producer:         producer,
		Config:           cfg,
	}
}

// HandleReconcileTask resolves a single entry handed off by the orchestrator.
// Returning an error makes asynq retry with backoff, which doubles as the
// requery schedule for entries the provider has not decided yet.
func (c *ReconcilerUseCase) HandleReconcileTask(ctx context.Context, task *asynq.Task) error {
	var payload ReconcileEntryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		c.Log.Error("reconciler-usecase", fmt.Sprintf("malformed reconcile payload: %v", err), "HandleReconcileTask", string(task.Payload()))
		return fmt.Errorf("unmarshal reconcile payload: %w: %v", asynq.SkipRetry, err)
	}

	entry, err := c.LedgerRepository.FindByID(ctx, payload.EntryID)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			c.Log.Error("reconciler-usecase", "entry vanished before reconciliation", "HandleReconcileTask", payload.EntryID)
			return fmt.Errorf("entry %s not found: %w", payload.EntryID, asynq.SkipRetry)
		}
		return fmt.Errorf("load entry %s: %w", payload.EntryID, err)
	}

	return c.resolveEntry(ctx, entry)
}

// HandleSweepTask is the scheduled safety net: it picks up pending entries
// old enough that their synchronous attempt has certainly given up, covering
// crashes that lost the per-entry reconcile task.
func (c *ReconcilerUseCase) HandleSweepTask(ctx context.Context, task *asynq.Task) error {
	staleness := c.Config.GetDuration("reconciler.staleness")
	if staleness == 0 {
		staleness = 10 * time.Minute
	}
	limit := c.Config.GetInt("reconciler.sweep_limit")

	entries, err := c.LedgerRepository.ListPending(ctx, time.Now().UTC().Add(-staleness), limit)
	if err != nil {
		return fmt.Errorf("list pending entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	c.Log.Info("reconciler-usecase", fmt.Sprintf("sweeping %d stale pending entries", len(entries)), "HandleSweepTask", "")
	for i := range entries {
		entry := entries[i]
		if err := c.resolveEntry(ctx, &entry); err != nil {
			c.Log.Error("reconciler-usecase", fmt.Sprintf("failed to resolve entry: %v", err), "HandleSweepTask", entry.ID)
		}
	}
	return nil
}

func (c *ReconcilerUseCase) resolveEntry(ctx context.Context, entry *entity.LedgerEntry) error {
	if entry.IsTerminal() {
		return nil
	}

	switch entry.Direction {
	case entity.DirectionDebit:
		return c.resolveDebit(ctx, entry)
	case entity.DirectionCredit:
		return c.resolveCredit(ctx, entry)
	default:
		c.Log.Error("reconciler-usecase", "entry has unknown direction", "resolveEntry", entry.ID)
		return fmt.Errorf("entry %s has direction %q: %w", entry.ID, entry.Direction, asynq.SkipRetry)
	}
}

func (c *ReconcilerUseCase) resolveDebit(ctx context.Context, entry *entity.LedgerEntry) error {
	providerResult, err := c.Billing.QueryStatus(ctx, entry.ExternalReference)
	if err != nil {
		c.Log.Error("reconciler-usecase", fmt.Sprintf("requery transport error: %v", err), "resolveDebit", entry.ID)
		return c.stillUnresolved(entry, fmt.Errorf("query status for %s: %w", entry.ID, err))
	}

	switch billing.Classify(providerResult) {
	case billing.OutcomeSuccess:
		if _, err := settleSuccess(ctx, c.Log, c.WalletRepository, c.LedgerRepository, entry); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				// Goods were delivered but the wallet cannot cover them;
				// the entry is now FAILED and the shortfall needs a human.
				c.Log.Error("reconciler-usecase", "delivered purchase could not be debited", "resolveDebit", entry.ID)
				c.publishUnresolved(entry)
				return nil
			}
			return fmt.Errorf("settle entry %s: %w", entry.ID, err)
		}
		if err := c.Producer.SendSettled(converter.EntryToEvent(entry)); err != nil {
			c.Log.Error("reconciler-usecase", fmt.Sprintf("failed to publish settlement event: %v", err), "resolveDebit", entry.ID)
		}
		return nil

	case billing.OutcomeFailure:
		reason := "provider reported failure during reconciliation"
		if providerResult != nil && providerResult.Description != "" {
			reason = providerResult.Description
		}
		if err := settleFailed(ctx, c.Log, c.LedgerRepository, entry, reason); err != nil {
			return fmt.Errorf("mark entry %s failed: %w", entry.ID, err)
		}
		return nil

	default:
		return c.stillUnresolved(entry, fmt.Errorf("entry %s still ambiguous at provider", entry.ID))
	}
}

func (c *ReconcilerUseCase) resolveCredit(ctx context.Context, entry *entity.LedgerEntry) error {
	verifyResult, err := c.Collection.Verify(ctx, entry.ExternalReference)
	if err != nil {
		c.Log.Error("reconciler-usecase", fmt.Sprintf("collection verify error: %v", err), "resolveCredit", entry.ID)
		return c.stillUnresolved(entry, fmt.Errorf("verify collection for %s: %w", entry.ID, err))
	}

	switch verifyResult.Status {
	case collection.StatusSuccess:
		if verifyResult.Amount != entry.Amount {
			c.Log.Error("reconciler-usecase",
				fmt.Sprintf("collection confirmed %d but entry was initialized for %d, holding credit",
					verifyResult.Amount, entry.Amount),
				"resolveCredit", entry.ID)
			return c.stillUnresolved(entry, fmt.Errorf("collection amount %d does not match entry %s amount %d",
				verifyResult.Amount, entry.ID, entry.Amount))
		}
		if _, err := settleSuccess(ctx, c.Log, c.WalletRepository, c.LedgerRepository, entry); err != nil {
			return fmt.Errorf("settle entry %s: %w", entry.ID, err)
		}
		if err := c.Producer.SendTopUpSettled(converter.EntryToEvent(entry)); err != nil {
			c.Log.Error("reconciler-usecase", fmt.Sprintf("failed to publish top up event: %v", err), "resolveCredit", entry.ID)
		}
		return nil

	case collection.StatusFailed, collection.StatusAbandoned:
		if err := settleFailed(ctx, c.Log, c.LedgerRepository, entry, "collection "+verifyResult.Status); err != nil {
			return fmt.Errorf("mark entry %s failed: %w", entry.ID, err)
		}
		return nil

	default:
		return c.stillUnresolved(entry, fmt.Errorf("collection for entry %s still pending", entry.ID))
	}
}

// stillUnresolved keeps the entry pending and asks asynq to come back. Once
// retries are exhausted the entry stays visible to the sweep and to the
// unresolved-events topic for operator follow-up.
func (c *ReconcilerUseCase) stillUnresolved(entry *entity.LedgerEntry, err error) error {
	c.publishUnresolved(entry)
	return err
}

func (c *ReconcilerUseCase) publishUnresolved(entry *entity.LedgerEntry) {
	if err := c.Producer.SendUnresolved(converter.EntryToReconciliationEvent(entry, time.Now().UTC())); err != nil {
		c.Log.Error("reconciler-usecase", fmt.Sprintf("failed to publish unresolved event: %v", err), "publishUnresolved", entry.ID)
	}
}
