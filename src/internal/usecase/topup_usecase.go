package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/gateway/collection"
	"wallet-service/src/internal/gateway/messaging"
	"wallet-service/src/internal/model"
	"wallet-service/src/internal/model/converter"
	"wallet-service/src/internal/repository"
	httpError "wallet-service/src/pkg/http-error"
	"wallet-service/src/pkg/log"
	"wallet-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type TopUpUseCase struct {
	Log              log.Log
	Validate         *validator.Validate
	WalletRepository repository.WalletStore
	LedgerRepository repository.LedgerStore
	Collection       collection.Client
	Producer         *messaging.TransactionProducer
}

func NewTopUpUseCase(
	logger log.Log,
	validate *validator.Validate,
	walletRepository repository.WalletStore,
	ledgerRepository repository.LedgerStore,
	collectionClient collection.Client,
	producer *messaging.TransactionProducer,
) *TopUpUseCase {
	return &TopUpUseCase{
		Log:              logger,
		Validate:         validate,
		WalletRepository: walletRepository,
		LedgerRepository: ledgerRepository,
		Collection:       collectionClient,
		Producer:         producer,
	}
}

// Initialize starts a collection on the payment provider and records a
// pending credit entry keyed by the provider reference. The wallet is only
// credited once Verify confirms the collection succeeded.
func (c *TopUpUseCase) Initialize(ctx context.Context, request *model.TopUpInitializeRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("topup-usecase", errObj.Message, "Initialize", utils.ConvertString(request))
		return result
	}

	if _, err := c.WalletRepository.FindAccount(ctx, request.UserID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			errObj := httpError.NewNotFound()
			errObj.Message = "wallet not found"
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to read wallet: %v", err)
		result.Error = errObj
		c.Log.Error("topup-usecase", errObj.Message, "Initialize", request.UserID)
		return result
	}

	initResult, err := c.Collection.Initialize(ctx, request.Email, request.Amount)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to initialize collection: %v", err)
		result.Error = errObj
		c.Log.Error("topup-usecase", errObj.Message, "Initialize", request.UserID)
		return result
	}

	entry := &entity.LedgerEntry{
		ID:                uuid.NewString(),
		OwnerID:           request.UserID,
		Direction:         entity.DirectionCredit,
		Amount:            request.Amount,
		Category:          entity.CategoryTopUp,
		Description:       "wallet top up",
		ExternalReference: initResult.Reference,
		Status:            entity.StatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	if err := c.LedgerRepository.CreateEntry(ctx, entry); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to record top up: %v", err)
		result.Error = errObj
		c.Log.Error("topup-usecase", errObj.Message, "Initialize", request.UserID)
		return result
	}

	result.Data = &model.TopUpInitializeResponse{
		TransactionID:    entry.ID,
		Reference:        initResult.Reference,
		AuthorizationURL: initResult.AuthorizationURL,
	}
	return result
}

// Verify checks the collection status with the provider and, on success,
// credits the wallet exactly once. Safe to call any number of times for the
// same reference; it is also the path the payment-event consumer uses.
func (c *TopUpUseCase) Verify(ctx context.Context, request *model.TopUpVerifyRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	entry, err := c.LedgerRepository.FindByReference(ctx, request.Reference)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			errObj := httpError.NewNotFound()
			errObj.Message = "top up reference not found"
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to look up top up: %v", err)
		result.Error = errObj
		c.Log.Error("topup-usecase", errObj.Message, "Verify", request.Reference)
		return result
	}

	if request.UserID != "" && entry.OwnerID != request.UserID {
		errObj := httpError.NewForbidden()
		errObj.Message = "top up belongs to another wallet"
		result.Error = errObj
		return result
	}

	if entry.IsTerminal() {
		result.Data = converter.EntryToTopUpResponse(entry, nil)
		return result
	}

	// Once we ask the provider, the answer must be settled even if the
	// caller disconnects; both terminal branches depend on this.
	ctx = context.WithoutCancel(ctx)

	verifyResult, err := c.Collection.Verify(ctx, request.Reference)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to verify collection: %v", err)
		result.Error = errObj
		c.Log.Error("topup-usecase", errObj.Message, "Verify", request.Reference)
		return result
	}

	switch verifyResult.Status {
	case collection.StatusSuccess:
		// The credit must match what the provider actually captured. On
		// a mismatch (partial capture, fee adjustment) nothing lands on
		// the wallet; the entry stays pending for operator review.
		if verifyResult.Amount != entry.Amount {
			c.Log.Error("topup-usecase",
				fmt.Sprintf("collection confirmed %d but entry %s was initialized for %d, holding credit",
					verifyResult.Amount, entry.ID, entry.Amount),
				"Verify", entry.OwnerID)
			if err := c.Producer.SendUnresolved(converter.EntryToReconciliationEvent(entry, time.Now().UTC())); err != nil {
				c.Log.Error("topup-usecase", fmt.Sprintf("failed to publish unresolved event: %v", err), "Verify", entry.ID)
			}
			result.Data = converter.EntryToTopUpResponse(entry, nil)
			return result
		}

		newBalance, err := settleSuccess(ctx, c.Log, c.WalletRepository, c.LedgerRepository, entry)
		if err != nil {
			errObj := httpError.NewInternalServerError()
			errObj.Message = fmt.Sprintf("failed to credit wallet: %v", err)
			result.Error = errObj
			c.Log.Error("topup-usecase", errObj.Message, "Verify", entry.ID)
			return result
		}
		if err := c.Producer.SendTopUpSettled(converter.EntryToEvent(entry)); err != nil {
			c.Log.Error("topup-usecase", fmt.Sprintf("failed to publish top up event: %v", err), "Verify", entry.ID)
		}
		result.Data = converter.EntryToTopUpResponse(entry, &newBalance)
		return result

	case collection.StatusFailed, collection.StatusAbandoned:
		if err := settleFailed(ctx, c.Log, c.LedgerRepository, entry, "collection "+verifyResult.Status); err != nil {
			c.Log.Error("topup-usecase", fmt.Sprintf("failed to mark top up failed: %v", err), "Verify", entry.ID)
		}
		result.Data = converter.EntryToTopUpResponse(entry, nil)
		return result

	default:
		result.Data = converter.EntryToTopUpResponse(entry, nil)
		return result
	}
}
