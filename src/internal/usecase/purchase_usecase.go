package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/gateway/billing"
	"wallet-service/src/internal/gateway/messaging"
	"wallet-service/src/internal/model"
	"wallet-service/src/internal/model/converter"
	"wallet-service/src/internal/repository"
	httpError "wallet-service/src/pkg/http-error"
	"wallet-service/src/pkg/log"
	"wallet-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type PurchaseUseCase struct {
	Log              log.Log
	Validate         *validator.Validate
	WalletRepository repository.WalletStore
	LedgerRepository repository.LedgerStore
	Billing          billing.Client
	Gate             SecureActionGate
	Dedup            DedupLocker
	Config           *viper.Viper
	Producer         *messaging.TransactionProducer
	Tasks            TaskEnqueuer
}

func NewPurchaseUseCase(
	logger log.Log,
	validate *validator.Validate,
	walletRepository repository.WalletStore,
	ledgerRepository repository.LedgerStore,
	billingClient billing.Client,
	gate SecureActionGate,
	dedup DedupLocker,
	cfg *viper.Viper,
	producer *messaging.TransactionProducer,
	tasks TaskEnqueuer,
) *PurchaseUseCase {
	return &PurchaseUseCase{
		Log:              logger,
		Validate:         validate,
		WalletRepository: walletRepository,
		LedgerRepository: ledgerRepository,
		Billing:          billingClient,
		Gate:             gate,
		Dedup:            dedup,
		Config:           cfg,
		Producer:         producer,
		Tasks:            tasks,
	}
}

var (
	phonePattern = regexp.MustCompile(`^0\d{10}$`)
	meterPattern = regexp.MustCompile(`^\d{10,13}$`)
)

// Amount bounds per category, in kobo.
var categoryLimits = map[string]struct{ Min, Max int64 }{
	entity.CategoryAirtime:     {5_000, 5_000_000},
	entity.CategoryData:        {5_000, 5_000_000},
	entity.CategoryElectricity: {50_000, 20_000_000},
	entity.CategoryHotel:       {100_000, 100_000_000},
	entity.CategoryFood:        {10_000, 50_000_000},
	entity.CategoryLaundry:     {10_000, 50_000_000},
	entity.CategoryLogistics:   {10_000, 50_000_000},
	entity.CategoryShop:        {10_000, 100_000_000},
}

// Purchase runs one attempt through the full state machine: validate,
// reserve a pending debit entry, call the billing provider, settle. The
// balance is only ever debited after a confirmed provider success.
func (c *PurchaseUseCase) Purchase(ctx context.Context, request *model.PurchaseRequest) utils.Result {
	var result utils.Result

	if err := c.Gate.Authorize(ctx, request.UserID, request.ActionToken); err != nil {
		errObj := httpError.NewUnauthorized()
		errObj.Message = "secure action check failed"
		result.Error = errObj
		c.Log.Error("purchase-usecase", errObj.Message, "Purchase", request.UserID)
		return result
	}

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("purchase-usecase", errObj.Message, "Purchase", utils.ConvertString(request))
		return result
	}

	if err := validateCategoryRules(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = err.Error()
		result.Error = errObj
		c.Log.Error("purchase-usecase", errObj.Message, "Purchase", utils.ConvertString(request))
		return result
	}

	// Advisory balance check: fails fast on obviously unfundable requests.
	// The authoritative enforcement is the guarded update in ApplyDelta.
	balance, err := c.WalletRepository.GetBalance(ctx, request.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			errObj := httpError.NewNotFound()
			errObj.Message = "wallet not found, please create a wallet first"
			result.Error = errObj
			c.Log.Error("purchase-usecase", errObj.Message, "Purchase", request.UserID)
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to read balance: %v", err)
		result.Error = errObj
		c.Log.Error("purchase-usecase", errObj.Message, "Purchase", request.UserID)
		return result
	}
	if request.Amount > balance {
		errObj := httpError.NewBadRequest()
		errObj.Message = "insufficient balance, please top up"
		result.Error = errObj
		c.Log.Error("purchase-usecase", errObj.Message, "Purchase", request.UserID)
		return result
	}

	window := c.Config.GetDuration("purchase.dedup_window")
	if window == 0 {
		window = time.Minute
	}
	idempotencyKey := request.IdempotencyKey(window, time.Now())

	acquired, lockErr := c.Dedup.Acquire(ctx, "wallet:dedup:"+idempotencyKey, window)
	if lockErr != nil {
		// Redis is the fast path only; the unique ledger key below still
		// rejects duplicates when the lock store is unavailable.
		c.Log.Error("purchase-usecase", fmt.Sprintf("dedup lock unavailable: %v", lockErr), "Purchase", request.UserID)
	} else if !acquired {
		errObj := httpError.NewConflict()
		errObj.Message = "duplicate purchase request, the previous attempt is still being processed"
		result.Error = errObj
		c.Log.Error("purchase-usecase", errObj.Message, "Purchase", request.UserID)
		return result
	}

	entry := &entity.LedgerEntry{
		ID:                uuid.NewString(),
		OwnerID:           request.UserID,
		Direction:         entity.DirectionDebit,
		Amount:            request.Amount,
		Category:          request.Category,
		Description:       buildDescription(request),
		ExternalReference: uuid.NewString(),
		IdempotencyKey:    sql.NullString{String: idempotencyKey, Valid: true},
		Status:            entity.StatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	if err := c.LedgerRepository.CreateEntry(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			errObj := httpError.NewConflict()
			errObj.Message = "duplicate purchase request"
			if original, findErr := c.LedgerRepository.FindByIdempotencyKey(ctx, idempotencyKey); findErr == nil {
				errObj.Message = fmt.Sprintf("duplicate purchase request, see transaction %s", original.ID)
			}
			result.Error = errObj
			c.Log.Error("purchase-usecase", errObj.Message, "Purchase", request.UserID)
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to record transaction: %v", err)
		result.Error = errObj
		c.Log.Error("purchase-usecase", errObj.Message, "Purchase", request.UserID)
		return result
	}

	// A reserved attempt must settle even if the caller abandons the
	// request; the provider may already be delivering.
	ctx = context.WithoutCancel(ctx)

	providerResult, payErr := c.Billing.Pay(ctx, billing.PayRequest{
		RequestID:     entry.ExternalReference,
		ServiceID:     serviceIDFor(request),
		Amount:        request.Amount,
		Recipient:     request.Recipient,
		VariationCode: request.VariationCode,
		Phone:         phoneFor(request),
	})
	outcome := billing.Classify(providerResult)
	if payErr != nil {
		c.Log.Error("purchase-usecase", fmt.Sprintf("pay transport error, outcome unknown: %v", payErr), "Purchase", entry.ID)
		outcome = billing.OutcomeAmbiguous
	}

	if outcome == billing.OutcomeAmbiguous {
		providerResult, outcome = c.requery(ctx, entry.ExternalReference)
	}

	switch outcome {
	case billing.OutcomeSuccess:
		return c.finishSuccess(ctx, entry, providerResult)
	case billing.OutcomeFailure:
		return c.finishFailed(ctx, entry, providerResult)
	default:
		return c.finishAmbiguous(ctx, entry)
	}
}

func (c *PurchaseUseCase) finishSuccess(ctx context.Context, entry *entity.LedgerEntry, providerResult *billing.ProviderResult) utils.Result {
	var result utils.Result

	newBalance, err := settleSuccess(ctx, c.Log, c.WalletRepository, c.LedgerRepository, entry)
	if errors.Is(err, repository.ErrInsufficientFunds) {
		errObj := httpError.NewBadRequest()
		errObj.Message = "insufficient funds"
		result.Error = errObj
		return result
	}
	if err != nil {
		// Delta or transition could not be applied; the entry is still
		// pending and the reconciler will complete the settlement.
		c.Log.Error("purchase-usecase", fmt.Sprintf("settlement deferred: %v", err), "Purchase", entry.ID)
		c.enqueueReconcile(entry.ID)
		result.Data = converter.EntryToPurchaseResponse(entry, nil)
		return result
	}

	if err := c.Producer.SendSettled(converter.EntryToEvent(entry)); err != nil {
		c.Log.Error("purchase-usecase", fmt.Sprintf("failed to publish settlement event: %v", err), "Purchase", entry.ID)
	}

	resp := converter.EntryToPurchaseResponse(entry, &newBalance)
	if providerResult != nil && providerResult.Token != "" {
		resp.Description = fmt.Sprintf("%s | token: %s", resp.Description, providerResult.Token)
	}
	result.Data = resp
	return result
}

func (c *PurchaseUseCase) finishFailed(ctx context.Context, entry *entity.LedgerEntry, providerResult *billing.ProviderResult) utils.Result {
	var result utils.Result

	reason := "provider rejected the request"
	if providerResult != nil && providerResult.Description != "" {
		reason = providerResult.Description
	}
	if err := settleFailed(ctx, c.Log, c.LedgerRepository, entry, reason); err != nil {
		c.Log.Error("purchase-usecase", fmt.Sprintf("failed to mark entry failed: %v", err), "Purchase", entry.ID)
		c.enqueueReconcile(entry.ID)
	}

	result.Data = converter.EntryToPurchaseResponse(entry, nil)
	return result
}

func (c *PurchaseUseCase) finishAmbiguous(ctx context.Context, entry *entity.LedgerEntry) utils.Result {
	var result utils.Result

	c.Log.Info("purchase-usecase",
		fmt.Sprintf("outcome for entry %s still ambiguous after requery, handing to reconciler", entry.ID),
		"Purchase", entry.OwnerID)
	c.enqueueReconcile(entry.ID)

	result.Data = converter.EntryToPurchaseResponse(entry, nil)
	return result
}

// requery polls the provider status endpoint with exponential backoff until
// the outcome becomes definite or attempts run out.
func (c *PurchaseUseCase) requery(ctx context.Context, requestID string) (*billing.ProviderResult, billing.Outcome) {
	attempts := c.Config.GetInt("gateway.requery_attempts")
	if attempts <= 0 {
		attempts = 3
	}
	backoff := c.Config.GetDuration("gateway.requery_backoff")
	if backoff == 0 {
		backoff = 3 * time.Second
	}

	var last *billing.ProviderResult
	for attempt := 0; attempt < attempts; attempt++ {
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return last, billing.OutcomeAmbiguous
		}
		backoff *= 2

		result, err := c.Billing.QueryStatus(ctx, requestID)
		if err != nil {
			c.Log.Error("purchase-usecase", fmt.Sprintf("requery transport error: %v", err), "requery", requestID)
			continue
		}
		last = result
		if outcome := billing.Classify(result); outcome != billing.OutcomeAmbiguous {
			return result, outcome
		}
	}

	return last, billing.OutcomeAmbiguous
}

func (c *PurchaseUseCase) enqueueReconcile(entryID string) {
	task, err := NewReconcileEntryTask(entryID)
	if err != nil {
		c.Log.Error("purchase-usecase", fmt.Sprintf("failed to build reconcile task: %v", err), "enqueueReconcile", entryID)
		return
	}
	if _, err := c.Tasks.Enqueue(task); err != nil {
		c.Log.Error("purchase-usecase", fmt.Sprintf("failed to enqueue reconcile task: %v", err), "enqueueReconcile", entryID)
	}
}

func (c *PurchaseUseCase) VerifyMeter(ctx context.Context, request *model.VerifyMeterRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("purchase-usecase", errObj.Message, "VerifyMeter", utils.ConvertString(request))
		return result
	}

	info, err := c.Billing.VerifyRecipient(ctx, request.ServiceID, request.Meter)
	if err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("meter verification failed: %v", err)
		result.Error = errObj
		c.Log.Error("purchase-usecase", errObj.Message, "VerifyMeter", request.Meter)
		return result
	}

	result.Data = &model.VerifyMeterResponse{
		Name:    info.Name,
		Address: info.Address,
	}
	return result
}

func (c *PurchaseUseCase) GetBalance(ctx context.Context, userID string) utils.Result {
	var result utils.Result

	account, err := c.WalletRepository.FindAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			errObj := httpError.NewNotFound()
			errObj.Message = "wallet not found"
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to read balance: %v", err)
		result.Error = errObj
		c.Log.Error("purchase-usecase", errObj.Message, "GetBalance", userID)
		return result
	}

	result.Data = &model.BalanceResponse{
		UserID:   account.UserID,
		Balance:  account.Balance,
		Currency: account.Currency,
	}
	return result
}

func (c *PurchaseUseCase) ListTransactions(ctx context.Context, request *model.ListTransactionsRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	entries, err := c.LedgerRepository.ListByOwner(ctx, request.UserID, request.Limit, request.Offset)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to list transactions: %v", err)
		result.Error = errObj
		c.Log.Error("purchase-usecase", errObj.Message, "ListTransactions", request.UserID)
		return result
	}

	result.Data = converter.EntriesToHistory(entries)
	return result
}

func validateCategoryRules(request *model.PurchaseRequest) error {
	limits, ok := categoryLimits[request.Category]
	if !ok {
		return fmt.Errorf("unsupported category %q", request.Category)
	}
	if request.Amount < limits.Min || request.Amount > limits.Max {
		return fmt.Errorf("amount %d outside allowed range [%d, %d] for %s", request.Amount, limits.Min, limits.Max, request.Category)
	}

	switch request.Category {
	case entity.CategoryAirtime, entity.CategoryData:
		if !phonePattern.MatchString(request.Recipient) {
			return fmt.Errorf("recipient must be an 11-digit phone number")
		}
		if request.Network == "" {
			return fmt.Errorf("network is required for %s", request.Category)
		}
		if request.Category == entity.CategoryData && request.VariationCode == "" {
			return fmt.Errorf("variationCode is required for data plans")
		}
	case entity.CategoryElectricity:
		if !meterPattern.MatchString(request.Recipient) {
			return fmt.Errorf("recipient must be a 10-13 digit meter number")
		}
		if request.ServiceID == "" {
			return fmt.Errorf("serviceId is required for electricity")
		}
		if request.MeterType == "" {
			return fmt.Errorf("meterType is required for electricity")
		}
	case entity.CategoryHotel:
		if request.StartDate == "" || request.EndDate == "" {
			return fmt.Errorf("startDate and endDate are required for hotel bookings")
		}
		start, err := time.Parse("2006-01-02", request.StartDate)
		if err != nil {
			return fmt.Errorf("invalid startDate")
		}
		end, err := time.Parse("2006-01-02", request.EndDate)
		if err != nil {
			return fmt.Errorf("invalid endDate")
		}
		if !end.After(start) {
			return fmt.Errorf("endDate must be after startDate")
		}
	case entity.CategoryFood, entity.CategoryShop:
		if len(request.Items) == 0 {
			return fmt.Errorf("at least one item is required for %s", request.Category)
		}
		var total int64
		for _, item := range request.Items {
			total += item.Price * int64(item.Quantity)
		}
		if total != request.Amount {
			return fmt.Errorf("amount %d does not match item total %d", request.Amount, total)
		}
	case entity.CategoryLaundry, entity.CategoryLogistics:
		if request.Description == "" {
			return fmt.Errorf("description is required for %s", request.Category)
		}
	}

	return nil
}

func buildDescription(request *model.PurchaseRequest) string {
	if request.Description != "" {
		return request.Description
	}
	switch request.Category {
	case entity.CategoryAirtime:
		return fmt.Sprintf("%s airtime for %s", request.Network, request.Recipient)
	case entity.CategoryData:
		return fmt.Sprintf("%s data plan %s for %s", request.Network, request.VariationCode, request.Recipient)
	case entity.CategoryElectricity:
		return fmt.Sprintf("%s electricity token for meter %s", request.MeterType, request.Recipient)
	default:
		return fmt.Sprintf("%s purchase for %s", request.Category, request.Recipient)
	}
}

func serviceIDFor(request *model.PurchaseRequest) string {
	if request.ServiceID != "" {
		return request.ServiceID
	}
	if request.Network != "" {
		return fmt.Sprintf("%s-%s", request.Network, request.Category)
	}
	return request.Category
}

func phoneFor(request *model.PurchaseRequest) string {
	switch request.Category {
	case entity.CategoryAirtime, entity.CategoryData:
		return request.Recipient
	default:
		return ""
	}
}
