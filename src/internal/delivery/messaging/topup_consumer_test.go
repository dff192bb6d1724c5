package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/gateway/collection"
	gateway "wallet-service/src/internal/gateway/messaging"
	"wallet-service/src/internal/repository"
	"wallet-service/src/internal/usecase"
	"wallet-service/src/pkg/log"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWalletStore struct {
	mu      sync.Mutex
	balance int64
	applied map[string]int64
}

func (s *stubWalletStore) FindAccount(_ context.Context, userID string) (*entity.WalletAccount, error) {
	return &entity.WalletAccount{UserID: userID, Balance: s.balance}, nil
}

func (s *stubWalletStore) GetBalance(context.Context, string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, nil
}

func (s *stubWalletStore) ApplyDelta(_ context.Context, _ string, delta int64, entryID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if after, ok := s.applied[entryID]; ok {
		return after, repository.ErrAlreadyApplied
	}
	s.balance += delta
	if s.applied == nil {
		s.applied = map[string]int64{}
	}
	s.applied[entryID] = s.balance
	return s.balance, nil
}

type stubLedgerStore struct {
	mu    sync.Mutex
	entry *entity.LedgerEntry
}

func (s *stubLedgerStore) CreateEntry(context.Context, *entity.LedgerEntry) error { return nil }

func (s *stubLedgerStore) UpdateEntryStatus(_ context.Context, id, fromStatus, toStatus, reason string, settledAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil || s.entry.ID != id || s.entry.Status != fromStatus {
		return false, nil
	}
	s.entry.Status = toStatus
	s.entry.FailureReason.String = reason
	s.entry.FailureReason.Valid = reason != ""
	s.entry.SettledAt = &settledAt
	return true, nil
}

func (s *stubLedgerStore) FindByID(_ context.Context, id string) (*entity.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry != nil && s.entry.ID == id {
		copied := *s.entry
		return &copied, nil
	}
	return nil, repository.ErrEntryNotFound
}

func (s *stubLedgerStore) FindByIdempotencyKey(context.Context, string) (*entity.LedgerEntry, error) {
	return nil, repository.ErrEntryNotFound
}

func (s *stubLedgerStore) FindByReference(_ context.Context, reference string) (*entity.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry != nil && s.entry.ExternalReference == reference {
		copied := *s.entry
		return &copied, nil
	}
	return nil, repository.ErrEntryNotFound
}

func (s *stubLedgerStore) ListPending(context.Context, time.Time, int) ([]entity.LedgerEntry, error) {
	return nil, nil
}

func (s *stubLedgerStore) ListByOwner(context.Context, string, int, int) ([]entity.LedgerEntry, error) {
	return nil, nil
}

type stubCollection struct {
	verifyCalls int
	result      *collection.VerifyResult
}

func (s *stubCollection) Initialize(context.Context, string, int64) (*collection.InitializeResult, error) {
	return &collection.InitializeResult{Reference: "ref-001"}, nil
}

func (s *stubCollection) Verify(context.Context, string) (*collection.VerifyResult, error) {
	s.verifyCalls++
	return s.result, nil
}

type consumerFixture struct {
	consumer   *TopUpConsumer
	wallets    *stubWalletStore
	ledgers    *stubLedgerStore
	collection *stubCollection
}

func newConsumerFixture() *consumerFixture {
	wallets := &stubWalletStore{}
	ledgers := &stubLedgerStore{
		entry: &entity.LedgerEntry{
			ID:                "entry-1",
			OwnerID:           "user-1",
			Direction:         entity.DirectionCredit,
			Amount:            50_000,
			Category:          entity.CategoryTopUp,
			ExternalReference: "ref-001",
			Status:            entity.StatusPending,
			CreatedAt:         time.Now().UTC(),
		},
	}
	collectionStub := &stubCollection{
		result: &collection.VerifyResult{Reference: "ref-001", Status: collection.StatusSuccess, Amount: 50_000},
	}

	uc := usecase.NewTopUpUseCase(
		log.GetLogger(),
		validator.New(),
		wallets,
		ledgers,
		collectionStub,
		gateway.NewTransactionProducer(nil, log.GetLogger()),
	)
	return &consumerFixture{
		consumer:   &TopUpConsumer{Log: log.GetLogger(), UseCase: uc},
		wallets:    wallets,
		ledgers:    ledgers,
		collection: collectionStub,
	}
}

func TestHandleEventConfirmsTopUp(t *testing.T) {
	f := newConsumerFixture()

	f.consumer.handleEvent(context.Background(), []byte(`{"reference":"ref-001","status":"success"}`))

	require.Equal(t, 1, f.collection.verifyCalls)
	assert.Equal(t, int64(50_000), f.wallets.balance)
	assert.Equal(t, entity.StatusSuccess, f.ledgers.entry.Status)
}

func TestHandleEventSkipsMalformedPayload(t *testing.T) {
	f := newConsumerFixture()

	f.consumer.handleEvent(context.Background(), []byte(`{not json`))

	assert.Equal(t, 0, f.collection.verifyCalls)
	assert.Equal(t, entity.StatusPending, f.ledgers.entry.Status)
}

func TestHandleEventSkipsMissingReference(t *testing.T) {
	f := newConsumerFixture()

	f.consumer.handleEvent(context.Background(), []byte(`{"status":"success"}`))

	assert.Equal(t, 0, f.collection.verifyCalls)
	assert.Equal(t, entity.StatusPending, f.ledgers.entry.Status)
}

func TestHandleEventUnknownReferenceLeavesWalletUntouched(t *testing.T) {
	f := newConsumerFixture()

	f.consumer.handleEvent(context.Background(), []byte(`{"reference":"nope","status":"success"}`))

	assert.Equal(t, 0, f.collection.verifyCalls)
	assert.Equal(t, int64(0), f.wallets.balance)
}