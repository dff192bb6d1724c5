package usecase

import (
	"context"
	"sync"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/gateway/billing"
	"wallet-service/src/internal/gateway/collection"
	"wallet-service/src/internal/gateway/messaging"
	"wallet-service/src/internal/repository"
	"wallet-service/src/pkg/log"
	"wallet-service/src/pkg/token"

	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
)

// memWalletStore mirrors the real repository's guarantees: a balance can
// never go below zero and a delta for a given entry id applies at most once.
type memWalletStore struct {
	mu        sync.Mutex
	accounts  map[string]*entity.WalletAccount
	mutations map[string]int64 // entry id -> balance after
}

func newMemWalletStore() *memWalletStore {
	return &memWalletStore{
		accounts:  make(map[string]*entity.WalletAccount),
		mutations: make(map[string]int64),
	}
}

func (s *memWalletStore) seed(userID string, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = &entity.WalletAccount{
		UserID:   userID,
		Balance:  balance,
		Currency: "NGN",
	}
}

func (s *memWalletStore) balance(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[userID].Balance
}

func (s *memWalletStore) FindAccount(_ context.Context, userID string) (*entity.WalletAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[userID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *memWalletStore) GetBalance(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[userID]
	if !ok {
		return 0, repository.ErrAccountNotFound
	}
	return account.Balance, nil
}

func (s *memWalletStore) ApplyDelta(ctx context.Context, userID string, delta int64, entryID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[userID]
	if !ok {
		return 0, repository.ErrAccountNotFound
	}
	if after, applied := s.mutations[entryID]; applied {
		return after, repository.ErrAlreadyApplied
	}
	newBalance := account.Balance + delta
	if newBalance < 0 {
		return 0, repository.ErrInsufficientFunds
	}
	account.Balance = newBalance
	account.Version++
	s.mutations[entryID] = newBalance
	return newBalance, nil
}

// memLedgerStore enforces the unique idempotency key and the forward-only
// conditional status transition.
type memLedgerStore struct {
	mu      sync.Mutex
	entries map[string]*entity.LedgerEntry
	byKey   map[string]string
	byRef   map[string]string
	order   []string
}

func newMemLedgerStore() *memLedgerStore {
	return &memLedgerStore{
		entries: make(map[string]*entity.LedgerEntry),
		byKey:   make(map[string]string),
		byRef:   make(map[string]string),
	}
}

func (s *memLedgerStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *memLedgerStore) get(id string) *entity.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[id]; ok {
		copied := *entry
		return &copied
	}
	return nil
}

func (s *memLedgerStore) CreateEntry(_ context.Context, entry *entity.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.IdempotencyKey.Valid {
		if _, exists := s.byKey[entry.IdempotencyKey.String]; exists {
			return repository.ErrDuplicateEntry
		}
		s.byKey[entry.IdempotencyKey.String] = entry.ID
	}
	copied := *entry
	s.entries[entry.ID] = &copied
	s.byRef[entry.ExternalReference] = entry.ID
	s.order = append(s.order, entry.ID)
	return nil
}

func (s *memLedgerStore) UpdateEntryStatus(ctx context.Context, id, fromStatus, toStatus, failureReason string, settledAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || entry.Status != fromStatus {
		return false, nil
	}
	entry.Status = toStatus
	entry.FailureReason.String = failureReason
	entry.FailureReason.Valid = failureReason != ""
	entry.SettledAt = &settledAt
	return true, nil
}

func (s *memLedgerStore) FindByID(_ context.Context, id string) (*entity.LedgerEntry, error) {
	if entry := s.get(id); entry != nil {
		return entry, nil
	}
	return nil, repository.ErrEntryNotFound
}

func (s *memLedgerStore) FindByIdempotencyKey(_ context.Context, key string) (*entity.LedgerEntry, error) {
	s.mu.Lock()
	id, ok := s.byKey[key]
	s.mu.Unlock()
	if !ok {
		return nil, repository.ErrEntryNotFound
	}
	return s.get(id), nil
}

func (s *memLedgerStore) FindByReference(_ context.Context, reference string) (*entity.LedgerEntry, error) {
	s.mu.Lock()
	id, ok := s.byRef[reference]
	s.mu.Unlock()
	if !ok {
		return nil, repository.ErrEntryNotFound
	}
	return s.get(id), nil
}

func (s *memLedgerStore) ListPending(_ context.Context, olderThan time.Time, _ int) ([]entity.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.LedgerEntry
	for _, id := range s.order {
		entry := s.entries[id]
		if entry.Status == entity.StatusPending && entry.CreatedAt.Before(olderThan) {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (s *memLedgerStore) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]entity.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.LedgerEntry
	for i := len(s.order) - 1; i >= 0; i-- {
		entry := s.entries[s.order[i]]
		if entry.OwnerID == ownerID {
			out = append(out, *entry)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// fakeBilling returns scripted results per call, repeating the last script
// entry once exhausted.
type fakeBilling struct {
	mu           sync.Mutex
	payResults   []billingReply
	queryResults []billingReply
	payCalls     int
	queryCalls   int
}

type billingReply struct {
	result *billing.ProviderResult
	err    error
}

func (f *fakeBilling) Pay(context.Context, billing.PayRequest) (*billing.ProviderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reply := scriptAt(f.payResults, f.payCalls)
	f.payCalls++
	return reply.result, reply.err
}

func (f *fakeBilling) QueryStatus(context.Context, string) (*billing.ProviderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reply := scriptAt(f.queryResults, f.queryCalls)
	f.queryCalls++
	return reply.result, reply.err
}

func (f *fakeBilling) VerifyRecipient(context.Context, string, string) (*billing.RecipientInfo, error) {
	return &billing.RecipientInfo{Name: "ADA OBI", Address: "12 Marina Rd"}, nil
}

func scriptAt(script []billingReply, call int) billingReply {
	if len(script) == 0 {
		return billingReply{result: &billing.ProviderResult{Code: billing.CodeDelivered, Description: "delivered"}}
	}
	if call >= len(script) {
		return script[len(script)-1]
	}
	return script[call]
}

func delivered() billingReply {
	return billingReply{result: &billing.ProviderResult{Code: billing.CodeDelivered, Description: "delivered"}}
}

func rejected(description string) billingReply {
	return billingReply{result: &billing.ProviderResult{Code: "016", Description: description}}
}

func processing() billingReply {
	return billingReply{result: &billing.ProviderResult{Code: billing.CodeProcessing, Description: "processing"}}
}

func transportError(err error) billingReply {
	return billingReply{err: err}
}

type fakeCollection struct {
	mu            sync.Mutex
	initResult    *collection.InitializeResult
	initErr       error
	verifyResults []collectionReply
	verifyCalls   int
}

type collectionReply struct {
	result *collection.VerifyResult
	err    error
}

func (f *fakeCollection) Initialize(context.Context, string, int64) (*collection.InitializeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initErr != nil {
		return nil, f.initErr
	}
	if f.initResult != nil {
		return f.initResult, nil
	}
	return &collection.InitializeResult{Reference: "ref-001", AuthorizationURL: "https://pay.example/ref-001"}, nil
}

func (f *fakeCollection) Verify(context.Context, string) (*collection.VerifyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var reply collectionReply
	if len(f.verifyResults) == 0 {
		reply = collectionReply{result: &collection.VerifyResult{Reference: "ref-001", Status: collection.StatusSuccess, Amount: 50_000}}
	} else if f.verifyCalls >= len(f.verifyResults) {
		reply = f.verifyResults[len(f.verifyResults)-1]
	} else {
		reply = f.verifyResults[f.verifyCalls]
	}
	f.verifyCalls++
	return reply.result, reply.err
}

type allowAllGate struct{}

func (allowAllGate) Authorize(context.Context, string, string) error { return nil }

type denyGate struct{}

func (denyGate) Authorize(context.Context, string, string) error {
	return token.ErrActionDenied
}

// memLocker behaves like redis SETNX with expiry ignored (tests run well
// inside any window).
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task", Type: task.Type()}, nil
}

func (f *fakeEnqueuer) taskCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func testConfig() *viper.Viper {
	v := viper.New()
	v.Set("purchase.dedup_window", "1m")
	v.Set("gateway.requery_attempts", 2)
	v.Set("gateway.requery_backoff", "1ms")
	v.Set("reconciler.staleness", "1ms")
	return v
}

func testProducer() *messaging.TransactionProducer {
	// nil underlying producer: events are logged and dropped.
	return messaging.NewTransactionProducer(nil, log.GetLogger())
}
