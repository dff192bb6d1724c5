package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdempotencyKeyStableWithinBucket(t *testing.T) {
	request := &PurchaseRequest{
		UserID:    "user-1",
		Category:  "airtime",
		Recipient: "08031234567",
		Amount:    50_000,
	}

	base := time.Date(2025, 6, 1, 12, 0, 10, 0, time.UTC)
	first := request.IdempotencyKey(time.Minute, base)
	second := request.IdempotencyKey(time.Minute, base.Add(20*time.Second))

	assert.Equal(t, first, second)
}

func TestIdempotencyKeyChangesAcrossBuckets(t *testing.T) {
	request := &PurchaseRequest{
		UserID:    "user-1",
		Category:  "airtime",
		Recipient: "08031234567",
		Amount:    50_000,
	}

	base := time.Date(2025, 6, 1, 12, 0, 10, 0, time.UTC)
	first := request.IdempotencyKey(time.Minute, base)
	later := request.IdempotencyKey(time.Minute, base.Add(2*time.Minute))

	assert.NotEqual(t, first, later)
}

func TestIdempotencyKeyVariesByRequest(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 10, 0, time.UTC)
	request := &PurchaseRequest{
		UserID:    "user-1",
		Category:  "airtime",
		Recipient: "08031234567",
		Amount:    50_000,
	}
	key := request.IdempotencyKey(time.Minute, base)

	other := *request
	other.Amount = 60_000
	assert.NotEqual(t, key, other.IdempotencyKey(time.Minute, base))

	other = *request
	other.Recipient = "08039998877"
	assert.NotEqual(t, key, other.IdempotencyKey(time.Minute, base))

	other = *request
	other.UserID = "user-2"
	assert.NotEqual(t, key, other.IdempotencyKey(time.Minute, base))
}
