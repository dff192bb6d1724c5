package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "gate-secret"

func newTestGate() *ActionGate {
	v := viper.New()
	v.Set("secure_gate.token_secret", testSecret)
	return NewActionGate(v)
}

func mintToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestActionGateAcceptsValidToken(t *testing.T) {
	gate := newTestGate()
	actionToken := mintToken(t, jwt.MapClaims{
		"sub":     "user-1",
		"purpose": ActionPurpose,
		"iat":     time.Now().Unix(),
	}, testSecret)

	assert.NoError(t, gate.Authorize(context.Background(), "user-1", actionToken))
}

func TestActionGateRejections(t *testing.T) {
	gate := newTestGate()

	cases := []struct {
		name   string
		token  string
		userID string
	}{
		{"empty token", "", "user-1"},
		{"garbage token", "not.a.jwt", "user-1"},
		{
			"wrong secret",
			mintToken(t, jwt.MapClaims{"sub": "user-1", "purpose": ActionPurpose, "iat": time.Now().Unix()}, "other-secret"),
			"user-1",
		},
		{
			"wrong subject",
			mintToken(t, jwt.MapClaims{"sub": "user-2", "purpose": ActionPurpose, "iat": time.Now().Unix()}, testSecret),
			"user-1",
		},
		{
			"wrong purpose",
			mintToken(t, jwt.MapClaims{"sub": "user-1", "purpose": "login", "iat": time.Now().Unix()}, testSecret),
			"user-1",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := gate.Authorize(context.Background(), tc.userID, tc.token)
			assert.ErrorIs(t, err, ErrActionDenied)
		})
	}
}

func TestActionGateRejectsStaleToken(t *testing.T) {
	gate := newTestGate()
	actionToken := mintToken(t, jwt.MapClaims{
		"sub":     "user-1",
		"purpose": ActionPurpose,
		"iat":     time.Now().Add(-10 * time.Minute).Unix(),
	}, testSecret)

	err := gate.Authorize(context.Background(), "user-1", actionToken)
	assert.ErrorIs(t, err, ErrActionDenied)
}

func TestPinGate(t *testing.T) {
	hash, err := HashPin("4321")
	require.NoError(t, err)

	gate := NewPinGate(func(_ context.Context, userID string) (string, error) {
		if userID == "user-1" {
			return hash, nil
		}
		return "", errors.New("not found")
	})

	assert.NoError(t, gate.Authorize(context.Background(), "user-1", "4321"))
	assert.ErrorIs(t, gate.Authorize(context.Background(), "user-1", "1111"), ErrActionDenied)
	assert.ErrorIs(t, gate.Authorize(context.Background(), "user-1", ""), ErrActionDenied)
	assert.ErrorIs(t, gate.Authorize(context.Background(), "ghost", "4321"), ErrActionDenied)
}
