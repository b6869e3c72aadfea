package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(repository.NewMemory(), newTestLogger(), "test-secret")

	operator, err := svc.Register(ctx, "Teller@Bank.example", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "teller@bank.example", operator.Email)
	assert.NotEqual(t, "correct horse", operator.PasswordHash)

	_, err = svc.Register(ctx, "teller@bank.example", "another password")
	requireKind(t, err, apperr.KindConflict)

	token, err := svc.Login(ctx, "teller@bank.example", "correct horse")
	require.NoError(t, err)

	id, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, operator.ID, id)

	_, err = svc.Login(ctx, "teller@bank.example", "wrong password")
	requireKind(t, err, apperr.KindUnauthorized)

	_, err = svc.Login(ctx, "nobody@bank.example", "correct horse")
	requireKind(t, err, apperr.KindUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(repository.NewMemory(), newTestLogger(), "test-secret")

	_, err := svc.Register(context.Background(), "not-an-email", "long enough")
	requireKind(t, err, apperr.KindInvalidInput)

	_, err = svc.Register(context.Background(), "a@bank.example", "short")
	requireKind(t, err, apperr.KindInvalidInput)
}

func TestParseTokenRejects(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	svc := NewAuthService(store, newTestLogger(), "test-secret")
	_, err := svc.Register(ctx, "a@bank.example", "long enough")
	require.NoError(t, err)

	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = fixedClock(issued)
	token, err := svc.Login(ctx, "a@bank.example", "long enough")
	require.NoError(t, err)

	svc.now = fixedClock(issued.Add(25 * time.Hour))
	_, err = svc.ParseToken(token)
	requireKind(t, err, apperr.KindUnauthorized)

	other := NewAuthService(store, newTestLogger(), "other-secret")
	other.now = fixedClock(issued)
	_, err = other.ParseToken(token)
	requireKind(t, err, apperr.KindUnauthorized)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ParseToken(unsigned)
	requireKind(t, err, apperr.KindUnauthorized)

	_, err = svc.ParseToken("garbage")
	requireKind(t, err, apperr.KindUnauthorized)
}
