package service

import (
	"context"
	"testing"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewClientService(repository.NewMemory(), newTestLogger())

	client, err := svc.Register(ctx, " Ivan Petrov ", "Ivan@Example.com", "+7 900 000 00 00")
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrov", client.Name)
	assert.Equal(t, "ivan@example.com", client.Email)

	byEmail, err := svc.FindByEmail(ctx, "IVAN@example.com")
	require.NoError(t, err)
	assert.Equal(t, client, byEmail)

	byPhone, err := svc.FindByPhone(ctx, "+7 900 000 00 00")
	require.NoError(t, err)
	assert.Equal(t, client.ID, byPhone.ID)

	_, err = svc.Register(ctx, "Someone Else", "ivan@example.com", "")
	requireKind(t, err, apperr.KindConflict)

	updated, err := svc.Update(ctx, client.ID, "Ivan P.", "ivan.p@example.com", "")
	require.NoError(t, err)
	got, err := svc.Get(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = svc.Register(ctx, "Anna", "anna@example.com", "")
	require.NoError(t, err)
	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Anna", all[0].Name)

	require.NoError(t, svc.Delete(ctx, client.ID))
	_, err = svc.Get(ctx, client.ID)
	requireKind(t, err, apperr.KindNotFound)
	requireKind(t, svc.Delete(ctx, client.ID), apperr.KindNotFound)
}

func TestClientValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewClientService(repository.NewMemory(), newTestLogger())

	_, err := svc.Register(ctx, "", "a@example.com", "")
	requireKind(t, err, apperr.KindInvalidInput)

	_, err = svc.Register(ctx, "Anna", "not-an-email", "")
	requireKind(t, err, apperr.KindInvalidInput)

	_, err = svc.Update(ctx, "missing", "Anna", "a@example.com", "")
	requireKind(t, err, apperr.KindNotFound)
}
