package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/Dan9191/card-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCardService(store CardStore) *CardService {
	return NewCardService(store, newTestLogger(), metrics.New())
}

func TestCreateCard(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	svc := newCardService(store)
	svc.now = fixedClock(time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC))

	rate := 0.21
	tests := []struct {
		name      string
		kind      models.CardKind
		limit     float64
		secondary *float64
		check     func(t *testing.T, c *models.Card)
	}{
		{"debit", models.CardKindDebit, 300, nil, func(t *testing.T, c *models.Card) {
			require.NotNil(t, c.Debit)
			assert.Equal(t, 300.0, c.Debit.DailyLimit)
		}},
		{"credit with rate", models.CardKindCredit, 2000, &rate, func(t *testing.T, c *models.Card) {
			require.NotNil(t, c.Credit)
			assert.Equal(t, 2000.0, c.Credit.MonthlyLimit)
			assert.Equal(t, 0.21, c.Credit.InterestRate)
		}},
		{"credit without rate", models.CardKindCredit, 2000, nil, func(t *testing.T, c *models.Card) {
			require.NotNil(t, c.Credit)
			assert.Zero(t, c.Credit.InterestRate)
		}},
		{"prepaid ignores secondary", models.CardKindPrepaid, 80, &rate, func(t *testing.T, c *models.Card) {
			require.NotNil(t, c.Prepaid)
			assert.Equal(t, 80.0, c.Prepaid.Balance)
			assert.Nil(t, c.Credit)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := svc.Create(ctx, "client-1", tt.kind, tt.limit, tt.secondary)
			require.NoError(t, err)

			assert.NotEmpty(t, card.ID)
			assert.True(t, utils.ValidCardNumber(card.Number))
			assert.Equal(t, models.CardStatusActive, card.Status)
			assert.Equal(t, tt.kind, card.Kind)
			assert.Equal(t, "client-1", card.ClientID)
			assert.Equal(t, time.Date(2029, 10, 19, 0, 0, 0, 0, time.UTC), card.ExpirationDate)
			tt.check(t, card)

			stored, err := store.FindCardByID(ctx, card.ID)
			require.NoError(t, err)
			assert.Equal(t, card, stored)
		})
	}
}

func TestCreateCardInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc := newCardService(repository.NewMemory())
	negative := -0.1

	_, err := svc.Create(ctx, "client-1", models.CardKind("GOLD"), 100, nil)
	requireKind(t, err, apperr.KindInvalidInput)

	_, err = svc.Create(ctx, "", models.CardKindDebit, 100, nil)
	requireKind(t, err, apperr.KindInvalidInput)

	_, err = svc.Create(ctx, "client-1", models.CardKindDebit, -1, nil)
	requireKind(t, err, apperr.KindInvalidInput)

	_, err = svc.Create(ctx, "client-1", models.CardKindCredit, 100, &negative)
	requireKind(t, err, apperr.KindInvalidInput)
}

func TestCreateCardIDsAreUnique(t *testing.T) {
	svc := newCardService(repository.NewMemory())
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		card, err := svc.Create(context.Background(), "client-1", models.CardKindDebit, 10, nil)
		require.NoError(t, err)
		assert.False(t, seen[card.ID])
		seen[card.ID] = true
	}
}

func TestTransitionsAreTotal(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	svc := newCardService(store)
	card := seedCard(t, store, models.NewDebitCard("client-1", 100))

	steps := []struct {
		do   func(context.Context, string) (*models.Card, error)
		want models.CardStatus
	}{
		{svc.Block, models.CardStatusBlocked},
		{svc.Activate, models.CardStatusActive},
		{svc.Activate, models.CardStatusActive},
		{svc.Suspend, models.CardStatusSuspended},
		{svc.Block, models.CardStatusBlocked},
		{svc.Suspend, models.CardStatusSuspended},
		{svc.Activate, models.CardStatusActive},
	}
	for _, step := range steps {
		got, err := step.do(ctx, card.ID)
		require.NoError(t, err)
		assert.Equal(t, step.want, got.Status)

		stored, err := store.FindCardByID(ctx, card.ID)
		require.NoError(t, err)
		assert.Equal(t, step.want, stored.Status)
	}
}

func TestTransitionMissingCard(t *testing.T) {
	svc := newCardService(repository.NewMemory())

	for _, do := range []func(context.Context, string) (*models.Card, error){svc.Activate, svc.Suspend, svc.Block, svc.Renew} {
		_, err := do(context.Background(), "missing")
		requireKind(t, err, apperr.KindNotFound)
	}
}

func TestRenew(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	svc := newCardService(store)
	source := seedCard(t, store, models.NewCreditCard("client-7", 1500, 0.12))
	require.NoError(t, store.UpdateCardStatus(ctx, source.ID, models.CardStatusSuspended))

	renewed, err := svc.Renew(ctx, source.ID)
	require.NoError(t, err)

	assert.NotEqual(t, source.ID, renewed.ID)
	assert.NotEqual(t, source.Number, renewed.Number)
	assert.Equal(t, source.ClientID, renewed.ClientID)
	assert.Equal(t, source.Kind, renewed.Kind)
	assert.Equal(t, source.Credit, renewed.Credit)
	assert.Equal(t, models.CardStatusActive, renewed.Status)

	original, err := store.FindCardByID(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CardStatusSuspended, original.Status)
	assert.Equal(t, source.Number, original.Number)

	cards, _ := store.FindCardsByClient(ctx, "client-7")
	assert.Len(t, cards, 2)
}

func TestVerifyLimit(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	svc := newCardService(store)
	card := seedCard(t, store, models.NewDebitCard("client-1", 100))

	ok, err := svc.VerifyLimit(ctx, card.ID, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyLimit(ctx, card.ID, 100.01)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Suspend(ctx, card.ID)
	require.NoError(t, err)
	ok, err = svc.VerifyLimit(ctx, card.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.VerifyLimit(ctx, "missing", 1)
	requireKind(t, err, apperr.KindNotFound)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	svc := newCardService(store)
	a, err := svc.Create(ctx, "client-1", models.CardKindDebit, 10, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "client-2", models.CardKindPrepaid, 10, nil)
	require.NoError(t, err)
	_, err = svc.Block(ctx, a.ID)
	require.NoError(t, err)

	mine, err := svc.ListByClient(ctx, "client-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	blocked, err := svc.ListByStatus(ctx, models.CardStatusBlocked)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, a.ID, blocked[0].ID)

	_, err = svc.ListByStatus(ctx, models.CardStatus("LOST"))
	requireKind(t, err, apperr.KindInvalidInput)

	byNumber, err := svc.GetByNumber(ctx, a.Number)
	require.NoError(t, err)
	assert.Equal(t, a.ID, byNumber.ID)

	require.NoError(t, svc.Delete(ctx, a.ID))
	requireKind(t, svc.Delete(ctx, a.ID), apperr.KindNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
