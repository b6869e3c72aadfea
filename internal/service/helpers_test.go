package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("connection refused")

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// plainCards hides the Locker implementation of the wrapped store
type plainCards struct {
	CardStore
}

// failingOps fails every history lookup
type failingOps struct {
	OperationStore
}

func (failingOps) FindOperationsByCardAndDateRange(context.Context, string, time.Time, time.Time) ([]*models.CardOperation, error) {
	return nil, errBoom
}

func (failingOps) FindOperationsByCard(context.Context, string) ([]*models.CardOperation, error) {
	return nil, errBoom
}

// failingAlerts fails every insert
type failingAlerts struct {
	AlertStore
}

func (failingAlerts) CreateAlert(context.Context, *models.FraudAlert) error {
	return errBoom
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "unexpected error: %v", err)
}

func seedCard(t *testing.T, store *repository.Memory, card *models.Card) *models.Card {
	t.Helper()
	if card.ID == "" {
		card.ID = "card-" + string(card.Kind)
	}
	if card.Number == "" {
		card.Number = "1234-5678-9012-3456"
	}
	if card.Status == "" {
		card.Status = models.CardStatusActive
	}
	require.NoError(t, store.CreateCard(context.Background(), card))
	return card
}
