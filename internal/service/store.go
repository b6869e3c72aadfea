package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// CardStore persists cards. Lookups of unknown ids return repository.ErrNotFound.
type CardStore interface {
	CreateCard(ctx context.Context, card *models.Card) error
	FindCardByID(ctx context.Context, id string) (*models.Card, error)
	FindCardByNumber(ctx context.Context, number string) (*models.Card, error)
	FindCardsByClient(ctx context.Context, clientID string) ([]*models.Card, error)
	FindCardsByStatus(ctx context.Context, status models.CardStatus) ([]*models.Card, error)
	FindAllCards(ctx context.Context) ([]*models.Card, error)
	UpdateCardStatus(ctx context.Context, id string, status models.CardStatus) error
	DeleteCard(ctx context.Context, id string) error
}

// OperationHistory is the read side the fraud rules need
type OperationHistory interface {
	FindOperationsByCardAndDateRange(ctx context.Context, cardID string, from, to time.Time) ([]*models.CardOperation, error)
}

// OperationStore persists card operations. List methods return newest first.
type OperationStore interface {
	OperationHistory
	CreateOperation(ctx context.Context, op *models.CardOperation) error
	FindOperationByID(ctx context.Context, id string) (*models.CardOperation, error)
	FindOperationsByCard(ctx context.Context, cardID string) ([]*models.CardOperation, error)
	FindOperationsByType(ctx context.Context, opType models.OperationType) ([]*models.CardOperation, error)
	FindOperationsByDateRange(ctx context.Context, from, to time.Time) ([]*models.CardOperation, error)
	FindOperationsByCardAndType(ctx context.Context, cardID string, opType models.OperationType) ([]*models.CardOperation, error)
	FindAllOperations(ctx context.Context) ([]*models.CardOperation, error)
	DeleteOperation(ctx context.Context, id string) error
}

// AlertStore persists fraud alerts. List methods return newest first.
type AlertStore interface {
	CreateAlert(ctx context.Context, alert *models.FraudAlert) error
	FindAlertByID(ctx context.Context, id string) (*models.FraudAlert, error)
	FindAlertsByCard(ctx context.Context, cardID string) ([]*models.FraudAlert, error)
	FindAlertsByLevel(ctx context.Context, level models.AlertLevel) ([]*models.FraudAlert, error)
	FindAllAlerts(ctx context.Context) ([]*models.FraudAlert, error)
	DeleteAlert(ctx context.Context, id string) error
}

// ClientStore persists clients
type ClientStore interface {
	CreateClient(ctx context.Context, client *models.Client) error
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id string) error
	FindClientByID(ctx context.Context, id string) (*models.Client, error)
	FindClientByEmail(ctx context.Context, email string) (*models.Client, error)
	FindClientByPhone(ctx context.Context, phone string) (*models.Client, error)
	FindAllClients(ctx context.Context) ([]*models.Client, error)
}

// OperatorStore persists API operators
type OperatorStore interface {
	CreateOperator(ctx context.Context, operator *models.Operator) error
	FindOperatorByEmail(ctx context.Context, email string) (*models.Operator, error)
}

// Locker is implemented by stores able to run the limit check and the
// operation insert as one unit of work on a locked card.
type Locker interface {
	WithCardLock(ctx context.Context, cardID string, fn func(card *models.Card, insert repository.InsertOperationFunc) error) error
}

// Store is everything the services need from persistence
type Store interface {
	CardStore
	OperationStore
	AlertStore
	ClientStore
	OperatorStore
}

var (
	_ Store  = (*repository.Repository)(nil)
	_ Locker = (*repository.Repository)(nil)
	_ Store  = (*repository.Memory)(nil)
	_ Locker = (*repository.Memory)(nil)
)

// now returns the service clock truncated to what Postgres stores
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// storeError converts a persistence failure into a domain error. Missing
// rows become NotFound with notFoundMsg; anything else is logged and
// reported as StoreError.
func storeError(log *logrus.Logger, op string, err error, notFoundMsg string) error {
	if errors.Is(err, repository.ErrNotFound) && notFoundMsg != "" {
		return apperr.NotFound("%s", notFoundMsg)
	}
	if errors.Is(err, repository.ErrInvalidID) {
		return apperr.InvalidInput("%s: malformed id", op)
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return apperr.Conflict("%s: already exists", op)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	log.Errorf("Failed to %s: %v", op, err)
	return apperr.Store(op, err)
}

// validAmount reports whether amount is a finite number
func validAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0)
}
