package service

import (
	"context"
	"strings"
	"time"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const operationNotFound = "operation not found"

// OperationService authorizes and records card operations
type OperationService struct {
	cards   CardStore
	ops     OperationStore
	locker  Locker
	log     *logrus.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewOperationService initializes a new operation service. When cards
// also implements Locker the authorization and the insert run under a
// card lock; otherwise they run as two independent store calls and two
// concurrent Record calls may both pass the limit check.
func NewOperationService(cards CardStore, ops OperationStore, log *logrus.Logger, m *metrics.Collector) *OperationService {
	locker, _ := cards.(Locker)
	return &OperationService{cards: cards, ops: ops, locker: locker, log: log, metrics: m, now: now}
}

// RecordPurchase records a PURCHASE operation
func (s *OperationService) RecordPurchase(ctx context.Context, cardID string, amount float64, location string) (*models.CardOperation, error) {
	return s.Record(ctx, cardID, amount, location, models.OperationPurchase)
}

// RecordWithdrawal records a WITHDRAWAL operation
func (s *OperationService) RecordWithdrawal(ctx context.Context, cardID string, amount float64, location string) (*models.CardOperation, error) {
	return s.Record(ctx, cardID, amount, location, models.OperationWithdrawal)
}

// RecordOnlinePayment records an ONLINE_PAYMENT operation
func (s *OperationService) RecordOnlinePayment(ctx context.Context, cardID string, amount float64, location string) (*models.CardOperation, error) {
	return s.Record(ctx, cardID, amount, location, models.OperationOnlinePayment)
}

// Record authorizes an operation against the card's status and limit and
// stores it. Nothing is written when authorization fails.
func (s *OperationService) Record(ctx context.Context, cardID string, amount float64, location string, opType models.OperationType) (*models.CardOperation, error) {
	if !validAmount(amount) || amount <= 0 {
		s.metrics.OperationRejected(string(apperr.KindInvalidInput))
		return nil, apperr.InvalidInput("amount must be a positive number")
	}
	if _, err := models.ParseOperationType(string(opType)); err != nil {
		s.metrics.OperationRejected(string(apperr.KindInvalidInput))
		return nil, apperr.InvalidInput("%v", err)
	}
	location = strings.TrimSpace(location)

	var (
		op  *models.CardOperation
		err error
	)
	if s.locker != nil {
		err = s.locker.WithCardLock(ctx, cardID, func(card *models.Card, insert repository.InsertOperationFunc) error {
			op, err = s.authorize(ctx, card, amount, location, opType, insert)
			return err
		})
	} else {
		var card *models.Card
		card, err = s.cards.FindCardByID(ctx, cardID)
		if err == nil {
			op, err = s.authorize(ctx, card, amount, location, opType, s.ops.CreateOperation)
		}
	}
	if err != nil {
		err = storeError(s.log, "record operation", err, cardNotFound)
		s.metrics.OperationRejected(string(apperr.KindOf(err)))
		s.log.Warnf("Operation on card %s rejected: %v", cardID, err)
		return nil, err
	}

	s.metrics.OperationRecorded(string(op.Type), op.Amount)
	s.log.Infof("Operation %s recorded on card %s: %s %.2f at %s", op.ID, cardID, op.Type, op.Amount, op.Location)
	return op, nil
}

func (s *OperationService) authorize(ctx context.Context, card *models.Card, amount float64, location string, opType models.OperationType, insert repository.InsertOperationFunc) (*models.CardOperation, error) {
	if card.Status != models.CardStatusActive {
		return nil, apperr.CardNotActive("card is not active. Status: %s", card.Status)
	}
	if !card.IsOperationAllowed(amount) {
		return nil, apperr.LimitExceeded("operation amount exceeds card limit")
	}

	op := &models.CardOperation{
		ID:       uuid.NewString(),
		Date:     s.now(),
		Amount:   amount,
		Type:     opType,
		Location: location,
		CardID:   card.ID,
	}
	if err := insert(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// Get returns one operation
func (s *OperationService) Get(ctx context.Context, id string) (*models.CardOperation, error) {
	op, err := s.ops.FindOperationByID(ctx, id)
	if err != nil {
		return nil, storeError(s.log, "find operation", err, operationNotFound)
	}
	return op, nil
}

// ByCard returns a card's operations, newest first
func (s *OperationService) ByCard(ctx context.Context, cardID string) ([]*models.CardOperation, error) {
	ops, err := s.ops.FindOperationsByCard(ctx, cardID)
	if err != nil {
		return nil, storeError(s.log, "find operations", err, "")
	}
	return ops, nil
}

// ByClient concatenates the histories of every card the client owns.
// Each card's block is newest first; blocks follow the store's card order.
func (s *OperationService) ByClient(ctx context.Context, clientID string) ([]*models.CardOperation, error) {
	cards, err := s.cards.FindCardsByClient(ctx, clientID)
	if err != nil {
		return nil, storeError(s.log, "find operations by client", err, "")
	}

	all := []*models.CardOperation{}
	for _, card := range cards {
		ops, err := s.ops.FindOperationsByCard(ctx, card.ID)
		if err != nil {
			return nil, storeError(s.log, "find operations by client", err, "")
		}
		all = append(all, ops...)
	}
	return all, nil
}

// FilterByType returns a card's operations of one type
func (s *OperationService) FilterByType(ctx context.Context, cardID string, opType models.OperationType) ([]*models.CardOperation, error) {
	if _, err := models.ParseOperationType(string(opType)); err != nil {
		return nil, apperr.InvalidInput("%v", err)
	}
	ops, err := s.ops.FindOperationsByCardAndType(ctx, cardID, opType)
	if err != nil {
		return nil, storeError(s.log, "filter operations by type", err, "")
	}
	return ops, nil
}

// FilterByDateRange returns a card's operations with from <= date <= to
func (s *OperationService) FilterByDateRange(ctx context.Context, cardID string, from, to time.Time) ([]*models.CardOperation, error) {
	if to.Before(from) {
		return nil, apperr.InvalidInput("end of range is before its start")
	}
	ops, err := s.ops.FindOperationsByCardAndDateRange(ctx, cardID, from, to)
	if err != nil {
		return nil, storeError(s.log, "filter operations by date range", err, "")
	}
	return ops, nil
}

// Delete removes an operation. Administrative use only.
func (s *OperationService) Delete(ctx context.Context, id string) error {
	if err := s.ops.DeleteOperation(ctx, id); err != nil {
		return storeError(s.log, "delete operation", err, operationNotFound)
	}
	s.log.Warnf("Operation %s deleted", id)
	return nil
}
