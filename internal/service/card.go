package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const cardNotFound = "card not found"

// CardService handles the card lifecycle
type CardService struct {
	store   CardStore
	log     *logrus.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewCardService initializes a new card service
func NewCardService(store CardStore, log *logrus.Logger, m *metrics.Collector) *CardService {
	return &CardService{store: store, log: log, metrics: m, now: now}
}

// Create issues a new ACTIVE card. secondaryLimit is the interest rate of
// a CREDIT card and is ignored for other kinds; nil means 0.
func (s *CardService) Create(ctx context.Context, clientID string, kind models.CardKind, primaryLimit float64, secondaryLimit *float64) (*models.Card, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, apperr.InvalidInput("client id is required")
	}
	if !validAmount(primaryLimit) || primaryLimit < 0 {
		return nil, apperr.InvalidInput("limit must be a non-negative number")
	}

	var card *models.Card
	switch kind {
	case models.CardKindDebit:
		card = models.NewDebitCard(clientID, primaryLimit)
	case models.CardKindCredit:
		rate := 0.0
		if secondaryLimit != nil {
			rate = *secondaryLimit
		}
		if !validAmount(rate) || rate < 0 {
			return nil, apperr.InvalidInput("interest rate must be a non-negative number")
		}
		card = models.NewCreditCard(clientID, primaryLimit, rate)
	case models.CardKindPrepaid:
		card = models.NewPrepaidCard(clientID, primaryLimit)
	default:
		return nil, apperr.InvalidInput("unknown card kind %q", kind)
	}

	if err := s.issue(ctx, card); err != nil {
		return nil, err
	}
	s.log.Infof("Card %s (%s) created for client %s", card.ID, card.Kind, card.ClientID)
	return card, nil
}

// issue assigns identity, number and expiration, then stores the card
func (s *CardService) issue(ctx context.Context, card *models.Card) error {
	number, err := utils.GenerateCardNumber()
	if err != nil {
		return fmt.Errorf("failed to generate card number: %w", err)
	}
	card.ID = uuid.NewString()
	card.Number = number
	card.ExpirationDate = utils.GenerateExpiryDate(s.now())
	card.Status = models.CardStatusActive

	if err := s.store.CreateCard(ctx, card); err != nil {
		return storeError(s.log, "create card", err, "")
	}
	return nil
}

// Activate sets the card status to ACTIVE
func (s *CardService) Activate(ctx context.Context, cardID string) (*models.Card, error) {
	return s.transition(ctx, cardID, models.CardStatusActive)
}

// Suspend sets the card status to SUSPENDED
func (s *CardService) Suspend(ctx context.Context, cardID string) (*models.Card, error) {
	return s.transition(ctx, cardID, models.CardStatusSuspended)
}

// Block sets the card status to BLOCKED
func (s *CardService) Block(ctx context.Context, cardID string) (*models.Card, error) {
	return s.transition(ctx, cardID, models.CardStatusBlocked)
}

// transition moves a card to status. Every status may move to every
// other one, including itself.
func (s *CardService) transition(ctx context.Context, cardID string, status models.CardStatus) (*models.Card, error) {
	card, err := s.store.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, storeError(s.log, "find card", err, cardNotFound)
	}
	if err := s.store.UpdateCardStatus(ctx, cardID, status); err != nil {
		return nil, storeError(s.log, "update card status", err, cardNotFound)
	}

	previous := card.Status
	card.Status = status
	s.metrics.CardTransition(string(status))
	s.log.Infof("Card %s status changed: %s -> %s", cardID, previous, status)
	return card, nil
}

// Renew issues a new card with the same client and limits as the source.
// The source card is left untouched.
func (s *CardService) Renew(ctx context.Context, cardID string) (*models.Card, error) {
	source, err := s.store.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, storeError(s.log, "find card", err, cardNotFound)
	}

	renewed := source.CloneLimits()
	if err := s.issue(ctx, renewed); err != nil {
		return nil, err
	}
	s.log.Infof("Card %s renewed as %s", source.ID, renewed.ID)
	return renewed, nil
}

// VerifyLimit reports whether an operation of amount would be authorized
// on the card right now
func (s *CardService) VerifyLimit(ctx context.Context, cardID string, amount float64) (bool, error) {
	if !validAmount(amount) {
		return false, apperr.InvalidInput("amount must be a number")
	}
	card, err := s.store.FindCardByID(ctx, cardID)
	if err != nil {
		return false, storeError(s.log, "find card", err, cardNotFound)
	}
	if card.Status != models.CardStatusActive {
		return false, nil
	}
	return card.IsOperationAllowed(amount), nil
}

// Get returns one card
func (s *CardService) Get(ctx context.Context, cardID string) (*models.Card, error) {
	card, err := s.store.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, storeError(s.log, "find card", err, cardNotFound)
	}
	return card, nil
}

// GetByNumber returns the card carrying number
func (s *CardService) GetByNumber(ctx context.Context, number string) (*models.Card, error) {
	if !utils.ValidCardNumber(number) {
		return nil, apperr.InvalidInput("card number must look like NNNN-NNNN-NNNN-NNNN")
	}
	card, err := s.store.FindCardByNumber(ctx, number)
	if err != nil {
		return nil, storeError(s.log, "find card by number", err, cardNotFound)
	}
	return card, nil
}

// ListByClient returns the cards of a client
func (s *CardService) ListByClient(ctx context.Context, clientID string) ([]*models.Card, error) {
	cards, err := s.store.FindCardsByClient(ctx, clientID)
	if err != nil {
		return nil, storeError(s.log, "find cards", err, "")
	}
	return cards, nil
}

// ListByStatus returns the cards in one status
func (s *CardService) ListByStatus(ctx context.Context, status models.CardStatus) ([]*models.Card, error) {
	if _, err := models.ParseCardStatus(string(status)); err != nil {
		return nil, apperr.InvalidInput("%v", err)
	}
	cards, err := s.store.FindCardsByStatus(ctx, status)
	if err != nil {
		return nil, storeError(s.log, "find cards by status", err, "")
	}
	return cards, nil
}

// List returns every card
func (s *CardService) List(ctx context.Context) ([]*models.Card, error) {
	cards, err := s.store.FindAllCards(ctx)
	if err != nil {
		return nil, storeError(s.log, "find cards", err, "")
	}
	return cards, nil
}

// Delete removes a card. Its operations and alerts are kept.
func (s *CardService) Delete(ctx context.Context, cardID string) error {
	if err := s.store.DeleteCard(ctx, cardID); err != nil {
		return storeError(s.log, "delete card", err, cardNotFound)
	}
	s.log.Infof("Card %s deleted", cardID)
	return nil
}
