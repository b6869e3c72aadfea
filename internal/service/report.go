package service

import (
	"context"
	"sort"
	"time"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/sirupsen/logrus"
)

const topCardsLimit = 5

// KeyRateProvider returns the central bank key rate in percent
type KeyRateProvider interface {
	GetKeyRate(ctx context.Context) (float64, error)
}

// ReportService builds read-only rollups over cards, operations and alerts
type ReportService struct {
	cards  CardStore
	ops    OperationStore
	alerts AlertStore
	rates  KeyRateProvider
	log    *logrus.Logger
}

// NewReportService initializes a new report service. rates may be nil,
// in which case CreditRateReview is unavailable.
func NewReportService(cards CardStore, ops OperationStore, alerts AlertStore, rates KeyRateProvider, log *logrus.Logger) *ReportService {
	return &ReportService{cards: cards, ops: ops, alerts: alerts, rates: rates, log: log}
}

// TopCards returns the five cards with the most operations
func (s *ReportService) TopCards(ctx context.Context) ([]models.CardUsage, error) {
	cards, err := s.cards.FindAllCards(ctx)
	if err != nil {
		return nil, storeError(s.log, "get top used cards", err, "")
	}

	usage := make([]models.CardUsage, 0, len(cards))
	for _, card := range cards {
		ops, err := s.ops.FindOperationsByCard(ctx, card.ID)
		if err != nil {
			return nil, storeError(s.log, "get top used cards", err, "")
		}
		usage = append(usage, models.CardUsage{Card: card, OperationCount: len(ops)})
	}

	sort.SliceStable(usage, func(i, j int) bool { return usage[i].OperationCount > usage[j].OperationCount })
	if len(usage) > topCardsLimit {
		usage = usage[:topCardsLimit]
	}
	return usage, nil
}

// MonthlyStatistics counts the operations of one calendar month (UTC) by type
func (s *ReportService) MonthlyStatistics(ctx context.Context, month, year int) (*models.MonthlyStats, error) {
	if month < 1 || month > 12 {
		return nil, apperr.InvalidInput("month must be between 1 and 12")
	}
	if year < 1 {
		return nil, apperr.InvalidInput("year must be positive")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Microsecond)
	ops, err := s.ops.FindOperationsByDateRange(ctx, from, to)
	if err != nil {
		return nil, storeError(s.log, "get monthly statistics", err, "")
	}

	stats := &models.MonthlyStats{Month: month, Year: year, ByType: make(map[models.OperationType]int, len(models.OperationTypes))}
	for _, t := range models.OperationTypes {
		stats.ByType[t] = 0
	}
	for _, op := range ops {
		stats.ByType[op.Type]++
	}
	return stats, nil
}

// BlockedCards returns every BLOCKED card
func (s *ReportService) BlockedCards(ctx context.Context) ([]*models.Card, error) {
	cards, err := s.cards.FindCardsByStatus(ctx, models.CardStatusBlocked)
	if err != nil {
		return nil, storeError(s.log, "get blocked cards", err, "")
	}
	return cards, nil
}

// SuspiciousCards returns every card with at least one CRITICAL alert
func (s *ReportService) SuspiciousCards(ctx context.Context) ([]*models.Card, error) {
	critical, err := s.alerts.FindAlertsByLevel(ctx, models.AlertLevelCritical)
	if err != nil {
		return nil, storeError(s.log, "get suspicious cards", err, "")
	}
	flagged := make(map[string]struct{}, len(critical))
	for _, a := range critical {
		flagged[a.CardID] = struct{}{}
	}

	cards, err := s.cards.FindAllCards(ctx)
	if err != nil {
		return nil, storeError(s.log, "get suspicious cards", err, "")
	}
	suspicious := []*models.Card{}
	for _, card := range cards {
		if _, ok := flagged[card.ID]; ok {
			suspicious = append(suspicious, card)
		}
	}
	return suspicious, nil
}

// ClientStatistics summarizes the spending of one client
func (s *ReportService) ClientStatistics(ctx context.Context, clientID string) (*models.ClientStats, error) {
	cards, err := s.cards.FindCardsByClient(ctx, clientID)
	if err != nil {
		return nil, storeError(s.log, "get client statistics", err, "")
	}

	stats := &models.ClientStats{
		ClientID:          clientID,
		TotalCards:        len(cards),
		OperationsPerCard: make(map[string]int, len(cards)),
		AmountPerCard:     make(map[string]float64, len(cards)),
	}
	for _, card := range cards {
		ops, err := s.ops.FindOperationsByCard(ctx, card.ID)
		if err != nil {
			return nil, storeError(s.log, "get client statistics", err, "")
		}
		amount := 0.0
		for _, op := range ops {
			amount += op.Amount
		}
		stats.TotalOperations += len(ops)
		stats.TotalAmount += amount
		stats.OperationsPerCard[card.Number] += len(ops)
		stats.AmountPerCard[card.Number] += amount
	}
	return stats, nil
}

// CreditRateReview lists credit cards whose interest rate is below the
// current central bank key rate
func (s *ReportService) CreditRateReview(ctx context.Context) (*models.CreditRateReview, error) {
	if s.rates == nil {
		return nil, apperr.InvalidInput("key rate provider is not configured")
	}
	keyRate, err := s.rates.GetKeyRate(ctx)
	if err != nil {
		s.log.Errorf("Failed to get key rate: %v", err)
		return nil, apperr.Store("get key rate", err)
	}

	cards, err := s.cards.FindAllCards(ctx)
	if err != nil {
		return nil, storeError(s.log, "get credit rate review", err, "")
	}
	review := &models.CreditRateReview{KeyRate: keyRate, BelowRate: []*models.Card{}}
	for _, card := range cards {
		if card.Kind != models.CardKindCredit || card.Credit == nil {
			continue
		}
		review.TotalCards++
		if card.Credit.InterestRate*100 < keyRate {
			review.BelowRate = append(review.BelowRate, card)
		}
	}
	return review, nil
}
