package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	LargeAmountThreshold  = 5000.0
	FrequencyWindow       = 30 * time.Minute
	MaxOperationsInWindow = 5
	DispersionWindow      = 60 * time.Minute
)

const alertNotFound = "alert not found"

// Finding is what a rule reports when it matches an operation
type Finding struct {
	Level       models.AlertLevel
	Description string
}

// Rule is one fraud heuristic. Evaluate returns nil when the operation
// does not match.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, op *models.CardOperation) (*Finding, error)
}

// LargeAmountRule flags a single operation above a fixed amount
type LargeAmountRule struct {
	Threshold float64
}

// Name identifies the rule in logs
func (r LargeAmountRule) Name() string { return "large_amount" }

// Evaluate reports a WARNING when the amount is strictly above Threshold
func (r LargeAmountRule) Evaluate(_ context.Context, op *models.CardOperation) (*Finding, error) {
	if op.Amount <= r.Threshold {
		return nil, nil
	}
	return &Finding{
		Level:       models.AlertLevelWarning,
		Description: "Large amount transaction: " + strconv.FormatFloat(op.Amount, 'f', -1, 64) + " at " + op.Location,
	}, nil
}

// FrequencyRule flags a card used Max or more times within Window,
// the triggering operation included
type FrequencyRule struct {
	History OperationHistory
	Window  time.Duration
	Max     int
}

// Name identifies the rule in logs
func (r FrequencyRule) Name() string { return "frequency" }

// Evaluate reports a CRITICAL when the card's operations in the window
// preceding op reach Max
func (r FrequencyRule) Evaluate(ctx context.Context, op *models.CardOperation) (*Finding, error) {
	recent, err := r.History.FindOperationsByCardAndDateRange(ctx, op.CardID, op.Date.Add(-r.Window), op.Date)
	if err != nil {
		return nil, err
	}
	if len(recent) < r.Max {
		return nil, nil
	}
	return &Finding{
		Level:       models.AlertLevelCritical,
		Description: "Multiple operations in short time window",
	}, nil
}

// DispersionRule flags a card used from more than one location within Window
type DispersionRule struct {
	History OperationHistory
	Window  time.Duration
}

// Name identifies the rule in logs
func (r DispersionRule) Name() string { return "dispersion" }

// Evaluate reports a CRITICAL when the card's operations in the window
// preceding op span more than one location
func (r DispersionRule) Evaluate(ctx context.Context, op *models.CardOperation) (*Finding, error) {
	recent, err := r.History.FindOperationsByCardAndDateRange(ctx, op.CardID, op.Date.Add(-r.Window), op.Date)
	if err != nil {
		return nil, err
	}
	locations := make(map[string]struct{}, len(recent))
	for _, o := range recent {
		locations[o.Location] = struct{}{}
	}
	if len(locations) <= 1 {
		return nil, nil
	}
	return &Finding{
		Level:       models.AlertLevelCritical,
		Description: "Operations in different locations detected: " + op.Location,
	}, nil
}

// DefaultRules returns the large-amount, frequency and dispersion rules
// in evaluation order
func DefaultRules(history OperationHistory) []Rule {
	return []Rule{
		LargeAmountRule{Threshold: LargeAmountThreshold},
		FrequencyRule{History: history, Window: FrequencyWindow, Max: MaxOperationsInWindow},
		DispersionRule{History: history, Window: DispersionWindow},
	}
}

// FraudService runs the fraud rules and manages alerts
type FraudService struct {
	alerts  AlertStore
	rules   []Rule
	log     *logrus.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewFraudService initializes a fraud service evaluating rules in order
func NewFraudService(alerts AlertStore, rules []Rule, log *logrus.Logger, m *metrics.Collector) *FraudService {
	return &FraudService{alerts: alerts, rules: rules, log: log, metrics: m, now: now}
}

// Analyze evaluates every rule against a just-recorded operation and
// stores one alert per matching rule. The first failing rule stops the
// analysis; alerts stored before the failure are still returned.
func (s *FraudService) Analyze(ctx context.Context, op *models.CardOperation) ([]*models.FraudAlert, error) {
	generated := []*models.FraudAlert{}
	for _, rule := range s.rules {
		finding, err := rule.Evaluate(ctx, op)
		if err != nil {
			s.log.Errorf("Fraud rule %s failed for operation %s: %v", rule.Name(), op.ID, err)
			return generated, apperr.Store("analyze operation", err)
		}
		if finding == nil {
			continue
		}

		alert, err := s.GenerateAlert(ctx, op.CardID, finding.Description, finding.Level)
		if err != nil {
			return generated, err
		}
		s.log.Warnf("Fraud rule %s matched operation %s on card %s", rule.Name(), op.ID, op.CardID)
		generated = append(generated, alert)
	}
	return generated, nil
}

// GenerateAlert stores a new alert. It is also the manual escalation path.
func (s *FraudService) GenerateAlert(ctx context.Context, cardID, description string, level models.AlertLevel) (*models.FraudAlert, error) {
	if strings.TrimSpace(cardID) == "" {
		return nil, apperr.InvalidInput("card id is required")
	}
	if _, err := models.ParseAlertLevel(string(level)); err != nil {
		return nil, apperr.InvalidInput("%v", err)
	}

	alert := &models.FraudAlert{
		ID:          uuid.NewString(),
		Description: description,
		Level:       level,
		CardID:      cardID,
		CreatedAt:   s.now(),
	}
	if err := s.alerts.CreateAlert(ctx, alert); err != nil {
		return nil, storeError(s.log, "generate alert", err, "")
	}
	s.metrics.AlertGenerated(string(level))
	return alert, nil
}

// Get returns one alert
func (s *FraudService) Get(ctx context.Context, id string) (*models.FraudAlert, error) {
	alert, err := s.alerts.FindAlertByID(ctx, id)
	if err != nil {
		return nil, storeError(s.log, "find alert", err, alertNotFound)
	}
	return alert, nil
}

// AlertsByCard returns a card's alerts, newest first
func (s *FraudService) AlertsByCard(ctx context.Context, cardID string) ([]*models.FraudAlert, error) {
	alerts, err := s.alerts.FindAlertsByCard(ctx, cardID)
	if err != nil {
		return nil, storeError(s.log, "get alerts", err, "")
	}
	return alerts, nil
}

// AlertsByLevel returns alerts of one level, newest first
func (s *FraudService) AlertsByLevel(ctx context.Context, level models.AlertLevel) ([]*models.FraudAlert, error) {
	if _, err := models.ParseAlertLevel(string(level)); err != nil {
		return nil, apperr.InvalidInput("%v", err)
	}
	alerts, err := s.alerts.FindAlertsByLevel(ctx, level)
	if err != nil {
		return nil, storeError(s.log, "get alerts by level", err, "")
	}
	return alerts, nil
}

// CriticalAlerts returns CRITICAL alerts, newest first
func (s *FraudService) CriticalAlerts(ctx context.Context) ([]*models.FraudAlert, error) {
	return s.AlertsByLevel(ctx, models.AlertLevelCritical)
}

// CriticalAlertsSince returns CRITICAL alerts created after since, newest first
func (s *FraudService) CriticalAlertsSince(ctx context.Context, since time.Time) ([]*models.FraudAlert, error) {
	alerts, err := s.CriticalAlerts(ctx)
	if err != nil {
		return nil, err
	}
	fresh := alerts[:0]
	for _, a := range alerts {
		if a.CreatedAt.After(since) {
			fresh = append(fresh, a)
		}
	}
	return fresh, nil
}

// AllAlerts returns every alert, newest first
func (s *FraudService) AllAlerts(ctx context.Context) ([]*models.FraudAlert, error) {
	alerts, err := s.alerts.FindAllAlerts(ctx)
	if err != nil {
		return nil, storeError(s.log, "get all alerts", err, "")
	}
	return alerts, nil
}

// Delete removes an alert. Administrative use only.
func (s *FraudService) Delete(ctx context.Context, id string) error {
	if err := s.alerts.DeleteAlert(ctx, id); err != nil {
		return storeError(s.log, "delete alert", err, alertNotFound)
	}
	s.log.Warnf("Alert %s deleted", id)
	return nil
}
