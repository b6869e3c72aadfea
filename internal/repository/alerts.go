package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/card-service/internal/models"
)

const alertSelect = `
		SELECT id, card_id, description, level, created_at
		FROM bank.alerts`

// CreateAlert stores a new fraud alert
func (r *Repository) CreateAlert(ctx context.Context, alert *models.FraudAlert) error {
	query := `
		INSERT INTO bank.alerts (id, card_id, description, level, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, alert.ID, alert.CardID, alert.Description, string(alert.Level), alert.CreatedAt)
	if isInvalidID(err) {
		return ErrInvalidID
	}
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// FindAlertByID retrieves an alert by id
func (r *Repository) FindAlertByID(ctx context.Context, id string) (*models.FraudAlert, error) {
	alert, err := scanAlert(r.q.QueryRowContext(ctx, alertSelect+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find alert: %w", err)
	}
	return alert, nil
}

// FindAlertsByCard retrieves the alerts of a card, newest first
func (r *Repository) FindAlertsByCard(ctx context.Context, cardID string) ([]*models.FraudAlert, error) {
	return r.findAlerts(ctx, "find alerts by card", alertSelect+` WHERE card_id = $1 ORDER BY created_at DESC`, cardID)
}

// FindAlertsByLevel retrieves alerts of one level, newest first
func (r *Repository) FindAlertsByLevel(ctx context.Context, level models.AlertLevel) ([]*models.FraudAlert, error) {
	return r.findAlerts(ctx, "find alerts by level", alertSelect+` WHERE level = $1 ORDER BY created_at DESC`, string(level))
}

// FindAllAlerts retrieves every alert, newest first
func (r *Repository) FindAllAlerts(ctx context.Context) ([]*models.FraudAlert, error) {
	return r.findAlerts(ctx, "find alerts", alertSelect+` ORDER BY created_at DESC`)
}

// DeleteAlert removes an alert
func (r *Repository) DeleteAlert(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM bank.alerts WHERE id = $1`, id)
	if isInvalidID(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return rowsAffected(res, "delete alert")
}

func scanAlert(row rowScanner) (*models.FraudAlert, error) {
	var (
		alert models.FraudAlert
		level string
	)
	if err := row.Scan(&alert.ID, &alert.CardID, &alert.Description, &level, &alert.CreatedAt); err != nil {
		return nil, err
	}
	alert.Level = models.AlertLevel(level)
	return &alert, nil
}

func (r *Repository) findAlerts(ctx context.Context, op, query string, args ...any) ([]*models.FraudAlert, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if isInvalidID(err) {
		return []*models.FraudAlert{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	alerts := []*models.FraudAlert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to %s: %w", op, err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return alerts, nil
}
