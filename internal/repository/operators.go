package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/card-service/internal/models"
)

// CreateOperator creates a new operator in the database
func (r *Repository) CreateOperator(ctx context.Context, operator *models.Operator) error {
	query := `
		INSERT INTO bank.operators (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.q.QueryRowContext(ctx, query, operator.ID, operator.Email, operator.PasswordHash).
		Scan(&operator.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

// FindOperatorByEmail retrieves an operator by email
func (r *Repository) FindOperatorByEmail(ctx context.Context, email string) (*models.Operator, error) {
	operator := &models.Operator{}
	query := `
		SELECT id, email, password_hash, created_at
		FROM bank.operators
		WHERE email = $1`
	err := r.q.QueryRowContext(ctx, query, email).
		Scan(&operator.ID, &operator.Email, &operator.PasswordHash, &operator.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find operator: %w", err)
	}
	return operator, nil
}
