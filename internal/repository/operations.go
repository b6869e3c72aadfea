package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/card-service/internal/models"
)

const operationSelect = `
		SELECT id, card_id, operation_date, amount, type, location
		FROM bank.operations`

// CreateOperation stores a new card operation
func (r *Repository) CreateOperation(ctx context.Context, op *models.CardOperation) error {
	query := `
		INSERT INTO bank.operations (id, card_id, operation_date, amount, type, location)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, op.ID, op.CardID, op.Date, op.Amount, string(op.Type), op.Location)
	if isInvalidID(err) {
		return ErrInvalidID
	}
	if err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}
	return nil
}

// FindOperationByID retrieves an operation by id
func (r *Repository) FindOperationByID(ctx context.Context, id string) (*models.CardOperation, error) {
	op, err := scanOperation(r.q.QueryRowContext(ctx, operationSelect+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find operation: %w", err)
	}
	return op, nil
}

// FindOperationsByCard retrieves the operations of a card, newest first
func (r *Repository) FindOperationsByCard(ctx context.Context, cardID string) ([]*models.CardOperation, error) {
	return r.findOperations(ctx, "find operations by card",
		operationSelect+` WHERE card_id = $1 ORDER BY operation_date DESC`, cardID)
}

// FindOperationsByType retrieves operations of one type, newest first
func (r *Repository) FindOperationsByType(ctx context.Context, opType models.OperationType) ([]*models.CardOperation, error) {
	return r.findOperations(ctx, "find operations by type",
		operationSelect+` WHERE type = $1 ORDER BY operation_date DESC`, string(opType))
}

// FindOperationsByDateRange retrieves operations with from <= date <= to, newest first
func (r *Repository) FindOperationsByDateRange(ctx context.Context, from, to time.Time) ([]*models.CardOperation, error) {
	return r.findOperations(ctx, "find operations by date range",
		operationSelect+` WHERE operation_date BETWEEN $1 AND $2 ORDER BY operation_date DESC`, from, to)
}

// FindOperationsByCardAndDateRange retrieves a card's operations with
// from <= date <= to, newest first
func (r *Repository) FindOperationsByCardAndDateRange(ctx context.Context, cardID string, from, to time.Time) ([]*models.CardOperation, error) {
	return r.findOperations(ctx, "find operations by card and date range",
		operationSelect+` WHERE card_id = $1 AND operation_date BETWEEN $2 AND $3 ORDER BY operation_date DESC`,
		cardID, from, to)
}

// FindOperationsByCardAndType retrieves a card's operations of one type, newest first
func (r *Repository) FindOperationsByCardAndType(ctx context.Context, cardID string, opType models.OperationType) ([]*models.CardOperation, error) {
	return r.findOperations(ctx, "find operations by card and type",
		operationSelect+` WHERE card_id = $1 AND type = $2 ORDER BY operation_date DESC`, cardID, string(opType))
}

// FindAllOperations retrieves every operation, newest first
func (r *Repository) FindAllOperations(ctx context.Context) ([]*models.CardOperation, error) {
	return r.findOperations(ctx, "find operations", operationSelect+` ORDER BY operation_date DESC`)
}

// DeleteOperation removes an operation
func (r *Repository) DeleteOperation(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM bank.operations WHERE id = $1`, id)
	if isInvalidID(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}
	return rowsAffected(res, "delete operation")
}

func scanOperation(row rowScanner) (*models.CardOperation, error) {
	var (
		op     models.CardOperation
		opType string
	)
	if err := row.Scan(&op.ID, &op.CardID, &op.Date, &op.Amount, &opType, &op.Location); err != nil {
		return nil, err
	}
	op.Type = models.OperationType(opType)
	return &op, nil
}

func (r *Repository) findOperations(ctx context.Context, op, query string, args ...any) ([]*models.CardOperation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if isInvalidID(err) {
		return []*models.CardOperation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	ops := []*models.CardOperation{}
	for rows.Next() {
		o, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to %s: %w", op, err)
		}
		ops = append(ops, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return ops, nil
}
