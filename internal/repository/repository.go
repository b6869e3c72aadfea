package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/card-service/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a lookup by id matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalidID is returned when an insert references an id that is not a UUID
	ErrInvalidID = errors.New("malformed id")
)

// InsertOperationFunc persists an operation inside the caller's unit of work
type InsertOperationFunc func(ctx context.Context, op *models.CardOperation) error

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides PostgreSQL backed storage for cards, operations,
// alerts, clients and operators
type Repository struct {
	db         *sql.DB
	q          querier
	key        []byte
	hmacSecret string
}

// NewRepository initializes a new repository. Card numbers are stored
// AES encrypted with key and indexed by an HMAC keyed with hmacSecret.
func NewRepository(db *sql.DB, key []byte, hmacSecret string) *Repository {
	return &Repository{db: db, q: db, key: key, hmacSecret: hmacSecret}
}

// Ping checks database connectivity
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WithCardLock loads the card FOR UPDATE and runs fn in the same
// transaction. insert writes through that transaction. The transaction
// commits only when fn returns nil.
func (r *Repository) WithCardLock(ctx context.Context, cardID string, fn func(card *models.Card, insert InsertOperationFunc) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txRepo := &Repository{db: r.db, q: tx, key: r.key, hmacSecret: r.hmacSecret}
	card, err := txRepo.findCard(ctx, "find card", cardSelect+` WHERE id = $1 FOR UPDATE`, cardID)
	if err != nil {
		return err
	}
	if err := fn(card, txRepo.CreateOperation); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// isInvalidID reports whether Postgres rejected a parameter as invalid text
// for its column type. Ids are UUID columns, so a malformed id ends up here.
func isInvalidID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}

func rowsAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
