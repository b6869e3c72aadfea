package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/utils"
)

const cardSelect = `
		SELECT id, number_encrypted, kind, expiration_date, status, client_id,
			daily_limit, monthly_limit, interest_rate, balance
		FROM bank.cards`

// CreateCard stores a new card. The number is encrypted at rest.
func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	encrypted, err := utils.Encrypt(card.Number, r.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt card number: %w", err)
	}

	var daily, monthly, rate, balance sql.NullFloat64
	switch card.Kind {
	case models.CardKindDebit:
		daily = sql.NullFloat64{Float64: card.Debit.DailyLimit, Valid: true}
	case models.CardKindCredit:
		monthly = sql.NullFloat64{Float64: card.Credit.MonthlyLimit, Valid: true}
		rate = sql.NullFloat64{Float64: card.Credit.InterestRate, Valid: true}
	case models.CardKindPrepaid:
		balance = sql.NullFloat64{Float64: card.Prepaid.Balance, Valid: true}
	}

	query := `
		INSERT INTO bank.cards (id, number_encrypted, number_hmac, kind, expiration_date, status, client_id,
			daily_limit, monthly_limit, interest_rate, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CURRENT_TIMESTAMP)`
	_, err = r.q.ExecContext(ctx, query,
		card.ID, encrypted, utils.GenerateHMAC(card.Number, r.hmacSecret), string(card.Kind),
		card.ExpirationDate, string(card.Status), card.ClientID,
		daily, monthly, rate, balance)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if isInvalidID(err) {
		return ErrInvalidID
	}
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// FindCardByID retrieves a card by id
func (r *Repository) FindCardByID(ctx context.Context, id string) (*models.Card, error) {
	return r.findCard(ctx, "find card", cardSelect+` WHERE id = $1`, id)
}

// FindCardByNumber retrieves a card by its clear-text number. When
// several cards share the number the oldest one wins.
func (r *Repository) FindCardByNumber(ctx context.Context, number string) (*models.Card, error) {
	return r.findCard(ctx, "find card by number",
		cardSelect+` WHERE number_hmac = $1 ORDER BY created_at LIMIT 1`,
		utils.GenerateHMAC(number, r.hmacSecret))
}

// FindCardsByClient retrieves every card owned by a client
func (r *Repository) FindCardsByClient(ctx context.Context, clientID string) ([]*models.Card, error) {
	return r.findCards(ctx, "find cards by client", cardSelect+` WHERE client_id = $1 ORDER BY created_at`, clientID)
}

// FindCardsByStatus retrieves every card in the given status
func (r *Repository) FindCardsByStatus(ctx context.Context, status models.CardStatus) ([]*models.Card, error) {
	return r.findCards(ctx, "find cards by status", cardSelect+` WHERE status = $1 ORDER BY created_at`, string(status))
}

// FindAllCards retrieves every card
func (r *Repository) FindAllCards(ctx context.Context) ([]*models.Card, error) {
	return r.findCards(ctx, "find cards", cardSelect+` ORDER BY created_at`)
}

// UpdateCardStatus changes the status of one card
func (r *Repository) UpdateCardStatus(ctx context.Context, id string, status models.CardStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE bank.cards SET status = $1 WHERE id = $2`, string(status), id)
	if isInvalidID(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}
	return rowsAffected(res, "update card status")
}

// DeleteCard removes a card. Operations and alerts referencing it are kept.
func (r *Repository) DeleteCard(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM bank.cards WHERE id = $1`, id)
	if isInvalidID(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return rowsAffected(res, "delete card")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanCard(row rowScanner) (*models.Card, error) {
	var (
		card                          models.Card
		encrypted, kind, status       string
		daily, monthly, rate, balance sql.NullFloat64
	)
	if err := row.Scan(&card.ID, &encrypted, &kind, &card.ExpirationDate, &status, &card.ClientID,
		&daily, &monthly, &rate, &balance); err != nil {
		return nil, err
	}

	number, err := utils.Decrypt(encrypted, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt card number: %w", err)
	}
	card.Number = number
	card.Kind = models.CardKind(kind)
	card.Status = models.CardStatus(status)

	switch card.Kind {
	case models.CardKindDebit:
		card.Debit = &models.DebitLimits{DailyLimit: daily.Float64}
	case models.CardKindCredit:
		card.Credit = &models.CreditLimits{MonthlyLimit: monthly.Float64, InterestRate: rate.Float64}
	case models.CardKindPrepaid:
		card.Prepaid = &models.PrepaidLimits{Balance: balance.Float64}
	default:
		return nil, fmt.Errorf("unknown card kind %q in row %s", kind, card.ID)
	}
	return &card, nil
}

func (r *Repository) findCard(ctx context.Context, op, query string, args ...any) (*models.Card, error) {
	card, err := r.scanCard(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return card, nil
}

func (r *Repository) findCards(ctx context.Context, op, query string, args ...any) ([]*models.Card, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if isInvalidID(err) {
		return []*models.Card{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	cards := []*models.Card{}
	for rows.Next() {
		card, err := r.scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to %s: %w", op, err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return cards, nil
}
