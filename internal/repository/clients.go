package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/card-service/internal/models"
)

const clientSelect = `SELECT id, name, email, phone FROM bank.clients`

// CreateClient stores a new client
func (r *Repository) CreateClient(ctx context.Context, client *models.Client) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO bank.clients (id, name, email, phone) VALUES ($1, $2, $3, $4)`,
		client.ID, client.Name, client.Email, client.Phone)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if isInvalidID(err) {
		return ErrInvalidID
	}
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// UpdateClient overwrites the contact details of a client
func (r *Repository) UpdateClient(ctx context.Context, client *models.Client) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE bank.clients SET name = $1, email = $2, phone = $3 WHERE id = $4`,
		client.Name, client.Email, client.Phone, client.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if isInvalidID(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return rowsAffected(res, "update client")
}

// DeleteClient removes a client
func (r *Repository) DeleteClient(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM bank.clients WHERE id = $1`, id)
	if isInvalidID(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return rowsAffected(res, "delete client")
}

// FindClientByID retrieves a client by id
func (r *Repository) FindClientByID(ctx context.Context, id string) (*models.Client, error) {
	return r.findClient(ctx, clientSelect+` WHERE id = $1`, id)
}

// FindClientByEmail retrieves a client by email
func (r *Repository) FindClientByEmail(ctx context.Context, email string) (*models.Client, error) {
	return r.findClient(ctx, clientSelect+` WHERE email = $1`, email)
}

// FindClientByPhone retrieves a client by phone number
func (r *Repository) FindClientByPhone(ctx context.Context, phone string) (*models.Client, error) {
	return r.findClient(ctx, clientSelect+` WHERE phone = $1`, phone)
}

// FindAllClients retrieves every client ordered by name
func (r *Repository) FindAllClients(ctx context.Context) ([]*models.Client, error) {
	rows, err := r.q.QueryContext(ctx, clientSelect+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to find clients: %w", err)
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone); err != nil {
			return nil, fmt.Errorf("failed to find clients: %w", err)
		}
		clients = append(clients, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find clients: %w", err)
	}
	return clients, nil
}

func (r *Repository) findClient(ctx context.Context, query string, arg string) (*models.Client, error) {
	client := &models.Client{}
	err := r.q.QueryRowContext(ctx, query, arg).Scan(&client.ID, &client.Name, &client.Email, &client.Phone)
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return client, nil
}
