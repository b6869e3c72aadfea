package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const clientNotFound = "client not found"

// ClientService manages the client registry
type ClientService struct {
	store ClientStore
	log   *logrus.Logger
}

// NewClientService initializes a new client service
func NewClientService(store ClientStore, log *logrus.Logger) *ClientService {
	return &ClientService{store: store, log: log}
}

func normalizeClient(name, email, phone string) (string, string, string, error) {
	name, email, phone = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(phone)
	if name == "" {
		return "", "", "", apperr.InvalidInput("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", "", "", apperr.InvalidInput("invalid email %q", email)
	}
	return name, email, phone, nil
}

// Register creates a new client
func (s *ClientService) Register(ctx context.Context, name, email, phone string) (*models.Client, error) {
	name, email, phone, err := normalizeClient(name, email, phone)
	if err != nil {
		return nil, err
	}

	client := &models.Client{ID: uuid.NewString(), Name: name, Email: email, Phone: phone}
	if err := s.store.CreateClient(ctx, client); err != nil {
		return nil, storeError(s.log, "register client", err, "")
	}
	s.log.Infof("Client registered: %s", client.ID)
	return client, nil
}

// Update replaces the contact details of a client
func (s *ClientService) Update(ctx context.Context, id, name, email, phone string) (*models.Client, error) {
	name, email, phone, err := normalizeClient(name, email, phone)
	if err != nil {
		return nil, err
	}

	client := &models.Client{ID: id, Name: name, Email: email, Phone: phone}
	if err := s.store.UpdateClient(ctx, client); err != nil {
		return nil, storeError(s.log, "update client", err, clientNotFound)
	}
	s.log.Infof("Client updated: %s", id)
	return client, nil
}

// Delete removes a client. Their cards are kept.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteClient(ctx, id); err != nil {
		return storeError(s.log, "delete client", err, clientNotFound)
	}
	s.log.Infof("Client deleted: %s", id)
	return nil
}

// Get returns one client
func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.store.FindClientByID(ctx, id)
	if err != nil {
		return nil, storeError(s.log, "find client", err, clientNotFound)
	}
	return client, nil
}

// FindByEmail returns the client registered with email
func (s *ClientService) FindByEmail(ctx context.Context, email string) (*models.Client, error) {
	client, err := s.store.FindClientByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, storeError(s.log, "find client by email", err, clientNotFound)
	}
	return client, nil
}

// FindByPhone returns the client registered with phone
func (s *ClientService) FindByPhone(ctx context.Context, phone string) (*models.Client, error) {
	client, err := s.store.FindClientByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return nil, storeError(s.log, "find client by phone", err, clientNotFound)
	}
	return client, nil
}

// List returns every client
func (s *ClientService) List(ctx context.Context) ([]*models.Client, error) {
	clients, err := s.store.FindAllClients(ctx)
	if err != nil {
		return nil, storeError(s.log, "list clients", err, "")
	}
	return clients, nil
}
