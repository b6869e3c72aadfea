package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/card-service/internal/models"
)

// Memory is an in-process store with the same contract as Repository.
// It backs local runs with STORE=memory and the service tests.
type Memory struct {
	mu        sync.RWMutex
	lockMu    sync.Mutex
	seq       int64
	cards     map[string]*memCard
	ops       map[string]*memOp
	alerts    map[string]*memAlert
	clients   map[string]*models.Client
	operators map[string]*models.Operator
}

type memCard struct {
	card *models.Card
	seq  int64
}

type memOp struct {
	op  *models.CardOperation
	seq int64
}

type memAlert struct {
	alert *models.FraudAlert
	seq   int64
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		cards:     make(map[string]*memCard),
		ops:       make(map[string]*memOp),
		alerts:    make(map[string]*memAlert),
		clients:   make(map[string]*models.Client),
		operators: make(map[string]*models.Operator),
	}
}

func (m *Memory) next() int64 {
	m.seq++
	return m.seq
}

func copyCard(c *models.Card) *models.Card {
	clone := c.CloneLimits()
	clone.ID = c.ID
	clone.Number = c.Number
	clone.ExpirationDate = c.ExpirationDate
	clone.Status = c.Status
	return clone
}

func copyOp(op *models.CardOperation) *models.CardOperation {
	o := *op
	return &o
}

func copyAlert(a *models.FraudAlert) *models.FraudAlert {
	al := *a
	return &al
}

// Ping always succeeds
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// WithCardLock serializes fn against every other locked call on the store
func (m *Memory) WithCardLock(ctx context.Context, cardID string, fn func(card *models.Card, insert InsertOperationFunc) error) error {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()

	card, err := m.FindCardByID(ctx, cardID)
	if err != nil {
		return err
	}
	return fn(card, m.CreateOperation)
}

// Cards

func (m *Memory) CreateCard(ctx context.Context, card *models.Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[card.ID]; ok {
		return ErrDuplicate
	}
	m.cards[card.ID] = &memCard{card: copyCard(card), seq: m.next()}
	return nil
}

func (m *Memory) FindCardByID(ctx context.Context, id string) (*models.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCard(c.card), nil
}

func (m *Memory) FindCardByNumber(ctx context.Context, number string) (*models.Card, error) {
	cards := m.filterCards(func(c *models.Card) bool { return c.Number == number })
	if len(cards) == 0 {
		return nil, ErrNotFound
	}
	return cards[0], nil
}

func (m *Memory) FindCardsByClient(ctx context.Context, clientID string) ([]*models.Card, error) {
	return m.filterCards(func(c *models.Card) bool { return c.ClientID == clientID }), nil
}

func (m *Memory) FindCardsByStatus(ctx context.Context, status models.CardStatus) ([]*models.Card, error) {
	return m.filterCards(func(c *models.Card) bool { return c.Status == status }), nil
}

func (m *Memory) FindAllCards(ctx context.Context) ([]*models.Card, error) {
	return m.filterCards(func(*models.Card) bool { return true }), nil
}

func (m *Memory) UpdateCardStatus(ctx context.Context, id string, status models.CardStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return ErrNotFound
	}
	c.card.Status = status
	return nil
}

func (m *Memory) DeleteCard(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return ErrNotFound
	}
	delete(m.cards, id)
	return nil
}

// filterCards returns matching cards in creation order
func (m *Memory) filterCards(keep func(*models.Card) bool) []*models.Card {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := make([]*memCard, 0)
	for _, c := range m.cards {
		if keep(c.card) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	out := make([]*models.Card, len(matched))
	for i, c := range matched {
		out[i] = copyCard(c.card)
	}
	return out
}

// Operations

func (m *Memory) CreateOperation(ctx context.Context, op *models.CardOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ops[op.ID]; ok {
		return ErrDuplicate
	}
	m.ops[op.ID] = &memOp{op: copyOp(op), seq: m.next()}
	return nil
}

func (m *Memory) FindOperationByID(ctx context.Context, id string) (*models.CardOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.ops[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOp(o.op), nil
}

func (m *Memory) FindOperationsByCard(ctx context.Context, cardID string) ([]*models.CardOperation, error) {
	return m.filterOps(func(o *models.CardOperation) bool { return o.CardID == cardID }), nil
}

func (m *Memory) FindOperationsByType(ctx context.Context, opType models.OperationType) ([]*models.CardOperation, error) {
	return m.filterOps(func(o *models.CardOperation) bool { return o.Type == opType }), nil
}

func (m *Memory) FindOperationsByDateRange(ctx context.Context, from, to time.Time) ([]*models.CardOperation, error) {
	return m.filterOps(func(o *models.CardOperation) bool { return inRange(o.Date, from, to) }), nil
}

func (m *Memory) FindOperationsByCardAndDateRange(ctx context.Context, cardID string, from, to time.Time) ([]*models.CardOperation, error) {
	return m.filterOps(func(o *models.CardOperation) bool {
		return o.CardID == cardID && inRange(o.Date, from, to)
	}), nil
}

func (m *Memory) FindOperationsByCardAndType(ctx context.Context, cardID string, opType models.OperationType) ([]*models.CardOperation, error) {
	return m.filterOps(func(o *models.CardOperation) bool { return o.CardID == cardID && o.Type == opType }), nil
}

func (m *Memory) FindAllOperations(ctx context.Context) ([]*models.CardOperation, error) {
	return m.filterOps(func(*models.CardOperation) bool { return true }), nil
}

func (m *Memory) DeleteOperation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ops[id]; !ok {
		return ErrNotFound
	}
	delete(m.ops, id)
	return nil
}

// inRange is inclusive on both ends, like SQL BETWEEN
func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

// filterOps returns matching operations newest first
func (m *Memory) filterOps(keep func(*models.CardOperation) bool) []*models.CardOperation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := make([]*memOp, 0)
	for _, o := range m.ops {
		if keep(o.op) {
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].op.Date.Equal(matched[j].op.Date) {
			return matched[i].op.Date.After(matched[j].op.Date)
		}
		return matched[i].seq > matched[j].seq
	})
	out := make([]*models.CardOperation, len(matched))
	for i, o := range matched {
		out[i] = copyOp(o.op)
	}
	return out
}

// Alerts

func (m *Memory) CreateAlert(ctx context.Context, alert *models.FraudAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[alert.ID]; ok {
		return ErrDuplicate
	}
	m.alerts[alert.ID] = &memAlert{alert: copyAlert(alert), seq: m.next()}
	return nil
}

func (m *Memory) FindAlertByID(ctx context.Context, id string) (*models.FraudAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAlert(a.alert), nil
}

func (m *Memory) FindAlertsByCard(ctx context.Context, cardID string) ([]*models.FraudAlert, error) {
	return m.filterAlerts(func(a *models.FraudAlert) bool { return a.CardID == cardID }), nil
}

func (m *Memory) FindAlertsByLevel(ctx context.Context, level models.AlertLevel) ([]*models.FraudAlert, error) {
	return m.filterAlerts(func(a *models.FraudAlert) bool { return a.Level == level }), nil
}

func (m *Memory) FindAllAlerts(ctx context.Context) ([]*models.FraudAlert, error) {
	return m.filterAlerts(func(*models.FraudAlert) bool { return true }), nil
}

func (m *Memory) DeleteAlert(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[id]; !ok {
		return ErrNotFound
	}
	delete(m.alerts, id)
	return nil
}

// filterAlerts returns matching alerts newest first
func (m *Memory) filterAlerts(keep func(*models.FraudAlert) bool) []*models.FraudAlert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := make([]*memAlert, 0)
	for _, a := range m.alerts {
		if keep(a.alert) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].alert.CreatedAt.Equal(matched[j].alert.CreatedAt) {
			return matched[i].alert.CreatedAt.After(matched[j].alert.CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})
	out := make([]*models.FraudAlert, len(matched))
	for i, a := range matched {
		out[i] = copyAlert(a.alert)
	}
	return out
}

// Clients

func (m *Memory) CreateClient(ctx context.Context, client *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.ID == client.ID || c.Email == client.Email {
			return ErrDuplicate
		}
	}
	c := *client
	m.clients[client.ID] = &c
	return nil
}

func (m *Memory) UpdateClient(ctx context.Context, client *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client.ID]; !ok {
		return ErrNotFound
	}
	for _, c := range m.clients {
		if c.ID != client.ID && c.Email == client.Email {
			return ErrDuplicate
		}
	}
	c := *client
	m.clients[client.ID] = &c
	return nil
}

func (m *Memory) DeleteClient(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

func (m *Memory) FindClientByID(ctx context.Context, id string) (*models.Client, error) {
	return m.findClient(func(c *models.Client) bool { return c.ID == id })
}

func (m *Memory) FindClientByEmail(ctx context.Context, email string) (*models.Client, error) {
	return m.findClient(func(c *models.Client) bool { return c.Email == email })
}

func (m *Memory) FindClientByPhone(ctx context.Context, phone string) (*models.Client, error) {
	return m.findClient(func(c *models.Client) bool { return c.Phone == phone })
}

func (m *Memory) FindAllClients(ctx context.Context) ([]*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Client, 0, len(m.clients))
	for _, c := range m.clients {
		cl := *c
		out = append(out, &cl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) findClient(match func(*models.Client) bool) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.clients {
		if match(c) {
			cl := *c
			return &cl, nil
		}
	}
	return nil, ErrNotFound
}

// Operators

func (m *Memory) CreateOperator(ctx context.Context, operator *models.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.operators[operator.Email]; ok {
		return ErrDuplicate
	}
	operator.CreatedAt = time.Now().UTC()
	o := *operator
	m.operators[operator.Email] = &o
	return nil
}

func (m *Memory) FindOperatorByEmail(ctx context.Context, email string) (*models.Operator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.operators[email]
	if !ok {
		return nil, ErrNotFound
	}
	op := *o
	return &op, nil
}
