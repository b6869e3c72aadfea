package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dan9191/card-service/internal/middleware"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/Dan9191/card-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRate float64

func (f fixedRate) GetKeyRate(context.Context) (float64, error) { return float64(f), nil }

type testAPI struct {
	t      *testing.T
	router *mux.Router
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := repository.NewMemory()

	auth := service.NewAuthService(store, log, "test-secret")
	h := NewHandler(Services{
		Cards:      service.NewCardService(store, log, nil),
		Operations: service.NewOperationService(store, store, log, nil),
		Fraud:      service.NewFraudService(store, service.DefaultRules(store), log, nil),
		Reports:    service.NewReportService(store, store, store, fixedRate(21), log),
		Clients:    service.NewClientService(store, log),
		Auth:       auth,
		KeyRate:    fixedRate(21),
		Ping:       store.Ping,
	}, log)

	r := mux.NewRouter()
	h.Routes(r, middleware.AuthMiddleware(auth, log))
	api := &testAPI{t: t, router: r}

	api.do(http.MethodPost, "/operators/register", map[string]string{"email": "teller@bank.example", "password": "long enough"}, http.StatusCreated, nil)
	var login map[string]string
	api.do(http.MethodPost, "/login", map[string]string{"email": "teller@bank.example", "password": "long enough"}, http.StatusOK, &login)
	api.token = login["token"]
	require.NotEmpty(t, api.token)
	return api
}

func (a *testAPI) do(method, path string, body any, wantStatus int, out any) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	require.Equal(a.t, wantStatus, rec.Code, "%s %s: %s", method, path, rec.Body.String())
	if out != nil {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), out))
	}
}

func (a *testAPI) createCard(kind string, limit float64) *models.Card {
	var card models.Card
	a.do(http.MethodPost, "/cards", map[string]any{"client_id": "client-1", "kind": kind, "limit": limit}, http.StatusCreated, &card)
	return &card
}

func TestRequiresToken(t *testing.T) {
	api := newTestAPI(t)
	api.token = ""
	api.do(http.MethodGet, "/cards", nil, http.StatusUnauthorized, nil)

	api.token = "forged"
	api.do(http.MethodGet, "/cards", nil, http.StatusUnauthorized, nil)

	api.token = ""
	api.do(http.MethodGet, "/health", nil, http.StatusOK, nil)
}

func TestLoginWrongPassword(t *testing.T) {
	api := newTestAPI(t)
	var resp map[string]string
	api.do(http.MethodPost, "/login", map[string]string{"email": "teller@bank.example", "password": "nope nope"}, http.StatusUnauthorized, &resp)
	assert.Equal(t, "unauthorized", resp["kind"])
}

func TestCardLifecycleAndOperations(t *testing.T) {
	api := newTestAPI(t)
	card := api.createCard("debit", 100)
	assert.Equal(t, models.CardStatusActive, card.Status)
	assert.Equal(t, models.CardKindDebit, card.Kind)

	var recorded recordOperationResponse
	api.do(http.MethodPost, "/cards/"+card.ID+"/operations", map[string]any{"type": "PURCHASE", "amount": 100, "location": "Paris"}, http.StatusCreated, &recorded)
	assert.Equal(t, 100.0, recorded.Operation.Amount)
	assert.Empty(t, recorded.Alerts)

	var errResp map[string]string
	api.do(http.MethodPost, "/cards/"+card.ID+"/operations", map[string]any{"type": "PURCHASE", "amount": 100.5, "location": "Paris"}, http.StatusUnprocessableEntity, &errResp)
	assert.Equal(t, "operation amount exceeds card limit", errResp["error"])

	var verify map[string]bool
	api.do(http.MethodGet, "/cards/"+card.ID+"/verify?amount=100", nil, http.StatusOK, &verify)
	assert.True(t, verify["allowed"])

	var blocked models.Card
	api.do(http.MethodPost, "/cards/"+card.ID+"/block", nil, http.StatusOK, &blocked)
	assert.Equal(t, models.CardStatusBlocked, blocked.Status)

	api.do(http.MethodPost, "/cards/"+card.ID+"/operations", map[string]any{"type": "PURCHASE", "amount": 1, "location": "Paris"}, http.StatusConflict, &errResp)
	assert.Equal(t, "card is not active. Status: BLOCKED", errResp["error"])

	var renewed models.Card
	api.do(http.MethodPost, "/cards/"+card.ID+"/renew", nil, http.StatusCreated, &renewed)
	assert.NotEqual(t, card.ID, renewed.ID)
	assert.Equal(t, models.CardStatusActive, renewed.Status)

	var ops []*models.CardOperation
	api.do(http.MethodGet, "/cards/"+card.ID+"/operations?type=PURCHASE", nil, http.StatusOK, &ops)
	assert.Len(t, ops, 1)

	var byClient []*models.CardOperation
	api.do(http.MethodGet, "/clients/client-1/operations", nil, http.StatusOK, &byClient)
	assert.Len(t, byClient, 1)

	api.do(http.MethodGet, "/operations/"+recorded.Operation.ID, nil, http.StatusOK, nil)
	api.do(http.MethodDelete, "/operations/"+recorded.Operation.ID, nil, http.StatusNoContent, nil)
	api.do(http.MethodGet, "/operations/"+recorded.Operation.ID, nil, http.StatusNotFound, nil)
}

func TestRecordOperationRaisesAlerts(t *testing.T) {
	api := newTestAPI(t)
	card := api.createCard("CREDIT", 10000)

	var first, second recordOperationResponse
	api.do(http.MethodPost, "/cards/"+card.ID+"/operations", map[string]any{"type": "ONLINE_PAYMENT", "amount": 6000, "location": "Paris"}, http.StatusCreated, &first)
	require.Len(t, first.Alerts, 1)
	assert.Equal(t, models.AlertLevelWarning, first.Alerts[0].Level)

	api.do(http.MethodPost, "/cards/"+card.ID+"/operations", map[string]any{"type": "PURCHASE", "amount": 10, "location": "Tokyo"}, http.StatusCreated, &second)
	require.Len(t, second.Alerts, 1)
	assert.Equal(t, "Operations in different locations detected: Tokyo", second.Alerts[0].Description)

	var alerts []*models.FraudAlert
	api.do(http.MethodGet, "/cards/"+card.ID+"/alerts", nil, http.StatusOK, &alerts)
	assert.Len(t, alerts, 2)

	api.do(http.MethodGet, "/alerts?level=critical", nil, http.StatusOK, &alerts)
	assert.Len(t, alerts, 1)

	var suspicious []*models.Card
	api.do(http.MethodGet, "/reports/suspicious", nil, http.StatusOK, &suspicious)
	require.Len(t, suspicious, 1)
	assert.Equal(t, card.ID, suspicious[0].ID)
}

func TestValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	card := api.createCard("PREPAID", 50)

	api.do(http.MethodPost, "/cards", map[string]any{"client_id": "client-1", "kind": "GOLD", "limit": 1}, http.StatusBadRequest, nil)
	api.do(http.MethodPost, "/cards/"+card.ID+"/operations", map[string]any{"type": "REFUND", "amount": 1}, http.StatusBadRequest, nil)
	api.do(http.MethodPost, "/cards/"+card.ID+"/operations", map[string]any{"type": "PURCHASE", "amount": -1}, http.StatusBadRequest, nil)
	api.do(http.MethodGet, "/cards/"+card.ID+"/verify?amount=lots", nil, http.StatusBadRequest, nil)
	api.do(http.MethodGet, "/cards/"+card.ID+"/operations?from=2026-01-01T00:00:00Z", nil, http.StatusBadRequest, nil)
	api.do(http.MethodGet, "/reports/monthly?month=13&year=2026", nil, http.StatusBadRequest, nil)
	api.do(http.MethodGet, "/cards/missing", nil, http.StatusNotFound, nil)
	api.do(http.MethodPost, "/cards/missing/operations", map[string]any{"type": "PURCHASE", "amount": 1}, http.StatusNotFound, nil)
}

func TestClientsAndReports(t *testing.T) {
	api := newTestAPI(t)

	var client models.Client
	api.do(http.MethodPost, "/clients", map[string]string{"name": "Anna", "email": "anna@example.com"}, http.StatusCreated, &client)
	api.do(http.MethodPost, "/clients", map[string]string{"name": "Anna 2", "email": "anna@example.com"}, http.StatusConflict, nil)
	api.do(http.MethodPut, "/clients/"+client.ID, map[string]string{"name": "Anna K", "email": "anna@example.com"}, http.StatusOK, &client)
	assert.Equal(t, "Anna K", client.Name)

	var found models.Client
	api.do(http.MethodGet, "/clients?email=ANNA@example.com", nil, http.StatusOK, &found)
	assert.Equal(t, client.ID, found.ID)

	var card models.Card
	rate := 0.1
	api.do(http.MethodPost, "/cards", map[string]any{"client_id": client.ID, "kind": "CREDIT", "limit": 500, "interest_rate": rate}, http.StatusCreated, &card)

	var review models.CreditRateReview
	api.do(http.MethodGet, "/reports/credit-rates", nil, http.StatusOK, &review)
	assert.Equal(t, 21.0, review.KeyRate)
	assert.Len(t, review.BelowRate, 1)

	var stats models.ClientStats
	api.do(http.MethodGet, "/reports/clients/"+client.ID, nil, http.StatusOK, &stats)
	assert.Equal(t, 1, stats.TotalCards)

	var monthly models.MonthlyStats
	api.do(http.MethodGet, "/reports/monthly?month=1&year=2026", nil, http.StatusOK, &monthly)
	assert.Len(t, monthly.ByType, 3)

	var rate21 map[string]float64
	api.do(http.MethodGet, "/key-rate", nil, http.StatusOK, &rate21)
	assert.Equal(t, 21.0, rate21["key_rate"])

	api.do(http.MethodDelete, "/clients/"+client.ID, nil, http.StatusNoContent, nil)
	api.do(http.MethodGet, "/clients/"+client.ID, nil, http.StatusNotFound, nil)
}

func TestManualAlert(t *testing.T) {
	api := newTestAPI(t)

	var alert models.FraudAlert
	api.do(http.MethodPost, "/alerts", map[string]string{"card_id": "card-1", "description": "customer called", "level": "INFO"}, http.StatusCreated, &alert)
	api.do(http.MethodGet, "/alerts/"+alert.ID, nil, http.StatusOK, nil)
	api.do(http.MethodDelete, "/alerts/"+alert.ID, nil, http.StatusNoContent, nil)
	api.do(http.MethodDelete, "/alerts/"+alert.ID, nil, http.StatusNotFound, nil)
	api.do(http.MethodPost, "/alerts", map[string]string{"card_id": "card-1", "level": "SEVERE"}, http.StatusBadRequest, nil)
}

func TestWriteErrorHidesForeignErrors(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := NewHandler(Services{}, log)

	rec := httptest.NewRecorder()
	h.writeError(rec, errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}
