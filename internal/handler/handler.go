package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Services bundles what the HTTP layer calls into
type Services struct {
	Cards      *service.CardService
	Operations *service.OperationService
	Fraud      *service.FraudService
	Reports    *service.ReportService
	Clients    *service.ClientService
	Auth       *service.AuthService
	KeyRate    service.KeyRateProvider
	Ping       func(ctx context.Context) error
}

type Handler struct {
	svc Services
	log *logrus.Logger
}

func NewHandler(svc Services, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes registers every endpoint on r. Routes other than registration,
// login and health go through auth.
func (h *Handler) Routes(r *mux.Router, auth mux.MiddlewareFunc) {
	// Public routes
	r.HandleFunc("/operators/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	// Protected routes
	api := r.PathPrefix("/").Subrouter()
	api.Use(auth)

	api.HandleFunc("/clients", h.CreateClient).Methods(http.MethodPost)
	api.HandleFunc("/clients", h.ListClients).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id}", h.GetClient).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id}", h.UpdateClient).Methods(http.MethodPut)
	api.HandleFunc("/clients/{id}", h.DeleteClient).Methods(http.MethodDelete)
	api.HandleFunc("/clients/{id}/operations", h.ClientOperations).Methods(http.MethodGet)

	api.HandleFunc("/cards", h.CreateCard).Methods(http.MethodPost)
	api.HandleFunc("/cards", h.ListCards).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id}", h.GetCard).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id}", h.DeleteCard).Methods(http.MethodDelete)
	api.HandleFunc("/cards/{id}/activate", h.ActivateCard).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id}/suspend", h.SuspendCard).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id}/block", h.BlockCard).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id}/renew", h.RenewCard).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id}/verify", h.VerifyLimit).Methods(http.MethodGet)

	api.HandleFunc("/cards/{id}/operations", h.RecordOperation).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id}/operations", h.CardOperations).Methods(http.MethodGet)
	api.HandleFunc("/operations/{id}", h.GetOperation).Methods(http.MethodGet)
	api.HandleFunc("/operations/{id}", h.DeleteOperation).Methods(http.MethodDelete)

	api.HandleFunc("/cards/{id}/alerts", h.CardAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts", h.ListAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts", h.CreateAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id}", h.GetAlert).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id}", h.DeleteAlert).Methods(http.MethodDelete)

	api.HandleFunc("/reports/top-cards", h.TopCards).Methods(http.MethodGet)
	api.HandleFunc("/reports/monthly", h.MonthlyStatistics).Methods(http.MethodGet)
	api.HandleFunc("/reports/blocked", h.BlockedCards).Methods(http.MethodGet)
	api.HandleFunc("/reports/suspicious", h.SuspiciousCards).Methods(http.MethodGet)
	api.HandleFunc("/reports/clients/{id}", h.ClientStatistics).Methods(http.MethodGet)
	api.HandleFunc("/reports/credit-rates", h.CreditRateReview).Methods(http.MethodGet)
	api.HandleFunc("/key-rate", h.KeyRate).Methods(http.MethodGet)
}

// Health reports whether the store is reachable
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.svc.Ping != nil {
		if err := h.svc.Ping(r.Context()); err != nil {
			h.log.Errorf("Health check failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// KeyRate returns the central bank key rate including the bank margin
func (h *Handler) KeyRate(w http.ResponseWriter, r *http.Request) {
	if h.svc.KeyRate == nil {
		h.writeError(w, apperr.InvalidInput("key rate provider is not configured"))
		return
	}
	rate, err := h.svc.KeyRate.GetKeyRate(r.Context())
	if err != nil {
		h.log.Errorf("Failed to get key rate: %v", err)
		h.writeError(w, apperr.Store("get key rate", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"key_rate": rate})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindCardNotActive, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindLimitExceeded:
		return http.StatusUnprocessableEntity
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error", "kind"}. Errors without a domain
// kind are logged and hidden behind a generic message.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		h.log.Errorf("Unhandled error: %v", err)
		appErr = &apperr.Error{Kind: apperr.KindStore, Msg: "internal error"}
	}
	writeJSON(w, statusFor(appErr.Kind), map[string]string{"error": appErr.Error(), "kind": string(appErr.Kind)})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	return nil
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func queryFloat(r *http.Request, key string) (float64, error) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	if err != nil {
		return 0, apperr.InvalidInput("%s must be a number", key)
	}
	return v, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0, apperr.InvalidInput("%s must be an integer", key)
	}
	return v, nil
}

// queryTime parses an RFC 3339 query parameter; ok is false when absent
func queryTime(r *http.Request, key string) (t time.Time, ok bool, err error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, apperr.InvalidInput("%s must be an RFC 3339 timestamp", key)
	}
	return t.UTC(), true, nil
}
