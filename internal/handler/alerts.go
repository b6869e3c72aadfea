package handler

import (
	"net/http"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/models"
)

type createAlertRequest struct {
	CardID      string `json:"card_id"`
	Description string `json:"description"`
	Level       string `json:"level"`
}

// CreateAlert raises an alert by hand
func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	level, err := models.ParseAlertLevel(req.Level)
	if err != nil {
		h.writeError(w, apperr.InvalidInput("%v", err))
		return
	}

	alert, err := h.svc.Fraud.GenerateAlert(r.Context(), req.CardID, req.Description, level)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

// ListAlerts returns every alert, or those of ?level=
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	var (
		alerts []*models.FraudAlert
		err    error
	)
	if raw := r.URL.Query().Get("level"); raw != "" {
		level, parseErr := models.ParseAlertLevel(raw)
		if parseErr != nil {
			h.writeError(w, apperr.InvalidInput("%v", parseErr))
			return
		}
		alerts, err = h.svc.Fraud.AlertsByLevel(r.Context(), level)
	} else {
		alerts, err = h.svc.Fraud.AllAlerts(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *Handler) CardAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.Fraud.AlertsByCard(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.svc.Fraud.Get(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (h *Handler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Fraud.Delete(r.Context(), pathID(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
