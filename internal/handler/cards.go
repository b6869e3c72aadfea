package handler

import (
	"context"
	"net/http"

	"github.com/Dan9191/card-service/internal/models"
)

type createCardRequest struct {
	ClientID     string   `json:"client_id"`
	Kind         string   `json:"kind"`
	Limit        float64  `json:"limit"`
	InterestRate *float64 `json:"interest_rate,omitempty"`
}

// CreateCard issues a new card
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	kind, err := models.ParseCardKind(req.Kind)
	if err != nil {
		kind = models.CardKind(req.Kind)
	}

	card, err := h.svc.Cards.Create(r.Context(), req.ClientID, kind, req.Limit, req.InterestRate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// ListCards returns cards, optionally narrowed by client_id or status
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	var (
		cards []*models.Card
		err   error
	)
	q := r.URL.Query()
	switch {
	case q.Get("client_id") != "":
		cards, err = h.svc.Cards.ListByClient(r.Context(), q.Get("client_id"))
	case q.Get("status") != "":
		status, parseErr := models.ParseCardStatus(q.Get("status"))
		if parseErr != nil {
			status = models.CardStatus(q.Get("status"))
		}
		cards, err = h.svc.Cards.ListByStatus(r.Context(), status)
	default:
		cards, err = h.svc.Cards.List(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.svc.Cards.Get(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cards.Delete(r.Context(), pathID(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ActivateCard(w http.ResponseWriter, r *http.Request) {
	h.changeCard(w, r, h.svc.Cards.Activate, http.StatusOK)
}

func (h *Handler) SuspendCard(w http.ResponseWriter, r *http.Request) {
	h.changeCard(w, r, h.svc.Cards.Suspend, http.StatusOK)
}

func (h *Handler) BlockCard(w http.ResponseWriter, r *http.Request) {
	h.changeCard(w, r, h.svc.Cards.Block, http.StatusOK)
}

// RenewCard issues a replacement card and leaves the source untouched
func (h *Handler) RenewCard(w http.ResponseWriter, r *http.Request) {
	h.changeCard(w, r, h.svc.Cards.Renew, http.StatusCreated)
}

func (h *Handler) changeCard(w http.ResponseWriter, r *http.Request, do func(context.Context, string) (*models.Card, error), status int) {
	card, err := do(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, status, card)
}

// VerifyLimit answers whether ?amount= would be authorized right now
func (h *Handler) VerifyLimit(w http.ResponseWriter, r *http.Request) {
	amount, err := queryFloat(r, "amount")
	if err != nil {
		h.writeError(w, err)
		return
	}
	allowed, err := h.svc.Cards.VerifyLimit(r.Context(), pathID(r), amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}
