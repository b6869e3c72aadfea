package handler

import (
	"net/http"
)

func (h *Handler) TopCards(w http.ResponseWriter, r *http.Request) {
	usage, err := h.svc.Reports.TopCards(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// MonthlyStatistics counts operations by type for ?month=&year=
func (h *Handler) MonthlyStatistics(w http.ResponseWriter, r *http.Request) {
	month, err := queryInt(r, "month")
	if err != nil {
		h.writeError(w, err)
		return
	}
	year, err := queryInt(r, "year")
	if err != nil {
		h.writeError(w, err)
		return
	}

	stats, err := h.svc.Reports.MonthlyStatistics(r.Context(), month, year)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) BlockedCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.Reports.BlockedCards(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *Handler) SuspiciousCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.Reports.SuspiciousCards(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *Handler) ClientStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Reports.ClientStatistics(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) CreditRateReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.svc.Reports.CreditRateReview(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}
