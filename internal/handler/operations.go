package handler

import (
	"net/http"

	"github.com/Dan9191/card-service/internal/apperr"
	"github.com/Dan9191/card-service/internal/models"
)

type recordOperationRequest struct {
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Location string  `json:"location"`
}

type recordOperationResponse struct {
	Operation  *models.CardOperation `json:"operation"`
	Alerts     []*models.FraudAlert  `json:"alerts"`
	FraudError string                `json:"fraud_check_error,omitempty"`
}

// RecordOperation authorizes and stores an operation, then runs the fraud
// rules on it. A failed fraud check does not undo the operation.
func (h *Handler) RecordOperation(w http.ResponseWriter, r *http.Request) {
	var req recordOperationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	opType, err := models.ParseOperationType(req.Type)
	if err != nil {
		h.writeError(w, apperr.InvalidInput("%v", err))
		return
	}

	op, err := h.svc.Operations.Record(r.Context(), pathID(r), req.Amount, req.Location, opType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := recordOperationResponse{Operation: op}
	resp.Alerts, err = h.svc.Fraud.Analyze(r.Context(), op)
	if err != nil {
		resp.FraudError = err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

// CardOperations lists a card's operations, optionally filtered by
// ?type= and by an inclusive ?from=&to= range
func (h *Handler) CardOperations(w http.ResponseWriter, r *http.Request) {
	cardID := pathID(r)
	from, hasFrom, err := queryTime(r, "from")
	if err != nil {
		h.writeError(w, err)
		return
	}
	to, hasTo, err := queryTime(r, "to")
	if err != nil {
		h.writeError(w, err)
		return
	}
	if hasFrom != hasTo {
		h.writeError(w, apperr.InvalidInput("from and to must be given together"))
		return
	}

	var ops []*models.CardOperation
	if hasFrom {
		ops, err = h.svc.Operations.FilterByDateRange(r.Context(), cardID, from, to)
	} else {
		ops, err = h.svc.Operations.ByCard(r.Context(), cardID)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	if raw := r.URL.Query().Get("type"); raw != "" {
		opType, err := models.ParseOperationType(raw)
		if err != nil {
			h.writeError(w, apperr.InvalidInput("%v", err))
			return
		}
		filtered := ops[:0]
		for _, op := range ops {
			if op.Type == opType {
				filtered = append(filtered, op)
			}
		}
		ops = filtered
	}
	writeJSON(w, http.StatusOK, ops)
}

// ClientOperations lists the operations of every card a client owns
func (h *Handler) ClientOperations(w http.ResponseWriter, r *http.Request) {
	ops, err := h.svc.Operations.ByClient(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ops)
}

func (h *Handler) GetOperation(w http.ResponseWriter, r *http.Request) {
	op, err := h.svc.Operations.Get(r.Context(), pathID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (h *Handler) DeleteOperation(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Operations.Delete(r.Context(), pathID(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
