package handler

import (
	"errors"
	"net/http"

	"github.com/medtrax-api/internal/application/prescription"
	"github.com/medtrax-api/internal/domain"
)

// PrescriptionHandler proxies the prediction model. Upstream failures surface as 500.
type PrescriptionHandler struct {
	svc prescription.Service
}

func NewPrescriptionHandler(svc prescription.Service) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc}
}

func (h *PrescriptionHandler) Symptoms(w http.ResponseWriter, r *http.Request) {
	raw, err := h.svc.Symptoms(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *PrescriptionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req domain.PredictRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := h.svc.Predict(r.Context(), req)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PrescriptionHandler) writeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUpstream) {
		writeError(w, http.StatusInternalServerError, "prediction service unavailable")
		return
	}
	writeServiceError(w, err)
}
