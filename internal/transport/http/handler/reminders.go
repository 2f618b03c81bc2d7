package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medtrax-api/internal/application/reminder"
	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/transport/http/middleware"
)

// ReminderHandler serves medicine reminder CRUD.
type ReminderHandler struct {
	svc reminder.Service
}

func NewReminderHandler(svc reminder.Service) *ReminderHandler { return &ReminderHandler{svc: svc} }

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.ReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rem, err := h.svc.Create(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataEnvelope{Success: true, Message: "Reminder created", Data: rem})
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	rems, err := h.svc.List(r.Context(), middleware.UserID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Data: rems})
}

func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.ReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rem, err := h.svc.Update(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Message: "Reminder updated", Data: rem})
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Reminder deleted"})
}
