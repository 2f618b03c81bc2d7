package handler

import (
	"net/http"

	"github.com/medtrax-api/internal/application/notification"
	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/transport/http/middleware"
)

// NotificationHandler serves Web Push registration and ad-hoc scheduling.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) VapidPublicKey(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.svc.VapidPublicKey()})
}

func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var sub domain.PushSubscription
	if !decodeJSON(w, r, &sub) {
		return
	}
	if err := h.svc.Subscribe(r.Context(), middleware.UserID(r.Context()), sub); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: "Subscription saved"})
}

func (h *NotificationHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req domain.ScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	occ, err := h.svc.ScheduleAdHoc(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataEnvelope{Success: true, Message: "Notification scheduled", Data: occ})
}
