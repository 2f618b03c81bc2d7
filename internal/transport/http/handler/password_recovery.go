package handler

import (
	"net/http"

	"github.com/medtrax-api/internal/application/auth"
	"github.com/medtrax-api/internal/domain"
)

// PasswordRecoveryHandler handles the forgot/reset password flow.
type PasswordRecoveryHandler struct {
	svc auth.PasswordRecoveryService
}

func NewPasswordRecoveryHandler(svc auth.PasswordRecoveryService) *PasswordRecoveryHandler {
	return &PasswordRecoveryHandler{svc: svc}
}

func (h *PasswordRecoveryHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset code sent"})
}

func (h *PasswordRecoveryHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset successful"})
}
