package handler

import (
	"errors"
	"net/http"

	"github.com/medtrax-api/internal/application/auth"
	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/transport/http/middleware"
)

// AuthHandler serves signup, OTP verification, signin and the caller's own account.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.SignUp(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeError(w, http.StatusBadRequest, "user already exists")
			return
		}
		writeServiceError(w, err)
		return
	}
	msg := "User registered successfully. Please verify your email with the OTP sent."
	if !res.EmailSent {
		msg = "User registered, but the verification email could not be sent. Request a new code."
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{Message: msg, EmailSent: &res.EmailSent})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.VerifyOTP(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Message: "Email verified successfully", User: u})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ResendOTP(r.Context(), req); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeError(w, http.StatusBadRequest, "account already verified")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "A new verification code has been sent"})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, u, err := h.svc.SignIn(r.Context(), req)
	if err != nil {
		// unknown email is reported like other credential failures
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "user not found")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Token: token, User: u, Message: "Signed in successfully"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Me(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Data: u})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Message: "Profile updated successfully", Data: u})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), middleware.UserID(r.Context()), req); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "current password is incorrect")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password changed successfully"})
}
