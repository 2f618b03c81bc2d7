package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/pkg/validate"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// User attribute names written through userStore.Update.
const (
	fieldName         = "name"
	fieldPhone        = "phone"
	fieldGender       = "gender"
	fieldPasswordHash = "password_hash"
)

const resetMailSubject = "Reset your MedTrax password"

func (s *service) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, "forgot:"+req.Email) {
		return fmt.Errorf("too many reset codes requested: %w", domain.ErrRateLimited)
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	code, err := s.issueOTP(ctx, domain.PasswordResetKey(u.Email))
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Your MedTrax password reset code is %s. It expires in %d minutes. "+
		"If you did not ask for a reset, ignore this email.", code, int(s.otpTTL.Minutes()))
	if err := s.mailer.SendEmail(ctx, u.Email, resetMailSubject, body); err != nil {
		s.log.Warn("reset email not sent", zap.String("email", u.Email), zap.Error(err))
		return errors.New("password reset email could not be sent")
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, "reset:"+req.Email) {
		return fmt.Errorf("reset attempts exhausted: %w", domain.ErrRateLimited)
	}

	rec, err := s.otps.Consume(ctx, domain.PasswordResetKey(req.Email), req.OTP)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(req.OTP)) != 1 {
		return fmt.Errorf("code does not match: %w", domain.ErrInvalidOTP)
	}
	if rec.Expired(s.now()) {
		return fmt.Errorf("code expired, request a new one: %w", domain.ErrOTPExpired)
	}
	if err := s.setPassword(ctx, req.Email, req.NewPassword); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no account for code: %w", domain.ErrInvalidOTP)
		}
		return err
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrInvalidCredentials)
	}
	return s.setPassword(ctx, u.Email, req.NewPassword)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be blank: %w", domain.ErrBadRequest)
		}
		updates[fieldName] = name
	}
	if req.Phone != nil {
		updates[fieldPhone] = strings.TrimSpace(*req.Phone)
	}
	if req.Gender != nil {
		updates[fieldGender] = *req.Gender
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.users.Update(ctx, u.Email, updates); err != nil {
		return nil, err
	}
	return s.users.GetByEmail(ctx, u.Email)
}

func (s *service) setPassword(ctx context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, email, map[string]interface{}{fieldPasswordHash: string(hash)})
}
