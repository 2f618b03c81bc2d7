package domain

import "time"

// User is a MedTrax account. Email is the table partition key, so it is stored lower-cased.
type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Email        string    `json:"email" dynamodbav:"email"`
	Phone        string    `json:"phone" dynamodbav:"phone"`
	Gender       string    `json:"gender" dynamodbav:"gender"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Verified     bool      `json:"isVerified" dynamodbav:"verified"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

type SignUpRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,max=20"`
	Gender          string `json:"gender" validate:"required,max=20"`
	Password        string `json:"password" validate:"required,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password reset with the emailed code.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	Name   *string `json:"name" validate:"omitempty,max=100"`
	Phone  *string `json:"phone" validate:"omitempty,max=20"`
	Gender *string `json:"gender" validate:"omitempty,max=20"`
}

// OTPRecord is the single live code for a ledger key. Signup verification is
// keyed by the email itself; password reset codes use PasswordResetKey.
// ExpiresAt is a Unix timestamp also used as the DynamoDB TTL attribute.
type OTPRecord struct {
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"code" dynamodbav:"code"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"`
}

// PasswordResetKey is the ledger key for an email's password reset code, kept
// apart from the signup code so one never consumes the other.
func PasswordResetKey(email string) string {
	return "reset#" + email
}

// Expired reports whether the code is past its expiry at now.
func (o *OTPRecord) Expired(now time.Time) bool {
	return o.ExpiresAt <= now.Unix()
}
