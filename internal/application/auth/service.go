package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/pkg/id"
	pkgtoken "github.com/medtrax-api/internal/pkg/token"
	"github.com/medtrax-api/internal/pkg/validate"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpDigits      = 6
	defaultOTPTTL  = 10 * time.Minute
	otpMailSubject = "Your MedTrax verification code"
)

// SignUpResult reports the created account and whether the code email went out.
type SignUpResult struct {
	User      *domain.User
	EmailSent bool
}

type Service interface {
	SignUp(ctx context.Context, req domain.SignUpRequest) (*SignUpResult, error)
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*domain.User, error)
	ResendOTP(ctx context.Context, req domain.ResendOTPRequest) error
	SignIn(ctx context.Context, req domain.SignInRequest) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
	ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error
	PasswordRecoveryService
}

// PasswordRecoveryService resets a forgotten password with an emailed code.
type PasswordRecoveryService interface {
	ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	MarkVerified(ctx context.Context, email string) error
	Update(ctx context.Context, email string, updates map[string]interface{}) error
}

type otpStore interface {
	Put(ctx context.Context, o *domain.OTPRecord) error
	Consume(ctx context.Context, email, code string) (*domain.OTPRecord, error)
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type jwtSigner interface {
	Sign(userID string) (string, error)
}

type attemptLimiter interface {
	Allow(ctx context.Context, key string) bool
}

type service struct {
	users   userStore
	otps    otpStore
	mailer  mailer
	jwt     jwtSigner
	limiter attemptLimiter
	log     *zap.Logger
	otpTTL  time.Duration
	now     func() time.Time
}

type ServiceDeps struct {
	UserRepo    userStore
	OTPRepo     otpStore
	Mailer      mailer
	JWTProvider jwtSigner
	// Limiter throttles OTP verification and resend per email. Nil disables throttling.
	Limiter attemptLimiter
	Logger  *zap.Logger
	OTPTTL  time.Duration
}

func NewService(deps ServiceDeps) Service {
	ttl := deps.OTPTTL
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		users:   deps.UserRepo,
		otps:    deps.OTPRepo,
		mailer:  deps.Mailer,
		jwt:     deps.JWTProvider,
		limiter: deps.Limiter,
		log:     log,
		otpTTL:  ttl,
		now:     time.Now,
	}
}

func (s *service) SignUp(ctx context.Context, req domain.SignUpRequest) (*SignUpResult, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("passwords do not match: %w", domain.ErrBadRequest)
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("user already exists: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		Gender:       req.Gender,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// Create is conditional on the email, so a concurrent signup surfaces as ErrConflict here.
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	code, err := s.issueOTP(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	sent := s.sendOTP(ctx, u.Email, code)
	return &SignUpResult{User: u, EmailSent: sent}, nil
}

func (s *service) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*domain.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrInvalidOTP)
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, "verify:"+req.Email) {
		return nil, fmt.Errorf("verification attempts exhausted: %w", domain.ErrRateLimited)
	}

	rec, err := s.otps.Consume(ctx, req.Email, req.OTP)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(req.OTP)) != 1 {
		return nil, fmt.Errorf("code does not match: %w", domain.ErrInvalidOTP)
	}
	if rec.Expired(s.now()) {
		return nil, fmt.Errorf("code expired, request a new one: %w", domain.ErrOTPExpired)
	}

	if err := s.users.MarkVerified(ctx, req.Email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no account for code: %w", domain.ErrInvalidOTP)
		}
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	u.Verified = true
	return u, nil
}

func (s *service) ResendOTP(ctx context.Context, req domain.ResendOTPRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, "resend:"+req.Email) {
		return fmt.Errorf("too many codes requested: %w", domain.ErrRateLimited)
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if u.Verified {
		return fmt.Errorf("account already verified: %w", domain.ErrConflict)
	}
	code, err := s.issueOTP(ctx, u.Email)
	if err != nil {
		return err
	}
	if !s.sendOTP(ctx, u.Email, code) {
		return errors.New("verification email could not be sent")
	}
	return nil
}

func (s *service) SignIn(ctx context.Context, req domain.SignInRequest) (string, *domain.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(&req); err != nil {
		return "", nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", nil, err
	}
	if !u.Verified {
		return "", nil, fmt.Errorf("verify your email before signing in: %w", domain.ErrUnverifiedAccount)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, fmt.Errorf("wrong password: %w", domain.ErrInvalidCredentials)
	}
	token, err := s.jwt.Sign(u.UserID)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

// issueOTP stores a fresh code under key, replacing any earlier one.
func (s *service) issueOTP(ctx context.Context, key string) (string, error) {
	code, err := pkgtoken.NewNumericCode(otpDigits)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	rec := &domain.OTPRecord{
		Email:     key,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.otpTTL).Unix(),
	}
	if err := s.otps.Put(ctx, rec); err != nil {
		return "", err
	}
	return code, nil
}

// sendOTP is best-effort: failures are logged and reported to the caller as false.
func (s *service) sendOTP(ctx context.Context, email, code string) bool {
	body := fmt.Sprintf("Your MedTrax verification code is %s. It expires in %d minutes.", code, int(s.otpTTL.Minutes()))
	if err := s.mailer.SendEmail(ctx, email, otpMailSubject, body); err != nil {
		s.log.Warn("otp email not sent", zap.String("email", email), zap.Error(err))
		return false
	}
	return true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
