package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/medtrax-api/internal/application/auth"
	"github.com/medtrax-api/internal/application/health"
	"github.com/medtrax-api/internal/application/notification"
	"github.com/medtrax-api/internal/application/prescription"
	"github.com/medtrax-api/internal/application/reminder"
	"github.com/medtrax-api/internal/application/shop"
	"github.com/medtrax-api/internal/config"
	"github.com/medtrax-api/internal/infrastructure/awsx"
	"github.com/medtrax-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/medtrax-api/internal/infrastructure/jwt"
	"github.com/medtrax-api/internal/infrastructure/mailgun"
	"github.com/medtrax-api/internal/infrastructure/ml"
	redisinfra "github.com/medtrax-api/internal/infrastructure/redis"
	s3infra "github.com/medtrax-api/internal/infrastructure/s3"
	"github.com/medtrax-api/internal/infrastructure/smtp"
	"github.com/medtrax-api/internal/infrastructure/sns"
	"github.com/medtrax-api/internal/infrastructure/webpush"
	"github.com/medtrax-api/internal/pkg/logger"
	transporthttp "github.com/medtrax-api/internal/transport/http"
	"github.com/medtrax-api/internal/worker"
	"go.uber.org/zap"
)

type emailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type otpLimiter interface {
	Allow(ctx context.Context, key string) bool
}

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	if envErr != nil {
		zl.Info("no .env file found, reading from environment")
	}

	ctx := context.Background()

	awsCfg, err := awsx.Load(ctx, cfg, cfg.AWSRegion)
	if err != nil {
		zl.Fatal("aws config", zap.Error(err))
	}

	// Create tables outside production (LocalStack, dynamodb-local).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	if !cfg.IsProduction() {
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, zl)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		zl.Fatal("jwt provider", zap.Error(err))
	}

	s3Store := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName, cfg.AWSRegion, cfg.S3PublicBaseURL)

	tables := cfg.DynamoTables
	userRepo := dynamo.NewUserRepo(dynamoClient, tables.Users)
	occurrenceRepo := dynamo.NewOccurrenceRepo(dynamoClient, tables.Occurrences)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    userRepo,
		OTPRepo:     dynamo.NewOTPRepo(dynamoClient, tables.OTPs),
		Mailer:      newMailer(cfg, zl),
		JWTProvider: jwtProvider,
		Limiter:     newOTPLimiter(ctx, cfg, zl),
		Logger:      zl.Named("auth"),
		OTPTTL:      cfg.OTPTTL,
	})

	healthSvc := health.NewService(health.ServiceDeps{
		MetricRepo: dynamo.NewMetricRepo(dynamoClient, tables.HealthMetrics),
	})

	reminderSvc := reminder.NewService(reminder.ServiceDeps{
		ReminderRepo:    dynamo.NewReminderRepo(dynamoClient, tables.Reminders),
		OccurrenceRepo:  occurrenceRepo,
		ImageStore:      s3Store,
		Logger:          zl.Named("reminder"),
		DefaultTimezone: cfg.DefaultTimezone,
	})

	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		zl.Warn("VAPID keys not configured, push delivery will fail")
	}
	notifDeps := notification.ServiceDeps{
		SubscriptionRepo: dynamo.NewSubscriptionRepo(dynamoClient, tables.PushSubscriptions),
		OccurrenceRepo:   occurrenceRepo,
		UserRepo:         userRepo,
		PushSender:       webpush.NewSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject),
		Logger:           zl.Named("notification"),
	}
	if cfg.SMSEnabled {
		snsCfg, err := awsx.Load(ctx, cfg, cfg.SNSRegion)
		if err != nil {
			zl.Fatal("sns aws config", zap.Error(err))
		}
		notifDeps.SMSSender = sns.NewSender(snsCfg, cfg.AWSEndpointURL)
	}
	notifSvc := notification.NewService(notifDeps)

	shopSvc := shop.NewService(shop.ServiceDeps{
		ShopRepo:    dynamo.NewShopRepo(dynamoClient, tables.Shops),
		ReviewRepo:  dynamo.NewReviewRepo(dynamoClient, tables.Reviews, tables.Shops),
		UserRepo:    userRepo,
		ObjectStore: s3Store,
	})

	rxSvc := prescription.NewService(prescription.ServiceDeps{
		Model: ml.NewClient(cfg.MLModelURL),
	})

	runner := worker.NewRunner(notifSvc, reminderSvc, zl.Named("worker"))
	if err := runner.Start(); err != nil {
		zl.Fatal("worker", zap.Error(err))
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Auth:         authSvc,
		Health:       healthSvc,
		Reminders:    reminderSvc,
		Notification: notifSvc,
		Shops:        shopSvc,
		Prescription: rxSvc,
		JWTProvider:  jwtProvider,
		Logger:       zl.Named("http"),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	runner.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
		return
	}
	zl.Info("server stopped")
}

func newMailer(cfg *config.Config, zl *zap.Logger) emailSender {
	if cfg.MailProvider == "mailgun" {
		if cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" {
			return mailgun.NewMailer(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
		}
		zl.Warn("mailgun selected but not configured, falling back to smtp")
	}
	return smtp.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
}

// newOTPLimiter prefers Redis so attempt counts are shared across instances.
func newOTPLimiter(ctx context.Context, cfg *config.Config, zl *zap.Logger) otpLimiter {
	if cfg.RedisAddr != "" {
		client, err := redisinfra.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			return redisinfra.NewAttemptLimiter(client, "otp", cfg.OTPAttemptWindow, cfg.OTPAttemptMax)
		}
		zl.Warn("redis unavailable, using in-process OTP limiter", zap.Error(err))
	}
	return redisinfra.NewMemoryLimiter(cfg.OTPAttemptWindow, cfg.OTPAttemptMax)
}
