package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/medtrax-api/internal/config"
	"github.com/medtrax-api/internal/transport/http/handler"
	appmiddleware "github.com/medtrax-api/internal/transport/http/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(appmiddleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10, on the credential and OTP endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(deps.Auth)
	recoveryH := handler.NewPasswordRecoveryHandler(deps.Auth)
	metricH := handler.NewMetricHandler(deps.Health)
	reminderH := handler.NewReminderHandler(deps.Reminders)
	notifH := handler.NewNotificationHandler(deps.Notification)
	shopH := handler.NewShopHandler(deps.Shops)
	rxH := handler.NewPrescriptionHandler(deps.Prescription)

	r.Get("/health", healthH.Ping)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/auth/signup", authH.SignUp)
			r.Post("/auth/verify-otp", authH.VerifyOTP)
			r.Post("/auth/resend-otp", authH.ResendOTP)
			r.Post("/auth/signin", authH.SignIn)
			r.Post("/auth/forgot-password", recoveryH.Request)
			r.Put("/auth/reset-password", recoveryH.Reset)
		})
		r.Get("/notification/vapidPublicKey", notifH.VapidPublicKey)
		r.Get("/shops", shopH.List)
		r.Get("/shops/{id}", shopH.Get)
		r.Get("/shops/{id}/reviews", shopH.ListReviews)
		r.Get("/prescription/symptoms", rxH.Symptoms)
		r.Post("/prescription/predict", rxH.Predict)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/me", authH.Me)
			r.Put("/auth/profile", authH.UpdateProfile)
			r.Put("/auth/change-password", authH.ChangePassword)

			// Static reminder paths take precedence over {kind}.
			r.Post("/health/reminder", reminderH.Create)
			r.Get("/health/reminder", reminderH.List)
			r.Put("/health/reminder/{id}", reminderH.Update)
			r.Delete("/health/reminder/{id}", reminderH.Delete)

			r.Get("/health/period", metricH.LatestPeriod)
			r.Post("/health/{kind}", metricH.Save)
			r.Get("/health/{kind}/history", metricH.History)
			r.Get("/health/{kind}/latest", metricH.Latest)

			r.Post("/notification/subscribe", notifH.Subscribe)
			r.Post("/notification/schedule", notifH.Schedule)

			r.Post("/shops/{id}/reviews", shopH.SubmitReview)
		})
	})

	return r
}
