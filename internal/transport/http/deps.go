package http

import (
	"github.com/medtrax-api/internal/application/auth"
	"github.com/medtrax-api/internal/application/health"
	"github.com/medtrax-api/internal/application/notification"
	"github.com/medtrax-api/internal/application/prescription"
	"github.com/medtrax-api/internal/application/reminder"
	"github.com/medtrax-api/internal/application/shop"
	jwtinfra "github.com/medtrax-api/internal/infrastructure/jwt"
	"go.uber.org/zap"
)

// Deps holds the services and cross-cutting components the router needs.
// Services are built once in main and shared with the background worker.
type Deps struct {
	Auth         auth.Service
	Health       health.Service
	Reminders    reminder.Service
	Notification notification.Service
	Shops        shop.Service
	Prescription prescription.Service

	JWTProvider *jwtinfra.Provider
	Logger      *zap.Logger
}
