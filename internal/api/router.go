package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wekeza/investment-platform/internal/api/handler"
	"github.com/wekeza/investment-platform/internal/api/middleware"
	"github.com/wekeza/investment-platform/internal/core/ports"
)

// Deps carries everything the router needs wired in.
type Deps struct {
	Mongo       *mongo.Database
	Redis       *redis.Client
	AuthService ports.AuthService
	Sectors     ports.SectorRepository
	Tokens      ports.TokenService
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("investmatch"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	profileHandler := handler.NewProfileHandler(deps.AuthService)
	sectorHandler := handler.NewSectorHandler(deps.Sectors)
	authRequired := middleware.Auth(deps.Tokens)

	// --- Auth routes ---
	// Trailing slashes are part of the public contract; existing clients
	// request the paths exactly as listed here.
	auth := e.Group("/api/auth")
	auth.POST("/register/", authHandler.Register)
	auth.POST("/login/", authHandler.Login)
	auth.POST("/logout/", authHandler.Logout, authRequired)
	auth.POST("/verify-otp/", authHandler.VerifyOTP)
	auth.POST("/resend-otp/", authHandler.ResendOTP)
	auth.POST("/forgot-password/", authHandler.ForgotPassword)
	auth.POST("/reset-password/", authHandler.ResetPassword)
	auth.POST("/change-password/", authHandler.ChangePassword, authRequired)
	auth.GET("/profile/", profileHandler.Get, authRequired)
	auth.PUT("/profile/", profileHandler.Update, authRequired)
	auth.GET("/sectors/", sectorHandler.List)
	auth.POST("/token/refresh/", authHandler.Refresh)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
