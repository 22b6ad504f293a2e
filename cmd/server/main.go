package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wekeza/investment-platform/internal/api"
	"github.com/wekeza/investment-platform/internal/core/domain"
	"github.com/wekeza/investment-platform/internal/core/ports"
	"github.com/wekeza/investment-platform/internal/core/service"
	"github.com/wekeza/investment-platform/internal/infrastructure/config"
	mongodb "github.com/wekeza/investment-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/wekeza/investment-platform/internal/infrastructure/db/redis"
	"github.com/wekeza/investment-platform/internal/infrastructure/mail"
	"github.com/wekeza/investment-platform/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Service: "investmatch-auth",
		Pretty:  cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("mongo index setup failed")
	}

	sectorRepo := mongodb.NewSectorRepository(db)
	if err := sectorRepo.Seed(ctx, domain.DefaultSectors); err != nil {
		log.Fatal().Err(err).Msg("sector seed failed")
	}

	// --- Mail ---
	var mailer ports.Mailer
	if cfg.Mail.ServiceURL != "" {
		mailer = mail.NewHTTPMailer(cfg.Mail.ServiceURL)
	} else {
		log.Warn().Msg("MAIL_SERVICE_URL not set, mail goes to the log")
		mailer = mail.NewLogMailer(log)
	}
	notifier := mail.NewDispatcher(cfg.Mail.Workers, mailer, log)
	notifier.Start(ctx)

	// --- Services ---
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	blacklist := redisdb.NewTokenBlacklist(rdb)
	authService := service.NewAuthService(userRepo, tokenService, blacklist, mailer, notifier)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Mongo:       db,
		Redis:       rdb,
		AuthService: authService,
		Sectors:     sectorRepo,
		Tokens:      tokenService,
		Log:         log,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
