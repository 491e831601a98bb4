package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockdesk/stockdesk/internal/app"
	"github.com/stockdesk/stockdesk/internal/backend"
	"github.com/stockdesk/stockdesk/internal/balances"
	"github.com/stockdesk/stockdesk/internal/dictionary"
	"github.com/stockdesk/stockdesk/internal/observability"
	"github.com/stockdesk/stockdesk/internal/receipts"
	"github.com/stockdesk/stockdesk/internal/shared"
	"github.com/stockdesk/stockdesk/internal/shipments"
	"github.com/stockdesk/stockdesk/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "stockdesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.NoticeTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	api := backend.New(cfg.APIBaseURL, cfg.APITimeout, logger)
	api.SetObserver(metrics)

	unitsRepo := dictionary.NewHTTPRepository(api, "/units")
	resourcesRepo := dictionary.NewHTTPRepository(api, "/resources")
	clientsRepo := dictionary.NewHTTPRepository(api, "/clients")

	unitsHandler := dictionary.NewHandler(logger, unitsRepo, templates, csrfManager, dictionary.Config{
		Title:    "Units of measure",
		Singular: "Unit",
		BasePath: "/units",
	})
	resourcesHandler := dictionary.NewHandler(logger, resourcesRepo, templates, csrfManager, dictionary.Config{
		Title:    "Resources",
		Singular: "Resource",
		BasePath: "/resources",
	})
	clientsHandler := dictionary.NewHandler(logger, clientsRepo, templates, csrfManager, dictionary.Config{
		Title:      "Clients",
		Singular:   "Client",
		BasePath:   "/clients",
		HasAddress: true,
	})

	balancesHandler := balances.NewHandler(logger, balances.NewHTTPRepository(api), resourcesRepo, unitsRepo, templates, csrfManager)
	receiptsHandler := receipts.NewHandler(logger, receipts.NewService(receipts.NewHTTPRepository(api)), resourcesRepo, unitsRepo, templates, csrfManager)
	shipmentsHandler := shipments.NewHandler(logger, shipments.NewService(shipments.NewHTTPRepository(api)), resourcesRepo, unitsRepo, clientsRepo, templates, csrfManager)

	identity := shared.Identity{Name: cfg.AdminName, Role: shared.RoleAdmin}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Identity:         identity,
		UnitsHandler:     unitsHandler,
		ResourcesHandler: resourcesHandler,
		ClientsHandler:   clientsHandler,
		BalancesHandler:  balancesHandler,
		ReceiptsHandler:  receiptsHandler,
		ShipmentsHandler: shipmentsHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
