package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/wishly/config"
	"github.com/Dosada05/wishly/db"
	"github.com/Dosada05/wishly/handlers"
	"github.com/Dosada05/wishly/matching"
	"github.com/Dosada05/wishly/metrics"
	"github.com/Dosada05/wishly/realtime"
	"github.com/Dosada05/wishly/repositories"
	api "github.com/Dosada05/wishly/routes"
	"github.com/Dosada05/wishly/services"
	"github.com/Dosada05/wishly/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const (
	dbConnectTimeout = 5 * time.Second
	shutdownTimeout  = 15 * time.Second
	metricsNamespace = "wishly"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "wishly",
		Short:         "Shared wishlists and Secret Santa draws",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(logger), newMigrateCmd(logger), newMatchCmd(logger))
	return root
}

// app собирает зависимости, общие для всех команд.
type app struct {
	cfg    *config.Config
	db     *sql.DB
	logger *slog.Logger
}

func openApp(ctx context.Context, logger *slog.Logger) (*app, error) {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, dbConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("database connection established")

	if err := db.Migrate(ctx, dbConn); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &app{cfg: cfg, db: dbConn, logger: logger}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database connection", slog.Any("error", err))
	} else {
		a.logger.Info("database connection closed")
	}
}

func (a *app) matcher(collector metrics.Collector) *matching.Engine {
	return matching.NewEngine(
		matching.NewTimeSeededSource(),
		matching.WithMaxAttempts(a.cfg.MatchMaxAttempts),
		matching.WithObserver(collector.ObserveShuffleTrials),
	)
}

func newMigrateCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.close()
			logger.Info("schema applied")
			return nil
		},
	}
}

func newMatchCmd(logger *slog.Logger) *cobra.Command {
	var occasionID string
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run the Secret Santa draw for an occasion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.close()

			collector := metrics.NewNop()
			matchingService := services.NewMatchingService(
				repositories.NewPostgresOccasionRepository(a.db),
				repositories.NewPostgresAssignmentRepository(a.db),
				a.matcher(collector),
				collector,
				nil,
				logger,
			)

			result, err := matchingService.RunMatching(cmd.Context(), occasionID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "matched %d participants at %s\n",
				result.Participants, result.MatchedAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&occasionID, "occasion", "", "occasion id")
	_ = cmd.MarkFlagRequired("occasion")
	return cmd
}

func newServeCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), logger)
		},
	}
}

func serve(ctx context.Context, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	// Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewPrometheus(registry, metricsNamespace)

	// Инициализация загрузчика файлов (Cloudflare R2)
	var uploader storage.FileUploader
	if cfg.R2.Enabled() {
		uploader, err = storage.NewR2Store(ctx, storage.R2Options{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, uploads are disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(a.db)
	occasionRepo := repositories.NewPostgresOccasionRepository(a.db)
	inviteRepo := repositories.NewPostgresInviteRepository(a.db)
	itemRepo := repositories.NewPostgresWishlistRepository(a.db)
	assignmentRepo := repositories.NewPostgresAssignmentRepository(a.db)
	tx := repositories.NewTransactor(a.db)

	// Инициализация сервисов
	emailService := services.NewEmailService(cfg)
	if !emailService.Enabled() {
		logger.Warn("SMTP is not configured, invite e-mails are disabled")
	}
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, uploader, logger)
	occasionService := services.NewOccasionService(occasionRepo, userRepo, assignmentRepo, wsHub, logger)
	inviteService := services.NewInviteService(inviteRepo, occasionRepo, userRepo, tx, emailService, wsHub, cfg.PublicURL, logger)
	wishlistService := services.NewWishlistService(itemRepo, occasionRepo, userRepo, uploader, wsHub, cfg.AmazonAssociateTag, logger)
	matchingService := services.NewMatchingService(occasionRepo, assignmentRepo, a.matcher(collector), collector, wsHub, logger)

	go runInviteCleanup(ctx, inviteService, cfg.InviteCleanupInterval, logger)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		User:      handlers.NewUserHandler(userService),
		Occasion:  handlers.NewOccasionHandler(occasionService),
		Invite:    handlers.NewInviteHandler(inviteService),
		Wishlist:  handlers.NewWishlistHandler(wishlistService),
		Match:     handlers.NewMatchHandler(matchingService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, occasionService, cfg.CORSAllowedOrigins, logger),
	}, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        collector,
		Gatherer:       registry,
	})

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}
	return nil
}

// runInviteCleanup удаляет просроченные приглашения сразу при старте и затем по тикеру.
func runInviteCleanup(ctx context.Context, inviteService services.InviteService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("invite cleanup scheduler started", slog.Duration("interval", interval))

	for {
		if _, err := inviteService.DeleteExpiredInvites(ctx); err != nil && ctx.Err() == nil {
			logger.Error("invite cleanup failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
