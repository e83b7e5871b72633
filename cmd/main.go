package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storefront-api/internal/config"
	"storefront-api/internal/delivery/http/handler"
	"storefront-api/internal/domain/address"
	"storefront-api/internal/domain/user"
	"storefront-api/internal/infrastructure/database/memory"
	"storefront-api/internal/infrastructure/database/postgres"
	"storefront-api/internal/logger"
	"storefront-api/internal/notify"
	"storefront-api/internal/routes"
	addressUsecase "storefront-api/internal/usecase/address"
	userUsecase "storefront-api/internal/usecase/user"
	"storefront-api/pkg/utils"
)

const (
	migrationTimeout = time.Minute
	shutdownTimeout  = 30 * time.Second
)

type store struct {
	users     user.Repository
	addresses address.Repository
	health    handler.HealthChecker
	close     func() error
}

func openStore(cfg *config.Config) (*store, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using the in-memory store; data is lost on restart")
		s := memory.NewStore()
		return &store{
			users:     s.Users(),
			addresses: s.Addresses(),
			health:    s,
			close:     func() error { return nil },
		}, nil
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &store{
		users:     postgres.NewUserRepository(db),
		addresses: postgres.NewAddressRepository(db),
		health:    db,
		close:     db.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", cfg.Server.Environment),
		zap.String("db_driver", cfg.Database.Driver),
	)

	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL())
	userService := userUsecase.NewService(st.users, tokens, notify.NewSender(cfg), cfg)
	addressService := addressUsecase.NewService(st.addresses)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	if interval := cfg.PasswordReset.CleanupInterval(); interval > 0 {
		go userService.StartTokenCleanupJob(cleanupCtx, interval)
	}

	router := routes.SetupRoutes(cfg, routes.Services{
		Users:     userService,
		Addresses: addressService,
		Tokens:    tokens,
		Store:     st.health,
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	cleanupCancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shut down server gracefully", zap.Error(err))
		return
	}

	logger.Info("Server exited properly")
}
