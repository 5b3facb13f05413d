package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap/zapcore"

	"walletdesk/internal/auth"
	"walletdesk/internal/config"
	"walletdesk/internal/repository"
	"walletdesk/internal/store/pgstore"
	"walletdesk/pkg/jwt"
	"walletdesk/pkg/log"
)

func Start() error {
	config, err := config.NewApp()
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}

	level, err := zapcore.ParseLevel(config.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	logger := log.NewZapLogger("walletdesk", level)

	var registry *repository.Registry
	switch config.Backend {
	case "postgres":
		db, err := pgstore.Open(config.DBConnectionURL)
		if err != nil {
			logger.Errorw("failed to connect to database", "error", err)
			return err
		}
		if err := repository.Migrate(db); err != nil {
			logger.Errorw("failed to migrate collections", "error", err)
			return err
		}
		registry = repository.NewPostgres(logger, db)
	default:
		registry = repository.NewMemory(logger)
	}

	// jwt service
	jwtService := jwt.NewJWTService([]byte(config.JWTSecret))

	// auth service: the session producer route handlers talk to
	_ = auth.NewService(logger, registry.Users, registry.Sessions, jwtService, config.SessionTTL)

	sweeper := registry.StartSessionCleanup(config.CleanupInterval)
	defer sweeper.Stop()

	logger.Infow("repositories ready",
		"backend", config.Backend,
		"cleanupInterval", config.CleanupInterval.String())

	// expect a signal to gracefully shut down
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-sig

	logger.Infow("shutting down")
	return nil
}
