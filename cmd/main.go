package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmsportal/backend/internal/app"
	"github.com/lmsportal/backend/internal/config"
	"github.com/lmsportal/backend/internal/database"
	"github.com/lmsportal/backend/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title LMS Portal API
// @version 1.0
// @description REST facade over courses and enrollments

// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "lms",
		Short:        "Minimal learning management portal",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations, provision the admin account and run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(cfg *config.Config, db *sql.DB, lg *zap.Logger) error {
				// Run migrations
				if err := database.RunMigrations(db, cfg.Database.Driver); err != nil {
					return err
				}
				return serve(cmd.Context(), cfg, db, lg)
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), func(cfg *config.Config, db *sql.DB, lg *zap.Logger) error {
					if err := database.RunMigrations(db, cfg.Database.Driver); err != nil {
						return err
					}
					lg.Info("Migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert every applied migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), func(cfg *config.Config, db *sql.DB, lg *zap.Logger) error {
					if err := database.RollbackMigrations(db, cfg.Database.Driver); err != nil {
						return err
					}
					lg.Info("Migrations rolled back")
					return nil
				})
			},
		},
	)
	return migrateCmd
}

// withDatabase loads configuration, initializes the logger and opens the database for fn
func withDatabase(ctx context.Context, fn func(cfg *config.Config, db *sql.DB, lg *zap.Logger) error) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v\n", err)
		return err
	}

	// Initialize logger
	lg, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Printf("Failed to initialize logger: %v\n", err)
		return err
	}
	defer func() { _ = lg.Sync() }()

	// Connect to database
	db, err := database.Connect(ctx, cfg.Database.Driver, cfg.DSN())
	if err != nil {
		lg.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	defer db.Close()

	if err := fn(cfg, db, lg); err != nil {
		lg.Error("Command failed", zap.Error(err))
		return err
	}
	return nil
}

// serve runs the HTTP server until SIGINT or SIGTERM
func serve(ctx context.Context, cfg *config.Config, db *sql.DB, lg *zap.Logger) error {
	lg.Info("Starting LMS Portal", zap.String("driver", cfg.Database.Driver))

	application, err := app.New(cfg, db, lg)
	if err != nil {
		return err
	}
	if err := application.Bootstrap(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      application.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		lg.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-quit:
	}

	lg.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	lg.Info("Server exited")
	return nil
}
