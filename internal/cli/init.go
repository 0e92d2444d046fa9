// Package cli provides the process bootstrap shared by cmd/expense-tracker
// and cmd/expensectl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"expense-tracker/internal/amqp"
	"expense-tracker/internal/config"
	apphttp "expense-tracker/internal/http"
	applog "expense-tracker/internal/log"
	"expense-tracker/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from cfg and installs it as the
// slog default. A nil cfg yields the defaults.
func SetupLogger(cfg *config.Config) *applog.Logger {
	lc := applog.DefaultConfig()
	if cfg != nil {
		if level, err := applog.ParseLevel(cfg.LogLevel); err == nil {
			lc.Level = level
		}
		lc.Format = cfg.LogFormat
	}
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// NewExpenseService wires the event publisher when AMQP is configured and
// loads the data file. Broker and load failures are logged and the service
// starts anyway, without events or with an empty tracker respectively.
func NewExpenseService(ctx context.Context, logger *applog.Logger, cfg *config.Config) *services.ExpenseService {
	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "AMQP unavailable, expense events disabled",
				applog.FieldError, err,
				applog.FieldErrorType, applog.ErrorTypeNetwork)
		} else {
			client.SetLogger(logger)
			publisher = client
			logger.InfoContext(ctx, "AMQP client initialized",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewExpenseService(cfg.ExpensesFile, publisher, logger)
	if err := svc.Load(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to load expenses, starting empty",
			applog.FieldError, err,
			applog.FieldFile, cfg.ExpensesFile)
	}
	return svc
}

// Run serves srv until ctx is cancelled or the listener fails, then shuts
// the server down within timeout, flushes the service and closes it.
func Run(ctx context.Context, logger *applog.Logger, srv *apphttp.Server, svc *services.ExpenseService, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gctx, "Starting expense tracker server",
			"addr", srv.Addr,
			applog.FieldFile, svc.Path(),
			applog.FieldOperation, applog.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
		}
		if err := svc.Flush(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := svc.Close(); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
