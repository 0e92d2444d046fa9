package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"expense-tracker/internal/config"
	apphttp "expense-tracker/internal/http"
	applog "expense-tracker/internal/log"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:               "0",
		CORSAllowedOrigins: []string{"*"},
		RateLimitPerMinute: 60,
		ShutdownTimeout:    5 * time.Second,
		ExpensesFile:       filepath.Join(t.TempDir(), "expenses.json"),
		LogLevel:           "debug",
		LogFormat:          "json",
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(testConfig(t))
	if logger == nil || logger.Component() != applog.ComponentApp {
		t.Fatalf("SetupLogger() = %v", logger)
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
	if SetupLogger(nil) == nil {
		t.Error("SetupLogger(nil) should fall back to defaults")
	}
}

func TestNewExpenseServiceLoadsFile(t *testing.T) {
	cfg := testConfig(t)
	data := `[{"id":"a1","category":"Food","amount":3.5,"date":"2024-01-01","description":null}]`
	if err := os.WriteFile(cfg.ExpensesFile, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewExpenseService(context.Background(), applog.Nop(), cfg)
	if _, err := svc.Get("a1"); err != nil {
		t.Fatalf("expected loaded expense: %v", err)
	}
}

func TestNewExpenseServiceCorruptFileStartsEmpty(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.ExpensesFile, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewExpenseService(context.Background(), applog.Nop(), cfg)
	if got := svc.Statistics().Count; got != 0 {
		t.Fatalf("expected empty tracker, got %d expenses", got)
	}

	if err := svc.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if data, _ := os.ReadFile(cfg.ExpensesFile); string(data) != "{not json" {
		t.Fatalf("shutdown flush must not overwrite an unreadable file, got %q", data)
	}
}

func TestRunFlushesOnShutdown(t *testing.T) {
	cfg := testConfig(t)
	logger := applog.Nop()
	svc := NewExpenseService(context.Background(), logger, cfg)
	srv := apphttp.NewServer("127.0.0.1:0", svc, apphttp.Options{Logger: logger})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, logger, srv, svc, cfg.ShutdownTimeout) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}

	if _, err := os.Stat(cfg.ExpensesFile); err != nil {
		t.Fatalf("data file should be flushed on shutdown: %v", err)
	}
}
