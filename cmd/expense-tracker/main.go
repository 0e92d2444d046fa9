package main

import (
	"context"
	"os"

	"expense-tracker/internal/cli"
	apphttp "expense-tracker/internal/http"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(nil))
	logger := cli.SetupLogger(cfg)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	svc := cli.NewExpenseService(ctx, logger, cfg)
	srv := apphttp.NewServer(cfg.Addr(), svc, apphttp.Options{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	if err := cli.Run(ctx, logger, srv, svc, cfg.ShutdownTimeout); err != nil {
		os.Exit(1)
	}
}
