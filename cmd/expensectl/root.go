package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"expense-tracker/internal/amqp"
	"expense-tracker/internal/cli"
	"expense-tracker/internal/config"
	applog "expense-tracker/internal/log"
	"expense-tracker/internal/services"
)

type app struct {
	file     string
	noEvents bool
	cfg      *config.Config
	logger   *applog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "expensectl",
		Short:        "Record expenses and inspect spending statistics",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			a.cfg = config.Load()
			if !cmd.Flags().Changed("file") && a.cfg.ExpensesFile != "" {
				a.file = a.cfg.ExpensesFile
			}
			a.logger = applog.New(applog.Config{
				Level:     slog.LevelWarn,
				Format:    a.cfg.LogFormat,
				Component: applog.ComponentCLI,
				Output:    cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.file, "file", "f", "expenses.json", "expenses data file")
	rootCmd.PersistentFlags().BoolVar(&a.noEvents, "no-events", false, "do not publish change events")

	rootCmd.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.getCmd(),
		a.rmCmd(),
		a.clearCmd(),
		a.statsCmd(),
		a.categoriesCmd(),
		a.eventsCmd(),
	)
	return rootCmd
}

// service opens the data file. Events are published when AMQP is
// configured and reachable.
func (a *app) service(ctx context.Context) (*services.ExpenseService, error) {
	var publisher services.EventPublisher
	if a.cfg.AMQPEnabled() && !a.noEvents {
		client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
		if err != nil {
			a.logger.Warn("AMQP unavailable, expense events disabled", applog.FieldError, err)
		} else {
			client.SetLogger(a.logger)
			publisher = client
		}
	}

	svc := services.NewExpenseService(a.file, publisher, a.logger)
	if err := svc.Load(ctx); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// persist flushes explicitly so a failed write surfaces as a command error.
func persist(ctx context.Context, svc *services.ExpenseService) error {
	if err := svc.Flush(ctx); err != nil {
		return err
	}
	return svc.Close()
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return cli.SignalContext(ctx)
}
