package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"expense-tracker/internal/amqp"
	"expense-tracker/internal/core"
	"expense-tracker/internal/services"
	"expense-tracker/internal/worker"
)

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <category> <amount> <date> [description...]",
		Short: "Record a new expense",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			e, err := svc.Create(ctx, args[0], args[1], args[2], strings.Join(args[3:], " "))
			if err != nil {
				svc.Close()
				return err
			}
			if err := persist(ctx, svc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s\n", e.ID, e)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var (
		category  string
		from, to  string
		insertion bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses sorted by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			var expenses []core.Expense
			if category != "" {
				expenses = svc.ByCategory(category)
			} else {
				filter := services.ListFilter{InsertionOrder: insertion}
				if filter.From, err = optionalDate("from", from); err != nil {
					return err
				}
				if filter.To, err = optionalDate("to", to); err != nil {
					return err
				}
				expenses = svc.List(filter)
			}
			return render(cmd.OutOrStdout(), output, expenses, func(w io.Writer) {
				writeExpenseTable(w, expenses)
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category (case-insensitive)")
	cmd.Flags().StringVar(&from, "from", "", "earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "latest date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&insertion, "insertion", false, "keep insertion order instead of sorting by date")
	addOutputFlag(cmd, &output)
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			e, err := svc.Get(args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, e, func(w io.Writer) {
				writeExpenseTable(w, []core.Expense{e})
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an expense by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			e, err := svc.Delete(ctx, args[0])
			if err != nil {
				svc.Close()
				return err
			}
			if err := persist(ctx, svc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s: %s\n", e.ID, e)
			return nil
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			n := svc.Clear(ctx)
			if err := persist(ctx, svc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expenses\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm removal")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show spending statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			snap := svc.Statistics()
			return render(cmd.OutOrStdout(), output, snap, func(w io.Writer) {
				writeSnapshot(w, snap)
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func (a *app) categoriesCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show categories with per-category statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			report := svc.Categories()
			return render(cmd.OutOrStdout(), output, report, func(w io.Writer) {
				writeCategoryReport(w, report)
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func (a *app) eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow expense change events from the AMQP queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.AMQPEnabled() {
				return errors.New("AMQP_URL is not set")
			}
			client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
			if err != nil {
				return err
			}
			defer client.Close()
			client.SetLogger(a.logger)

			ctx, stop := signalContext(cmd)
			defer stop()

			w := worker.NewEventWorker(cmd.OutOrStdout(), a.logger)
			err = client.ConsumeExpenseEvents(ctx, w.Handler(ctx))
			if errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		},
	}
}

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", "text", "output format: text, json or yaml")
}

// render writes v in the requested format; text delegates to writeText.
func render(w io.Writer, format string, v any, writeText func(io.Writer)) error {
	switch strings.ToLower(format) {
	case "", "text":
		writeText(w)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlView(v)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func optionalDate(field, raw string) (*core.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return nil, &core.ValidationError{Field: field, Value: raw, Err: err}
	}
	return &d, nil
}

func writeExpenseTable(w io.Writer, expenses []core.Expense) {
	if len(expenses) == 0 {
		fmt.Fprintln(w, "No expenses.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, e := range expenses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Category.Name, e.Amount, e.Description)
	}
	tw.Flush()
}

func writeSnapshot(w io.Writer, snap core.Snapshot) {
	fmt.Fprintf(w, "Total:    %s\n", snap.Total)
	fmt.Fprintf(w, "Expenses: %d\n", snap.Count)
	if snap.Highest != nil {
		fmt.Fprintf(w, "Highest:  %s\n", *snap.Highest)
		fmt.Fprintf(w, "Lowest:   %s\n", *snap.Lowest)
	}
	if len(snap.Categories) > 0 {
		fmt.Fprintln(w, "\nBy category:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, name := range snap.Categories {
			fmt.Fprintf(tw, "  %s\t%s\n", name, snap.TotalsByCategory[name])
		}
		tw.Flush()
	}
	if len(snap.Trend) > 0 {
		fmt.Fprintln(w, "\nBy day:")
		for _, dt := range snap.Trend {
			fmt.Fprintf(w, "  %s  %s\n", dt.Date, dt.Total)
		}
	}
}

func writeCategoryReport(w io.Writer, report services.CategoryReport) {
	if len(report.Categories) == 0 {
		fmt.Fprintln(w, "No categories.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT\tTOTAL\tAVERAGE\tMIN\tMAX")
	for _, c := range report.Categories {
		s := report.Statistics[c.Key()]
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", c.Name, s.Count, s.Total, s.Average, s.Min, s.Max)
	}
	tw.Flush()
}

// yamlView converts values whose YAML form differs from the core types'
// field layout.
func yamlView(v any) any {
	switch val := v.(type) {
	case []core.Expense:
		out := make([]map[string]any, 0, len(val))
		for _, e := range val {
			out = append(out, expenseYAML(e))
		}
		return out
	case core.Expense:
		return expenseYAML(val)
	case services.CategoryReport:
		names := make([]string, 0, len(val.Categories))
		for _, c := range val.Categories {
			names = append(names, c.Name)
		}
		return map[string]any{
			"categories":          names,
			"category_statistics": val.Statistics,
		}
	default:
		return v
	}
}

func expenseYAML(e core.Expense) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"category":    e.Category.Name,
		"amount":      e.Amount,
		"date":        e.Date,
		"description": e.Description,
	}
}
