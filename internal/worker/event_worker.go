package worker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"expense-tracker/internal/amqp"
	applog "expense-tracker/internal/log"
)

// EventWorker handles expense change events consumed from AMQP: each event
// is written as one line to out and counted by type.
type EventWorker struct {
	out    io.Writer
	logger *applog.Logger

	mu     sync.Mutex
	counts map[string]int
}

func NewEventWorker(out io.Writer, logger *applog.Logger) *EventWorker {
	if logger == nil {
		logger = applog.Nop()
	}
	return &EventWorker{
		out:    out,
		logger: logger.WithComponent(applog.ComponentAMQP),
		counts: make(map[string]int),
	}
}

// HandleEvent writes a single event. Unknown event types are rejected so the
// broker requeues them for a newer consumer.
func (w *EventWorker) HandleEvent(ctx context.Context, e *amqp.ExpenseEvent) error {
	line, err := FormatEvent(e)
	if err != nil {
		w.logger.WarnContext(ctx, "Rejecting expense event", applog.FieldEvent, e.Type, applog.FieldError, err)
		return err
	}
	if _, err := fmt.Fprintln(w.out, line); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	w.mu.Lock()
	w.counts[e.Type]++
	w.mu.Unlock()

	w.logger.DebugContext(ctx, "Processed expense event",
		applog.FieldEvent, e.Type,
		applog.FieldExpenseID, e.ExpenseID)
	return nil
}

// Handler adapts HandleEvent to the consumer callback.
func (w *EventWorker) Handler(ctx context.Context) func(*amqp.ExpenseEvent) error {
	return func(e *amqp.ExpenseEvent) error {
		return w.HandleEvent(ctx, e)
	}
}

// Counts returns how many events of each type were handled.
func (w *EventWorker) Counts() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]int, len(w.counts))
	for k, v := range w.counts {
		out[k] = v
	}
	return out
}

// FormatEvent renders an event as a single human readable line.
func FormatEvent(e *amqp.ExpenseEvent) (string, error) {
	ts := e.Timestamp.UTC().Format(time.RFC3339)
	switch e.Type {
	case amqp.EventExpensesCleared:
		return fmt.Sprintf("%s %s count=%d", ts, e.Type, e.Count), nil
	case amqp.EventExpenseCreated, amqp.EventExpenseDeleted:
		return fmt.Sprintf("%s %s id=%s %s | %s | %s", ts, e.Type, e.ExpenseID, e.Date, e.Category, e.Amount), nil
	default:
		return "", fmt.Errorf("unknown event type %q", e.Type)
	}
}
