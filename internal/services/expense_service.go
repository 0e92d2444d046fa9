package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"expense-tracker/internal/amqp"
	"expense-tracker/internal/core"
	applog "expense-tracker/internal/log"
)

// EventPublisher receives change events after successful mutations.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error
	Close() error
}

// ListFilter narrows List. The zero value returns everything sorted by date.
type ListFilter struct {
	InsertionOrder bool
	From, To       *core.Date
}

// CategoryReport pairs the distinct categories with their statistics.
type CategoryReport struct {
	Categories []core.Category                `json:"categories"`
	Statistics map[string]core.CategoryStats `json:"category_statistics"`
}

// unreadableSuffix is appended to a data file that failed to load before it
// is first overwritten.
const unreadableSuffix = ".corrupt"

// ExpenseService owns the tracker, serializes access to it and persists
// every mutation to the data file.
type ExpenseService struct {
	mu        sync.Mutex
	tracker   *core.Tracker
	path      string
	publisher EventPublisher
	logger    *applog.Logger

	// loadFailed is set while the data file on disk could not be loaded and
	// has not been moved aside yet.
	loadFailed bool
}

// NewExpenseService creates a service backed by the file at path.
// publisher may be nil.
func NewExpenseService(path string, publisher EventPublisher, logger *applog.Logger) *ExpenseService {
	if logger == nil {
		logger = applog.Nop()
	}
	return &ExpenseService{
		tracker:   core.NewTracker(),
		path:      path,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentExpense),
	}
}

// Path returns the data file location.
func (s *ExpenseService) Path() string {
	return s.path
}

// Load replaces the in-memory state with the data file contents.
func (s *ExpenseService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tracker.Load(s.path); err != nil {
		s.loadFailed = true
		return fmt.Errorf("load expenses: %w", err)
	}
	s.loadFailed = false
	s.logger.InfoContext(ctx, "Expenses loaded",
		applog.FieldFile, s.path,
		applog.FieldCount, s.tracker.Len(),
		applog.FieldOperation, applog.OpLoad)
	return nil
}

// Create validates and stores a new expense.
func (s *ExpenseService) Create(ctx context.Context, category, amount, date, description string) (core.Expense, error) {
	s.mu.Lock()
	e, err := s.tracker.Add(category, amount, date, description)
	if err != nil {
		s.mu.Unlock()
		return core.Expense{}, err
	}
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense created",
		applog.FieldExpenseID, e.ID,
		applog.FieldCategory, e.Category.Name,
		applog.FieldAmount, e.Amount.String(),
		applog.FieldDate, e.Date.String())

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseCreated, e))
	return e, nil
}

// Delete removes the expense with the given id.
func (s *ExpenseService) Delete(ctx context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	e, ok := s.tracker.Remove(id)
	if !ok {
		s.mu.Unlock()
		return core.Expense{}, fmt.Errorf("delete %s: %w", id, core.ErrExpenseNotFound)
	}
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense deleted", applog.FieldExpenseID, id)
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseDeleted, e))
	return e, nil
}

// Clear removes every expense and returns how many were removed.
func (s *ExpenseService) Clear(ctx context.Context) int {
	s.mu.Lock()
	n := s.tracker.Clear()
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expenses cleared", applog.FieldCount, n)
	s.publish(ctx, amqp.NewClearedEvent(n))
	return n
}

// List returns expenses matching f.
func (s *ExpenseService) List(f ListFilter) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.From != nil || f.To != nil {
		from, to := core.Date{}, core.NewDate(9999, 12, 31)
		if f.From != nil {
			from = *f.From
		}
		if f.To != nil {
			to = *f.To
		}
		out := s.tracker.ByDateRange(from, to)
		if !f.InsertionOrder {
			sortByDate(out)
		}
		return nonNil(out)
	}
	return s.tracker.List(!f.InsertionOrder)
}

// Get returns one expense by id.
func (s *ExpenseService) Get(id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tracker.Get(id)
	if !ok {
		return core.Expense{}, fmt.Errorf("get %s: %w", id, core.ErrExpenseNotFound)
	}
	return e, nil
}

// ByCategory returns the expenses of one category, ignoring case.
func (s *ExpenseService) ByCategory(name string) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nonNil(s.tracker.ByCategory(name))
}

func (s *ExpenseService) Statistics() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Statistics()
}

func (s *ExpenseService) Categories() CategoryReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats := s.tracker.Categories()
	if cats == nil {
		cats = []core.Category{}
	}
	return CategoryReport{
		Categories: cats,
		Statistics: s.tracker.CategoryStatistics(),
	}
}

// Flush writes the current state to the data file. A file that failed to
// load is left untouched unless a mutation has happened since.
func (s *ExpenseService) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadFailed {
		s.logger.WarnContext(ctx, "Skipping flush, data file could not be loaded",
			applog.FieldFile, s.path,
			applog.FieldOperation, applog.OpSave)
		return nil
	}
	if err := s.tracker.Save(s.path); err != nil {
		return fmt.Errorf("flush expenses: %w", err)
	}
	s.logger.InfoContext(ctx, "Expenses flushed", applog.FieldFile, s.path, applog.FieldCount, s.tracker.Len())
	return nil
}

// Close releases the publisher.
func (s *ExpenseService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close expense service: amqp: %w", err)
	}
	return nil
}

// saveLocked persists the tracker. Failures are logged and the in-memory
// mutation stands. Callers hold s.mu.
func (s *ExpenseService) saveLocked(ctx context.Context) {
	if s.loadFailed && !s.moveUnreadableLocked(ctx) {
		return
	}
	if err := s.tracker.Save(s.path); err != nil {
		fields := applog.NewFields().
			WithOperation(applog.OpSave).
			WithFile(s.path).
			WithError(err).
			WithErrorType(applog.ErrorTypeStorage)
		s.logger.ErrorContext(ctx, "Failed to save expenses", fields.ToSlice()...)
	}
}

// moveUnreadableLocked renames the data file that failed to load to
// path+unreadableSuffix so the next save cannot destroy it. Callers hold s.mu.
func (s *ExpenseService) moveUnreadableLocked(ctx context.Context) bool {
	backup := s.path + unreadableSuffix
	if err := os.Rename(s.path, backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fields := applog.NewFields().
			WithOperation(applog.OpSave).
			WithFile(s.path).
			WithError(err).
			WithErrorType(applog.ErrorTypeStorage)
		s.logger.ErrorContext(ctx, "Failed to move unreadable expenses file aside, not saving", fields.ToSlice()...)
		return false
	}
	s.loadFailed = false
	s.logger.WarnContext(ctx, "Moved unreadable expenses file aside",
		applog.FieldFile, s.path,
		"backup", backup)
	return true
}

func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping event", applog.FieldEvent, event.Type)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			applog.FieldEvent, event.Type,
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeNetwork)
	}
}

// IsNotFound reports whether err means the addressed expense does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrExpenseNotFound)
}

func sortByDate(es []core.Expense) {
	sort.SliceStable(es, func(i, j int) bool {
		return es[i].Date.Before(es[j].Date)
	})
}

func nonNil(es []core.Expense) []core.Expense {
	if es == nil {
		return []core.Expense{}
	}
	return es
}
