package services

import (
	"context"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/metrics"
	"expensetracker/internal/storage"
)

// EventPublisher announces committed writes.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.ExpenseEvent) error
}

// CatalogReader returns the category catalog document.
type CatalogReader interface {
	Read(ctx context.Context) ([]byte, error)
}

// ExpenseService runs the expense operations against a store. Every
// operation is logged and measured; writes also emit a change event when a
// publisher is configured.
type ExpenseService struct {
	store   storage.Store
	catalog CatalogReader
	events  EventPublisher
	metrics *metrics.Metrics
	policy  core.UpdatePolicy
	logger  *log.Logger
}

type Option func(*ExpenseService)

// WithEvents publishes a change event after each successful write. Event
// failures are logged and never fail the write.
func WithEvents(p EventPublisher) Option {
	return func(s *ExpenseService) { s.events = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ExpenseService) { s.metrics = m }
}

// WithUpdatePolicy selects how empty strings in an update are treated.
func WithUpdatePolicy(p core.UpdatePolicy) Option {
	return func(s *ExpenseService) { s.policy = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *ExpenseService) { s.logger = l }
}

func NewExpenseService(store storage.Store, catalog CatalogReader, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:   store,
		catalog: catalog,
		policy:  core.IgnoreEmptyStrings,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default(log.ComponentExpense)
	}
	return s
}

// Policy returns the update policy in effect.
func (s *ExpenseService) Policy() core.UpdatePolicy {
	return s.policy
}

// AddExpense inserts e and returns the new id. e.ID is ignored.
func (s *ExpenseService) AddExpense(ctx context.Context, e core.Expense) (id int64, err error) {
	start := time.Now()
	defer func() {
		e.ID = id
		s.observe(ctx, log.OpAdd, start, err, log.NewFields().WithExpense(e).ToSlice()...)
	}()

	e.ID = 0
	id, err = s.store.Add(ctx, e)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, amqp.EventCreated, id)
	return id, nil
}

// ListExpenses returns the records dated within [startDate, endDate] in id
// order.
func (s *ExpenseService) ListExpenses(ctx context.Context, startDate, endDate string) (out []core.Expense, err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, log.OpList, start, err,
			append(log.NewFields().WithRange(startDate, endDate).ToSlice(), log.FieldCount, len(out))...)
	}()

	return s.store.List(ctx, startDate, endDate)
}

// DeleteExpense removes one record and returns the number removed.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) (n int64, err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, log.OpDelete, start, err, log.FieldExpenseID, id)
	}()

	n, err = s.store.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, amqp.EventDeleted, id)
	return n, nil
}

// UpdateExpense applies the fields of u that survive the update policy. It
// returns core.ErrNoFieldsToUpdate before touching the store when none do.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, u core.ExpenseUpdate) (n int64, err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, log.OpUpdate, start, err, log.FieldExpenseID, id)
	}()

	effective := u.Effective(s.policy)
	if effective.IsEmpty() {
		return 0, core.ErrNoFieldsToUpdate
	}

	n, err = s.store.Update(ctx, id, effective)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, amqp.EventUpdated, id)
	return n, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (e core.Expense, err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, log.OpGet, start, err, log.FieldExpenseID, id)
	}()

	return s.store.Get(ctx, id)
}

// FilterExpenses returns the records matching every non-empty field of f,
// ordered by date.
func (s *ExpenseService) FilterExpenses(ctx context.Context, f core.Filter) (out []core.Expense, err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, log.OpFilter, start, err,
			log.FieldCategory, f.Category,
			log.FieldSubcategory, f.Subcategory,
			log.FieldCount, len(out))
	}()

	return s.store.Filter(ctx, f)
}

// Summarize totals amounts per category over [startDate, endDate]. A
// non-empty category restricts the result to that category.
func (s *ExpenseService) Summarize(ctx context.Context, startDate, endDate, category string) (out []core.CategoryTotal, err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, log.OpSummarize, start, err,
			append(log.NewFields().WithRange(startDate, endDate).ToSlice(),
				log.FieldCategory, category,
				log.FieldCount, len(out))...)
	}()

	return s.store.Summarize(ctx, startDate, endDate, category)
}

// Categories returns the catalog document as stored.
func (s *ExpenseService) Categories(ctx context.Context) (doc []byte, err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, log.OpCategories, start, err)
	}()

	return s.catalog.Read(ctx)
}

// Ping checks that the store is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *ExpenseService) publish(ctx context.Context, t amqp.EventType, id int64) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, amqp.NewExpenseEvent(t, id))
	s.metrics.ObserveEvent(string(t), err)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish expense event",
			log.FieldEventType, t,
			log.FieldExpenseID, id,
			log.FieldError, err)
	}
}

// observe logs and measures one finished operation. Missing ids and empty
// updates are normal outcomes and log at warn.
func (s *ExpenseService) observe(ctx context.Context, op string, start time.Time, err error, attrs ...any) {
	elapsed := time.Since(start)
	outcome := log.Outcome(err)
	s.metrics.ObserveOperation(op, outcome, elapsed)

	attrs = append(attrs, log.FieldOutcome, outcome, log.FieldDuration, elapsed.Milliseconds())
	logger := s.logger.WithOperation(op)

	switch outcome {
	case log.OutcomeOK:
		switch op {
		case log.OpAdd, log.OpUpdate, log.OpDelete:
			logger.InfoContext(ctx, "Expense operation completed", attrs...)
		default:
			logger.DebugContext(ctx, "Expense operation completed", attrs...)
		}
	case log.OutcomeError:
		logger.ErrorContext(ctx, "Expense operation failed", append(attrs, log.FieldError, err)...)
	default:
		logger.WarnContext(ctx, "Expense operation rejected", append(attrs, log.FieldError, err)...)
	}
}
