// Package adapters decorates storage backends with logging and metrics so
// handlers and services see one storage.Store regardless of the backend.
package adapters

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"billbook/internal/core"
	applog "billbook/internal/log"
	"billbook/internal/metrics"
	"billbook/internal/storage"
)

// DefaultSlowThreshold is the latency above which a storage call is logged at warn level.
const DefaultSlowThreshold = 250 * time.Millisecond

// InstrumentedStore wraps a storage.Store, timing every call.
type InstrumentedStore struct {
	inner   storage.Store
	metrics *metrics.Metrics
	logger  *applog.Logger
	slow    time.Duration
}

var _ storage.Store = (*InstrumentedStore)(nil)

// NewInstrumentedStore wraps inner. m may be nil.
func NewInstrumentedStore(inner storage.Store, m *metrics.Metrics) *InstrumentedStore {
	return &InstrumentedStore{
		inner:   inner,
		metrics: m,
		logger:  applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentStorage}),
		slow:    DefaultSlowThreshold,
	}
}

// Unwrap returns the decorated store.
func (s *InstrumentedStore) Unwrap() storage.Store { return s.inner }

// observe records one call. Not-found is an expected outcome and counts as ok.
func (s *InstrumentedStore) observe(ctx context.Context, op string, start time.Time, err error) {
	d := time.Since(start)
	failed := err != nil && !errors.Is(err, storage.ErrNotFound)
	s.metrics.ObserveStore(op, d, failed)

	switch {
	case failed:
		s.logger.ErrorContext(ctx, "Storage call failed",
			applog.FieldOperation, op,
			applog.FieldError, err,
			applog.FieldErrorType, errorType(err),
			applog.FieldDuration, d.Milliseconds())
	case d > s.slow:
		s.logger.WarnContext(ctx, "Slow storage call",
			applog.FieldOperation, op,
			applog.FieldDuration, d.Milliseconds())
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return applog.ErrorTypeConflict
	case errors.Is(err, context.DeadlineExceeded):
		return applog.ErrorTypeTimeout
	default:
		return applog.ErrorTypeDatabase
	}
}

func (s *InstrumentedStore) CreateBill(ctx context.Context, b core.Bill) (err error) {
	defer func(start time.Time) { s.observe(ctx, "create_bill", start, err) }(time.Now())
	return s.inner.CreateBill(ctx, b)
}

func (s *InstrumentedStore) GetBill(ctx context.Context, userID, id string) (b core.Bill, err error) {
	defer func(start time.Time) { s.observe(ctx, "get_bill", start, err) }(time.Now())
	return s.inner.GetBill(ctx, userID, id)
}

func (s *InstrumentedStore) ListBills(ctx context.Context, userID string, limit int) (bills []core.Bill, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_bills", start, err) }(time.Now())
	return s.inner.ListBills(ctx, userID, limit)
}

func (s *InstrumentedStore) ListBillsWithItems(ctx context.Context, userID string) (bills []core.Bill, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_bills_with_items", start, err) }(time.Now())
	return s.inner.ListBillsWithItems(ctx, userID)
}

func (s *InstrumentedStore) ListBillItems(ctx context.Context, userID string, billIDs []string) (items map[string][]core.LineItem, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_bill_items", start, err) }(time.Now())
	return s.inner.ListBillItems(ctx, userID, billIDs)
}

func (s *InstrumentedStore) DeleteBill(ctx context.Context, userID, id string) (b core.Bill, err error) {
	defer func(start time.Time) { s.observe(ctx, "delete_bill", start, err) }(time.Now())
	return s.inner.DeleteBill(ctx, userID, id)
}

func (s *InstrumentedStore) UpdateBillStatus(ctx context.Context, userID, id string, status core.BillStatus) (err error) {
	defer func(start time.Time) { s.observe(ctx, "update_bill_status", start, err) }(time.Now())
	return s.inner.UpdateBillStatus(ctx, userID, id, status)
}

func (s *InstrumentedStore) SaveClient(ctx context.Context, c core.Client) (err error) {
	defer func(start time.Time) { s.observe(ctx, "save_client", start, err) }(time.Now())
	return s.inner.SaveClient(ctx, c)
}

func (s *InstrumentedStore) ListClients(ctx context.Context, userID string) (clients []core.Client, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_clients", start, err) }(time.Now())
	return s.inner.ListClients(ctx, userID)
}

func (s *InstrumentedStore) DeleteClient(ctx context.Context, userID, id string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "delete_client", start, err) }(time.Now())
	return s.inner.DeleteClient(ctx, userID, id)
}

func (s *InstrumentedStore) ListPendingSync(ctx context.Context, limit, maxAttempts int) (pending []storage.PendingBill, err error) {
	defer func(start time.Time) { s.observe(ctx, "list_pending_sync", start, err) }(time.Now())
	return s.inner.ListPendingSync(ctx, limit, maxAttempts)
}

func (s *InstrumentedStore) SyncStatus(ctx context.Context, id string) (status string, err error) {
	defer func(start time.Time) { s.observe(ctx, "sync_status", start, err) }(time.Now())
	return s.inner.SyncStatus(ctx, id)
}

func (s *InstrumentedStore) MarkSynced(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "mark_synced", start, err) }(time.Now())
	return s.inner.MarkSynced(ctx, id)
}

func (s *InstrumentedStore) MarkSyncError(ctx context.Context, id string, reason string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "mark_sync_error", start, err) }(time.Now())
	return s.inner.MarkSyncError(ctx, id, reason)
}

func (s *InstrumentedStore) SyncStats(ctx context.Context) (stats storage.SyncStats, err error) {
	defer func(start time.Time) { s.observe(ctx, "sync_stats", start, err) }(time.Now())
	return s.inner.SyncStats(ctx)
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
