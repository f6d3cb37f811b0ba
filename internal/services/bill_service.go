// Package services orchestrates bill operations across storage, the report
// cache and the event bus.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"billbook/internal/amqp"
	"billbook/internal/cache"
	"billbook/internal/core"
	applog "billbook/internal/log"
	"billbook/internal/metrics"
	"billbook/internal/storage"
)

const publishTimeout = 30 * time.Second

// EventPublisher sends bill lifecycle events. *amqp.Client implements it.
type EventPublisher interface {
	PublishBillEvent(ctx context.Context, event *amqp.BillEvent) error
}

// BillService saves, deletes and updates bills. Event publication runs in
// the background and never fails the request.
type BillService struct {
	store     storage.BillStore
	publisher EventPublisher
	reports   cache.Cache[core.ProfitLoss]
	metrics   *metrics.Metrics
	logger    *applog.Logger
	events    *applog.StructuredLogger
	now       func() time.Time

	wg sync.WaitGroup
}

// NewBillService wires the service. publisher, reports and m may be nil.
func NewBillService(store storage.BillStore, publisher EventPublisher, reports cache.Cache[core.ProfitLoss], m *metrics.Metrics) *BillService {
	logger := componentLogger(applog.ComponentBill)
	return &BillService{
		store:     store,
		publisher: publisher,
		reports:   reports,
		metrics:   m,
		logger:    logger,
		events:    applog.NewStructuredLogger(logger),
		now:       time.Now,
	}
}

func componentLogger(component string) *applog.Logger {
	return applog.New(applog.Config{Handler: slog.Default().Handler(), Component: component})
}

// Preview applies defaults and derives totals for a draft without saving it.
func (s *BillService) Preview(b core.Bill) (core.Bill, core.Totals) {
	b.Items = slices.Clone(b.Items)
	b.ApplyDefaults(s.now())
	t := b.Totals()
	b.TotalAmount = t.Total
	return b, t
}

// CreateBill validates and stores a bill for userID. The stored totalAmount is
// the recomputed total, never a client-supplied value.
func (s *BillService) CreateBill(ctx context.Context, userID string, b core.Bill) (core.Bill, core.Totals, error) {
	now := s.now()
	b.UserID = userID
	b.Items = slices.Clone(b.Items)
	b.ApplyDefaults(now)
	if err := b.Validate(); err != nil {
		return core.Bill{}, core.Totals{}, err
	}

	b.ID = uuid.NewString()
	for i := range b.Items {
		b.Items[i].ID = uuid.NewString()
	}
	b.CreatedAt = now.UTC()
	totals := b.Totals()
	b.TotalAmount = totals.Total

	if err := s.store.CreateBill(ctx, b); err != nil {
		return core.Bill{}, core.Totals{}, fmt.Errorf("save bill: %w", err)
	}

	s.metrics.BillCreated()
	s.invalidateReport(ctx, userID)
	s.events.LogBillSaved(ctx, userID, b.ID, b.BillNumber, len(b.Items), core.Round2(totals.Total), b.Currency)

	s.publish(ctx, amqp.NewBillSavedEvent(userID, b.ID, b.BillNumber))
	return b, totals, nil
}

func (s *BillService) GetBill(ctx context.Context, userID, id string) (core.Bill, error) {
	return s.store.GetBill(ctx, userID, id)
}

// ListBills returns the user's bills with items, newest first. limit <= 0 means all.
func (s *BillService) ListBills(ctx context.Context, userID string, limit int) ([]core.Bill, error) {
	bills, err := s.store.ListBills(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	ids := make([]string, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
	}
	items, err := s.store.ListBillItems(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	for i := range bills {
		bills[i].Items = items[bills[i].ID]
	}
	return bills, nil
}

// DeleteBill removes the bill and its items and publishes bill.deleted.
func (s *BillService) DeleteBill(ctx context.Context, userID, id string) error {
	deleted, err := s.store.DeleteBill(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete bill %s: %w", id, err)
	}

	s.metrics.BillDeleted()
	s.invalidateReport(ctx, userID)
	s.logger.InfoContext(ctx, "Bill deleted",
		applog.FieldUserID, userID,
		applog.FieldBillID, id,
		applog.FieldBillNumber, deleted.BillNumber)

	s.publish(ctx, amqp.NewBillDeletedEvent(userID, id, deleted.BillNumber))
	return nil
}

// UpdateStatus sets paid, unpaid or pending.
func (s *BillService) UpdateStatus(ctx context.Context, userID, id, status string) (core.BillStatus, error) {
	st, err := core.ParseStatus(status)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdateBillStatus(ctx, userID, id, st); err != nil {
		return "", fmt.Errorf("update status of bill %s: %w", id, err)
	}
	s.invalidateReport(ctx, userID)
	return st, nil
}

func (s *BillService) invalidateReport(ctx context.Context, userID string) {
	if s.reports != nil {
		s.reports.Delete(ctx, ReportCacheKey(userID))
	}
}

func (s *BillService) publish(ctx context.Context, event *amqp.BillEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping event", "type", event.Type)
		return
	}

	// the request context ends with the response; keep its values only
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		if err := s.publisher.PublishBillEvent(pubCtx, event); err != nil {
			s.events.LogError(pubCtx, "Failed to publish bill event", err, applog.OpSync,
				applog.LogFields{"type": event.Type, applog.FieldBillID: event.BillID}.
					WithErrorType(applog.ErrorTypeNetwork))
		}
	}()
}

// Close waits for in-flight event publications.
func (s *BillService) Close() {
	s.wg.Wait()
}
