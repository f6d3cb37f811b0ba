package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billbook/internal/amqp"
	"billbook/internal/cache"
	"billbook/internal/core"
	"billbook/internal/metrics"
	sheetsmem "billbook/internal/sheets/memory"
	"billbook/internal/storage"
	storemem "billbook/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.BillEvent
	err    error
}

func (p *recordingPublisher) PublishBillEvent(_ context.Context, e *amqp.BillEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
	return p.err
}

func (p *recordingPublisher) Events() []amqp.BillEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]amqp.BillEvent(nil), p.events...)
}

func draft(number string, date core.Date, items ...core.LineItem) core.Bill {
	return core.Bill{
		BillNumber: number,
		SellerName: "Shop",
		ClientName: "Asha",
		Date:       date,
		Items:      items,
	}
}

func TestBillServiceCreateSnapshotsTotal(t *testing.T) {
	ctx := context.Background()
	store := storemem.New()
	pub := &recordingPublisher{}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewBillService(store, pub, nil, m)

	b := draft("INV-1", core.NewDate(2024, 1, 1),
		core.LineItem{ItemName: "Pen", Quantity: 10, Rate: 5, Cost: 2},
		core.LineItem{ItemName: "Book", Quantity: 2, Rate: 20, Cost: 10})
	b.Discount = 10
	b.TotalAmount = 999

	saved, totals, err := svc.CreateBill(ctx, "u1", b)
	require.NoError(t, err)
	svc.Close()

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "u1", saved.UserID)
	assert.Equal(t, core.DefaultCurrency, saved.Currency)
	assert.Equal(t, core.StatusUnpaid, saved.Status)
	assert.InDelta(t, 81.0, totals.Total, 1e-9)
	assert.InDelta(t, 81.0, saved.TotalAmount, 1e-9)
	for _, it := range saved.Items {
		assert.NotEmpty(t, it.ID)
	}

	stored, err := store.GetBill(ctx, "u1", saved.ID)
	require.NoError(t, err)
	assert.True(t, stored.Totals().MatchesSnapshot(stored.TotalAmount))

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, amqp.EventBillSaved, events[0].Type)
	assert.Equal(t, saved.ID, events[0].BillID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BillsCreated))
}

func TestBillServiceCreateValidation(t *testing.T) {
	svc := NewBillService(storemem.New(), nil, nil, nil)

	_, _, err := svc.CreateBill(context.Background(), "u1", draft("INV-1", core.NewDate(2024, 1, 1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoItems)

	_, _, err = svc.CreateBill(context.Background(), "u1", draft("INV-2", core.NewDate(2024, 1, 1),
		core.LineItem{ItemName: "Pen", Quantity: 0, Rate: -1}))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items[0].quantity")
	assert.Contains(t, verr.Fields, "items[0].rate")
}

func TestBillServicePublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewBillService(storemem.New(), pub, nil, nil)

	_, _, err := svc.CreateBill(context.Background(), "u1", draft("INV-1", core.NewDate(2024, 1, 1),
		core.LineItem{ItemName: "Pen", Quantity: 1, Rate: 1}))
	require.NoError(t, err)
	svc.Close()
	assert.Len(t, pub.Events(), 1)
}

func TestBillServiceDeleteAndStatus(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewBillService(storemem.New(), pub, nil, nil)

	saved, _, err := svc.CreateBill(ctx, "u1", draft("INV-7", core.NewDate(2024, 1, 1),
		core.LineItem{ItemName: "Pen", Quantity: 1, Rate: 1}))
	require.NoError(t, err)

	st, err := svc.UpdateStatus(ctx, "u1", saved.ID, "PAID")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, st)

	_, err = svc.UpdateStatus(ctx, "u1", saved.ID, "void")
	assert.ErrorIs(t, err, core.ErrInvalidStatus)

	err = svc.DeleteBill(ctx, "u2", saved.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound, "other users cannot delete")

	require.NoError(t, svc.DeleteBill(ctx, "u1", saved.ID))
	svc.Close()

	_, err = svc.GetBill(ctx, "u1", saved.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	events := pub.Events()
	require.Len(t, events, 2)
	assert.Equal(t, amqp.EventBillDeleted, events[1].Type)
	assert.Equal(t, "INV-7", events[1].BillNumber)
}

func TestBillServicePreview(t *testing.T) {
	svc := NewBillService(storemem.New(), nil, nil, nil)
	b, totals := svc.Preview(draft("", core.Date{},
		core.LineItem{ItemName: "Widget", Quantity: 1, Rate: 100000}))

	assert.NotEmpty(t, b.BillNumber)
	assert.False(t, b.Date.IsZero())
	assert.True(t, totals.GSTNotice())
	assert.Equal(t, 100000.0, b.TotalAmount)
}

func TestReportServiceCachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	store := storemem.New()
	reports := cache.NewLRUCache[core.ProfitLoss](16, time.Minute)
	m := metrics.New(prometheus.NewRegistry())
	bills := NewBillService(store, nil, reports, m)
	svc := NewReportService(store, reports, m)

	_, _, err := bills.CreateBill(ctx, "u1", draft("INV-1", core.NewDate(2024, 1, 1),
		core.LineItem{ItemName: "Pen", Quantity: 10, Rate: 5, Cost: 2},
		core.LineItem{ItemName: "Book", Quantity: 2, Rate: 20, Cost: 10}))
	require.NoError(t, err)

	pl, err := svc.ProfitLoss(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, pl.Totals.Revenue, 1e-9)
	assert.InDelta(t, 40.0, pl.Totals.Cost, 1e-9)

	_, err = svc.ProfitLoss(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("report", "hit")))

	_, _, err = bills.CreateBill(ctx, "u1", draft("INV-2", core.NewDate(2024, 2, 1),
		core.LineItem{ItemName: "Pen", Quantity: 5, Rate: 5, Cost: 1}))
	require.NoError(t, err)

	pl, err = svc.ProfitLoss(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, pl.BillCount)
	assert.InDelta(t, 115.0, pl.Totals.Revenue, 1e-9)
	assert.Len(t, pl.Series.Monthly, 2)

	other, err := svc.ProfitLoss(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other.PerItem)
}

type failingLedger struct{ calls int }

func (f *failingLedger) AppendBill(context.Context, core.Bill, core.Totals) (string, error) {
	f.calls++
	return "", errors.New("quota exceeded")
}

func (f *failingLedger) DeleteBill(context.Context, string, string) error { return nil }

func TestLedgerExporterExportPending(t *testing.T) {
	ctx := context.Background()
	store := storemem.New()
	bills := NewBillService(store, nil, nil, nil)
	for _, n := range []string{"INV-1", "INV-2"} {
		_, _, err := bills.CreateBill(ctx, "u1", draft(n, core.NewDate(2024, 1, 1),
			core.LineItem{ItemName: "Pen", Quantity: 1, Rate: 3, Cost: 1}))
		require.NoError(t, err)
	}

	ledger := sheetsmem.New()
	exporter := NewLedgerExporter(store, ledger, nil)

	synced, err := exporter.ExportPending(ctx, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Len(t, ledger.Rows(), 2)

	stats, err := store.SyncStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Synced)

	synced, err = exporter.ExportPending(ctx, 10, 3)
	require.NoError(t, err)
	assert.Zero(t, synced, "synced bills are not exported twice")
}

func TestLedgerExporterStopsAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	store := storemem.New()
	_, _, err := NewBillService(store, nil, nil, nil).CreateBill(ctx, "u1", draft("INV-1", core.NewDate(2024, 1, 1),
		core.LineItem{ItemName: "Pen", Quantity: 1, Rate: 3}))
	require.NoError(t, err)

	ledger := &failingLedger{}
	exporter := NewLedgerExporter(store, ledger, nil)
	for i := 0; i < 5; i++ {
		_, err := exporter.ExportPending(ctx, 10, 3)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, ledger.calls)
	stats, err := store.SyncStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestLedgerExporterSkipsDeletedBill(t *testing.T) {
	exporter := NewLedgerExporter(storemem.New(), sheetsmem.New(), nil)
	ref, err := exporter.Export(context.Background(), "u1", "missing")
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestLedgerExporterSkipsAlreadySyncedBill(t *testing.T) {
	ctx := context.Background()
	store := storemem.New()
	b, _, err := NewBillService(store, nil, nil, nil).CreateBill(ctx, "u1", draft("INV-1", core.NewDate(2024, 1, 1),
		core.LineItem{ItemName: "Pen", Quantity: 1, Rate: 3, Cost: 1}))
	require.NoError(t, err)

	ledger := sheetsmem.New()
	exporter := NewLedgerExporter(store, ledger, nil)

	synced, err := exporter.ExportPending(ctx, 50, 3)
	require.NoError(t, err)
	require.Equal(t, 1, synced)

	// a queued bill.saved event for the same bill arrives after the sweep
	ref, err := exporter.Export(ctx, "u1", b.ID)
	require.NoError(t, err)
	assert.Empty(t, ref)
	assert.Len(t, ledger.Rows(), 1, "one ledger row per bill")

	status, err := store.SyncStatus(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.SyncSynced, status)
}

func TestBillServiceListBillsPagesBeforeLoadingItems(t *testing.T) {
	ctx := context.Background()
	store := storemem.New()
	svc := NewBillService(store, nil, nil, nil)
	for day, n := range []string{"INV-1", "INV-2", "INV-3"} {
		_, _, err := svc.CreateBill(ctx, "u1", draft(n, core.NewDate(2024, 1, day+1),
			core.LineItem{ItemName: "Pen", Quantity: float64(day + 1), Rate: 10}))
		require.NoError(t, err)
	}
	_, _, err := svc.CreateBill(ctx, "u2", draft("INV-9", core.NewDate(2024, 2, 1),
		core.LineItem{ItemName: "Book", Quantity: 1, Rate: 50}))
	require.NoError(t, err)

	bills, err := svc.ListBills(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, "INV-3", bills[0].BillNumber)
	assert.Equal(t, "INV-2", bills[1].BillNumber)
	for _, b := range bills {
		require.Len(t, b.Items, 1, b.BillNumber)
		assert.Equal(t, b.TotalAmount, b.Totals().Total, b.BillNumber)
	}
	assert.InDelta(t, 30, bills[0].Totals().Total, 1e-9)

	all, err := svc.ListBills(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSyncProcessorLifecycle(t *testing.T) {
	ctx := context.Background()
	store := storemem.New()
	_, _, err := NewBillService(store, nil, nil, nil).CreateBill(ctx, "u1", draft("INV-1", core.NewDate(2024, 1, 1),
		core.LineItem{ItemName: "Pen", Quantity: 1, Rate: 3}))
	require.NoError(t, err)

	ledger := sheetsmem.New()
	p := NewSyncProcessor(NewLedgerExporter(store, ledger, nil), SyncProcessorConfig{PollInterval: 10 * time.Millisecond})
	assert.False(t, p.IsRunning())

	require.NoError(t, p.Start(ctx))
	assert.Error(t, p.Start(ctx), "second start must fail")
	assert.True(t, p.IsRunning())

	assert.Eventually(t, func() bool { return len(ledger.Rows()) == 1 }, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, p.Stop(stopCtx))
	assert.False(t, p.IsRunning())
	require.NoError(t, p.Stop(stopCtx))
}

func TestDefaultSyncProcessorConfig(t *testing.T) {
	p := NewSyncProcessor(nil, SyncProcessorConfig{})
	assert.Equal(t, DefaultSyncProcessorConfig(), p.config)
}

func TestClientService(t *testing.T) {
	ctx := context.Background()
	svc := NewClientService(storemem.New())

	_, err := svc.SaveClient(ctx, "u1", core.Client{Name: "Asha"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "address")

	c, err := svc.SaveClient(ctx, "u1", core.Client{Name: " Asha ", Address: "12 Road", Email: "asha@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", c.Name)
	assert.NotEmpty(t, c.ID)

	list, err := svc.ListClients(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteClient(ctx, "u1", c.ID))
	list, err = svc.ListClients(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
