// Package worker mirrors bill events from the message bus into the
// spreadsheet ledger.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"billbook/internal/amqp"
	"billbook/internal/services"
)

// SyncWorker handles bill events and the pending backlog.
type SyncWorker struct {
	exporter   *services.LedgerExporter
	batchSize  int
	maxRetries int
}

func NewSyncWorker(exporter *services.LedgerExporter, batchSize, maxRetries int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &SyncWorker{
		exporter:   exporter,
		batchSize:  batchSize,
		maxRetries: maxRetries,
	}
}

// HandleEvent processes one message. Returning an error requeues it.
func (w *SyncWorker) HandleEvent(ctx context.Context, event *amqp.BillEvent) error {
	slog.InfoContext(ctx, "Processing bill event",
		"type", event.Type,
		"user_id", event.UserID,
		"bill_id", event.BillID,
		"bill_number", event.BillNumber)

	switch event.Type {
	case amqp.EventBillSaved:
		if _, err := w.exporter.Export(ctx, event.UserID, event.BillID); err != nil {
			return fmt.Errorf("export bill: %w", err)
		}
	case amqp.EventBillDeleted:
		if err := w.exporter.Remove(ctx, event.UserID, event.BillNumber); err != nil {
			return fmt.Errorf("remove bill: %w", err)
		}
	default:
		slog.WarnContext(ctx, "Ignoring unknown bill event", "type", event.Type)
	}
	return nil
}

// ProcessPendingBills exports one batch of bills still awaiting sync.
func (w *SyncWorker) ProcessPendingBills(ctx context.Context) error {
	synced, err := w.exporter.ExportPending(ctx, w.batchSize, w.maxRetries)
	if err != nil {
		return fmt.Errorf("process pending bills: %w", err)
	}
	if synced > 0 {
		slog.InfoContext(ctx, "Processed pending bills", "synced", synced)
	}
	return nil
}

// StartupSyncCheck exports a larger backlog once at worker startup, covering
// events lost while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.exporter.ExportPending(ctx, w.batchSize*5, w.maxRetries)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync check completed", "synced", synced)
	return nil
}
