package services

import (
	"context"
	"errors"
	"fmt"

	applog "billbook/internal/log"
	"billbook/internal/metrics"
	"billbook/internal/sheets"
	"billbook/internal/storage"
)

// LedgerExporter mirrors one bill into the spreadsheet ledger and records
// the outcome on the bill's sync state.
type LedgerExporter struct {
	store   storage.Store
	ledger  sheets.BillLedger
	metrics *metrics.Metrics
	logger  *applog.Logger
	events  *applog.StructuredLogger
}

func NewLedgerExporter(store storage.Store, ledger sheets.BillLedger, m *metrics.Metrics) *LedgerExporter {
	logger := componentLogger(applog.ComponentSheets)
	return &LedgerExporter{
		store:   store,
		ledger:  ledger,
		metrics: m,
		logger:  logger,
		events:  applog.NewStructuredLogger(logger),
	}
}

// Export appends the bill's row. A bill deleted before export, or one already
// in the ledger, is skipped so redelivered events never duplicate rows.
func (e *LedgerExporter) Export(ctx context.Context, userID, billID string) (string, error) {
	status, err := e.store.SyncStatus(ctx, billID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		e.logger.InfoContext(ctx, "Bill gone before ledger export, skipping",
			applog.FieldUserID, userID,
			applog.FieldBillID, billID)
		return "", nil
	case err != nil:
		return "", fmt.Errorf("get sync status of bill %s: %w", billID, err)
	case status == storage.SyncSynced:
		e.logger.DebugContext(ctx, "Bill already in ledger, skipping",
			applog.FieldUserID, userID,
			applog.FieldBillID, billID)
		return "", nil
	}

	b, err := e.store.GetBill(ctx, userID, billID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			e.logger.InfoContext(ctx, "Bill gone before ledger export, skipping",
				applog.FieldUserID, userID,
				applog.FieldBillID, billID)
			return "", nil
		}
		return "", fmt.Errorf("get bill %s: %w", billID, err)
	}

	ref, err := e.ledger.AppendBill(ctx, b, b.Totals())
	if err != nil {
		e.metrics.SyncResult(storage.SyncError)
		if markErr := e.store.MarkSyncError(ctx, billID, err.Error()); markErr != nil {
			e.events.LogError(ctx, "Failed to record sync error", markErr, applog.OpSync,
				applog.LogFields{applog.FieldBillID: billID}.WithErrorType(applog.ErrorTypeDatabase))
		}
		return "", fmt.Errorf("append bill %s to ledger: %w", b.BillNumber, err)
	}

	e.metrics.SyncResult(storage.SyncSynced)
	if err := e.store.MarkSynced(ctx, billID); err != nil {
		// the row is written; a later retry would duplicate it, so only log
		e.logger.WarnContext(ctx, "Failed to mark bill as synced",
			applog.FieldBillID, billID,
			applog.FieldError, err)
	}

	e.logger.InfoContext(ctx, "Bill exported to ledger",
		applog.FieldUserID, userID,
		applog.FieldBillID, billID,
		applog.FieldBillNumber, b.BillNumber,
		applog.FieldLedgerRef, ref)
	return ref, nil
}

// Remove clears the ledger row of a deleted bill.
func (e *LedgerExporter) Remove(ctx context.Context, userID, billNumber string) error {
	if err := e.ledger.DeleteBill(ctx, userID, billNumber); err != nil {
		return fmt.Errorf("remove bill %s from ledger: %w", billNumber, err)
	}
	e.logger.InfoContext(ctx, "Bill removed from ledger",
		applog.FieldUserID, userID,
		applog.FieldBillNumber, billNumber)
	return nil
}

// ExportPending exports up to limit bills still awaiting sync and returns
// how many succeeded.
func (e *LedgerExporter) ExportPending(ctx context.Context, limit, maxAttempts int) (int, error) {
	pending, err := e.store.ListPendingSync(ctx, limit, maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("list pending sync: %w", err)
	}

	synced := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if _, err := e.Export(ctx, p.UserID, p.ID); err != nil {
			e.logger.WarnContext(ctx, "Ledger export failed",
				applog.FieldBillID, p.ID,
				"attempt", p.Attempts+1,
				"max_attempts", maxAttempts,
				applog.FieldError, err)
			if p.Attempts+1 >= maxAttempts {
				e.events.LogError(ctx, "Bill left in error state after max retries", err, applog.OpExport,
					applog.LogFields{applog.FieldBillID: p.ID, applog.FieldBillNumber: p.BillNumber})
			}
			continue
		}
		synced++
	}
	return synced, nil
}
