package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"billbook/internal/adapters"
	"billbook/internal/backend"
	"billbook/internal/cli"
	"billbook/internal/config"
	"billbook/internal/export"
	applog "billbook/internal/log"
	"billbook/internal/services"
	"billbook/internal/storage"
)

func main() {
	var (
		mode   = flag.String("mode", "pending", "what to export: pending (ledger backlog), bill (one bill as CSV) or report (profit/loss CSV)")
		userID = flag.String("user", "", "user id owning the bill or report")
		billID = flag.String("bill", "", "bill id for -mode=bill")
		out    = flag.String("out", "-", "output file for CSV modes; - writes to stdout")
		limit  = flag.Int("limit", 0, "max bills to export for -mode=pending; defaults to SYNC_BATCH_SIZE")
	)
	flag.Parse()

	cfg, logger := cli.Bootstrap(applog.ComponentExport)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	store := adapters.NewInstrumentedStore(repo, nil)
	defer store.Close()

	var err error
	switch *mode {
	case "pending":
		err = exportPending(ctx, cfg, store, *limit, logger)
	case "bill":
		err = writeTo(*out, func(w io.Writer) error {
			return billCSV(ctx, w, store, *userID, *billID)
		})
	case "report":
		err = writeTo(*out, func(w io.Writer) error {
			return reportCSV(ctx, w, store, *userID)
		})
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}

	if err != nil {
		logger.Error("Export failed",
			"mode", *mode,
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		os.Exit(1)
	}
}

// exportPending pushes one batch of unsynced bills to the ledger.
func exportPending(ctx context.Context, cfg *config.Config, store storage.Store, limit int, logger *applog.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	if !backendCfg.LedgerEnabled() {
		return errors.New("ledger is not configured (set GOOGLE_SPREADSHEET_ID)")
	}
	ledger, err := backend.NewLedger(ctx, backendCfg, slog.Default())
	if err != nil {
		return err
	}

	if limit <= 0 {
		limit = cfg.SyncBatchSize
	}
	exporter := services.NewLedgerExporter(store, ledger, nil)
	synced, err := exporter.ExportPending(ctx, limit, cfg.SyncMaxRetries)
	if err != nil {
		return err
	}

	stats, err := store.SyncStats(ctx)
	if err != nil {
		return fmt.Errorf("read sync stats: %w", err)
	}
	logger.Info("Pending bills exported",
		"synced", synced,
		"still_pending", stats.Pending,
		"failed", stats.Failed)
	return nil
}

func billCSV(ctx context.Context, w io.Writer, store storage.BillStore, userID, billID string) error {
	if userID == "" || billID == "" {
		return errors.New("-user and -bill are required for -mode=bill")
	}
	b, err := store.GetBill(ctx, userID, billID)
	if err != nil {
		return fmt.Errorf("get bill %s: %w", billID, err)
	}
	return export.WriteBillCSV(w, b, b.Totals())
}

func reportCSV(ctx context.Context, w io.Writer, store storage.BillStore, userID string) error {
	if userID == "" {
		return errors.New("-user is required for -mode=report")
	}
	pl, err := services.NewReportService(store, nil, nil).ProfitLoss(ctx, userID)
	if err != nil {
		return err
	}
	return export.WriteProfitLossCSV(w, pl)
}

// writeTo runs write against path, or stdout for "-".
func writeTo(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
