package backend

import (
	"context"
	"fmt"
	"log/slog"

	"billbook/internal/sheets"
	"billbook/internal/sheets/google"
)

// NewLedger returns the Google Sheets ledger, or nil when no spreadsheet is configured.
func NewLedger(ctx context.Context, config Config, logger *slog.Logger) (sheets.BillLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !config.LedgerEnabled() {
		logger.InfoContext(ctx, "Spreadsheet ledger disabled")
		return nil, nil
	}
	client, err := google.New(ctx, google.Options{
		SpreadsheetID:   config.SpreadsheetID,
		SheetName:       config.SheetName,
		CredentialsJSON: config.CredentialsJSON,
		CredentialsFile: config.CredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize sheets ledger: %w", err)
	}
	return client, nil
}
