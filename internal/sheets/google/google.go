// Package google implements the bill ledger on a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"billbook/internal/core"
	ports "billbook/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options configures the ledger client.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	headerOnce sync.Once
	headerErr  error
}

var _ ports.BillLedger = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	creds, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}
	return NewWithClientOptions(ctx, opts,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithClientOptions creates a client with explicit API options, e.g. a
// custom endpoint and HTTP client.
func NewWithClientOptions(ctx context.Context, opts Options, clientOpts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Bills"
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets ledger ready",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheetName)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// loadCredentials prefers inline JSON, then the file path, then GOOGLE_APPLICATION_CREDENTIALS.
func loadCredentials(opts Options) ([]byte, error) {
	if js := strings.TrimSpace(opts.CredentialsJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(opts.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// ensureHeader writes the header row when the sheet is empty. It runs once per client.
func (c *Client) ensureHeader(ctx context.Context) error {
	c.headerOnce.Do(func() {
		rng := fmt.Sprintf("%s!A1:M1", c.sheetName)
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			c.headerErr = fmt.Errorf("read header %s: %w", rng, err)
			return
		}
		if len(resp.Values) > 0 {
			return
		}
		vr := &gsheet.ValueRange{Values: [][]any{ports.Header}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			c.headerErr = fmt.Errorf("write header %s: %w", rng, err)
		}
	})
	return c.headerErr
}

// AppendBill appends one row per bill and returns the updated range.
func (c *Client) AppendBill(ctx context.Context, b core.Bill, t core.Totals) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := c.ensureHeader(ctx); err != nil {
		return "", err
	}

	row := ports.NewRow(b, t)
	rng := fmt.Sprintf("%s!A:M", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row.Values()}}

	// RAW keeps bill numbers like 007 as text and never evaluates names as formulas.
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append bill %s to %s: %w", b.BillNumber, c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// DeleteBill clears every row of the bill. Rows are cleared rather than removed so
// references handed out earlier stay valid.
func (c *Client) DeleteBill(ctx context.Context, userID, billNumber string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:M", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}

	rows := ports.FindRows(resp.Values, userID, billNumber)
	if len(rows) == 0 {
		slog.WarnContext(ctx, "Ledger row not found for deleted bill",
			"user_id", userID,
			"bill_number", billNumber)
		return nil
	}

	for _, idx := range rows {
		rowRange := fmt.Sprintf("%s!A%d:M%d", c.sheetName, idx+1, idx+1)
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rowRange, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do(); err != nil {
			return fmt.Errorf("clear %s: %w", rowRange, err)
		}
	}
	return nil
}
