package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"billbook/internal/core"

	_ "modernc.org/sqlite"
)

// itemLoadConcurrency bounds the per-bill item queries in ListBillsWithItems.
const itemLoadConcurrency = 4

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

// CreateBill inserts the bill row and its items in one transaction.
func (r *SQLiteRepository) CreateBill(ctx context.Context, b core.Bill) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now()
	}
	created := b.CreatedAt.UTC().Format(time.RFC3339Nano)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	err = qtx.CreateBill(ctx, CreateBillParams{
		ID:                b.ID,
		UserID:            b.UserID,
		BillNumber:        b.BillNumber,
		SellerName:        b.SellerName,
		SellerAddress:     b.SellerAddress,
		SellerShopNumber:  b.SellerShopNumber,
		SellerOwnerNumber: b.SellerOwnerNumber,
		ClientName:        b.ClientName,
		ClientAddress:     b.ClientAddress,
		ClientPhone:       b.ClientPhone,
		ClientEmail:       b.ClientEmail,
		BillDate:          b.Date.String(),
		Discount:          b.Discount,
		Currency:          b.Currency,
		TotalAmount:       sql.NullFloat64{Float64: b.TotalAmount, Valid: true},
		Status:            string(b.Status),
		CreatedAt:         created,
		UpdatedAt:         created,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create bill %s: %w", b.BillNumber, ErrDuplicate)
		}
		return fmt.Errorf("create bill: %w", err)
	}

	for i, it := range b.Items {
		id := it.ID
		if id == "" {
			id = uuid.NewString()
		}
		err := qtx.CreateBillItem(ctx, CreateBillItemParams{
			ID:       id,
			BillID:   b.ID,
			Position: int64(i),
			ItemName: it.ItemName,
			Quantity: it.Quantity,
			Rate:     it.Rate,
			Cost:     sql.NullFloat64{Float64: it.Cost, Valid: true},
		})
		if err != nil {
			return fmt.Errorf("create bill item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill saved to SQLite",
		"bill_id", b.ID,
		"bill_number", b.BillNumber,
		"user_id", b.UserID,
		"item_count", len(b.Items))

	return nil
}

func (r *SQLiteRepository) GetBill(ctx context.Context, userID, id string) (core.Bill, error) {
	row, err := r.queries.GetBill(ctx, GetBillParams{ID: id, UserID: userID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Bill{}, ErrNotFound
		}
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}

	items, err := r.queries.ListBillItems(ctx, row.ID)
	if err != nil {
		return core.Bill{}, fmt.Errorf("list bill items: %w", err)
	}

	return toCoreBill(row, items), nil
}

func (r *SQLiteRepository) ListBills(ctx context.Context, userID string, limit int) ([]core.Bill, error) {
	rows, err := r.listBillRows(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	bills := make([]core.Bill, len(rows))
	for i, row := range rows {
		bills[i] = toCoreBill(row, nil)
	}
	return bills, nil
}

// ListBillsWithItems loads every bill for the user and fetches the items of
// each bill concurrently.
func (r *SQLiteRepository) ListBillsWithItems(ctx context.Context, userID string) ([]core.Bill, error) {
	rows, err := r.listBillRows(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	bills := make([]core.Bill, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(itemLoadConcurrency)
	for i, row := range rows {
		g.Go(func() error {
			items, err := r.queries.ListBillItems(gctx, row.ID)
			if err != nil {
				return fmt.Errorf("list items for bill %s: %w", row.ID, err)
			}
			bills[i] = toCoreBill(row, items)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return bills, nil
}

// ListBillItems loads the items of a page of bills in a single query.
func (r *SQLiteRepository) ListBillItems(ctx context.Context, userID string, billIDs []string) (map[string][]core.LineItem, error) {
	out := make(map[string][]core.LineItem, len(billIDs))
	if len(billIDs) == 0 {
		return out, nil
	}
	rows, err := r.queries.ListBillItemsForBills(ctx, ListBillItemsForBillsParams{UserID: userID, BillIds: billIDs})
	if err != nil {
		return nil, fmt.Errorf("list bill items: %w", err)
	}
	for _, it := range rows {
		out[it.BillID] = append(out[it.BillID], toRawItem(it).Resolve())
	}
	return out, nil
}

func (r *SQLiteRepository) listBillRows(ctx context.Context, userID string, limit int) ([]Bill, error) {
	l := int64(limit)
	if limit <= 0 {
		l = -1
	}
	rows, err := r.queries.ListBills(ctx, ListBillsParams{UserID: userID, Limit: l})
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return rows, nil
}

// DeleteBill removes the items first and then the bill row in one transaction.
func (r *SQLiteRepository) DeleteBill(ctx context.Context, userID, id string) (core.Bill, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Bill{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	row, err := qtx.GetBill(ctx, GetBillParams{ID: id, UserID: userID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Bill{}, ErrNotFound
		}
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}

	if err := qtx.DeleteBillItems(ctx, id); err != nil {
		return core.Bill{}, fmt.Errorf("delete bill items: %w", err)
	}
	if _, err := qtx.DeleteBill(ctx, DeleteBillParams{ID: id, UserID: userID}); err != nil {
		return core.Bill{}, fmt.Errorf("delete bill: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Bill{}, fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Bill deleted from SQLite",
		"bill_id", id,
		"bill_number", row.BillNumber,
		"user_id", userID)

	return toCoreBill(row, nil), nil
}

func (r *SQLiteRepository) UpdateBillStatus(ctx context.Context, userID, id string, status core.BillStatus) error {
	n, err := r.queries.UpdateBillStatus(ctx, UpdateBillStatusParams{
		Status:    string(status),
		UpdatedAt: r.timestamp(),
		ID:        id,
		UserID:    userID,
	})
	if err != nil {
		return fmt.Errorf("update bill status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) SaveClient(ctx context.Context, c core.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	err := r.queries.UpsertClient(ctx, UpsertClientParams{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListClients(ctx context.Context, userID string) ([]core.Client, error) {
	rows, err := r.queries.ListClients(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	clients := make([]core.Client, len(rows))
	for i, row := range rows {
		clients[i] = core.Client{
			ID:        row.ID,
			UserID:    row.UserID,
			Name:      row.Name,
			Address:   row.Address,
			Phone:     row.Phone,
			Email:     row.Email,
			CreatedAt: parseTimestamp(row.CreatedAt),
		}
	}
	return clients, nil
}

func (r *SQLiteRepository) DeleteClient(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteClient(ctx, DeleteClientParams{ID: id, UserID: userID})
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPendingSync returns bills not yet exported to the ledger whose attempt
// count is still below maxAttempts, oldest first.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit, maxAttempts int) ([]PendingBill, error) {
	rows, err := r.queries.GetPendingSyncBills(ctx, GetPendingSyncBillsParams{
		MaxAttempts: int64(maxAttempts),
		Limit:       int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("get pending sync bills: %w", err)
	}

	pending := make([]PendingBill, len(rows))
	for i, row := range rows {
		pending[i] = PendingBill{
			ID:         row.ID,
			UserID:     row.UserID,
			BillNumber: row.BillNumber,
			Attempts:   int(row.SyncAttempts),
			CreatedAt:  parseTimestamp(row.CreatedAt),
		}
	}
	return pending, nil
}

func (r *SQLiteRepository) SyncStatus(ctx context.Context, id string) (string, error) {
	status, err := r.queries.GetBillSyncStatus(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get sync status: %w", err)
	}
	return status, nil
}

// MarkSynced marks a bill as successfully exported
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	n, err := r.queries.MarkBillSynced(ctx, MarkBillSyncedParams{UpdatedAt: r.timestamp(), ID: id})
	if err != nil {
		return fmt.Errorf("mark bill synced: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Bill marked as synced", "bill_id", id)
	return nil
}

// MarkSyncError records a failed export attempt
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string, reason string) error {
	n, err := r.queries.MarkBillSyncError(ctx, MarkBillSyncErrorParams{
		SyncError: sql.NullString{String: reason, Valid: reason != ""},
		UpdatedAt: r.timestamp(),
		ID:        id,
	})
	if err != nil {
		return fmt.Errorf("mark bill sync error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.WarnContext(ctx, "Bill marked with sync error", "bill_id", id, "error", reason)
	return nil
}

func (r *SQLiteRepository) SyncStats(ctx context.Context) (SyncStats, error) {
	row, err := r.queries.GetSyncStats(ctx)
	if err != nil {
		return SyncStats{}, fmt.Errorf("get sync stats: %w", err)
	}
	return SyncStats{Pending: row.Pending, Synced: row.Synced, Failed: row.Failed}, nil
}

// toCoreBill feeds stored rows through default resolution so legacy rows with
// NULL costs or totals come back as fully typed bills.
func toCoreBill(row Bill, items []BillItem) core.Bill {
	currency := row.Currency
	raw := core.RawBill{
		ID:                row.ID,
		BillNumber:        row.BillNumber,
		SellerName:        row.SellerName,
		SellerAddress:     row.SellerAddress,
		SellerShopNumber:  row.SellerShopNumber,
		SellerOwnerNumber: row.SellerOwnerNumber,
		ClientName:        row.ClientName,
		ClientAddress:     row.ClientAddress,
		ClientPhone:       row.ClientPhone,
		ClientEmail:       row.ClientEmail,
		Date:              row.BillDate,
		Discount:          row.Discount,
		Currency:          &currency,
		Status:            row.Status,
		CreatedAt:         parseTimestamp(row.CreatedAt),
		Items:             make([]core.RawLineItem, 0, len(items)),
	}
	if row.TotalAmount.Valid {
		raw.TotalAmount = row.TotalAmount.Float64
	}
	for _, it := range items {
		raw.Items = append(raw.Items, toRawItem(it))
	}

	b := raw.Resolve()
	b.UserID = row.UserID
	if items == nil {
		b.Items = nil
	}
	return b
}

// toRawItem maps a NULL cost to a missing value so resolution yields 0.
func toRawItem(it BillItem) core.RawLineItem {
	ri := core.RawLineItem{
		ID:       it.ID,
		ItemName: it.ItemName,
		Quantity: it.Quantity,
		Rate:     it.Rate,
	}
	if it.Cost.Valid {
		ri.Cost = it.Cost.Float64
	}
	return ri
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
