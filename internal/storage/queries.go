package storage

import (
	"context"
	"database/sql"
	"strings"
)

const billColumns = `id, user_id, bill_number, seller_name, seller_address, seller_shop_number,
    seller_owner_number, client_name, client_address, client_phone, client_email, bill_date,
    discount, currency, total_amount, status, sync_status, sync_attempts, sync_error,
    created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(row rowScanner) (Bill, error) {
	var b Bill
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.BillNumber,
		&b.SellerName,
		&b.SellerAddress,
		&b.SellerShopNumber,
		&b.SellerOwnerNumber,
		&b.ClientName,
		&b.ClientAddress,
		&b.ClientPhone,
		&b.ClientEmail,
		&b.BillDate,
		&b.Discount,
		&b.Currency,
		&b.TotalAmount,
		&b.Status,
		&b.SyncStatus,
		&b.SyncAttempts,
		&b.SyncError,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

func collectBills(rows *sql.Rows) ([]Bill, error) {
	defer rows.Close()
	var items []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createBill = `-- name: CreateBill :exec
INSERT INTO bills (
    id, user_id, bill_number, seller_name, seller_address, seller_shop_number,
    seller_owner_number, client_name, client_address, client_phone, client_email,
    bill_date, discount, currency, total_amount, status, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateBillParams struct {
	ID                string
	UserID            string
	BillNumber        string
	SellerName        string
	SellerAddress     string
	SellerShopNumber  string
	SellerOwnerNumber string
	ClientName        string
	ClientAddress     string
	ClientPhone       string
	ClientEmail       string
	BillDate          string
	Discount          float64
	Currency          string
	TotalAmount       sql.NullFloat64
	Status            string
	CreatedAt         string
	UpdatedAt         string
}

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) error {
	_, err := q.db.ExecContext(ctx, createBill,
		arg.ID,
		arg.UserID,
		arg.BillNumber,
		arg.SellerName,
		arg.SellerAddress,
		arg.SellerShopNumber,
		arg.SellerOwnerNumber,
		arg.ClientName,
		arg.ClientAddress,
		arg.ClientPhone,
		arg.ClientEmail,
		arg.BillDate,
		arg.Discount,
		arg.Currency,
		arg.TotalAmount,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const createBillItem = `-- name: CreateBillItem :exec
INSERT INTO bill_items (id, bill_id, position, item_name, quantity, rate, cost)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateBillItemParams struct {
	ID       string
	BillID   string
	Position int64
	ItemName string
	Quantity float64
	Rate     float64
	Cost     sql.NullFloat64
}

func (q *Queries) CreateBillItem(ctx context.Context, arg CreateBillItemParams) error {
	_, err := q.db.ExecContext(ctx, createBillItem,
		arg.ID,
		arg.BillID,
		arg.Position,
		arg.ItemName,
		arg.Quantity,
		arg.Rate,
		arg.Cost,
	)
	return err
}

const getBill = `-- name: GetBill :one
SELECT ` + billColumns + `
FROM bills
WHERE id = ? AND user_id = ?
`

type GetBillParams struct {
	ID     string
	UserID string
}

func (q *Queries) GetBill(ctx context.Context, arg GetBillParams) (Bill, error) {
	return scanBill(q.db.QueryRowContext(ctx, getBill, arg.ID, arg.UserID))
}

const listBills = `-- name: ListBills :many
SELECT ` + billColumns + `
FROM bills
WHERE user_id = ?
ORDER BY bill_date DESC, created_at DESC
LIMIT ?
`

type ListBillsParams struct {
	UserID string
	Limit  int64
}

func (q *Queries) ListBills(ctx context.Context, arg ListBillsParams) ([]Bill, error) {
	rows, err := q.db.QueryContext(ctx, listBills, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	return collectBills(rows)
}

const listBillItems = `-- name: ListBillItems :many
SELECT id, bill_id, position, item_name, quantity, rate, cost
FROM bill_items
WHERE bill_id = ?
ORDER BY position ASC
`

func (q *Queries) ListBillItems(ctx context.Context, billID string) ([]BillItem, error) {
	rows, err := q.db.QueryContext(ctx, listBillItems, billID)
	if err != nil {
		return nil, err
	}
	return collectBillItems(rows)
}

func collectBillItems(rows *sql.Rows) ([]BillItem, error) {
	defer rows.Close()
	var items []BillItem
	for rows.Next() {
		var i BillItem
		if err := rows.Scan(
			&i.ID,
			&i.BillID,
			&i.Position,
			&i.ItemName,
			&i.Quantity,
			&i.Rate,
			&i.Cost,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listBillItemsForBills = `-- name: ListBillItemsForBills :many
SELECT bi.id, bi.bill_id, bi.position, bi.item_name, bi.quantity, bi.rate, bi.cost
FROM bill_items bi
JOIN bills b ON b.id = bi.bill_id
WHERE b.user_id = ? AND bi.bill_id IN (/*SLICE:bill_ids*/?)
ORDER BY bi.bill_id, bi.position ASC
`

type ListBillItemsForBillsParams struct {
	UserID  string
	BillIds []string
}

func (q *Queries) ListBillItemsForBills(ctx context.Context, arg ListBillItemsForBillsParams) ([]BillItem, error) {
	query := listBillItemsForBills
	var queryParams []interface{}
	queryParams = append(queryParams, arg.UserID)
	if len(arg.BillIds) > 0 {
		for _, v := range arg.BillIds {
			queryParams = append(queryParams, v)
		}
		query = strings.Replace(query, "/*SLICE:bill_ids*/?", strings.Repeat(",?", len(arg.BillIds))[1:], 1)
	} else {
		query = strings.Replace(query, "/*SLICE:bill_ids*/?", "NULL", 1)
	}
	rows, err := q.db.QueryContext(ctx, query, queryParams...)
	if err != nil {
		return nil, err
	}
	return collectBillItems(rows)
}

const deleteBillItems = `-- name: DeleteBillItems :exec
DELETE FROM bill_items
WHERE bill_id = ?
`

func (q *Queries) DeleteBillItems(ctx context.Context, billID string) error {
	_, err := q.db.ExecContext(ctx, deleteBillItems, billID)
	return err
}

const deleteBill = `-- name: DeleteBill :execrows
DELETE FROM bills
WHERE id = ? AND user_id = ?
`

type DeleteBillParams struct {
	ID     string
	UserID string
}

func (q *Queries) DeleteBill(ctx context.Context, arg DeleteBillParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBill, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateBillStatus = `-- name: UpdateBillStatus :execrows
UPDATE bills
SET status = ?, updated_at = ?
WHERE id = ? AND user_id = ?
`

type UpdateBillStatusParams struct {
	Status    string
	UpdatedAt string
	ID        string
	UserID    string
}

func (q *Queries) UpdateBillStatus(ctx context.Context, arg UpdateBillStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateBillStatus, arg.Status, arg.UpdatedAt, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getPendingSyncBills = `-- name: GetPendingSyncBills :many
SELECT ` + billColumns + `
FROM bills
WHERE sync_status IN ('pending', 'error') AND sync_attempts < ?
ORDER BY created_at ASC
LIMIT ?
`

type GetPendingSyncBillsParams struct {
	MaxAttempts int64
	Limit       int64
}

func (q *Queries) GetPendingSyncBills(ctx context.Context, arg GetPendingSyncBillsParams) ([]Bill, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncBills, arg.MaxAttempts, arg.Limit)
	if err != nil {
		return nil, err
	}
	return collectBills(rows)
}

const getBillSyncStatus = `-- name: GetBillSyncStatus :one
SELECT sync_status FROM bills
WHERE id = ?
`

func (q *Queries) GetBillSyncStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := q.db.QueryRowContext(ctx, getBillSyncStatus, id).Scan(&status)
	return status, err
}

const markBillSynced = `-- name: MarkBillSynced :execrows
UPDATE bills
SET sync_status = 'synced', sync_error = NULL, updated_at = ?
WHERE id = ?
`

type MarkBillSyncedParams struct {
	UpdatedAt string
	ID        string
}

func (q *Queries) MarkBillSynced(ctx context.Context, arg MarkBillSyncedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markBillSynced, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markBillSyncError = `-- name: MarkBillSyncError :execrows
UPDATE bills
SET sync_status = 'error', sync_attempts = sync_attempts + 1, sync_error = ?, updated_at = ?
WHERE id = ?
`

type MarkBillSyncErrorParams struct {
	SyncError sql.NullString
	UpdatedAt string
	ID        string
}

func (q *Queries) MarkBillSyncError(ctx context.Context, arg MarkBillSyncErrorParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markBillSyncError, arg.SyncError, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getSyncStats = `-- name: GetSyncStats :one
SELECT
    COALESCE(SUM(CASE WHEN sync_status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
    COALESCE(SUM(CASE WHEN sync_status = 'synced' THEN 1 ELSE 0 END), 0) AS synced,
    COALESCE(SUM(CASE WHEN sync_status = 'error' THEN 1 ELSE 0 END), 0) AS failed
FROM bills
`

type GetSyncStatsRow struct {
	Pending int64
	Synced  int64
	Failed  int64
}

func (q *Queries) GetSyncStats(ctx context.Context) (GetSyncStatsRow, error) {
	var i GetSyncStatsRow
	err := q.db.QueryRowContext(ctx, getSyncStats).Scan(&i.Pending, &i.Synced, &i.Failed)
	return i, err
}

const upsertClient = `-- name: UpsertClient :exec
INSERT INTO clients (id, user_id, name, address, phone, email, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    address = excluded.address,
    phone = excluded.phone,
    email = excluded.email
WHERE clients.user_id = excluded.user_id
`

type UpsertClientParams struct {
	ID        string
	UserID    string
	Name      string
	Address   string
	Phone     string
	Email     string
	CreatedAt string
}

func (q *Queries) UpsertClient(ctx context.Context, arg UpsertClientParams) error {
	_, err := q.db.ExecContext(ctx, upsertClient,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Address,
		arg.Phone,
		arg.Email,
		arg.CreatedAt,
	)
	return err
}

const listClients = `-- name: ListClients :many
SELECT id, user_id, name, address, phone, email, created_at
FROM clients
WHERE user_id = ?
ORDER BY name COLLATE NOCASE ASC
`

func (q *Queries) ListClients(ctx context.Context, userID string) ([]Client, error) {
	rows, err := q.db.QueryContext(ctx, listClients, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Client
	for rows.Next() {
		var i Client
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Name,
			&i.Address,
			&i.Phone,
			&i.Email,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteClient = `-- name: DeleteClient :execrows
DELETE FROM clients
WHERE id = ? AND user_id = ?
`

type DeleteClientParams struct {
	ID     string
	UserID string
}

func (q *Queries) DeleteClient(ctx context.Context, arg DeleteClientParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteClient, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
