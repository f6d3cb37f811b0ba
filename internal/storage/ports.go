package storage

import (
	"context"
	"errors"
	"time"

	"billbook/internal/core"
)

var (
	// ErrNotFound is returned when a bill or client does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a bill number is already used by the same user.
	ErrDuplicate = errors.New("duplicate bill number")
)

// Sync states for the spreadsheet ledger.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// PendingBill is the minimal data the ledger sync needs to pick up a bill.
type PendingBill struct {
	ID         string
	UserID     string
	BillNumber string
	Attempts   int
	CreatedAt  time.Time
}

// SyncStats summarises ledger sync state across all users.
type SyncStats struct {
	Pending int64 `json:"pending"`
	Synced  int64 `json:"synced"`
	Failed  int64 `json:"failed"`
}

// BillStore persists bills together with their line items. Every read and
// write is scoped by user id.
type BillStore interface {
	CreateBill(ctx context.Context, b core.Bill) error
	GetBill(ctx context.Context, userID, id string) (core.Bill, error)
	// ListBills returns bill headers (no items), newest first. limit <= 0 means all.
	ListBills(ctx context.Context, userID string, limit int) ([]core.Bill, error)
	ListBillsWithItems(ctx context.Context, userID string) ([]core.Bill, error)
	// ListBillItems returns the items of the given bills keyed by bill id.
	// Ids that do not belong to the user are ignored.
	ListBillItems(ctx context.Context, userID string, billIDs []string) (map[string][]core.LineItem, error)
	// DeleteBill removes the items and then the bill, returning the deleted header.
	DeleteBill(ctx context.Context, userID, id string) (core.Bill, error)
	UpdateBillStatus(ctx context.Context, userID, id string, status core.BillStatus) error
}

// ClientStore persists saved clients.
type ClientStore interface {
	SaveClient(ctx context.Context, c core.Client) error
	ListClients(ctx context.Context, userID string) ([]core.Client, error)
	DeleteClient(ctx context.Context, userID, id string) error
}

// SyncStore tracks which bills still need exporting to the ledger.
type SyncStore interface {
	ListPendingSync(ctx context.Context, limit, maxAttempts int) ([]PendingBill, error)
	// SyncStatus returns the ledger sync state of a bill, or ErrNotFound.
	SyncStatus(ctx context.Context, id string) (string, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string, reason string) error
	SyncStats(ctx context.Context) (SyncStats, error)
}

// Store is the full persistence surface used by services and the HTTP layer.
type Store interface {
	BillStore
	ClientStore
	SyncStore
	Ping(ctx context.Context) error
	Close() error
}
