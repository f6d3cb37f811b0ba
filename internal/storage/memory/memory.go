// Package memory is an in-process storage.Store for development and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"billbook/internal/core"
	"billbook/internal/storage"
)

type syncState struct {
	status   string
	attempts int
	reason   string
}

type Store struct {
	mu      sync.Mutex
	bills   map[string]core.Bill
	sync    map[string]*syncState
	clients map[string]core.Client
	now     func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		bills:   make(map[string]core.Bill),
		sync:    make(map[string]*syncState),
		clients: make(map[string]core.Client),
		now:     time.Now,
	}
}

func cloneBill(b core.Bill) core.Bill {
	if b.Items != nil {
		b.Items = append([]core.LineItem(nil), b.Items...)
	}
	return b
}

func header(b core.Bill) core.Bill {
	b.Items = nil
	return b
}

func (s *Store) CreateBill(_ context.Context, b core.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.bills {
		if existing.UserID == b.UserID && existing.BillNumber == b.BillNumber {
			return fmt.Errorf("create bill %s: %w", b.BillNumber, storage.ErrDuplicate)
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	for i := range b.Items {
		if b.Items[i].ID == "" {
			b.Items[i].ID = uuid.NewString()
		}
	}
	s.bills[b.ID] = cloneBill(b)
	s.sync[b.ID] = &syncState{status: storage.SyncPending}
	return nil
}

func (s *Store) GetBill(_ context.Context, userID, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bills[id]
	if !ok || b.UserID != userID {
		return core.Bill{}, storage.ErrNotFound
	}
	return cloneBill(b), nil
}

func (s *Store) userBills(userID string) []core.Bill {
	var out []core.Bill
	for _, b := range s.bills {
		if b.UserID == userID {
			out = append(out, cloneBill(b))
		}
	}
	slices.SortFunc(out, func(a, b core.Bill) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func (s *Store) ListBills(_ context.Context, userID string, limit int) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bills := s.userBills(userID)
	if limit > 0 && len(bills) > limit {
		bills = bills[:limit]
	}
	for i := range bills {
		bills[i] = header(bills[i])
	}
	return bills, nil
}

func (s *Store) ListBillsWithItems(_ context.Context, userID string) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userBills(userID), nil
}

func (s *Store) ListBillItems(_ context.Context, userID string, billIDs []string) (map[string][]core.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]core.LineItem, len(billIDs))
	for _, id := range billIDs {
		b, ok := s.bills[id]
		if !ok || b.UserID != userID {
			continue
		}
		out[id] = append([]core.LineItem(nil), b.Items...)
	}
	return out, nil
}

func (s *Store) DeleteBill(_ context.Context, userID, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bills[id]
	if !ok || b.UserID != userID {
		return core.Bill{}, storage.ErrNotFound
	}
	delete(s.bills, id)
	delete(s.sync, id)
	return header(b), nil
}

func (s *Store) UpdateBillStatus(_ context.Context, userID, id string, status core.BillStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bills[id]
	if !ok || b.UserID != userID {
		return storage.ErrNotFound
	}
	b.Status = status
	s.bills[id] = b
	return nil
}

func (s *Store) SaveClient(_ context.Context, c core.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if existing, ok := s.clients[c.ID]; ok {
		if existing.UserID != c.UserID {
			return nil
		}
		c.CreatedAt = existing.CreatedAt
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.clients[c.ID] = c
	return nil
}

func (s *Store) ListClients(_ context.Context, userID string) ([]core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Client
	for _, c := range s.clients {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b core.Client) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out, nil
}

func (s *Store) DeleteClient(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if !ok || c.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *Store) ListPendingSync(_ context.Context, limit, maxAttempts int) ([]storage.PendingBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []storage.PendingBill
	for id, st := range s.sync {
		if st.status == storage.SyncSynced || st.attempts >= maxAttempts {
			continue
		}
		b := s.bills[id]
		out = append(out, storage.PendingBill{
			ID:         id,
			UserID:     b.UserID,
			BillNumber: b.BillNumber,
			Attempts:   st.attempts,
			CreatedAt:  b.CreatedAt,
		})
	}
	slices.SortFunc(out, func(a, b storage.PendingBill) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SyncStatus(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sync[id]
	if !ok {
		return "", storage.ErrNotFound
	}
	return st.status, nil
}

func (s *Store) MarkSynced(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sync[id]
	if !ok {
		return storage.ErrNotFound
	}
	st.status = storage.SyncSynced
	st.reason = ""
	return nil
}

func (s *Store) MarkSyncError(_ context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sync[id]
	if !ok {
		return storage.ErrNotFound
	}
	st.status = storage.SyncError
	st.attempts++
	st.reason = reason
	return nil
}

func (s *Store) SyncStats(_ context.Context) (storage.SyncStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats storage.SyncStats
	for _, st := range s.sync {
		switch st.status {
		case storage.SyncPending:
			stats.Pending++
		case storage.SyncSynced:
			stats.Synced++
		case storage.SyncError:
			stats.Failed++
		}
	}
	return stats, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
