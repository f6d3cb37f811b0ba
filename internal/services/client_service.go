package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"billbook/internal/core"
	"billbook/internal/storage"
)

// ClientService manages a user's saved clients.
type ClientService struct {
	store storage.ClientStore
}

func NewClientService(store storage.ClientStore) *ClientService {
	return &ClientService{store: store}
}

func (s *ClientService) SaveClient(ctx context.Context, userID string, c core.Client) (core.Client, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	c.UserID = userID
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := s.store.SaveClient(ctx, c); err != nil {
		return core.Client{}, fmt.Errorf("save client: %w", err)
	}
	return c, nil
}

func (s *ClientService) ListClients(ctx context.Context, userID string) ([]core.Client, error) {
	return s.store.ListClients(ctx, userID)
}

func (s *ClientService) DeleteClient(ctx context.Context, userID, id string) error {
	return s.store.DeleteClient(ctx, userID, id)
}
