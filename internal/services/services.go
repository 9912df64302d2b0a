// package services defines the LDDB backend client and the interfaces the rest of ldx depends on
package services

import (
	"context"
	"sync"

	"github.com/desertthunder/ldx/internal/models"
)

// Collection is the catalog half of the backend API.
type Collection interface {
	ListCollection(ctx context.Context, q models.ListQuery) (*models.CollectionPage, error)
	CreateItem(ctx context.Context, req models.CreateItemRequest) (*models.CatalogItem, error)
	UpdateItem(ctx context.Context, id uint, req models.UpdateItemRequest) (*models.CatalogItem, error)
	DeleteItem(ctx context.Context, id uint) error
	ToggleWatched(ctx context.Context, id uint) (*models.CatalogItem, error)
}

// Lookup is the reference database half of the backend API.
type Lookup interface {
	LookupUPC(ctx context.Context, upc string) (*models.Lookup, error)
	LookupReference(ctx context.Context, reference string) (*models.Lookup, error)
	RandomUnwatched(ctx context.Context) (*models.CatalogItem, error)
}

// Backend is everything the controllers need from the LDDB server.
type Backend interface {
	Collection
	Lookup
	Authenticate(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context) error
	HasToken(ctx context.Context) bool
}

var _ Backend = (*APIService)(nil)

// MemoryTokenStore keeps the token in memory. Used when no database is configured and in tests.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryTokenStore creates a store holding token.
func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (m *MemoryTokenStore) Token(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryTokenStore) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) ClearToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
