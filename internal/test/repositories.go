package test

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	mu      sync.Mutex
	ByEmail map[string]*model.User
	ByID    map[int64]*model.User
	Next    int64
	Err     error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		ByEmail: make(map[string]*model.User),
		ByID:    make(map[int64]*model.User),
		Next:    1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.ByEmail == nil {
		s.ByEmail = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.ByEmail[user.Email]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	created := *user
	created.ID = s.Next
	s.Next++
	s.ByEmail[created.Email] = &created
	s.ByID[created.ID] = &created
	return &created, nil
}

// GetByEmail fetches user by email or returns not found.
func (s *UserRepositoryStub) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByEmail[email]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// IdempotencyStoreStub keeps idempotency keys in a map.
type IdempotencyStoreStub struct {
	mu         sync.Mutex
	Keys       map[string]int64
	ReserveErr error
	Released   []string
}

// NewIdempotencyStoreStub constructs an empty key store.
func NewIdempotencyStoreStub() *IdempotencyStoreStub {
	return &IdempotencyStoreStub{Keys: make(map[string]int64)}
}

// Reserve claims the key unless it is already present.
func (s *IdempotencyStoreStub) Reserve(ctx context.Context, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReserveErr != nil {
		return 0, false, s.ReserveErr
	}
	if id, ok := s.Keys[key]; ok {
		return id, false, nil
	}
	s.Keys[key] = 0
	return 0, true, nil
}

// Complete stores the order id for key.
func (s *IdempotencyStoreStub) Complete(ctx context.Context, key string, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Keys[key] = orderID
	return nil
}

// Release forgets key.
func (s *IdempotencyStoreStub) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Keys, key)
	s.Released = append(s.Released, key)
	return nil
}

// ProductRepositoryStub lets tests control catalog persistence.
type ProductRepositoryStub struct {
	ListFn    func(context.Context) ([]model.Product, error)
	GetFn     func(context.Context, int64) (*model.Product, error)
	CreateFn  func(context.Context, *model.Product) (*model.Product, error)
	UpdateFn  func(context.Context, int64, model.ProductPatch) (*model.Product, error)
	DeleteFn  func(context.Context, int64) error
	Patches   []model.ProductPatch
	DeleteIDs []int64
}

// List returns configured products.
func (s *ProductRepositoryStub) List(ctx context.Context) ([]model.Product, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx)
	}
	return []model.Product{}, nil
}

// GetByID delegates to override or reports not found.
func (s *ProductRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}
	return nil, domainErrors.ErrNotFound
}

// Create echoes product with id assigned.
func (s *ProductRepositoryStub) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, product)
	}
	created := *product
	created.ID = 1
	return &created, nil
}

// Update records patch and delegates to override.
func (s *ProductRepositoryStub) Update(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error) {
	s.Patches = append(s.Patches, patch)
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, patch)
	}
	return &model.Product{ID: id}, nil
}

// Delete records id and delegates to override.
func (s *ProductRepositoryStub) Delete(ctx context.Context, id int64) error {
	s.DeleteIDs = append(s.DeleteIDs, id)
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}
	return nil
}
