package order

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Repository persists orders
type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindForOwner(ctx context.Context, ownerKey string, id uint) (*Order, error)
	FindByNumberForOwner(ctx context.Context, ownerKey, number string) (*Order, error)
	ListForOwner(ctx context.Context, ownerKey string, limit int) ([]Order, error)
}

// GormRepository stores orders and their items in PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Create saves the order with its items in one transaction
func (r *GormRepository) Create(ctx context.Context, o *Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(o).Error
	})
}

func (r *GormRepository) find(ctx context.Context, query string, args ...any) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where(query, args...).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepository) FindForOwner(ctx context.Context, ownerKey string, id uint) (*Order, error) {
	return r.find(ctx, "owner_key = ? AND id = ?", ownerKey, id)
}

func (r *GormRepository) FindByNumberForOwner(ctx context.Context, ownerKey, number string) (*Order, error) {
	return r.find(ctx, "owner_key = ? AND order_number = ?", ownerKey, number)
}

func (r *GormRepository) ListForOwner(ctx context.Context, ownerKey string, limit int) ([]Order, error) {
	var orders []Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("owner_key = ?", ownerKey).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// MemoryRepository is an in-process Repository for tests
type MemoryRepository struct {
	mu     sync.Mutex
	orders []Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = uint(len(r.orders) + 1)
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	r.orders = append(r.orders, *o)
	return nil
}

func (r *MemoryRepository) match(pred func(Order) bool) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if pred(o) {
			return &o, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *MemoryRepository) FindForOwner(_ context.Context, ownerKey string, id uint) (*Order, error) {
	return r.match(func(o Order) bool { return o.OwnerKey == ownerKey && o.ID == id })
}

func (r *MemoryRepository) FindByNumberForOwner(_ context.Context, ownerKey, number string) (*Order, error) {
	return r.match(func(o Order) bool { return o.OwnerKey == ownerKey && o.OrderNumber == number })
}

func (r *MemoryRepository) ListForOwner(_ context.Context, ownerKey string, limit int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Order
	for i := len(r.orders) - 1; i >= 0 && len(out) < limit; i-- {
		if r.orders[i].OwnerKey == ownerKey {
			out = append(out, r.orders[i])
		}
	}
	return out, nil
}
