package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository stores the items of one kind of cart owner
type Repository interface {
	List(ctx context.Context, owner Owner) ([]CartItem, error)
	Get(ctx context.Context, owner Owner, productID string) (*CartItem, error)
	Save(ctx context.Context, owner Owner, item *CartItem) error
	Delete(ctx context.Context, owner Owner, productIDs ...string) error
	Clear(ctx context.Context, owner Owner) error
}

// GormRepository keeps user carts in the cart_items table
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) List(ctx context.Context, owner Owner) ([]CartItem, error) {
	var items []CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", owner.UserID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
	}
	return items, nil
}

func (r *GormRepository) Get(ctx context.Context, owner Owner, productID string) (*CartItem, error) {
	var item CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", owner.UserID, productID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepository) Save(ctx context.Context, owner Owner, item *CartItem) error {
	item.UserID = owner.UserID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price_usd", "quantity", "selected", "wish", "image", "weight", "units", "updated_at"}),
	}).Create(item).Error
}

func (r *GormRepository) Delete(ctx context.Context, owner Owner, productIDs ...string) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id IN ?", owner.UserID, productIDs).
		Delete(&CartItem{}).Error
}

func (r *GormRepository) Clear(ctx context.Context, owner Owner) error {
	return r.db.WithContext(ctx).Where("user_id = ?", owner.UserID).Delete(&CartItem{}).Error
}

// RedisRepository keeps guest carts as one JSON document per guest token
type RedisRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisRepository(client redis.UniversalClient, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

func guestCartKey(token string) string {
	return "cart:guest:" + token
}

func (r *RedisRepository) load(ctx context.Context, owner Owner) (*GuestCart, error) {
	raw, err := r.client.Get(ctx, guestCartKey(owner.GuestToken)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &GuestCart{Token: owner.GuestToken, Items: []CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var cart GuestCart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decode guest cart: %w", err)
	}
	return &cart, nil
}

func (r *RedisRepository) store(ctx context.Context, cart *GuestCart) error {
	cart.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, guestCartKey(cart.Token), raw, r.ttl).Err()
}

func (r *RedisRepository) List(ctx context.Context, owner Owner) ([]CartItem, error) {
	cart, err := r.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return cart.Items, nil
}

func (r *RedisRepository) Get(ctx context.Context, owner Owner, productID string) (*CartItem, error) {
	cart, err := r.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			item := cart.Items[i]
			return &item, nil
		}
	}
	return nil, ErrItemNotFound
}

func (r *RedisRepository) Save(ctx context.Context, owner Owner, item *CartItem) error {
	cart, err := r.load(ctx, owner)
	if err != nil {
		return err
	}
	cart.Items = upsert(cart.Items, *item)
	return r.store(ctx, cart)
}

func (r *RedisRepository) Delete(ctx context.Context, owner Owner, productIDs ...string) error {
	cart, err := r.load(ctx, owner)
	if err != nil {
		return err
	}
	cart.Items = without(cart.Items, productIDs)
	return r.store(ctx, cart)
}

func (r *RedisRepository) Clear(ctx context.Context, owner Owner) error {
	return r.client.Del(ctx, guestCartKey(owner.GuestToken)).Err()
}

// MemoryRepository is an in-process Repository for tests and local runs
type MemoryRepository struct {
	mu    sync.Mutex
	carts map[string][]CartItem
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string][]CartItem)}
}

func (r *MemoryRepository) List(_ context.Context, owner Owner) ([]CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CartItem{}, r.carts[owner.Key()]...), nil
}

func (r *MemoryRepository) Get(_ context.Context, owner Owner, productID string) (*CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.carts[owner.Key()] {
		if it.ProductID == productID {
			return &it, nil
		}
	}
	return nil, ErrItemNotFound
}

func (r *MemoryRepository) Save(_ context.Context, owner Owner, item *CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[owner.Key()] = upsert(r.carts[owner.Key()], *item)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, owner Owner, productIDs ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[owner.Key()] = without(r.carts[owner.Key()], productIDs)
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context, owner Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, owner.Key())
	return nil
}

func upsert(items []CartItem, item CartItem) []CartItem {
	now := time.Now().UTC()
	item.UpdatedAt = now
	for i := range items {
		if items[i].ProductID == item.ProductID {
			item.CreatedAt = items[i].CreatedAt
			items[i] = item
			return items
		}
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	return append(items, item)
}

func without(items []CartItem, productIDs []string) []CartItem {
	drop := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		drop[id] = true
	}
	kept := make([]CartItem, 0, len(items))
	for _, it := range items {
		if !drop[it.ProductID] {
			kept = append(kept, it)
		}
	}
	return kept
}
