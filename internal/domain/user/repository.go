package user

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Repository persists users
type Repository interface {
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
}

// GormRepository stores users in PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) first(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepository) FindByID(ctx context.Context, id uint) (*User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormRepository) FindByPhone(ctx context.Context, phone string) (*User, error) {
	return r.first(ctx, "phone = ?", phone)
}

func (r *GormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *GormRepository) Create(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *GormRepository) Update(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// MemoryRepository is an in-process Repository for tests
type MemoryRepository struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[uint]User)}
}

func (r *MemoryRepository) find(match func(User) bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *MemoryRepository) FindByID(_ context.Context, id uint) (*User, error) {
	return r.find(func(u User) bool { return u.ID == id })
}

func (r *MemoryRepository) FindByPhone(_ context.Context, phone string) (*User, error) {
	return r.find(func(u User) bool { return u.Phone == phone })
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	return r.find(func(u User) bool { return u.Email != nil && *u.Email == email })
}

func (r *MemoryRepository) Create(_ context.Context, u *User) error {
	if err := u.BeforeCreate(nil); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = *u
	return nil
}
