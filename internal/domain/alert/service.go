// internal/domain/alert/service.go
package alert

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

var ErrAlertNotFound = errors.New("alert not found")

// Repository persists alerts
type Repository interface {
	Create(ctx context.Context, a *Alert) error
	List(ctx context.Context, userID uint, limit int) ([]Alert, error)
	MarkRead(ctx context.Context, userID, id uint, at time.Time) error
	MarkAllRead(ctx context.Context, userID uint, at time.Time) error
}

// Service handles customer notifications
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Notify creates an unread alert for the user
func (s *Service) Notify(ctx context.Context, userID uint, kind, title, body string) error {
	if err := s.repo.Create(ctx, &Alert{UserID: userID, Type: kind, Title: title, Body: body}); err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// List returns the user's alerts, newest first
func (s *Service) List(ctx context.Context, userID uint) ([]Alert, error) {
	alerts, err := s.repo.List(ctx, userID, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve alerts: %w", err)
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	return alerts, nil
}

// MarkRead marks one alert read; marking an already read alert is a no-op
func (s *Service) MarkRead(ctx context.Context, userID, id uint) error {
	return s.repo.MarkRead(ctx, userID, id, time.Now().UTC())
}

// MarkAllRead marks every unread alert of the user read
func (s *Service) MarkAllRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
}

// GormRepository stores alerts in PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, a *Alert) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *GormRepository) List(ctx context.Context, userID uint, limit int) ([]Alert, error) {
	var alerts []Alert
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}

func (r *GormRepository) MarkRead(ctx context.Context, userID, id uint, at time.Time) error {
	var a Alert
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAlertNotFound
	}
	if err != nil {
		return err
	}
	if a.ReadAt != nil {
		return nil
	}
	return r.db.WithContext(ctx).Model(&a).Update("read_at", at).Error
}

func (r *GormRepository) MarkAllRead(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Alert{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at).Error
}

// MemoryRepository is an in-process Repository for tests
type MemoryRepository struct {
	mu     sync.Mutex
	alerts []Alert
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, a *Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uint(len(r.alerts) + 1)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	r.alerts = append(r.alerts, *a)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, userID uint, limit int) ([]Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Alert
	for _, a := range r.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) MarkRead(_ context.Context, userID, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.alerts {
		if r.alerts[i].ID == id && r.alerts[i].UserID == userID {
			if r.alerts[i].ReadAt == nil {
				r.alerts[i].ReadAt = &at
			}
			return nil
		}
	}
	return ErrAlertNotFound
}

func (r *MemoryRepository) MarkAllRead(_ context.Context, userID uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.alerts {
		if r.alerts[i].UserID == userID && r.alerts[i].ReadAt == nil {
			r.alerts[i].ReadAt = &at
		}
	}
	return nil
}
