// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/domain/alert"
	"github.com/your-org/pharmacy-storefront/internal/domain/cart"
	"github.com/your-org/pharmacy-storefront/internal/domain/order"
	"github.com/your-org/pharmacy-storefront/internal/domain/product"
	"github.com/your-org/pharmacy-storefront/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{db: db, log: log}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("running database auto-migrations")

	// Dependency order
	models := []interface{}{
		&user.User{},
		&product.Category{},
		&product.Product{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&alert.Alert{},
	}

	for _, model := range models {
		m.log.Debugf("migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes for the hot queries
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_name_lower ON products(LOWER(name))",
		"CREATE INDEX IF NOT EXISTS idx_categories_sort_order ON categories(sort_order)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user_created ON cart_items(user_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_orders_owner_created ON orders(owner_key, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_alerts_user_unread ON alerts(user_id) WHERE read_at IS NULL",
	}

	for _, stmt := range indexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// SeedInitialData inserts development categories, medicines and a test customer
func (m *Migration) SeedInitialData() error {
	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := m.seedTestUser(); err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}
	m.log.Info("initial data seeded")
	return nil
}

func (m *Migration) seedCategories() error {
	categories := []product.Category{
		{Name: "Pain Relief", Slug: "pain-relief", Description: "Analgesics and fever reducers", SortOrder: 1, IsActive: true},
		{Name: "Cold & Flu", Slug: "cold-flu", Description: "Cough, cold and flu remedies", SortOrder: 2, IsActive: true},
		{Name: "Vitamins", Slug: "vitamins", Description: "Vitamins and supplements", SortOrder: 3, IsActive: true},
		{Name: "First Aid", Slug: "first-aid", Description: "Bandages, antiseptics and wound care", SortOrder: 4, IsActive: true},
	}

	for _, category := range categories {
		var existing product.Category
		err := m.db.Where("slug = ?", category.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := m.db.Create(&category).Error; err != nil {
			return err
		}
		m.log.WithField("category", category.Name).Debug("created category")
	}
	return nil
}

func (m *Migration) seedProducts() error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	categoryID := func(slug string) *uint {
		var c product.Category
		if err := m.db.Where("slug = ?", slug).First(&c).Error; err != nil {
			return nil
		}
		return &c.ID
	}
	units := func(names ...string) datatypes.JSON {
		raw := "["
		for i, n := range names {
			if i > 0 {
				raw += ","
			}
			raw += fmt.Sprintf(`{"unit_name":%q}`, n)
		}
		return datatypes.JSON(raw + "]")
	}

	medicines := []product.Product{
		{Name: "Paracetamol 500mg", PriceUSD: 1.50, Weight: "500mg", Units: units("strip", "box"), CategoryID: categoryID("pain-relief")},
		{Name: "Ibuprofen 400mg", PriceUSD: 2.25, Weight: "400mg", Units: units("strip"), CategoryID: categoryID("pain-relief")},
		{Name: "Cough Syrup 100ml", PriceUSD: 3.80, Weight: "100ml", Units: units("bottle"), CategoryID: categoryID("cold-flu")},
		{Name: "Vitamin C 1000mg", PriceUSD: 5.00, Weight: "1000mg", Units: units("tube"), CategoryID: categoryID("vitamins")},
		{Name: "Adhesive Bandages", PriceUSD: 0.90, Units: units("pack"), CategoryID: categoryID("first-aid")},
	}
	for i := range medicines {
		medicines[i].Slug = product.GenerateSlug(medicines[i].Name)
		medicines[i].IsActive = true
	}
	return m.db.Create(&medicines).Error
}

func (m *Migration) seedTestUser() error {
	var existing user.User
	err := m.db.Where("phone = ?", "012345678").First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("customer123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	email := "customer@example.com"
	return m.db.Create(&user.User{
		Name:     "Test Customer",
		Phone:    "012345678",
		Email:    &email,
		Password: string(hashed),
		IsActive: true,
	}).Error
}

// DropAllTables drops every table; development only
func (m *Migration) DropAllTables() error {
	tables := []string{"alerts", "order_items", "orders", "cart_items", "products", "categories", "users"}
	for _, table := range tables {
		if err := m.db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
