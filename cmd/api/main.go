// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/config"
	"github.com/your-org/pharmacy-storefront/internal/domain/alert"
	"github.com/your-org/pharmacy-storefront/internal/domain/cart"
	"github.com/your-org/pharmacy-storefront/internal/domain/order"
	"github.com/your-org/pharmacy-storefront/internal/domain/product"
	"github.com/your-org/pharmacy-storefront/internal/domain/user"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/database/redis"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/handlers"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/middleware"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/routes"
	"github.com/your-org/pharmacy-storefront/internal/pkg/auth"
	"github.com/your-org/pharmacy-storefront/internal/pkg/logger"
	"github.com/your-org/pharmacy-storefront/internal/pkg/pdf"
	"github.com/your-org/pharmacy-storefront/internal/storefront/pricing"
)

// guestCartTTL is how long an untouched guest cart survives in Redis
const guestCartTTL = 30 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("starting API")

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Redis")
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("index creation failed")
	}
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			log.WithError(err).Warn("data seeding failed")
		}
	}

	rules := pricing.LoadRules(cfg.Pricing.RulesFile, log)

	users := user.NewService(
		user.NewGormRepository(db.GetDB()),
		auth.NewPasswordManager(cfg.Security.BcryptCost),
		auth.NewJWTManager(cfg.JWT.Secret, cfg.App.Name, cfg.JWT.AccessTokenExpiry),
		auth.NewRedisDenylist(redisClient.Redis),
	)
	carts := cart.NewService(
		cart.NewGormRepository(db.GetDB()),
		cart.NewRedisRepository(redisClient.Redis, guestCartTTL),
		log,
	)
	alerts := alert.NewService(alert.NewGormRepository(db.GetDB()))
	orders := order.NewService(order.NewGormRepository(db.GetDB()), carts, users, alerts, rules, log)

	server := http.NewServer(cfg, log, http.Options{
		Handlers: routes.Handlers{
			Auth:    handlers.NewAuthHandler(users, carts, log),
			Product: handlers.NewProductHandler(product.NewService(db.GetDB()), product.NewCategoryService(db.GetDB())),
			Cart:    handlers.NewCartHandler(carts),
			Order:   handlers.NewOrderHandler(orders, pdf.NewService(cfg.Company)),
			Alert:   handlers.NewAlertHandler(alerts),
		},
		Authenticator: users,
		RateLimiter:   middleware.NewRedisRateLimiter(redisClient.Redis),
		Checks: map[string]http.HealthCheck{
			"database": db.Health,
			"redis":    redisClient.Health,
		},
	})

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("failed to shutdown HTTP server gracefully")
	}
	log.Info("server shutdown completed")
}
