// cmd/storefront/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/config"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/database/redis"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/gateway"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/kv"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/storefront"
	"github.com/your-org/pharmacy-storefront/internal/pkg/logger"
	"github.com/your-org/pharmacy-storefront/internal/storefront/pricing"
	"github.com/your-org/pharmacy-storefront/internal/storefront/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"api":     cfg.Storefront.APIBaseURL,
		"version": cfg.App.Version,
	}).Info("starting storefront")

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Redis")
	}
	defer redisClient.Close()

	api, err := gateway.NewClient(cfg.Storefront.APIBaseURL, cfg.Storefront.GatewayTimeout)
	if err != nil {
		log.WithError(err).Fatal("invalid API base URL")
	}

	registry := session.NewRegistry(session.Deps{
		Connect: func(creds gateway.Credentials) session.API {
			return api.WithCredentials(creds)
		},
		Store:            kv.NewRedis(redisClient.Redis, cfg.Storefront.StorageTTL),
		Namespace:        cfg.Storefront.StorageNamespace,
		Rules:            pricing.LoadRules(cfg.Pricing.RulesFile, log),
		PlaceholderImage: cfg.Storefront.PlaceholderImage,
		Log:              log,
	}, cfg.Storefront.MaxSessions, cfg.Storefront.SessionTTL)

	server := storefront.NewServer(cfg, log, registry)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("storefront server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("failed to shutdown storefront server gracefully")
	}
	log.Info("storefront shutdown completed")
}
