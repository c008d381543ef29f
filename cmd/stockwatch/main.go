package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/swiftcart/backend/internal/catalog"
	"github.com/swiftcart/backend/internal/config"
	kafkax "github.com/swiftcart/backend/internal/kafka"
	"github.com/swiftcart/backend/internal/logging"
	"github.com/swiftcart/backend/internal/lowstock"
	"github.com/swiftcart/backend/internal/orders"
	"github.com/swiftcart/backend/internal/postgres"
	"github.com/swiftcart/backend/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.ServiceName+"-stockwatch", cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockLow, 1024, logger)
	prod.Start(context.Background())

	mon := &lowstock.Monitor{
		Catalog:  &catalog.Repo{DB: db},
		Redis:    rdb,
		Producer: prod,
		Buffer:   cfg.StockBuffer,
		Service:  cfg.ServiceName + "-stockwatch",
		Log:      logger,
	}

	group := getenv("STOCKWATCH_GROUP", "stockwatch-svc")
	workers := mustAtoi(os.Getenv("STOCKWATCH_WORKERS"), 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderPlaced, workers, logger)

	logger.Info("stockwatch consumer started",
		zap.String("group", group),
		zap.String("topic", orders.TopicOrderPlaced),
		zap.Int("workers", workers),
	)
	if err := cons.Start(ctx, mon.HandleOrderPlaced); err != nil {
		logger.Error("consumer exit", zap.Error(err))
	}

	prod.Close()
	prod.WaitClosed()
	logger.Info("shutdown complete")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
