package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swiftcart/backend/internal/auth"
	"github.com/swiftcart/backend/internal/cart"
	"github.com/swiftcart/backend/internal/catalog"
	"github.com/swiftcart/backend/internal/config"
	"github.com/swiftcart/backend/internal/httpx"
	kafkax "github.com/swiftcart/backend/internal/kafka"
	"github.com/swiftcart/backend/internal/logging"
	"github.com/swiftcart/backend/internal/lowstock"
	"github.com/swiftcart/backend/internal/orders"
	"github.com/swiftcart/backend/internal/payments"
	"github.com/swiftcart/backend/internal/postgres"
	"github.com/swiftcart/backend/internal/redisx"
	"github.com/swiftcart/backend/internal/reviews"
	"github.com/swiftcart/backend/internal/users"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.ServiceName, cfg.Env)
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
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prodPlaced := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, logger)
	prodPlaced.Start(context.Background())
	prodStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024, logger)
	prodStatus.Start(context.Background())
	prodStockLow := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockLow, 1024, logger)
	prodStockLow.Start(context.Background())

	userRepo := &users.Repo{DB: db}
	catalogRepo := &catalog.Repo{DB: db}
	cartRepo := &cart.Repo{DB: db}
	reviewRepo := &reviews.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}

	gateway := &payments.StripeClient{
		BaseURL: cfg.StripeBaseURL,
		Key:     cfg.StripeKey,
	}
	orderSvc := &orders.Service{
		Gateway:   gateway,
		Store:     orderRepo,
		Cart:      cartRepo,
		Addresses: userRepo,
		Currency:  cfg.Currency,
		Log:       logger,
	}
	tokens := &auth.TokenIssuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL}

	api := &httpx.API{
		Auth:      &httpx.AuthHandler{Users: userRepo, Tokens: tokens},
		Catalog:   &httpx.CatalogHandler{Catalog: catalogRepo},
		Cart:      &httpx.CartHandler{Cart: cartRepo},
		Addresses: &httpx.AddressHandler{Users: userRepo},
		Reviews:   &httpx.ReviewsHandler{Reviews: reviewRepo},
		Orders: &httpx.OrdersHandler{
			Svc:            orderSvc,
			Redis:          rdb,
			ProducerPlaced: prodPlaced,
			ProducerStatus: prodStatus,
			Service:        cfg.ServiceName,
		},
		Tokens: tokens,
		Log:    logger,
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Router()}
	watcher := &lowstock.Watcher{
		Catalog:  catalogRepo,
		Producer: prodStockLow,
		Buffer:   cfg.StockBuffer,
		Every:    cfg.StockScanEvery,
		Service:  cfg.ServiceName,
		Log:      logger,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("exit", zap.Error(err))
	}

	prodPlaced.Close()
	prodStatus.Close()
	prodStockLow.Close()
	prodPlaced.WaitClosed()
	prodStatus.WaitClosed()
	prodStockLow.WaitClosed()
	logger.Info("shutdown complete")
}
