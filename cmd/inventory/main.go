package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-decor-storefront.git/internal/config"
	"github.com/ariefcatur/go-decor-storefront.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-decor-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-decor-storefront.git/internal/logging"
	"github.com/ariefcatur/go-decor-storefront.git/internal/orders"
	"github.com/ariefcatur/go-decor-storefront.git/internal/postgres"
	"github.com/ariefcatur/go-decor-storefront.git/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	name := cfg.ServiceName + "-inventory"
	log, err := logging.New(name, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, name, cfg.PGMaxConns)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer: reserved & rejected lewat writer yang sama
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log.Named("producer"))
	prod.Start(context.Background()) // ditutup eksplisit lewat Close saat shutdown

	// Service
	svc := &inventory.Service{
		Repo:        &orders.ReservationRepo{DB: db},
		Orders:      &orders.Repo{DB: db},
		Redis:       rdb,
		Producer:    prod,
		ServiceName: name,
		Log:         log,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.InventoryGroup, orders.TopicOrderPlaced, cfg.InventoryWorkers, log.Named("consumer"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("inventory consumer started",
			zap.String("group", cfg.InventoryGroup),
			zap.String("topic", orders.TopicOrderPlaced),
			zap.Int("workers", cfg.InventoryWorkers))
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")
	cancel()
	<-done // worker selesai sebelum producer ditutup
	prod.Close()
	prod.WaitClosed()
}
