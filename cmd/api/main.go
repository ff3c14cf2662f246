package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-decor-storefront.git/internal/cart"
	"github.com/ariefcatur/go-decor-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-decor-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-decor-storefront.git/internal/config"
	"github.com/ariefcatur/go-decor-storefront.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-decor-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-decor-storefront.git/internal/logging"
	"github.com/ariefcatur/go-decor-storefront.git/internal/orders"
	"github.com/ariefcatur/go-decor-storefront.git/internal/postgres"
	"github.com/ariefcatur/go-decor-storefront.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.ServiceName, cfg.PGMaxConns)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (satu writer untuk semua topic)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log.Named("producer"))
	prod.Start(context.Background()) // ditutup eksplisit lewat Close saat shutdown

	// Repos
	products := &catalog.Repo{DB: db}
	collections := &catalog.CollectionRepo{DB: db}
	settings := &catalog.SettingsRepo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	carts := cart.NewRedisStorage(rdb, cfg.CartTTL)

	// Handlers
	router := httpx.NewRouter(log)
	(&httpx.ProductsHandler{
		Catalog:     products,
		Collections: collections,
		PageSize:    cfg.PageSize,
		Log:         log,
	}).Register(router)
	(&httpx.CartHandler{Carts: carts, Products: products, Log: log}).Register(router)

	oh := &httpx.OrdersHandler{
		Checkout: &checkout.Service{
			Carts:       carts,
			Settings:    settings,
			Orders:      orderRepo,
			Producer:    prod,
			ServiceName: cfg.ServiceName,
			Log:         log.Named("checkout"),
		},
		Orders:       orderRepo,
		Reservations: &orders.ReservationRepo{DB: db},
		Redis:        rdb,
		Log:          log,
	}
	oh.Register(router)

	admin := &httpx.AdminHandler{Products: products, Collections: collections, Settings: settings, Log: log}
	router.Route("/api/admin", func(r chi.Router) {
		admin.Register(r)
		oh.RegisterAdmin(r)
	})

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // stop menerima pesan -> flush & close writer
	prod.WaitClosed() // drain
}
