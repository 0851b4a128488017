package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"storefront/pkg/config"
	"storefront/pkg/idempotency"
	"storefront/pkg/logging"
	"storefront/pkg/outbox"
	"storefront/pkg/shutdown"
	"storefront/pkg/tracing"

	"storefront/internal/auth"
	cartapp "storefront/internal/cart/application"
	carthttp "storefront/internal/cart/infrastructure/http"
	cartpg "storefront/internal/cart/infrastructure/postgres"
	catalogapp "storefront/internal/catalog/application"
	cataloghttp "storefront/internal/catalog/infrastructure/http"
	catalogpg "storefront/internal/catalog/infrastructure/postgres"
	inventoryapp "storefront/internal/inventory/application"
	inventoryhttp "storefront/internal/inventory/infrastructure/http"
	inventorypg "storefront/internal/inventory/infrastructure/postgres"
	notifyapp "storefront/internal/notify/application"
	notifydomain "storefront/internal/notify/domain"
	notifyhttp "storefront/internal/notify/infrastructure/http"
	notifykafka "storefront/internal/notify/infrastructure/kafka"
	notifypg "storefront/internal/notify/infrastructure/postgres"
	orderapp "storefront/internal/order/application"
	"storefront/internal/order/infrastructure/adapter"
	orderhttp "storefront/internal/order/infrastructure/http"
	orderpg "storefront/internal/order/infrastructure/postgres"
	"storefront/internal/order/infrastructure/verifier"
	"storefront/internal/storage/memory"
	storagepg "storefront/internal/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logging.New(logging.Options{Service: "storefront", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "storefront", cfg.OTelEndpoint)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaAddr),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	notifyDispatch := notifykafka.NewDispatcher(log, writer, cfg.NotificationTopic)

	var (
		catalogRepo catalogapp.ProductRepo
		ledger      inventoryapp.Ledger
		cartStore   cartapp.Store
		orderStore  orderapp.Store
		flags       notifyapp.FlagStore
		groups      notifyapp.GroupLookup
	)

	switch cfg.Store {
	case "memory":
		store, err := memory.New()
		if err != nil {
			log.Error("memory store init failed", "err", err)
			os.Exit(1)
		}
		// Dev seed so incident reporting works out of the box.
		_ = store.UpsertFlag(notifydomain.FeatureFlag{
			Name:       notifyapp.FlagErrorNotifications,
			Enabled:    true,
			Recipients: []string{"ops@storefront.local"},
		})
		catalogRepo = store.Catalog()
		ledger = store.Ledger()
		cartStore = store.Carts()
		orderStore = store.Orders()
		flags = store.Flags()
		groups = store.Groups()
		log.Info("using in-memory store; outbox relay disabled")

	default:
		pool, err := pgxpool.New(ctx, cfg.PGURL)
		if err != nil {
			log.Error("pg connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := storagepg.Migrate(ctx, pool); err != nil {
			log.Error("migration failed", "err", err)
			os.Exit(1)
		}

		catalogRepo = catalogpg.NewRepository(log, pool)
		ledger = inventorypg.NewLedger(log, pool)
		cartStore = cartpg.NewRepository(log, pool)
		orderStore = orderpg.NewRepository(log, pool)
		flags = notifypg.NewFlagStore(log, pool)
		groups = notifypg.NewGroupLookup(log, pool)

		outboxStore := orderpg.NewOutboxStore(log, pool)
		dispatch := outbox.NewDispatcher(log, writer, cfg.OrderEventsTopic)
		relay := outbox.NewRelay(log, outboxStore, dispatch, "storefront-relay")
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("relay stopped with error", "err", err)
			}
		}()
	}

	var idem orderhttp.IdempotencyStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		idem = idempotency.NewStore(rdb, time.Duration(cfg.IdemTTLMinutes)*time.Minute)
	}

	var addrVerifier orderapp.AddressVerifier
	if cfg.AddressVerifierURL != "" {
		addrVerifier = verifier.NewClient(log, cfg.AddressVerifierURL)
	} else {
		log.Warn("no address verifier configured; accepting all addresses")
		addrVerifier = verifier.Static{Verdict: true}
	}

	catalogSvc := catalogapp.NewService(log, catalogRepo)
	inventorySvc := inventoryapp.NewService(log, ledger)
	cartSvc := cartapp.NewService(log, cartStore)
	orderSvc := orderapp.NewService(log, orderStore, adapter.NewCartChecker(cartSvc), addrVerifier)
	notifySvc := notifyapp.NewService(log, flags, groups, notifyDispatch)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware)
	r.Use(notifyhttp.IncidentMiddleware(notifySvc))
	r.Mount("/", cataloghttp.NewHandler(log, catalogSvc).Routes())
	r.Mount("/inventory", inventoryhttp.NewHandler(log, inventorySvc).Routes())
	r.Mount("/shopping", carthttp.NewHandler(log, cartSvc).Routes())
	r.Mount("/checkout", orderhttp.NewHandler(log, orderSvc, idem).Routes())

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("storefront shutdown complete")
}
