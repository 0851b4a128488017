package integration

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartpg "storefront/internal/cart/infrastructure/postgres"
	catalogdomain "storefront/internal/catalog/domain"
	catalogpg "storefront/internal/catalog/infrastructure/postgres"
	inventorypg "storefront/internal/inventory/infrastructure/postgres"
	orderdomain "storefront/internal/order/domain"
	orderpg "storefront/internal/order/infrastructure/postgres"
	storagepg "storefront/internal/storage/postgres"
	"storefront/pkg/idempotency"
	"storefront/pkg/outbox"
)

func TestCheckoutFlowAgainstContainers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	require.NoError(t, err)
	defer env.Teardown(ctx)

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, storagepg.Migrate(ctx, pool))

	log := slog.New(slog.DiscardHandler)
	catalogRepo := catalogpg.NewRepository(log, pool)
	ledger := inventorypg.NewLedger(log, pool)
	cartRepo := cartpg.NewRepository(log, pool)
	orderRepo := orderpg.NewRepository(log, pool)

	customer := uuid.New()
	product, err := catalogRepo.Create(ctx, catalogdomain.Product{
		ID:    uuid.New(),
		Name:  "Widget",
		Price: decimal.RequireFromString("299.99"),
		Stock: 10,
	})
	require.NoError(t, err)

	_, err = cartRepo.AddItem(ctx, customer, product.ID, 2)
	require.NoError(t, err)

	level, err := ledger.Availability(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 8, level.Available)

	order, err := orderRepo.CreateFromCart(ctx, customer, orderdomain.ShippingAddress{
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
		Verified:   true,
	})
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("599.98")), "total %s", order.Total)

	cart, err := cartRepo.Get(ctx, customer)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	level, err = ledger.Availability(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 8, level.Available, "reservation must be consumed, not released")

	t.Run("outbox relays OrderSubmitted to kafka", func(t *testing.T) {
		const topic = "order.events"
		writer := &kafkago.Writer{
			Addr:                   kafkago.TCP(env.Brokers...),
			AllowAutoTopicCreation: true,
		}
		defer writer.Close()

		store := orderpg.NewOutboxStore(log, pool)

		// A relay that claims a batch and dies must not strand its events.
		events, err := store.LockBatch(ctx, "crashed-relay", 10, time.Millisecond)
		require.NoError(t, err)
		require.Len(t, events, 1)
		time.Sleep(50 * time.Millisecond)

		events, err = store.LockBatch(ctx, "test-relay", 10, 5*time.Second)
		require.NoError(t, err)
		require.Len(t, events, 1, "expired lease must be reclaimed")
		assert.Equal(t, "OrderSubmitted", events[0].Type)

		dispatch := outbox.NewDispatcher(log, writer, topic)
		require.NoError(t, dispatch.Dispatch(ctx, events[0]))
		require.NoError(t, store.MarkSent(ctx, []int64{events[0].ID}))

		reader := kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: env.Brokers,
			Topic:   topic,
			GroupID: "test-consumer",
		})
		defer reader.Close()

		readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		msg, err := reader.ReadMessage(readCtx)
		require.NoError(t, err)

		var event orderdomain.OrderSubmitted
		require.NoError(t, json.Unmarshal(msg.Value, &event))
		assert.Equal(t, order.ID.String(), event.OrderID)
		assert.Equal(t, "599.98", event.Total)
	})
}

func TestIdempotencyKeyAgainstRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	require.NoError(t, err)
	defer env.Teardown(ctx)

	opts, err := redis.ParseURL(env.RedisAddr)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	store := idempotency.NewStore(rdb, time.Minute)
	key := store.Key(uuid.NewString(), "req-1")

	seen, err := store.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen, "first use must not be seen")

	seen, err = store.Seen(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen, "second use must be seen")

	require.NoError(t, store.Forget(ctx, key))
	seen, err = store.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen, "released key must be claimable again")
}
