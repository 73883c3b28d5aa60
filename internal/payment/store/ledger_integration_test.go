//go:build integration

package store_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inscrito/internal/payment/store"
	"inscrito/internal/platform/config"
	platformredis "inscrito/internal/platform/redis"
	"inscrito/pkg/testutil/containers"
)

func TestWebhookLedger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	client, err := platformredis.New(config.RedisConfig{URL: rc.URL, PoolSize: 5})
	require.NoError(t, err)

	ledger := store.NewWebhookLedger(client, time.Minute, slog.Default())

	require.False(t, ledger.Seen(ctx, "PAYMENT_CONFIRMED:pay_1"))
	ledger.Record(ctx, "PAYMENT_CONFIRMED:pay_1")
	require.True(t, ledger.Seen(ctx, "PAYMENT_CONFIRMED:pay_1"))
	require.False(t, ledger.Seen(ctx, "PAYMENT_CONFIRMED:pay_2"))
}
