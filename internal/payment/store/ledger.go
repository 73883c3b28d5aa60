package store

import (
	"context"
	"log/slog"
	"time"

	platformredis "inscrito/internal/platform/redis"
)

const webhookLedgerPrefix = "inscrito:webhooks:processed:"

// WebhookLedger keeps a rolling record of processed gateway deliveries in
// Redis. It exists for operators, not for correctness: reconciliation is
// idempotent on its own, the ledger answers "did this delivery arrive" when
// the gateway and the audit trail disagree.
type WebhookLedger struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewWebhookLedger(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *WebhookLedger {
	return &WebhookLedger{client: client, ttl: ttl, logger: logger}
}

// Record marks a delivery key as processed. Failures are logged, never
// surfaced.
func (l *WebhookLedger) Record(ctx context.Context, deliveryKey string) {
	key := webhookLedgerPrefix + deliveryKey
	if err := l.client.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl).Err(); err != nil {
		l.logger.WarnContext(ctx, "write webhook ledger entry", "key", deliveryKey, "error", err)
	}
}

// Seen reports whether a delivery key was recorded within the ledger TTL.
func (l *WebhookLedger) Seen(ctx context.Context, deliveryKey string) bool {
	n, err := l.client.Exists(ctx, webhookLedgerPrefix+deliveryKey).Result()
	if err != nil {
		return false
	}
	return n > 0
}
