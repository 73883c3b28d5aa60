//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"inscrito/internal/audit"
	"inscrito/pkg/testutil/containers"
)

func TestKafkaPublisherDelivers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedpandaContainer(t)

	publisher, err := audit.NewKafkaPublisher([]string{rc.Broker}, "audit.events", slog.Default())
	require.NoError(t, err)
	defer publisher.Close()

	runCtx, cancelRun := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = publisher.Run(runCtx)
	}()

	want := audit.Event{
		Action:        audit.ActionInscriptionConfirmed,
		EventID:       "7f9c24e5-1f6a-4e2a-9f6e-0d1c2b3a4d5e",
		InscriptionID: "0a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9",
		Reason:        "webhook",
	}
	require.NoError(t, publisher.Emit(context.Background(), want))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rc.Broker),
		kgo.ConsumeTopics("audit.events"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancelPoll := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelPoll()
	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, []byte(audit.ActionInscriptionConfirmed), records[0].Key)

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, want.Action, got.Action)
	require.Equal(t, want.EventID, got.EventID)
	require.Equal(t, want.InscriptionID, got.InscriptionID)
	require.Equal(t, want.Reason, got.Reason)
	require.NotEmpty(t, got.ID, "publisher stamps an id")
	require.False(t, got.Timestamp.IsZero(), "publisher stamps a timestamp")

	cancelRun()
	<-done
}
