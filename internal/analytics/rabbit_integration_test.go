//go:build integration

package analytics_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ciriously/bookarchive/internal/analytics"
	"github.com/Ciriously/bookarchive/internal/testutil"
)

func TestRabbitSink_RoundTrip(t *testing.T) {
	conn := testutil.StartRabbitMQ(t)

	sink, err := analytics.NewRabbitSink(conn, "ACC-1", "eu1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	// consumer channel bound before publishing
	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, analytics.EventRoutingKey, analytics.EventsExchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = sink.RecordEvent(ctx, analytics.EventAddedToCart, map[string]any{
		"Product Name": "Dune",
	})
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		var env analytics.Envelope
		require.NoError(t, json.Unmarshal(d.Body, &env))
		assert.Equal(t, analytics.EventAddedToCart, env.EventName)
		assert.Equal(t, "ACC-1", env.AccountID)
		assert.Equal(t, "eu1", env.Region)
		assert.NotEmpty(t, env.EventID)
		assert.Equal(t, "Dune", env.Payload["Product Name"])
	case <-ctx.Done():
		t.Fatal("timed out waiting for delivery")
	}
}
