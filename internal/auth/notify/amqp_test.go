package notify_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/internal/auth/notify"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestAMQPPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping rabbitmq container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)
	url := fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())

	var pub *notify.AMQPPublisher
	require.Eventually(t, func() bool {
		pub, err = notify.NewAMQPPublisher(url, "auth.events.test")
		return err == nil
	}, 60*time.Second, time.Second)
	t.Cleanup(func() { _ = pub.Close() })

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	ch, err := conn.Channel()
	require.NoError(t, err)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "auth.#", "auth.events.test", false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	event := domain.Event{
		Type:       domain.EventUserRegistered,
		UserID:     "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV",
		Email:      "jamie@example.com",
		OccurredAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, pub.Publish(ctx, event))
	require.NoError(t, pub.Ping(ctx))

	select {
	case d := <-deliveries:
		require.Equal(t, domain.EventUserRegistered, d.RoutingKey)
		require.Equal(t, "application/json", d.ContentType)
		require.Equal(t, amqp.Persistent, d.DeliveryMode)

		var got domain.Event
		require.NoError(t, json.Unmarshal(d.Body, &got))
		require.Equal(t, event.UserID, got.UserID)
		require.True(t, event.OccurredAt.Equal(got.OccurredAt))
	case <-time.After(10 * time.Second):
		t.Fatal("no message delivered")
	}
}
