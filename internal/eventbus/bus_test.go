package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/faultmesh/alarm-correlator/internal/domain/alarm"
)

var errConsumer = errors.New("consumer failed")

// TestPublishClusterCreated verifies subscriber delivery and event metadata.
func TestPublishClusterCreated(t *testing.T) {
	t.Parallel()

	bus := New()

	var received []ClusterCreated

	bus.SubscribeClusterCreated(func(_ context.Context, event ClusterCreated) error {
		received = append(received, event)

		return nil
	})

	cluster := &domain.Cluster{ID: "c-1", TenantID: "t-1", AlarmCount: 1}

	require.NoError(t, bus.PublishClusterCreated(context.Background(), "t-1", cluster))
	require.Len(t, received, 1)
	require.Same(t, cluster, received[0].Cluster)
	require.Equal(t, "t-1", received[0].TenantID)
	require.NotEmpty(t, received[0].EventID)
	require.False(t, received[0].OccurredAt.IsZero())
}

// TestPublishClusterCreated_FailingConsumerDoesNotStopOthers verifies that a
// consumer error is surfaced but the remaining consumers still run.
func TestPublishClusterCreated_FailingConsumerDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	bus := New()

	bus.SubscribeClusterCreated(func(context.Context, ClusterCreated) error {
		return errConsumer
	})

	delivered := false

	bus.SubscribeClusterCreated(func(context.Context, ClusterCreated) error {
		delivered = true

		return nil
	})

	err := bus.PublishClusterCreated(context.Background(), "t-1", &domain.Cluster{ID: "c-1"})

	require.ErrorIs(t, err, errConsumer)
	require.True(t, delivered)
}

// TestPublishClusterCreated_NilCluster verifies rejection of nil payloads.
func TestPublishClusterCreated_NilCluster(t *testing.T) {
	t.Parallel()

	require.Error(t, New().PublishClusterCreated(context.Background(), "t-1", nil))
}

// TestNewEventID verifies identifier length and uniqueness.
func TestNewEventID(t *testing.T) {
	t.Parallel()

	first := NewEventID()
	second := NewEventID()

	require.Len(t, first, 32)
	require.NotEqual(t, first, second)
}
