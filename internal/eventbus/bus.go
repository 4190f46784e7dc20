package eventbus

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/faultmesh/alarm-correlator/internal/domain/alarm"
)

// ClusterCreated is the notification emitted once per cluster produced
// by a correlation run. Delivery is at-least-once: consumers must
// deduplicate on Cluster.ID.
type ClusterCreated struct {
	// EventID identifies this delivery, not the cluster.
	EventID string
	// TenantID is the tenant the cluster belongs to.
	TenantID string
	// Cluster is the full cluster payload.
	Cluster *domain.Cluster
	// OccurredAt is when the notification was published.
	OccurredAt time.Time
}

// ClusterCreatedHandler consumes one cluster notification. A returned
// error marks the delivery as failed for that consumer; the publisher
// still delivers to the remaining consumers.
type ClusterCreatedHandler func(ctx context.Context, event ClusterCreated) error

// Bus is a lightweight in-process event bus connecting the flush
// pipeline to incident formation and any additional listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers []ClusterCreatedHandler
}

// New constructs an empty bus.
func New() *Bus {
	return &Bus{}
}

// SubscribeClusterCreated registers a handler for cluster notifications.
func (b *Bus) SubscribeClusterCreated(handler ClusterCreatedHandler) {
	if handler == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = append(b.handlers, handler)
}

// PublishClusterCreated delivers the cluster to every subscriber.
// One failing consumer does not stop delivery to the others; all
// consumer errors are joined into the returned error.
func (b *Bus) PublishClusterCreated(ctx context.Context, tenantID string, cluster *domain.Cluster) error {
	if cluster == nil {
		return errors.New("eventbus: nil cluster")
	}

	event := ClusterCreated{
		EventID:    NewEventID(),
		TenantID:   tenantID,
		Cluster:    cluster,
		OccurredAt: time.Now().UTC(),
	}

	b.mu.RLock()
	handlers := append([]ClusterCreatedHandler(nil), b.handlers...)
	b.mu.RUnlock()

	var errs []error

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
