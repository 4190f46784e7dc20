package buffer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/faultmesh/alarm-correlator/internal/domain/alarm"
	"github.com/faultmesh/alarm-correlator/internal/logger"
	"github.com/faultmesh/alarm-correlator/internal/observability/metrics"
)

// Flush triggers, used as the metrics label and in log records.
const (
	// FlushTriggerSize marks a flush forced by the buffer size threshold.
	FlushTriggerSize = "size"
	// FlushTriggerWindow marks a flush fired by the sliding-window timer.
	FlushTriggerWindow = "window"
	// FlushTriggerDrain marks the shutdown drain flush.
	FlushTriggerDrain = "drain"
)

var (
	// ErrRecordRequired is returned when a nil record is appended.
	ErrRecordRequired = errors.New("alarm record is required")
	// ErrTenantRequired is returned when a record carries no tenant.
	ErrTenantRequired = errors.New("tenant_id is required")
	// ErrEntityRequired is returned when a record carries no entity.
	ErrEntityRequired = errors.New("entity_id is required")

	// errCorrelatorRequired is returned when the registry is built without an engine.
	errCorrelatorRequired = errors.New("correlator is required")
	// errPublisherRequired is returned when the registry is built without a publisher.
	errPublisherRequired = errors.New("cluster publisher is required")
)

// Correlator partitions a detached batch into clusters. Implementations
// must be pure; the registry calls them outside every lock.
type Correlator interface {
	Correlate(tenantID string, batch []*domain.Record) []*domain.Cluster
}

// ClusterPublisher delivers cluster-created notifications downstream.
type ClusterPublisher interface {
	PublishClusterCreated(ctx context.Context, tenantID string, cluster *domain.Cluster) error
}

// Registry accumulates alarms per tenant and decides when to hand a
// batch to correlation: either the buffer reaches the size threshold or
// the sliding-window timer fires after a quiet period. Tenant entries
// are created lazily on first alarm and live for the process lifetime.
type Registry struct {
	// correlator is the clustering engine, invoked on detached batches.
	correlator Correlator
	// publisher receives one notification per resulting cluster.
	publisher ClusterPublisher
	// window is the sliding flush window; every append postpones the
	// tenant's flush by this duration.
	window time.Duration
	// maxBatch is the buffer size that triggers an immediate flush.
	maxBatch int

	// mu guards the tenant map only. Per-tenant state has its own lock.
	mu      sync.RWMutex
	tenants map[string]*tenantBuffer
}

// tenantBuffer is the per-tenant accumulation point. The mutex guards
// both the record slice and the timer handle; nothing else may touch them.
type tenantBuffer struct {
	mu      sync.Mutex
	records []*domain.Record
	// timer is the outstanding window flush, at most one per tenant.
	timer *time.Timer
}

// detachLocked swaps out the buffered records and cancels the
// outstanding timer. Callers must hold the tenant mutex. Cancellation
// is best-effort: a timer that already fired lands on the now-empty
// buffer and flushes nothing.
func (b *tenantBuffer) detachLocked() []*domain.Record {
	batch := b.records
	b.records = nil

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}

	return batch
}

// NewRegistry creates a registry flushing through the provided engine
// and publisher. Non-positive window or threshold values fall back to
// the package defaults of 300s and 100 records.
func NewRegistry(correlator Correlator, publisher ClusterPublisher, window time.Duration, maxBufferSize int) (*Registry, error) {
	if correlator == nil {
		return nil, errCorrelatorRequired
	}

	if publisher == nil {
		return nil, errPublisherRequired
	}

	if window <= 0 {
		window = 300 * time.Second
	}

	if maxBufferSize <= 0 {
		maxBufferSize = 100
	}

	return &Registry{
		correlator: correlator,
		publisher:  publisher,
		window:     window,
		maxBatch:   maxBufferSize,
		tenants:    make(map[string]*tenantBuffer),
	}, nil
}

// Append buffers one alarm for its tenant. Reaching the size threshold
// detaches the batch under the tenant guard and correlates it
// immediately; otherwise the tenant's window timer is reset, so the
// flush only happens after a quiet period.
func (r *Registry) Append(ctx context.Context, record *domain.Record) error {
	if record == nil {
		return ErrRecordRequired
	}

	if record.TenantID == "" {
		return ErrTenantRequired
	}

	if record.EntityID == "" {
		return ErrEntityRequired
	}

	tenantID := record.TenantID
	buf := r.tenant(tenantID)

	buf.mu.Lock()
	buf.records = append(buf.records, record)

	if len(buf.records) >= r.maxBatch {
		batch := buf.detachLocked()
		buf.mu.Unlock()

		metrics.IncAlarmsBuffered()
		r.process(ctx, tenantID, batch, FlushTriggerSize)

		return nil
	}

	if buf.timer != nil {
		buf.timer.Stop()
	}

	buf.timer = time.AfterFunc(r.window, func() {
		r.flush(logger.WithName(context.Background(), "window-flush"), tenantID, FlushTriggerWindow)
	})
	buf.mu.Unlock()

	metrics.IncAlarmsBuffered()

	return nil
}

// Flush drains the tenant's buffer and correlates whatever was present
// at detach time. Flushing an empty or unknown tenant is a no-op.
func (r *Registry) Flush(ctx context.Context, tenantID string) {
	r.flush(ctx, tenantID, FlushTriggerWindow)
}

// FlushAll drains every tenant once; used on shutdown so buffered
// alarms are correlated rather than lost.
func (r *Registry) FlushAll(ctx context.Context) {
	r.mu.RLock()

	tenantIDs := make([]string, 0, len(r.tenants))
	for tenantID := range r.tenants {
		tenantIDs = append(tenantIDs, tenantID)
	}

	r.mu.RUnlock()

	for _, tenantID := range tenantIDs {
		r.flush(ctx, tenantID, FlushTriggerDrain)
	}
}

// Pending returns the number of currently buffered alarms for a tenant.
func (r *Registry) Pending(tenantID string) int {
	r.mu.RLock()
	buf := r.tenants[tenantID]
	r.mu.RUnlock()

	if buf == nil {
		return 0
	}

	buf.mu.Lock()
	defer buf.mu.Unlock()

	return len(buf.records)
}

// tenant returns the buffer for the tenant, creating it on first use.
func (r *Registry) tenant(tenantID string) *tenantBuffer {
	r.mu.RLock()
	buf := r.tenants[tenantID]
	r.mu.RUnlock()

	if buf != nil {
		return buf
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if buf = r.tenants[tenantID]; buf == nil {
		buf = &tenantBuffer{}
		r.tenants[tenantID] = buf
	}

	return buf
}

func (r *Registry) flush(ctx context.Context, tenantID string, trigger string) {
	r.mu.RLock()
	buf := r.tenants[tenantID]
	r.mu.RUnlock()

	if buf == nil {
		return
	}

	buf.mu.Lock()
	batch := buf.detachLocked()
	buf.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	r.process(ctx, tenantID, batch, trigger)
}

// process correlates one detached batch and publishes the resulting
// clusters. It runs outside every lock. A correlation failure drops the
// batch for this tenant only; other tenants are unaffected and the
// tenant starts over with a fresh buffer.
func (r *Registry) process(ctx context.Context, tenantID string, batch []*domain.Record, trigger string) {
	metrics.ObserveFlush(trigger, len(batch))

	clusters, err := r.correlate(tenantID, batch)
	if err != nil {
		metrics.IncCorrelationFailure()
		logger.ErrorKV(ctx, "Correlation failed, dropping batch",
			"tenant_id", tenantID, "trigger", trigger, "batch_size", len(batch), "error", err)

		return
	}

	metrics.AddClusters(len(clusters))

	for _, cluster := range clusters {
		if err := r.publisher.PublishClusterCreated(ctx, tenantID, cluster); err != nil {
			logger.ErrorKV(ctx, "Cluster notification failed",
				"tenant_id", tenantID, "cluster_id", cluster.ID, "error", err)
		}
	}

	logger.InfoKV(ctx, "Tenant batch correlated",
		"tenant_id", tenantID, "trigger", trigger, "batch_size", len(batch), "clusters", len(clusters))
}

// correlate shields the scheduler from a misbehaving engine: a panic on
// unexpected data is converted to an error and handled as a dropped batch.
func (r *Registry) correlate(tenantID string, batch []*domain.Record) (clusters []*domain.Cluster, err error) {
	defer func() {
		if cause := recover(); cause != nil {
			err = fmt.Errorf("correlate batch: %v", cause)
		}
	}()

	return r.correlator.Correlate(tenantID, batch), nil
}
