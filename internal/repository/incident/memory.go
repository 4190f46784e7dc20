package incident

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/faultmesh/alarm-correlator/internal/domain/alarm"
)

// MemoryRepository is an in-memory Repository used in tests and for
// DSN-less runs. Incidents are keyed by cluster identity, so a second
// Save for the same cluster is a no-op just like the Postgres store.
type MemoryRepository struct {
	mu        sync.RWMutex
	byCluster map[string]*domain.Incident
}

// NewMemoryRepository constructs an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byCluster: make(map[string]*domain.Incident),
	}
}

// Save stores the incident unless one already exists for its cluster.
func (r *MemoryRepository) Save(_ context.Context, incident *domain.Incident) error {
	if incident == nil {
		return errors.New("incident repo: nil incident")
	}

	if incident.ClusterID == "" || incident.TenantID == "" {
		return errors.New("incident repo: missing cluster or tenant")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCluster[incident.ClusterID]; exists {
		return nil
	}

	stored := incident.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	r.byCluster[incident.ClusterID] = stored

	return nil
}

// FindByClusterID returns the incident created for a cluster.
func (r *MemoryRepository) FindByClusterID(_ context.Context, clusterID string) (*domain.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	incident, ok := r.byCluster[clusterID]
	if !ok {
		return nil, ErrNotFound
	}

	return incident.Clone(), nil
}

// All returns copies of every stored incident, in no particular order.
func (r *MemoryRepository) All() []*domain.Incident {
	r.mu.RLock()
	defer r.mu.RUnlock()

	incidents := make([]*domain.Incident, 0, len(r.byCluster))
	for _, incident := range r.byCluster {
		incidents = append(incidents, incident.Clone())
	}

	return incidents
}

// Len returns the number of stored incidents.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byCluster)
}
