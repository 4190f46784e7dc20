package formation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/faultmesh/alarm-correlator/internal/domain/alarm"
	"github.com/faultmesh/alarm-correlator/internal/eventbus"
	"github.com/faultmesh/alarm-correlator/internal/logger"
	"github.com/faultmesh/alarm-correlator/internal/observability/metrics"
	repo "github.com/faultmesh/alarm-correlator/internal/repository/incident"
)

var (
	// errRepositoryRequired is returned when the service is built without a store.
	errRepositoryRequired = errors.New("incident repository is required")
	// errClusterRequired is returned for nil or identity-less clusters.
	errClusterRequired = errors.New("cluster with identity is required")
)

// Service creates exactly one incident per cluster. Duplicate cluster
// notifications (at-least-once delivery, retries) are deduplicated on
// the cluster identity, first against a process-local set and then
// against the incident store.
type Service struct {
	// repo persists created incidents.
	repo repo.Repository

	// mu guards created.
	mu sync.Mutex
	// created holds cluster identities already turned into incidents
	// during this process lifetime.
	created map[string]struct{}
}

// NewService creates a formation service backed by the provided repository.
func NewService(repository repo.Repository) (*Service, error) {
	if repository == nil {
		return nil, errRepositoryRequired
	}

	return &Service{
		repo:    repository,
		created: make(map[string]struct{}),
	}, nil
}

// CreateFromCluster builds and persists the incident for a cluster:
// cluster severity (re-asserting the emergency override), root cause
// entity, tenant unchanged, initial status ANOMALY. Invoking it twice
// with the same cluster identity returns the already-created incident
// instead of creating a second one. A store failure is surfaced as a
// retryable error and does not mark the cluster as handled.
func (s *Service) CreateFromCluster(ctx context.Context, tenantID string, cluster *domain.Cluster) (*domain.Incident, error) {
	if cluster == nil || cluster.ID == "" {
		return nil, errClusterRequired
	}

	if s.alreadyCreated(cluster.ID) {
		metrics.IncIncidentDeduplicated()

		return s.repo.FindByClusterID(ctx, cluster.ID)
	}

	existing, err := s.repo.FindByClusterID(ctx, cluster.ID)

	switch {
	case err == nil:
		s.markCreated(cluster.ID)
		metrics.IncIncidentDeduplicated()

		return existing, nil
	case !errors.Is(err, repo.ErrNotFound):
		metrics.IncIncidentStoreFailure()

		return nil, fmt.Errorf("check incident for cluster %s: %w", cluster.ID, err)
	}

	severity := cluster.Severity
	if cluster.IsEmergencyService {
		severity = domain.SeverityCritical
	}

	incident := &domain.Incident{
		ID:        eventbus.NewEventID(),
		TenantID:  tenantID,
		ClusterID: cluster.ID,
		Severity:  severity,
		EntityID:  cluster.RootCauseEntityID,
		Status:    domain.IncidentStatusAnomaly,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Save(ctx, incident); err != nil {
		metrics.IncIncidentStoreFailure()

		return nil, fmt.Errorf("persist incident: %w", err)
	}

	s.markCreated(cluster.ID)
	metrics.IncIncidentCreated()

	logger.InfoKV(ctx, "Incident created",
		"incident_id", incident.ID,
		"tenant_id", tenantID,
		"cluster_id", cluster.ID,
		"severity", incident.Severity,
		"entity_id", incident.EntityID,
		"alarm_count", cluster.AlarmCount)

	return incident, nil
}

// HandleClusterCreated adapts the service to the event bus. Returned
// errors are retryable: the notification may be redelivered and the
// dedup logic keeps creation at-most-once.
func (s *Service) HandleClusterCreated(ctx context.Context, event eventbus.ClusterCreated) error {
	_, err := s.CreateFromCluster(ctx, event.TenantID, event.Cluster)

	return err
}

func (s *Service) alreadyCreated(clusterID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.created[clusterID]

	return ok
}

func (s *Service) markCreated(clusterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created[clusterID] = struct{}{}
}
