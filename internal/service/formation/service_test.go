package formation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/faultmesh/alarm-correlator/internal/domain/alarm"
	"github.com/faultmesh/alarm-correlator/internal/eventbus"
	repo "github.com/faultmesh/alarm-correlator/internal/repository/incident"
)

var errStoreDown = errors.New("store down")

// flakyRepository fails a configured number of Save calls before
// delegating to an in-memory store.
type flakyRepository struct {
	*repo.MemoryRepository

	// failures is the number of Save calls left to fail.
	failures int
}

// Save fails while failures remain, then stores normally.
func (f *flakyRepository) Save(ctx context.Context, incident *domain.Incident) error {
	if f.failures > 0 {
		f.failures--

		return errStoreDown
	}

	return f.MemoryRepository.Save(ctx, incident)
}

// testCluster builds a cluster with the given identity.
func testCluster(id string) *domain.Cluster {
	return &domain.Cluster{
		ID:                id,
		TenantID:          "t-1",
		AlarmCount:        2,
		Severity:          domain.SeverityMajor,
		RootCauseEntityID: "cell-1",
	}
}

// TestCreateFromCluster verifies the created incident fields.
func TestCreateFromCluster(t *testing.T) {
	t.Parallel()

	svc, err := NewService(repo.NewMemoryRepository())
	require.NoError(t, err)

	incident, err := svc.CreateFromCluster(context.Background(), "t-1", testCluster("c-1"))

	require.NoError(t, err)
	require.NotEmpty(t, incident.ID)
	require.Equal(t, "t-1", incident.TenantID)
	require.Equal(t, "c-1", incident.ClusterID)
	require.Equal(t, domain.SeverityMajor, incident.Severity)
	require.Equal(t, "cell-1", incident.EntityID)
	require.Equal(t, domain.IncidentStatusAnomaly, incident.Status)
	require.False(t, incident.CreatedAt.IsZero())
}

// TestCreateFromCluster_Idempotent verifies that a duplicate cluster
// notification yields the original incident and creates nothing new.
func TestCreateFromCluster_Idempotent(t *testing.T) {
	t.Parallel()

	store := repo.NewMemoryRepository()

	svc, err := NewService(store)
	require.NoError(t, err)

	first, err := svc.CreateFromCluster(context.Background(), "t-1", testCluster("c-1"))
	require.NoError(t, err)

	second, err := svc.CreateFromCluster(context.Background(), "t-1", testCluster("c-1"))
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, store.Len())
}

// TestCreateFromCluster_DedupAcrossServiceRestart verifies that the store,
// not just process memory, prevents double creation.
func TestCreateFromCluster_DedupAcrossServiceRestart(t *testing.T) {
	t.Parallel()

	store := repo.NewMemoryRepository()

	svc, err := NewService(store)
	require.NoError(t, err)

	first, err := svc.CreateFromCluster(context.Background(), "t-1", testCluster("c-1"))
	require.NoError(t, err)

	// A fresh service with an empty in-process set hits the store check.
	restarted, err := NewService(store)
	require.NoError(t, err)

	second, err := restarted.CreateFromCluster(context.Background(), "t-1", testCluster("c-1"))
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, store.Len())
}

// TestCreateFromCluster_EmergencyOverride verifies the defensive critical
// promotion for emergency-service clusters.
func TestCreateFromCluster_EmergencyOverride(t *testing.T) {
	t.Parallel()

	svc, err := NewService(repo.NewMemoryRepository())
	require.NoError(t, err)

	cluster := testCluster("c-1")
	cluster.Severity = domain.SeverityMinor
	cluster.IsEmergencyService = true

	incident, err := svc.CreateFromCluster(context.Background(), "t-1", cluster)

	require.NoError(t, err)
	require.Equal(t, domain.SeverityCritical, incident.Severity)
}

// TestCreateFromCluster_RetryableStoreFailure verifies that a failed Save is
// surfaced, leaves no dedup mark, and a retry creates exactly one incident.
func TestCreateFromCluster_RetryableStoreFailure(t *testing.T) {
	t.Parallel()

	store := &flakyRepository{MemoryRepository: repo.NewMemoryRepository(), failures: 1}

	svc, err := NewService(store)
	require.NoError(t, err)

	_, err = svc.CreateFromCluster(context.Background(), "t-1", testCluster("c-1"))
	require.ErrorIs(t, err, errStoreDown)

	incident, err := svc.CreateFromCluster(context.Background(), "t-1", testCluster("c-1"))
	require.NoError(t, err)
	require.NotNil(t, incident)
	require.Equal(t, 1, store.Len())
}

// TestCreateFromCluster_Validation verifies rejection of nil and identity-less clusters.
func TestCreateFromCluster_Validation(t *testing.T) {
	t.Parallel()

	svc, err := NewService(repo.NewMemoryRepository())
	require.NoError(t, err)

	_, err = svc.CreateFromCluster(context.Background(), "t-1", nil)
	require.Error(t, err)

	_, err = svc.CreateFromCluster(context.Background(), "t-1", &domain.Cluster{})
	require.Error(t, err)
}

// TestHandleClusterCreated verifies the event bus adapter end to end.
func TestHandleClusterCreated(t *testing.T) {
	t.Parallel()

	store := repo.NewMemoryRepository()

	svc, err := NewService(store)
	require.NoError(t, err)

	bus := eventbus.New()
	bus.SubscribeClusterCreated(svc.HandleClusterCreated)

	cluster := testCluster("c-1")

	require.NoError(t, bus.PublishClusterCreated(context.Background(), "t-1", cluster))
	// Redelivery must not double-create.
	require.NoError(t, bus.PublishClusterCreated(context.Background(), "t-1", cluster))
	require.Equal(t, 1, store.Len())
}
