package incident

import (
	"context"
	"errors"

	domain "github.com/faultmesh/alarm-correlator/internal/domain/alarm"
)

// Repository defines persistence operations for incidents.
type Repository interface {
	// Save persists a new incident. Saving a second incident for the
	// same cluster identity must not create a duplicate.
	Save(ctx context.Context, incident *domain.Incident) error
	// FindByClusterID returns the incident created for the cluster,
	// or ErrNotFound when none exists.
	FindByClusterID(ctx context.Context, clusterID string) (*domain.Incident, error)
}

// ErrNotFound is returned when no incident exists for the requested cluster.
var ErrNotFound = errors.New("incident not found")
