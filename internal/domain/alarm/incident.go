package alarm

import "time"

// IncidentStatus is the lifecycle state of an incident. This core only
// ever creates incidents in the initial ANOMALY state; all later
// transitions belong to the external incident lifecycle machine.
type IncidentStatus string

// IncidentStatusAnomaly is the initial status of every created incident.
const IncidentStatusAnomaly IncidentStatus = "ANOMALY"

// Incident is the actionable operational item created exactly once per
// cluster.
type Incident struct {
	// ID is the incident identity assigned at creation.
	ID string
	// TenantID is carried over unchanged from the cluster.
	TenantID string
	// ClusterID is the originating cluster identity and the
	// deduplication key for at-most-once creation.
	ClusterID string
	// Severity is the cluster severity at formation time.
	Severity Severity
	// EntityID is the cluster's root cause entity; may be empty.
	EntityID string
	// Status is the lifecycle state, initially ANOMALY.
	Status IncidentStatus
	// CreatedAt is when the incident record was formed.
	CreatedAt time.Time
}

// Clone returns a copy of the incident to avoid leaking internal references.
func (i *Incident) Clone() *Incident {
	if i == nil {
		return nil
	}

	cloned := *i

	return &cloned
}
