package alarm

import "time"

// Cluster is a group of alarms judged to share a common root cause by
// temporal, entity and type proximity. Clusters are produced by one
// correlation run and never span tenants.
type Cluster struct {
	// ID is a deterministic identity derived from the member alarms.
	// Re-correlating the same batch yields the same ID, which is the
	// deduplication key for incident formation.
	ID string
	// TenantID is the tenant the member alarms belong to.
	TenantID string
	// Alarms holds the member records in merge order.
	Alarms []*Record
	// AlarmCount equals len(Alarms).
	AlarmCount int
	// Severity is the highest-ranked severity among members, forced to
	// critical when the cluster concerns an emergency service.
	Severity Severity
	// IsEmergencyService is set when any member concerns an emergency service.
	IsEmergencyService bool
	// RootCauseEntityID is the most frequent entity among members,
	// ties broken by first occurrence. Empty only for empty clusters,
	// which correlation never emits.
	RootCauseEntityID string
	// CreatedAt is when the cluster was formed, not when any member was raised.
	CreatedAt time.Time
}
