package alarm

// Record is a single raw fault observation from a network entity,
// already mapped to the canonical shape by the upstream normalizer.
// A Record is immutable once buffered; ownership transfers to the
// tenant buffer on append.
type Record struct {
	// EntityID identifies the network entity that raised the alarm.
	EntityID string `json:"entity_id"`
	// EntityType classifies the entity; used for emergency-service detection.
	EntityType string `json:"entity_type,omitempty"`
	// AlarmType is the vendor-neutral alarm category; used as the
	// cross-entity merge key during correlation.
	AlarmType string `json:"alarm_type,omitempty"`
	// Severity is the reported severity. Empty values default to minor.
	Severity Severity `json:"severity,omitempty"`
	// RaisedAt is the RFC 3339 timestamp of the observation. It may be
	// absent or malformed; correlation treats such records as having an
	// unknown time and never lets them break a cluster.
	RaisedAt string `json:"raised_at,omitempty"`
	// IsEmergencyService marks alarms concerning emergency services.
	IsEmergencyService bool `json:"is_emergency_service,omitempty"`
	// TenantID is the isolation boundary; records never cross tenants.
	TenantID string `json:"tenant_id"`
}

// Clone returns a copy of the record to avoid leaking internal references.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	cloned := *r

	return &cloned
}

// EffectiveSeverity returns the record severity with the default applied.
func (r *Record) EffectiveSeverity() Severity {
	if r.Severity == "" {
		return SeverityMinor
	}

	return r.Severity
}
