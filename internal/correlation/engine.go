package correlation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	domain "github.com/faultmesh/alarm-correlator/internal/domain/alarm"
)

// DefaultWindow is the temporal window used when none is configured:
// the maximum gap between two alarms for them to be considered correlated.
const DefaultWindow = 5 * time.Minute

// Engine partitions a batch of alarms into causally-grouped clusters.
// It is pure: no shared mutable state, safe to call concurrently and
// without holding any lock.
type Engine struct {
	// window is the temporal correlation window.
	window time.Duration
	// emergencyTypes holds entity types that force critical severity.
	emergencyTypes map[string]struct{}
}

// NewEngine creates an engine with the provided temporal window and
// emergency entity types. A non-positive window falls back to DefaultWindow.
func NewEngine(window time.Duration, emergencyEntityTypes []string) *Engine {
	if window <= 0 {
		window = DefaultWindow
	}

	types := make(map[string]struct{}, len(emergencyEntityTypes))
	for _, entityType := range emergencyEntityTypes {
		types[entityType] = struct{}{}
	}

	return &Engine{
		window:         window,
		emergencyTypes: types,
	}
}

// member pairs a buffered record with its parsed timestamp.
// hasTime is false for absent or unparseable raised_at values; such
// members never break a cluster.
type member struct {
	record  *domain.Record
	time    time.Time
	hasTime bool
}

// protoCluster is an intermediate cluster in the merge arena.
type protoCluster struct {
	// members in merge order.
	members []member
	// alarmType of the first member, the cross-entity merge key.
	// Empty types never merge across entities.
	alarmType string
	// minTime/maxTime span the known member timestamps.
	minTime, maxTime time.Time
	// hasTime is false while no member carries a known timestamp.
	hasTime bool
}

// add appends a member and extends the known time range.
func (p *protoCluster) add(m member) {
	p.members = append(p.members, m)

	if !m.hasTime {
		return
	}

	if !p.hasTime {
		p.minTime, p.maxTime, p.hasTime = m.time, m.time, true

		return
	}

	if m.time.Before(p.minTime) {
		p.minTime = m.time
	}

	if m.time.After(p.maxTime) {
		p.maxTime = m.time
	}
}

// absorb moves all members of other into p, extending p's time range.
func (p *protoCluster) absorb(other *protoCluster) {
	for _, m := range other.members {
		p.add(m)
	}
}

// overlaps reports whether the time ranges of two proto-clusters
// overlap once each is padded by the window on both ends. A cluster
// without any known timestamp overlaps everything: unknown time must
// never prevent correlation.
func (p *protoCluster) overlaps(other *protoCluster, window time.Duration) bool {
	if !p.hasTime || !other.hasTime {
		return true
	}

	return !p.minTime.After(other.maxTime.Add(window)) &&
		!other.minTime.After(p.maxTime.Add(window))
}

// Correlate partitions the batch into clusters in O(n log n):
// alarms are grouped per entity, each entity sequence is sorted by time
// and split where the gap exceeds the window, and the resulting
// proto-clusters of the same alarm type are greedily merged across
// entities when their padded time ranges overlap. An empty batch yields
// no clusters; every input alarm lands in exactly one cluster.
func (e *Engine) Correlate(tenantID string, batch []*domain.Record) []*domain.Cluster {
	if len(batch) == 0 {
		return nil
	}

	arena := e.buildProtoClusters(batch)
	consumed := e.mergeAcrossEntities(arena)

	now := time.Now().UTC()

	clusters := make([]*domain.Cluster, 0, len(arena))

	for i, proto := range arena {
		if consumed[i] {
			continue
		}

		clusters = append(clusters, e.finalize(tenantID, proto, now))
	}

	return clusters
}

// buildProtoClusters groups the batch per entity, orders each entity's
// alarms by timestamp (unknown times sort first and never break a
// cluster) and splits on gaps wider than the window. The arena keeps
// entities in first-seen order so clustering is reproducible.
func (e *Engine) buildProtoClusters(batch []*domain.Record) []*protoCluster {
	entityOrder := make([]string, 0, len(batch))
	byEntity := make(map[string][]member, len(batch))

	for _, record := range batch {
		if record == nil {
			continue
		}

		m := member{record: record}
		m.time, m.hasTime = parseRaisedAt(record.RaisedAt)

		if _, seen := byEntity[record.EntityID]; !seen {
			entityOrder = append(entityOrder, record.EntityID)
		}

		byEntity[record.EntityID] = append(byEntity[record.EntityID], m)
	}

	var arena []*protoCluster

	for _, entityID := range entityOrder {
		sequence := byEntity[entityID]

		// Unknown timestamps sort as the zero time, so they lead the
		// sequence and join the entity's first proto-cluster.
		sort.SliceStable(sequence, func(i, j int) bool {
			return sequence[i].time.Before(sequence[j].time)
		})

		var (
			current  *protoCluster
			lastTime time.Time
			hasLast  bool
		)

		for _, m := range sequence {
			startNew := current == nil ||
				(m.hasTime && hasLast && m.time.Sub(lastTime) > e.window)

			if startNew {
				current = &protoCluster{alarmType: m.record.AlarmType}
				arena = append(arena, current)
				hasLast = false
			}

			current.add(m)

			if m.hasTime {
				lastTime, hasLast = m.time, true
			}
		}
	}

	return arena
}

// mergeAcrossEntities performs the greedy first-match merge of
// same-type proto-clusters with overlapping padded time ranges.
// Type groups are processed in first-seen order and proto-clusters in
// arena order; an absorbed proto-cluster is marked consumed and never
// reconsidered. The returned slice flags consumed arena entries.
func (e *Engine) mergeAcrossEntities(arena []*protoCluster) []bool {
	consumed := make([]bool, len(arena))

	typeOrder := make([]string, 0, len(arena))
	byType := make(map[string][]int, len(arena))

	for i, proto := range arena {
		if proto.alarmType == "" {
			continue
		}

		if _, seen := byType[proto.alarmType]; !seen {
			typeOrder = append(typeOrder, proto.alarmType)
		}

		byType[proto.alarmType] = append(byType[proto.alarmType], i)
	}

	for _, alarmType := range typeOrder {
		group := byType[alarmType]

		for position, i := range group {
			if consumed[i] {
				continue
			}

			for _, j := range group[position+1:] {
				if consumed[j] {
					continue
				}

				if arena[i].overlaps(arena[j], e.window) {
					arena[i].absorb(arena[j])
					consumed[j] = true
				}
			}
		}
	}

	return consumed
}

// finalize turns a surviving proto-cluster into a Cluster: highest
// member severity with emergency override, most frequent entity as the
// root cause (first occurrence wins ties) and a deterministic identity.
func (e *Engine) finalize(tenantID string, proto *protoCluster, now time.Time) *domain.Cluster {
	records := make([]*domain.Record, 0, len(proto.members))

	var (
		severity    domain.Severity
		emergency   bool
		entityOrder []string
	)

	counts := make(map[string]int, len(proto.members))

	for i, m := range proto.members {
		record := m.record
		records = append(records, record)

		if i == 0 {
			severity = record.EffectiveSeverity()
		} else {
			severity = severity.Max(record.EffectiveSeverity())
		}

		if record.IsEmergencyService {
			emergency = true
		}

		if _, ok := e.emergencyTypes[record.EntityType]; ok {
			emergency = true
		}

		if counts[record.EntityID] == 0 {
			entityOrder = append(entityOrder, record.EntityID)
		}

		counts[record.EntityID]++
	}

	if emergency {
		severity = domain.SeverityCritical
	}

	var (
		rootCause string
		best      int
	)

	for _, entityID := range entityOrder {
		if counts[entityID] > best {
			best, rootCause = counts[entityID], entityID
		}
	}

	return &domain.Cluster{
		ID:                 clusterID(tenantID, records),
		TenantID:           tenantID,
		Alarms:             records,
		AlarmCount:         len(records),
		Severity:           severity,
		IsEmergencyService: emergency,
		RootCauseEntityID:  rootCause,
		CreatedAt:          now,
	}
}

// clusterID derives the deterministic cluster identity: a SHA-256 over
// the tenant and the sorted member identity tuples. Member order does
// not matter, so redelivered or re-correlated content hashes the same.
func clusterID(tenantID string, records []*domain.Record) string {
	keys := make([]string, 0, len(records))
	for _, record := range records {
		keys = append(keys, fmt.Sprintf("%s|%s|%s|%s|%s",
			record.EntityID,
			record.EntityType,
			record.AlarmType,
			record.RaisedAt,
			record.EffectiveSeverity()))
	}

	sort.Strings(keys)

	digest := sha256.New()
	digest.Write([]byte(tenantID))

	for _, key := range keys {
		digest.Write([]byte{0})
		digest.Write([]byte(key))
	}

	return hex.EncodeToString(digest.Sum(nil))
}

// raisedAtLayouts are the accepted timestamp formats, most specific first.
var raisedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseRaisedAt parses the raised_at value. Absent or unparseable
// values report hasTime=false and are treated as unknown by clustering.
func parseRaisedAt(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range raisedAtLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}

	return time.Time{}, false
}
