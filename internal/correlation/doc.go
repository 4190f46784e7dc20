// Package correlation implements the clustering engine that reduces a
// batch of raw alarms to a small set of causally-grouped clusters.
//
// The algorithm groups alarms per entity, splits each entity's timeline
// where the gap between consecutive alarms exceeds the temporal window,
// and then greedily merges same-type proto-clusters across entities
// when their padded time ranges overlap. Severity ranking, the
// emergency-service override and root-cause election happen on the
// surviving clusters. The engine is pure and runs outside any lock.
package correlation
