// Package alarm contains the core domain types of the correlation
// pipeline: the canonical alarm Record, the Severity ordinal, the
// Cluster produced by a correlation run and the Incident created once
// per cluster.
package alarm
