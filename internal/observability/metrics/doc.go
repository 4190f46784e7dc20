// Package metrics registers the correlator's Prometheus collectors and
// offers nil-safe increment helpers so packages can record events
// without caring whether Init ran (tests typically skip it).
package metrics
