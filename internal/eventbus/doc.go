// Package eventbus provides the in-process ClusterCreated notification
// channel between the flush pipeline and its consumers (incident
// formation, logging listeners). Delivery is at-least-once; consumers
// deduplicate on the cluster identity.
package eventbus
