// Package formation consumes cluster notifications and creates exactly
// one incident per cluster, deduplicated on the cluster identity so
// at-least-once delivery never double-creates.
package formation
