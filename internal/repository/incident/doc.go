// Package incident implements persistence for created incidents.
//
// The Repository interface is what incident formation depends on; the
// PostgresRepository (pgx stdlib driver) is the production store and
// MemoryRepository backs tests and DSN-less runs. Both keep Save
// idempotent per cluster identity.
package incident
