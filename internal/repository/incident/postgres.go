package incident

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Registers the pgx stdlib driver under the "pgx" name.
	_ "github.com/jackc/pgx/v5/stdlib"

	domain "github.com/faultmesh/alarm-correlator/internal/domain/alarm"
)

// PostgresRepository persists incidents in a Postgres table through the
// pgx stdlib driver. The ON CONFLICT clause on the cluster identity is
// the storage half of the at-most-once creation contract.
type PostgresRepository struct {
	db *sql.DB
}

// errNilDB is returned when the repository is built without a database handle.
var errNilDB = errors.New("incident repo: nil db")

// NewPostgresRepository wraps an open database handle.
func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	if db == nil {
		return nil, errNilDB
	}

	return &PostgresRepository{db: db}, nil
}

// Open connects to Postgres using the provided DSN and verifies the
// connection before returning a repository.
func Open(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open incident store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping incident store: %w", err)
	}

	return NewPostgresRepository(db)
}

// Save inserts the incident. A conflicting cluster identity inserts
// nothing and returns no error, keeping Save idempotent under
// redelivered cluster notifications.
func (r *PostgresRepository) Save(ctx context.Context, incident *domain.Incident) error {
	if incident == nil {
		return errors.New("incident repo: nil incident")
	}

	if incident.ClusterID == "" || incident.TenantID == "" {
		return errors.New("incident repo: missing cluster or tenant")
	}

	createdAt := incident.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO incidents (id, tenant_id, cluster_id, severity, entity_id, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (cluster_id) DO NOTHING`,
		incident.ID,
		incident.TenantID,
		incident.ClusterID,
		string(incident.Severity),
		nullableString(incident.EntityID),
		string(incident.Status),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("save incident: %w", err)
	}

	return nil
}

// FindByClusterID fetches the incident created for a cluster.
func (r *PostgresRepository) FindByClusterID(ctx context.Context, clusterID string) (*domain.Incident, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, cluster_id, severity, entity_id, status, created_at
FROM incidents
WHERE cluster_id = $1`, clusterID)

	var (
		incident domain.Incident
		severity string
		status   string
		entityID sql.NullString
	)

	err := row.Scan(
		&incident.ID,
		&incident.TenantID,
		&incident.ClusterID,
		&severity,
		&entityID,
		&status,
		&incident.CreatedAt,
	)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("find incident: %w", err)
	}

	incident.Severity = domain.Severity(severity)
	incident.Status = domain.IncidentStatus(status)
	incident.EntityID = entityID.String

	return &incident, nil
}

// Close releases the underlying database handle.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// nullableString maps empty strings onto SQL NULL.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
