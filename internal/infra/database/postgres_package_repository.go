package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"selinggonet_notification_service/internal/domain/billing"
)

type PostgresPackageRepository struct {
	db *sql.DB
}

func NewPostgresPackageRepository(db *sql.DB) *PostgresPackageRepository {
	return &PostgresPackageRepository{db: db}
}

// ListAll returns every subscription package. The reminder jobs fetch the
// whole table once per run and build a price map instead of querying per
// subscriber.
func (r *PostgresPackageRepository) ListAll(ctx context.Context) ([]*billing.Package, error) {
	query := `SELECT id, name, price FROM packages ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing packages: %w", err)
	}
	defer rows.Close()

	packages := make([]*billing.Package, 0)
	for rows.Next() {
		p := &billing.Package{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("error scanning package: %w", err)
		}
		packages = append(packages, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}
	return packages, nil
}
