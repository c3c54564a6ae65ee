package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresDashboardRepository passes the backend's dashboard aggregation
// procedures through as raw JSON. The result shapes are owned by the
// procedures, not by this service.
type PostgresDashboardRepository struct {
	db *sql.DB
}

func NewPostgresDashboardRepository(db *sql.DB) *PostgresDashboardRepository {
	return &PostgresDashboardRepository{db: db}
}

func (r *PostgresDashboardRepository) Stats(ctx context.Context, month, year int) (json.RawMessage, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT get_dashboard_stats($1, $2)`, month, year).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("error getting dashboard stats: %w", err)
	}
	return json.RawMessage(raw), nil
}

func (r *PostgresDashboardRepository) ChartSeries(ctx context.Context, monthCount int) (json.RawMessage, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT get_monthly_chart_data($1)`, monthCount).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("error getting chart series: %w", err)
	}
	return json.RawMessage(raw), nil
}
