package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"selinggonet_notification_service/internal/domain/device"
)

type PostgresDeviceTokenRepository struct {
	db *sql.DB
}

func NewPostgresDeviceTokenRepository(db *sql.DB) *PostgresDeviceTokenRepository {
	return &PostgresDeviceTokenRepository{db: db}
}

// Upsert registers a device token for a user. Re-registering an existing
// (user, token) pair is a no-op; tokens are never mutated, only inserted.
func (r *PostgresDeviceTokenRepository) Upsert(ctx context.Context, userID uuid.UUID, token string) error {
	query := `INSERT INTO device_tokens (user_id, token)
               VALUES ($1, $2)
               ON CONFLICT (user_id, token) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("error upserting device token: %w", err)
	}
	return nil
}

func (r *PostgresDeviceTokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*device.Token, error) {
	query := `SELECT id, user_id, token, created_at
               FROM device_tokens WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing device tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]*device.Token, 0)
	for rows.Next() {
		t := &device.Token{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device tokens: %w", err)
	}
	return tokens, nil
}
