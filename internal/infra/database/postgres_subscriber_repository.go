package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"selinggonet_notification_service/internal/domain/subscriber"
)

// Custom errors
var ErrSubscriberNotFound = fmt.Errorf("subscriber not found")

type PostgresSubscriberRepository struct {
	db *sql.DB
}

func NewPostgresSubscriberRepository(db *sql.DB) *PostgresSubscriberRepository {
	return &PostgresSubscriberRepository{db: db}
}

func (r *PostgresSubscriberRepository) GetByID(ctx context.Context, id string) (*subscriber.Subscriber, error) {
	query := `SELECT id, idpl, full_name, whatsapp_number, package_id, installation_date, status, created_at
               FROM profiles WHERE id = $1`
	s := &subscriber.Subscriber{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.CustomerCode, &s.FullName, &s.WhatsAppNumber, &s.PackageID, &s.InstallationDate, &s.Status, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("error getting subscriber by ID: %w", err)
	}
	return s, nil
}

// ListActive returns every subscriber whose service status is active, in
// insertion order. The due-date filter is applied by the caller; the query
// stays a plain status predicate so re-evaluation is a pure function of the
// current table contents.
func (r *PostgresSubscriberRepository) ListActive(ctx context.Context) ([]*subscriber.Subscriber, error) {
	query := `SELECT id, idpl, full_name, whatsapp_number, package_id, installation_date, status, created_at
               FROM profiles WHERE status = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, subscriber.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("error listing active subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := make([]*subscriber.Subscriber, 0)
	for rows.Next() {
		s := &subscriber.Subscriber{}
		if err := rows.Scan(&s.ID, &s.CustomerCode, &s.FullName, &s.WhatsAppNumber, &s.PackageID, &s.InstallationDate, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning active subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active subscribers: %w", err)
	}
	return subscribers, nil
}
