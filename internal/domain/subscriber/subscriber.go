package subscriber

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status of a subscriber's service lifecycle.
type Status string

const (
	StatusActive   Status = "AKTIF"
	StatusInactive Status = "NONAKTIF"
)

// Subscriber represents an internet customer of the ISP.
// Mirrors the 'profiles' table owned by the backend; read-only here.
type Subscriber struct {
	ID               uuid.UUID
	CustomerCode     string // IDPL, the customer-facing billing code
	FullName         string
	WhatsAppNumber   sql.NullString
	PackageID        uuid.NullUUID
	InstallationDate sql.NullTime
	Status           Status
	CreatedAt        time.Time
}

// IsDue reports whether the subscriber's recurring bill is payable on the
// given day. A subscriber is due when active and the day-of-month of their
// installation date equals the day-of-month of now. Subscribers without an
// installation date are never due. Anchors on days 29-31 simply never fire
// in months that are too short; there is no end-of-month rollover.
func IsDue(s *Subscriber, now time.Time) bool {
	if s.Status != StatusActive {
		return false
	}
	if !s.InstallationDate.Valid {
		return false
	}
	return s.InstallationDate.Time.Day() == now.Day()
}
