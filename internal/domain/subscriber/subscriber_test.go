package subscriber

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sub(status Status, installed time.Time) *Subscriber {
	return &Subscriber{
		FullName:         "Budi Santoso",
		Status:           status,
		InstallationDate: sql.NullTime{Time: installed, Valid: true},
	}
}

func TestIsDue_MatchingDayOfMonth(t *testing.T) {
	now := time.Date(2026, time.August, 15, 9, 0, 0, 0, time.Local)

	assert.True(t, IsDue(sub(StatusActive, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.Local)), now))
	assert.False(t, IsDue(sub(StatusActive, time.Date(2024, time.January, 16, 0, 0, 0, 0, time.Local)), now))
}

func TestIsDue_InactiveNeverDue(t *testing.T) {
	now := time.Date(2026, time.August, 15, 9, 0, 0, 0, time.Local)
	installed := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.Local)

	assert.False(t, IsDue(sub(StatusInactive, installed), now))
}

func TestIsDue_NoInstallationDate(t *testing.T) {
	now := time.Date(2026, time.August, 15, 9, 0, 0, 0, time.Local)
	s := &Subscriber{FullName: "Siti", Status: StatusActive}

	assert.False(t, IsDue(s, now))
}

func TestIsDue_IndependentOfOtherFields(t *testing.T) {
	now := time.Date(2026, time.August, 3, 0, 0, 0, 0, time.Local)
	s := sub(StatusActive, time.Date(2023, time.May, 3, 18, 30, 0, 0, time.Local))
	s.WhatsAppNumber = sql.NullString{} // no contact address
	s.CustomerCode = ""                 // no customer code

	assert.True(t, IsDue(s, now))
}

// Anchors on day 31 never fire in short months: equality only, no rollover.
func TestIsDue_NoEndOfMonthRollover(t *testing.T) {
	installed := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.Local)
	s := sub(StatusActive, installed)

	lastOfApril := time.Date(2026, time.April, 30, 9, 0, 0, 0, time.Local)
	assert.False(t, IsDue(s, lastOfApril))

	lastOfMarch := time.Date(2026, time.March, 31, 9, 0, 0, 0, time.Local)
	assert.True(t, IsDue(s, lastOfMarch))
}

func TestIsDue_PureFunction(t *testing.T) {
	now := time.Date(2026, time.August, 15, 9, 0, 0, 0, time.Local)
	s := sub(StatusActive, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.Local))

	first := IsDue(s, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, IsDue(s, now))
	}
}
