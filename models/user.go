package models

import (
	"errors"
	"strings"
	"time"
)

// EligibilityWindowDays is how long after registration a user's actions
// still count toward missions.
const EligibilityWindowDays = 30

type User struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Username         string    `json:"username" gorm:"uniqueIndex;not null"`
	Points           int       `json:"points" gorm:"not null;default:0"`
	RegistrationDate time.Time `json:"registration_date"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewUser creates a user with a zero point balance, registered now.
func NewUser(username string, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username must not be empty")
	}
	return &User{
		Username:         username,
		Points:           0,
		RegistrationDate: now,
	}, nil
}

// AddPoints increases the balance. The reward path only ever adds, so the
// balance is monotonically non-decreasing.
func (u *User) AddPoints(points int) error {
	if points < 0 {
		return errors.New("cannot add negative points")
	}
	u.Points += points
	return nil
}

// EligibleForMissions reports whether the user registered within the last
// 30 days. The clock is passed in so the window stays testable.
func (u *User) EligibleForMissions(now time.Time) bool {
	return u.RegistrationDate.AddDate(0, 0, EligibilityWindowDays).After(now)
}

// LoginRecord is an append-only (user, calendar date) fact. At most one row
// exists per user per date; the streak length is derived from these.
type LoginRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_login_user_date"`
	LoginDate time.Time `json:"login_date" gorm:"not null;uniqueIndex:idx_login_user_date"`
	CreatedAt time.Time `json:"created_at"`
}

// NewLoginRecord records a login for the calendar date of the given moment.
func NewLoginRecord(userID uint, at time.Time) *LoginRecord {
	return &LoginRecord{
		UserID:    userID,
		LoginDate: TruncateToDate(at),
	}
}

// TruncateToDate drops the time-of-day component in UTC.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
