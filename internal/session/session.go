// Package session keeps signed-in users' tokens and attendance view state in a
// local SQLite file so a page reload does not lose them.
package session

import (
	"errors"
	"time"

	"github.com/phillip-england/attendance/internal/security"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID           string `gorm:"primaryKey"`
	BearerToken  string
	Refresh      string `gorm:"column:refresh_token"`
	EmployeeID   string
	FullName     string
	IsAdmin      bool
	CSRFToken    string `gorm:"column:csrf_token"`
	CheckInTime  string
	CheckOutTime string
	TotalHours   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    time.Time
}

func (Session) TableName() string { return "sessions" }

// New builds a session with fresh random id and CSRF token.
func New(now time.Time, ttl time.Duration) (*Session, error) {
	id, err := security.RandomToken(32)
	if err != nil {
		return nil, err
	}
	csrf, err := security.RandomToken(32)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        id,
		CSRFToken: csrf,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

func (s *Session) Token() string        { return s.BearerToken }
func (s *Session) RefreshToken() string { return s.Refresh }
func (s *Session) SetToken(token string) {
	s.BearerToken = token
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// ClearAttendance forgets the attendance view state, keeping the sign-in.
func (s *Session) ClearAttendance() {
	s.CheckInTime = ""
	s.CheckOutTime = ""
	s.TotalHours = ""
}
