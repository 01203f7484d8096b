package models

import (
	"time"

	"github.com/lib/pq"
)

// Student is a learner tracked by the attendance ledger. Timestamps
// are epoch milliseconds; zero means "never". The JSON field names are
// part of the wire contract with the existing kiosk clients and do not
// follow the usual snake_case convention.
type Student struct {
	ID          string         `db:"id" json:"-"`
	StudentID   string         `db:"student_id" json:"studentId"`
	StudentName string         `db:"student_name" json:"studentName"`
	Classes     pq.StringArray `db:"classes" json:"classes"`
	LastLogin   int64          `db:"last_login" json:"lastLogin"`
	LastLogout  int64          `db:"last_logout" json:"lastLogout"`
	LastClass   string         `db:"last_class" json:"lastClass"`
	// OpenSessionID points at the one session that is still open, if
	// any. It is the sole authority on which session a logout closes.
	OpenSessionID *string   `db:"open_session_id" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"-"`
	UpdatedAt     time.Time `db:"updated_at" json:"-"`

	Sessions []Session `db:"-" json:"loginTimestamps"`
}

// Session is one class-attendance interval. It is open while
// LogoutTime still equals LoginTime; TotalTime is elapsed seconds with
// fractional precision, zero while open.
type Session struct {
	ID         string  `db:"id" json:"-"`
	StudentRef string  `db:"student_ref" json:"-"`
	ClassName  string  `db:"class_name" json:"className"`
	LoginTime  int64   `db:"login_time" json:"loginTime"`
	LogoutTime int64   `db:"logout_time" json:"logoutTime"`
	TotalTime  float64 `db:"total_time" json:"totalTime"`
}

// Open reports whether the session has not been logged out yet.
func (s Session) Open() bool {
	return s.LogoutTime == s.LoginTime
}
