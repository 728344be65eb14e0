package model

import (
	"errors"
	"time"
)

// Status is the daily attendance mark.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// NotesMaxLen bounds the free-text note on a mark, in characters.
const NotesMaxLen = 200

// ErrDuplicateKey is returned by repositories when a unique constraint rejects a write.
var ErrDuplicateKey = errors.New("duplicate key")

// ParseStatus accepts exactly "Present" or "Absent".
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPresent, StatusAbsent:
		return Status(s), true
	}
	return "", false
}

// Attendance is one user's mark for one calendar day.
type Attendance struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Date      time.Time    `json:"date"`
	Status    Status       `json:"status"`
	MarkedAt  time.Time    `json:"markedAt"`
	Notes     string       `json:"notes"`
	CreatedAt time.Time    `json:"createdAt"`
	User      *UserSummary `json:"user,omitempty"`
}

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Statistics is the derived aggregate over a user's records.
type Statistics struct {
	TotalDays            int64   `json:"totalDays"`
	PresentDays          int64   `json:"presentDays"`
	AbsentDays           int64   `json:"absentDays"`
	AttendancePercentage float64 `json:"attendancePercentage"`
}

// Pagination describes an offset/limit page of attendance records.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalRecords int64 `json:"totalRecords"`
}
