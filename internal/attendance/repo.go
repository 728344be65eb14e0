package attendance

import (
	"context"
	"time"

	"attendtrack/internal/model"
)

// Repository persists attendance records. Implementations must enforce uniqueness of
// (userID, date) in storage and report violations as model.ErrDuplicateKey.
type Repository interface {
	// Insert stores rec, filling ID and CreatedAt.
	Insert(ctx context.Context, rec *model.Attendance) error
	// FindByDate returns nil, nil when the user has no record for date.
	FindByDate(ctx context.Context, userID string, date time.Time) (*model.Attendance, error)
	// ListByUser returns records ordered by date, most recent first.
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Attendance, error)
	// CountByUser returns the number of records and how many of them are Present.
	CountByUser(ctx context.Context, userID string) (total, present int64, err error)
}

// UserFinder resolves record owners. It returns nil, nil for unknown ids.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Observer is notified about mark outcomes.
type Observer interface {
	Marked(status model.Status)
	Conflict()
}

type nopObserver struct{}

func (nopObserver) Marked(model.Status) {}
func (nopObserver) Conflict()           {}
