package users

import (
	"context"

	"attendtrack/internal/model"
)

// Repository persists user accounts. Create must report a taken username as
// model.ErrDuplicateKey; lookups return nil, nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// ListMembers returns non-admin users, newest first.
	ListMembers(ctx context.Context, offset, limit int) ([]model.User, error)
	CountMembers(ctx context.Context) (int64, error)
}

// StatsSource computes the attendance statistics shown next to each listed member.
type StatsSource interface {
	Statistics(ctx context.Context, userID string) (model.Statistics, error)
}
