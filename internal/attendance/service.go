package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"attendtrack/internal/apperr"
	"attendtrack/internal/auth"
	"attendtrack/internal/model"
)

// History is one page of a user's records with the statistics over all of them.
type History struct {
	User       *model.User        `json:"user,omitempty"`
	Records    []model.Attendance `json:"attendanceRecords"`
	Pagination model.Pagination   `json:"pagination"`
	Statistics model.Statistics   `json:"statistics"`
}

// TodayStatus tells whether the user has marked the current day.
type TodayStatus struct {
	HasMarkedToday bool              `json:"hasMarkedToday"`
	Attendance     *model.Attendance `json:"attendance"`
}

// Service coordinates daily marks and statistics.
type Service struct {
	repo  Repository
	users UserFinder
	obs   Observer
	now   func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithObserver reports mark outcomes to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.obs = o }
}

// NewService creates a service backed by a repository.
func NewService(repo Repository, users UserFinder, opts ...Option) *Service {
	s := &Service{repo: repo, users: users, obs: nopObserver{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mark records today's status for userID. A second mark on the same day fails with
// *AlreadyMarkedError carrying the first record.
func (s *Service) Mark(ctx context.Context, userID, status, notes string) (model.Attendance, error) {
	st, ok := model.ParseStatus(status)
	if !ok {
		return model.Attendance{}, apperr.New(apperr.InvalidArgument, "Valid status (Present/Absent) is required")
	}
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > model.NotesMaxLen {
		return model.Attendance{}, apperr.New(apperr.InvalidArgument,
			fmt.Sprintf("Notes cannot exceed %d characters", model.NotesMaxLen))
	}

	owner, err := s.owner(ctx, userID)
	if err != nil {
		return model.Attendance{}, err
	}

	now := s.now()
	today := model.StartOfDay(now)

	// Fast path only; the unique index below decides races.
	existing, err := s.repo.FindByDate(ctx, userID, today)
	if err != nil {
		return model.Attendance{}, fmt.Errorf("check today's attendance: %w", err)
	}
	if existing != nil {
		return model.Attendance{}, s.alreadyMarked(existing, owner)
	}

	rec := model.Attendance{
		UserID:   userID,
		Date:     today,
		Status:   st,
		MarkedAt: now,
		Notes:    notes,
	}
	if err := s.repo.Insert(ctx, &rec); err != nil {
		if !errors.Is(err, model.ErrDuplicateKey) {
			return model.Attendance{}, fmt.Errorf("insert attendance: %w", err)
		}
		winner, ferr := s.repo.FindByDate(ctx, userID, today)
		if ferr != nil {
			return model.Attendance{}, fmt.Errorf("load conflicting attendance: %w", ferr)
		}
		return model.Attendance{}, s.alreadyMarked(winner, owner)
	}

	rec.User = owner.Summary()
	s.obs.Marked(st)
	return rec, nil
}

func (s *Service) alreadyMarked(existing *model.Attendance, owner *model.User) error {
	s.obs.Conflict()
	if existing != nil {
		existing.User = owner.Summary()
	}
	return &AlreadyMarkedError{Existing: existing}
}

// List returns the caller's own history.
func (s *Service) List(ctx context.Context, userID string, page Page) (History, error) {
	owner, err := s.owner(ctx, userID)
	if err != nil {
		return History{}, err
	}
	return s.history(ctx, owner, page)
}

// ListForUser returns another user's history. Only admins may call it.
func (s *Service) ListForUser(ctx context.Context, caller *model.User, targetID string, page Page) (History, error) {
	if err := auth.Authorize(caller, model.RoleAdmin); err != nil {
		return History{}, err
	}
	target, err := s.owner(ctx, targetID)
	if err != nil {
		return History{}, err
	}
	h, err := s.history(ctx, target, page)
	if err != nil {
		return History{}, err
	}
	h.User = target
	return h, nil
}

func (s *Service) history(ctx context.Context, owner *model.User, page Page) (History, error) {
	records, err := s.repo.ListByUser(ctx, owner.ID, page.Offset(), page.Size)
	if err != nil {
		return History{}, fmt.Errorf("list attendance for %s: %w", owner.ID, err)
	}
	total, present, err := s.repo.CountByUser(ctx, owner.ID)
	if err != nil {
		return History{}, fmt.Errorf("count attendance for %s: %w", owner.ID, err)
	}

	summary := owner.Summary()
	out := make([]model.Attendance, len(records))
	for i, r := range records {
		r.User = summary
		out[i] = r
	}
	return History{
		Records:    out,
		Pagination: page.Paginate(total),
		Statistics: Summarize(total, present),
	}, nil
}

// Today reports whether userID has marked the current day. It never creates a record.
func (s *Service) Today(ctx context.Context, userID string) (TodayStatus, error) {
	owner, err := s.owner(ctx, userID)
	if err != nil {
		return TodayStatus{}, err
	}
	rec, err := s.repo.FindByDate(ctx, userID, model.StartOfDay(s.now()))
	if err != nil {
		return TodayStatus{}, fmt.Errorf("check today's attendance: %w", err)
	}
	if rec == nil {
		return TodayStatus{}, nil
	}
	rec.User = owner.Summary()
	return TodayStatus{HasMarkedToday: true, Attendance: rec}, nil
}

// Statistics returns the statistics block for userID.
func (s *Service) Statistics(ctx context.Context, userID string) (model.Statistics, error) {
	total, present, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return model.Statistics{}, fmt.Errorf("count attendance for %s: %w", userID, err)
	}
	return Summarize(total, present), nil
}

func (s *Service) owner(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	if u == nil {
		return nil, apperr.New(apperr.NotFound, "User not found")
	}
	return u, nil
}
