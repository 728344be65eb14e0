package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"attendtrack/internal/apperr"
	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/model"
)

// DefaultPageSize is the member listing page size when the client sends none.
const DefaultPageSize = 20

var errInvalidCredentials = apperr.New(apperr.Unauthorized, "Invalid credentials")

// RegisterInput is the payload of a self-service registration.
type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	// bcrypt ignores input past 72 bytes.
	Password  string `json:"password" binding:"required,min=6,max=72"`
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
	Email     string `json:"email" binding:"required,email"`
}

// Session is the result of a successful login.
type Session struct {
	Token auth.Token
	User  *model.User
}

// Member is a listed user together with their attendance statistics.
type Member struct {
	model.User
	Statistics model.Statistics `json:"statistics"`
}

// Listing is one page of the admin member listing.
type Listing struct {
	Users      []Member             `json:"users"`
	Pagination model.UserPagination `json:"pagination"`
}

// Service manages accounts and sessions.
type Service struct {
	repo     Repository
	stats    StatsSource
	tokens   *auth.Manager
	log      *zap.Logger
	hashCost int
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithClock replaces the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a user service.
func NewService(repo Repository, stats StatsSource, tokens *auth.Manager, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		stats:    stats,
		tokens:   tokens,
		log:      log,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a member account. Field constraints are declared on RegisterInput and
// enforced when the request is bound.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	u := &model.User{
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Role:      model.RoleMember,
	}
	if err := s.create(ctx, u, in.Password); err != nil {
		if errors.Is(err, model.ErrDuplicateKey) {
			return nil, apperr.New(apperr.InvalidArgument, "User already exists")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) create(ctx context.Context, u *model.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.CreatedAt = s.now().UTC()
	if err := s.repo.Create(ctx, u); err != nil {
		return fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return Session{}, fmt.Errorf("find user %s: %w", username, err)
	}
	if u == nil {
		return Session{}, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, errInvalidCredentials
	}
	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: tok, User: u}, nil
}

// FindByID resolves a user, returning nil, nil when unknown.
func (s *Service) FindByID(ctx context.Context, id string) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

// Profile returns the account of id.
func (s *Service) Profile(ctx context.Context, id string) (*model.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	if u == nil {
		return nil, apperr.New(apperr.NotFound, "User not found")
	}
	return u, nil
}

// ListMembers returns a page of non-admin users with their statistics. Only admins may call it.
func (s *Service) ListMembers(ctx context.Context, caller *model.User, page attendance.Page) (Listing, error) {
	if err := auth.Authorize(caller, model.RoleAdmin); err != nil {
		return Listing{}, err
	}
	list, err := s.repo.ListMembers(ctx, page.Offset(), page.Size)
	if err != nil {
		return Listing{}, fmt.Errorf("list members: %w", err)
	}
	total, err := s.repo.CountMembers(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("count members: %w", err)
	}

	members := make([]Member, len(list))
	for i, u := range list {
		stats, err := s.stats.Statistics(ctx, u.ID)
		if err != nil {
			return Listing{}, err
		}
		members[i] = Member{User: u, Statistics: stats}
	}
	return Listing{
		Users: members,
		Pagination: model.UserPagination{
			CurrentPage: page.Number,
			TotalPages:  page.TotalPages(total),
			TotalUsers:  total,
		},
	}, nil
}

// EnsureAdmin creates the bootstrap administrator unless the username is already taken.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, email string) error {
	if username == "" || password == "" {
		return nil
	}
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("find admin %s: %w", username, err)
	}
	if existing != nil {
		if existing.Role != model.RoleAdmin {
			s.log.Warn("bootstrap admin username belongs to a member account", zap.String("username", username))
		}
		return nil
	}

	u := &model.User{
		Username:  username,
		FirstName: "System",
		LastName:  "Administrator",
		Email:     email,
		Role:      model.RoleAdmin,
	}
	if err := s.create(ctx, u, password); err != nil {
		// Another instance created it first.
		if errors.Is(err, model.ErrDuplicateKey) {
			return nil
		}
		return err
	}
	s.log.Info("created bootstrap admin", zap.String("username", username), zap.String("id", u.ID))
	return nil
}
