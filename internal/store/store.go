// Package store opens the configured persistence backend and exposes its repositories.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"attendtrack/internal/attendance"
	"attendtrack/internal/config"
	"attendtrack/internal/users"
)

// Store bundles the repositories of one backend.
type Store struct {
	Backend    string
	Users      users.Repository
	Attendance attendance.Repository

	ping  func(context.Context) error
	close func(context.Context) error
}

// Open connects to the backend selected by cfg.StoreBackend and prepares its schema.
func Open(ctx context.Context, cfg config.App, log *zap.Logger) (*Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := Migrate(db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Store{
			Backend:    cfg.StoreBackend,
			Users:      NewPostgresUsers(db),
			Attendance: NewPostgresAttendance(db),
			ping:       db.Ping,
			close:      func(context.Context) error { return db.Close() },
		}, nil

	case config.BackendMongo:
		m, err := NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureIndexes(ctx); err != nil {
			_ = m.Close(ctx)
			return nil, err
		}
		return &Store{
			Backend:    cfg.StoreBackend,
			Users:      NewMongoUsers(m),
			Attendance: NewMongoAttendance(m),
			ping:       m.Ping,
			close:      m.Close,
		}, nil

	case config.BackendSQLite:
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(s), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// NewSQLiteStore wraps an open SQLite database.
func NewSQLiteStore(s *SQLite) *Store {
	return &Store{
		Backend:    config.BackendSQLite,
		Users:      NewSQLiteUsers(s),
		Attendance: NewSQLiteAttendance(s),
		ping:       s.Ping,
		close:      func(context.Context) error { return s.Close() },
	}
}

// Ping reports whether the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend connections.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}
