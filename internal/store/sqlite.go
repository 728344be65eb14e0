package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"attendtrack/internal/model"
)

type userRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	FirstName    string    `gorm:"not null"`
	LastName     string    `gorm:"not null"`
	Email        string    `gorm:"not null;default:''"`
	Role         string    `gorm:"index:idx_users_role_created;not null"`
	CreatedAt    time.Time `gorm:"index:idx_users_role_created;not null"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) toModel() model.User {
	return model.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Role:         model.Role(r.Role),
		CreatedAt:    r.CreatedAt,
	}
}

type attendanceRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"uniqueIndex:uq_attendance_user_date;not null"`
	Date      time.Time `gorm:"column:attendance_date;uniqueIndex:uq_attendance_user_date;not null"`
	Status    string    `gorm:"not null"`
	MarkedAt  time.Time `gorm:"not null"`
	Notes     string    `gorm:"size:200;not null;default:''"`
	CreatedAt time.Time `gorm:"not null"`
}

func (attendanceRow) TableName() string { return "attendance" }

func (r attendanceRow) toModel() model.Attendance {
	return model.Attendance{
		ID:        r.ID,
		UserID:    r.UserID,
		Date:      r.Date.Local(),
		Status:    model.Status(r.Status),
		MarkedAt:  r.MarkedAt.Local(),
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
	}
}

// SQLite is an embedded gorm database.
type SQLite struct {
	DB *gorm.DB
}

// OpenSQLite opens the database at dsn and creates the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userRow{}, &attendanceRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{DB: db}, nil
}

// Ping checks the database handle.
func (s *SQLite) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sqliteDuplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%v: %w", err, model.ErrDuplicateKey)
	}
	return err
}

// SQLiteUsers persists users with gorm.
type SQLiteUsers struct {
	db *gorm.DB
}

// NewSQLiteUsers creates a repo.
func NewSQLiteUsers(s *SQLite) *SQLiteUsers {
	return &SQLiteUsers{db: s.DB}
}

// Create inserts u, assigning its ID.
func (r *SQLiteUsers) Create(ctx context.Context, u *model.User) error {
	row := userRow{
		ID:           uuid.NewString(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return sqliteDuplicate(err)
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	return nil
}

func (r *SQLiteUsers) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).Where(query, arg).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	u := row.toModel()
	return &u, nil
}

// FindByID returns nil, nil for unknown ids.
func (r *SQLiteUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUsername returns nil, nil when no user has that name.
func (r *SQLiteUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// ListMembers lists non-admin users, newest first.
func (r *SQLiteUsers) ListMembers(ctx context.Context, offset, limit int) ([]model.User, error) {
	var rows []userRow
	err := r.db.WithContext(ctx).
		Where("role <> ?", string(model.RoleAdmin)).
		Order("created_at DESC").Order("id").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.User, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out, nil
}

// CountMembers counts non-admin users.
func (r *SQLiteUsers) CountMembers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userRow{}).Where("role <> ?", string(model.RoleAdmin)).Count(&n).Error
	return n, err
}

// SQLiteAttendance persists attendance records with gorm. Times are stored in UTC so
// equality on the day column is stable regardless of the server zone.
type SQLiteAttendance struct {
	db *gorm.DB
}

// NewSQLiteAttendance creates a repo.
func NewSQLiteAttendance(s *SQLite) *SQLiteAttendance {
	return &SQLiteAttendance{db: s.DB}
}

// Insert writes rec. The unique (user_id, attendance_date) index rejects a second mark.
func (r *SQLiteAttendance) Insert(ctx context.Context, rec *model.Attendance) error {
	row := attendanceRow{
		ID:        uuid.NewString(),
		UserID:    rec.UserID,
		Date:      rec.Date.UTC(),
		Status:    string(rec.Status),
		MarkedAt:  rec.MarkedAt.UTC(),
		Notes:     rec.Notes,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return sqliteDuplicate(err)
	}
	rec.ID = row.ID
	rec.CreatedAt = row.CreatedAt
	return nil
}

// FindByDate returns the user's record for date, or nil, nil.
func (r *SQLiteAttendance) FindByDate(ctx context.Context, userID string, date time.Time) (*model.Attendance, error) {
	var row attendanceRow
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND attendance_date = ?", userID, date.UTC()).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	a := row.toModel()
	return &a, nil
}

// ListByUser lists a user's records, most recent day first.
func (r *SQLiteAttendance) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Attendance, error) {
	var rows []attendanceRow
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("attendance_date DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Attendance, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out, nil
}

// CountByUser returns total and present record counts.
func (r *SQLiteAttendance) CountByUser(ctx context.Context, userID string) (int64, int64, error) {
	var counts struct {
		Total   int64
		Present int64
	}
	err := r.db.WithContext(ctx).Model(&attendanceRow{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS present", string(model.StatusPresent)).
		Where("user_id = ?", userID).
		Scan(&counts).Error
	if err != nil {
		return 0, 0, err
	}
	return counts.Total, counts.Present, nil
}
