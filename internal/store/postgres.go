package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"attendtrack/internal/model"
)

const pgUniqueViolation = "23505"

func pgDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, model.ErrDuplicateKey)
	}
	return err
}

// validUUID reports whether id can be compared against a UUID column.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// PostgresUsers persists users in Postgres.
type PostgresUsers struct {
	db *sql.DB
}

// NewPostgresUsers creates a repo.
func NewPostgresUsers(db *DB) *PostgresUsers {
	return &PostgresUsers{db: db.Client}
}

const userColumns = `id, username, password_hash, first_name, last_name, email, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Email, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// Create inserts u, assigning its ID.
func (r *PostgresUsers) Create(ctx context.Context, u *model.User) error {
	id := uuid.NewString()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Email, string(u.Role), u.CreatedAt)
	if err != nil {
		return pgDuplicate(err)
	}
	u.ID = id
	return nil
}

func (r *PostgresUsers) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// FindByID returns nil, nil for unknown or malformed ids.
func (r *PostgresUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	if !validUUID(id) {
		return nil, nil
	}
	return r.findOne(ctx, "id = $1", id)
}

// FindByUsername returns nil, nil when no user has that name.
func (r *PostgresUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "username = $1", username)
}

// ListMembers lists non-admin users, newest first.
func (r *PostgresUsers) ListMembers(ctx context.Context, offset, limit int) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role <> 'admin'
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// CountMembers counts non-admin users.
func (r *PostgresUsers) CountMembers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role <> 'admin'`).Scan(&n)
	return n, err
}

// PostgresAttendance persists attendance records in Postgres.
type PostgresAttendance struct {
	db *sql.DB
}

// NewPostgresAttendance creates a repo.
func NewPostgresAttendance(db *DB) *PostgresAttendance {
	return &PostgresAttendance{db: db.Client}
}

const attendanceColumns = `id, user_id, attendance_date, status, marked_at, notes, created_at`

func scanAttendance(row interface{ Scan(...any) error }) (*model.Attendance, error) {
	var a model.Attendance
	var status string
	if err := row.Scan(&a.ID, &a.UserID, &a.Date, &status, &a.MarkedAt, &a.Notes, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Status = model.Status(status)
	return &a, nil
}

// Insert writes rec. The (user_id, attendance_date) constraint rejects a second mark.
func (r *PostgresAttendance) Insert(ctx context.Context, rec *model.Attendance) error {
	id := uuid.NewString()
	created := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (`+attendanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, rec.UserID, rec.Date, string(rec.Status), rec.MarkedAt, rec.Notes, created)
	if err != nil {
		return pgDuplicate(err)
	}
	rec.ID = id
	rec.CreatedAt = created
	return nil
}

// FindByDate returns the user's record for date, or nil, nil.
func (r *PostgresAttendance) FindByDate(ctx context.Context, userID string, date time.Time) (*model.Attendance, error) {
	if !validUUID(userID) {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE user_id = $1 AND attendance_date = $2
	`, userID, date)
	a, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListByUser lists a user's records, most recent day first.
func (r *PostgresAttendance) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Attendance, error) {
	if !validUUID(userID) {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE user_id = $1
		ORDER BY attendance_date DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CountByUser returns total and present record counts in one pass.
func (r *PostgresAttendance) CountByUser(ctx context.Context, userID string) (int64, int64, error) {
	if !validUUID(userID) {
		return 0, 0, nil
	}
	var total, present int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'Present')
		FROM attendance
		WHERE user_id = $1
	`, userID).Scan(&total, &present)
	return total, present, err
}
