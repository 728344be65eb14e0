package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendtrack/internal/attendance"
	"attendtrack/internal/model"
	"attendtrack/internal/users"
)

// testUsersRepo exercises behaviour every users.Repository must share.
func testUsersRepo(t *testing.T, repo users.Repository) {
	t.Helper()
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	admin := &model.User{Username: "admin-" + suffix, PasswordHash: "h", FirstName: "A", LastName: "D", Role: model.RoleAdmin, CreatedAt: base}
	require.NoError(t, repo.Create(ctx, admin))
	require.NotEmpty(t, admin.ID)

	var members []*model.User
	for i := 0; i < 3; i++ {
		u := &model.User{
			Username:     fmt.Sprintf("member%d-%s", i, suffix),
			PasswordHash: "h",
			FirstName:    "M",
			LastName:     fmt.Sprint(i),
			Email:        fmt.Sprintf("m%d@example.com", i),
			Role:         model.RoleMember,
			CreatedAt:    base.Add(time.Duration(i+1) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, u))
		members = append(members, u)
	}

	dup := &model.User{Username: members[0].Username, PasswordHash: "h", FirstName: "X", LastName: "Y", Role: model.RoleMember}
	err := repo.Create(ctx, dup)
	assert.True(t, errors.Is(err, model.ErrDuplicateKey), "got %v", err)

	got, err := repo.FindByID(ctx, members[1].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, members[1].Username, got.Username)
	assert.Equal(t, model.RoleMember, got.Role)
	assert.Equal(t, "m1@example.com", got.Email)

	got, err = repo.FindByUsername(ctx, admin.Username)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, admin.ID, got.ID)

	got, err = repo.FindByID(ctx, "not-an-id")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = repo.FindByUsername(ctx, "nobody-"+suffix)
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := repo.CountMembers(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(3))

	list, err := repo.ListMembers(ctx, 0, 100)
	require.NoError(t, err)
	var order []string
	for _, u := range list {
		assert.NotEqual(t, model.RoleAdmin, u.Role)
		for _, m := range members {
			if u.ID == m.ID {
				order = append(order, u.Username)
			}
		}
	}
	assert.Equal(t, []string{members[2].Username, members[1].Username, members[0].Username}, order)
}

// testAttendanceRepo exercises behaviour every attendance.Repository must share.
func testAttendanceRepo(t *testing.T, usersRepo users.Repository, repo attendance.Repository) {
	t.Helper()
	ctx := context.Background()

	owner := &model.User{
		Username:     fmt.Sprintf("owner-%d", time.Now().UnixNano()),
		PasswordHash: "h", FirstName: "O", LastName: "W", Role: model.RoleMember,
	}
	require.NoError(t, usersRepo.Create(ctx, owner))

	today := model.StartOfDay(time.Now())
	statuses := []model.Status{model.StatusPresent, model.StatusPresent, model.StatusAbsent, model.StatusPresent}
	for i, st := range statuses {
		day := today.AddDate(0, 0, -i)
		rec := &model.Attendance{UserID: owner.ID, Date: day, Status: st, MarkedAt: day.Add(9 * time.Hour), Notes: "n"}
		require.NoError(t, repo.Insert(ctx, rec))
		assert.NotEmpty(t, rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
	}

	again := &model.Attendance{UserID: owner.ID, Date: today, Status: model.StatusAbsent, MarkedAt: time.Now()}
	err := repo.Insert(ctx, again)
	assert.True(t, errors.Is(err, model.ErrDuplicateKey), "got %v", err)

	found, err := repo.FindByDate(ctx, owner.ID, today)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.StatusPresent, found.Status)
	assert.True(t, found.Date.Equal(today))
	assert.Equal(t, owner.ID, found.UserID)

	missing, err := repo.FindByDate(ctx, owner.ID, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, missing)

	page, err := repo.ListByUser(ctx, owner.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].Date.Equal(today.AddDate(0, 0, -1)))
	assert.True(t, page[1].Date.Equal(today.AddDate(0, 0, -2)))
	assert.Equal(t, model.StatusAbsent, page[1].Status)

	empty, err := repo.ListByUser(ctx, owner.ID, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)

	total, present, err := repo.CountByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, int64(3), present)

	idle := &model.User{
		Username:     fmt.Sprintf("idle-%d", time.Now().UnixNano()),
		PasswordHash: "h", FirstName: "I", LastName: "D", Role: model.RoleMember,
	}
	require.NoError(t, usersRepo.Create(ctx, idle))
	total, present, err = repo.CountByUser(ctx, idle.ID)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, present)
}

// testConcurrentInsert races inserts for one (user, day) and expects a single winner.
func testConcurrentInsert(t *testing.T, usersRepo users.Repository, repo attendance.Repository) {
	t.Helper()
	ctx := context.Background()
	owner := &model.User{
		Username:     fmt.Sprintf("racer-%d", time.Now().UnixNano()),
		PasswordHash: "h", FirstName: "R", LastName: "C", Role: model.RoleMember,
	}
	require.NoError(t, usersRepo.Create(ctx, owner))
	today := model.StartOfDay(time.Now())

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		dups int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Insert(ctx, &model.Attendance{UserID: owner.ID, Date: today, Status: model.StatusPresent, MarkedAt: time.Now()})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, model.ErrDuplicateKey):
				dups++
			default:
				t.Errorf("unexpected insert error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, dups)
	total, _, err := repo.CountByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
