package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"attendtrack/internal/model"
)

// memRepo enforces (userID, date) uniqueness the way a storage index would.
type memRepo struct {
	mu      sync.Mutex
	records []model.Attendance
	seq     int
	// hidePreCheck makes FindByDate miss until the first insert conflict,
	// simulating the losing side of a race.
	hidePreCheck bool
	conflicts    int
	failInsert   error
}

func newMemRepo() *memRepo { return &memRepo{} }

func (m *memRepo) Insert(_ context.Context, rec *model.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert != nil {
		return m.failInsert
	}
	for _, r := range m.records {
		if r.UserID == rec.UserID && r.Date.Equal(rec.Date) {
			m.conflicts++
			return fmt.Errorf("insert: %w", model.ErrDuplicateKey)
		}
	}
	m.seq++
	rec.ID = fmt.Sprintf("att-%d", m.seq)
	rec.CreatedAt = rec.MarkedAt
	m.records = append(m.records, *rec)
	return nil
}

func (m *memRepo) FindByDate(_ context.Context, userID string, date time.Time) (*model.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hidePreCheck && m.conflicts == 0 {
		return nil, nil
	}
	for _, r := range m.records {
		if r.UserID == userID && r.Date.Equal(date) {
			out := r
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []model.Attendance
	for _, r := range m.records {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].Date.After(mine[j].Date) })
	if offset >= len(mine) {
		return nil, nil
	}
	end := offset + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], nil
}

func (m *memRepo) CountByUser(_ context.Context, userID string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total, present int64
	for _, r := range m.records {
		if r.UserID != userID {
			continue
		}
		total++
		if r.Status == model.StatusPresent {
			present++
		}
	}
	return total, present, nil
}

func (m *memRepo) seed(userID string, date time.Time, status model.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.records = append(m.records, model.Attendance{
		ID: fmt.Sprintf("att-%d", m.seq), UserID: userID, Date: model.StartOfDay(date),
		Status: status, MarkedAt: date, CreatedAt: date,
	})
}

type memUsers map[string]*model.User

func (m memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	if id == "explode" {
		return nil, errors.New("users table unavailable")
	}
	return m[id], nil
}

type countingObserver struct {
	mu        sync.Mutex
	marked    map[model.Status]int
	conflicts int
}

func (o *countingObserver) Marked(s model.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.marked == nil {
		o.marked = map[model.Status]int{}
	}
	o.marked[s]++
}

func (o *countingObserver) Conflict() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts++
}
