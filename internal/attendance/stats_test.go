package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"attendtrack/internal/model"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name           string
		total, present int64
		want           model.Statistics
	}{
		{"no records", 0, 0, model.Statistics{}},
		{"three of four", 4, 3, model.Statistics{TotalDays: 4, PresentDays: 3, AbsentDays: 1, AttendancePercentage: 75.0}},
		{"two of three rounds up", 3, 2, model.Statistics{TotalDays: 3, PresentDays: 2, AbsentDays: 1, AttendancePercentage: 66.7}},
		{"one of three rounds down", 3, 1, model.Statistics{TotalDays: 3, PresentDays: 1, AbsentDays: 2, AttendancePercentage: 33.3}},
		{"all absent", 5, 0, model.Statistics{TotalDays: 5, AbsentDays: 5}},
		{"all present", 7, 7, model.Statistics{TotalDays: 7, PresentDays: 7, AttendancePercentage: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.total, tt.present)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.TotalDays, got.PresentDays+got.AbsentDays)
		})
	}
}

func TestComputeOverRecordSet(t *testing.T) {
	records := []model.Attendance{
		{Status: model.StatusPresent},
		{Status: model.StatusAbsent},
		{Status: model.StatusPresent},
		{Status: model.StatusPresent},
	}

	got := Compute(records)

	assert.Equal(t, model.Statistics{TotalDays: 4, PresentDays: 3, AbsentDays: 1, AttendancePercentage: 75.0}, got)
	assert.Equal(t, model.Statistics{}, Compute(nil))
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Number: 3, Size: 10}, NewPage(3, 10))
	assert.Equal(t, Page{Number: 1, Size: MaxPageSize}, NewPage(1, 5000))
	assert.Equal(t, Page{Number: 1, Size: 10}, NewPage(0, 10))
	assert.Equal(t, Page{Number: 2, Size: DefaultPageSize}, NewPage(2, 0))
	assert.Equal(t, 20, NewPage(3, 10).Offset())
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		size  int
		total int64
		pages int
	}{
		{30, 0, 0},
		{30, 1, 1},
		{30, 30, 1},
		{30, 31, 2},
		{7, 50, 8},
	}
	for _, tt := range tests {
		p := Page{Number: 2, Size: tt.size}
		got := p.Paginate(tt.total)
		assert.Equal(t, model.Pagination{CurrentPage: 2, TotalPages: tt.pages, TotalRecords: tt.total}, got)
	}
}
