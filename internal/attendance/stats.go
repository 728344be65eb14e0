package attendance

import (
	"math"

	"attendtrack/internal/model"
)

// Page size bounds for history listings.
const (
	DefaultPageSize = 30
	MaxPageSize     = 100
)

// Summarize derives the statistics block from raw counts.
func Summarize(total, present int64) model.Statistics {
	stats := model.Statistics{
		TotalDays:   total,
		PresentDays: present,
		AbsentDays:  total - present,
	}
	if total > 0 {
		stats.AttendancePercentage = round1(float64(present) / float64(total) * 100)
	}
	return stats
}

// Compute derives the statistics block from an in-memory record set.
func Compute(records []model.Attendance) model.Statistics {
	var present int64
	for _, r := range records {
		if r.Status == model.StatusPresent {
			present++
		}
	}
	return Summarize(int64(len(records)), present)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Page is a 1-based offset/limit window.
type Page struct {
	Number int
	Size   int
}

// NewPage normalizes a page request: numbers below 1 become the first page, sizes below 1
// the default and sizes above MaxPageSize are clamped.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of records skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages is ceil(total/size).
func (p Page) TotalPages(total int64) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// Paginate builds the pagination block for a listing with total matching records.
func (p Page) Paginate(total int64) model.Pagination {
	return model.Pagination{
		CurrentPage:  p.Number,
		TotalPages:   p.TotalPages(total),
		TotalRecords: total,
	}
}
