// internal/analytics/dates.go
package analytics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/revsplit/internal/domain"
)

// ResolveDayMonth turns a "d.m" string into the most recent date with that
// day and month that is not after now.
func ResolveDayMonth(s string, now time.Time) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("date %q: expected day.month", s)
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date %q: invalid day", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("date %q: invalid month", s)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	d := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
	if d.After(today) {
		d = d.AddDate(-1, 0, 0)
	}
	return d, nil
}

// dateWindow is a compiled DateFilter.
type dateWindow struct {
	start, end time.Time
	hasStart   bool
	hasEnd     bool
	now        time.Time
}

func compileFilter(f domain.DateFilter, now time.Time) (*dateWindow, error) {
	if f.IsZero() {
		return nil, nil
	}
	w := &dateWindow{now: now}
	if f.Start != "" {
		t, err := ResolveDayMonth(f.Start, now)
		if err != nil {
			return nil, fmt.Errorf("%w: start: %v", domain.ErrInvalidDateFilter, err)
		}
		w.start, w.hasStart = t, true
	}
	if f.End != "" {
		t, err := ResolveDayMonth(f.End, now)
		if err != nil {
			return nil, fmt.Errorf("%w: end: %v", domain.ErrInvalidDateFilter, err)
		}
		w.end, w.hasEnd = t, true
	}
	return w, nil
}

func (w *dateWindow) contains(date string) bool {
	t, err := ResolveDayMonth(date, w.now)
	if err != nil {
		return false
	}
	if w.hasStart && t.Before(w.start) {
		return false
	}
	if w.hasEnd && t.After(w.end) {
		return false
	}
	return true
}

// resolved returns the window as a filter on calendar dates.
func (w *dateWindow) resolved() domain.DateFilter {
	var f domain.DateFilter
	if w == nil {
		return f
	}
	if w.hasStart {
		f.Start = w.start.Format(time.DateOnly)
	}
	if w.hasEnd {
		f.End = w.end.Format(time.DateOnly)
	}
	return f
}

// matches reports whether any item falls inside the window. A nil window
// matches everything.
func (w *dateWindow) matches(items []domain.OrderLineItem) bool {
	if w == nil {
		return true
	}
	for _, item := range items {
		if w.contains(item.Date) {
			return true
		}
	}
	return false
}
