package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/campus-hub/campus-helper/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMIC CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

// CalendarRow is one row of the portal's academic calendar for a semester.
// Each weekday field holds the day-of-month as text when the first teaching
// week includes that weekday, or is empty when it does not.
type CalendarRow struct {
	// YearAndMonth is the year-month anchor of the row, e.g. "2023-09".
	YearAndMonth string

	// Monday .. Sunday are day-of-month anchors, empty when absent.
	Monday    string
	Tuesday   string
	Wednesday string
	Thursday  string
	Friday    string
	Saturday  string
	Sunday    string
}

// MaxScheduleWeeks is the largest week number the portal renders. Teaching
// weeks beyond this do not exist on campus.
const MaxScheduleWeeks = 20

// Calendar errors.
var (
	ErrNoWeekdayAnchor = errors.New("schedule: calendar row has no weekday anchor")
	ErrWeekOutOfRange  = errors.New("schedule: current week out of range")
)

// StartDate derives the semester start date from the calendar row: the first
// non-empty weekday anchor, checked in fixed order Monday through Sunday,
// combined with the row's year-month field.
func (r CalendarRow) StartDate() (time.Time, error) {
	for _, day := range []string{
		r.Monday, r.Tuesday, r.Wednesday, r.Thursday,
		r.Friday, r.Saturday, r.Sunday,
	} {
		if day == "" {
			continue
		}
		padded := day
		if len(padded) < 2 {
			padded = "0" + padded
		}
		t, err := time.ParseInLocation("2006-01-02", r.YearAndMonth+"-"+padded, timeutil.CampusTZ)
		if err != nil {
			return time.Time{}, fmt.Errorf("schedule: parse calendar start date: %w", err)
		}
		return t, nil
	}
	return time.Time{}, ErrNoWeekdayAnchor
}

// CurrentWeek computes the 1-based teaching week containing "now" for a
// semester starting at start. A "now" before the start date or beyond
// MaxScheduleWeeks is surfaced as ErrWeekOutOfRange, never clamped to a
// plausible-looking number.
func CurrentWeek(start, now time.Time) (int, error) {
	week := timeutil.WeekCount(start, now)
	if week < 1 || week > MaxScheduleWeeks {
		return 0, fmt.Errorf("%w: %d", ErrWeekOutOfRange, week)
	}
	return week, nil
}
