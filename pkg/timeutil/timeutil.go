// Package timeutil provides timezone and class-period utilities for the
// campus portal, which reports every date in China Standard Time (UTC+8).
// Handles semester week arithmetic and the fixed 10-period class day.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// CampusTZ is the campus timezone (UTC+8, no DST).
// China abolished DST in 1991, so this is constant year-round.
var CampusTZ = time.FixedZone("Asia/Shanghai", 8*60*60)

// Now returns the current time in campus timezone.
func Now() time.Time {
	return time.Now().In(CampusTZ)
}

// ToCampus converts a time to campus timezone.
func ToCampus(t time.Time) time.Time {
	return t.In(CampusTZ)
}

// Date creates a time in campus timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, CampusTZ)
}

// StartOfDay returns the start of the day (00:00:00) in campus timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToCampus(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, CampusTZ)
}

// DayOfWeek returns the ISO day of week for t (Monday = 1, Sunday = 7).
func DayOfWeek(t time.Time) int {
	wd := int(ToCampus(t).Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// WeekCount returns the 1-based count of 7-day periods between the semester
// start date and now. A "now" before the start date yields 0, which callers
// must treat as out of range rather than display.
func WeekCount(start, now time.Time) int {
	days := int(StartOfDay(now).Sub(StartOfDay(start)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days/7 + 1
}

// NodeEnds lists the end time of each class period ("node") as HH:mm,
// indexed by node number - 1. The campus runs 10 periods per day.
var NodeEnds = []string{
	"09:05", "09:55", "11:00", "11:50",
	"14:45", "15:35", "16:40", "17:30",
	"19:25", "20:15",
}

// NodeCount is the number of class periods per day.
const NodeCount = 10

// nodeDuration is the length of one class period.
const nodeDuration = 45 * time.Minute

// NodeEnd returns the end time of the given node (1-based) on the given day.
func NodeEnd(day time.Time, node int) time.Time {
	if node < 1 || node > NodeCount {
		return time.Time{}
	}
	hm, _ := time.Parse("15:04", NodeEnds[node-1])
	d := StartOfDay(day)
	return d.Add(time.Duration(hm.Hour())*time.Hour + time.Duration(hm.Minute())*time.Minute)
}

// NodeStart returns the start time of the given node (1-based) on the given
// day. Every period lasts 45 minutes.
func NodeStart(day time.Time, node int) time.Time {
	end := NodeEnd(day, node)
	if end.IsZero() {
		return end
	}
	return end.Add(-nodeDuration)
}

// CurrentNode returns the class period in progress or about to start at the
// given time, for highlighting "you are here" in schedule output. Returns 1
// before the first period ends and NodeCount after the last one.
func CurrentNode(t time.Time) int {
	local := ToCampus(t)
	for i := 1; i <= NodeCount; i++ {
		if local.Before(NodeEnd(local, i)) {
			return i
		}
	}
	return NodeCount
}
