// Package schedule contains the domain model for the campus timetable.
// This is the core of the business logic - no external dependencies here.
package schedule

import (
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// RoomName identifies a classroom, e.g. "教学楼A-101". The text before the
// first "-" is the building name.
type RoomName string

// Building returns the building prefix of the room name, i.e. the text before
// the first "-". A room without a dash is its own building.
func (r RoomName) Building() string {
	s := string(r)
	if idx := strings.Index(s, "-"); idx >= 0 {
		return s[:idx]
	}
	return s
}

// String returns the room name as a plain string.
func (r RoomName) String() string {
	return string(r)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Course is one scheduled class occurrence in a semester timetable: what is
// taught, by whom, to which class group, where, and when. The TimePlace field
// carries the portal's compact weekly-occurrence descriptor, one line per
// distinct (weeks, day, periods, room) combination.
type Course struct {
	// CourseName is the display name of the course.
	CourseName string

	// TeacherName is the lecturer's display name.
	TeacherName string

	// ClassName is the class group attending, e.g. "计算机2101".
	ClassName string

	// Classroom is the raw room field. A course held in several rooms at
	// once lists them comma separated ("教学楼A-101, 教学楼A-102").
	Classroom string

	// TimePlace is the compact descriptor, newline separated lines of the
	// form "周1-16 周三 3-4小节 教学楼A-101".
	TimePlace string

	// WeekDay is the day of week of this occurrence (1 Monday .. 7 Sunday).
	WeekDay int

	// StartNode and EndNode bound the period range of this occurrence.
	StartNode int
	EndNode   int

	// Weeks is the expanded set of week numbers the occurrence covers.
	Weeks []int
}

// Rooms splits the raw classroom field into individual room names.
func (c Course) Rooms() []RoomName {
	parts := strings.Split(c.Classroom, ", ")
	rooms := make([]RoomName, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			rooms = append(rooms, RoomName(p))
		}
	}
	return rooms
}

// IsMultiRoom reports whether the course lists more than one room. Only
// multi-room courses are worth decomposing into per-room occupancy records;
// a single room carries no ambiguity.
func (c Course) IsMultiRoom() bool {
	return len(c.Rooms()) > 1
}

// OccursIn reports whether the course meets in the given week.
func (c Course) OccursIn(week int) bool {
	for _, w := range c.Weeks {
		if w == week {
			return true
		}
	}
	return false
}

// PlannedCourse is a course the student is scheduled to take in a future
// semester. The portal plans these centrally, so only identity fields exist.
type PlannedCourse struct {
	// CourseName is the display name of the planned course.
	CourseName string

	// Semester is the identifier of the semester it is planned for.
	Semester string

	// Credits is the credit value as reported by the portal.
	Credits string

	// Department is the offering department.
	Department string
}

// Note is one schedule annotation the portal attaches to a semester, such as
// an exam-week remark or a make-up class notice.
type Note struct {
	// Title is the short heading of the note.
	Title string

	// Content is the note body.
	Content string
}

// Classroom is one room returned by the empty-classroom query.
type Classroom struct {
	// RoomName is the full room name.
	RoomName RoomName

	// BuildingName is the building as reported by the portal; when absent
	// it is derived from the room name prefix.
	BuildingName string

	// Capacity is the seat count, 0 when the portal omits it.
	Capacity int
}

// Building returns the building name, falling back to the room name prefix.
func (c Classroom) Building() string {
	if c.BuildingName != "" {
		return c.BuildingName
	}
	return c.RoomName.Building()
}
