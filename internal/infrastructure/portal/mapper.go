package portal

import (
	"errors"

	"github.com/campus-hub/campus-helper/internal/domain/schedule"
	"github.com/tidwall/gjson"
)

// ══════════════════════════════════════════════════════════════════════════════
// PAYLOAD MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// The portal answers with loosely structured JSON; list payloads carry their
// rows under "data.rows". Rows are probed field by field so one odd row never
// fails a whole payload.

// ErrEmptyPayload is returned when a response was obtained but carries no
// usable data — distinct from a payload with zero rows, which is a
// legitimate empty result.
var ErrEmptyPayload = errors.New("portal: empty payload")

const rowsPath = "data.rows"

// rows extracts the row array, distinguishing "no usable payload" from a
// present-but-empty array.
func rows(body []byte) ([]gjson.Result, error) {
	if len(body) == 0 {
		return nil, ErrEmptyPayload
	}
	field := gjson.GetBytes(body, rowsPath)
	if !field.Exists() || !field.IsArray() {
		return nil, ErrEmptyPayload
	}
	return field.Array(), nil
}

// mapCourses maps a schedule payload into domain courses. Rows whose slot
// descriptor cannot be expanded keep an empty week set rather than dropping
// the row; the schedule still renders the course.
func mapCourses(body []byte) ([]schedule.Course, error) {
	rs, err := rows(body)
	if err != nil {
		return nil, err
	}

	courses := make([]schedule.Course, 0, len(rs))
	for _, r := range rs {
		c := schedule.Course{
			CourseName:  r.Get("courseName").String(),
			TeacherName: r.Get("teacherName").String(),
			ClassName:   r.Get("className").String(),
			Classroom:   r.Get("classroom").String(),
			TimePlace:   r.Get("timePlace").String(),
			WeekDay:     int(r.Get("weekDay").Int()),
			StartNode:   int(r.Get("startNode").Int()),
			EndNode:     int(r.Get("endNode").Int()),
		}
		if spec := r.Get("weekSpec").String(); spec != "" {
			if weeks, err := schedule.ExpandWeeks(spec); err == nil {
				c.Weeks = weeks
			}
		}
		courses = append(courses, c)
	}
	return courses, nil
}

// mapCalendar maps an academic-calendar payload.
func mapCalendar(body []byte) ([]schedule.CalendarRow, error) {
	rs, err := rows(body)
	if err != nil {
		return nil, err
	}

	calendar := make([]schedule.CalendarRow, 0, len(rs))
	for _, r := range rs {
		calendar = append(calendar, schedule.CalendarRow{
			YearAndMonth: r.Get("yearAndMonth").String(),
			Monday:       r.Get("monday").String(),
			Tuesday:      r.Get("tuesday").String(),
			Wednesday:    r.Get("wednesday").String(),
			Thursday:     r.Get("thursday").String(),
			Friday:       r.Get("friday").String(),
			Saturday:     r.Get("saturday").String(),
			Sunday:       r.Get("sunday").String(),
		})
	}
	return calendar, nil
}

// mapClassrooms maps an empty-classroom payload.
func mapClassrooms(body []byte) ([]schedule.Classroom, error) {
	rs, err := rows(body)
	if err != nil {
		return nil, err
	}

	classrooms := make([]schedule.Classroom, 0, len(rs))
	for _, r := range rs {
		classrooms = append(classrooms, schedule.Classroom{
			RoomName:     schedule.RoomName(r.Get("roomName").String()),
			BuildingName: r.Get("buildingName").String(),
			Capacity:     int(r.Get("capacity").Int()),
		})
	}
	return classrooms, nil
}

// mapNotes maps a schedule-notes payload.
func mapNotes(body []byte) ([]schedule.Note, error) {
	rs, err := rows(body)
	if err != nil {
		return nil, err
	}

	notes := make([]schedule.Note, 0, len(rs))
	for _, r := range rs {
		notes = append(notes, schedule.Note{
			Title:   r.Get("title").String(),
			Content: r.Get("content").String(),
		})
	}
	return notes, nil
}

// mapPlannedCourses maps a planned-schedule payload.
func mapPlannedCourses(body []byte) ([]schedule.PlannedCourse, error) {
	rs, err := rows(body)
	if err != nil {
		return nil, err
	}

	planned := make([]schedule.PlannedCourse, 0, len(rs))
	for _, r := range rs {
		planned = append(planned, schedule.PlannedCourse{
			CourseName: r.Get("courseName").String(),
			Semester:   r.Get("semester").String(),
			Credits:    r.Get("credits").String(),
			Department: r.Get("department").String(),
		})
	}
	return planned, nil
}
