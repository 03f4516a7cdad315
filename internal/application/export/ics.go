// Package export renders a loaded timetable as an iCalendar document, so the
// schedule can be imported into any calendar application.
package export

import (
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/campus-hub/campus-helper/internal/domain/schedule"
	"github.com/campus-hub/campus-helper/pkg/timeutil"
	"github.com/google/uuid"
)

// ErrNoStartDate is returned when the semester start date is unknown; without
// it week numbers cannot be anchored to real dates.
var ErrNoStartDate = errors.New("export: semester start date unknown")

const productID = "-//campus-helper//schedule//CN"

// Calendar converts the course list into an iCalendar document. Each course
// contributes one event per occurrence week, anchored to the semester start
// date: week w day d covers the date start + (w-1)*7 + (d-1) days, with event
// times taken from the fixed class-period table. Courses whose day or period
// fall outside the fixed tables are skipped, never aborting the export.
func Calendar(courses []schedule.Course, semesterStart time.Time) (string, error) {
	if semesterStart.IsZero() {
		return "", ErrNoStartDate
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	now := timeutil.Now()
	for _, course := range courses {
		if course.WeekDay < 1 || course.WeekDay > 7 {
			continue
		}
		for _, week := range course.Weeks {
			if week < 1 {
				continue
			}
			day := semesterStart.AddDate(0, 0, (week-1)*7+(course.WeekDay-1))
			start := timeutil.NodeStart(day, course.StartNode)
			end := timeutil.NodeEnd(day, course.EndNode)
			if start.IsZero() || end.IsZero() {
				continue
			}

			event := cal.AddEvent(uuid.NewString())
			event.SetCreatedTime(now)
			event.SetDtStampTime(now)
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(course.CourseName)
			event.SetLocation(course.Classroom)
			event.SetDescription(eventDescription(course))
		}
	}
	return cal.Serialize(), nil
}

func eventDescription(course schedule.Course) string {
	return fmt.Sprintf("%s / %s / %d-%d节",
		course.TeacherName, course.ClassName, course.StartNode, course.EndNode)
}
