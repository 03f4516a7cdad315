package export

import (
	"strings"
	"testing"
	"time"

	"github.com/campus-hub/campus-helper/internal/domain/schedule"
	"github.com/campus-hub/campus-helper/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarAnchorsEventsToSemesterStart(t *testing.T) {
	start := time.Date(2023, 9, 4, 0, 0, 0, 0, timeutil.CampusTZ) // Monday, week 1

	courses := []schedule.Course{{
		CourseName:  "数据结构",
		TeacherName: "张三",
		ClassName:   "计科2101",
		Classroom:   "教学楼A-101",
		WeekDay:     3, // Wednesday
		StartNode:   3,
		EndNode:     4,
		Weeks:       []int{1, 2},
	}}

	out, err := Calendar(courses, start)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"), "one event per week")
	assert.Contains(t, out, "SUMMARY:数据结构")
	assert.Contains(t, out, "LOCATION:教学楼A-101")
	// Week 1 Wednesday is 2023-09-06; period 3 starts 10:15 (+08).
	assert.Contains(t, out, "20230906T021500Z")
}

func TestCalendarSkipsUnanchorableCourses(t *testing.T) {
	start := time.Date(2023, 9, 4, 0, 0, 0, 0, timeutil.CampusTZ)

	courses := []schedule.Course{
		{CourseName: "未知日", WeekDay: 0, StartNode: 1, EndNode: 2, Weeks: []int{1}},
		{CourseName: "越界节", WeekDay: 1, StartNode: 11, EndNode: 12, Weeks: []int{1}},
	}

	out, err := Calendar(courses, start)
	require.NoError(t, err)
	assert.NotContains(t, out, "BEGIN:VEVENT")
}

func TestCalendarRequiresStartDate(t *testing.T) {
	_, err := Calendar(nil, time.Time{})
	assert.ErrorIs(t, err, ErrNoStartDate)
}
