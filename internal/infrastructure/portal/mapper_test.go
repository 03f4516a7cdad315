package portal

import (
	"testing"

	"github.com/campus-hub/campus-helper/internal/domain/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowsDistinguishesAbsentFromEmpty(t *testing.T) {
	_, err := rows(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = rows([]byte(`{"status":"ok"}`))
	assert.ErrorIs(t, err, ErrEmptyPayload, "missing data.rows is not a result")

	_, err = rows([]byte(`{"data":{"rows":"oops"}}`))
	assert.ErrorIs(t, err, ErrEmptyPayload, "non-array rows is not a result")

	rs, err := rows([]byte(`{"data":{"rows":[]}}`))
	require.NoError(t, err)
	assert.Empty(t, rs, "an empty array is a legitimate empty result")
}

func TestMapCourses(t *testing.T) {
	body := []byte(`{"data":{"rows":[
		{"courseName":"数据结构","teacherName":"张三","className":"计科2101",
		 "classroom":"2-203","timePlace":"周一 1-2节 2-203","weekDay":1,
		 "startNode":1,"endNode":2,"weekSpec":"周1-3,5"},
		{"courseName":"体育","weekDay":3,"startNode":5,"endNode":6,
		 "weekSpec":"not a spec"}
	]}}`)

	courses, err := mapCourses(body)
	require.NoError(t, err)
	require.Len(t, courses, 2)

	assert.Equal(t, "数据结构", courses[0].CourseName)
	assert.Equal(t, "张三", courses[0].TeacherName)
	assert.Equal(t, 1, courses[0].WeekDay)
	assert.Equal(t, []int{1, 2, 3, 5}, courses[0].Weeks)

	// An unparseable week spec keeps the row with no weeks.
	assert.Equal(t, "体育", courses[1].CourseName)
	assert.Empty(t, courses[1].Weeks)
}

func TestMapCalendar(t *testing.T) {
	body := []byte(`{"data":{"rows":[
		{"yearAndMonth":"2023-09","monday":"","tuesday":"","wednesday":"",
		 "thursday":"","friday":"1","saturday":"2","sunday":"3"}
	]}}`)

	calendar, err := mapCalendar(body)
	require.NoError(t, err)
	require.Len(t, calendar, 1)
	assert.Equal(t, "2023-09", calendar[0].YearAndMonth)
	assert.Equal(t, "1", calendar[0].Friday)
}

func TestMapClassrooms(t *testing.T) {
	body := []byte(`{"data":{"rows":[
		{"roomName":"2-203","buildingName":"二号楼","capacity":60}
	]}}`)

	classrooms, err := mapClassrooms(body)
	require.NoError(t, err)
	require.Len(t, classrooms, 1)
	assert.Equal(t, schedule.RoomName("2-203"), classrooms[0].RoomName)
	assert.Equal(t, 60, classrooms[0].Capacity)
}

func TestMapNotesAndPlanned(t *testing.T) {
	notes, err := mapNotes([]byte(`{"data":{"rows":[{"title":"调课","content":"第3周停课"}]}}`))
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "调课", notes[0].Title)

	planned, err := mapPlannedCourses([]byte(`{"data":{"rows":[
		{"courseName":"操作系统","semester":"2023-2024-2","credits":"4","department":"计算机学院"}
	]}}`))
	require.NoError(t, err)
	require.Len(t, planned, 1)
	assert.Equal(t, "操作系统", planned[0].CourseName)
	assert.Equal(t, "4", planned[0].Credits)
}
