package schedule

import (
	"testing"

	"github.com/campus-hub/campus-helper/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarRowStartDate(t *testing.T) {
	row := CalendarRow{YearAndMonth: "2023-09", Monday: "4"}

	start, err := row.StartDate()
	require.NoError(t, err)
	assert.Equal(t, timeutil.Date(2023, 9, 4), start)
}

func TestCalendarRowStartDateChecksWeekdaysInOrder(t *testing.T) {
	// Monday is empty; Wednesday is the first anchor present.
	row := CalendarRow{
		YearAndMonth: "2023-09",
		Wednesday:    "6",
		Friday:       "8",
	}

	start, err := row.StartDate()
	require.NoError(t, err)
	assert.Equal(t, timeutil.Date(2023, 9, 6), start)
}

func TestCalendarRowStartDatePadsSingleDigitDay(t *testing.T) {
	row := CalendarRow{YearAndMonth: "2024-03", Sunday: "3"}

	start, err := row.StartDate()
	require.NoError(t, err)
	assert.Equal(t, timeutil.Date(2024, 3, 3), start)
}

func TestCalendarRowStartDateNoAnchor(t *testing.T) {
	row := CalendarRow{YearAndMonth: "2023-09"}

	_, err := row.StartDate()
	assert.ErrorIs(t, err, ErrNoWeekdayAnchor)
}

func TestCurrentWeek(t *testing.T) {
	start := timeutil.Date(2023, 9, 4)

	week, err := CurrentWeek(start, timeutil.Date(2023, 9, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, week)

	week, err = CurrentWeek(start, timeutil.Date(2023, 9, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, week)

	week, err = CurrentWeek(start, timeutil.Date(2023, 9, 11))
	require.NoError(t, err)
	assert.Equal(t, 2, week)
}

func TestCurrentWeekOutOfRange(t *testing.T) {
	start := timeutil.Date(2023, 9, 4)

	// Before the semester starts the week must be rejected, not clamped.
	_, err := CurrentWeek(start, timeutil.Date(2023, 9, 1))
	assert.ErrorIs(t, err, ErrWeekOutOfRange)

	// Far past the last teaching week.
	_, err = CurrentWeek(start, timeutil.Date(2024, 7, 1))
	assert.ErrorIs(t, err, ErrWeekOutOfRange)
}

func TestCourseRooms(t *testing.T) {
	single := Course{Classroom: "教学楼A-101"}
	assert.False(t, single.IsMultiRoom())
	assert.Equal(t, []RoomName{"教学楼A-101"}, single.Rooms())

	multi := Course{Classroom: "教学楼A-101, 教学楼A-102"}
	assert.True(t, multi.IsMultiRoom())
	assert.Len(t, multi.Rooms(), 2)
}

func TestRoomNameBuilding(t *testing.T) {
	assert.Equal(t, "教学楼A", RoomName("教学楼A-101").Building())
	assert.Equal(t, "体育馆", RoomName("体育馆").Building())
}
