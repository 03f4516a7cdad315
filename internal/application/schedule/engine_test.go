package schedule

import (
	"context"
	"testing"
	"time"

	domain "github.com/campus-hub/campus-helper/internal/domain/schedule"
	"github.com/campus-hub/campus-helper/internal/infrastructure/portal"
	"github.com/campus-hub/campus-helper/internal/infrastructure/preference"
	"github.com/campus-hub/campus-helper/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePortal answers from canned data and records the queries it saw.
type fakePortal struct {
	courses   []domain.Course
	global    []domain.Course
	calendar  []domain.CalendarRow
	empty     []domain.Classroom
	notes     []domain.Note
	planned   []domain.PlannedCourse
	err       error
	lastQuery portal.GlobalScheduleQuery
}

func (f *fakePortal) GetSchedule(ctx context.Context, semester domain.Semester) ([]domain.Course, error) {
	return f.courses, f.err
}

func (f *fakePortal) GetGlobalSchedule(ctx context.Context, q portal.GlobalScheduleQuery) ([]domain.Course, error) {
	f.lastQuery = q
	return f.global, f.err
}

func (f *fakePortal) GetCalendar(ctx context.Context, semester domain.Semester) ([]domain.CalendarRow, error) {
	return f.calendar, nil
}

func (f *fakePortal) GetEmptyClassrooms(ctx context.Context, week, dayOfWeek, node int) ([]domain.Classroom, error) {
	return f.empty, f.err
}

func (f *fakePortal) GetScheduleNotes(ctx context.Context, semester domain.Semester) ([]domain.Note, error) {
	return f.notes, f.err
}

func (f *fakePortal) GetPlannedSchedule(ctx context.Context) ([]domain.PlannedCourse, error) {
	return f.planned, f.err
}

func septemberCalendar() []domain.CalendarRow {
	// First teaching week starts Monday 2023-09-04.
	return []domain.CalendarRow{{YearAndMonth: "2023-09", Monday: "4"}}
}

func newTestEngine(t *testing.T, fake *fakePortal, now time.Time) *Engine {
	t.Helper()
	bus := preference.NewBus(preference.BusConfig{Store: preference.NewMemoryStore()})
	t.Cleanup(func() { _ = bus.Close() })
	ctx := context.Background()
	require.NoError(t, bus.Set(ctx, preference.KeyYearAndSemester, "2023-2024-1"))
	require.NoError(t, bus.Set(ctx, preference.KeyEnterUniversityYear, "2021"))
	return NewEngine(EngineConfig{
		Portal:      fake,
		Preferences: bus,
		Now:         func() time.Time { return now },
	})
}

func TestLoadScheduleDerivesSemestersAndWeek(t *testing.T) {
	fake := &fakePortal{
		courses:  []domain.Course{{CourseName: "数据结构"}},
		calendar: septemberCalendar(),
	}
	now := time.Date(2023, 9, 11, 8, 0, 0, 0, timeutil.CampusTZ)
	engine := newTestEngine(t, fake, now)

	require.NoError(t, engine.LoadSchedule(context.Background(), ""))

	state := engine.State()
	assert.Equal(t, []domain.Semester{
		"2021-2022-1", "2021-2022-2",
		"2022-2023-1", "2022-2023-2",
		"2023-2024-1",
	}, state.Semesters)
	assert.Equal(t, domain.Semester("2023-2024-1"), state.BrowsedSemester)
	assert.Equal(t, 2, state.CurrentWeek)
	assert.Equal(t, 2, state.BrowsedWeek)

	courses, ok := state.Courses.Data()
	require.True(t, ok)
	require.Len(t, courses, 1)
	assert.Equal(t, "数据结构", courses[0].CourseName)
}

func TestLoadScheduleSkipsWeekForPastSemester(t *testing.T) {
	fake := &fakePortal{calendar: septemberCalendar()}
	now := time.Date(2023, 9, 11, 8, 0, 0, 0, timeutil.CampusTZ)
	engine := newTestEngine(t, fake, now)

	require.NoError(t, engine.LoadSchedule(context.Background(), "2022-2023-1"))

	state := engine.State()
	assert.Equal(t, domain.Semester("2022-2023-1"), state.BrowsedSemester)
	assert.Zero(t, state.CurrentWeek, "week arithmetic only applies to the newest semester")
	assert.Equal(t, 1, state.BrowsedWeek)
}

func TestLoadScheduleRejectsOutOfRangeWeek(t *testing.T) {
	fake := &fakePortal{calendar: septemberCalendar()}
	// Before the semester starts: the week must stay unknown, not clamp.
	now := time.Date(2023, 9, 1, 8, 0, 0, 0, timeutil.CampusTZ)
	engine := newTestEngine(t, fake, now)

	require.NoError(t, engine.LoadSchedule(context.Background(), ""))

	state := engine.State()
	assert.Zero(t, state.CurrentWeek)
	assert.False(t, state.StartDate.IsZero())
}

func TestLoadScheduleDistinguishesFailureFromEmpty(t *testing.T) {
	now := time.Date(2023, 9, 11, 8, 0, 0, 0, timeutil.CampusTZ)
	ctx := context.Background()

	failing := &fakePortal{calendar: septemberCalendar(), err: portal.ErrUnavailable}
	engine := newTestEngine(t, failing, now)
	require.NoError(t, engine.LoadSchedule(ctx, ""))

	state := engine.State()
	assert.True(t, state.Courses.IsFailure())
	_, ok := state.Courses.Data()
	assert.False(t, ok, "failed load carries no data")

	empty := &fakePortal{calendar: septemberCalendar(), courses: []domain.Course{}}
	engine = newTestEngine(t, empty, now)
	require.NoError(t, engine.LoadSchedule(ctx, ""))

	state = engine.State()
	assert.True(t, state.Courses.IsSuccess(), "zero courses is a legitimate result")
	courses, ok := state.Courses.Data()
	assert.True(t, ok)
	assert.Empty(t, courses)
}

func TestLoadScheduleRequiresConfiguration(t *testing.T) {
	bus := preference.NewBus(preference.BusConfig{Store: preference.NewMemoryStore()})
	t.Cleanup(func() { _ = bus.Close() })
	engine := NewEngine(EngineConfig{Portal: &fakePortal{}, Preferences: bus})

	err := engine.LoadSchedule(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func loadedEngine(t *testing.T, fake *fakePortal, browsedWeek int) *Engine {
	t.Helper()
	fake.calendar = septemberCalendar()
	now := time.Date(2023, 9, 11, 8, 0, 0, 0, timeutil.CampusTZ)
	engine := newTestEngine(t, fake, now)
	require.NoError(t, engine.LoadSchedule(context.Background(), ""))
	engine.BrowseWeek(browsedWeek)
	return engine
}

func TestLoadTeachingClassroomsDecomposesMultiRoomCourses(t *testing.T) {
	fake := &fakePortal{
		global: []domain.Course{
			{
				CourseName: "大学物理",
				Classroom:  "教学楼A-101, 教学楼B-202",
				TimePlace:  "周1-16 周三 3-4小节 教学楼B-202\n周1-16 周三 3-4小节 教学楼A-101",
			},
			{
				// Single room: no ambiguity, never decomposed.
				CourseName: "高等数学",
				Classroom:  "教学楼C-303",
				TimePlace:  "周1-16 周三 3-4小节 教学楼C-303",
			},
		},
	}
	engine := loadedEngine(t, fake, 5)

	require.NoError(t, engine.LoadTeachingClassrooms(context.Background(), 3, 2))

	// node 2 maps to the concrete period range [3,4].
	assert.Equal(t, 3, fake.lastQuery.StartNode)
	assert.Equal(t, 4, fake.lastQuery.EndNode)
	assert.Equal(t, 5, fake.lastQuery.StartWeek)

	state := engine.State()
	records, ok := state.TeachingClassrooms.Data()
	require.True(t, ok)
	require.Len(t, records, 2)
	// Sorted by room name.
	assert.Equal(t, domain.RoomName("教学楼A-101"), records[0].Room)
	assert.Equal(t, domain.RoomName("教学楼B-202"), records[1].Room)
	assert.Equal(t, []string{"教学楼A", "教学楼B"}, state.TeachingBuildings)
}

func TestLoadTeachingClassroomsFiltersByBrowsedWeek(t *testing.T) {
	fake := &fakePortal{
		global: []domain.Course{{
			Classroom: "教学楼A-101, 教学楼B-202",
			TimePlace: "周1-16 周三 3-4小节 教学楼A-101",
		}},
	}
	engine := loadedEngine(t, fake, 20) // outside 1-16

	require.NoError(t, engine.LoadTeachingClassrooms(context.Background(), 3, 2))

	records, ok := engine.State().TeachingClassrooms.Data()
	require.True(t, ok)
	assert.Empty(t, records)
}

func TestLoadTeachingClassroomsSkipsMalformedLines(t *testing.T) {
	fake := &fakePortal{
		global: []domain.Course{{
			Classroom: "教学楼A-101, 教学楼B-202",
			TimePlace: "garbage\n周1-16 周三 3-4小节 教学楼A-101",
		}},
	}
	engine := loadedEngine(t, fake, 5)

	require.NoError(t, engine.LoadTeachingClassrooms(context.Background(), 3, 2))

	records, ok := engine.State().TeachingClassrooms.Data()
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, domain.RoomName("教学楼A-101"), records[0].Room)
}

func TestLoadTeachingClassroomsBeforeSchedule(t *testing.T) {
	bus := preference.NewBus(preference.BusConfig{Store: preference.NewMemoryStore()})
	t.Cleanup(func() { _ = bus.Close() })
	engine := NewEngine(EngineConfig{Portal: &fakePortal{}, Preferences: bus})

	err := engine.LoadTeachingClassrooms(context.Background(), 3, 2)
	assert.ErrorIs(t, err, ErrScheduleNotLoaded)
}

func TestLoadEmptyClassrooms(t *testing.T) {
	fake := &fakePortal{
		empty: []domain.Classroom{
			{RoomName: "教学楼B-201"},
			{RoomName: "教学楼A-105", BuildingName: "A座"},
		},
	}
	engine := loadedEngine(t, fake, 3)

	require.NoError(t, engine.LoadEmptyClassrooms(context.Background(), 1, 1))

	state := engine.State()
	rooms, ok := state.EmptyClassrooms.Data()
	require.True(t, ok)
	assert.Len(t, rooms, 2)
	// Reported building name wins; otherwise derived from the room prefix.
	assert.Equal(t, []string{"A座", "教学楼B"}, state.EmptyBuildings)
}

func TestLoadPlannedScheduleRaisesPanelBeforeFetch(t *testing.T) {
	fake := &fakePortal{planned: []domain.PlannedCourse{{CourseName: "操作系统"}}}
	engine := loadedEngine(t, fake, 1)

	require.NoError(t, engine.LoadPlannedSchedule(context.Background()))

	state := engine.State()
	assert.True(t, state.PlannedVisible)
	planned, ok := state.Planned.Data()
	require.True(t, ok)
	require.Len(t, planned, 1)

	engine.HidePlannedSchedule()
	assert.False(t, engine.State().PlannedVisible)
}

func TestLoadScheduleNotes(t *testing.T) {
	fake := &fakePortal{notes: []domain.Note{{Title: "调课", Content: "第3周停课"}}}
	engine := loadedEngine(t, fake, 1)

	require.NoError(t, engine.LoadScheduleNotes(context.Background()))

	notes, ok := engine.State().Notes.Data()
	require.True(t, ok)
	require.Len(t, notes, 1)
	assert.Equal(t, "调课", notes[0].Title)
}
