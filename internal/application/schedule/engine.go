package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	domain "github.com/campus-hub/campus-helper/internal/domain/schedule"
	"github.com/campus-hub/campus-helper/internal/infrastructure/portal"
	"github.com/campus-hub/campus-helper/internal/infrastructure/preference"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE SYNC ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine preconditions.
var (
	// ErrNotConfigured is returned when the configured semester or
	// enrollment year needed for a load is missing or unusable.
	ErrNotConfigured = errors.New("schedule: semester configuration missing")

	// ErrScheduleNotLoaded is returned by classroom loads before a
	// semester has been browsed.
	ErrScheduleNotLoaded = errors.New("schedule: no semester loaded yet")
)

// Portal is the slice of the portal client the engine consumes.
type Portal interface {
	GetSchedule(ctx context.Context, semester domain.Semester) ([]domain.Course, error)
	GetGlobalSchedule(ctx context.Context, q portal.GlobalScheduleQuery) ([]domain.Course, error)
	GetCalendar(ctx context.Context, semester domain.Semester) ([]domain.CalendarRow, error)
	GetEmptyClassrooms(ctx context.Context, week, dayOfWeek, node int) ([]domain.Classroom, error)
	GetScheduleNotes(ctx context.Context, semester domain.Semester) ([]domain.Note, error)
	GetPlannedSchedule(ctx context.Context) ([]domain.PlannedCourse, error)
}

// Occupancy is one decomposed (room, day, period) record derived from a
// multi-room course.
type Occupancy struct {
	Room      domain.RoomName
	DayOfWeek int
	StartNode int
	EndNode   int
}

// State is the engine's published view. It is replaced field-by-field under
// a single writer; readers receive a copy and must treat slices as read-only.
type State struct {
	// Semesters is the contiguous enrollment → current semester list,
	// ascending.
	Semesters []domain.Semester

	// BrowsedSemester and BrowsedWeek identify the timetable slice the
	// consumer is looking at.
	BrowsedSemester domain.Semester
	BrowsedWeek     int

	// CurrentWeek is the computed teaching week, 0 until derived. It is
	// only derived when the browsed semester is the newest one.
	CurrentWeek int

	// StartDate is the browsed semester's start date, zero until derived.
	StartDate time.Time

	Courses Result[[]domain.Course]

	TeachingClassrooms Result[[]Occupancy]
	TeachingBuildings  []string

	EmptyClassrooms Result[[]domain.Classroom]
	EmptyBuildings  []string

	Notes   Result[[]domain.Note]
	Planned Result[[]domain.PlannedCourse]

	// PlannedVisible toggles the planned-schedule panel; it is raised
	// before the fetch resolves so callers can show a loading affordance.
	PlannedVisible bool
}

// EngineConfig contains configuration for the Engine.
type EngineConfig struct {
	// Portal is the typed portal client.
	Portal Portal

	// Preferences supplies the configured semester and enrollment year.
	Preferences *preference.Bus

	// Now overrides the clock (tests).
	Now func() time.Time

	// Logger for structured logging.
	Logger *slog.Logger
}

// Engine orchestrates timetable retrieval and derivation: semester
// enumeration, calendar start-date and current-week computation, course and
// classroom loads, all published through one mutex-guarded state record.
type Engine struct {
	portal Portal
	prefs  *preference.Bus
	now    func() time.Time
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// NewEngine creates an Engine.
func NewEngine(config EngineConfig) *Engine {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Engine{
		portal: config.Portal,
		prefs:  config.Preferences,
		now:    config.Now,
		logger: config.Logger,
		state: State{
			Courses:            Loading[[]domain.Course](),
			TeachingClassrooms: Loading[[]Occupancy](),
			EmptyClassrooms:    Loading[[]domain.Classroom](),
			Notes:              Loading[[]domain.Note](),
			Planned:            Loading[[]domain.PlannedCourse](),
		},
	}
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// update applies one atomic state transition.
func (e *Engine) update(fn func(*State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.state)
}

// LoadSchedule loads the timetable for the given semester, or for the
// configured one when semester is empty. It enumerates the full semester
// list, derives the semester start date from the academic calendar, computes
// the current week when the browsed semester is the newest one, and
// republishes the course list. Fetch failures land in the published Result;
// only missing configuration is returned as an error.
func (e *Engine) LoadSchedule(ctx context.Context, semester domain.Semester) error {
	configured, err := e.prefs.Get(ctx, preference.KeyYearAndSemester, "")
	if err != nil {
		return fmt.Errorf("schedule: read configured semester: %w", err)
	}
	current := domain.Semester(configured)
	if semester == "" {
		semester = current
	}
	if current == "" {
		current = semester
	}
	if !semester.IsValid() || !current.IsValid() {
		return fmt.Errorf("%w: semester %q", ErrNotConfigured, semester)
	}

	yearValue, err := e.prefs.Get(ctx, preference.KeyEnterUniversityYear, "")
	if err != nil {
		return fmt.Errorf("schedule: read enrollment year: %w", err)
	}
	enrollmentYear, err := strconv.Atoi(yearValue)
	if err != nil {
		return fmt.Errorf("%w: enrollment year %q", ErrNotConfigured, yearValue)
	}

	semesters, err := domain.EnumerateSemesters(enrollmentYear, current)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}

	e.update(func(s *State) {
		s.Semesters = semesters
		s.BrowsedSemester = semester
		s.Courses = Loading[[]domain.Course]()
	})

	startDate, currentWeek := e.deriveWeek(ctx, semester, semesters)

	courses, fetchErr := e.portal.GetSchedule(ctx, semester)

	e.update(func(s *State) {
		s.StartDate = startDate
		s.CurrentWeek = currentWeek
		if currentWeek > 0 {
			s.BrowsedWeek = currentWeek
		} else if s.BrowsedWeek == 0 {
			s.BrowsedWeek = 1
		}
		if fetchErr != nil {
			s.Courses = Failure[[]domain.Course](fetchErr)
		} else {
			s.Courses = Success(courses)
		}
	})
	return nil
}

// deriveWeek fetches the calendar and computes (start date, current week).
// Every failure on this path degrades to "unknown" rather than aborting the
// schedule load: the course list is still worth publishing.
func (e *Engine) deriveWeek(ctx context.Context, semester domain.Semester, semesters []domain.Semester) (time.Time, int) {
	rows, err := e.portal.GetCalendar(ctx, semester)
	if err != nil || len(rows) == 0 {
		e.logger.Warn("academic calendar unavailable", "semester", semester, "error", err)
		return time.Time{}, 0
	}

	startDate, err := rows[0].StartDate()
	if err != nil {
		e.logger.Warn("calendar start date underivable", "semester", semester, "error", err)
		return time.Time{}, 0
	}

	// The current week is only meaningful for the newest semester; a past
	// semester's "now" arithmetic would be nonsense.
	if semester != semesters[len(semesters)-1] {
		return startDate, 0
	}
	week, err := domain.CurrentWeek(startDate, e.now())
	if err != nil {
		e.logger.Warn("current week out of range", "semester", semester, "error", err)
		return startDate, 0
	}
	return startDate, week
}

// LoadTeachingClassrooms finds, for the browsed week, every room in which a
// multi-room course actually meets on the given day and paired period. The
// node identifies a period pair; it maps to the concrete range
// [node*2-1, node*2].
func (e *Engine) LoadTeachingClassrooms(ctx context.Context, dayOfWeek, node int) error {
	semester, week := e.browsed()
	if semester == "" {
		return ErrScheduleNotLoaded
	}
	startNode, endNode := node*2-1, node*2

	e.update(func(s *State) {
		s.TeachingClassrooms = Loading[[]Occupancy]()
	})

	courses, err := e.portal.GetGlobalSchedule(ctx, portal.GlobalScheduleQuery{
		Semester:  semester,
		StartWeek: week, EndWeek: week,
		StartDay: dayOfWeek, EndDay: dayOfWeek,
		StartNode: startNode, EndNode: endNode,
	})
	if err != nil {
		e.update(func(s *State) {
			s.TeachingClassrooms = Failure[[]Occupancy](err)
		})
		return nil
	}

	records := decompose(courses, week, dayOfWeek, startNode)
	buildings := occupancyBuildings(records)

	e.update(func(s *State) {
		s.TeachingClassrooms = Success(records)
		s.TeachingBuildings = buildings
	})
	return nil
}

// decompose expands multi-room courses into per-room occupancy records. Only
// descriptor lines matching the browsed week, requested day, and requested
// starting period contribute; malformed lines are skipped.
func decompose(courses []domain.Course, week, dayOfWeek, startNode int) []Occupancy {
	seen := make(map[domain.RoomName]bool)
	var records []Occupancy
	for _, course := range courses {
		if !course.IsMultiRoom() {
			continue
		}
		for _, line := range strings.Split(course.TimePlace, "\n") {
			candidate, err := domain.ParseSlotLine(line)
			if err != nil {
				continue
			}
			if candidate.DayOfWeek != dayOfWeek || candidate.StartNode != startNode {
				continue
			}
			if !containsWeek(candidate.Weeks, week) {
				continue
			}
			if seen[candidate.Room] {
				continue
			}
			seen[candidate.Room] = true
			records = append(records, Occupancy{
				Room:      candidate.Room,
				DayOfWeek: candidate.DayOfWeek,
				StartNode: candidate.StartNode,
				EndNode:   candidate.EndNode,
			})
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Room < records[j].Room
	})
	return records
}

func containsWeek(weeks []int, week int) bool {
	for _, w := range weeks {
		if w == week {
			return true
		}
	}
	return false
}

func occupancyBuildings(records []Occupancy) []string {
	seen := make(map[string]bool)
	var buildings []string
	for _, r := range records {
		if b := r.Room.Building(); !seen[b] {
			seen[b] = true
			buildings = append(buildings, b)
		}
	}
	sort.Strings(buildings)
	return buildings
}

// LoadEmptyClassrooms republishes the rooms free in the browsed week at the
// given day and period, plus their deduplicated building names.
func (e *Engine) LoadEmptyClassrooms(ctx context.Context, dayOfWeek, node int) error {
	semester, week := e.browsed()
	if semester == "" {
		return ErrScheduleNotLoaded
	}

	e.update(func(s *State) {
		s.EmptyClassrooms = Loading[[]domain.Classroom]()
	})

	classrooms, err := e.portal.GetEmptyClassrooms(ctx, week, dayOfWeek, node)
	if err != nil {
		e.update(func(s *State) {
			s.EmptyClassrooms = Failure[[]domain.Classroom](err)
		})
		return nil
	}

	seen := make(map[string]bool)
	var buildings []string
	for _, c := range classrooms {
		if b := c.Building(); !seen[b] {
			seen[b] = true
			buildings = append(buildings, b)
		}
	}
	sort.Strings(buildings)

	e.update(func(s *State) {
		s.EmptyClassrooms = Success(classrooms)
		s.EmptyBuildings = buildings
	})
	return nil
}

// LoadScheduleNotes republishes the browsed semester's schedule annotations.
func (e *Engine) LoadScheduleNotes(ctx context.Context) error {
	semester, _ := e.browsed()
	if semester == "" {
		return ErrScheduleNotLoaded
	}

	e.update(func(s *State) {
		s.Notes = Loading[[]domain.Note]()
	})

	notes, err := e.portal.GetScheduleNotes(ctx, semester)
	e.update(func(s *State) {
		if err != nil {
			s.Notes = Failure[[]domain.Note](err)
		} else {
			s.Notes = Success(notes)
		}
	})
	return nil
}

// LoadPlannedSchedule raises the planned-schedule panel immediately, then
// fetches and republishes the centrally planned future schedule.
func (e *Engine) LoadPlannedSchedule(ctx context.Context) error {
	e.update(func(s *State) {
		s.PlannedVisible = true
		s.Planned = Loading[[]domain.PlannedCourse]()
	})

	planned, err := e.portal.GetPlannedSchedule(ctx)
	e.update(func(s *State) {
		if err != nil {
			s.Planned = Failure[[]domain.PlannedCourse](err)
		} else {
			s.Planned = Success(planned)
		}
	})
	return nil
}

// HidePlannedSchedule lowers the planned-schedule panel.
func (e *Engine) HidePlannedSchedule() {
	e.update(func(s *State) {
		s.PlannedVisible = false
	})
}

// BrowseWeek moves the browsed week without refetching.
func (e *Engine) BrowseWeek(week int) {
	e.update(func(s *State) {
		s.BrowsedWeek = week
	})
}

func (e *Engine) browsed() (domain.Semester, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.BrowsedSemester, e.state.BrowsedWeek
}
