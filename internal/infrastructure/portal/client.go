package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/campus-hub/campus-helper/internal/domain/schedule"
)

// ══════════════════════════════════════════════════════════════════════════════
// TYPED ENDPOINT CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// ErrUnavailable is returned when no usable response was obtained: a
// transport failure shaped into the synthetic 502, or a non-200 status.
var ErrUnavailable = errors.New("portal: no usable response")

// Endpoint paths relative to the base URL. The login path lives in
// gateway.go next to the commit rule that depends on it.
const (
	schedulePath       = "student/schedule"
	globalSchedulePath = "student/schedule/all"
	calendarPath       = "student/calendar"
	emptyClassroomPath = "classroom/empty"
	scheduleNotesPath  = "student/schedule/notes"
	plannedPath        = "student/schedule/planned"
)

// Client exposes the portal endpoints as typed operations over the gateway.
type Client struct {
	gw     *Gateway
	logger *slog.Logger
}

// NewClient creates a Client over the gateway.
func NewClient(gw *Gateway, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{gw: gw, logger: logger}
}

// Login posts form credentials to the canonical login endpoint. The cookie
// commit happens as a gateway side effect; the returned bool reports whether
// a session is now established.
func (c *Client) Login(ctx context.Context, username, password string) (bool, error) {
	resp := c.gw.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   LoginPath,
		Form: url.Values{
			"username": {username},
			"password": {password},
		},
	})
	if resp.IsTransportFailure() {
		return false, ErrUnavailable
	}
	return c.gw.Sessions().IsLoggedIn(), nil
}

// GetSchedule fetches the course list for a semester.
func (c *Client) GetSchedule(ctx context.Context, semester schedule.Semester) ([]schedule.Course, error) {
	body, err := c.get(ctx, schedulePath, url.Values{"semester": {semester.String()}})
	if err != nil {
		return nil, err
	}
	return mapCourses(body)
}

// GlobalScheduleQuery bounds a campus-wide schedule query.
type GlobalScheduleQuery struct {
	Semester  schedule.Semester
	StartWeek int
	EndWeek   int
	StartDay  int
	EndDay    int
	StartNode int
	EndNode   int
}

// GetGlobalSchedule fetches every course on campus occupying the queried
// week/day/period window.
func (c *Client) GetGlobalSchedule(ctx context.Context, q GlobalScheduleQuery) ([]schedule.Course, error) {
	body, err := c.get(ctx, globalSchedulePath, url.Values{
		"semester":  {q.Semester.String()},
		"startWeek": {strconv.Itoa(q.StartWeek)},
		"endWeek":   {strconv.Itoa(q.EndWeek)},
		"startDay":  {strconv.Itoa(q.StartDay)},
		"endDay":    {strconv.Itoa(q.EndDay)},
		"startNode": {strconv.Itoa(q.StartNode)},
		"endNode":   {strconv.Itoa(q.EndNode)},
	})
	if err != nil {
		return nil, err
	}
	return mapCourses(body)
}

// GetCalendar fetches the academic calendar for a semester.
func (c *Client) GetCalendar(ctx context.Context, semester schedule.Semester) ([]schedule.CalendarRow, error) {
	body, err := c.get(ctx, calendarPath, url.Values{"semester": {semester.String()}})
	if err != nil {
		return nil, err
	}
	return mapCalendar(body)
}

// GetEmptyClassrooms fetches the rooms free in the given week/day/period.
func (c *Client) GetEmptyClassrooms(ctx context.Context, week, dayOfWeek, node int) ([]schedule.Classroom, error) {
	body, err := c.get(ctx, emptyClassroomPath, url.Values{
		"week": {strconv.Itoa(week)},
		"day":  {strconv.Itoa(dayOfWeek)},
		"node": {strconv.Itoa(node)},
	})
	if err != nil {
		return nil, err
	}
	return mapClassrooms(body)
}

// GetScheduleNotes fetches the semester's schedule annotations.
func (c *Client) GetScheduleNotes(ctx context.Context, semester schedule.Semester) ([]schedule.Note, error) {
	body, err := c.get(ctx, scheduleNotesPath, url.Values{"semester": {semester.String()}})
	if err != nil {
		return nil, err
	}
	return mapNotes(body)
}

// GetPlannedSchedule fetches the centrally planned future schedule.
func (c *Client) GetPlannedSchedule(ctx context.Context) ([]schedule.PlannedCourse, error) {
	body, err := c.get(ctx, plannedPath, nil)
	if err != nil {
		return nil, err
	}
	return mapPlannedCourses(body)
}

// get issues a GET through the gateway and folds every non-usable response
// into ErrUnavailable.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp := c.gw.Send(ctx, Request{Path: path, Query: query})
	if !resp.OK() {
		c.logger.Debug("portal request failed",
			"path", path, "status", resp.StatusCode, "message", resp.Message)
		return nil, ErrUnavailable
	}
	return resp.Body, nil
}
