package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// TIMETABLE TEXT PARSING
// ══════════════════════════════════════════════════════════════════════════════

// The portal describes each class occurrence with one compact text line:
//
//	周1-3,5 周二 3-4小节 教室A
//
// i.e. week-range token, day-of-week token, period-range token, room token,
// space separated. The parser is deliberately forgiving: one malformed line
// must never abort a whole parse pass.

// DayUnknown is the sentinel for a day-of-week token outside the fixed table.
const DayUnknown = 0

// dayOfWeekTable maps the portal's day tokens to ISO day numbers.
var dayOfWeekTable = map[string]int{
	"周一": 1,
	"周二": 2,
	"周三": 3,
	"周四": 4,
	"周五": 5,
	"周六": 6,
	"周日": 7,
}

// Occupancy parsing errors.
var (
	ErrMalformedSlotLine = errors.New("schedule: malformed slot line")
	ErrMalformedWeekSpec = errors.New("schedule: malformed week range")
)

// OccupancyCandidate is one parsed slot line: the weeks, day, period range
// and room of a single class occurrence, before any filtering.
type OccupancyCandidate struct {
	// Weeks is the expanded week set. Duplicates across comma segments
	// are preserved; callers deduplicate at a higher level.
	Weeks []int

	// DayOfWeek is 1 (Monday) .. 7 (Sunday), or DayUnknown for a token
	// outside the fixed table.
	DayOfWeek int

	// StartNode and EndNode bound the period range, e.g. 3 and 4 for
	// "3-4小节".
	StartNode int
	EndNode   int

	// Room is the room token, e.g. "教学楼A-101".
	Room RoomName
}

// ParseSlotLine parses one compact slot line into an OccupancyCandidate.
// An unrecognized day token maps to DayUnknown rather than failing; a line
// that does not match the token shape at all returns ErrMalformedSlotLine.
func ParseSlotLine(line string) (OccupancyCandidate, error) {
	items := strings.Split(strings.TrimSpace(line), " ")
	if len(items) < 4 {
		return OccupancyCandidate{}, fmt.Errorf("%w: %q", ErrMalformedSlotLine, line)
	}

	weeks, err := ExpandWeeks(items[0])
	if err != nil {
		return OccupancyCandidate{}, err
	}

	startNode, endNode, err := parseNodeRange(items[2])
	if err != nil {
		return OccupancyCandidate{}, err
	}

	return OccupancyCandidate{
		Weeks:     weeks,
		DayOfWeek: dayOfWeekTable[items[1]],
		StartNode: startNode,
		EndNode:   endNode,
		Room:      RoomName(items[3]),
	}, nil
}

// ExpandWeeks expands a week-range token such as "周1-3,5,7-9" into the full
// week list [1 2 3 5 7 8 9]. A segment "a-b" expands to every integer in
// [a,b]; a bare segment "a" expands to {a}. Duplicates across segments are
// preserved at expansion time.
func ExpandWeeks(spec string) ([]int, error) {
	spec = strings.TrimPrefix(spec, "周")
	if spec == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedWeekSpec)
	}

	var weeks []int
	for _, segment := range strings.Split(spec, ",") {
		if strings.Contains(segment, "-") {
			bounds := strings.SplitN(segment, "-", 2)
			start, err1 := strconv.Atoi(bounds[0])
			end, err2 := strconv.Atoi(bounds[1])
			if err1 != nil || err2 != nil || start > end {
				return nil, fmt.Errorf("%w: %q", ErrMalformedWeekSpec, segment)
			}
			for w := start; w <= end; w++ {
				weeks = append(weeks, w)
			}
			continue
		}
		w, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedWeekSpec, segment)
		}
		weeks = append(weeks, w)
	}
	return weeks, nil
}

// parseNodeRange parses a period-range token such as "3-4小节".
func parseNodeRange(token string) (start, end int, err error) {
	token = strings.TrimSuffix(token, "小节")
	bounds := strings.SplitN(token, "-", 2)
	if len(bounds) != 2 {
		return 0, 0, fmt.Errorf("%w: node range %q", ErrMalformedSlotLine, token)
	}
	start, err1 := strconv.Atoi(bounds[0])
	end, err2 := strconv.Atoi(bounds[1])
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("%w: node range %q", ErrMalformedSlotLine, token)
	}
	return start, end, nil
}
