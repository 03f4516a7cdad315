package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEMESTER IDENTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// Semester identifies one academic term as "YYYY-YYYY+1-N" where N is 1 or 2,
// e.g. "2023-2024-1". Semesters are totally ordered by (start year, term).
type Semester string

var semesterPattern = regexp.MustCompile(`^(\d{4})-(\d{4})-([12])$`)

// Semester parsing errors.
var (
	ErrInvalidSemester = errors.New("schedule: invalid semester identifier")
	ErrSemesterOrder   = errors.New("schedule: enrollment semester is after current semester")
)

// ParseSemester validates the identifier shape and returns its components.
func ParseSemester(s Semester) (startYear, term int, err error) {
	m := semesterPattern.FindStringSubmatch(string(s))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSemester, s)
	}
	startYear, _ = strconv.Atoi(m[1])
	endYear, _ := strconv.Atoi(m[2])
	if endYear != startYear+1 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSemester, s)
	}
	term, _ = strconv.Atoi(m[3])
	return startYear, term, nil
}

// IsValid reports whether the identifier is well formed.
func (s Semester) IsValid() bool {
	_, _, err := ParseSemester(s)
	return err == nil
}

// String returns the identifier as a plain string.
func (s Semester) String() string {
	return string(s)
}

// Before reports whether s is chronologically earlier than other.
// Both identifiers must be valid.
func (s Semester) Before(other Semester) bool {
	y1, t1, _ := ParseSemester(s)
	y2, t2, _ := ParseSemester(other)
	if y1 != y2 {
		return y1 < y2
	}
	return t1 < t2
}

// MakeSemester builds the identifier for the given start year and term.
func MakeSemester(startYear, term int) Semester {
	return Semester(fmt.Sprintf("%d-%d-%d", startYear, startYear+1, term))
}

// EnumerateSemesters returns every semester from the student's enrollment
// year (term 1) through the current semester inclusive, in ascending
// chronological order, contiguous with no gaps or duplicates.
func EnumerateSemesters(enrollmentYear int, current Semester) ([]Semester, error) {
	endYear, endTerm, err := ParseSemester(current)
	if err != nil {
		return nil, err
	}
	if enrollmentYear > endYear {
		return nil, fmt.Errorf("%w: %d > %d", ErrSemesterOrder, enrollmentYear, endYear)
	}

	var semesters []Semester
	for year := enrollmentYear; year <= endYear; year++ {
		for term := 1; term <= 2; term++ {
			if year == endYear && term > endTerm {
				break
			}
			semesters = append(semesters, MakeSemester(year, term))
		}
	}
	return semesters, nil
}
