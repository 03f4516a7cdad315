// Package schedule implements the schedule synchronization engine: the
// application-level state record over the portal client, with tri-state
// results so consumers can tell "still loading" and "failed" apart from a
// legitimately empty answer.
package schedule

// phase is the lifecycle position of a Result.
type phase int

const (
	phaseLoading phase = iota
	phaseSuccess
	phaseFailure
)

// Result is a tri-state load outcome: loading (no data, no error), success
// (data present, possibly empty), or failure (data absent). A Result is a
// value; the engine replaces it wholesale, never mutates it in place.
type Result[T any] struct {
	phase phase
	data  T
	err   error
}

// Loading returns the initial in-flight state.
func Loading[T any]() Result[T] {
	return Result[T]{phase: phaseLoading}
}

// Success wraps fetched data. An empty slice is still a success: the portal
// answered and there were zero items.
func Success[T any](data T) Result[T] {
	return Result[T]{phase: phaseSuccess, data: data}
}

// Failure marks the load as failed; no data is carried.
func Failure[T any](err error) Result[T] {
	return Result[T]{phase: phaseFailure, err: err}
}

// IsLoading reports whether the load is still in flight.
func (r Result[T]) IsLoading() bool {
	return r.phase == phaseLoading
}

// IsSuccess reports whether data is present (possibly empty).
func (r Result[T]) IsSuccess() bool {
	return r.phase == phaseSuccess
}

// IsFailure reports whether the load failed outright.
func (r Result[T]) IsFailure() bool {
	return r.phase == phaseFailure
}

// Data returns the wrapped data and whether it is present. Absent data (a
// loading or failed Result) returns the zero value and false.
func (r Result[T]) Data() (T, bool) {
	var zero T
	if r.phase != phaseSuccess {
		return zero, false
	}
	return r.data, true
}

// Err returns the failure cause, or nil outside the failure state.
func (r Result[T]) Err() error {
	if r.phase != phaseFailure {
		return nil
	}
	return r.err
}
