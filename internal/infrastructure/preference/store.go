// Package preference implements the persisted key/value preference layer and
// the shared observation bus on top of it.
//
// Key components:
//   - Store: durable per-key persistence with change notification
//   - MemoryStore: in-process Store for tests and redis-less development
//   - RedisStore: Redis-backed Store using pub/sub for change notification
//   - Bus: shared, refcounted, lazily-started per-key streams with a grace
//     window before teardown
package preference

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE CONTRACT
// ══════════════════════════════════════════════════════════════════════════════

// Store is durable key/value persistence with change notification. Values are
// plain strings; compound values (the cookie list) are JSON-encoded by the
// caller. Each key is independently settable and observable; no cross-key
// transactionality is provided.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores the value and notifies every active watcher of the key.
	Set(ctx context.Context, key, value string) error

	// Watch returns a channel that receives every committed value for the
	// key, in commit order, until ctx is cancelled. It does not replay the
	// current value; the Bus handles replay.
	Watch(ctx context.Context, key string) (<-chan string, error)

	// Close releases the store's resources.
	Close() error
}

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("preference: store is closed")

// ══════════════════════════════════════════════════════════════════════════════
// KEY REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// Preference keys. Each is independently observable and independently
// settable through the Bus.
const (
	// KeyCookies holds the JSON-encoded session cookie list.
	KeyCookies = "cookies"

	// KeyUsername holds the student's portal username.
	KeyUsername = "username"

	// KeyEnterUniversityYear holds the enrollment year, e.g. "2021".
	KeyEnterUniversityYear = "enterUniversityYear"

	// KeyYearAndSemester holds the currently configured semester
	// identifier, e.g. "2023-2024-1".
	KeyYearAndSemester = "yearAndSemester"

	// KeyIsLogin mirrors whether a session is established.
	KeyIsLogin = "isLogin"

	// Display toggles for schedule rendering.
	KeyIsOtherCourseDisplay = "isOtherCourseDisplay"
	KeyIsYearDisplay        = "isYearDisplay"
	KeyIsDateDisplay        = "isDateDisplay"
	KeyIsTimeDisplay        = "isTimeDisplay"
)

// Defaults maps every registered key to the value observers receive before
// anything has been persisted.
var Defaults = map[string]string{
	KeyCookies:              "[]",
	KeyUsername:             "",
	KeyEnterUniversityYear:  "",
	KeyYearAndSemester:      "",
	KeyIsLogin:              "false",
	KeyIsOtherCourseDisplay: "false",
	KeyIsYearDisplay:        "false",
	KeyIsDateDisplay:        "false",
	KeyIsTimeDisplay:        "false",
}

// DefaultFor returns the registered default for the key, or the empty string
// for unregistered keys.
func DefaultFor(key string) string {
	return Defaults[key]
}

// ══════════════════════════════════════════════════════════════════════════════
// VALUE ENCODING
// ══════════════════════════════════════════════════════════════════════════════

// ParseBool decodes a persisted boolean preference. Anything but "true" is
// false, matching the registered defaults.
func ParseBool(value string) bool {
	return value == "true"
}

// FormatBool encodes a boolean preference.
func FormatBool(v bool) string {
	return strconv.FormatBool(v)
}

// EncodeJSON encodes a compound preference value.
func EncodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeJSON decodes a compound preference value into out.
func DecodeJSON(value string, out any) error {
	return json.Unmarshal([]byte(value), out)
}
