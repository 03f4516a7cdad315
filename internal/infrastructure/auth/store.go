// Package auth implements the session cookie store: the single owner of the
// portal authentication state. It keeps an in-memory snapshot for lock-free
// request stamping and persists every committed change through the
// preference layer.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/campus-hub/campus-helper/internal/domain/session"
	"github.com/campus-hub/campus-helper/internal/infrastructure/preference"
)

// StoreConfig contains configuration for the session store.
type StoreConfig struct {
	// LoginURL is the canonical login endpoint; only responses from this
	// exact URL can establish a session.
	LoginURL string

	// Preferences is the bus the cookie snapshot is persisted through.
	Preferences *preference.Bus

	// Logger for structured logging.
	Logger *slog.Logger
}

// Store owns the session cookie set. One Store exists per process; the
// gateway and the persistence layer hold references to it. Reads never touch
// the network; the read-modify-persist path of a commit is atomic.
type Store struct {
	loginURL string
	prefs    *preference.Bus
	logger   *slog.Logger

	mu      sync.RWMutex
	cookies []session.Cookie
}

// NewStore creates the session store, restoring the persisted cookie
// snapshot if one exists.
func NewStore(ctx context.Context, config StoreConfig) (*Store, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Store{
		loginURL: config.LoginURL,
		prefs:    config.Preferences,
		logger:   config.Logger,
	}

	raw, err := s.prefs.Get(ctx, preference.KeyCookies, preference.DefaultFor(preference.KeyCookies))
	if err != nil {
		return nil, fmt.Errorf("auth: restore cookies: %w", err)
	}
	var cookies []session.Cookie
	if err := preference.DecodeJSON(raw, &cookies); err != nil {
		// A corrupt snapshot means no session, not a broken store.
		s.logger.Warn("discarding unreadable cookie snapshot", "error", err)
		cookies = nil
	}
	s.cookies = cookies

	s.logger.Debug("session store restored", "cookies", len(cookies))
	return s, nil
}

// Current returns the last known session snapshot. Safe for concurrent
// readers; never blocks on I/O.
func (s *Store) Current() []session.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]session.Cookie, len(s.cookies))
	copy(out, s.cookies)
	return out
}

// IsLoggedIn reports whether the current snapshot represents an established
// session, derived purely from cookie contents.
func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return session.IsLoggedIn(s.cookies)
}

// Observe returns a stream of cookie snapshots: the latest value first, then
// every committed change in commit order. The cancel function detaches the
// observer.
func (s *Store) Observe(ctx context.Context) (<-chan []session.Cookie, func(), error) {
	raw, cancel, err := s.prefs.Subscribe(ctx, preference.KeyCookies,
		preference.DefaultFor(preference.KeyCookies))
	if err != nil {
		return nil, nil, err
	}

	out := make(chan []session.Cookie, 16)
	go func() {
		defer close(out)
		for v := range raw {
			var cookies []session.Cookie
			if err := preference.DecodeJSON(v, &cookies); err != nil {
				s.logger.Warn("skipping unreadable cookie update", "error", err)
				continue
			}
			select {
			case out <- cookies:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}

// CommitIfLogin inspects a response cookie set. The snapshot is replaced and
// persisted only when the request targeted the canonical login endpoint and
// the set carries exactly two rememberMe cookies; any other combination
// leaves the session untouched. Returns whether a commit happened.
func (s *Store) CommitIfLogin(ctx context.Context, requestURL string, cookies []session.Cookie) (bool, error) {
	if !session.IsLoginResponse(requestURL, s.loginURL, cookies) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, cookies); err != nil {
		return false, err
	}
	s.cookies = append([]session.Cookie(nil), cookies...)

	s.logger.Info("session established", "cookies", len(cookies))
	return true, nil
}

// Clear replaces the snapshot with an empty set and persists it. Used for
// logout and cookie debug resets.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, []session.Cookie{}); err != nil {
		return err
	}
	s.cookies = nil

	s.logger.Info("session cleared")
	return nil
}

// persist writes the snapshot through the preference bus. Exactly one write,
// which the bus turns into exactly one notification per observer. Caller
// holds s.mu.
func (s *Store) persist(ctx context.Context, cookies []session.Cookie) error {
	encoded, err := preference.EncodeJSON(cookies)
	if err != nil {
		return fmt.Errorf("auth: encode cookies: %w", err)
	}
	if err := s.prefs.Set(ctx, preference.KeyCookies, encoded); err != nil {
		return fmt.Errorf("auth: persist cookies: %w", err)
	}
	return nil
}
