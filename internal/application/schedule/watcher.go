package schedule

import (
	"context"
	"log/slog"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTO-REFRESH WATCHER
// ══════════════════════════════════════════════════════════════════════════════

// DefaultRefreshInterval is how often the watcher re-syncs the schedule.
const DefaultRefreshInterval = 30 * time.Minute

// WatcherConfig contains configuration for the Watcher.
type WatcherConfig struct {
	// Engine is the engine whose schedule gets refreshed.
	Engine *Engine

	// Interval overrides DefaultRefreshInterval.
	Interval time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// Watcher periodically re-runs the schedule load for the configured semester
// so long-lived consumers see the timetable drift (room changes, added
// make-up classes) without an explicit reload.
type Watcher struct {
	engine   *Engine
	interval time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a Watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultRefreshInterval
	}
	return &Watcher{
		engine:   config.Engine,
		interval: config.Interval,
		logger:   config.Logger,
	}
}

// Run performs an immediate sync and then one per interval until ctx is
// cancelled. A failed sync is logged and retried at the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	w.sync(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sync(ctx)
		}
	}
}

func (w *Watcher) sync(ctx context.Context) {
	if err := w.engine.LoadSchedule(ctx, ""); err != nil {
		w.logger.Warn("schedule refresh failed", "error", err)
		return
	}
	state := w.engine.State()
	w.logger.Info("schedule refreshed",
		"semester", state.BrowsedSemester,
		"current_week", state.CurrentWeek,
		"courses_loaded", state.Courses.IsSuccess())
}
