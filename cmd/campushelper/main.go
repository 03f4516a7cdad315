// Package main is the campushelper CLI: login, timetable, classroom and
// export commands over the university portal.
//
// The wiring follows the layering of the rest of the repo:
// config → preference store → bus → session store → gateway → client → engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/campus-hub/campus-helper/config"
	appexport "github.com/campus-hub/campus-helper/internal/application/export"
	appschedule "github.com/campus-hub/campus-helper/internal/application/schedule"
	domain "github.com/campus-hub/campus-helper/internal/domain/schedule"
	"github.com/campus-hub/campus-helper/internal/infrastructure/auth"
	"github.com/campus-hub/campus-helper/internal/infrastructure/portal"
	"github.com/campus-hub/campus-helper/internal/infrastructure/preference"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRING
// ══════════════════════════════════════════════════════════════════════════════

// app holds the wired component graph for one CLI invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    preference.Store
	bus      *preference.Bus
	sessions *auth.Store
	client   *portal.Client
	engine   *appschedule.Engine
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	var store preference.Store
	if cfg.Redis.Disabled {
		logger.Warn("redis disabled, preferences will not survive the process")
		store = preference.NewMemoryStore()
	} else {
		store, err = preference.NewRedisStore(ctx, preference.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			KeyPrefix:    cfg.Redis.KeyPrefix,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
	}

	bus := preference.NewBus(preference.BusConfig{Store: store, Logger: logger})

	gatewayCfg := portal.GatewayConfig{
		BaseURL:          cfg.Portal.BaseURL,
		Timeout:          cfg.Portal.RequestTimeout,
		FailureThreshold: cfg.Portal.FailureThreshold,
		Cooldown:         cfg.Portal.Cooldown,
		Logger:           logger,
	}

	sessions, err := auth.NewStore(ctx, auth.StoreConfig{
		LoginURL:    portal.LoginURLFor(cfg.Portal.BaseURL),
		Preferences: bus,
		Logger:      logger,
	})
	if err != nil {
		_ = bus.Close()
		_ = store.Close()
		return nil, err
	}
	gatewayCfg.Sessions = sessions

	gateway := portal.NewGateway(gatewayCfg)
	client := portal.NewClient(gateway, logger)
	engine := appschedule.NewEngine(appschedule.EngineConfig{
		Portal:      client,
		Preferences: bus,
		Logger:      logger,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		bus:      bus,
		sessions: sessions,
		client:   client,
		engine:   engine,
	}, nil
}

func (a *app) close() {
	_ = a.bus.Close()
	_ = a.store.Close()
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Observability.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// withApp wires the component graph, runs fn, and tears everything down.
func withApp(fn func(ctx context.Context, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, a)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "campushelper",
		Short:         "University portal timetable helper",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newScheduleCmd(),
		newClassroomsCmd(),
		newEmptyCmd(),
		newNotesCmd(),
		newPlannedCmd(),
		newExportCmd(),
		newWatchCmd(),
	)
	return root
}

func newLoginCmd() *cobra.Command {
	var username, password, semester string
	var enrollmentYear int

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the portal and persist the session",
		RunE: withApp(func(ctx context.Context, a *app) error {
			ok, err := a.client.Login(ctx, username, password)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("login rejected for %q", username)
			}

			if err := a.bus.Set(ctx, preference.KeyUsername, username); err != nil {
				return err
			}
			if err := a.bus.Set(ctx, preference.KeyIsLogin, preference.FormatBool(true)); err != nil {
				return err
			}
			if enrollmentYear > 0 {
				err := a.bus.Set(ctx, preference.KeyEnterUniversityYear, strconv.Itoa(enrollmentYear))
				if err != nil {
					return err
				}
			}
			if semester != "" {
				if !domain.Semester(semester).IsValid() {
					return fmt.Errorf("invalid semester %q", semester)
				}
				if err := a.bus.Set(ctx, preference.KeyYearAndSemester, semester); err != nil {
					return err
				}
			}

			fmt.Printf("logged in as %s\n", username)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "portal username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "portal password")
	cmd.Flags().IntVar(&enrollmentYear, "year", 0, "enrollment year, e.g. 2021")
	cmd.Flags().StringVar(&semester, "semester", "", "current semester, e.g. 2023-2024-1")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: withApp(func(ctx context.Context, a *app) error {
			if err := a.sessions.Clear(ctx); err != nil {
				return err
			}
			if err := a.bus.Set(ctx, preference.KeyIsLogin, preference.FormatBool(false)); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		}),
	}
}

func newScheduleCmd() *cobra.Command {
	var semester string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show the course timetable for a semester",
		RunE: withApp(func(ctx context.Context, a *app) error {
			if err := a.engine.LoadSchedule(ctx, domain.Semester(semester)); err != nil {
				return err
			}
			state := a.engine.State()

			fmt.Printf("semester: %s", state.BrowsedSemester)
			if state.CurrentWeek > 0 {
				fmt.Printf("  (week %d)", state.CurrentWeek)
			}
			fmt.Println()

			courses, ok := state.Courses.Data()
			if !ok {
				return fmt.Errorf("schedule unavailable: %w", state.Courses.Err())
			}
			if len(courses) == 0 {
				fmt.Println("no courses this semester")
				return nil
			}
			for _, c := range courses {
				fmt.Printf("%-20s %-10s 周%d %d-%d节  %s\n",
					c.CourseName, c.TeacherName, c.WeekDay,
					c.StartNode, c.EndNode, c.Classroom)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&semester, "semester", "", "semester to show (default: configured)")
	return cmd
}

func newClassroomsCmd() *cobra.Command {
	var day, node int

	cmd := &cobra.Command{
		Use:   "classrooms",
		Short: "Show rooms where multi-room courses actually teach",
		RunE: withApp(func(ctx context.Context, a *app) error {
			if err := a.engine.LoadSchedule(ctx, ""); err != nil {
				return err
			}
			if err := a.engine.LoadTeachingClassrooms(ctx, day, node); err != nil {
				return err
			}
			state := a.engine.State()

			records, ok := state.TeachingClassrooms.Data()
			if !ok {
				return fmt.Errorf("classroom query unavailable: %w", state.TeachingClassrooms.Err())
			}
			if len(records) == 0 {
				fmt.Println("no teaching classrooms found")
				return nil
			}
			fmt.Printf("buildings: %v\n", state.TeachingBuildings)
			for _, r := range records {
				fmt.Printf("%-16s 周%d %d-%d节\n", r.Room, r.DayOfWeek, r.StartNode, r.EndNode)
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&day, "day", 1, "day of week, 1 (Monday) to 7 (Sunday)")
	cmd.Flags().IntVar(&node, "node", 1, "paired period number (1 = periods 1-2)")
	return cmd
}

func newEmptyCmd() *cobra.Command {
	var day, node int

	cmd := &cobra.Command{
		Use:   "empty",
		Short: "Show free classrooms for a day and period",
		RunE: withApp(func(ctx context.Context, a *app) error {
			if err := a.engine.LoadSchedule(ctx, ""); err != nil {
				return err
			}
			if err := a.engine.LoadEmptyClassrooms(ctx, day, node); err != nil {
				return err
			}
			state := a.engine.State()

			rooms, ok := state.EmptyClassrooms.Data()
			if !ok {
				return fmt.Errorf("empty-classroom query unavailable: %w", state.EmptyClassrooms.Err())
			}
			if len(rooms) == 0 {
				fmt.Println("no free classrooms")
				return nil
			}
			fmt.Printf("buildings: %v\n", state.EmptyBuildings)
			for _, r := range rooms {
				if r.Capacity > 0 {
					fmt.Printf("%-16s %s (%d seats)\n", r.RoomName, r.Building(), r.Capacity)
				} else {
					fmt.Printf("%-16s %s\n", r.RoomName, r.Building())
				}
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&day, "day", 1, "day of week, 1 (Monday) to 7 (Sunday)")
	cmd.Flags().IntVar(&node, "node", 1, "class period")
	return cmd
}

func newNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes",
		Short: "Show the semester's schedule annotations",
		RunE: withApp(func(ctx context.Context, a *app) error {
			if err := a.engine.LoadSchedule(ctx, ""); err != nil {
				return err
			}
			if err := a.engine.LoadScheduleNotes(ctx); err != nil {
				return err
			}
			state := a.engine.State()

			notes, ok := state.Notes.Data()
			if !ok {
				return fmt.Errorf("notes unavailable: %w", state.Notes.Err())
			}
			if len(notes) == 0 {
				fmt.Println("no schedule notes")
				return nil
			}
			for _, n := range notes {
				fmt.Printf("%s\n  %s\n", n.Title, n.Content)
			}
			return nil
		}),
	}
}

func newPlannedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "planned",
		Short: "Show the centrally planned future schedule",
		RunE: withApp(func(ctx context.Context, a *app) error {
			if err := a.engine.LoadPlannedSchedule(ctx); err != nil {
				return err
			}
			state := a.engine.State()

			planned, ok := state.Planned.Data()
			if !ok {
				return fmt.Errorf("planned schedule unavailable: %w", state.Planned.Err())
			}
			if len(planned) == 0 {
				fmt.Println("no planned courses")
				return nil
			}
			for _, p := range planned {
				fmt.Printf("%-20s %s  %s学分  %s\n",
					p.CourseName, p.Semester, p.Credits, p.Department)
			}
			return nil
		}),
	}
}

func newExportCmd() *cobra.Command {
	var semester, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the timetable as an iCalendar file",
		RunE: withApp(func(ctx context.Context, a *app) error {
			if err := a.engine.LoadSchedule(ctx, domain.Semester(semester)); err != nil {
				return err
			}
			state := a.engine.State()

			courses, ok := state.Courses.Data()
			if !ok {
				return fmt.Errorf("schedule unavailable: %w", state.Courses.Err())
			}

			ics, err := appexport.Calendar(courses, state.StartDate)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, []byte(ics), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("exported %d courses to %s\n", len(courses), out)
			return nil
		}),
	}
	cmd.Flags().StringVar(&semester, "semester", "", "semester to export (default: configured)")
	cmd.Flags().StringVarP(&out, "out", "o", "schedule.ics", "output file")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the schedule synced at a fixed interval",
		RunE: withApp(func(ctx context.Context, a *app) error {
			if !a.cfg.Watcher.Enabled {
				return fmt.Errorf("watcher disabled by configuration")
			}
			watcher := appschedule.NewWatcher(appschedule.WatcherConfig{
				Engine:   a.engine,
				Interval: a.cfg.Watcher.Interval,
				Logger:   a.logger,
			})
			err := watcher.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		}),
	}
}
