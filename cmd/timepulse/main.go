package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tj/go-naturaldate"

	"github.com/christopherklint97/timepulse/internal/config"
	"github.com/christopherklint97/timepulse/internal/service"
	"github.com/christopherklint97/timepulse/internal/store"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

var rootCmd = &cobra.Command{
	Use:           "timepulse",
	Short:         "Timesheet and project tracking",
	Long:          "timepulse logs hours against projects and work orders from plain sentences, shows weekly timesheets and reports, and serves the same data as a JSON API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default ~/.config/timepulse/config.toml)")
	rootCmd.PersistentFlags().Int64("user", 0, "act as this user id instead of the configured one")
}

func main() {
	ctx, stop := signalContext()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle("Error: ")+err.Error())
		os.Exit(1)
	}
}

// app bundles what every command needs once the config is loaded.
type app struct {
	cfg    *config.Config
	store  store.Store
	svc    *service.Service
	logger *slog.Logger
	userID int64
}

func loadConfig() (*config.Config, error) {
	if configFlag != "" {
		os.Setenv("TIMEPULSE_CONFIG", configFlag)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.Log.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Driver == config.DriverMemory {
		return store.NewMemory(), nil
	}
	path := cfg.Store.Path
	if path == "" {
		p, err := store.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, os.Stderr)

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	userID := cfg.User.ID
	if u, _ := cmd.Flags().GetInt64("user"); u > 0 {
		userID = u
	}

	svc := service.New(st, service.Options{
		WorkDays:     cfg.Schedule.WorkDays,
		WorkdayHours: cfg.Schedule.WorkdayHours,
		TargetHours:  cfg.Schedule.DailyTargetHours,
		Logger:       logger,
	})
	return &app{cfg: cfg, store: st, svc: svc, logger: logger, userID: userID}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// parseDate accepts YYYY-MM-DD or natural language such as "yesterday" or
// "last friday", resolved against now.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "today") {
		return now, nil
	}
	if t, err := timesheet.ParseDateKey(s); err == nil {
		return t, nil
	}
	t, err := naturaldate.Parse(s, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	return parseDate(raw, time.Now())
}
