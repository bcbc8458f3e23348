package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Server        ServerConfig   `toml:"server"`
	Store         StoreConfig    `toml:"store"`
	User          UserConfig     `toml:"user"`
	Schedule      ScheduleConfig `toml:"schedule"`
	Notifications NotifyConfig   `toml:"notifications"`
	Calendar      CalendarConfig `toml:"calendar"`
	Log           LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

type StoreConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "memory"
	Path   string `toml:"path"`   // empty means the default database path
}

type UserConfig struct {
	ID int64 `toml:"id"`
}

type ScheduleConfig struct {
	IntervalMinutes  int     `toml:"interval_minutes"`
	WorkStart        string  `toml:"work_start"`
	WorkEnd          string  `toml:"work_end"`
	WorkDays         []int   `toml:"work_days"`
	WorkdayHours     float64 `toml:"workday_hours"`
	DailyTargetHours float64 `toml:"daily_target_hours"` // 0 means work_end minus work_start
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

type CalendarConfig struct {
	Source string `toml:"source"` // ICS URL or file path
}

type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
		},
		User: UserConfig{
			ID: 1,
		},
		Schedule: ScheduleConfig{
			IntervalMinutes:  60,
			WorkStart:        "09:00",
			WorkEnd:          "17:00",
			WorkDays:         []int{1, 2, 3, 4, 5},
			WorkdayHours:     8,
			DailyTargetHours: 8,
		},
		Notifications: NotifyConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "timepulse"), nil
}

// ConfigPath is $TIMEPULSE_CONFIG when set, else config.toml in ConfigDir.
func ConfigPath() (string, error) {
	if v := os.Getenv("TIMEPULSE_CONFIG"); v != "" {
		return v, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func PIDPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "timepulse.pid"), nil
}

// Load reads .env from the working directory when present, then the config
// file, then environment overrides.
func Load() (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TIMEPULSE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TIMEPULSE_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("TIMEPULSE_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("TIMEPULSE_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TIMEPULSE_USER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing TIMEPULSE_USER_ID: %w", err)
		}
		cfg.User.ID = id
	}
	if v := os.Getenv("TIMEPULSE_CALENDAR_SOURCE"); v != "" {
		cfg.Calendar.Source = v
	}
	if v := os.Getenv("TIMEPULSE_NOTIFICATIONS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing TIMEPULSE_NOTIFICATIONS: %w", err)
		}
		cfg.Notifications.Enabled = enabled
	}
	if v := os.Getenv("TIMEPULSE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TIMEPULSE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverSQLite, DriverMemory, c.Store.Driver)
	}
	if c.User.ID <= 0 {
		return fmt.Errorf("user.id must be positive")
	}
	start, err := timesheet.ParseClock(c.Schedule.WorkStart)
	if err != nil {
		return fmt.Errorf("schedule.work_start: %w", err)
	}
	end, err := timesheet.ParseClock(c.Schedule.WorkEnd)
	if err != nil {
		return fmt.Errorf("schedule.work_end: %w", err)
	}
	if end <= start {
		return fmt.Errorf("schedule.work_end %s must be after work_start %s", c.Schedule.WorkEnd, c.Schedule.WorkStart)
	}
	for _, d := range c.Schedule.WorkDays {
		if d < 1 || d > 7 {
			return fmt.Errorf("schedule.work_days: %d is not an ISO weekday", d)
		}
	}
	if c.Schedule.WorkdayHours <= 0 || c.Schedule.DailyTargetHours < 0 {
		return fmt.Errorf("schedule: workday_hours must be positive and daily_target_hours not negative")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Set persists one section.key value in the config file using a
// read-modify-write approach to preserve other settings.
func Set(path, section, key string, value any) error {
	cfg := make(map[string]any)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	sec, ok := cfg[section].(map[string]any)
	if !ok {
		sec = make(map[string]any)
	}
	sec[key] = value
	cfg[section] = sec

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}

func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
