package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"calgrid/internal/grid"
	appLog "calgrid/internal/log"
	"calgrid/internal/model"
)

// NOTE: Load creates a default config file on first run. Files are written
// atomically with 0600 permissions because basic auth credentials may live
// in them.

var (
	ErrEmptyPath = errors.New("config path is empty")
	ErrNilConfig = errors.New("config is nil")
)

const (
	defaultListen       = "127.0.0.1:8080"
	defaultTimezone     = "Asia/Seoul"
	defaultWeekStart    = "monday"
	defaultRefreshCron  = "*/15 * * * *"
	defaultHorizonDays  = 42
	defaultBackfillDays = 42
	defaultMonthPanels  = 120
	defaultLogLevel     = "info"
	defaultCacheDir     = "/var/lib/calgrid/ics-cache"
)

var validate = validator.New()

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url" validate:"required,url"`
	// ID is an internal identifier used for de-dup and logging. Derived
	// from Name or URL when empty.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// ResourceID is the resource row events from this feed belong to in
	// the resource view. Defaults to ID.
	ResourceID string `yaml:"resource_id" json:"resource_id"`
	// Color is passed through to events as their background color.
	Color string `yaml:"color" json:"color" validate:"omitempty,hexcolor|rgb|rgba"`
}

// ResourceConfig is one row of the resource view.
type ResourceConfig struct {
	ID   string `yaml:"id" json:"id" validate:"required"`
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" validate:"required,hostname_port"`

	// Timezone is the IANA timezone events are converted to before they are
	// cut into calendar days.
	Timezone string `yaml:"timezone" json:"timezone" validate:"required,timezone"`

	// WeekStart is "monday" or "sunday". The layout engine has no default
	// of its own; this is the only place one is chosen.
	WeekStart string `yaml:"week_start" json:"week_start" validate:"oneof=monday sunday"`

	// RefreshCron is a standard 5-field cron spec for event refreshes.
	RefreshCron string `yaml:"refresh" json:"refresh" validate:"required"`

	// HorizonDays and BackfillDays bound the window recurring events are
	// expanded over, relative to today.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days" validate:"min=1,max=3660"`
	BackfillDays int `yaml:"backfill_days" json:"backfill_days" validate:"min=0,max=3660"`

	// MonthPanels is how many months the month pager offers on each side of
	// the current one.
	MonthPanels int `yaml:"month_panels" json:"month_panels" validate:"min=0,max=1200"`

	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`

	// CacheDir holds the per-feed HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	ICS       []ICSConfig      `yaml:"ics" json:"ics" validate:"dive"`
	Resources []ResourceConfig `yaml:"resources" json:"resources" validate:"dive"`

	// BasicAuth, if non-nil and complete, enables HTTP Basic Authentication
	// on all endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       defaultListen,
		Timezone:     defaultTimezone,
		WeekStart:    defaultWeekStart,
		RefreshCron:  defaultRefreshCron,
		HorizonDays:  defaultHorizonDays,
		BackfillDays: defaultBackfillDays,
		MonthPanels:  defaultMonthPanels,
		LogLevel:     defaultLogLevel,
		CacheDir:     defaultCacheDir,
		ICS:          []ICSConfig{},
		Resources:    []ResourceConfig{},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if ws, err := grid.ParseWeekStart(c.WeekStart); err == nil {
		c.WeekStart = ws.String()
	} else {
		if c.WeekStart != "" {
			appLog.Warn("unknown week_start; using default", "week_start", c.WeekStart, "default", defaultWeekStart)
		}
		c.WeekStart = defaultWeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.MonthPanels <= 0 {
		c.MonthPanels = defaultMonthPanels
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		src := &c.ICS[i]
		if src.ID == "" {
			if src.Name != "" {
				src.ID = src.Name
			} else {
				src.ID = src.URL
			}
		}
		if src.ResourceID == "" {
			src.ResourceID = src.ID
		}
	}
	if c.Resources == nil {
		c.Resources = []ResourceConfig{}
	}
}

// Validate checks field constraints and that the refresh spec parses.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("config: refresh %q: %w", c.RefreshCron, err)
	}
	return nil
}

// WeekStartValue returns the configured week-start convention.
func (c *Config) WeekStartValue() grid.WeekStart {
	ws, err := grid.ParseWeekStart(c.WeekStart)
	if err != nil {
		ws, _ = grid.ParseWeekStart(defaultWeekStart)
	}
	return ws
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// ResourceList returns the resource rows in configured order. Without an
// explicit list every distinct ICS resource id becomes a row.
func (c *Config) ResourceList() []model.Resource {
	out := make([]model.Resource, 0, len(c.Resources))
	if len(c.Resources) > 0 {
		for _, r := range c.Resources {
			out = append(out, model.Resource{ID: r.ID, Name: r.Name})
		}
		return out
	}
	seen := make(map[string]struct{})
	for _, src := range c.ICS {
		id := src.ResourceID
		if id == "" {
			id = src.ID
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		name := src.Name
		if name == "" {
			name = id
		}
		out = append(out, model.Resource{ID: id, Name: name})
	}
	return out
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there
//     (parent directory created, 0600 perms) and returned.
//   - Otherwise the YAML is read, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Still hand back the defaults so the caller can decide.
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path atomically: temp file in the same directory,
// fsync, chmod 0600, rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
	}
	if cfg == nil {
		return ErrNilConfig
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calgrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
