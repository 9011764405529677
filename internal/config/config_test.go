package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"calgrid/internal/grid"
	"calgrid/internal/model"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("default config mismatch (-want +got):\n%s", diff)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff(cfg, again); diff != "" {
		t.Errorf("reloaded config differs (-first +second):\n%s", diff)
	}
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
week_start: Sunday
timezone: UTC
ics:
  - url: https://example.com/team.ics
    name: team
  - url: https://example.com/rooms.ics
    id: rooms
    resource_id: room-a
    color: "#ff0000"
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WeekStart != "sunday" || cfg.WeekStartValue() != grid.Sunday {
		t.Errorf("week start = %q", cfg.WeekStart)
	}
	if cfg.Listen != defaultListen || cfg.HorizonDays != defaultHorizonDays || cfg.MonthPanels != defaultMonthPanels {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.ICS[0].ID != "team" || cfg.ICS[0].ResourceID != "team" {
		t.Errorf("derived ids = %q / %q", cfg.ICS[0].ID, cfg.ICS[0].ResourceID)
	}

	want := []model.Resource{{ID: "team", Name: "team"}, {ID: "room-a", Name: "room-a"}}
	if diff := cmp.Diff(want, cfg.ResourceList()); diff != "" {
		t.Errorf("ResourceList mismatch (-want +got):\n%s", diff)
	}
	if cfg.Location().String() != "UTC" {
		t.Errorf("location = %s", cfg.Location())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad url", func(c *Config) { c.ICS = []ICSConfig{{ID: "x", URL: "not a url"}} }, false},
		{"bad color", func(c *Config) { c.ICS = []ICSConfig{{ID: "x", URL: "https://a.example/x.ics", Color: "reddish"}} }, false},
		{"bad cron", func(c *Config) { c.RefreshCron = "every now and then" }, false},
		{"bad listen", func(c *Config) { c.Listen = "localhost" }, false},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"resource without id", func(c *Config) { c.Resources = []ResourceConfig{{Name: "x"}} }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err == nil) != tc.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}

func TestResourceListExplicit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resources = []ResourceConfig{{ID: "b", Name: "B"}, {ID: "a", Name: "A"}}
	cfg.ICS = []ICSConfig{{ID: "feed", URL: "https://a.example/x.ics", ResourceID: "a"}}
	want := []model.Resource{{ID: "b", Name: "B"}, {ID: "a", Name: "A"}}
	if diff := cmp.Diff(want, cfg.ResourceList()); diff != "" {
		t.Errorf("ResourceList mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyPath(t *testing.T) {
	if _, err := Load(""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Load(\"\") err = %v", err)
	}
	if err := Save("x.yaml", nil); !errors.Is(err, ErrNilConfig) {
		t.Errorf("Save(nil) err = %v", err)
	}
}
