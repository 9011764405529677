package main

import (
	"context"
	"errors"
	"testing"

	"calgrid/internal/config"
	"calgrid/internal/grid"
	"calgrid/internal/source"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("CALGRID_TEST_KEY", "")
	if got := envOr("CALGRID_TEST_KEY", "fallback"); got != "fallback" {
		t.Errorf("unset: %q", got)
	}
	t.Setenv("CALGRID_TEST_KEY", "set")
	if got := envOr("CALGRID_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("set: %q", got)
	}
}

func TestRunOnceRejectsBadDate(t *testing.T) {
	conf := config.DefaultConfig()
	conf.CacheDir = t.TempDir()
	err := runOnce(context.Background(), conf, source.NewStore(conf), "2025-02-30")
	if !errors.Is(err, grid.ErrInvalidDay) {
		t.Errorf("err = %v, want ErrInvalidDay", err)
	}
}
