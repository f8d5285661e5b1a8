package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != defaultListen {
		t.Errorf("Listen = %q, want %q", cfg.Listen, defaultListen)
	}
	if cfg.Calendar.DurationHours != 4 {
		t.Errorf("DurationHours = %d, want 4", cfg.Calendar.DurationHours)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
listen: ":9000"
site_origin: "https://startright.example/"
api_timeout: 5s
image_cache:
  warm_cron: "off"
info_sessions:
  - title: Volunteer orientation
    rrule: "FREQ=WEEKLY;BYDAY=TU"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.SiteOrigin != "https://startright.example" {
		t.Errorf("SiteOrigin not trimmed: %q", cfg.SiteOrigin)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Errorf("APITimeout = %s, want 5s", cfg.APITimeout)
	}
	if cfg.ImageCache.WarmSchedule() != "" {
		t.Errorf("warm schedule should be disabled, got %q", cfg.ImageCache.WarmSchedule())
	}
	if cfg.ImageCache.Bucket != defaultBucket {
		t.Errorf("Bucket = %q, want default", cfg.ImageCache.Bucket)
	}
	if len(cfg.InfoSessions) != 1 || cfg.InfoSessions[0].DurationMinutes != 60 {
		t.Errorf("info session defaults not applied: %+v", cfg.InfoSessions)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: \":9000\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STARTRIGHT_LISTEN", ":7000")
	t.Setenv("STARTRIGHT_IMAGE_CACHE_BUCKET", "test-bucket")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != ":7000" {
		t.Errorf("Listen = %q, want env override", cfg.Listen)
	}
	if cfg.ImageCache.Bucket != "test-bucket" {
		t.Errorf("Bucket = %q, want env override", cfg.ImageCache.Bucket)
	}
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 1)
	go func() {
		_ = Watch(ctx, path, 20*time.Millisecond, func(c *Config) {
			select {
			case got <- c:
			default:
			}
		})
	}()

	// Give the watcher a moment to register.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("announcement: Doors open at 8\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.Announcement != "Doors open at 8" {
			t.Errorf("Announcement = %q", c.Announcement)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config change not observed")
	}
}

func TestWatchIgnoresRemovedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := Save(path, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 1)
	go func() {
		_ = Watch(ctx, path, 20*time.Millisecond, func(c *Config) {
			select {
			case got <- c:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.Rename(path, filepath.Join(dir, "config.yaml.bak")); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		t.Fatalf("onChange called after the file was moved away: %+v", c)
	case <-time.After(500 * time.Millisecond):
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("config file was recreated at %s (stat err %v)", path, err)
	}
}
