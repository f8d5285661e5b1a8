package main

import (
	"strings"
	"testing"
	"time"

	"startright/internal/imagecache"
)

func TestRenderStats(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := renderStats(imagecache.Stats{
		Bucket:  "startright-images-v1",
		Entries: 1234,
		Bytes:   5 << 20,
		Oldest:  now.Add(-48 * time.Hour),
		Newest:  now.Add(-time.Minute),
	}, now)

	for _, want := range []string{"startright-images-v1", "1,234", "5.2 MB", "2 days ago", "1 minute ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatsEmpty(t *testing.T) {
	out := renderStats(imagecache.Stats{Bucket: "b"}, time.Now())
	if !strings.Contains(out, "-") {
		t.Errorf("empty bucket should show placeholders:\n%s", out)
	}
}

func TestICSRejectsBadID(t *testing.T) {
	rootCmd.SetArgs([]string{"ics", "abc", "--config", t.TempDir() + "/config.yaml"})
	if err := rootCmd.Execute(); err == nil || !strings.Contains(err.Error(), "invalid event id") {
		t.Errorf("expected invalid id error, got %v", err)
	}
}
