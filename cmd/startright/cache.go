package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"startright/internal/config"
	"startright/internal/imagecache"
	"startright/internal/web"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(10)
	valueStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var boxStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and fill the image cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show image cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		bucket, err := openBucket(cfg)
		if err != nil {
			return err
		}
		defer bucket.Close()

		st, err := bucket.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderStats(st, time.Now()))
		return nil
	},
}

var cacheWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Fetch every event image into the cache now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		bucket, err := openBucket(cfg)
		if err != nil {
			return err
		}
		defer bucket.Close()
		hook := imagecache.NewHook(bucket, imagecache.NewFetcher(cfg.ImageCache.FetchTimeout))
		defer hook.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()
		requested, stored, warmErr := web.WarmImages(ctx, newAPIClient(cfg), hook)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %d new of %d images\n", okStyle.Render("stored"), stored, requested)
		if warmErr != nil {
			fmt.Fprintln(out, warnStyle.Render("some images failed:"), warmErr)
		}
		return nil
	},
}

func openBucket(cfg *config.Config) (*imagecache.Bucket, error) {
	b, err := imagecache.OpenBucket(cfg.ImageCache.Path, cfg.ImageCache.Bucket)
	if err != nil {
		return nil, fmt.Errorf("open image cache %s: %w", cfg.ImageCache.Path, err)
	}
	return b, nil
}

func renderStats(st imagecache.Stats, now time.Time) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}
	when := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.RelTime(t, now, "ago", "from now")
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		row("bucket", st.Bucket),
		row("entries", humanize.Comma(int64(st.Entries))),
		row("size", humanize.Bytes(uint64(st.Bytes))),
		row("oldest", when(st.Oldest)),
		row("newest", when(st.Newest)),
	))
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheWarmCmd)
	rootCmd.AddCommand(cacheCmd)
}
