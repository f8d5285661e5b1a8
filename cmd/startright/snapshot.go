package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"startright/internal/capture"
)

var snapOpts struct {
	base     string
	out      string
	paths    []string
	width    int
	height   int
	fullPage bool
	timeout  time.Duration
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save PNG previews of site pages with headless Chromium",
	Long: `snapshot loads pages of a running site in headless Chromium and writes
one PNG per page, e.g. for share cards or a visual check after a deploy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		base := snapOpts.base
		if base == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			base = cfg.SiteOrigin
		}
		written, err := capture.Snapshot(cmd.Context(), capture.Options{
			BaseURL:  base,
			Paths:    snapOpts.paths,
			OutDir:   snapOpts.out,
			Width:    snapOpts.width,
			Height:   snapOpts.height,
			FullPage: snapOpts.fullPage,
			Timeout:  snapOpts.timeout,
		})
		for _, f := range written {
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", f)
		}
		return err
	},
}

func init() {
	f := snapshotCmd.Flags()
	f.StringVar(&snapOpts.base, "base", "", "Site origin to capture (default: site_origin from config)")
	f.StringVarP(&snapOpts.out, "out", "o", "./snapshots", "Output directory")
	f.StringSliceVarP(&snapOpts.paths, "path", "p", []string{"/", "/events"}, "Page paths to capture")
	f.IntVar(&snapOpts.width, "width", capture.DefaultWidth, "Viewport width in pixels")
	f.IntVar(&snapOpts.height, "height", capture.DefaultHeight, "Viewport height in pixels")
	f.BoolVar(&snapOpts.fullPage, "full-page", false, "Capture the whole page, not just the viewport")
	f.DurationVar(&snapOpts.timeout, "timeout", capture.DefaultTimeoutSec*time.Second, "Per-page timeout")
	rootCmd.AddCommand(snapshotCmd)
}
