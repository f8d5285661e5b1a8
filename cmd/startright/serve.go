package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"startright/internal/config"
	"startright/internal/imagecache"
	appLog "startright/internal/log"
	"startright/internal/web"
)

var (
	serveListen string
	serveNoWarm bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the website",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Listen = serveListen
		}
		appLog.Info("startright starting",
			"version", Version,
			"listen", cfg.Listen,
			"api", cfg.APIBaseURL,
			"timezone", cfg.Timezone,
			"info_sessions", len(cfg.InfoSessions),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := newAPIClient(cfg)

		// The site keeps working without a cache; images are then linked
		// directly.
		bucket, err := imagecache.OpenBucket(cfg.ImageCache.Path, cfg.ImageCache.Bucket)
		if err != nil {
			appLog.Error("image cache unavailable; serving direct image URLs", err, "path", cfg.ImageCache.Path)
			bucket = nil
		}
		hook := imagecache.NewHook(bucket, imagecache.NewFetcher(cfg.ImageCache.FetchTimeout))
		defer func() {
			hook.Close()
			if bucket != nil {
				if err := bucket.Close(); err != nil {
					appLog.Warn("image cache close failed", "err", err)
				}
			}
		}()

		srv, err := web.NewServer(cfg, client, hook)
		if err != nil {
			return err
		}

		go func() {
			listen := cfg.Listen
			err := config.Watch(ctx, configPath, 0, func(next *config.Config) {
				// The listener is already bound.
				next.Listen = listen
				applyLogLevel(next)
				srv.SetConfig(next)
			})
			if err != nil {
				appLog.Warn("config watch stopped", "err", err)
			}
		}()

		if spec := cfg.ImageCache.WarmSchedule(); spec != "" && !serveNoWarm && bucket != nil {
			c := cron.New()
			_, err := c.AddFunc(spec, func() {
				wctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
				defer cancel()
				if _, _, err := web.WarmImages(wctx, client, hook); err != nil {
					appLog.Warn("scheduled image warm incomplete", "err", err)
				}
			})
			if err != nil {
				appLog.Error("invalid image warm schedule; warming disabled", err, "cron", spec)
			} else {
				c.Start()
				appLog.Info("image warming scheduled", "cron", spec)
				defer func() { <-c.Stop().Done() }()
			}
		}

		if err := web.StartServer(ctx, srv); err != nil {
			return err
		}
		appLog.Info("startright exiting")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
	serveCmd.Flags().BoolVar(&serveNoWarm, "no-warm", false, "Disable scheduled image cache warming")
	rootCmd.AddCommand(serveCmd)
}
