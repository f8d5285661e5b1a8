package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"startright/internal/calendar"
	"startright/internal/web"
)

var icsOutput string

var icsCmd = &cobra.Command{
	Use:   "ics <eventId>",
	Short: "Export an event as an .ics calendar file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid event id %q", args[0])
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ev, err := newAPIClient(cfg).GetEvent(cmd.Context(), id)
		if err != nil {
			return err
		}
		body, err := calendar.BuildICS(*ev, time.Now(), web.CalendarOptions(cfg))
		if err != nil {
			return err
		}

		out := icsOutput
		if out == "" {
			out = calendar.Filename(*ev)
		}
		if out == "-" {
			_, err = cmd.OutOrStdout().Write(body)
			return err
		}
		if err := os.WriteFile(out, body, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", out)
		return nil
	},
}

func init() {
	icsCmd.Flags().StringVarP(&icsOutput, "output", "o", "", `Output file ("-" for stdout; default <event-title>.ics)`)
	rootCmd.AddCommand(icsCmd)
}
