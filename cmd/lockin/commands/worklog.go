package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/benvon/lockin/internal/cli"
	"github.com/benvon/lockin/internal/heatmap"
	"github.com/benvon/lockin/internal/stats"
	"github.com/spf13/cobra"
)

func newLogCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "log <hours>",
		Short: "Log hours worked for a day (default today)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid hours %q: %w", args[0], err)
			}
			if date == "" {
				date = a.today()
			}
			if err := a.logs.Upsert(cmd.Context(), a.owner(), date, hours); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %.1fh for %s\n", hours, date)
			if tier := stats.Tier(hours); tier != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s DAY.\n", strings.ToUpper(tier))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date to log (YYYY-MM-DD)")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var year, days, offset int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show totals, streak, projection and grind percentage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.logs.Load(cmd.Context(), a.owner()); err != nil {
				return err
			}
			now := a.now()
			h := a.logs.Hours()

			if days > 0 {
				return cli.Days(cmd.OutOrStdout(), stats.RangeWindow(h, now, days, offset))
			}

			if year == 0 {
				year = now.Year()
			}
			settings := stats.GrindSettings{SleepHours: a.cfg.Settings.SleepHours, OtherHours: a.cfg.Settings.OtherHours}
			report := stats.Summary(h, now, year, settings, a.birth())
			return cli.Report(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Year to report (default current)")
	cmd.Flags().IntVar(&days, "range", 0, "Show a per-day chart of the last N days, e.g. 7, 14 or 28")
	cmd.Flags().IntVar(&offset, "offset", 0, "Shift the --range window back by this many windows")
	return cmd
}

func newHeatmapCmd(a *app) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Draw the calendar heatmap for a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.logs.Load(cmd.Context(), a.owner()); err != nil {
				return err
			}
			if year == 0 {
				year = a.now().Year()
			}
			grid := heatmap.Year(a.logs.Hours(), year)
			return cli.Heatmap(cmd.OutOrStdout(), grid, a.state.Theme(), a.today())
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Year to draw (default current)")
	return cmd
}

func newHypeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hype",
		Short: "Get hyped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.backend.Hype(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
