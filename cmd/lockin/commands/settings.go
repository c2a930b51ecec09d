package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/lockin/internal/config"
	"github.com/benvon/lockin/internal/heatmap"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/stats"
	"github.com/spf13/cobra"
)

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [name]",
		Short:     "Show or set the heatmap theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: heatmap.Themes(),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintf(out, "Theme: %s (available: %s)\n", a.state.Theme(), strings.Join(heatmap.Themes(), ", "))
				return nil
			}
			if err := a.state.SetTheme(args[0]); err != nil {
				return err
			}
			settings := a.cfg.Settings
			settings.Theme = a.state.Theme()
			if err := config.SaveSettings(a.cfg.SettingsPath, settings); err != nil {
				return err
			}
			fmt.Fprintf(out, "Theme set to %s\n", a.state.Theme())
			return nil
		},
	}
}

func newSettingsCmd(a *app) *cobra.Command {
	var sleep, other float64
	var birth string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change grind settings (sleep, other hours, birth date)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.cfg.Settings
			changed := false
			if cmd.Flags().Changed("sleep") {
				s.SleepHours, changed = sleep, true
			}
			if cmd.Flags().Changed("other") {
				s.OtherHours, changed = other, true
			}
			if cmd.Flags().Changed("birth") {
				if birth != "" {
					if _, ok := (config.Settings{BirthDate: birth}).Birth(); !ok {
						return fmt.Errorf("birth date must be formatted %s", models.DateLayout)
					}
				}
				s.BirthDate, changed = birth, true
			}
			if s.SleepHours < 0 || s.OtherHours < 0 || s.SleepHours+s.OtherHours > 24 {
				return fmt.Errorf("sleep and other hours must be non-negative and sum to at most 24")
			}
			if changed {
				if err := config.SaveSettings(a.cfg.SettingsPath, s); err != nil {
					return err
				}
				a.cfg.Settings = s
			}

			grind := stats.GrindSettings{SleepHours: s.SleepHours, OtherHours: s.OtherHours}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sleep hours:      %.1f\n", s.SleepHours)
			fmt.Fprintf(out, "Other hours:      %.1f\n", s.OtherHours)
			fmt.Fprintf(out, "Potential / day:  %.1f\n", grind.PotentialPerDay())
			fmt.Fprintf(out, "Birth date:       %s\n", orDash(&s.BirthDate))
			return nil
		},
	}
	cmd.Flags().Float64Var(&sleep, "sleep", 0, "Hours of sleep per day")
	cmd.Flags().Float64Var(&other, "other", 0, "Other non-work hours per day")
	cmd.Flags().StringVar(&birth, "birth", "", "Birth date (YYYY-MM-DD), empty to clear")
	return cmd
}
