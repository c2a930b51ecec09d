// Package cli renders tracker state as terminal text.
package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/benvon/lockin/internal/heatmap"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/stats"
)

// BarWidth is the number of cells in a progress bar.
const BarWidth = 30

// MissingConfigMessage is printed instead of running any command when the
// API URL or credential is not configured.
const MissingConfigMessage = `lockin is not configured.

Set both of these before running any command:

  LOCKIN_API_URL    base URL of the lockin API, e.g. https://lockin.example.com
  LOCKIN_API_TOKEN  bearer token for your account (or run "lockin login")

They may also be placed in a .env file in the current directory.
`

// Bar draws percent (clamped to [0, 100]) as a fixed-width bar.
func Bar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	if math.IsNaN(percent) {
		percent = 0
	}
	percent = math.Min(100, math.Max(0, percent))
	filled := int(math.Round(percent / 100 * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// Report writes the statistics summary. The grind bar is clamped; the
// percentage printed next to it is the raw value.
func Report(w io.Writer, r stats.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Year", fmt.Sprintf("%d", r.Year)},
		{"Total hours", formatHours(r.Total)},
		{"This month", formatHours(r.MonthlyTotal)},
		{"Active days", fmt.Sprintf("%d", r.ActiveDays)},
		{"Avg / active day", formatHours(r.AveragePerActiveDay)},
		{"Current streak", fmt.Sprintf("%d days", r.CurrentStreak)},
	}
	if r.BestWeekday != nil {
		rows = append(rows, [2]string{"Best day", fmt.Sprintf("%s (%s avg)", r.BestWeekday.Weekday, formatHours(r.BestWeekday.Average))})
	}
	if r.AllTimeHigh != nil {
		rows = append(rows, [2]string{"All-time high", fmt.Sprintf("%s on %s", formatHours(r.AllTimeHigh.Hours), r.AllTimeHigh.Date)})
	}
	rows = append(rows,
		[2]string{"Days passed", fmt.Sprintf("%d", r.Projection.DaysPassedInYear)},
		[2]string{"Hours this year", formatHours(r.Projection.TotalHoursInYear)},
		[2]string{"Projected year", formatHours(r.Projection.ProjectedYearTotal)},
		[2]string{"Grind", fmt.Sprintf("%s %.1f%% of %s potential", Bar(r.Grind.BarPercentage, BarWidth), r.Grind.Percentage, formatHours(r.Grind.PotentialTotal))},
		[2]string{"Projected grind", fmt.Sprintf("%.1f%%", r.ProjectedGrindPercentage)},
		[2]string{"Year elapsed", fmt.Sprintf("%s %.1f%%", Bar(r.YearElapsed, BarWidth), r.YearElapsed)},
	)
	if r.LifeElapsed != nil {
		rows = append(rows, [2]string{"Life elapsed", fmt.Sprintf("%s %.1f%%", Bar(*r.LifeElapsed, BarWidth), *r.LifeElapsed)})
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Tasks writes the task list with a progress line.
func Tasks(w io.Writer, tasks []*models.Task, p stats.Progress) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks. Add one with: lockin tasks add \"<title>\"")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		line := fmt.Sprintf("%d\t[%s]\t%s\t%s", i+1, mark, t.Title, shortID(t.ID.String()))
		if t.Motivation != "" {
			line += "\t(" + t.Motivation + ")"
		}
		if _, err := fmt.Fprintln(tw, line); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\n%s %d/%d (%d%%)\n", Bar(float64(p.Percent), BarWidth), p.Completed, p.Total, p.Percent); err != nil {
		return err
	}
	if p.AllDone {
		_, err := fmt.Fprintln(w, "ALL TASKS DONE. VICTORY.")
		return err
	}
	return nil
}

// Heatmap draws the year grid with the theme's palette and a legend.
func Heatmap(w io.Writer, g heatmap.Grid, theme string, today string) error {
	p := heatmap.PaletteFor(theme)
	if _, err := fmt.Fprintf(w, "%d\n%s", g.Year, heatmap.Render(g, p, today)); err != nil {
		return err
	}
	legend := make([]string, 0, heatmap.NumBuckets)
	for i, glyph := range p {
		legend = append(legend, fmt.Sprintf("%q=%s", glyph, bucketLabel(i)))
	}
	_, err := fmt.Fprintf(w, "%s\n", strings.Join(legend, " "))
	return err
}

// Days writes a chart series, one bar per day scaled to 24 hours.
func Days(w io.Writer, days []stats.Day) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, d := range days {
		line := fmt.Sprintf("%s\t%s\t%s", d.Date, Bar(d.Hours/24*100, BarWidth), formatHours(d.Hours))
		if d.Tier != "" {
			line += "\t" + strings.ToUpper(d.Tier)
		}
		if _, err := fmt.Fprintln(tw, line); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Shame writes the time since the last completed task and its message.
func Shame(w io.Writer, elapsed time.Duration) error {
	level := stats.Shame(elapsed)
	_, err := fmt.Fprintf(w, "%s  %s\n", stats.FormatClock(elapsed), level.Message)
	return err
}

// Focus writes the summary of a finished lock-in session.
func Focus(w io.Writer, started, ended time.Time, idleSeconds int) error {
	total := ended.Sub(started).Round(time.Second)
	idle := time.Duration(idleSeconds) * time.Second
	focused := total - idle
	if focused < 0 {
		focused = 0
	}
	_, err := fmt.Fprintf(w, "Locked in for %s (%s idle, %s focused)\n", total, idle, focused)
	return err
}

func bucketLabel(b int) string {
	switch b {
	case heatmap.Empty:
		return "0h"
	case heatmap.Low:
		return "<2h"
	case heatmap.Medium:
		return "<5h"
	case heatmap.High:
		return "<8h"
	default:
		return "8h+"
	}
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
