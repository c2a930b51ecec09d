// Package heatmap bins daily work hours into intensity buckets and lays a
// calendar year out as a week-by-weekday grid.
package heatmap

import (
	"strings"
	"time"

	"github.com/benvon/lockin/internal/stats"
)

// Buckets in ascending intensity.
const (
	Empty = iota
	Low
	Medium
	High
	Max
)

// NumBuckets is the number of distinct buckets.
const NumBuckets = Max + 1

// upper bounds (exclusive) for Low, Medium and High
var thresholds = [...]float64{2, 5, 8}

// Bucket maps hours to an intensity bucket. Zero and negative hours are
// Empty; higher hours never map to a lower bucket.
func Bucket(hours float64) int {
	if hours <= 0 {
		return Empty
	}
	for i, limit := range thresholds {
		if hours < limit {
			return Low + i
		}
	}
	return Max
}

// Cell is one day of the grid.
type Cell struct {
	Date    string       `json:"date"`
	Hours   float64      `json:"hours"`
	Bucket  int          `json:"bucket"`
	Weekday time.Weekday `json:"weekday"`
	Week    int          `json:"week"`
}

// Grid is a full calendar year. Week 0 contains January 1; weeks start on
// Sunday.
type Grid struct {
	Year  int    `json:"year"`
	Weeks int    `json:"weeks"`
	Cells []Cell `json:"cells"`
}

// Year builds the grid for year from h.
func Year(h stats.WorkHours, year int) Grid {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	lead := int(start.Weekday())

	g := Grid{Year: year}
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(stats.DateLayout)
		hours := h[key]
		g.Cells = append(g.Cells, Cell{
			Date:    key,
			Hours:   hours,
			Bucket:  Bucket(hours),
			Weekday: d.Weekday(),
			Week:    (d.YearDay() - 1 + lead) / 7,
		})
	}
	if n := len(g.Cells); n > 0 {
		g.Weeks = g.Cells[n-1].Week + 1
	}
	return g
}

// Palette is the glyph used for each bucket when rendering as text.
type Palette [NumBuckets]string

var palettes = map[string]Palette{
	"light":  {"·", "░", "▒", "▓", "█"},
	"dark":   {" ", "░", "▒", "▓", "█"},
	"hazard": {".", "-", "=", "#", "@"},
	"cyber":  {" ", "∙", "•", "●", "◉"},
}

// Themes lists the theme names that have a palette.
func Themes() []string {
	return []string{"light", "dark", "hazard", "cyber"}
}

// PaletteFor returns the palette of theme, falling back to dark.
func PaletteFor(theme string) Palette {
	if p, ok := palettes[strings.ToLower(theme)]; ok {
		return p
	}
	return palettes["dark"]
}

var weekdayLabels = [7]string{"S", "M", "T", "W", "T", "F", "S"}

// Render draws g as seven text rows, one per weekday, each prefixed with the
// weekday initial. An empty today is drawn as "*".
func Render(g Grid, p Palette, today string) string {
	rows := make([][]string, 7)
	for i := range rows {
		rows[i] = make([]string, g.Weeks)
		for j := range rows[i] {
			rows[i][j] = " "
		}
	}
	for _, c := range g.Cells {
		glyph := p[c.Bucket]
		if c.Date == today && c.Bucket == Empty {
			glyph = "*"
		}
		rows[c.Weekday][c.Week] = glyph
	}

	var b strings.Builder
	for i, row := range rows {
		b.WriteString(weekdayLabels[i])
		b.WriteString(" ")
		b.WriteString(strings.Join(row, ""))
		b.WriteString("\n")
	}
	return b.String()
}
