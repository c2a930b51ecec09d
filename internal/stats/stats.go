// Package stats derives progress statistics from a sparse mapping of
// calendar date to hours worked. Every function is pure: results depend only
// on the arguments, including the reference time.
package stats

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used as the mapping key.
const DateLayout = "2006-01-02"

// StreakCap bounds the backward walk of CurrentStreak.
const StreakCap = 365

// WorkHours maps ISO dates (YYYY-MM-DD) to hours worked on that date.
type WorkHours map[string]float64

// Dates returns the keys of h in ascending date order. Ties in the functions
// below are resolved by this order.
func (h WorkHours) Dates() []string {
	dates := make([]string, 0, len(h))
	for d := range h {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Clone returns an independent copy of h.
func (h WorkHours) Clone() WorkHours {
	out := make(WorkHours, len(h))
	for d, v := range h {
		out[d] = v
	}
	return out
}

// Total returns the sum of all hours.
func Total(h WorkHours) float64 {
	var total float64
	for _, d := range h.Dates() {
		total += h[d]
	}
	return total
}

// MonthlyTotal sums the hours logged in the calendar month of now.
func MonthlyTotal(h WorkHours, now time.Time) float64 {
	prefix := now.Format("2006-01") + "-"
	var total float64
	for _, d := range h.Dates() {
		if strings.HasPrefix(d, prefix) {
			total += h[d]
		}
	}
	return total
}

// ActiveDays counts the dates with more than zero hours.
func ActiveDays(h WorkHours) int {
	n := 0
	for _, v := range h {
		if v > 0 {
			n++
		}
	}
	return n
}

// AveragePerActiveDay divides the total by the number of active days.
// It is zero when there are no active days.
func AveragePerActiveDay(h WorkHours) float64 {
	days := ActiveDays(h)
	if days == 0 {
		return 0
	}
	return Total(h) / float64(days)
}

// CurrentStreak counts consecutive days with hours walking backward from
// today. The walk stops at the first empty day or after StreakCap days, so an
// empty today is a zero streak even when yesterday has hours.
func CurrentStreak(h WorkHours, now time.Time) int {
	streak := 0
	for i := 0; i < StreakCap; i++ {
		if h[dayKey(now, -i)] <= 0 {
			break
		}
		streak++
	}
	return streak
}

// WeekdayAverage is the mean hours logged on one weekday.
type WeekdayAverage struct {
	Weekday time.Weekday `json:"weekday"`
	Average float64      `json:"average"`
	Entries int          `json:"entries"`
}

// BestWeekday returns the weekday with the highest average hours among the
// entries of year. Weekdays without entries are not eligible; ties go to the
// first weekday in Sunday to Saturday order. ok is false when year has no
// entries.
func BestWeekday(h WorkHours, year int) (best WeekdayAverage, ok bool) {
	for _, wd := range WeekdayAverages(h, year) {
		if wd.Entries == 0 {
			continue
		}
		if !ok || wd.Average > best.Average {
			best = wd
			ok = true
		}
	}
	return best, ok
}

// WeekdayAverages returns per-weekday averages for year, indexed Sunday..Saturday.
func WeekdayAverages(h WorkHours, year int) [7]WeekdayAverage {
	var sums [7]float64
	var out [7]WeekdayAverage
	for i := range out {
		out[i].Weekday = time.Weekday(i)
	}

	for _, d := range h.Dates() {
		t, err := time.Parse(DateLayout, d)
		if err != nil || t.Year() != year {
			continue
		}
		wd := t.Weekday()
		sums[wd] += h[d]
		out[wd].Entries++
	}

	for i := range out {
		if out[i].Entries > 0 {
			out[i].Average = sums[i] / float64(out[i].Entries)
		}
	}
	return out
}

// Peak is a single date and the hours logged on it.
type Peak struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// AllTimeHigh returns the entry with the most hours. The earliest date wins
// ties. ok is false when h is empty.
func AllTimeHigh(h WorkHours) (peak Peak, ok bool) {
	for _, d := range h.Dates() {
		if !ok || h[d] > peak.Hours {
			peak = Peak{Date: d, Hours: h[d]}
			ok = true
		}
	}
	return peak, ok
}

func dayKey(now time.Time, offset int) string {
	return now.AddDate(0, 0, offset).Format(DateLayout)
}
