package stats

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// Progress summarizes task completion.
type Progress struct {
	Completed int  `json:"completed"`
	Total     int  `json:"total"`
	Percent   int  `json:"percent"`
	AllDone   bool `json:"all_done"`
}

// TaskProgress returns the rounded completion percentage. AllDone requires at
// least one task.
func TaskProgress(completed, total int) Progress {
	p := Progress{Completed: completed, Total: total}
	if total > 0 {
		p.Percent = int(math.Round(100 * float64(completed) / float64(total)))
		p.AllDone = completed == total
	}
	return p
}

// Day is one point of a chart series.
type Day struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
	Tier  string  `json:"tier,omitempty"`
}

// Tier names a day by how far past ten hours it went.
func Tier(hours float64) string {
	switch {
	case hours >= 14:
		return "god tier"
	case hours >= 13:
		return "zenith"
	case hours >= 12:
		return "overdrive"
	case hours >= 11:
		return "ignite"
	case hours >= 10:
		return "legendary"
	default:
		return ""
	}
}

// Range returns one entry per day for the days ending at end, oldest first.
// Missing days have zero hours.
func Range(h WorkHours, end time.Time, days int) []Day {
	if days <= 0 {
		return nil
	}
	out := make([]Day, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := dayKey(end, -i)
		out = append(out, Day{Date: d, Hours: h[d], Tier: Tier(h[d])})
	}
	return out
}

// RangeWindow returns the window of days ending offset windows before now.
// offset zero is the window ending today.
func RangeWindow(h WorkHours, now time.Time, days, offset int) []Day {
	if offset < 0 {
		offset = 0
	}
	return Range(h, now.AddDate(0, 0, -offset*days), days)
}

// Years lists the years that have data plus the current year, newest first.
func Years(h WorkHours, now time.Time) []int {
	seen := map[int]bool{now.Year(): true}
	for d := range h {
		if len(d) < 4 {
			continue
		}
		if y, err := strconv.Atoi(d[:4]); err == nil {
			seen[y] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// Report aggregates every statistic for one year as seen from now.
type Report struct {
	Year                     int             `json:"year"`
	Total                    float64         `json:"total"`
	MonthlyTotal             float64         `json:"monthly_total"`
	ActiveDays               int             `json:"active_days"`
	AveragePerActiveDay      float64         `json:"average_per_active_day"`
	CurrentStreak            int             `json:"current_streak"`
	BestWeekday              *WeekdayAverage `json:"best_weekday,omitempty"`
	AllTimeHigh              *Peak           `json:"all_time_high,omitempty"`
	Projection               Projection      `json:"projection"`
	Grind                    GrindResult     `json:"grind"`
	ProjectedGrindPercentage float64         `json:"projected_grind_percentage"`
	YearElapsed              float64         `json:"year_elapsed"`
	LifeElapsed              *float64        `json:"life_elapsed,omitempty"`
	Years                    []int           `json:"years"`
}

// Summary computes a Report. birth may be nil when unknown.
func Summary(h WorkHours, now time.Time, year int, settings GrindSettings, birth *time.Time) Report {
	proj := Project(h, year, now)
	r := Report{
		Year:                     year,
		Total:                    Total(h),
		MonthlyTotal:             MonthlyTotal(h, now),
		ActiveDays:               ActiveDays(h),
		AveragePerActiveDay:      AveragePerActiveDay(h),
		CurrentStreak:            CurrentStreak(h, now),
		Projection:               proj,
		Grind:                    Grind(proj.TotalHoursInYear, proj.DaysPassedInYear, settings),
		ProjectedGrindPercentage: ProjectedGrindPercentage(proj.ProjectedYearTotal, settings),
		YearElapsed:              YearElapsed(now),
		Years:                    Years(h, now),
	}
	if best, ok := BestWeekday(h, year); ok {
		r.BestWeekday = &best
	}
	if peak, ok := AllTimeHigh(h); ok {
		r.AllTimeHigh = &peak
	}
	if birth != nil {
		life := LifeElapsed(*birth, now)
		r.LifeElapsed = &life
	}
	return r
}
