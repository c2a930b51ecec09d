package stats

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// LifeSpanYears is the span LifeElapsed measures against.
const LifeSpanYears = 80

// Projection extrapolates a year's logged hours to a full-year total.
type Projection struct {
	Year               int     `json:"year"`
	DaysPassedInYear   int     `json:"days_passed_in_year"`
	TotalHoursInYear   float64 `json:"total_hours_in_year"`
	AveragePerDay      float64 `json:"average_per_day"`
	ProjectedYearTotal float64 `json:"projected_year_total"`
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// DaysPassedInYear is the full year length for past years, zero for future
// years and the number of days from January 1 through now, inclusive, for
// the current year.
func DaysPassedInYear(year int, now time.Time) int {
	switch {
	case year < now.Year():
		return DaysInYear(year)
	case year > now.Year():
		return 0
	default:
		return max(1, now.YearDay())
	}
}

// YearTotal sums the hours logged in year.
func YearTotal(h WorkHours, year int) float64 {
	prefix := strconv.Itoa(year) + "-"
	var total float64
	for _, d := range h.Dates() {
		if strings.HasPrefix(d, prefix) {
			total += h[d]
		}
	}
	return total
}

// Project computes the year-end projection for year as seen from now.
func Project(h WorkHours, year int, now time.Time) Projection {
	p := Projection{
		Year:             year,
		DaysPassedInYear: DaysPassedInYear(year, now),
		TotalHoursInYear: YearTotal(h, year),
	}
	if p.DaysPassedInYear > 0 {
		p.AveragePerDay = p.TotalHoursInYear / float64(p.DaysPassedInYear)
	}
	p.ProjectedYearTotal = p.AveragePerDay * 365
	return p
}

// GrindSettings describes the hours of a day that are not available for work.
type GrindSettings struct {
	SleepHours float64 `json:"sleep_hours"`
	OtherHours float64 `json:"other_hours"`
}

// DefaultGrindSettings is eight hours of sleep and two hours of other
// obligations.
var DefaultGrindSettings = GrindSettings{SleepHours: 8, OtherHours: 2}

// PotentialPerDay is 24 minus sleep and other hours, floored at zero.
func (s GrindSettings) PotentialPerDay() float64 {
	return math.Max(0, 24-s.SleepHours-s.OtherHours)
}

// GrindResult compares logged hours with the potential hours budget.
// Percentage is raw and may exceed 100; BarPercentage is clamped to [0, 100].
type GrindResult struct {
	PotentialPerDay float64 `json:"potential_per_day"`
	PotentialTotal  float64 `json:"potential_total"`
	Percentage      float64 `json:"percentage"`
	BarPercentage   float64 `json:"bar_percentage"`
}

// Grind computes the share of the potential hours budget actually worked.
func Grind(totalHoursInYear float64, daysPassed int, s GrindSettings) GrindResult {
	r := GrindResult{PotentialPerDay: s.PotentialPerDay()}
	r.PotentialTotal = float64(daysPassed) * r.PotentialPerDay
	if r.PotentialTotal > 0 {
		r.Percentage = 100 * totalHoursInYear / r.PotentialTotal
	}
	r.BarPercentage = clamp(r.Percentage, 0, 100)
	return r
}

// ProjectedGrindPercentage compares a projected year total with a full year
// of potential hours.
func ProjectedGrindPercentage(projectedYearTotal float64, s GrindSettings) float64 {
	potential := 365 * s.PotentialPerDay()
	if potential <= 0 {
		return 0
	}
	return 100 * projectedYearTotal / potential
}

// YearElapsed returns the percentage of now's calendar year that has passed.
func YearElapsed(now time.Time) float64 {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(1, 0, 0)
	return elapsed(start, end, now)
}

// LifeElapsed returns the percentage of an 80 year span starting at birth
// that has passed, clamped to [0, 100].
func LifeElapsed(birth, now time.Time) float64 {
	end := birth.AddDate(LifeSpanYears, 0, 0)
	return clamp(elapsed(birth, end, now), 0, 100)
}

func elapsed(start, end, now time.Time) float64 {
	span := end.Sub(start)
	if span <= 0 {
		return 0
	}
	return 100 * float64(now.Sub(start)) / float64(span)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
