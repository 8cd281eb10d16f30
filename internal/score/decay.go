package score

import (
	"math"
	"time"
)

// Window caps and weights for the composite score. The caps keep a single
// heavily-trained muscle from dominating comparisons.
const (
	todayCap    = 60.0
	threeDayCap = 120.0
	sevenDayCap = 500.0

	todayWeight    = 1.0
	threeDayWeight = 0.5
	sevenDayWeight = 0.1
)

// calendarDaysBetween returns the number of calendar-day boundaries between
// from and to, ignoring time of day. Both times are compared in local time.
func calendarDaysBetween(from, to time.Time) int {
	from = from.Local()
	to = to.Local()
	fromDate := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.Local)
	toDate := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.Local)
	return int(toDate.Sub(fromDate).Hours() / 24)
}

// decayed applies the lazy window decay to a muscle score as of now. Each
// window zeroes once its threshold in calendar days has passed since the last
// update. LastUpdated is left untouched so days-since-trained stays readable.
func decayed(s MuscleScore, now time.Time) MuscleScore {
	days := calendarDaysBetween(s.LastUpdated, now)
	if days >= 1 {
		s.Today = 0
	}
	if days >= 3 {
		s.ThreeDay = 0
	}
	if days >= 7 {
		s.SevenDay = 0
	}
	return s
}

// Composite blends the three windows into a [0,1] score where recent training
// matters most.
func (s MuscleScore) Composite() float64 {
	score := math.Min(float64(s.Today), todayCap)/todayCap*todayWeight +
		math.Min(float64(s.ThreeDay), threeDayCap)/threeDayCap*threeDayWeight +
		math.Min(float64(s.SevenDay), sevenDayCap)/sevenDayCap*sevenDayWeight
	return math.Min(math.Max(score, 0), 1)
}

// DaysSinceTrained reports whole calendar days since the muscle was last
// updated, as of now. A never-trained muscle (zero LastUpdated) returns -1.
func (s MuscleScore) DaysSinceTrained(now time.Time) int {
	if s.LastUpdated.IsZero() {
		return -1
	}
	return calendarDaysBetween(s.LastUpdated, now)
}
