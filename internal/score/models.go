// Package score turns logged workouts into XP, per-muscle training windows,
// and personal bests.
package score

import (
	"time"
)

// Horizon identifies one of the personal-best time horizons.
type Horizon string

const (
	HorizonCurrent Horizon = "current"
	HorizonQuarter Horizon = "quarter"
	HorizonYear    Horizon = "year"
	HorizonAllTime Horizon = "allTime"
)

// Horizons lists every horizon in bonus order, shortest first.
var Horizons = []Horizon{HorizonCurrent, HorizonQuarter, HorizonYear, HorizonAllTime}

// ValueType tells how a personal-best value was measured.
type ValueType string

const (
	Value1RM      ValueType = "1rm"
	ValueReps     ValueType = "reps"
	ValueDuration ValueType = "duration"
	ValuePace     ValueType = "pace"
	ValueUnknown  ValueType = "unknown"
)

// Set is a single weight-and-reps entry within a workout.
type Set struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// WorkoutData is one logged workout for a single exercise. Either Sets or
// DurationMinutes (or both, for mixed exercises) should be present.
type WorkoutData struct {
	Sets            []Set   `json:"sets,omitempty"`
	DurationMinutes float64 `json:"duration_minutes,omitempty"`
	DistanceKm      float64 `json:"distance_km,omitempty"`
}

// MuscleScore tracks training volume for one muscle across three rolling
// windows. The windows only grow between decay events; decay zeroes a window
// once its calendar-day threshold has passed without training.
type MuscleScore struct {
	Muscle      string    `json:"muscle"`
	Today       int       `json:"today"`
	ThreeDay    int       `json:"three_day"`
	SevenDay    int       `json:"seven_day"`
	Lifetime    int       `json:"lifetime"`
	LastUpdated time.Time `json:"last_updated"`
}

// PersonalBest is the record value for one exercise in one horizon.
type PersonalBest struct {
	Value      float64   `json:"value"`
	Type       ValueType `json:"type"`
	Unit       string    `json:"unit"`
	AchievedAt time.Time `json:"achieved_at"`
}

// WorkoutLog is a persisted workout entry.
type WorkoutLog struct {
	ID              string    `json:"id"`
	ExerciseID      int       `json:"exercise_id"`
	LoggedAt        time.Time `json:"logged_at"`
	DurationMinutes float64   `json:"duration_minutes,omitempty"`
	DistanceKm      float64   `json:"distance_km,omitempty"`
	Score           int       `json:"score"`
	Sets            []Set     `json:"sets,omitempty"`
}

// LogResult is returned from logging a workout.
type LogResult struct {
	LogID         string                   `json:"log_id"`
	Score         int                      `json:"score"`
	Bonus         int                      `json:"bonus"`
	MuscleScores  []MuscleScore            `json:"muscle_scores"`
	PersonalBests map[Horizon]PersonalBest `json:"personal_bests"`
}
