package score

import (
	"math"
	"time"
)

// Bonus awarded for beating each horizon's record. Additive, so a genuine
// all-time record collects all four tiers.
var horizonBonus = map[Horizon]int{
	HorizonCurrent: 50,
	HorizonQuarter: 150,
	HorizonYear:    200,
	HorizonAllTime: 300,
}

const epleyDivisor = 30.0

// personalBestValue derives the comparable record value from a workout.
// Precedence: pace when both distance and duration are present, then raw
// duration, then the best weighted set as an Epley one-rep max, then raw reps
// for bodyweight work.
func personalBestValue(workout WorkoutData, at time.Time) PersonalBest {
	if workout.DistanceKm > 0 && workout.DurationMinutes > 0 {
		return PersonalBest{
			Value:      workout.DurationMinutes / workout.DistanceKm,
			Type:       ValuePace,
			Unit:       "min/km",
			AchievedAt: at,
		}
	}
	if workout.DurationMinutes > 0 {
		return PersonalBest{
			Value:      workout.DurationMinutes,
			Type:       ValueDuration,
			Unit:       "min",
			AchievedAt: at,
		}
	}

	best1RM := 0.0
	bestReps := 0
	for _, set := range workout.Sets {
		if set.Weight > 0 && set.Reps > 0 {
			if oneRM := epley1RM(set.Weight, set.Reps); oneRM > best1RM {
				best1RM = oneRM
			}
		} else if set.Reps > bestReps {
			bestReps = set.Reps
		}
	}
	if best1RM > 0 {
		return PersonalBest{Value: best1RM, Type: Value1RM, Unit: "kg", AchievedAt: at}
	}
	if bestReps > 0 {
		return PersonalBest{Value: float64(bestReps), Type: ValueReps, Unit: "reps", AchievedAt: at}
	}

	return PersonalBest{Type: ValueUnknown, AchievedAt: at}
}

// epley1RM estimates the one-rep max for a weighted set. A true single is its
// own max.
func epley1RM(weight float64, reps int) float64 {
	if reps == 1 {
		return weight
	}
	return weight * (1 + float64(reps)/epleyDivisor)
}

// betterThan reports whether candidate beats the stored record. Pace is
// lower-is-better, everything else higher-is-better. An absent record counts
// as beaten.
func betterThan(candidate PersonalBest, stored PersonalBest, exists bool) bool {
	if candidate.Type == ValueUnknown || candidate.Value == 0 {
		return false
	}
	if !exists {
		return true
	}
	if candidate.Type == ValuePace && stored.Type == ValuePace {
		return candidate.Value < stored.Value
	}
	return candidate.Value > stored.Value
}

// updateBests checks the candidate value against every horizon independently,
// replacing beaten records in place. It returns the cumulative bonus for the
// horizons beaten.
func updateBests(bests map[Horizon]PersonalBest, candidate PersonalBest) int {
	if candidate.Type == ValueUnknown {
		return 0
	}
	bonus := 0
	for _, horizon := range Horizons {
		stored, exists := bests[horizon]
		if betterThan(candidate, stored, exists) {
			bests[horizon] = candidate
			bonus += horizonBonus[horizon]
		}
	}
	return bonus
}

// horizonWindows maps each bounded horizon to its trailing window.
var horizonWindows = map[Horizon]time.Duration{
	HorizonCurrent: 30 * 24 * time.Hour,
	HorizonQuarter: 90 * 24 * time.Hour,
	HorizonYear:    365 * 24 * time.Hour,
}

// expireBests drops records that have aged out of their trailing window so a
// stale "current" best cannot block new records forever. The all-time horizon
// never expires.
func expireBests(bests map[Horizon]PersonalBest, now time.Time) {
	for horizon, window := range horizonWindows {
		if stored, ok := bests[horizon]; ok && now.Sub(stored.AchievedAt) > window {
			delete(bests, horizon)
		}
	}
}

// roundTo keeps stored record values tidy at two decimals.
func roundTo(value float64) float64 {
	return math.Round(value*100) / 100
}
