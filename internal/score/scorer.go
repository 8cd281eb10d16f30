package score

import (
	"math"
)

const (
	weightXPFactor   = 0.1
	durationXPFactor = 2.0
)

// calculateScore converts a workout into XP. Weighted sets award
// round(reps*weight*0.1), bodyweight sets one XP per rep, and duration adds
// round(minutes*2) on top. Mixed workouts sum both parts.
func calculateScore(workout WorkoutData) int {
	score := 0
	for _, set := range workout.Sets {
		switch {
		case set.Weight > 0:
			score += int(math.Round(float64(set.Reps) * set.Weight * weightXPFactor))
		case set.Reps > 0:
			score += set.Reps
		}
	}
	if workout.DurationMinutes > 0 {
		score += int(math.Round(workout.DurationMinutes * durationXPFactor))
	}
	if score < 0 {
		score = 0
	}
	return score
}

// totalReps sums reps across all sets. Duration-only workouts contribute zero
// reps to the muscle windows.
func totalReps(workout WorkoutData) int {
	reps := 0
	for _, set := range workout.Sets {
		if set.Reps > 0 {
			reps += set.Reps
		}
	}
	return reps
}
