package suggestion

import (
	"fmt"
	"sort"
	"time"

	"github.com/tmduggan/Gordon-sub000/internal/catalog"
	"github.com/tmduggan/Gordon-sub000/internal/score"
)

const (
	underTrainedThreshold = 100
	neglectedAfterDays    = 14

	bonusNeverTrained = 100
	bonusUnderTrained = 50
	bonusNeglected    = 25

	priorityNeverTrained = 1000
	priorityUnderTrained = 500
	priorityNeglected    = 100
)

// analyzeLagging classifies every muscle in the catalog against the user's
// training state and returns the lagging ones ranked by priority, highest
// first. Never-trained muscles always outrank the rest; within a type, the
// longer-neglected muscle wins.
func analyzeLagging(exercises []catalog.Exercise, scores []score.MuscleScore, now time.Time) []LaggingMuscle {
	byMuscle := make(map[string]score.MuscleScore, len(scores))
	for _, s := range scores {
		byMuscle[s.Muscle] = s
	}

	seen := make(map[string]bool)
	var lagging []LaggingMuscle
	for _, exercise := range exercises {
		for _, muscle := range exercise.Muscles() {
			if seen[muscle] {
				continue
			}
			seen[muscle] = true

			s := byMuscle[muscle]
			days := s.DaysSinceTrained(now)

			var (
				laggingType LaggingType
				bonus       int
				base        int
			)
			switch {
			case s.Lifetime == 0:
				laggingType, bonus, base = LaggingNeverTrained, bonusNeverTrained, priorityNeverTrained
			case s.Lifetime < underTrainedThreshold:
				laggingType, bonus, base = LaggingUnderTrained, bonusUnderTrained, priorityUnderTrained
			case days >= neglectedAfterDays:
				laggingType, bonus, base = LaggingNeglected, bonusNeglected, priorityNeglected
			default:
				continue
			}

			if days < 0 {
				days = 0
			}
			lagging = append(lagging, LaggingMuscle{
				Muscle:           muscle,
				Reps:             s.Lifetime,
				Type:             laggingType,
				Bonus:            bonus,
				DaysSinceTrained: days,
				Priority:         base + days,
			})
		}
	}

	sort.SliceStable(lagging, func(i, j int) bool {
		return lagging[i].Priority > lagging[j].Priority
	})

	return lagging
}

// reason renders the user-facing explanation for a lagging muscle.
func (l LaggingMuscle) reason() string {
	switch l.Type {
	case LaggingNeverTrained:
		return fmt.Sprintf("You have never trained %s", l.Muscle)
	case LaggingUnderTrained:
		return fmt.Sprintf("Your %s needs more volume (%d lifetime reps)", l.Muscle, l.Reps)
	default:
		return fmt.Sprintf("You have not trained %s in %d days", l.Muscle, l.DaysSinceTrained)
	}
}
