// Package generator picks workout suggestions for lagging muscles from the
// exercise catalog, enforcing variety and avoiding repeats.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/tmduggan/Gordon-sub000/internal/catalog"
)

// Lagging is one ranked lagging muscle to find an exercise for.
type Lagging struct {
	Muscle string
	Bonus  int
	Reason string
}

// Suggestion is one picked exercise for one lagging muscle.
type Suggestion struct {
	ID           string    `json:"id"`
	ExerciseID   int       `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	Muscle       string    `json:"muscle"`
	Reason       string    `json:"reason"`
	Bonus        int       `json:"bonus"`
	CreatedAt    time.Time `json:"created_at"`
}

// Filter restricts the catalog for one equipment-category bucket. A nil
// Equipment map allows every exercise; CardioOnly overrides the equipment
// check entirely.
type Filter struct {
	CardioOnly bool
	Equipment  map[string]bool
}

func (f Filter) allows(exercise catalog.Exercise) bool {
	if f.CardioOnly {
		return exercise.IsCardio()
	}
	if f.Equipment == nil {
		return true
	}
	return exercise.HasAllEquipment(f.Equipment)
}

// Generator picks suggestions from an exercise pool. The random source is
// injected so tests can seed it.
type Generator struct {
	pool   []catalog.Exercise
	hidden map[string]bool
	rng    *rand.Rand
}

// New constructs a generator over the given exercise pool.
func New(pool []catalog.Exercise, hidden map[string]bool, rng *rand.Rand) *Generator {
	return &Generator{
		pool:   pool,
		hidden: hidden,
		rng:    rng,
	}
}

// SuggestionID builds the stable id for an exercise-muscle pair; the hidden
// set stores these.
func SuggestionID(exerciseID int, muscle string) string {
	return fmt.Sprintf("%d-%s", exerciseID, muscle)
}

// Generate walks the lagging muscles in priority order and picks at most one
// exercise per muscle, up to maxTotal suggestions including the ones in keep.
// Entries in keep pre-claim their exercise, equipment, and muscle so a
// one-slot regeneration cannot duplicate what the user already sees. Only
// newly picked suggestions are returned.
func (g *Generator) Generate(lagging []Lagging, filter Filter, keep []Suggestion, maxTotal int) []Suggestion {
	usedExercises := make(map[int]bool)
	usedEquipment := make(map[string]bool)
	coveredMuscles := make(map[string]bool)
	for _, s := range keep {
		usedExercises[s.ExerciseID] = true
		coveredMuscles[s.Muscle] = true
		for _, ex := range g.pool {
			if ex.ID == s.ExerciseID {
				for _, token := range ex.EquipmentTokens() {
					usedEquipment[token] = true
				}
				break
			}
		}
	}

	var picked []Suggestion
	for _, lag := range lagging {
		if len(keep)+len(picked) >= maxTotal {
			break
		}
		if coveredMuscles[lag.Muscle] {
			continue
		}

		var candidates []catalog.Exercise
		for _, exercise := range g.pool {
			if !exercise.WorksMuscle(lag.Muscle) {
				continue
			}
			if !filter.allows(exercise) {
				continue
			}
			if usedExercises[exercise.ID] {
				continue
			}
			candidates = append(candidates, exercise)
		}
		if len(candidates) == 0 {
			continue
		}

		// Prefer exercises whose equipment is new in this pass; fall back
		// to the full candidate set when everything overlaps.
		var fresh []catalog.Exercise
		for _, exercise := range candidates {
			overlap := false
			for _, token := range exercise.EquipmentTokens() {
				if usedEquipment[token] {
					overlap = true
					break
				}
			}
			if !overlap {
				fresh = append(fresh, exercise)
			}
		}
		if len(fresh) == 0 {
			fresh = candidates
		}

		exercise := fresh[g.rng.Intn(len(fresh))]

		// A hidden pick costs the muscle its slot; no substitute is drawn.
		id := SuggestionID(exercise.ID, lag.Muscle)
		if g.hidden[id] {
			continue
		}

		picked = append(picked, Suggestion{
			ID:           id,
			ExerciseID:   exercise.ID,
			ExerciseName: exercise.Name,
			Muscle:       lag.Muscle,
			Reason:       lag.Reason,
			Bonus:        lag.Bonus,
		})
		usedExercises[exercise.ID] = true
		coveredMuscles[lag.Muscle] = true
		for _, token := range exercise.EquipmentTokens() {
			usedEquipment[token] = true
		}
	}

	return picked
}
