package generator_test

import (
	"math/rand"
	"testing"

	"github.com/tmduggan/Gordon-sub000/internal/catalog"
	"github.com/tmduggan/Gordon-sub000/internal/suggestion/internal/generator"
)

func testPool() []catalog.Exercise {
	return []catalog.Exercise{
		{ID: 1, Name: "Bench Press", Target: "chest", SecondaryMuscles: "triceps", Equipment: "barbell", Category: "strength"},
		{ID: 2, Name: "Push-up", Target: "chest", SecondaryMuscles: "triceps", Equipment: "body weight", Category: "strength"},
		{ID: 3, Name: "Squat", Target: "quads", SecondaryMuscles: "glutes", Equipment: "barbell", Category: "strength"},
		{ID: 4, Name: "Lunge", Target: "quads", SecondaryMuscles: "glutes", Equipment: "body weight", Category: "strength"},
		{ID: 5, Name: "Running", Target: "cardiovascular system", Equipment: "body weight", Category: "cardio"},
		{ID: 6, Name: "Curl", Target: "biceps", Equipment: "dumbbell", Category: "strength"},
	}
}

func lagging() []generator.Lagging {
	return []generator.Lagging{
		{Muscle: "chest", Bonus: 100, Reason: "never trained"},
		{Muscle: "quads", Bonus: 50, Reason: "under-trained"},
		{Muscle: "biceps", Bonus: 25, Reason: "neglected"},
		{Muscle: "glutes", Bonus: 25, Reason: "neglected"},
	}
}

func TestGenerate_CapsAndUniqueness(t *testing.T) {
	t.Parallel()
	g := generator.New(testPool(), nil, rand.New(rand.NewSource(1)))

	got := g.Generate(lagging(), generator.Filter{}, nil, 3)

	if len(got) > 3 {
		t.Fatalf("got %d suggestions, want at most 3", len(got))
	}
	seenExercise := make(map[int]bool)
	seenMuscle := make(map[string]bool)
	for _, s := range got {
		if seenExercise[s.ExerciseID] {
			t.Errorf("exercise %d suggested twice", s.ExerciseID)
		}
		if seenMuscle[s.Muscle] {
			t.Errorf("muscle %s suggested twice", s.Muscle)
		}
		seenExercise[s.ExerciseID] = true
		seenMuscle[s.Muscle] = true
	}
}

func TestGenerate_BodyweightFilter(t *testing.T) {
	t.Parallel()
	g := generator.New(testPool(), nil, rand.New(rand.NewSource(1)))
	filter := generator.Filter{Equipment: map[string]bool{"body weight": true}}

	got := g.Generate(lagging(), filter, nil, 3)

	if len(got) == 0 {
		t.Fatal("expected bodyweight suggestions")
	}
	for _, s := range got {
		if s.ExerciseID != 2 && s.ExerciseID != 4 && s.ExerciseID != 5 {
			t.Errorf("exercise %d is not bodyweight", s.ExerciseID)
		}
	}
}

func TestGenerate_CardioFilter(t *testing.T) {
	t.Parallel()
	g := generator.New(testPool(), nil, rand.New(rand.NewSource(1)))
	all := append(lagging(), generator.Lagging{Muscle: "cardiovascular system", Bonus: 100, Reason: "never trained"})

	got := g.Generate(all, generator.Filter{CardioOnly: true}, nil, 3)

	for _, s := range got {
		if s.ExerciseID != 5 {
			t.Errorf("exercise %d is not cardio", s.ExerciseID)
		}
	}
}

func TestGenerate_HiddenSkipsWithoutSubstitute(t *testing.T) {
	t.Parallel()
	// Only one chest exercise passes the bodyweight filter, so hiding its id
	// must leave chest without a suggestion.
	hidden := map[string]bool{generator.SuggestionID(2, "chest"): true}
	g := generator.New(testPool(), hidden, rand.New(rand.NewSource(1)))
	filter := generator.Filter{Equipment: map[string]bool{"body weight": true}}

	got := g.Generate(lagging(), filter, nil, 3)

	for _, s := range got {
		if s.Muscle == "chest" {
			t.Errorf("hidden chest suggestion resurfaced as %+v", s)
		}
	}
}

func TestGenerate_KeepPreClaimsSlots(t *testing.T) {
	t.Parallel()
	g := generator.New(testPool(), nil, rand.New(rand.NewSource(1)))
	keep := []generator.Suggestion{
		{ID: generator.SuggestionID(1, "chest"), ExerciseID: 1, Muscle: "chest"},
		{ID: generator.SuggestionID(4, "quads"), ExerciseID: 4, Muscle: "quads"},
	}

	got := g.Generate(lagging(), generator.Filter{}, keep, 3)

	if len(got) != 1 {
		t.Fatalf("got %d new suggestions, want exactly 1 to fill the open slot", len(got))
	}
	if got[0].Muscle == "chest" || got[0].Muscle == "quads" {
		t.Errorf("regenerated slot reused covered muscle %s", got[0].Muscle)
	}
	if got[0].ExerciseID == 1 || got[0].ExerciseID == 4 {
		t.Errorf("regenerated slot reused exercise %d", got[0].ExerciseID)
	}
}

func TestGenerate_NoEligibleExercises(t *testing.T) {
	t.Parallel()
	g := generator.New(testPool(), nil, rand.New(rand.NewSource(1)))

	got := g.Generate([]generator.Lagging{{Muscle: "forearms", Bonus: 100}}, generator.Filter{}, nil, 3)

	if len(got) != 0 {
		t.Errorf("got %d suggestions for a muscle no exercise works, want 0", len(got))
	}
}
