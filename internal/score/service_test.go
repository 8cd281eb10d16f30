package score_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/tmduggan/Gordon-sub000/internal/catalog"
	"github.com/tmduggan/Gordon-sub000/internal/contexthelpers"
	"github.com/tmduggan/Gordon-sub000/internal/score"
	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
)

func newTestService(t *testing.T) (context.Context, *score.Service) {
	t.Helper()
	ctx := t.Context()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})

	_, err = db.ReadWrite.ExecContext(ctx,
		"INSERT INTO users (id, display_name) VALUES (?, ?)", 1, "Test User")
	if err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}

	svc := score.NewService(db, catalog.NewService(db, logger), logger)
	return contexthelpers.AuthenticateContext(ctx, 1), svc
}

func TestService_LogWorkout(t *testing.T) {
	ctx, svc := newTestService(t)

	// Exercise 1 is the seeded bench press: chest with triceps and shoulders.
	result, err := svc.LogWorkout(ctx, 1, score.WorkoutData{
		Sets: []score.Set{{Weight: 135, Reps: 10}, {Weight: 155, Reps: 8}},
	})
	if err != nil {
		t.Fatalf("Failed to log workout: %v", err)
	}

	if result.Score != 259 {
		t.Errorf("Score = %d, want 259", result.Score)
	}

	// A first record beats every horizon.
	if result.Bonus != 700 {
		t.Errorf("Bonus = %d, want 700", result.Bonus)
	}

	wantMuscles := map[string]bool{"chest": true, "triceps": true, "shoulders": true}
	if len(result.MuscleScores) != len(wantMuscles) {
		t.Fatalf("got %d muscle scores, want %d", len(result.MuscleScores), len(wantMuscles))
	}
	for _, ms := range result.MuscleScores {
		if !wantMuscles[ms.Muscle] {
			t.Errorf("unexpected muscle %q in result", ms.Muscle)
		}
		if ms.Today != 18 || ms.ThreeDay != 18 || ms.SevenDay != 18 {
			t.Errorf("muscle %s windows = %d/%d/%d, want 18/18/18",
				ms.Muscle, ms.Today, ms.ThreeDay, ms.SevenDay)
		}
	}

	scores, err := svc.MuscleScores(ctx)
	if err != nil {
		t.Fatalf("Failed to load muscle scores: %v", err)
	}
	if len(scores) != 3 {
		t.Errorf("got %d persisted muscle scores, want 3", len(scores))
	}
}

func TestService_LogWorkout_SecondLogAccumulates(t *testing.T) {
	ctx, svc := newTestService(t)

	if _, err := svc.LogWorkout(ctx, 2, score.WorkoutData{
		Sets: []score.Set{{Reps: 10}},
	}); err != nil {
		t.Fatalf("Failed to log first workout: %v", err)
	}

	result, err := svc.LogWorkout(ctx, 2, score.WorkoutData{
		Sets: []score.Set{{Reps: 12}},
	})
	if err != nil {
		t.Fatalf("Failed to log second workout: %v", err)
	}

	// Push-up hits chest, triceps, shoulders; same day so windows accumulate.
	for _, ms := range result.MuscleScores {
		if ms.Today != 22 {
			t.Errorf("muscle %s today = %d, want 22", ms.Muscle, ms.Today)
		}
	}

	// 12 bodyweight reps beat the earlier 10-rep record in all horizons.
	if result.Bonus != 700 {
		t.Errorf("Bonus = %d, want 700", result.Bonus)
	}
}

func TestService_LogWorkout_UnknownExercise(t *testing.T) {
	ctx, svc := newTestService(t)

	_, err := svc.LogWorkout(ctx, 99999, score.WorkoutData{Sets: []score.Set{{Reps: 10}}})
	if err == nil {
		t.Fatal("expected error for unknown exercise, got nil")
	}
}

func TestService_History(t *testing.T) {
	ctx, svc := newTestService(t)

	if _, err := svc.LogWorkout(ctx, 26, score.WorkoutData{
		DurationMinutes: 30, DistanceKm: 5,
	}); err != nil {
		t.Fatalf("Failed to log workout: %v", err)
	}

	logs, err := svc.History(ctx)
	if err != nil {
		t.Fatalf("Failed to load history: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d history entries, want 1", len(logs))
	}
	if logs[0].ExerciseID != 26 {
		t.Errorf("history exercise id = %d, want 26", logs[0].ExerciseID)
	}
	if logs[0].Score != 60 {
		t.Errorf("history score = %d, want 60", logs[0].Score)
	}

	bests, err := svc.PersonalBests(ctx, 26)
	if err != nil {
		t.Fatalf("Failed to load personal bests: %v", err)
	}
	if got := bests[score.HorizonAllTime]; got.Type != score.ValuePace || got.Value != 6 {
		t.Errorf("allTime best = %+v, want pace 6 min/km", got)
	}
}
