package suggestion_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/tmduggan/Gordon-sub000/internal/catalog"
	"github.com/tmduggan/Gordon-sub000/internal/contexthelpers"
	"github.com/tmduggan/Gordon-sub000/internal/errors"
	"github.com/tmduggan/Gordon-sub000/internal/profile"
	"github.com/tmduggan/Gordon-sub000/internal/score"
	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
	"github.com/tmduggan/Gordon-sub000/internal/suggestion"
)

type services struct {
	suggestions *suggestion.Service
	scores      *score.Service
	db          *sqlite.Database
}

func newTestServices(t *testing.T) (context.Context, services) {
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

	catalogSvc := catalog.NewService(db, logger)
	scoreSvc := score.NewService(db, catalogSvc, logger)
	profileSvc := profile.NewService(db, logger)
	suggestionSvc := suggestion.NewService(db, catalogSvc, scoreSvc, profileSvc, logger)

	ctx = contexthelpers.AuthenticateContext(ctx, 1)
	return ctx, services{suggestions: suggestionSvc, scores: scoreSvc, db: db}
}

func TestService_Lagging_FreshUser(t *testing.T) {
	ctx, svcs := newTestServices(t)

	lagging, err := svcs.suggestions.Lagging(ctx)
	if err != nil {
		t.Fatalf("Failed to analyze lagging muscles: %v", err)
	}
	if len(lagging) == 0 {
		t.Fatal("expected lagging muscles for a fresh user")
	}
	for _, lag := range lagging {
		if lag.Type != suggestion.LaggingNeverTrained {
			t.Errorf("muscle %s type = %s, want neverTrained", lag.Muscle, lag.Type)
		}
		if lag.Bonus != 100 || lag.Priority != 1000 {
			t.Errorf("muscle %s bonus/priority = %d/%d, want 100/1000",
				lag.Muscle, lag.Bonus, lag.Priority)
		}
	}
}

func TestService_Lagging_TrainedMuscleReclassified(t *testing.T) {
	ctx, svcs := newTestServices(t)

	// 120 reps of push-ups take chest, triceps, shoulders past the
	// under-trained threshold.
	_, err := svcs.scores.LogWorkout(ctx, 2, score.WorkoutData{
		Sets: []score.Set{{Reps: 60}, {Reps: 60}},
	})
	if err != nil {
		t.Fatalf("Failed to log workout: %v", err)
	}

	lagging, err := svcs.suggestions.Lagging(ctx)
	if err != nil {
		t.Fatalf("Failed to analyze lagging muscles: %v", err)
	}
	for _, lag := range lagging {
		if lag.Muscle == "chest" || lag.Muscle == "triceps" || lag.Muscle == "shoulders" {
			t.Errorf("freshly trained muscle %s still classified %s", lag.Muscle, lag.Type)
		}
	}
}

func TestService_For_CachesWithinTTL(t *testing.T) {
	ctx, svcs := newTestServices(t)

	first, err := svcs.suggestions.For(ctx, suggestion.BucketBodyweightOnly)
	if err != nil {
		t.Fatalf("Failed to get suggestions: %v", err)
	}
	if len(first) == 0 || len(first) > 3 {
		t.Fatalf("got %d suggestions, want 1..3", len(first))
	}

	second, err := svcs.suggestions.For(ctx, suggestion.BucketBodyweightOnly)
	if err != nil {
		t.Fatalf("Failed to get suggestions again: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("cached read size = %d, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("cached read changed suggestion %d: %s != %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestService_For_BucketFiltersEquipment(t *testing.T) {
	ctx, svcs := newTestServices(t)

	suggestions, err := svcs.suggestions.For(ctx, suggestion.BucketCardioOnly)
	if err != nil {
		t.Fatalf("Failed to get cardio suggestions: %v", err)
	}
	// The seeded cardio exercises all target the cardiovascular system, and
	// one suggestion per muscle means a single cardio suggestion.
	for _, s := range suggestions {
		if s.Muscle != "cardiovascular system" && s.Muscle != "quads" &&
			s.Muscle != "upper back" && s.Muscle != "lats" && s.Muscle != "calves" {
			t.Errorf("cardio bucket suggested unrelated muscle %s", s.Muscle)
		}
	}
}

func TestService_Refresh_QuotaExhausts(t *testing.T) {
	ctx, svcs := newTestServices(t)

	for i := range 3 {
		if _, err := svcs.suggestions.Refresh(ctx, suggestion.BucketAllExercises); err != nil {
			t.Fatalf("Refresh %d failed: %v", i+1, err)
		}
	}

	_, err := svcs.suggestions.Refresh(ctx, suggestion.BucketAllExercises)
	if !errors.Is(err, suggestion.ErrQuotaExceeded) {
		t.Errorf("fourth refresh error = %v, want ErrQuotaExceeded", err)
	}
}

func TestService_Hide(t *testing.T) {
	ctx, svcs := newTestServices(t)

	suggestions, err := svcs.suggestions.For(ctx, suggestion.BucketAllExercises)
	if err != nil {
		t.Fatalf("Failed to get suggestions: %v", err)
	}
	if len(suggestions) == 0 {
		t.Fatal("expected suggestions to hide")
	}
	hiddenID := suggestions[0].ID

	if err = svcs.suggestions.Hide(ctx, hiddenID); err != nil {
		t.Fatalf("Failed to hide suggestion: %v", err)
	}

	after, err := svcs.suggestions.For(ctx, suggestion.BucketAllExercises)
	if err != nil {
		t.Fatalf("Failed to get suggestions after hide: %v", err)
	}
	for _, s := range after {
		if s.ID == hiddenID {
			t.Errorf("hidden suggestion %s resurfaced", hiddenID)
		}
	}

	// The second hide exceeds the basic-tier daily limit.
	err = svcs.suggestions.Hide(ctx, "9999-chest")
	if !errors.Is(err, suggestion.ErrQuotaExceeded) {
		t.Errorf("second hide error = %v, want ErrQuotaExceeded", err)
	}
}

func TestParseBucket(t *testing.T) {
	t.Parallel()
	for _, bucket := range suggestion.Buckets {
		if got, err := suggestion.ParseBucket(string(bucket)); err != nil || got != bucket {
			t.Errorf("ParseBucket(%q) = %v, %v", bucket, got, err)
		}
	}
	if _, err := suggestion.ParseBucket("everything"); err == nil {
		t.Error("expected error for unknown bucket")
	}
}
