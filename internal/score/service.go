package score

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tmduggan/Gordon-sub000/internal/catalog"
	"github.com/tmduggan/Gordon-sub000/internal/contexthelpers"
	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
)

const defaultHistoryLimit = 100

// exerciseCatalog is the slice of the catalog service this package needs.
type exerciseCatalog interface {
	Get(ctx context.Context, id int) (catalog.Exercise, error)
}

// Service scores workouts and maintains the per-muscle training state.
type Service struct {
	repo    *sqliteRepository
	catalog exerciseCatalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new scoring service.
func NewService(db *sqlite.Database, exercises exerciseCatalog, logger *slog.Logger) *Service {
	return &Service{
		repo:    newSQLiteRepository(db, logger),
		catalog: exercises,
		logger:  logger,
		now:     time.Now,
	}
}

// LogWorkout scores a workout for the authenticated user, updates the muscle
// windows for every muscle the exercise works, checks personal bests, and
// adds the earned XP to the profile total. Everything is committed in one
// transaction.
func (s *Service) LogWorkout(ctx context.Context, exerciseID int, workout WorkoutData) (LogResult, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	now := s.now()

	exercise, err := s.catalog.Get(ctx, exerciseID)
	if err != nil {
		return LogResult{}, fmt.Errorf("look up exercise: %w", err)
	}

	xp := calculateScore(workout)
	reps := totalReps(workout)

	stored, err := s.repo.muscleScores(ctx, userID)
	if err != nil {
		return LogResult{}, fmt.Errorf("load muscle scores: %w", err)
	}
	byMuscle := make(map[string]MuscleScore, len(stored))
	for _, score := range stored {
		byMuscle[score.Muscle] = score
	}

	var updated []MuscleScore
	for _, muscle := range exercise.Muscles() {
		score := decayed(byMuscle[muscle], now)
		score.Muscle = muscle
		score.Today += reps
		score.ThreeDay += reps
		score.SevenDay += reps
		score.Lifetime += reps
		score.LastUpdated = now
		updated = append(updated, score)
	}

	bests, err := s.repo.personalBests(ctx, userID, exerciseID)
	if err != nil {
		return LogResult{}, fmt.Errorf("load personal bests: %w", err)
	}
	expireBests(bests, now)

	candidate := personalBestValue(workout, now)
	candidate.Value = roundTo(candidate.Value)
	bonus := updateBests(bests, candidate)

	log := WorkoutLog{
		ID:              uuid.NewString(),
		ExerciseID:      exerciseID,
		LoggedAt:        now,
		DurationMinutes: workout.DurationMinutes,
		DistanceKm:      workout.DistanceKm,
		Score:           xp,
		Sets:            workout.Sets,
	}

	if err = s.repo.saveWorkout(ctx, userID, log, updated, bests, xp+bonus); err != nil {
		return LogResult{}, fmt.Errorf("save workout: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "workout logged",
		slog.Int("exercise_id", exerciseID),
		slog.Int("score", xp),
		slog.Int("bonus", bonus),
		slog.Int("reps", reps))

	return LogResult{
		LogID:         log.ID,
		Score:         xp,
		Bonus:         bonus,
		MuscleScores:  updated,
		PersonalBests: bests,
	}, nil
}

// MuscleScores returns the authenticated user's muscle windows with decay
// applied as of now. Decayed values are not written back; the next workout
// write persists them.
func (s *Service) MuscleScores(ctx context.Context) ([]MuscleScore, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	now := s.now()

	stored, err := s.repo.muscleScores(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load muscle scores: %w", err)
	}

	scores := make([]MuscleScore, len(stored))
	for i, score := range stored {
		scores[i] = decayed(score, now)
	}
	return scores, nil
}

// PersonalBests returns the authenticated user's records for one exercise,
// with expired horizons dropped.
func (s *Service) PersonalBests(ctx context.Context, exerciseID int) (map[Horizon]PersonalBest, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	bests, err := s.repo.personalBests(ctx, userID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("load personal bests: %w", err)
	}
	expireBests(bests, s.now())
	return bests, nil
}

// History lists the authenticated user's workout logs, newest first.
func (s *Service) History(ctx context.Context) ([]WorkoutLog, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	logs, err := s.repo.history(ctx, userID, defaultHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load workout history: %w", err)
	}
	return logs, nil
}
