package suggestion

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tmduggan/Gordon-sub000/internal/catalog"
	"github.com/tmduggan/Gordon-sub000/internal/contexthelpers"
	"github.com/tmduggan/Gordon-sub000/internal/errors"
	"github.com/tmduggan/Gordon-sub000/internal/score"
	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
	"github.com/tmduggan/Gordon-sub000/internal/suggestion/internal/generator"
	"golang.org/x/sync/singleflight"
)

// ErrQuotaExceeded signals that the user is out of hide or refresh actions
// for the day. Not a failure; handlers surface it as a quota message.
var ErrQuotaExceeded = errors.NewSentinel("daily quota exceeded")

const (
	suggestionTTL  = 24 * time.Hour
	maxSuggestions = 3
)

type exerciseSource interface {
	List(ctx context.Context) ([]catalog.Exercise, error)
}

type muscleScoreSource interface {
	MuscleScores(ctx context.Context) ([]score.MuscleScore, error)
}

type quotaGuard interface {
	RecordHide(ctx context.Context) (bool, int, error)
	RecordRefresh(ctx context.Context) (bool, int, error)
}

// Service owns the lagging-muscle analysis and the per-bucket suggestion
// caches.
type Service struct {
	repo    *sqliteRepository
	catalog exerciseSource
	scores  muscleScoreSource
	quotas  quotaGuard
	logger  *slog.Logger
	now     func() time.Time
	newRand func() *rand.Rand
	group   singleflight.Group
}

// NewService creates a new suggestion service.
func NewService(
	db *sqlite.Database,
	exercises exerciseSource,
	scores muscleScoreSource,
	quotas quotaGuard,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:    newSQLiteRepository(db, logger),
		catalog: exercises,
		scores:  scores,
		quotas:  quotas,
		logger:  logger,
		now:     time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// Lagging classifies and ranks the user's lagging muscles.
func (s *Service) Lagging(ctx context.Context) ([]LaggingMuscle, error) {
	exercises, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	scores, err := s.scores.MuscleScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("load muscle scores: %w", err)
	}
	return analyzeLagging(exercises, scores, s.now()), nil
}

// For returns the cached suggestions for a bucket, regenerating when the
// cache is empty or older than the TTL. Concurrent regenerations for the
// same user and bucket collapse into one.
func (s *Service) For(ctx context.Context, bucket Bucket) ([]Suggestion, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	cached, err := s.repo.bucketSuggestions(ctx, userID, bucket)
	if err != nil {
		return nil, fmt.Errorf("load cached suggestions: %w", err)
	}
	if len(cached) > 0 && s.now().Sub(cached[0].CreatedAt) <= suggestionTTL {
		return cached, nil
	}

	return s.regenerateShared(ctx, userID, bucket)
}

// Refresh discards the bucket's cache and regenerates it, consuming one
// refresh action. Returns ErrQuotaExceeded when the daily limit is spent.
func (s *Service) Refresh(ctx context.Context, bucket Bucket) ([]Suggestion, error) {
	allowed, remaining, err := s.quotas.RecordRefresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("record refresh: %w", err)
	}
	if !allowed {
		return nil, errors.Wrap(ErrQuotaExceeded, "refresh rejected",
			slog.Int("remaining", remaining))
	}

	userID := contexthelpers.AuthenticatedUserID(ctx)
	return s.regenerateShared(ctx, userID, bucket)
}

// Hide permanently excludes one suggestion id and refills the slot in every
// bucket that was showing it, consuming one hide action.
func (s *Service) Hide(ctx context.Context, suggestionID string) error {
	allowed, remaining, err := s.quotas.RecordHide(ctx)
	if err != nil {
		return fmt.Errorf("record hide: %w", err)
	}
	if !allowed {
		return errors.Wrap(ErrQuotaExceeded, "hide rejected",
			slog.Int("remaining", remaining))
	}

	userID := contexthelpers.AuthenticatedUserID(ctx)
	now := s.now()

	affected, err := s.repo.bucketsContaining(ctx, userID, suggestionID)
	if err != nil {
		return fmt.Errorf("find buckets containing suggestion: %w", err)
	}

	if err = s.repo.hide(ctx, userID, suggestionID, now); err != nil {
		return fmt.Errorf("hide suggestion: %w", err)
	}

	for _, bucket := range affected {
		if err = s.refillSlot(ctx, userID, bucket, suggestionID); err != nil {
			return fmt.Errorf("refill bucket %s: %w", bucket, err)
		}
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "suggestion hidden",
		slog.String("suggestion_id", suggestionID),
		slog.Int("buckets_refilled", len(affected)))

	return nil
}

// regenerateShared collapses concurrent regenerations per user and bucket.
func (s *Service) regenerateShared(ctx context.Context, userID int64, bucket Bucket) ([]Suggestion, error) {
	key := fmt.Sprintf("%d/%s", userID, bucket)
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.regenerate(ctx, userID, bucket)
	})
	if err != nil {
		return nil, err
	}
	suggestions, _ := result.([]Suggestion)
	return suggestions, nil
}

func (s *Service) regenerate(ctx context.Context, userID int64, bucket Bucket) ([]Suggestion, error) {
	suggestions, err := s.generate(ctx, bucket, nil)
	if err != nil {
		return nil, err
	}
	if err = s.repo.replaceBucket(ctx, userID, bucket, suggestions); err != nil {
		return nil, fmt.Errorf("persist suggestions: %w", err)
	}
	return suggestions, nil
}

// refillSlot drops the hidden suggestion from the bucket's cache and draws
// one replacement, keeping the surviving entries in place.
func (s *Service) refillSlot(ctx context.Context, userID int64, bucket Bucket, hiddenID string) error {
	cached, err := s.repo.bucketSuggestions(ctx, userID, bucket)
	if err != nil {
		return fmt.Errorf("load cached suggestions: %w", err)
	}

	var keep []Suggestion
	for _, suggestion := range cached {
		if suggestion.ID != hiddenID {
			keep = append(keep, suggestion)
		}
	}

	fresh, err := s.generate(ctx, bucket, keep)
	if err != nil {
		return err
	}

	return s.repo.replaceBucket(ctx, userID, bucket, append(keep, fresh...))
}

// generate runs the analyzer and the generator for a bucket. Entries in keep
// stay claimed and only the remaining slots are drawn.
func (s *Service) generate(ctx context.Context, bucket Bucket, keep []Suggestion) ([]Suggestion, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	exercises, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	scores, err := s.scores.MuscleScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("load muscle scores: %w", err)
	}
	hidden, err := s.repo.hiddenIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load hidden suggestions: %w", err)
	}

	now := s.now()
	lagging := analyzeLagging(exercises, scores, now)
	input := make([]generator.Lagging, len(lagging))
	for i, lag := range lagging {
		input[i] = generator.Lagging{
			Muscle: lag.Muscle,
			Bonus:  lag.Bonus,
			Reason: lag.reason(),
		}
	}

	gen := generator.New(exercises, hidden, s.newRand())
	fresh := gen.Generate(input, bucket.filter(), keep, maxSuggestions)
	for i := range fresh {
		fresh[i].CreatedAt = now
	}

	return fresh, nil
}
