package profile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmduggan/Gordon-sub000/internal/contexthelpers"
	"github.com/tmduggan/Gordon-sub000/internal/ptr"
	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
)

// Service manages profiles and guards the daily action quotas.
type Service struct {
	repo   *sqliteRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new profile service.
func NewService(db *sqlite.Database, logger *slog.Logger) *Service {
	return &Service{
		repo:   newSQLiteRepository(db, logger),
		logger: logger,
		now:    time.Now,
	}
}

// today formats the current local calendar day; quotas reset on this boundary.
func (s *Service) today() string {
	return s.now().Local().Format(time.DateOnly)
}

// EnsureUser signs a user in by display name, creating the account on first
// use, and returns the user id.
func (s *Service) EnsureUser(ctx context.Context, displayName string) (int64, error) {
	userID, err := s.repo.ensureUser(ctx, displayName)
	if err != nil {
		return 0, fmt.Errorf("ensure user: %w", err)
	}
	// Heal the subscription row eagerly so later reads see a tier.
	if _, err = s.repo.subscription(ctx, userID); err != nil {
		return 0, fmt.Errorf("ensure subscription: %w", err)
	}
	return userID, nil
}

// Get returns the authenticated user's profile with remaining quotas.
func (s *Service) Get(ctx context.Context) (Profile, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	displayName, err := s.repo.displayName(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("load display name: %w", err)
	}
	tier, err := s.repo.subscription(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("load subscription: %w", err)
	}
	totalXP, err := s.repo.totalXP(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("load total xp: %w", err)
	}
	quotas, err := s.quotaStatus(ctx, userID, tier)
	if err != nil {
		return Profile{}, fmt.Errorf("load quotas: %w", err)
	}

	return Profile{
		UserID:       userID,
		DisplayName:  displayName,
		Subscription: tier,
		TotalXP:      totalXP,
		Quotas:       quotas,
	}, nil
}

// Tier returns the authenticated user's subscription tier.
func (s *Service) Tier(ctx context.Context) (Tier, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	tier, err := s.repo.subscription(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load subscription: %w", err)
	}
	return tier, nil
}

func (s *Service) quotaStatus(ctx context.Context, userID int64, tier Tier) (QuotaStatus, error) {
	hideLimit, refreshLimit := quotaLimits(tier)
	var status QuotaStatus

	if hideLimit != unlimited {
		used, err := s.repo.usedToday(ctx, userID, actionHide, s.today())
		if err != nil {
			return QuotaStatus{}, fmt.Errorf("load hide counter: %w", err)
		}
		status.HideRemaining = ptr.Ref(max(hideLimit-used, 0))
	}
	if refreshLimit != unlimited {
		used, err := s.repo.usedToday(ctx, userID, actionRefresh, s.today())
		if err != nil {
			return QuotaStatus{}, fmt.Errorf("load refresh counter: %w", err)
		}
		status.RefreshRemaining = ptr.Ref(max(refreshLimit-used, 0))
	}

	return status, nil
}

// RecordHide consumes one hide action if quota remains. It returns whether
// the action was allowed and how many hides remain today (-1 for unlimited).
func (s *Service) RecordHide(ctx context.Context) (bool, int, error) {
	return s.record(ctx, actionHide)
}

// RecordRefresh consumes one refresh action if quota remains. It returns
// whether the action was allowed and how many refreshes remain today (-1 for
// unlimited).
func (s *Service) RecordRefresh(ctx context.Context) (bool, int, error) {
	return s.record(ctx, actionRefresh)
}

func (s *Service) record(ctx context.Context, action string) (bool, int, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	tier, err := s.repo.subscription(ctx, userID)
	if err != nil {
		return false, 0, fmt.Errorf("load subscription: %w", err)
	}

	hideLimit, refreshLimit := quotaLimits(tier)
	limit := hideLimit
	if action == actionRefresh {
		limit = refreshLimit
	}
	if limit == unlimited {
		return true, unlimited, nil
	}

	allowed, used, err := s.repo.tryIncrement(ctx, userID, action, limit, s.today())
	if err != nil {
		return false, 0, fmt.Errorf("record %s: %w", action, err)
	}
	if !allowed {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "quota exhausted",
			slog.String("action", action),
			slog.Int64("user_id", userID),
			slog.Int("limit", limit))
	}

	return allowed, max(limit-used, 0), nil
}
