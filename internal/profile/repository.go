package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

const (
	actionHide    = "hide"
	actionRefresh = "refresh"
)

type sqliteRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newSQLiteRepository(db *sqlite.Database, logger *slog.Logger) *sqliteRepository {
	return &sqliteRepository{
		db:     db,
		logger: logger,
	}
}

// ensureUser creates the user row for a display name if it does not exist and
// returns the user id either way.
func (r *sqliteRepository) ensureUser(ctx context.Context, displayName string) (int64, error) {
	_, err := r.db.ReadWrite.ExecContext(ctx,
		"INSERT INTO users (display_name) VALUES (?) ON CONFLICT (display_name) DO NOTHING",
		displayName)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	var id int64
	err = r.db.ReadOnly.QueryRowContext(ctx,
		"SELECT id FROM users WHERE display_name = ?", displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("query user id: %w", err)
	}

	return id, nil
}

// displayName fetches the display name for a user id.
func (r *sqliteRepository) displayName(ctx context.Context, userID int64) (string, error) {
	var name string
	err := r.db.ReadOnly.QueryRowContext(ctx,
		"SELECT display_name FROM users WHERE id = ?", userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query display name: %w", err)
	}
	return name, nil
}

// subscription reads the user's tier, writing a basic default when the row is
// missing so a legacy profile heals itself on first load.
func (r *sqliteRepository) subscription(ctx context.Context, userID int64) (Tier, error) {
	var status string
	err := r.db.ReadOnly.QueryRowContext(ctx,
		"SELECT status FROM subscriptions WHERE user_id = ?", userID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err = r.db.ReadWrite.ExecContext(ctx,
			"INSERT INTO subscriptions (user_id, status) VALUES (?, 'basic') ON CONFLICT (user_id) DO NOTHING",
			userID); err != nil {
			return "", fmt.Errorf("heal missing subscription: %w", err)
		}
		r.logger.LogAttrs(ctx, slog.LevelInfo, "healed missing subscription",
			slog.Int64("user_id", userID))
		return TierBasic, nil
	}
	if err != nil {
		return "", fmt.Errorf("query subscription: %w", err)
	}
	return Tier(status), nil
}

// totalXP reads the user's XP total, zero if never awarded.
func (r *sqliteRepository) totalXP(ctx context.Context, userID int64) (int, error) {
	var xp int
	err := r.db.ReadOnly.QueryRowContext(ctx,
		"SELECT total_xp FROM profile_stats WHERE user_id = ?", userID).Scan(&xp)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query total xp: %w", err)
	}
	return xp, nil
}

// usedToday returns how many times the action was recorded today. A counter
// from an earlier date counts as zero (lazy reset happens on the next write).
func (r *sqliteRepository) usedToday(ctx context.Context, userID int64, action string, today string) (int, error) {
	var (
		date  string
		count int
	)
	err := r.db.ReadOnly.QueryRowContext(ctx,
		"SELECT date, count FROM quota_counters WHERE user_id = ? AND action = ?",
		userID, action).Scan(&date, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query quota counter: %w", err)
	}
	if date != today {
		return 0, nil
	}
	return count, nil
}

// tryIncrement performs the quota check-and-increment in one transaction.
// A stale counter is reset to today before the check, so the daily limit
// resets lazily at the first action of a new calendar day. A negative limit
// means unlimited. Returns whether the action was allowed and how many
// actions were used today after the call.
func (r *sqliteRepository) tryIncrement(
	ctx context.Context,
	userID int64,
	action string,
	limit int,
	today string,
) (allowed bool, used int, err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", rollbackErr))
		}
	}(tx)

	var (
		date  string
		count int
	)
	err = tx.QueryRowContext(ctx,
		"SELECT date, count FROM quota_counters WHERE user_id = ? AND action = ?",
		userID, action).Scan(&date, &count)
	if errors.Is(err, sql.ErrNoRows) {
		date, count = today, 0
	} else if err != nil {
		return false, 0, fmt.Errorf("query quota counter: %w", err)
	}
	if date != today {
		count = 0
	}

	if limit >= 0 && count >= limit {
		return false, count, nil
	}

	count++
	_, err = tx.ExecContext(ctx, `
		INSERT INTO quota_counters (user_id, action, date, count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, action) DO UPDATE SET
			date = excluded.date,
			count = excluded.count`,
		userID, action, today, count)
	if err != nil {
		return false, 0, fmt.Errorf("upsert quota counter: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit transaction: %w", err)
	}

	return true, count, nil
}
