package suggestion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

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

// hiddenIDs loads the user's permanently hidden suggestion ids.
func (r *sqliteRepository) hiddenIDs(ctx context.Context, userID int64) (_ map[string]bool, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx,
		"SELECT suggestion_id FROM hidden_suggestions WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("query hidden suggestions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	hidden := make(map[string]bool)
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan hidden suggestion: %w", err)
		}
		hidden[id] = true
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return hidden, nil
}

// hide marks a suggestion id as permanently excluded.
func (r *sqliteRepository) hide(ctx context.Context, userID int64, suggestionID string, now time.Time) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO hidden_suggestions (user_id, suggestion_id, hidden_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, suggestion_id) DO NOTHING`,
		userID, suggestionID, now.UTC().Format(timestampFormat))
	if err != nil {
		return fmt.Errorf("insert hidden suggestion: %w", err)
	}
	return nil
}

// bucketSuggestions loads the cached suggestions for one bucket in position
// order.
func (r *sqliteRepository) bucketSuggestions(
	ctx context.Context,
	userID int64,
	bucket Bucket,
) (_ []Suggestion, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT ws.suggestion_id, ws.exercise_id, e.name, ws.muscle, ws.reason, ws.bonus, ws.created_at
		FROM workout_suggestions ws
		JOIN exercises e ON e.id = ws.exercise_id
		WHERE ws.user_id = ? AND ws.bucket = ?
		ORDER BY ws.position`, userID, string(bucket))
	if err != nil {
		return nil, fmt.Errorf("query workout suggestions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var suggestions []Suggestion
	for rows.Next() {
		var (
			s            Suggestion
			createdAtStr string
		)
		if err = rows.Scan(&s.ID, &s.ExerciseID, &s.ExerciseName, &s.Muscle, &s.Reason,
			&s.Bonus, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scan workout suggestion: %w", err)
		}
		if s.CreatedAt, err = time.Parse(timestampFormat, createdAtStr); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		suggestions = append(suggestions, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return suggestions, nil
}

// replaceBucket swaps the cached suggestions for one bucket in a single
// transaction.
func (r *sqliteRepository) replaceBucket(
	ctx context.Context,
	userID int64,
	bucket Bucket,
	suggestions []Suggestion,
) error {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", rollbackErr))
		}
	}(tx)

	_, err = tx.ExecContext(ctx,
		"DELETE FROM workout_suggestions WHERE user_id = ? AND bucket = ?",
		userID, string(bucket))
	if err != nil {
		return fmt.Errorf("delete workout suggestions: %w", err)
	}

	for i, s := range suggestions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO workout_suggestions
				(user_id, bucket, position, suggestion_id, exercise_id, muscle, reason, bonus, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, string(bucket), i+1, s.ID, s.ExerciseID, s.Muscle, s.Reason, s.Bonus,
			s.CreatedAt.UTC().Format(timestampFormat))
		if err != nil {
			return fmt.Errorf("insert workout suggestion: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// bucketsContaining returns the buckets whose cache currently holds the
// suggestion id.
func (r *sqliteRepository) bucketsContaining(
	ctx context.Context,
	userID int64,
	suggestionID string,
) (_ []Bucket, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx,
		"SELECT DISTINCT bucket FROM workout_suggestions WHERE user_id = ? AND suggestion_id = ?",
		userID, suggestionID)
	if err != nil {
		return nil, fmt.Errorf("query buckets containing suggestion: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var buckets []Bucket
	for rows.Next() {
		var bucket string
		if err = rows.Scan(&bucket); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		buckets = append(buckets, Bucket(bucket))
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return buckets, nil
}
