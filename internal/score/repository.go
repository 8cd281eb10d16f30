package score

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

// sqliteRepository persists muscle windows, personal bests, workout logs, and
// the XP total.
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

// muscleScores loads all muscle windows for a user as stored, without decay.
func (r *sqliteRepository) muscleScores(ctx context.Context, userID int64) (_ []MuscleScore, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT muscle, today, three_day, seven_day, lifetime, last_updated
		FROM muscle_scores
		WHERE user_id = ?
		ORDER BY muscle`, userID)
	if err != nil {
		return nil, fmt.Errorf("query muscle scores: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var scores []MuscleScore
	for rows.Next() {
		var (
			score          MuscleScore
			lastUpdatedStr string
		)
		if err = rows.Scan(&score.Muscle, &score.Today, &score.ThreeDay, &score.SevenDay,
			&score.Lifetime, &lastUpdatedStr); err != nil {
			return nil, fmt.Errorf("scan muscle score: %w", err)
		}
		if score.LastUpdated, err = time.Parse(timestampFormat, lastUpdatedStr); err != nil {
			return nil, fmt.Errorf("parse last_updated: %w", err)
		}
		scores = append(scores, score)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return scores, nil
}

// personalBests loads the per-horizon records for one exercise.
func (r *sqliteRepository) personalBests(
	ctx context.Context,
	userID int64,
	exerciseID int,
) (_ map[Horizon]PersonalBest, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT horizon, value, value_type, unit, achieved_at
		FROM personal_bests
		WHERE user_id = ? AND exercise_id = ?`, userID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("query personal bests: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	bests := make(map[Horizon]PersonalBest)
	for rows.Next() {
		var (
			horizon       string
			best          PersonalBest
			achievedAtStr string
		)
		if err = rows.Scan(&horizon, &best.Value, &best.Type, &best.Unit, &achievedAtStr); err != nil {
			return nil, fmt.Errorf("scan personal best: %w", err)
		}
		if best.AchievedAt, err = time.Parse(timestampFormat, achievedAtStr); err != nil {
			return nil, fmt.Errorf("parse achieved_at: %w", err)
		}
		bests[Horizon(horizon)] = best
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return bests, nil
}

// saveWorkout commits the full outcome of one logged workout in a single
// transaction: the log entry and its sets, the updated muscle windows, the
// updated personal bests, and the XP delta.
func (r *sqliteRepository) saveWorkout(
	ctx context.Context,
	userID int64,
	log WorkoutLog,
	scores []MuscleScore,
	bests map[Horizon]PersonalBest,
	xpDelta int,
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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workout_logs (id, user_id, exercise_id, logged_at, duration_minutes, distance_km, score)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID, userID, log.ExerciseID, log.LoggedAt.UTC().Format(timestampFormat),
		log.DurationMinutes, log.DistanceKm, log.Score)
	if err != nil {
		return fmt.Errorf("insert workout log: %w", err)
	}

	for i, set := range log.Sets {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO workout_log_sets (log_id, set_number, weight, reps)
			VALUES (?, ?, ?, ?)`,
			log.ID, i+1, set.Weight, set.Reps)
		if err != nil {
			return fmt.Errorf("insert workout log set: %w", err)
		}
	}

	for _, score := range scores {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO muscle_scores (user_id, muscle, today, three_day, seven_day, lifetime, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, muscle) DO UPDATE SET
				today = excluded.today,
				three_day = excluded.three_day,
				seven_day = excluded.seven_day,
				lifetime = excluded.lifetime,
				last_updated = excluded.last_updated`,
			userID, score.Muscle, score.Today, score.ThreeDay, score.SevenDay, score.Lifetime,
			score.LastUpdated.UTC().Format(timestampFormat))
		if err != nil {
			return fmt.Errorf("upsert muscle score for %s: %w", score.Muscle, err)
		}
	}

	for horizon, best := range bests {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO personal_bests (user_id, exercise_id, horizon, value, value_type, unit, achieved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, exercise_id, horizon) DO UPDATE SET
				value = excluded.value,
				value_type = excluded.value_type,
				unit = excluded.unit,
				achieved_at = excluded.achieved_at`,
			userID, log.ExerciseID, string(horizon), best.Value, string(best.Type), best.Unit,
			best.AchievedAt.UTC().Format(timestampFormat))
		if err != nil {
			return fmt.Errorf("upsert personal best for horizon %s: %w", horizon, err)
		}
	}

	if xpDelta != 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO profile_stats (user_id, total_xp)
			VALUES (?, ?)
			ON CONFLICT (user_id) DO UPDATE SET total_xp = total_xp + excluded.total_xp`,
			userID, xpDelta)
		if err != nil {
			return fmt.Errorf("add xp: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// history lists a user's workout logs, newest first, with their sets.
func (r *sqliteRepository) history(ctx context.Context, userID int64, limit int) (_ []WorkoutLog, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, exercise_id, logged_at, duration_minutes, distance_km, score
		FROM workout_logs
		WHERE user_id = ?
		ORDER BY logged_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query workout logs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var logs []WorkoutLog
	for rows.Next() {
		var (
			log         WorkoutLog
			loggedAtStr string
		)
		if err = rows.Scan(&log.ID, &log.ExerciseID, &loggedAtStr, &log.DurationMinutes,
			&log.DistanceKm, &log.Score); err != nil {
			return nil, fmt.Errorf("scan workout log: %w", err)
		}
		if log.LoggedAt, err = time.Parse(timestampFormat, loggedAtStr); err != nil {
			return nil, fmt.Errorf("parse logged_at: %w", err)
		}
		logs = append(logs, log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range logs {
		if logs[i].Sets, err = r.logSets(ctx, logs[i].ID); err != nil {
			return nil, fmt.Errorf("load sets for log %s: %w", logs[i].ID, err)
		}
	}

	return logs, nil
}

func (r *sqliteRepository) logSets(ctx context.Context, logID string) (_ []Set, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT weight, reps
		FROM workout_log_sets
		WHERE log_id = ?
		ORDER BY set_number`, logID)
	if err != nil {
		return nil, fmt.Errorf("query workout log sets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var sets []Set
	for rows.Next() {
		var set Set
		if err = rows.Scan(&set.Weight, &set.Reps); err != nil {
			return nil, fmt.Errorf("scan workout log set: %w", err)
		}
		sets = append(sets, set)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return sets, nil
}
