package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
)

// ErrNotFound is returned when an exercise does not exist in the library.
var ErrNotFound = errors.New("exercise not found")

// sqliteRepository reads the exercise library from the database.
type sqliteRepository struct {
	db *sqlite.Database
}

func newSQLiteRepository(db *sqlite.Database) *sqliteRepository {
	return &sqliteRepository{db: db}
}

// Get retrieves a single exercise by ID.
func (r *sqliteRepository) Get(ctx context.Context, id int) (Exercise, error) {
	var exercise Exercise

	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, target, secondary_muscles, category, equipment, difficulty, description_markdown
		FROM exercises
		WHERE id = ?`, id).Scan(
		&exercise.ID,
		&exercise.Name,
		&exercise.Target,
		&exercise.SecondaryMuscles,
		&exercise.Category,
		&exercise.Equipment,
		&exercise.Difficulty,
		&exercise.DescriptionMarkdown,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Exercise{}, ErrNotFound
	}
	if err != nil {
		return Exercise{}, fmt.Errorf("query exercise: %w", err)
	}

	return exercise, nil
}

// List returns the full exercise library ordered by id.
func (r *sqliteRepository) List(ctx context.Context) (_ []Exercise, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, name, target, secondary_muscles, category, equipment, difficulty, description_markdown
		FROM exercises
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var exercises []Exercise
	for rows.Next() {
		var exercise Exercise
		if err = rows.Scan(
			&exercise.ID,
			&exercise.Name,
			&exercise.Target,
			&exercise.SecondaryMuscles,
			&exercise.Category,
			&exercise.Equipment,
			&exercise.Difficulty,
			&exercise.DescriptionMarkdown,
		); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, exercise)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return exercises, nil
}
