package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
	"github.com/yuin/goldmark"
)

// Service exposes the exercise library to the rest of the application.
type Service struct {
	repo     *sqliteRepository
	logger   *slog.Logger
	markdown goldmark.Markdown
}

// NewService creates a new catalog service.
func NewService(db *sqlite.Database, logger *slog.Logger) *Service {
	return &Service{
		repo:     newSQLiteRepository(db),
		logger:   logger,
		markdown: goldmark.New(),
	}
}

// List returns all exercises in the library.
func (s *Service) List(ctx context.Context) ([]Exercise, error) {
	exercises, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return exercises, nil
}

// Get retrieves a single exercise by ID.
func (s *Service) Get(ctx context.Context, id int) (Exercise, error) {
	exercise, err := s.repo.Get(ctx, id)
	if err != nil {
		return Exercise{}, fmt.Errorf("get exercise %d: %w", id, err)
	}
	return exercise, nil
}

// Muscles returns every distinct muscle name appearing as a target or
// secondary muscle across the library, sorted alphabetically.
func (s *Service) Muscles(ctx context.Context) ([]string, error) {
	exercises, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}

	seen := make(map[string]bool)
	for _, exercise := range exercises {
		for _, muscle := range exercise.Muscles() {
			seen[muscle] = true
		}
	}

	muscles := make([]string, 0, len(seen))
	for muscle := range seen {
		muscles = append(muscles, muscle)
	}
	sort.Strings(muscles)

	return muscles, nil
}

// RenderDescription converts the exercise's markdown description to HTML.
func (s *Service) RenderDescription(ctx context.Context, id int) (string, error) {
	exercise, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get exercise %d: %w", id, err)
	}

	var buf bytes.Buffer
	if err = s.markdown.Convert([]byte(exercise.DescriptionMarkdown), &buf); err != nil {
		return "", fmt.Errorf("render description for exercise %d: %w", id, err)
	}

	return buf.String(), nil
}
