package catalog_test

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/tmduggan/Gordon-sub000/internal/catalog"
	"github.com/tmduggan/Gordon-sub000/internal/errors"
	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
)

func newTestCatalog(t *testing.T) *catalog.Service {
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

	return catalog.NewService(db, logger)
}

func TestService_Get(t *testing.T) {
	svc := newTestCatalog(t)
	ctx := t.Context()

	exercise, err := svc.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to get exercise: %v", err)
	}
	if exercise.Name != "Barbell Bench Press" {
		t.Errorf("Name = %q, want Barbell Bench Press", exercise.Name)
	}

	_, err = svc.Get(ctx, 99999)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown exercise, got %v", err)
	}
}

func TestService_List(t *testing.T) {
	svc := newTestCatalog(t)

	exercises, err := svc.List(t.Context())
	if err != nil {
		t.Fatalf("Failed to list exercises: %v", err)
	}
	if len(exercises) < 20 {
		t.Errorf("got %d exercises, want at least 20 seeded entries", len(exercises))
	}
}

func TestService_Muscles(t *testing.T) {
	svc := newTestCatalog(t)

	muscles, err := svc.Muscles(t.Context())
	if err != nil {
		t.Fatalf("Failed to list muscles: %v", err)
	}

	seen := make(map[string]bool, len(muscles))
	for _, muscle := range muscles {
		seen[muscle] = true
	}
	for _, want := range []string{"chest", "triceps", "quads", "cardiovascular system"} {
		if !seen[want] {
			t.Errorf("expected muscle %q in catalog, got %v", want, muscles)
		}
	}
}

func TestService_RenderDescription(t *testing.T) {
	svc := newTestCatalog(t)

	html, err := svc.RenderDescription(t.Context(), 1)
	if err != nil {
		t.Fatalf("Failed to render description: %v", err)
	}
	if !strings.Contains(html, "<h1") {
		t.Errorf("expected rendered heading in %q", html)
	}
}
