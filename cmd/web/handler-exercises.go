package main

import (
	"net/http"
	"strconv"

	"github.com/tmduggan/Gordon-sub000/internal/catalog"
	"github.com/tmduggan/Gordon-sub000/internal/errors"
)

// exercisesGET lists the exercise library.
func (app *application) exercisesGET(w http.ResponseWriter, r *http.Request) {
	exercises, err := app.catalogService.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, envelope{"exercises": exercises})
}

// parseExerciseIDParam parses the "exerciseID" path parameter. On failure it
// sends a 404 and returns false.
func (app *application) parseExerciseIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	exerciseID, err := strconv.Atoi(r.PathValue("exerciseID"))
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return exerciseID, true
}

// exerciseInfoGET returns one exercise with its description rendered to HTML.
func (app *application) exerciseInfoGET(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := app.parseExerciseIDParam(w, r)
	if !ok {
		return
	}

	exercise, err := app.catalogService.Get(r.Context(), exerciseID)
	if errors.Is(err, catalog.ErrNotFound) {
		app.clientError(w, r, http.StatusNotFound, "exercise not found")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	descriptionHTML, err := app.catalogService.RenderDescription(r.Context(), exerciseID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, envelope{
		"exercise":         exercise,
		"description_html": descriptionHTML,
	})
}
