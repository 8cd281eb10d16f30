package main

import (
	"net/http"

	"github.com/tmduggan/Gordon-sub000/internal/catalog"
	"github.com/tmduggan/Gordon-sub000/internal/errors"
	"github.com/tmduggan/Gordon-sub000/internal/score"
)

type workoutLogRequest struct {
	ExerciseID      int         `json:"exercise_id"`
	Sets            []score.Set `json:"sets,omitempty"`
	DurationMinutes float64     `json:"duration_minutes,omitempty"`
	DistanceKm      float64     `json:"distance_km,omitempty"`
}

// workoutLogPOST logs a workout and returns the earned score, bonus, and
// updated training state.
func (app *application) workoutLogPOST(w http.ResponseWriter, r *http.Request) {
	var req workoutLogRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ExerciseID <= 0 {
		app.clientError(w, r, http.StatusBadRequest, "exercise_id is required")
		return
	}
	if len(req.Sets) == 0 && req.DurationMinutes <= 0 {
		app.clientError(w, r, http.StatusBadRequest, "sets or duration_minutes is required")
		return
	}

	result, err := app.scoreService.LogWorkout(r.Context(), req.ExerciseID, score.WorkoutData{
		Sets:            req.Sets,
		DurationMinutes: req.DurationMinutes,
		DistanceKm:      req.DistanceKm,
	})
	if errors.Is(err, catalog.ErrNotFound) {
		app.clientError(w, r, http.StatusNotFound, "exercise not found")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusCreated, result)
}

// workoutHistoryGET lists the signed-in user's workout logs, newest first.
func (app *application) workoutHistoryGET(w http.ResponseWriter, r *http.Request) {
	logs, err := app.scoreService.History(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, envelope{"workouts": logs})
}
