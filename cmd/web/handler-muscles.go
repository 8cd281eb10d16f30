package main

import (
	"net/http"

	"github.com/tmduggan/Gordon-sub000/internal/score"
)

type muscleView struct {
	score.MuscleScore
	Composite float64 `json:"composite"`
}

// musclesGET returns every catalog muscle with its decayed windows and
// composite score; untrained muscles report zeroes.
func (app *application) musclesGET(w http.ResponseWriter, r *http.Request) {
	muscles, err := app.catalogService.Muscles(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	scores, err := app.scoreService.MuscleScores(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	byMuscle := make(map[string]score.MuscleScore, len(scores))
	for _, s := range scores {
		byMuscle[s.Muscle] = s
	}

	views := make([]muscleView, 0, len(muscles))
	for _, muscle := range muscles {
		s := byMuscle[muscle]
		s.Muscle = muscle
		views = append(views, muscleView{MuscleScore: s, Composite: s.Composite()})
	}

	app.writeJSON(w, r, http.StatusOK, envelope{"muscles": views})
}

// laggingMusclesGET returns the ranked lagging muscles.
func (app *application) laggingMusclesGET(w http.ResponseWriter, r *http.Request) {
	lagging, err := app.suggestionService.Lagging(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, envelope{"lagging": lagging})
}
