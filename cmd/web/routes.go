package main

import (
	"net/http"
)

func (app *application) routes() *http.ServeMux {
	mux := http.NewServeMux()

	var (
		session = func(next http.Handler) http.Handler {
			return app.recoverPanic(app.logAndTraceRequest(secureHeaders(noCache(
				app.sessionManager.LoadAndSave(app.authenticate(next))))))
		}
		mustSession = func(next http.Handler) http.Handler {
			return session(app.mustAuthenticate(next))
		}
	)

	mux.Handle("POST /api/users", session(http.HandlerFunc(app.signInPOST)))
	mux.Handle("GET /api/profile", mustSession(http.HandlerFunc(app.profileGET)))

	mux.Handle("GET /api/exercises", session(http.HandlerFunc(app.exercisesGET)))
	mux.Handle("GET /api/exercises/{exerciseID}/info", session(http.HandlerFunc(app.exerciseInfoGET)))

	mux.Handle("POST /api/workouts", mustSession(http.HandlerFunc(app.workoutLogPOST)))
	mux.Handle("GET /api/workouts", mustSession(http.HandlerFunc(app.workoutHistoryGET)))

	mux.Handle("GET /api/muscles", mustSession(http.HandlerFunc(app.musclesGET)))
	mux.Handle("GET /api/muscles/lagging", mustSession(http.HandlerFunc(app.laggingMusclesGET)))

	mux.Handle("GET /api/suggestions/{bucket}", mustSession(http.HandlerFunc(app.suggestionsGET)))
	mux.Handle("POST /api/suggestions/{bucket}/refresh", mustSession(http.HandlerFunc(app.suggestionsRefreshPOST)))
	mux.Handle("POST /api/suggestions/hide", mustSession(http.HandlerFunc(app.suggestionHidePOST)))

	mux.Handle("GET /api/healthy", session(http.HandlerFunc(app.healthy)))

	return mux
}
