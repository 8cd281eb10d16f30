package main

import (
	"net/http"
)

// healthy is the liveness probe.
func (app *application) healthy(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, envelope{"status": "ok"})
}
