package main

import (
	"net/http"
)

// profileGET returns the signed-in user's profile with remaining quotas.
func (app *application) profileGET(w http.ResponseWriter, r *http.Request) {
	p, err := app.profileService.Get(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, p)
}
