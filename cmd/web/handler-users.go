package main

import (
	"net/http"
	"strings"
)

type signInRequest struct {
	DisplayName string `json:"display_name"`
}

// signInPOST signs a user in by display name, creating the account on first
// use, and binds the user to the session.
func (app *application) signInPOST(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		app.clientError(w, r, http.StatusBadRequest, "display_name is required")
		return
	}

	userID, err := app.profileService.EnsureUser(r.Context(), displayName)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	// Rotate the session token on privilege change.
	if err = app.sessionManager.RenewToken(r.Context()); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.sessionManager.Put(r.Context(), sessionKeyUserID, userID)

	app.writeJSON(w, r, http.StatusOK, envelope{"user_id": userID})
}
