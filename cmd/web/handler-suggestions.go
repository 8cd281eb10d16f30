package main

import (
	"net/http"
	"strings"

	"github.com/tmduggan/Gordon-sub000/internal/errors"
	"github.com/tmduggan/Gordon-sub000/internal/suggestion"
)

// parseBucketParam parses the "bucket" path parameter. On failure it sends a
// 404 and returns false.
func (app *application) parseBucketParam(w http.ResponseWriter, r *http.Request) (suggestion.Bucket, bool) {
	bucket, err := suggestion.ParseBucket(r.PathValue("bucket"))
	if err != nil {
		http.NotFound(w, r)
		return "", false
	}
	return bucket, true
}

// suggestionsGET returns the bucket's suggestions, regenerating a stale
// cache.
func (app *application) suggestionsGET(w http.ResponseWriter, r *http.Request) {
	bucket, ok := app.parseBucketParam(w, r)
	if !ok {
		return
	}

	suggestions, err := app.suggestionService.For(r.Context(), bucket)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, envelope{"suggestions": suggestions})
}

// suggestionsRefreshPOST discards the bucket's cache and regenerates it,
// consuming one refresh action.
func (app *application) suggestionsRefreshPOST(w http.ResponseWriter, r *http.Request) {
	bucket, ok := app.parseBucketParam(w, r)
	if !ok {
		return
	}

	suggestions, err := app.suggestionService.Refresh(r.Context(), bucket)
	if errors.Is(err, suggestion.ErrQuotaExceeded) {
		app.clientError(w, r, http.StatusTooManyRequests, "daily refresh quota exceeded")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, envelope{"suggestions": suggestions})
}

type hideSuggestionRequest struct {
	SuggestionID string `json:"suggestion_id"`
}

// suggestionHidePOST permanently hides one suggestion id, consuming one hide
// action.
func (app *application) suggestionHidePOST(w http.ResponseWriter, r *http.Request) {
	var req hideSuggestionRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.SuggestionID) == "" {
		app.clientError(w, r, http.StatusBadRequest, "suggestion_id is required")
		return
	}

	err := app.suggestionService.Hide(r.Context(), req.SuggestionID)
	if errors.Is(err, suggestion.ErrQuotaExceeded) {
		app.clientError(w, r, http.StatusTooManyRequests, "daily hide quota exceeded")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, envelope{"hidden": req.SuggestionID})
}
