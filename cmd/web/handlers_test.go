package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/tmduggan/Gordon-sub000/internal/sqlite"
)

// newTestServer starts the application against an in-memory database and
// returns a TLS test server with a cookie-jar client.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
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

	app := newApplication(db, logger)
	ts := httptest.NewTLSServer(app.routes())
	t.Cleanup(ts.Close)

	client := ts.Client()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("Failed to create cookie jar: %v", err)
	}
	client.Jar = jar

	return ts, client
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Failed to POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

func signIn(t *testing.T, client *http.Client, baseURL, name string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/users", map[string]string{"display_name": name})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("sign in status = %d, body %s", resp.StatusCode, body)
	}
}

func TestHealthy(t *testing.T) {
	ts, client := newTestServer(t)

	resp, err := client.Get(ts.URL + "/api/healthy")
	if err != nil {
		t.Fatalf("Failed to GET /api/healthy: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestProfile_RequiresAuthentication(t *testing.T) {
	ts, client := newTestServer(t)

	resp, err := client.Get(ts.URL + "/api/profile")
	if err != nil {
		t.Fatalf("Failed to GET /api/profile: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestSignInAndProfile(t *testing.T) {
	ts, client := newTestServer(t)
	signIn(t, client, ts.URL, "gordon")

	resp, err := client.Get(ts.URL + "/api/profile")
	if err != nil {
		t.Fatalf("Failed to GET /api/profile: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var profile struct {
		DisplayName  string `json:"display_name"`
		Subscription string `json:"subscription"`
		TotalXP      int    `json:"total_xp"`
	}
	decodeBody(t, resp, &profile)
	if profile.DisplayName != "gordon" {
		t.Errorf("display_name = %q, want gordon", profile.DisplayName)
	}
	if profile.Subscription != "basic" {
		t.Errorf("subscription = %q, want basic", profile.Subscription)
	}
}

func TestSignIn_RejectsEmptyName(t *testing.T) {
	ts, client := newTestServer(t)

	resp := postJSON(t, client, ts.URL+"/api/users", map[string]string{"display_name": "  "})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLogWorkoutFlow(t *testing.T) {
	ts, client := newTestServer(t)
	signIn(t, client, ts.URL, "gordon")

	resp := postJSON(t, client, ts.URL+"/api/workouts", map[string]any{
		"exercise_id": 1,
		"sets": []map[string]any{
			{"weight": 135, "reps": 10},
			{"weight": 155, "reps": 8},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("log workout status = %d, body %s", resp.StatusCode, body)
	}

	var result struct {
		Score int `json:"score"`
		Bonus int `json:"bonus"`
	}
	decodeBody(t, resp, &result)
	if result.Score != 259 {
		t.Errorf("score = %d, want 259", result.Score)
	}
	if result.Bonus != 700 {
		t.Errorf("bonus = %d, want 700", result.Bonus)
	}

	// The muscle chart shows the new volume.
	musclesResp, err := client.Get(ts.URL + "/api/muscles")
	if err != nil {
		t.Fatalf("Failed to GET /api/muscles: %v", err)
	}
	var muscles struct {
		Muscles []struct {
			Muscle    string  `json:"muscle"`
			Today     int     `json:"today"`
			Composite float64 `json:"composite"`
		} `json:"muscles"`
	}
	decodeBody(t, musclesResp, &muscles)
	foundChest := false
	for _, m := range muscles.Muscles {
		if m.Muscle == "chest" {
			foundChest = true
			if m.Today != 18 {
				t.Errorf("chest today = %d, want 18", m.Today)
			}
			if m.Composite <= 0 {
				t.Errorf("chest composite = %v, want > 0", m.Composite)
			}
		}
	}
	if !foundChest {
		t.Error("chest missing from muscle chart")
	}

	// And the history lists the log.
	historyResp, err := client.Get(ts.URL + "/api/workouts")
	if err != nil {
		t.Fatalf("Failed to GET /api/workouts: %v", err)
	}
	var history struct {
		Workouts []struct {
			ExerciseID int `json:"exercise_id"`
			Score      int `json:"score"`
		} `json:"workouts"`
	}
	decodeBody(t, historyResp, &history)
	if len(history.Workouts) != 1 {
		t.Fatalf("got %d workouts, want 1", len(history.Workouts))
	}
	if history.Workouts[0].Score != 259 {
		t.Errorf("history score = %d, want 259", history.Workouts[0].Score)
	}
}

func TestLogWorkout_ValidatesBody(t *testing.T) {
	ts, client := newTestServer(t)
	signIn(t, client, ts.URL, "gordon")

	resp := postJSON(t, client, ts.URL+"/api/workouts", map[string]any{"exercise_id": 1})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, client, ts.URL+"/api/workouts", map[string]any{
		"exercise_id": 99999,
		"sets":        []map[string]any{{"weight": 100, "reps": 5}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown exercise status = %d, want 404", resp.StatusCode)
	}
}

func TestExerciseInfo(t *testing.T) {
	ts, client := newTestServer(t)

	resp, err := client.Get(ts.URL + "/api/exercises/1/info")
	if err != nil {
		t.Fatalf("Failed to GET exercise info: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var info struct {
		DescriptionHTML string `json:"description_html"`
	}
	decodeBody(t, resp, &info)
	if info.DescriptionHTML == "" {
		t.Error("expected rendered description HTML")
	}

	notFound, err := client.Get(ts.URL + "/api/exercises/99999/info")
	if err != nil {
		t.Fatalf("Failed to GET unknown exercise info: %v", err)
	}
	defer notFound.Body.Close()
	if notFound.StatusCode != http.StatusNotFound {
		t.Errorf("unknown exercise status = %d, want 404", notFound.StatusCode)
	}
}

func TestSuggestionsFlow(t *testing.T) {
	ts, client := newTestServer(t)
	signIn(t, client, ts.URL, "gordon")

	resp, err := client.Get(ts.URL + "/api/suggestions/bodyweightOnly")
	if err != nil {
		t.Fatalf("Failed to GET suggestions: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Suggestions []struct {
			ID     string `json:"id"`
			Muscle string `json:"muscle"`
			Bonus  int    `json:"bonus"`
		} `json:"suggestions"`
	}
	decodeBody(t, resp, &body)
	if len(body.Suggestions) == 0 || len(body.Suggestions) > 3 {
		t.Fatalf("got %d suggestions, want 1..3", len(body.Suggestions))
	}

	// Hiding the first suggestion consumes the basic tier's single daily hide.
	hideResp := postJSON(t, client, ts.URL+"/api/suggestions/hide",
		map[string]string{"suggestion_id": body.Suggestions[0].ID})
	hideResp.Body.Close()
	if hideResp.StatusCode != http.StatusOK {
		t.Fatalf("hide status = %d, want 200", hideResp.StatusCode)
	}

	secondHide := postJSON(t, client, ts.URL+"/api/suggestions/hide",
		map[string]string{"suggestion_id": "1-chest"})
	secondHide.Body.Close()
	if secondHide.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second hide status = %d, want 429", secondHide.StatusCode)
	}

	// Unknown buckets 404.
	badBucket, err := client.Get(ts.URL + "/api/suggestions/everything")
	if err != nil {
		t.Fatalf("Failed to GET bad bucket: %v", err)
	}
	defer badBucket.Body.Close()
	if badBucket.StatusCode != http.StatusNotFound {
		t.Errorf("bad bucket status = %d, want 404", badBucket.StatusCode)
	}
}

func TestSuggestionsRefresh_QuotaExhausts(t *testing.T) {
	ts, client := newTestServer(t)
	signIn(t, client, ts.URL, "gordon")

	for i := range 3 {
		resp := postJSON(t, client, fmt.Sprintf("%s/api/suggestions/%s/refresh", ts.URL, "gymEquipment"), nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("refresh %d status = %d, want 200", i+1, resp.StatusCode)
		}
	}

	resp := postJSON(t, client, ts.URL+"/api/suggestions/gymEquipment/refresh", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("fourth refresh status = %d, want 429", resp.StatusCode)
	}
}
