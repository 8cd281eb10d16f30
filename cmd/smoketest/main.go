// Command smoketest exercises a running server end to end: sign in, log a
// workout, and fetch suggestions. It exits non-zero on the first failure.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tmduggan/Gordon-sub000/internal/logging"
	"github.com/tmduggan/Gordon-sub000/internal/testhelpers"
)

const (
	requestTimeout = 10 * time.Second
	readyTimeout   = 30 * time.Second
	readyInterval  = 500 * time.Millisecond
)

type client struct {
	baseURL string
	http    *http.Client
}

// unsafeCookieJar drops the Secure attribute so that session cookies work
// against plain http during local runs.
type unsafeCookieJar struct {
	*cookiejar.Jar
}

func (j unsafeCookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		cookie.Secure = false
	}
	j.Jar.SetCookies(u, cookies)
}

func newClient(baseURL string) (*client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Jar: unsafeCookieJar{Jar: jar}, Timeout: requestTimeout},
	}, nil
}

func (c *client) do(ctx context.Context, method, path string, body, dst any) error {
	var payload *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(encoded)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if dst != nil {
		if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

func (c *client) waitForReady(ctx context.Context) error {
	deadline := time.Now().Add(readyTimeout)
	for {
		if err := c.do(ctx, http.MethodGet, "/api/healthy", nil, nil); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("server not ready within %s", readyTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyInterval):
		}
	}
}

func testWorkoutFlow(ctx context.Context, c *client) error {
	name := fmt.Sprintf("smoketest-%d", time.Now().UnixNano())
	if err := c.do(ctx, http.MethodPost, "/api/users",
		map[string]string{"display_name": name}, nil); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	var result struct {
		Score int `json:"score"`
	}
	err := c.do(ctx, http.MethodPost, "/api/workouts", map[string]any{
		"exercise_id": 1,
		"sets":        []map[string]any{{"weight": 60, "reps": 10}},
	}, &result)
	if err != nil {
		return fmt.Errorf("log workout: %w", err)
	}
	if result.Score <= 0 {
		return fmt.Errorf("workout score = %d, want > 0", result.Score)
	}

	var suggestions struct {
		Suggestions []struct {
			ID string `json:"id"`
		} `json:"suggestions"`
	}
	if err = c.do(ctx, http.MethodGet, "/api/suggestions/allExercises", nil, &suggestions); err != nil {
		return fmt.Errorf("fetch suggestions: %w", err)
	}
	if len(suggestions.Suggestions) == 0 {
		return fmt.Errorf("no suggestions returned")
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	hostname := os.Args[1]
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	start := time.Now()
	c, err := newClient(url)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = c.waitForReady(ctx); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err = testWorkoutFlow(ctx, c); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing workout flow", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
	os.Exit(0)
}
