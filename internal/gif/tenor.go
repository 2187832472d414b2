// Package gif looks up action GIFs through the Tenor search API.
package gif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://g.tenor.com/v1/search"
	// searchLimit keeps the pick pool small enough to stay on topic.
	searchLimit = 40
)

// ErrNoResults means the search came back empty.
var ErrNoResults = errors.New("no gif results")

// Tenor is a minimal client for the Tenor v1 search endpoint.
type Tenor struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a Tenor client.
func New(apiKey string) *Tenor {
	return &Tenor{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// searchResponse mirrors the slice of the v1 payload we read.
type searchResponse struct {
	Results []struct {
		Media []struct {
			GIF struct {
				URL string `json:"url"`
			} `json:"gif"`
			TinyGIF struct {
				URL string `json:"url"`
			} `json:"tinygif"`
		} `json:"media"`
	} `json:"results"`
}

// Lookup returns a random GIF URL for the action, searched anime-style the
// way the game announces it.
func (t *Tenor) Lookup(ctx context.Context, action string) (string, error) {
	q := url.Values{}
	q.Set("q", "anime "+action)
	q.Set("key", t.apiKey)
	q.Set("limit", fmt.Sprint(searchLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build tenor request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tenor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tenor returned status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode tenor response: %w", err)
	}
	if len(payload.Results) == 0 {
		return "", ErrNoResults
	}

	pick := payload.Results[rand.Intn(len(payload.Results))]
	if len(pick.Media) == 0 {
		return "", ErrNoResults
	}
	if u := pick.Media[0].GIF.URL; u != "" {
		return u, nil
	}
	if u := pick.Media[0].TinyGIF.URL; u != "" {
		return u, nil
	}
	return "", ErrNoResults
}
