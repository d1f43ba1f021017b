// Package remote implements the editing-API contract over HTTP.
//
// Endpoints:
//
//	GET {base}/deltas/{id}              -> {"features":[{"id":N,"version":V},...]}
//	GET {base}/features/{id}/history    -> [{"feat":{...}},...]
//
// The client performs no retries or backoff; a failed call surfaces to
// the pipeline, which aborts the batch.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/roach88/mapmend/internal/feature"
)

const defaultTimeout = 30 * time.Second

// Client talks to the remote editing API. Safe for concurrent use.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the API rooted at baseURL.
// A trailing slash on baseURL is tolerated.
func NewClient(baseURL string) *Client {
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: defaultTimeout},
	}
}

// FetchDelta returns the entities changed by one delta.
func (c *Client) FetchDelta(ctx context.Context, deltaID int64) (feature.Delta, error) {
	var delta feature.Delta
	err := c.getJSON(ctx, fmt.Sprintf("%s/deltas/%d", c.base, deltaID), &delta)
	return delta, err
}

// FetchHistory returns one entity's full edit history in wrapped form.
func (c *Client) FetchHistory(ctx context.Context, entityID int64) ([]feature.HistoryEntry, error) {
	var entries []feature.HistoryEntry
	err := c.getJSON(ctx, fmt.Sprintf("%s/features/%d/history", c.base, entityID), &entries)
	return entries, err
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
