package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapmend/internal/feature"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /deltas/5", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"features":[{"id":12,"version":2},{"id":13,"version":4}]}`))
	})
	mux.HandleFunc("GET /features/12/history", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"feat":{"id":12,"version":1,"action":"create","properties":{"name":"pond"},"geometry":null}},
			{"feat":{"id":12,"version":2,"action":"modify","properties":{"name":"lake"},"geometry":null}}]`))
	})
	mux.HandleFunc("GET /deltas/99", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchDelta(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL)

	delta, err := c.FetchDelta(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, feature.Delta{Features: []feature.DeltaFeature{
		{ID: 12, Version: 2},
		{ID: 13, Version: 4},
	}}, delta)
}

func TestFetchHistory(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL + "/") // trailing slash tolerated

	entries, err := c.FetchHistory(context.Background(), 12)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, feature.ActionCreate, entries[0].Feat.Action)
	assert.Equal(t, int64(2), entries[1].Feat.Version)
	assert.Equal(t, "lake", entries[1].Feat.Properties["name"])
}

func TestFetchDelta_HTTPErrorStatus(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL)

	_, err := c.FetchDelta(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchDelta_ContextCancelled(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchDelta(ctx, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
