package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapmend/internal/cache"
	"github.com/roach88/mapmend/internal/feature"
	"github.com/roach88/mapmend/internal/testutil"
)

// threeDeltaAPI scripts deltas 5..7. Entity 12 recurs in deltas 5 and 7,
// exercising last-write-wins.
func threeDeltaAPI() *testutil.ScriptedAPI {
	return &testutil.ScriptedAPI{
		Deltas: map[int64]feature.Delta{
			5: {Features: []feature.DeltaFeature{{ID: 12, Version: 2}, {ID: 13, Version: 2}}},
			6: {Features: []feature.DeltaFeature{{ID: 14, Version: 2}}},
			7: {Features: []feature.DeltaFeature{{ID: 12, Version: 2}}},
		},
		Histories: map[int64][]feature.HistoryEntry{
			12: testutil.CreateModifyHistory(12),
			13: testutil.CreateModifyHistory(13),
			14: testutil.CreateModifyHistory(14),
		},
	}
}

func openStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCache_PopulatesRange(t *testing.T) {
	ctx := context.Background()
	api := threeDeltaAPI()
	store := openStore(t)

	err := Cache(ctx, Config{Start: 5, End: 7}, api, store)
	require.NoError(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "one row per distinct entity across the range")
}

func TestCache_SequentialFetchOrder(t *testing.T) {
	ctx := context.Background()
	api := threeDeltaAPI()
	store := openStore(t)

	require.NoError(t, Cache(ctx, Config{Start: 5, End: 7}, api, store))

	// Deltas in increasing order, each delta's entities in listed order,
	// one call at a time.
	assert.Equal(t, []string{
		"delta:5", "history:12", "history:13",
		"delta:6", "history:14",
		"delta:7", "history:12",
	}, api.CallLog())
}

func TestCache_SingleDeltaRange(t *testing.T) {
	ctx := context.Background()
	api := threeDeltaAPI()
	store := openStore(t)

	require.NoError(t, Cache(ctx, Config{Start: 6, End: 6}, api, store))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCache_InvalidRange(t *testing.T) {
	store := openStore(t)

	err := Cache(context.Background(), Config{Start: 7, End: 5}, threeDeltaAPI(), store)
	assert.Error(t, err)
}

func TestCache_DeltaFetchFailureAborts(t *testing.T) {
	ctx := context.Background()
	api := threeDeltaAPI()
	api.FailDelta = 6
	store := openStore(t)

	err := Cache(ctx, Config{Start: 5, End: 7}, api, store)
	require.Error(t, err)

	var rfe *RemoteFetchError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, int64(6), rfe.DeltaID)
	assert.Zero(t, rfe.EntityID)

	// Delta 7 was never reached.
	assert.NotContains(t, api.CallLog(), "delta:7")
}

func TestCache_HistoryFetchFailureAborts(t *testing.T) {
	ctx := context.Background()
	api := threeDeltaAPI()
	api.FailEntity = 13
	store := openStore(t)

	err := Cache(ctx, Config{Start: 5, End: 7}, api, store)
	require.Error(t, err)

	var rfe *RemoteFetchError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, int64(5), rfe.DeltaID)
	assert.Equal(t, int64(13), rfe.EntityID)
}

func TestCache_BoundedConcurrencySameResult(t *testing.T) {
	ctx := context.Background()

	for _, width := range []int{1, 4} {
		api := threeDeltaAPI()
		store := openStore(t)

		err := Cache(ctx, Config{Start: 5, End: 7, Concurrency: width}, api, store)
		require.NoError(t, err, "width %d", width)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n, "width %d", width)
	}
}

func TestCache_ConcurrentHistoryFailureReportsEarliestEntity(t *testing.T) {
	ctx := context.Background()
	api := threeDeltaAPI()
	api.FailEntity = 12
	store := openStore(t)

	err := Cache(ctx, Config{Start: 5, End: 5, Concurrency: 4}, api, store)
	require.Error(t, err)

	var rfe *RemoteFetchError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, int64(12), rfe.EntityID)
}
