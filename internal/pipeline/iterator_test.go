package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapmend/internal/feature"
	"github.com/roach88/mapmend/internal/revert"
	"github.com/roach88/mapmend/internal/testutil"
)

func TestIterate_OneLinePerEntity(t *testing.T) {
	ctx := context.Background()
	api := threeDeltaAPI()
	store := openStore(t)
	require.NoError(t, Cache(ctx, Config{Start: 5, End: 7}, api, store))

	var out bytes.Buffer
	sum, err := Iterate(ctx, store, &out, IterateOptions{})
	require.NoError(t, err)

	assert.Equal(t, Summary{Written: 3, Skipped: 0}, sum)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3, "exactly one line per distinct entity, no duplicates")

	seen := map[int64]bool{}
	for _, line := range lines {
		var inv feature.InverseRecord
		require.NoError(t, json.Unmarshal([]byte(line), &inv))
		assert.Equal(t, feature.FeatureType, inv.Type)
		assert.False(t, seen[inv.ID], "entity %d emitted twice", inv.ID)
		seen[inv.ID] = true
	}
}

func TestIterate_SkipsFailingEntitiesByDefault(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	// Entity 1 is fine; entity 2's history starts with a modify and can't
	// be inverted.
	require.NoError(t, store.Put(ctx, 1, 2, testutil.CreateModifyHistory(1)))
	require.NoError(t, store.Put(ctx, 2, 2, testutil.Wrap(
		testutil.Record(2, 1, feature.ActionModify, nil),
		testutil.Record(2, 2, feature.ActionModify, nil),
	)))

	var out bytes.Buffer
	sum, err := Iterate(ctx, store, &out, IterateOptions{})
	require.NoError(t, err)

	assert.Equal(t, Summary{Written: 1, Skipped: 1}, sum)
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

func TestIterate_FailFastAborts(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.Put(ctx, 1, 2, testutil.Wrap(
		testutil.Record(1, 1, feature.ActionModify, nil),
		testutil.Record(1, 2, feature.ActionModify, nil),
	)))
	require.NoError(t, store.Put(ctx, 2, 2, testutil.CreateModifyHistory(2)))

	var out bytes.Buffer
	sum, err := Iterate(ctx, store, &out, IterateOptions{FailFast: true})
	require.Error(t, err)
	assert.Equal(t, revert.ErrCodeMissingCreateAction, revert.CodeOf(err))

	// Entity 2 was never processed: abort, not skip.
	assert.Equal(t, Summary{}, sum)
	assert.Empty(t, out.String())
}

func TestIterate_StrictVersionsPropagates(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.Put(ctx, 1, 2, testutil.Wrap(
		testutil.Record(1, 0, feature.ActionCreate, nil),
		testutil.Record(1, 2, feature.ActionModify, nil),
	)))

	var out bytes.Buffer

	sum, err := Iterate(ctx, store, &out, IterateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Written, "lenient mode accepts the versionless record")

	out.Reset()
	sum, err = Iterate(ctx, store, &out, IterateOptions{StrictVersions: true, FailFast: true})
	require.Error(t, err)
	assert.Equal(t, revert.ErrCodeInvalidVersion, revert.CodeOf(err))
	assert.Zero(t, sum.Written)
}

func TestIterate_GoldenStream(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.Put(ctx, 1, 2, testutil.Wrap(
		testutil.Record(1, 1, feature.ActionCreate, map[string]any{"name": "old"}),
		testutil.Record(1, 2, feature.ActionModify, map[string]any{"name": "new"}),
	)))
	require.NoError(t, store.Put(ctx, 2, 1, testutil.Wrap(
		testutil.Record(2, 1, feature.ActionCreate, map[string]any{"name": "lone"}),
	)))

	var out bytes.Buffer
	sum, err := Iterate(ctx, store, &out, IterateOptions{})
	require.NoError(t, err)
	require.Equal(t, Summary{Written: 2}, sum)

	g := goldie.New(t)
	g.Assert(t, "revert_stream", out.Bytes())
}
