package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/mapmend/internal/cache"
	"github.com/roach88/mapmend/internal/feature"
)

// Config holds settings for the caching phase.
type Config struct {
	// Start and End bound the delta-id range, inclusive. Start must not
	// exceed End.
	Start int64
	End   int64

	// Concurrency caps in-flight history fetches within one delta.
	// Zero and one both mean strictly sequential. Delta fetches are always
	// sequential, and cache writes always happen in the order the delta
	// listed its entities, whatever the setting.
	Concurrency int

	// Logger receives progress and consistency warnings. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// Cache populates store from the configured delta range. The first remote
// failure aborts the run with a *RemoteFetchError; partially cached state
// is left in the store but the store itself is disposable, so callers
// just Close it.
func Cache(ctx context.Context, cfg Config, api RemoteAPI, store *cache.Store) error {
	if cfg.Start > cfg.End {
		return fmt.Errorf("invalid delta range [%d, %d]", cfg.Start, cfg.End)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	for deltaID := cfg.Start; deltaID <= cfg.End; deltaID++ {
		delta, err := api.FetchDelta(ctx, deltaID)
		if err != nil {
			return &RemoteFetchError{DeltaID: deltaID, Err: err}
		}
		log.Debug("delta fetched", "delta", deltaID, "features", len(delta.Features))

		if err := cacheDelta(ctx, cfg, log, api, store, deltaID, delta.Features); err != nil {
			return err
		}
	}

	return nil
}

// cacheDelta fetches every history referenced by one delta and writes the
// rows in the delta's own entity order.
func cacheDelta(ctx context.Context, cfg Config, log *slog.Logger, api RemoteAPI, store *cache.Store, deltaID int64, feats []feature.DeltaFeature) error {
	histories, err := fetchHistories(ctx, cfg.Concurrency, api, deltaID, feats)
	if err != nil {
		return err
	}

	for i, f := range feats {
		if max := maxHistoryVersion(histories[i]); max != 0 && max != f.Version {
			// Delta-reported version disagrees with the fetched history.
			// The reported version still wins; the revert target is the
			// state the delta observed.
			log.Warn("delta version mismatch",
				"delta", deltaID, "entity", f.ID,
				"delta_version", f.Version, "history_version", max)
		}
		if err := store.Put(ctx, f.ID, f.Version, histories[i]); err != nil {
			return err
		}
	}

	return nil
}

// fetchHistories retrieves the history of each entity in feats, at most
// width at a time, returning them indexed by the entity's position in the
// delta. Errors are reported for the earliest-positioned entity that
// failed so runs stay deterministic under any width.
func fetchHistories(ctx context.Context, width int, api RemoteAPI, deltaID int64, feats []feature.DeltaFeature) ([][]feature.HistoryEntry, error) {
	histories := make([][]feature.HistoryEntry, len(feats))

	if width <= 1 {
		for i, f := range feats {
			h, err := api.FetchHistory(ctx, f.ID)
			if err != nil {
				return nil, &RemoteFetchError{DeltaID: deltaID, EntityID: f.ID, Err: err}
			}
			histories[i] = h
		}
		return histories, nil
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		sem  = make(chan struct{}, width)
		errs = make([]error, len(feats))
	)
	for i, f := range feats {
		select {
		case sem <- struct{}{}:
		case <-fetchCtx.Done():
			errs[i] = fetchCtx.Err()
			continue
		}
		wg.Add(1)
		go func(i int, entityID int64) {
			defer wg.Done()
			defer func() { <-sem }()
			h, err := api.FetchHistory(fetchCtx, entityID)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			histories[i] = h
		}(i, f.ID)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, &RemoteFetchError{DeltaID: deltaID, EntityID: feats[i].ID, Err: err}
		}
	}
	return histories, nil
}

// maxHistoryVersion returns the highest version present in a fetched
// history, or 0 when the history is empty or versionless.
func maxHistoryVersion(entries []feature.HistoryEntry) int64 {
	var max int64
	for _, e := range entries {
		if e.Feat.Version > max {
			max = e.Feat.Version
		}
	}
	return max
}
