package pipeline

import (
	"context"
	"fmt"

	"github.com/roach88/mapmend/internal/feature"
)

// RemoteAPI is the contract the caching pipeline needs from the remote
// editing system. Implementations must be safe for use from the number of
// concurrent fetchers configured on the pipeline.
type RemoteAPI interface {
	// FetchDelta returns the entities changed by one delta.
	FetchDelta(ctx context.Context, deltaID int64) (feature.Delta, error)

	// FetchHistory returns one entity's full edit history, each record
	// wrapped the way the API serves it.
	FetchHistory(ctx context.Context, entityID int64) ([]feature.HistoryEntry, error)
}

// RemoteFetchError indicates a remote call failed. It aborts the whole
// batch: the pipeline has no retry or partial-success checkpoint.
type RemoteFetchError struct {
	DeltaID  int64
	EntityID int64 // 0 when the delta fetch itself failed
	Err      error
}

func (e *RemoteFetchError) Error() string {
	if e.EntityID != 0 {
		return fmt.Sprintf("remote fetch failed for entity %d in delta %d: %v", e.EntityID, e.DeltaID, e.Err)
	}
	return fmt.Sprintf("remote fetch failed for delta %d: %v", e.DeltaID, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }
