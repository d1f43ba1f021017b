// Package testutil provides deterministic test doubles for the revert
// pipeline: a scripted remote API and history fixtures.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/mapmend/internal/feature"
)

// ScriptedAPI is an in-memory RemoteAPI fed from fixed tables.
//
// Every call is appended to Calls ("delta:5", "history:12"), letting tests
// assert the exact fetch order the pipeline produced.
//
// Thread-safety: the call log is mutex-guarded so concurrent history
// fetches can be scripted too.
type ScriptedAPI struct {
	Deltas    map[int64]feature.Delta
	Histories map[int64][]feature.HistoryEntry

	// FailDelta and FailEntity make the corresponding fetch fail.
	FailDelta  int64
	FailEntity int64

	mu    sync.Mutex
	Calls []string
}

// FetchDelta returns the scripted delta, or an error for unknown ids.
func (a *ScriptedAPI) FetchDelta(ctx context.Context, deltaID int64) (feature.Delta, error) {
	a.record(fmt.Sprintf("delta:%d", deltaID))
	if deltaID == a.FailDelta && a.FailDelta != 0 {
		return feature.Delta{}, fmt.Errorf("scripted delta failure")
	}
	d, ok := a.Deltas[deltaID]
	if !ok {
		return feature.Delta{}, fmt.Errorf("no such delta %d", deltaID)
	}
	return d, nil
}

// FetchHistory returns the scripted history, or an error for unknown ids.
func (a *ScriptedAPI) FetchHistory(ctx context.Context, entityID int64) ([]feature.HistoryEntry, error) {
	a.record(fmt.Sprintf("history:%d", entityID))
	if entityID == a.FailEntity && a.FailEntity != 0 {
		return nil, fmt.Errorf("scripted history failure")
	}
	h, ok := a.Histories[entityID]
	if !ok {
		return nil, fmt.Errorf("no such entity %d", entityID)
	}
	return h, nil
}

func (a *ScriptedAPI) record(call string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls = append(a.Calls, call)
}

// CallLog returns a copy of the recorded calls.
func (a *ScriptedAPI) CallLog() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.Calls))
	copy(out, a.Calls)
	return out
}
