package feature

// Delta is a numbered batch of entity edits produced upstream, fetched as
// a unit. Only the entity ids matter to the caching pipeline; any other
// per-feature fields the API returns are ignored.
type Delta struct {
	Features []DeltaFeature `json:"features"`
}

// DeltaFeature identifies one entity changed by a delta, with the entity
// version the delta reports. The reported version is what the cache keys
// reverts against; it is not re-derived from the fetched history.
type DeltaFeature struct {
	ID      int64 `json:"id"`
	Version int64 `json:"version"`
}

// HistoryEntry is the wrapper the remote API places around each version
// record in a history response.
type HistoryEntry struct {
	Feat VersionRecord `json:"feat"`
}

// Unwrap strips the wrapper metadata from a fetched history, yielding the
// bare version records in the order the API returned them.
func Unwrap(entries []HistoryEntry) History {
	if entries == nil {
		return nil
	}
	h := make(History, len(entries))
	for i, e := range entries {
		h[i] = e.Feat
	}
	return h
}
