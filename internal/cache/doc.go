// Package cache provides the SQLite-backed scratch store for one revert run.
//
// The store is ephemeral by design: each run creates a uniquely-named
// database file (a UUID token in the name keeps concurrent runs from
// colliding) and removes it on Close. Nothing about the file is meant to
// survive the run or be shared across processes.
//
// Schema: a single table features(id PRIMARY KEY, version, history) where
// history holds the serialized entity history exactly as fetched from the
// remote API, wrapper metadata included. Writes are last-write-wins on id;
// if an entity recurs across deltas in the cached range, the later delta's
// row replaces the earlier one with no merge.
//
// Ownership: the caching pipeline holds exclusive write access while it
// populates the store; only after that phase completes is the store read
// by the iterator. No two phases run against the store concurrently, so
// the store does no internal locking.
package cache
