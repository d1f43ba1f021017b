// Package pipeline drives a revert run end to end.
//
// A run has two strictly ordered phases against one cache store:
//
//	Cache: delta range -> remote API -> store   (write phase)
//	Iterate: store -> inverse calculator -> sink (read phase)
//
// The write phase walks delta ids in increasing order and caches each
// referenced entity's full history, last write winning when an entity
// recurs. Remote fetches run through a bounded task queue whose default
// width is 1, which reproduces the strictly sequential reference
// behavior; wider queues overlap history fetches within a delta but
// never reorder cache writes.
//
// The read phase streams cached entries one at a time, computes each
// entity's inverse record, and appends one JSON line per entity to the
// sink. Entity-level failures are isolated and logged by default;
// FailFast restores abort-on-first-error.
package pipeline
