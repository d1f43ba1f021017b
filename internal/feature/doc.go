// Package feature defines the data model for versioned map features.
//
// A feature is a single geographic entity with an append-only edit history.
// Each edit is a VersionRecord; the ordered sequence of records for one
// entity is a History. An InverseRecord is the corrective edit that, when
// appended to a history, restores the entity's prior observable state.
//
// The package also defines the wire shapes exchanged with the remote
// editing API: Delta (a numbered batch of changed entities) and
// HistoryEntry (the wrapper the API places around each version record).
//
// Properties and geometry are opaque to this system. Properties are carried
// as a plain key/value map and geometry as raw JSON; neither is inspected
// or normalized anywhere in the pipeline.
package feature
