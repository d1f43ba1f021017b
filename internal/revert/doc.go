// Package revert computes the corrective edit that undoes the most recent
// edit of a versioned map feature.
//
// The package has two layers:
//   - Normalize: sorts and validates a raw history against a target version.
//   - Invert: maps a normalized history to a single InverseRecord.
//
// Both are pure functions with no I/O; all failure modes are reported as
// *Error values with a stable Code and the offending entity id.
//
// # Rules
//
// Only the latest version of a history may be reverted. Reverting an
// earlier version (a "dirty revert") is rejected because the computed
// inverse could conflict with edits already layered on top. The inverse of
// a lone create is a delete; otherwise the action map is modify→modify,
// delete→restore, restore→delete, and the corrective record carries the
// properties and geometry of the state immediately prior to the undone
// edit, never a later one.
package revert
