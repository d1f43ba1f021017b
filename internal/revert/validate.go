package revert

import (
	"sort"

	"github.com/roach88/mapmend/internal/feature"
)

// Options controls validation strictness.
type Options struct {
	// StrictVersions rejects records that carry no version field.
	// When false (the default), a missing version sorts as version 1,
	// matching the historical behavior of the upstream tool.
	StrictVersions bool
}

// sortVersion is the key a record sorts under. Records without a version
// field default to 1 in lenient mode.
func sortVersion(r feature.VersionRecord) int64 {
	if r.Version == 0 {
		return 1
	}
	return r.Version
}

// Normalize sorts history ascending by version and validates it against the
// target version. The input slice is not modified.
//
// Failure modes, in check order:
//   - EMPTY_HISTORY: history has no records
//   - INVALID_VERSION: target is not a positive integer, or (strict mode
//     only) a record carries no version field
//   - VERSION_OUT_OF_RANGE: target exceeds the history length
//   - MISSING_CREATE_ACTION: the lowest-version record is not a create
//   - DIRTY_REVERT_UNSUPPORTED: target is less than the history length
func Normalize(history feature.History, target int64, opts Options) (feature.History, error) {
	if len(history) == 0 {
		return nil, newError(ErrCodeEmptyHistory, 0, "history has no records")
	}

	entityID := history[0].ID

	if target <= 0 {
		return nil, newError(ErrCodeInvalidVersion, entityID, "target version %d is not a positive integer", target)
	}

	if opts.StrictVersions {
		for _, r := range history {
			if r.Version == 0 {
				return nil, newError(ErrCodeInvalidVersion, r.ID, "record has no version field")
			}
		}
	}

	sorted := make(feature.History, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortVersion(sorted[i]) < sortVersion(sorted[j])
	})

	if target > int64(len(sorted)) {
		return nil, newError(ErrCodeVersionOutOfRange, entityID, "target version %d exceeds history length %d", target, len(sorted))
	}

	if sorted[0].Action != feature.ActionCreate {
		return nil, newError(ErrCodeMissingCreateAction, entityID, "first record action is %q, not %q", sorted[0].Action, feature.ActionCreate)
	}

	if target < int64(len(sorted)) {
		return nil, newError(ErrCodeDirtyRevertUnsupported, entityID, "target version %d is older than latest version %d", target, len(sorted))
	}

	return sorted, nil
}
