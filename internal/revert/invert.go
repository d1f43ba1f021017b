package revert

import (
	"github.com/roach88/mapmend/internal/feature"
)

// inverseAction maps the action being undone to its corrective action.
// Create has no entry: a lone create inverts to a delete, handled as the
// single-record case, and a create anywhere else is unreachable in a
// valid history.
var inverseAction = map[feature.Action]feature.Action{
	feature.ActionModify:  feature.ActionModify,
	feature.ActionDelete:  feature.ActionRestore,
	feature.ActionRestore: feature.ActionDelete,
}

// Invert computes the corrective record that undoes the edit at target,
// which must be the latest version of the history. The input history may
// be unsorted; Normalize runs first, so permuting the input never changes
// the result.
//
// For a single-record history the only edit was the create, and the
// inverse is a bare delete. Otherwise the result carries the properties
// and geometry of the record immediately before the undone edit.
func Invert(history feature.History, target int64, opts Options) (feature.InverseRecord, error) {
	sorted, err := Normalize(history, target, opts)
	if err != nil {
		return feature.InverseRecord{}, err
	}

	if len(sorted) == 1 {
		return feature.InverseRecord{
			ID:      sorted[0].ID,
			Type:    feature.FeatureType,
			Action:  feature.ActionDelete,
			Version: 1,
		}, nil
	}

	desired := sorted[target-2] // state before the undone edit
	latest := sorted[target-1]  // the edit being undone

	mapped, ok := inverseAction[latest.Action]
	if !ok {
		return feature.InverseRecord{}, newError(ErrCodeUnsupportedAction, latest.ID, "action %q has no inverse", latest.Action)
	}

	return feature.InverseRecord{
		ID:         latest.ID,
		Type:       feature.FeatureType,
		Action:     mapped,
		Version:    latest.Version,
		Properties: desired.Properties,
		Geometry:   desired.Geometry,
	}, nil
}
