package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/mapmend/internal/feature"
)

// Record builds a version record with a point geometry derived from the
// version number, so fixtures stay distinguishable without hand-writing
// coordinates.
func Record(id, version int64, action feature.Action, props map[string]any) feature.VersionRecord {
	return feature.VersionRecord{
		ID:         id,
		Version:    version,
		Action:     action,
		Properties: props,
		Geometry:   PointGeometry(version),
	}
}

// PointGeometry returns a deterministic point geometry for a version.
func PointGeometry(version int64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"type":"Point","coordinates":[%d,%d]}`, version, version))
}

// Wrap converts bare records into the wrapped form the remote API serves.
func Wrap(records ...feature.VersionRecord) []feature.HistoryEntry {
	entries := make([]feature.HistoryEntry, len(records))
	for i, r := range records {
		entries[i] = feature.HistoryEntry{Feat: r}
	}
	return entries
}

// CreateModifyHistory is the canonical two-edit fixture: a create at
// version 1 followed by a modify at version 2.
func CreateModifyHistory(id int64) []feature.HistoryEntry {
	return Wrap(
		Record(id, 1, feature.ActionCreate, map[string]any{"name": "old"}),
		Record(id, 2, feature.ActionModify, map[string]any{"name": "new"}),
	)
}
