package feature

import "encoding/json"

// Action is the kind of edit a version record represents.
type Action string

const (
	ActionCreate  Action = "create"
	ActionModify  Action = "modify"
	ActionDelete  Action = "delete"
	ActionRestore Action = "restore"
)

// Valid reports whether a is one of the four known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionModify, ActionDelete, ActionRestore:
		return true
	}
	return false
}

// VersionRecord is one historical edit of one entity.
//
// Version is a positive integer; zero means the upstream record carried no
// version field at all. How a missing version is treated during validation
// is configurable (see the revert package).
//
// Properties and Geometry are opaque. A nil Properties map or nil Geometry
// serializes as JSON null, matching the upstream representation of a
// deleted feature.
type VersionRecord struct {
	ID         int64           `json:"id"`
	Version    int64           `json:"version,omitempty"`
	Action     Action          `json:"action"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// History is the edit history of a single entity, ordered ascending by
// version once normalized. The first record of a valid history is always
// a create.
type History []VersionRecord

// InverseRecord is the corrective edit computed for the latest entry of a
// history. Type is always "Feature". Version is the version of the edit
// being undone; assigning the version of the appended corrective edit is
// the caller's responsibility.
type InverseRecord struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	Action     Action          `json:"action"`
	Version    int64           `json:"version"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// FeatureType is the fixed Type value of every InverseRecord.
const FeatureType = "Feature"
