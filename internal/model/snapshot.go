package model

import "time"

// Snapshot is an immutable record binding a manifest digest to a
// time-ordered id in the ledger.
type Snapshot struct {
	SnapshotID             string
	ManifestDigest         string
	SemanticManifestDigest string
	CreatedAt              time.Time
	PolicyRef              string
	ProfileRef             string
	LeafEpID               string
	ParentSnapshotID       string // empty = no parent (first snapshot)
}
