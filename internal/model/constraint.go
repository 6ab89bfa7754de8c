package model

import "time"

// Constraint is a family-scoped predicate record. This implementation never
// evaluates constraint families (spec.md Non-goals); it only stores and
// orders references to them.
type Constraint struct {
	ConstraintID  string
	Family        string // e.g. "ABB", "SBB"
	Kind          string
	Scope         string
	PayloadJSON   any
	PayloadDigest string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// Tombstoned reports whether the constraint has been soft-deleted.
func (c *Constraint) Tombstoned() bool {
	return c.DeletedAt != nil
}

// EpConstraintRef binds an EP to a Constraint at an ordinal for
// deterministic ordering.
type EpConstraintRef struct {
	EpID         string
	ConstraintID string
	Ordinal      int
	CreatedAt    time.Time
}
