// Package model defines the entity records of the refinement tree: Ettle,
// EP, Constraint, EpConstraintRef, Decision, DecisionLink, and the Snapshot
// record. These are plain data structs; behavior over them (projection,
// validation, traversal, command application) lives in sibling packages so
// that the model stays a dependency-free leaf, mirroring how the teacher
// keeps internal/types free of storage/command imports.
package model

import "time"

// Ettle is a node in the refinement tree.
type Ettle struct {
	ID        string
	Title     string
	ParentID  string // empty = root
	EPIDs     []string
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
	Deleted   bool
}

// Clone returns a deep-enough copy for copy-on-write command application:
// the slice and map are copied so mutating the clone never aliases the
// original.
func (e *Ettle) Clone() *Ettle {
	if e == nil {
		return nil
	}
	c := *e
	if e.EPIDs != nil {
		c.EPIDs = append([]string(nil), e.EPIDs...)
	}
	if e.Metadata != nil {
		c.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// EP (Ettle Partition) carries WHY/WHAT/HOW rationale and, optionally, a
// refinement link to a child Ettle.
type EP struct {
	ID            string
	EttleID       string
	Ordinal       int
	ChildEttleID  string // empty = leaf (no refinement link)
	Normative     bool
	Why           string
	What          string
	How           string
	ContentDigest string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Deleted       bool
}

// IsLeaf reports whether this EP has no refinement link.
func (p *EP) IsLeaf() bool {
	return p.ChildEttleID == ""
}

// Clone returns a deep-enough copy for copy-on-write command application.
func (p *EP) Clone() *EP {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
