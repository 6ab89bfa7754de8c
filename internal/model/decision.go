package model

import "time"

// TargetKind is the kind of entity a DecisionLink points at.
type TargetKind string

const (
	TargetEP       TargetKind = "ep"
	TargetDecision TargetKind = "decision"
)

// RelationKind describes how a DecisionLink relates to its target.
type RelationKind string

const (
	RelationInforms  RelationKind = "informs"
	RelationSupersed RelationKind = "supersedes"
	RelationDerives  RelationKind = "derives_from"
)

// Decision is a typed record linkable to EPs or other decisions.
type Decision struct {
	ID            string
	Prompt        string
	Options       []string
	DefaultOption string
	Iteration     int
	MaxIterations int
	PriorID       string // empty = first generation
	Guidance      string
	Deleted       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AtMaxIteration reports whether another IterateDecision call is refused.
func (d *Decision) AtMaxIteration() bool {
	return d.Iteration >= d.MaxIterations
}

// DecisionLink binds a Decision to a target at an ordinal for deterministic
// ordering. (decision_id, target_kind, target_id, relation_kind) is unique.
type DecisionLink struct {
	DecisionID   string
	TargetKind   TargetKind
	TargetID     string
	RelationKind RelationKind
	Ordinal      int
	CreatedAt    time.Time
}

// Key returns the uniqueness key for this link.
func (l DecisionLink) Key() [4]string {
	return [4]string{l.DecisionID, string(l.TargetKind), l.TargetID, string(l.RelationKind)}
}
