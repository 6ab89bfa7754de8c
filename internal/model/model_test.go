package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEttleCloneIsIndependent(t *testing.T) {
	e := &Ettle{ID: "ettle:a", EPIDs: []string{"ep:1"}, Metadata: map[string]any{"k": "v"}}
	c := e.Clone()
	c.EPIDs[0] = "ep:mutated"
	c.Metadata["k"] = "mutated"

	assert.Equal(t, "ep:1", e.EPIDs[0])
	assert.Equal(t, "v", e.Metadata["k"])
}

func TestEPIsLeaf(t *testing.T) {
	leaf := &EP{ChildEttleID: ""}
	refine := &EP{ChildEttleID: "ettle:child"}
	assert.True(t, leaf.IsLeaf())
	assert.False(t, refine.IsLeaf())
}

func TestConstraintTombstoned(t *testing.T) {
	c := &Constraint{}
	assert.False(t, c.Tombstoned())
}

func TestDecisionAtMaxIteration(t *testing.T) {
	d := &Decision{Iteration: 3, MaxIterations: 3}
	assert.True(t, d.AtMaxIteration())
	d.Iteration = 2
	assert.False(t, d.AtMaxIteration())
}

func TestDecisionLinkKeyUniqueness(t *testing.T) {
	a := DecisionLink{DecisionID: "d1", TargetKind: TargetEP, TargetID: "ep:1", RelationKind: RelationInforms}
	b := DecisionLink{DecisionID: "d1", TargetKind: TargetEP, TargetID: "ep:1", RelationKind: RelationInforms}
	c := DecisionLink{DecisionID: "d1", TargetKind: TargetEP, TargetID: "ep:2", RelationKind: RelationInforms}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}
