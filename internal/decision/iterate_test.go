package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestIterateDecisionProducesSuffixedID(t *testing.T) {
	d := &model.Decision{ID: "decision-1", Iteration: 1, MaxIterations: 3, Prompt: "p", Options: []string{"a", "b"}}
	result, err := IterateDecision(d, nil, "try b instead", fixedClock(time.Unix(0, 0)))
	require.NoError(t, err)
	assert.Equal(t, "decision-1.r2", result.Next.ID)
	assert.Equal(t, 2, result.Next.Iteration)
	assert.Equal(t, "decision-1", result.Next.PriorID)
	assert.Equal(t, "try b instead", result.Next.Guidance)
	assert.Equal(t, []string{"a", "b"}, result.Next.Options)
}

func TestIterateDecisionStripsExistingSuffix(t *testing.T) {
	d := &model.Decision{ID: "decision-1.r2", Iteration: 2, MaxIterations: 5}
	result, err := IterateDecision(d, nil, "", fixedClock(time.Unix(0, 0)))
	require.NoError(t, err)
	assert.Equal(t, "decision-1.r3", result.Next.ID)
}

func TestIterateDecisionRefusesAtMaxIteration(t *testing.T) {
	d := &model.Decision{ID: "decision-1", Iteration: 3, MaxIterations: 3}
	_, err := IterateDecision(d, nil, "", fixedClock(time.Now()))
	require.Error(t, err)
	assert.Equal(t, errtax.CannotDelete, errtax.KindOf(err))
}

func TestIterateDecisionRefusesDeleted(t *testing.T) {
	d := &model.Decision{ID: "decision-1", Iteration: 1, MaxIterations: 3, Deleted: true}
	_, err := IterateDecision(d, nil, "", fixedClock(time.Now()))
	require.Error(t, err)
	assert.Equal(t, errtax.Deleted, errtax.KindOf(err))
}

func TestIterateDecisionRelinksTargets(t *testing.T) {
	d := &model.Decision{ID: "decision-1", Iteration: 1, MaxIterations: 3}
	priorLinks := []model.DecisionLink{
		{DecisionID: "decision-1", TargetKind: model.TargetEP, TargetID: "ep:1", RelationKind: model.RelationInforms, Ordinal: 0},
	}
	result, err := IterateDecision(d, priorLinks, "", fixedClock(time.Now()))
	require.NoError(t, err)
	require.Len(t, result.Links, 1)
	assert.Equal(t, "decision-1.r2", result.Links[0].DecisionID)
	assert.Equal(t, "ep:1", result.Links[0].TargetID)
}
