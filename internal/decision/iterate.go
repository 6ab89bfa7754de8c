// Package decision implements iterative refinement of a Decision: closing
// the current generation and opening the next with textual guidance,
// bounded by MaxIterations. Grounded on the teacher's
// internal/decision.CreateNextIteration / generateIterationID (the
// "{base}.r{N}" id-suffix scheme), adapted from issue gates to
// model.Decision/model.DecisionLink.
package decision

import (
	"strconv"
	"strings"
	"time"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
)

// Clock lets tests inject a deterministic timestamp source.
type Clock func() time.Time

// IterationResult is the outcome of IterateDecision.
type IterationResult struct {
	Next  *model.Decision
	Links []model.DecisionLink
}

// IterateDecision produces the next generation of current, copying its
// prompt/options/default and carrying guidance forward, then relinks every
// DecisionLink that pointed at current onto the new generation. Fails
// CannotDelete if current is already at MaxIterations (spec.md §3.5: a
// tombstoned/exhausted decision rejects new links).
func IterateDecision(current *model.Decision, priorLinks []model.DecisionLink, guidance string, now Clock) (*IterationResult, error) {
	if current.Deleted {
		return nil, errtax.New(errtax.Deleted, "decision %s is deleted", current.ID).WithEntity(current.ID)
	}
	if current.AtMaxIteration() {
		return nil, errtax.New(errtax.CannotDelete, "decision %s already at max iteration %d", current.ID, current.MaxIterations).WithEntity(current.ID)
	}

	ts := now()
	newID := nextIterationID(current.ID, current.Iteration+1)

	next := &model.Decision{
		ID:            newID,
		Prompt:        current.Prompt,
		Options:       append([]string(nil), current.Options...),
		DefaultOption: current.DefaultOption,
		Iteration:     current.Iteration + 1,
		MaxIterations: current.MaxIterations,
		PriorID:       current.ID,
		Guidance:      guidance,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}

	links := make([]model.DecisionLink, 0, len(priorLinks))
	for _, l := range priorLinks {
		links = append(links, model.DecisionLink{
			DecisionID:   newID,
			TargetKind:   l.TargetKind,
			TargetID:     l.TargetID,
			RelationKind: l.RelationKind,
			Ordinal:      l.Ordinal,
			CreatedAt:    ts,
		})
	}

	return &IterationResult{Next: next, Links: links}, nil
}

// nextIterationID strips any existing ".rN" suffix from baseID before
// appending ".r{iteration}", so repeated iteration never nests suffixes
// (decision-1 -> decision-1.r2 -> decision-1.r3, never decision-1.r2.r3).
func nextIterationID(baseID string, iteration int) string {
	base := baseID
	if idx := strings.LastIndex(baseID, ".r"); idx != -1 {
		suffix := baseID[idx+2:]
		if _, err := strconv.Atoi(suffix); err == nil && suffix != "" {
			base = baseID[:idx]
		}
	}
	return base + ".r" + strconv.Itoa(iteration)
}
