package facade

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/NickOut/EttleX-R-sub001/internal/obslog"
	"github.com/NickOut/EttleX-R-sub001/internal/resolver"
)

// PreviewStatus mirrors resolver.DryRunStatus under the naming spec.md §8
// S7 uses at the façade boundary: an empty candidate set previews as
// NoMatch rather than Uncomputed.
type PreviewStatus int

const (
	NoMatch PreviewStatus = iota
	Resolved
	RoutedForApproval
)

func fromDryRunStatus(s resolver.DryRunStatus) PreviewStatus {
	switch s {
	case resolver.Resolved:
		return Resolved
	case resolver.RoutedForApproval:
		return RoutedForApproval
	default:
		return NoMatch
	}
}

// PreviewInput is ConstraintPredicatesPreview's parameter set (spec.md §6
// EngineQuery surface). Context is carried for future policy lookups keyed
// on profile_ref; this core does not yet branch on its contents.
type PreviewInput struct {
	ProfileRef string
	Context    map[string]any
	Candidates []resolver.Candidate
	Ambiguity  resolver.AmbiguityPolicy
}

// PreviewResult is ConstraintPredicatesPreview's outcome.
type PreviewResult struct {
	Status       PreviewStatus
	SelectedID   string
	CandidateIDs []string
}

// ConstraintPredicatesPreview runs dry-run resolution inside one lifecycle
// span. It never writes: P12 requires it to never create an
// approval-request row and to be deterministic across repeated calls with
// identical inputs, so it calls resolver.ComputeDryRunResolution (which
// never touches an policy.ApprovalRouter) rather than resolver.Resolve.
func (f *Facade) ConstraintPredicatesPreview(ctx context.Context, in PreviewInput) (result PreviewResult, err error) {
	_, span := obslog.StartOp(ctx, "engine_query.constraint_predicates_preview")
	span.SetAttributes(
		attribute.String("profile_ref", in.ProfileRef),
		attribute.Int("candidate_count", len(in.Candidates)),
	)
	defer func() { obslog.EndOp(span, err) }()

	dr := resolver.ComputeDryRunResolution(in.Candidates, in.Ambiguity)
	result = PreviewResult{
		Status:       fromDryRunStatus(dr.Status),
		SelectedID:   dr.SelectedID,
		CandidateIDs: dr.CandidateIDs,
	}
	span.SetAttributes(attribute.Int("status", int(result.Status)))
	return result, nil
}
