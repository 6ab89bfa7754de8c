// Package resolver implements ambiguity resolution over constraint
// candidate lists (spec.md §4.7): a closed AmbiguityPolicy variant, plus a
// side-effect-free dry-run preview of the same decision.
package resolver

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/policy"
)

// routeGroup collapses concurrent RouteForApproval calls carrying the same
// candidate set into a single ApprovalRouter round trip, so a burst of
// identical ambiguous resolutions doesn't create duplicate approval-request
// rows.
var routeGroup singleflight.Group

// AmbiguityPolicy selects among a policy's handling of ≥2 candidates.
type AmbiguityPolicy int

const (
	FailFast AmbiguityPolicy = iota
	ChooseDeterministic
	RouteForApproval
)

// Candidate is one member of an ambiguous candidate set.
type Candidate struct {
	ID       string
	Priority int
}

// ResultStatus is the closed outcome of resolving a candidate set.
type ResultStatus int

const (
	Empty ResultStatus = iota
	Selected
	PendingApproval
)

// Result is the outcome of Resolve.
type Result struct {
	Status     ResultStatus
	SelectedID string
	Token      string
}

// Resolve applies policy to candidates, routing through router only when
// policy is RouteForApproval.
func Resolve(ctx context.Context, candidates []Candidate, ambiguity AmbiguityPolicy, router policy.ApprovalRouter) (Result, error) {
	switch len(candidates) {
	case 0:
		return Result{Status: Empty}, nil
	case 1:
		return Result{Status: Selected, SelectedID: candidates[0].ID}, nil
	}

	ids := candidateIDs(candidates)
	switch ambiguity {
	case FailFast:
		return Result{}, errtax.New(errtax.AmbiguousSelection,
			"ambiguous selection among %d candidates", len(candidates)).WithCandidates(ids)
	case ChooseDeterministic:
		sort.Strings(ids)
		return Result{Status: Selected, SelectedID: ids[0]}, nil
	case RouteForApproval:
		key := strings.Join(ids, "\x00")
		v, err, _ := routeGroup.Do(key, func() (any, error) {
			return router.RouteApprovalRequest(ctx, "ambiguous_selection", ids)
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Status: PendingApproval, Token: v.(string)}, nil
	default:
		return Result{}, errtax.New(errtax.Internal, "unknown ambiguity policy %d", ambiguity)
	}
}

// DryRunStatus is the closed outcome of a dry-run preview.
type DryRunStatus int

const (
	Uncomputed DryRunStatus = iota
	Resolved
	RoutedForApproval
)

// DryRunResult previews the resolution decision without ever calling the
// router or writing anything.
type DryRunResult struct {
	Status       DryRunStatus
	CandidateIDs []string
	SelectedID   string
}

// ComputeDryRunResolution mirrors Resolve's decision tree but never
// delegates to an ApprovalRouter: RouteForApproval policies report
// RoutedForApproval without a token.
func ComputeDryRunResolution(candidates []Candidate, ambiguity AmbiguityPolicy) DryRunResult {
	ids := candidateIDs(candidates)
	sort.Strings(ids)

	switch len(candidates) {
	case 0:
		return DryRunResult{Status: Uncomputed, CandidateIDs: ids}
	case 1:
		return DryRunResult{Status: Resolved, CandidateIDs: ids, SelectedID: candidates[0].ID}
	}

	switch ambiguity {
	case ChooseDeterministic:
		return DryRunResult{Status: Resolved, CandidateIDs: ids, SelectedID: ids[0]}
	case RouteForApproval:
		return DryRunResult{Status: RoutedForApproval, CandidateIDs: ids}
	default: // FailFast
		return DryRunResult{Status: Uncomputed, CandidateIDs: ids}
	}
}

func candidateIDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}
