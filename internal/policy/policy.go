// Package policy defines the capability-set abstractions spec.md §4.3/§4.9
// compose over: AnchorPolicy, CommitPolicyHook, ApprovalRouter. Each has a
// total default implementation; callers substitute, the core never
// inspects identity (spec.md §9 "Polymorphism over capabilities").
package policy

import (
	"context"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
)

// AnchorPolicy governs whether an entity is preserved via tombstoning
// rather than (future) hard deletion. Phase-1 callers only ever see
// tombstones, but command application still consults it for forward
// compatibility (spec.md §4.3).
type AnchorPolicy interface {
	IsAnchoredEP(id string) bool
	IsAnchoredEttle(id string) bool
}

// NeverAnchored is the default AnchorPolicy: nothing is anchored.
type NeverAnchored struct{}

func (NeverAnchored) IsAnchoredEP(string) bool    { return false }
func (NeverAnchored) IsAnchoredEttle(string) bool { return false }

// SelectedSetAnchor anchors exactly the ids in its sets.
type SelectedSetAnchor struct {
	EPs    map[string]bool
	Ettles map[string]bool
}

func (a SelectedSetAnchor) IsAnchoredEP(id string) bool    { return a.EPs[id] }
func (a SelectedSetAnchor) IsAnchoredEttle(id string) bool { return a.Ettles[id] }

// CommitPolicyHook may abort a commit before any side effects occur
// (spec.md §6).
type CommitPolicyHook interface {
	Check(ctx context.Context, policyRef, profileRef, leafEpID string) error
}

// NoopCommitPolicyHook always allows the commit.
type NoopCommitPolicyHook struct{}

func (NoopCommitPolicyHook) Check(context.Context, string, string, string) error { return nil }

// ApprovalRouter routes ambiguous constraint resolutions for human/agent
// approval (spec.md §4.7).
type ApprovalRouter interface {
	RouteApprovalRequest(ctx context.Context, reasonCode string, candidateIDs []string) (string, error)
}

// UnavailableApprovalRouter is the default ApprovalRouter: routing is never
// available.
type UnavailableApprovalRouter struct{}

func (UnavailableApprovalRouter) RouteApprovalRequest(context.Context, string, []string) (string, error) {
	return "", errtax.New(errtax.ApprovalRoutingUnavailable, "no approval router configured")
}
