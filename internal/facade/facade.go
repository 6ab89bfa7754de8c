// Package facade is the command façade (C15, spec.md §4.11): the two
// top-level verbs apply_engine_command (mutation) and apply_engine_query
// (read-only), each owning exactly one lifecycle span (start, end or
// end_error). No layer beneath this package opens a span of its own, so
// lifecycle metrics are never double-counted.
package facade

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/NickOut/EttleX-R-sub001/internal/commit"
	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/obslog"
	"github.com/NickOut/EttleX-R-sub001/internal/resolver"
)

// Facade wires the single EngineCommand and the single EngineQuery this
// core exposes.
type Facade struct {
	Commit *commit.Orchestrator
}

// New returns a Facade over orchestrator.
func New(orchestrator *commit.Orchestrator) *Facade {
	return &Facade{Commit: orchestrator}
}

// ApplyEngineCommand runs SnapshotCommit, the only mutating EngineCommand
// in the core (spec.md §6 EngineCommand surface), inside one lifecycle
// span.
func (f *Facade) ApplyEngineCommand(ctx context.Context, in commit.Input) (result commit.Result, err error) {
	ctx, span := obslog.StartOp(ctx, "engine_command.snapshot_commit")
	span.SetAttributes(
		attribute.String("leaf_ep_id", in.LeafEpID),
		attribute.String("policy_ref", in.PolicyRef),
		attribute.Bool("dry_run", in.DryRun),
		attribute.Bool("allow_dedup", in.AllowDedup),
	)
	defer func() { obslog.EndOp(span, err) }()

	result, err = f.Commit.SnapshotCommit(ctx, in)
	if err != nil {
		span.SetAttributes(attribute.String("error.kind", errtax.KindOf(err).Code()))
		return commit.Result{}, err
	}
	span.SetAttributes(
		attribute.String("snapshot_id", result.SnapshotID),
		attribute.Bool("was_duplicate", result.WasDuplicate),
	)
	return result, nil
}
