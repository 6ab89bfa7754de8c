// Package commit implements the snapshot commit orchestrator (spec.md
// §4.9): the single write path binding manifest generation to the blob
// store and ledger under the atomicity rule that a crash between the two
// leaves at most a harmless, content-addressed orphan blob.
package commit

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NickOut/EttleX-R-sub001/internal/blobstore"
	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/hydrate"
	"github.com/NickOut/EttleX-R-sub001/internal/idgen"
	"github.com/NickOut/EttleX-R-sub001/internal/ledger"
	"github.com/NickOut/EttleX-R-sub001/internal/manifest"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
	"github.com/NickOut/EttleX-R-sub001/internal/policy"
	"github.com/NickOut/EttleX-R-sub001/internal/traversal"
)

const metadataKeySeedDigest = "seed_digest"

// Clock lets tests inject a deterministic, monotonically nondecreasing
// wall clock (spec.md §4.6 step 4).
type Clock func() time.Time

// Orchestrator wires the collaborators the commit pipeline needs.
type Orchestrator struct {
	Ledger          ledger.Ledger
	Blobs           *blobstore.Store
	ConstraintIndex manifest.ConstraintIndex
	PolicyHook      policy.CommitPolicyHook
	Now             Clock

	snapshotIDs *idgen.Generator
}

// NewOrchestrator builds an Orchestrator with sane defaults for
// PolicyHook (NoopCommitPolicyHook) and Now (time.Now).
func NewOrchestrator(l ledger.Ledger, blobs *blobstore.Store, idx manifest.ConstraintIndex) *Orchestrator {
	return &Orchestrator{
		Ledger:          l,
		Blobs:           blobs,
		ConstraintIndex: idx,
		PolicyHook:      policy.NoopCommitPolicyHook{},
		Now:             time.Now,
		snapshotIDs:     idgen.New("snap"),
	}
}

// Input is SnapshotCommit's parameter set (spec.md §6 EngineCommand
// surface).
type Input struct {
	LeafEpID     string
	PolicyRef    string
	ProfileRef   string
	ExpectedHead string // empty means "no optimistic check"
	DryRun       bool
	AllowDedup   bool
}

// Result is SnapshotCommit's outcome.
type Result struct {
	SnapshotID             string
	ManifestDigest         string
	SemanticManifestDigest string
	HeadAfter              string
	WasDuplicate           bool
}

// SnapshotCommit runs the eleven-step procedure of spec.md §4.9.
func (o *Orchestrator) SnapshotCommit(ctx context.Context, in Input) (Result, error) {
	// 1. Hydrate.
	s, err := hydrate.Hydrate(ctx, o.Ledger)
	if err != nil {
		return Result{}, err
	}

	// 2. Resolve leaf.
	leaf, err := s.GetEP(in.LeafEpID)
	if err != nil {
		return Result{}, err
	}
	if leaf.ChildEttleID != "" {
		return Result{}, errtax.New(errtax.NotALeaf, "ep %s has a child mapping and is not a leaf", in.LeafEpID).WithEp(in.LeafEpID)
	}
	rt, err := traversal.RT(s, leaf.EttleID)
	if err != nil {
		return Result{}, err
	}
	rootEttleID := rt[0]

	// 3. Compute EPT using the leaf's ordinal.
	ordinal := leaf.Ordinal
	ept, err := traversal.EPT(s, leaf.EttleID, &ordinal)
	if err != nil {
		return Result{}, err
	}

	// 4. Schema version and optional seed digest: two independent ledger
	// reads, fanned out since neither depends on the other's result.
	var schemaVersion, seedDigest string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := o.Ledger.GetSchemaVersion(gctx)
		schemaVersion = v
		return err
	})
	g.Go(func() error {
		v, _, err := o.Ledger.GetMetadata(gctx, metadataKeySeedDigest)
		seedDigest = v
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if err := o.PolicyHook.Check(ctx, in.PolicyRef, in.ProfileRef, in.LeafEpID); err != nil {
		return Result{}, err
	}

	// 5. Generate manifest.
	m, err := manifest.Generate(manifest.Input{
		StoreSchemaVersion: schemaVersion,
		PolicyRef:          in.PolicyRef,
		ProfileRef:         in.ProfileRef,
		RootEttleID:        rootEttleID,
		SeedDigest:         seedDigest,
		EPTEpIDs:           ept,
		ConstraintIndex:    o.ConstraintIndex,
		CreatedAt:          o.Now(),
	})
	if err != nil {
		return Result{}, err
	}

	// 6. Dry run: no side effects.
	if in.DryRun {
		return Result{
			ManifestDigest:         m.ManifestDigest,
			SemanticManifestDigest: m.SemanticManifestDigest,
		}, nil
	}

	// 7. Optimistic head check.
	head, hasHead, err := o.Ledger.GetHeadSnapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	if in.ExpectedHead != "" {
		currentHead := ""
		if hasHead {
			currentHead = head.ManifestDigest
		}
		if currentHead != in.ExpectedHead {
			return Result{}, errtax.New(errtax.Concurrency,
				"expected head %s but ledger head is %q", in.ExpectedHead, currentHead)
		}
	}

	// 8. Idempotency.
	if in.AllowDedup {
		if existing, found, err := o.Ledger.FindSnapshotBySemanticDigest(ctx, m.SemanticManifestDigest); err != nil {
			return Result{}, err
		} else if found {
			return Result{
				SnapshotID:             existing.SnapshotID,
				ManifestDigest:         existing.ManifestDigest,
				SemanticManifestDigest: existing.SemanticManifestDigest,
				HeadAfter:              existing.ManifestDigest,
				WasDuplicate:           true,
			}, nil
		}
	}

	// 9. Persist manifest to the blob store, keyed by manifest_digest.
	canonical, err := manifest.CanonicalBytes(m)
	if err != nil {
		return Result{}, err
	}
	if _, err := o.Blobs.Write(canonical, "json"); err != nil {
		return Result{}, err
	}

	// 10. Append snapshot record.
	parentSnapshotID := ""
	if hasHead {
		parentSnapshotID = head.SnapshotID
	}
	row := &model.Snapshot{
		SnapshotID:             o.snapshotIDs.Next(),
		ManifestDigest:         m.ManifestDigest,
		SemanticManifestDigest: m.SemanticManifestDigest,
		CreatedAt:              o.Now().UTC(),
		PolicyRef:              in.PolicyRef,
		ProfileRef:             in.ProfileRef,
		LeafEpID:               in.LeafEpID,
		ParentSnapshotID:       parentSnapshotID,
	}
	if err := o.Ledger.InsertSnapshot(ctx, row); err != nil {
		return Result{}, errtax.Wrap(errtax.Persistence, err, "commit: manifest persisted but ledger append failed")
	}

	// 11. Return.
	return Result{
		SnapshotID:             row.SnapshotID,
		ManifestDigest:         m.ManifestDigest,
		SemanticManifestDigest: m.SemanticManifestDigest,
		HeadAfter:              m.ManifestDigest,
		WasDuplicate:           false,
	}, nil
}
