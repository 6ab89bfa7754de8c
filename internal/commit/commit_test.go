package commit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickOut/EttleX-R-sub001/internal/blobstore"
	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/ledger/memledger"
	"github.com/NickOut/EttleX-R-sub001/internal/manifest"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

func newFixtureOrchestrator(t *testing.T) (*Orchestrator, *memledger.Ledger) {
	t.Helper()
	l := memledger.New("1")
	blobs := blobstore.New(t.TempDir())
	idx := manifest.NewMapConstraintIndex()
	o := NewOrchestrator(l, blobs, idx)
	o.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return o, l
}

// seedSingleLeaf writes one root Ettle with a single leaf EP0 and returns
// its id.
func seedSingleLeaf(t *testing.T, ctx context.Context, l *memledger.Ledger) string {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, l.PersistEttle(ctx, &model.Ettle{ID: "ettle:root", Title: "root", EPIDs: []string{"ep:0"}, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, l.PersistEP(ctx, &model.EP{ID: "ep:0", EttleID: "ettle:root", Ordinal: 0, Normative: true, CreatedAt: now, UpdatedAt: now}))
	return "ep:0"
}

func TestSnapshotCommitMinimal(t *testing.T) {
	o, l := newFixtureOrchestrator(t)
	ctx := context.Background()
	leaf := seedSingleLeaf(t, ctx, l)

	result, err := o.SnapshotCommit(ctx, Input{LeafEpID: leaf, PolicyRef: "policy/default@0", ProfileRef: "profile/default@0"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.SnapshotID)
	assert.NotEmpty(t, result.ManifestDigest)
	assert.False(t, result.WasDuplicate)
	assert.Equal(t, 1, l.SnapshotCount())

	head, ok, err := l.GetHeadSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result.SnapshotID, head.SnapshotID)
}

func TestSnapshotCommitRejectsNonLeaf(t *testing.T) {
	o, l := newFixtureOrchestrator(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, l.PersistEttle(ctx, &model.Ettle{ID: "ettle:root", Title: "root", EPIDs: []string{"ep:0"}, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, l.PersistEttle(ctx, &model.Ettle{ID: "ettle:child", Title: "child", ParentID: "ettle:root", EPIDs: []string{"ep:1"}, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, l.PersistEP(ctx, &model.EP{ID: "ep:0", EttleID: "ettle:root", Ordinal: 0, ChildEttleID: "ettle:child", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, l.PersistEP(ctx, &model.EP{ID: "ep:1", EttleID: "ettle:child", Ordinal: 0, CreatedAt: now, UpdatedAt: now}))

	_, err := o.SnapshotCommit(ctx, Input{LeafEpID: "ep:0"})
	require.Error(t, err)
	assert.Equal(t, errtax.NotALeaf, errtax.KindOf(err))
}

func TestSnapshotCommitDryRunHasNoSideEffects(t *testing.T) {
	o, l := newFixtureOrchestrator(t)
	ctx := context.Background()
	leaf := seedSingleLeaf(t, ctx, l)

	result, err := o.SnapshotCommit(ctx, Input{LeafEpID: leaf, DryRun: true})
	require.NoError(t, err)
	assert.NotEmpty(t, result.ManifestDigest)
	assert.Empty(t, result.SnapshotID)
	assert.Equal(t, 0, l.SnapshotCount())

	_, hasHead, err := l.GetHeadSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, hasHead)
}

func TestSnapshotCommitDedupReturnsExistingSnapshot(t *testing.T) {
	o, l := newFixtureOrchestrator(t)
	ctx := context.Background()
	leaf := seedSingleLeaf(t, ctx, l)

	first, err := o.SnapshotCommit(ctx, Input{LeafEpID: leaf, AllowDedup: true})
	require.NoError(t, err)
	require.False(t, first.WasDuplicate)

	second, err := o.SnapshotCommit(ctx, Input{LeafEpID: leaf, AllowDedup: true})
	require.NoError(t, err)
	assert.True(t, second.WasDuplicate)
	assert.Equal(t, first.SnapshotID, second.SnapshotID)
	assert.Equal(t, 1, l.SnapshotCount())
}

func TestSnapshotCommitWithoutDedupAppendsDuplicateRow(t *testing.T) {
	o, l := newFixtureOrchestrator(t)
	ctx := context.Background()
	leaf := seedSingleLeaf(t, ctx, l)

	_, err := o.SnapshotCommit(ctx, Input{LeafEpID: leaf})
	require.NoError(t, err)
	_, err = o.SnapshotCommit(ctx, Input{LeafEpID: leaf})
	require.NoError(t, err)
	assert.Equal(t, 2, l.SnapshotCount())
}

func TestSnapshotCommitOptimisticHeadMismatchFails(t *testing.T) {
	o, l := newFixtureOrchestrator(t)
	ctx := context.Background()
	leaf := seedSingleLeaf(t, ctx, l)

	_, err := o.SnapshotCommit(ctx, Input{LeafEpID: leaf, ExpectedHead: "bogus-digest"})
	require.Error(t, err)
	assert.Equal(t, errtax.Concurrency, errtax.KindOf(err))
}

func TestSnapshotCommitOptimisticHeadMatchSucceeds(t *testing.T) {
	o, l := newFixtureOrchestrator(t)
	ctx := context.Background()
	leaf := seedSingleLeaf(t, ctx, l)

	first, err := o.SnapshotCommit(ctx, Input{LeafEpID: leaf})
	require.NoError(t, err)

	second, err := o.SnapshotCommit(ctx, Input{LeafEpID: leaf, ExpectedHead: first.ManifestDigest})
	require.NoError(t, err)
	assert.NotEqual(t, first.SnapshotID, second.SnapshotID)
}

// twoLeafStore builds root -> two EPs each mapped to its own childless
// child Ettle, so the root has two reachable leaf EPs.
func twoLeafStore() *store.Store {
	now := time.Now().UTC()
	s := store.New()
	s.PutEttle(&model.Ettle{ID: "ettle:root", Title: "root", EPIDs: []string{"ep:a", "ep:b"}, CreatedAt: now, UpdatedAt: now})
	s.PutEttle(&model.Ettle{ID: "ettle:left", Title: "left", ParentID: "ettle:root", EPIDs: []string{"ep:left:0"}, CreatedAt: now, UpdatedAt: now})
	s.PutEttle(&model.Ettle{ID: "ettle:right", Title: "right", ParentID: "ettle:root", EPIDs: []string{"ep:right:0"}, CreatedAt: now, UpdatedAt: now})
	s.PutEP(&model.EP{ID: "ep:a", EttleID: "ettle:root", Ordinal: 0, ChildEttleID: "ettle:left", CreatedAt: now, UpdatedAt: now})
	s.PutEP(&model.EP{ID: "ep:b", EttleID: "ettle:root", Ordinal: 1, ChildEttleID: "ettle:right", CreatedAt: now, UpdatedAt: now})
	s.PutEP(&model.EP{ID: "ep:left:0", EttleID: "ettle:left", Ordinal: 0, CreatedAt: now, UpdatedAt: now})
	s.PutEP(&model.EP{ID: "ep:right:0", EttleID: "ettle:right", Ordinal: 0, CreatedAt: now, UpdatedAt: now})
	return s
}

func TestResolveLeafFromRootAmbiguous(t *testing.T) {
	s := twoLeafStore()
	_, err := ResolveLeafFromRoot(s, "ettle:root")
	require.Error(t, err)
	assert.Equal(t, errtax.RootEttleAmbiguous, errtax.KindOf(err))
}

func TestResolveLeafFromRootInvalidWhenNoLeaves(t *testing.T) {
	now := time.Now().UTC()
	s := store.New()
	s.PutEttle(&model.Ettle{ID: "ettle:root", Title: "root", CreatedAt: now, UpdatedAt: now})
	_, err := ResolveLeafFromRoot(s, "ettle:root")
	require.Error(t, err)
	assert.Equal(t, errtax.RootEttleInvalid, errtax.KindOf(err))
}

func TestResolveLeafFromRootUnique(t *testing.T) {
	s := twoLeafStore()
	// Tombstone one branch's EP so only one leaf remains reachable.
	ep, _ := s.GetEPRaw("ep:b")
	ep.Deleted = true
	leaf, err := ResolveLeafFromRoot(s, "ettle:root")
	require.NoError(t, err)
	assert.Equal(t, "ep:left:0", leaf)
}
