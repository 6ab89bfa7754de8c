package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/policy"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

func newFixture() (*store.Store, IDAllocator) {
	return store.New(), NewDefaultIDAllocator()
}

func strPtr(s string) *string { return &s }

func TestEttleCreateAllocatesEp0(t *testing.T) {
	s, ids := newFixture()
	next, out, err := Apply(s, EttleCreate{Title: "root", Why: strPtr("because")}, ids, policy.NeverAnchored{})
	require.NoError(t, err)
	require.NotEmpty(t, out.NewEttleID)
	require.NotEmpty(t, out.NewEpID)

	ettle, err := next.GetEttle(out.NewEttleID)
	require.NoError(t, err)
	assert.Equal(t, []string{out.NewEpID}, ettle.EPIDs)

	ep, err := next.GetEP(out.NewEpID)
	require.NoError(t, err)
	assert.Equal(t, 0, ep.Ordinal)
	assert.True(t, ep.Normative)
}

func TestEttleCreateBlankTitleFails(t *testing.T) {
	s, ids := newFixture()
	_, _, err := Apply(s, EttleCreate{Title: "   "}, ids, policy.NeverAnchored{})
	require.Error(t, err)
	assert.Equal(t, errtax.InvalidTitle, errtax.KindOf(err))
}

func TestEttleCreateRejectsExplicitlyBlankWhatOrHow(t *testing.T) {
	s, ids := newFixture()
	_, _, err := Apply(s, EttleCreate{Title: "root", What: strPtr("")}, ids, policy.NeverAnchored{})
	require.Error(t, err)
	assert.Equal(t, errtax.InvalidInput, errtax.KindOf(err))

	_, _, err = Apply(s, EttleCreate{Title: "root", How: strPtr("")}, ids, policy.NeverAnchored{})
	require.Error(t, err)
	assert.Equal(t, errtax.InvalidInput, errtax.KindOf(err))
}

func TestApplyLeavesInputUntouchedOnFailure(t *testing.T) {
	s, ids := newFixture()
	before := s
	_, _, err := Apply(s, EttleCreate{Title: ""}, ids, policy.NeverAnchored{})
	require.Error(t, err)
	assert.Same(t, before, s)
	assert.Empty(t, s.ListEttles())
}

func TestEpCreateRejectsOrdinalReuse(t *testing.T) {
	s, ids := newFixture()
	s, createOut, err := Apply(s, EttleCreate{Title: "root"}, ids, policy.NeverAnchored{})
	require.NoError(t, err)

	s, epOut, err := Apply(s, EpCreate{EttleID: createOut.NewEttleID, Ordinal: 1, What: "x", How: "y"}, ids, policy.NeverAnchored{})
	require.NoError(t, err)

	s, _, err = Apply(s, EpDelete{EpID: epOut.NewEpID}, ids, policy.NeverAnchored{})
	require.NoError(t, err)

	_, _, err = Apply(s, EpCreate{EttleID: createOut.NewEttleID, Ordinal: 1, What: "x", How: "y"}, ids, policy.NeverAnchored{})
	require.Error(t, err)
	assert.Equal(t, errtax.InvalidOrdinal, errtax.KindOf(err))
}

func TestEpDeleteRefusesEp0(t *testing.T) {
	s, ids := newFixture()
	s, out, err := Apply(s, EttleCreate{Title: "root"}, ids, policy.NeverAnchored{})
	require.NoError(t, err)

	_, _, err = Apply(s, EpDelete{EpID: out.NewEpID}, ids, policy.NeverAnchored{})
	require.Error(t, err)
	assert.Equal(t, errtax.CannotDelete, errtax.KindOf(err))
}

func TestRefineLinkAndUnlinkChild(t *testing.T) {
	s, ids := newFixture()
	s, parentOut, err := Apply(s, EttleCreate{Title: "parent"}, ids, policy.NeverAnchored{})
	require.NoError(t, err)
	s, childOut, err := Apply(s, EttleCreate{Title: "child"}, ids, policy.NeverAnchored{})
	require.NoError(t, err)

	s, _, err = Apply(s, RefineLinkChild{ParentEpID: parentOut.NewEpID, ChildEttleID: childOut.NewEttleID}, ids, policy.NeverAnchored{})
	require.NoError(t, err)

	ep, err := s.GetEP(parentOut.NewEpID)
	require.NoError(t, err)
	assert.Equal(t, childOut.NewEttleID, ep.ChildEttleID)
	child, err := s.GetEttle(childOut.NewEttleID)
	require.NoError(t, err)
	assert.Equal(t, parentOut.NewEttleID, child.ParentID)

	s, _, err = Apply(s, RefineUnlinkChild{ParentEpID: parentOut.NewEpID}, ids, policy.NeverAnchored{})
	require.NoError(t, err)
	ep, err = s.GetEP(parentOut.NewEpID)
	require.NoError(t, err)
	assert.Empty(t, ep.ChildEttleID)
}

func TestRefineLinkChildRefusesCycle(t *testing.T) {
	s, ids := newFixture()
	s, parentOut, err := Apply(s, EttleCreate{Title: "parent"}, ids, policy.NeverAnchored{})
	require.NoError(t, err)
	s, childOut, err := Apply(s, EttleCreate{Title: "child"}, ids, policy.NeverAnchored{})
	require.NoError(t, err)
	s, _, err = Apply(s, RefineLinkChild{ParentEpID: parentOut.NewEpID, ChildEttleID: childOut.NewEttleID}, ids, policy.NeverAnchored{})
	require.NoError(t, err)

	_, _, err = Apply(s, RefineLinkChild{ParentEpID: childOut.NewEpID, ChildEttleID: parentOut.NewEttleID}, ids, policy.NeverAnchored{})
	require.Error(t, err)
	assert.Equal(t, errtax.CycleDetected, errtax.KindOf(err))
}

func TestEttleDeleteRefusedWithLiveChildMapping(t *testing.T) {
	s, ids := newFixture()
	s, parentOut, err := Apply(s, EttleCreate{Title: "parent"}, ids, policy.NeverAnchored{})
	require.NoError(t, err)
	s, childOut, err := Apply(s, EttleCreate{Title: "child"}, ids, policy.NeverAnchored{})
	require.NoError(t, err)
	s, _, err = Apply(s, RefineLinkChild{ParentEpID: parentOut.NewEpID, ChildEttleID: childOut.NewEttleID}, ids, policy.NeverAnchored{})
	require.NoError(t, err)

	_, _, err = Apply(s, EttleDelete{ID: parentOut.NewEttleID}, ids, policy.NeverAnchored{})
	require.Error(t, err)
	assert.Equal(t, errtax.StrandsChild, errtax.KindOf(err))
}
