package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

func validTree() *store.Store {
	s := store.New()
	root := &model.Ettle{ID: "ettle:root", Title: "root", EPIDs: []string{"ep:root:0", "ep:root:1"}}
	child := &model.Ettle{ID: "ettle:child", Title: "child", ParentID: "ettle:root", EPIDs: []string{"ep:child:0"}}
	rootEP0 := &model.EP{ID: "ep:root:0", EttleID: "ettle:root", Ordinal: 0}
	rootEP1 := &model.EP{ID: "ep:root:1", EttleID: "ettle:root", Ordinal: 1, ChildEttleID: "ettle:child"}
	childEP0 := &model.EP{ID: "ep:child:0", EttleID: "ettle:child", Ordinal: 0}
	s.PutEttle(root)
	s.PutEttle(child)
	s.PutEP(rootEP0)
	s.PutEP(rootEP1)
	s.PutEP(childEP0)
	return s
}

func TestValidTreePasses(t *testing.T) {
	s := validTree()
	assert.Nil(t, ValidateTree(s))
}

func TestFindDuplicateOrdinals(t *testing.T) {
	s := validTree()
	dupe := &model.EP{ID: "ep:root:dupe", EttleID: "ettle:root", Ordinal: 0}
	s.PutEP(dupe)
	root, _ := s.GetEttleRaw("ettle:root")
	root.EPIDs = append(root.EPIDs, dupe.ID)

	v := ValidateTree(s)
	require.NotNil(t, v)
	assert.Equal(t, errtax.InvalidOrdinal, v.Kind)
}

func TestFindMultipleActiveMappingsToChild(t *testing.T) {
	s := validTree()
	extra := &model.EP{ID: "ep:root:2", EttleID: "ettle:root", Ordinal: 2, ChildEttleID: "ettle:child"}
	s.PutEP(extra)
	root, _ := s.GetEttleRaw("ettle:root")
	root.EPIDs = append(root.EPIDs, extra.ID)

	violations := FindMultipleActiveMappingsToChild(s)
	require.Len(t, violations, 1)
	assert.Equal(t, errtax.MultipleParents, violations[0].Kind)
}

func TestFindMissingRefinementMappings(t *testing.T) {
	s := store.New()
	root := &model.Ettle{ID: "ettle:root", EPIDs: []string{"ep:root:0"}}
	child := &model.Ettle{ID: "ettle:child", ParentID: "ettle:root", EPIDs: []string{"ep:child:0"}}
	s.PutEttle(root)
	s.PutEttle(child)
	s.PutEP(&model.EP{ID: "ep:root:0", EttleID: "ettle:root", Ordinal: 0})
	s.PutEP(&model.EP{ID: "ep:child:0", EttleID: "ettle:child", Ordinal: 0})

	v := ValidateTree(s)
	require.NotNil(t, v)
	assert.Equal(t, errtax.MissingMapping, v.Kind)
}

func TestFindParentCycles(t *testing.T) {
	s := store.New()
	a := &model.Ettle{ID: "ettle:a", ParentID: "ettle:b", EPIDs: []string{}}
	b := &model.Ettle{ID: "ettle:b", ParentID: "ettle:a", EPIDs: []string{}}
	s.PutEttle(a)
	s.PutEttle(b)

	violations := FindParentCycles(s)
	assert.NotEmpty(t, violations)
	for _, v := range violations {
		assert.Equal(t, errtax.CycleDetected, v.Kind)
	}
}

func TestFindTombstonedEpWithChildMapping(t *testing.T) {
	s := validTree()
	rootEP1, _ := s.GetEPRaw("ep:root:1")
	rootEP1.Deleted = true // still carries ChildEttleID — violates I6

	violations := FindTombstonedEpsWithChildMapping(s)
	require.Len(t, violations, 1)
	assert.Equal(t, errtax.ConstraintViolation, violations[0].Kind)
}

func TestFindActiveEpPointingAtTombstonedChild(t *testing.T) {
	s := validTree()
	child, _ := s.GetEttleRaw("ettle:child")
	child.Deleted = true

	violations := FindActiveEpsPointingAtTombstonedChild(s)
	require.Len(t, violations, 1)
	assert.Equal(t, errtax.DeletedNodeInTraversal, violations[0].Kind)
}

func TestFindUnknownEpRefs(t *testing.T) {
	s := store.New()
	s.PutEttle(&model.Ettle{ID: "ettle:a", EPIDs: []string{"ep:missing"}})
	violations := FindUnknownEpRefs(s)
	require.Len(t, violations, 1)
	assert.Equal(t, errtax.DeterminismViolation, violations[0].Kind)
}
