package command

import (
	"time"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/policy"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

// RefineLinkChild establishes the bidirectional refinement mapping between
// a parent EP and a child Ettle.
type RefineLinkChild struct {
	ParentEpID   string
	ChildEttleID string
}

func (c RefineLinkChild) apply(s *store.Store, _ IDAllocator, _ policy.AnchorPolicy) (Output, error) {
	ep, err := s.GetEP(c.ParentEpID)
	if err != nil {
		return Output{}, err
	}
	child, err := s.GetEttle(c.ChildEttleID)
	if err != nil {
		return Output{}, err
	}
	if ep.ChildEttleID != "" {
		return Output{}, errtax.New(errtax.DuplicateMapping,
			"ep %s already refines child %s", c.ParentEpID, ep.ChildEttleID).WithEp(c.ParentEpID)
	}
	if child.ParentID != "" {
		return Output{}, errtax.New(errtax.IllegalReparent,
			"ettle %s already has parent %s", c.ChildEttleID, child.ParentID).WithEntity(c.ChildEttleID)
	}
	if wouldCycle(s, ep.EttleID, c.ChildEttleID) {
		return Output{}, errtax.New(errtax.CycleDetected,
			"linking %s under %s would create a parent cycle", c.ChildEttleID, ep.EttleID).WithEntity(c.ChildEttleID)
	}

	now := time.Now().UTC()
	ep.ChildEttleID = c.ChildEttleID
	ep.UpdatedAt = now
	child.ParentID = ep.EttleID
	child.UpdatedAt = now
	s.PutEP(ep)
	s.PutEttle(child)
	return Output{}, nil
}

// wouldCycle reports whether linking childID under the Ettle owning
// parentEttleID would make childID an ancestor of itself — true exactly
// when parentEttleID is childID or a descendant of it, i.e. childID already
// appears somewhere on parentEttleID's own parent chain walked upward would
// never reach childID unless childID is an ancestor of parentEttleID.
func wouldCycle(s *store.Store, parentEttleID, childID string) bool {
	if parentEttleID == childID {
		return true
	}
	cur, ok := s.GetEttleRaw(parentEttleID)
	for ok && cur.ParentID != "" {
		if cur.ParentID == childID {
			return true
		}
		cur, ok = s.GetEttleRaw(cur.ParentID)
	}
	return false
}

// RefineUnlinkChild clears a parent EP's child mapping and the child's
// parent_id.
type RefineUnlinkChild struct {
	ParentEpID string
}

func (c RefineUnlinkChild) apply(s *store.Store, _ IDAllocator, _ policy.AnchorPolicy) (Output, error) {
	ep, err := s.GetEP(c.ParentEpID)
	if err != nil {
		return Output{}, err
	}
	if ep.ChildEttleID == "" {
		return Output{}, errtax.New(errtax.MissingMapping, "ep %s has no child mapping to unlink", c.ParentEpID).WithEp(c.ParentEpID)
	}
	childID := ep.ChildEttleID
	child, err := s.GetEttle(childID)
	if err != nil {
		return Output{}, err
	}

	now := time.Now().UTC()
	ep.ChildEttleID = ""
	ep.UpdatedAt = now
	child.ParentID = ""
	child.UpdatedAt = now
	s.PutEP(ep)
	s.PutEttle(child)
	return Output{}, nil
}
