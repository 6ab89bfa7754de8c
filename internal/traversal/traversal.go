// Package traversal computes the two deterministic path projections over a
// Store: the Ettle refinement chain (RT) and the EP sequence that backs it
// (EPT), per spec.md §4.4. Both are pure functions of stored state — P1
// requires repeated calls to return byte-identical results.
package traversal

import (
	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

// RT walks leafEttleID's parent_id chain up to the root and returns it in
// root-to-leaf order.
func RT(s *store.Store, leafEttleID string) ([]string, error) {
	var reversed []string
	cur, err := s.GetEttle(leafEttleID)
	if err != nil {
		return nil, err
	}
	reversed = append(reversed, cur.ID)
	for cur.ParentID != "" {
		parent, ok := s.GetEttleRaw(cur.ParentID)
		if !ok || parent.Deleted {
			return nil, errtax.New(errtax.TraversalBroken,
				"parent chain from %s broken at %s", leafEttleID, cur.ParentID).WithEntity(leafEttleID)
		}
		reversed = append(reversed, parent.ID)
		cur = parent
	}
	out := make([]string, len(reversed))
	for i, id := range reversed {
		out[len(reversed)-1-i] = id
	}
	return out, nil
}

// EPT computes the root-to-leaf EP sequence backing RT(leafEttleID): the
// root's EP0; then, for each parent/child step, the parent's unique active
// EP mapping to the child, preceded by the parent's own EP0 when the parent
// is below the root and its EP0 is not that mapping EP; then the chosen
// leaf EP, which is not repeated when it is the root's EP0 already at the
// head. leafEpOrdinal selects among the leaf's active EPs; pass nil to
// require the leaf have exactly one.
func EPT(s *store.Store, leafEttleID string, leafEpOrdinal *int) ([]string, error) {
	rt, err := RT(s, leafEttleID)
	if err != nil {
		return nil, err
	}

	root, err := s.GetEttle(rt[0])
	if err != nil {
		return nil, err
	}
	rootActive, err := s.ActiveEPs(root)
	if err != nil {
		return nil, err
	}
	if len(rootActive) == 0 {
		return nil, errtax.New(errtax.MissingMapping, "root %s has no ep0", root.ID).WithEntity(root.ID)
	}
	seq := []string{rootActive[0].ID}

	for i := 0; i < len(rt)-1; i++ {
		parent, err := s.GetEttle(rt[i])
		if err != nil {
			return nil, err
		}
		active, err := s.ActiveEPs(parent)
		if err != nil {
			return nil, err
		}
		child := rt[i+1]

		var mapping *model.EP
		for _, ep := range active {
			if ep.ChildEttleID != child {
				continue
			}
			if mapping != nil {
				return nil, errtax.New(errtax.DuplicateMapping,
					"more than one active ep of %s maps to child %s", parent.ID, child).WithEntity(parent.ID)
			}
			mapping = ep
		}
		if mapping == nil {
			return nil, errtax.New(errtax.MissingMapping,
				"no active ep of %s maps to child %s", parent.ID, child).WithEntity(parent.ID)
		}
		// rt[0]'s own EP0 was already seeded into seq before this loop; every
		// interior level's EP0 (active[0] — EP0 is mandatory and can never be
		// tombstoned, so it is always the lowest active ordinal) still needs
		// to appear ahead of that level's mapping EP, unless the mapping EP
		// is EP0 itself.
		if i > 0 && active[0].ID != mapping.ID {
			seq = append(seq, active[0].ID)
		}
		seq = append(seq, mapping.ID)
	}

	leaf, err := s.GetEttle(rt[len(rt)-1])
	if err != nil {
		return nil, err
	}
	leafActive, err := s.ActiveEPs(leaf)
	if err != nil {
		return nil, err
	}

	if leafEpOrdinal != nil {
		for _, ep := range leafActive {
			if ep.Ordinal == *leafEpOrdinal {
				if ep.ID == seq[len(seq)-1] {
					// root is the leaf and the chosen EP is its EP0, already seeded.
					return seq, nil
				}
				return append(seq, ep.ID), nil
			}
		}
		return nil, errtax.New(errtax.NotFound,
			"leaf %s has no active ep with ordinal %d", leaf.ID, *leafEpOrdinal).WithEntity(leaf.ID)
	}
	if len(leafActive) != 1 {
		return nil, errtax.New(errtax.AmbiguousLeafSelection,
			"leaf %s has %d active eps; leaf_ep_ordinal is required", leaf.ID, len(leafActive)).WithEntity(leaf.ID)
	}
	if len(rt) == 1 {
		// root is the leaf: its single active EP is the EP0 already seeded.
		return seq, nil
	}
	return append(seq, leafActive[0].ID), nil
}
