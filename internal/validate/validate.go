// Package validate performs the total-scan structural integrity checks of
// spec.md §4.2 / §3.9 over a whole Store.
package validate

import (
	"sort"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

// checkFn is one structural check, enumerating every violation it finds.
type checkFn func(*store.Store) []*errtax.Error

// orderedChecks lists the checks in the exact order spec.md §4.2 specifies,
// so ValidateTree's "first violation encountered" is well-defined.
var orderedChecks = []checkFn{
	FindUnknownEpRefs,
	FindEpsWithMissingEttle,
	FindMembershipInconsistencies,
	FindOrphanEps,
	FindParentCycles,
	FindOrphanEttles,
	FindMissingRefinementMappings,
	FindDuplicateOrdinals,
	FindMultipleActiveMappingsToChild,
	FindEpsReferencingNonexistentChild,
	FindTombstonedEpsWithChildMapping,
	FindActiveEpsPointingAtTombstonedChild,
}

// ValidateTree performs a total scan and returns the first violation
// encountered, in the check order above, or nil if the store satisfies
// every invariant in spec.md §3.9.
func ValidateTree(s *store.Store) *errtax.Error {
	for _, check := range orderedChecks {
		if violations := check(s); len(violations) > 0 {
			return violations[0]
		}
	}
	return nil
}

// FindUnknownEpRefs enumerates every Ettle.EPIDs entry that does not
// resolve to any EP record (I1).
func FindUnknownEpRefs(s *store.Store) []*errtax.Error {
	var out []*errtax.Error
	for _, e := range sortedEttles(s) {
		for _, epID := range e.EPIDs {
			if _, ok := s.GetEPRaw(epID); !ok {
				out = append(out, errtax.New(errtax.DeterminismViolation,
					"ettle %s lists unknown ep %s", e.ID, epID).WithEntity(e.ID).WithEp(epID))
			}
		}
	}
	return out
}

// FindEpsWithMissingEttle enumerates every EP whose ettle_id names an
// Ettle that does not exist.
func FindEpsWithMissingEttle(s *store.Store) []*errtax.Error {
	var out []*errtax.Error
	for _, p := range sortedEPs(s) {
		if _, ok := s.GetEttleRaw(p.EttleID); !ok {
			out = append(out, errtax.New(errtax.DeterminismViolation,
				"ep %s names missing ettle %s", p.ID, p.EttleID).WithEp(p.ID).WithEntity(p.EttleID))
		}
	}
	return out
}

// FindMembershipInconsistencies enumerates bidirectional membership
// mismatches between Ettle.EPIDs and EP.EttleID (I2).
func FindMembershipInconsistencies(s *store.Store) []*errtax.Error {
	var out []*errtax.Error
	for _, e := range sortedEttles(s) {
		memberSet := toSet(e.EPIDs)
		for _, epID := range e.EPIDs {
			if !memberSet[epID] {
				continue // repeated entry, already checked
			}
			delete(memberSet, epID)
			p, ok := s.GetEPRaw(epID)
			if ok && p.EttleID != e.ID {
				out = append(out, errtax.New(errtax.DeterminismViolation,
					"ep %s listed under %s but claims owner %s", epID, e.ID, p.EttleID).
					WithEntity(e.ID).WithEp(epID))
			}
		}
	}
	return out
}

// FindOrphanEps enumerates EPs that claim an Ettle that does not list them.
func FindOrphanEps(s *store.Store) []*errtax.Error {
	var out []*errtax.Error
	for _, p := range sortedEPs(s) {
		e, ok := s.GetEttleRaw(p.EttleID)
		if !ok {
			continue // reported by FindEpsWithMissingEttle
		}
		if !contains(e.EPIDs, p.ID) {
			out = append(out, errtax.New(errtax.DeterminismViolation,
				"ep %s claims owner %s which does not list it", p.ID, p.EttleID).
				WithEp(p.ID).WithEntity(p.EttleID))
		}
	}
	return out
}

// FindParentCycles enumerates Ettles whose parent_id chain cycles (I5).
func FindParentCycles(s *store.Store) []*errtax.Error {
	var out []*errtax.Error
	for _, e := range sortedEttles(s) {
		seen := map[string]bool{e.ID: true}
		cur := e
		for cur.ParentID != "" {
			if seen[cur.ParentID] {
				out = append(out, errtax.New(errtax.CycleDetected,
					"parent chain from %s cycles back to %s", e.ID, cur.ParentID).WithEntity(e.ID))
				break
			}
			seen[cur.ParentID] = true
			parent, ok := s.GetEttleRaw(cur.ParentID)
			if !ok {
				break // reported by FindOrphanEttles
			}
			cur = parent
		}
	}
	return out
}

// FindOrphanEttles enumerates Ettles whose parent_id names a missing
// Ettle.
func FindOrphanEttles(s *store.Store) []*errtax.Error {
	var out []*errtax.Error
	for _, e := range sortedEttles(s) {
		if e.ParentID == "" {
			continue
		}
		if _, ok := s.GetEttleRaw(e.ParentID); !ok {
			out = append(out, errtax.New(errtax.DeterminismViolation,
				"ettle %s names missing parent %s", e.ID, e.ParentID).WithEntity(e.ID))
		}
	}
	return out
}

// FindMissingRefinementMappings enumerates child Ettles (non-null
// parent_id) with no active EP of the parent mapping to them (I4, half).
func FindMissingRefinementMappings(s *store.Store) []*errtax.Error {
	var out []*errtax.Error
	for _, e := range sortedEttles(s) {
		if e.ParentID == "" {
			continue
		}
		parent, ok := s.GetEttleRaw(e.ParentID)
		if !ok {
			continue
		}
		found := false
		for _, epID := range parent.EPIDs {
			p, ok := s.GetEPRaw(epID)
			if ok && !p.Deleted && p.ChildEttleID == e.ID {
				found = true
				break
			}
		}
		if !found {
			out = append(out, errtax.New(errtax.MissingMapping,
				"child %s has parent %s but no active ep maps to it", e.ID, e.ParentID).WithEntity(e.ID))
		}
	}
	return out
}

// FindDuplicateOrdinals enumerates Ettles with more than one EP (including
// tombstoned) sharing an ordinal (I3).
func FindDuplicateOrdinals(s *store.Store) []*errtax.Error {
	var out []*errtax.Error
	for _, e := range sortedEttles(s) {
		seen := map[int]string{}
		for _, epID := range e.EPIDs {
			p, ok := s.GetEPRaw(epID)
			if !ok {
				continue
			}
			if prior, dup := seen[p.Ordinal]; dup {
				out = append(out, errtax.New(errtax.InvalidOrdinal,
					"ettle %s has duplicate ordinal %d on eps %s and %s", e.ID, p.Ordinal, prior, p.ID).
					WithEntity(e.ID).WithOrdinal(p.Ordinal))
			} else {
				seen[p.Ordinal] = p.ID
			}
		}
	}
	return out
}

// FindMultipleActiveMappingsToChild enumerates children with more than one
// active EP pointing at them (I4, other half).
func FindMultipleActiveMappingsToChild(s *store.Store) []*errtax.Error {
	mappers := map[string][]string{}
	for _, p := range sortedEPs(s) {
		if p.Deleted || p.ChildEttleID == "" {
			continue
		}
		mappers[p.ChildEttleID] = append(mappers[p.ChildEttleID], p.ID)
	}
	var out []*errtax.Error
	children := make([]string, 0, len(mappers))
	for c := range mappers {
		children = append(children, c)
	}
	sort.Strings(children)
	for _, c := range children {
		if len(mappers[c]) > 1 {
			out = append(out, errtax.New(errtax.MultipleParents,
				"child %s has %d active refinement links: %v", c, len(mappers[c]), mappers[c]).WithEntity(c))
		}
	}
	return out
}

// FindEpsReferencingNonexistentChild enumerates EPs whose child_ettle_id
// names an Ettle that does not exist.
func FindEpsReferencingNonexistentChild(s *store.Store) []*errtax.Error {
	var out []*errtax.Error
	for _, p := range sortedEPs(s) {
		if p.ChildEttleID == "" {
			continue
		}
		if _, ok := s.GetEttleRaw(p.ChildEttleID); !ok {
			out = append(out, errtax.New(errtax.NotFound,
				"ep %s refines nonexistent child %s", p.ID, p.ChildEttleID).WithEp(p.ID).WithEntity(p.ChildEttleID))
		}
	}
	return out
}

// FindTombstonedEpsWithChildMapping enumerates tombstoned EPs that still
// carry a child mapping (I6).
func FindTombstonedEpsWithChildMapping(s *store.Store) []*errtax.Error {
	var out []*errtax.Error
	for _, p := range allEPsRaw(s) {
		if p.Deleted && p.ChildEttleID != "" {
			out = append(out, errtax.New(errtax.ConstraintViolation,
				"tombstoned ep %s still carries child mapping %s", p.ID, p.ChildEttleID).
				WithEp(p.ID).WithEntity(p.ChildEttleID))
		}
	}
	return out
}

// FindActiveEpsPointingAtTombstonedChild enumerates active EPs whose
// child_ettle_id names a tombstoned Ettle (I7).
func FindActiveEpsPointingAtTombstonedChild(s *store.Store) []*errtax.Error {
	var out []*errtax.Error
	for _, p := range sortedEPs(s) {
		if p.Deleted || p.ChildEttleID == "" {
			continue
		}
		child, ok := s.GetEttleRaw(p.ChildEttleID)
		if ok && child.Deleted {
			out = append(out, errtax.New(errtax.DeletedNodeInTraversal,
				"active ep %s points at tombstoned child %s", p.ID, p.ChildEttleID).
				WithEp(p.ID).WithEntity(p.ChildEttleID))
		}
	}
	return out
}

func sortedEttles(s *store.Store) []*model.Ettle {
	all := s.ListEttlesRaw()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func sortedEPs(s *store.Store) []*model.EP {
	all := s.ListEPsRaw()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func allEPsRaw(s *store.Store) []*model.EP {
	return sortedEPs(s)
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func toSet(list []string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, v := range list {
		m[v] = true
	}
	return m
}
