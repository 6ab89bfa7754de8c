package store

import (
	"sort"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
)

// ActiveEPs returns the ordered sequence of non-deleted EPs of ettle,
// ascending by ordinal (spec.md §3.9 I8, §4.1). This is the sole basis for
// every deterministic downstream computation (traversal, digesting,
// manifest generation) — P1.
func (s *Store) ActiveEPs(ettle *model.Ettle) ([]*model.EP, error) {
	active := make([]*model.EP, 0, len(ettle.EPIDs))
	for _, epID := range ettle.EPIDs {
		p, ok := s.GetEPRaw(epID)
		if !ok {
			return nil, errtax.New(errtax.DeterminismViolation, "ettle %s lists unknown ep %s", ettle.ID, epID).
				WithEntity(ettle.ID).WithEp(epID)
		}
		if p.EttleID != ettle.ID {
			return nil, errtax.New(errtax.DeterminismViolation, "ep %s claims owner %s but is listed under %s", epID, p.EttleID, ettle.ID).
				WithEntity(ettle.ID).WithEp(epID)
		}
		if p.Deleted {
			continue
		}
		active = append(active, p)
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Ordinal < active[j].Ordinal
	})
	return active, nil
}
