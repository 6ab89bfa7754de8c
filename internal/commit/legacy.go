package commit

import (
	"sort"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

// ResolveLeafFromRoot implements the legacy compatibility path: given a
// root Ettle id, enumerate every active leaf EP reachable from it. Exactly
// one candidate resolves; zero fails with RootEttleInvalid, and more than
// one fails with RootEttleAmbiguous carrying the sorted candidate list
// (spec.md §4.9 "Legacy root resolution").
func ResolveLeafFromRoot(s *store.Store, rootEttleID string) (string, error) {
	root, err := s.GetEttle(rootEttleID)
	if err != nil {
		return "", err
	}

	var leaves []string
	var walk func(ettleID string) error
	walk = func(ettleID string) error {
		ettle, err := s.GetEttle(ettleID)
		if err != nil {
			return err
		}
		active, err := s.ActiveEPs(ettle)
		if err != nil {
			return err
		}
		for _, ep := range active {
			if ep.ChildEttleID == "" {
				leaves = append(leaves, ep.ID)
				continue
			}
			if err := walk(ep.ChildEttleID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root.ID); err != nil {
		return "", err
	}

	sort.Strings(leaves)
	switch len(leaves) {
	case 0:
		return "", errtax.New(errtax.RootEttleInvalid, "root %s has no reachable leaf eps", rootEttleID).WithEntity(rootEttleID)
	case 1:
		return leaves[0], nil
	default:
		return "", errtax.New(errtax.RootEttleAmbiguous,
			"root %s has %d reachable leaf eps", rootEttleID, len(leaves)).WithEntity(rootEttleID).WithCandidates(leaves)
	}
}
