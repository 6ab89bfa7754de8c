package manifest

import (
	"sort"

	"github.com/NickOut/EttleX-R-sub001/internal/digest"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
)

// ConstraintIndex resolves an EP's declared constraint references and
// looks up a Constraint by id. Manifest generation never evaluates a
// constraint's predicate — it only orders and digests references to it.
type ConstraintIndex interface {
	RefsForEP(epID string) []model.EpConstraintRef
	Lookup(constraintID string) (*model.Constraint, bool)
}

// MapConstraintIndex is the in-memory ConstraintIndex used by tests and by
// callers that have already hydrated their constraint catalog into memory.
type MapConstraintIndex struct {
	refs        map[string][]model.EpConstraintRef
	constraints map[string]*model.Constraint
}

func NewMapConstraintIndex() *MapConstraintIndex {
	return &MapConstraintIndex{
		refs:        make(map[string][]model.EpConstraintRef),
		constraints: make(map[string]*model.Constraint),
	}
}

func (idx *MapConstraintIndex) AddRef(ref model.EpConstraintRef) {
	idx.refs[ref.EpID] = append(idx.refs[ref.EpID], ref)
}

func (idx *MapConstraintIndex) AddConstraint(c *model.Constraint) {
	idx.constraints[c.ConstraintID] = c
}

func (idx *MapConstraintIndex) RefsForEP(epID string) []model.EpConstraintRef {
	return idx.refs[epID]
}

func (idx *MapConstraintIndex) Lookup(constraintID string) (*model.Constraint, bool) {
	c, ok := idx.constraints[constraintID]
	return c, ok
}

// StatusUncomputed is the only status a FamilyGroup ever reports: this
// implementation never evaluates a constraint family's predicate (spec.md
// §3.8: "In this implementation every family reports status Uncomputed").
const StatusUncomputed = "Uncomputed"

// ConstraintsEnvelope is the deduplicated, deterministically ordered view
// of every constraint reachable from an EPT (spec.md §4.6 step 3).
type ConstraintsEnvelope struct {
	DeclaredRefIDs []string      `json:"declared_ref_ids"`
	Families       []FamilyGroup `json:"families"`

	// ApplicableABB and ResolvedSBB are the frozen ABB/SBB projection
	// lists spec.md §3.8 names. Since no family predicate is ever
	// evaluated here, neither projection is ever populated — they stay
	// frozen at empty, reserved for a future phase that actually
	// resolves ABB/SBB constraints.
	ApplicableABB []string `json:"applicable_abb"`
	ResolvedSBB   []string `json:"resolved_sbb"`

	// ResolutionEvidence is likewise always empty for the same reason:
	// there is no resolution performed to produce evidence of.
	ResolutionEvidence []string `json:"resolution_evidence"`

	ConstraintsDigest string `json:"constraints_digest"`
}

// FamilyGroup is one constraint family and the (deduplicated, ordered)
// constraint ids declared in it.
type FamilyGroup struct {
	Family        string   `json:"family"`
	Status        string   `json:"status"`
	ConstraintIDs []string `json:"constraint_ids"`
	FamilyDigest  string   `json:"family_digest"`

	// OpaqueSection carries a family's implementation-defined extra data
	// (spec.md §3.8: "{status, digest, opaque_section?}"). No family
	// evaluator in this implementation produces one, so it is always
	// nil/omitted.
	OpaqueSection map[string]any `json:"opaque_section,omitempty"`
}

// evaluateConstraints walks eptEpIDs in order, collecting every
// EpConstraintRef reachable from each EP, deduplicating by constraint id
// (first occurrence wins), then produces the final (ordinal, id)-sorted
// list and its per-family groupings.
func evaluateConstraints(idx ConstraintIndex, eptEpIDs []string) (ConstraintsEnvelope, error) {
	seen := make(map[string]model.EpConstraintRef)
	order := make([]string, 0)
	for _, epID := range eptEpIDs {
		refs := append([]model.EpConstraintRef(nil), idx.RefsForEP(epID)...)
		sort.Slice(refs, func(i, j int) bool { return refs[i].Ordinal < refs[j].Ordinal })
		for _, ref := range refs {
			if _, ok := seen[ref.ConstraintID]; ok {
				continue // first occurrence wins
			}
			seen[ref.ConstraintID] = ref
			order = append(order, ref.ConstraintID)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := seen[order[i]], seen[order[j]]
		if a.Ordinal != b.Ordinal {
			return a.Ordinal < b.Ordinal
		}
		return order[i] < order[j]
	})

	familyMembers := make(map[string][]string)
	familyOrder := make([]string, 0)
	for _, id := range order {
		c, ok := idx.Lookup(id)
		family := "unknown"
		if ok {
			family = c.Family
		}
		if _, seenFamily := familyMembers[family]; !seenFamily {
			familyOrder = append(familyOrder, family)
		}
		familyMembers[family] = append(familyMembers[family], id)
	}
	sort.Strings(familyOrder)

	families := make([]FamilyGroup, 0, len(familyOrder))
	digestEntries := make([]digest.FamilyDigestEntry, 0, len(familyOrder))
	for _, family := range familyOrder {
		ids := familyMembers[family]
		fd, err := digest.ComputeFamilyDigest(ids)
		if err != nil {
			return ConstraintsEnvelope{}, err
		}
		families = append(families, FamilyGroup{Family: family, Status: StatusUncomputed, ConstraintIDs: ids, FamilyDigest: fd})
		digestEntries = append(digestEntries, digest.FamilyDigestEntry{Family: family, Digest: fd})
	}

	cd, err := digest.ComputeConstraintsDigest(order, digestEntries)
	if err != nil {
		return ConstraintsEnvelope{}, err
	}

	return ConstraintsEnvelope{
		DeclaredRefIDs:     order,
		Families:           families,
		ApplicableABB:      []string{},
		ResolvedSBB:        []string{},
		ResolutionEvidence: []string{},
		ConstraintsDigest:  cd,
	}, nil
}
