// Package manifest generates the deterministic, content-addressed snapshot
// manifest (spec.md §4.6): an EPT projection, its constraint envelope, and
// two digests computed in a fixed order so the "semantic" digest never
// depends on the "full" digest's own placeholder.
package manifest

import (
	"time"

	"github.com/NickOut/EttleX-R-sub001/internal/digest"
)

// WireSchemaVersion is the manifest's own JSON shape version (spec.md
// §3.7: "Schema version 1"). It is distinct from StoreSchemaVersion, the
// ledger's opaque data-schema marker.
const WireSchemaVersion = 1

// EPTEntry is one position in the manifest's EPT projection.
type EPTEntry struct {
	Ordinal   int    `json:"ordinal"`
	EpID      string `json:"ep_id"`
	Normative bool   `json:"normative"`
	// EpDigest is SHA-256(ep_id) — a known placeholder simplification
	// (spec.md §9); ComputeEPDigest is the named seam a future schema
	// version would replace this with a real content-derived digest.
	EpDigest string `json:"ep_digest"`
}

// Manifest is the full snapshot manifest, including both digests.
type Manifest struct {
	ManifestSchemaVersion  int                 `json:"manifest_schema_version"`
	StoreSchemaVersion     string              `json:"store_schema_version"`
	PolicyRef              string              `json:"policy_ref"`
	ProfileRef             string              `json:"profile_ref"`
	RootEttleID            string              `json:"root_ettle_id"`
	SeedDigest             string              `json:"seed_digest,omitempty"`
	EPT                    []EPTEntry          `json:"ept"`
	EPTDigest              string              `json:"ept_digest"`
	Constraints            ConstraintsEnvelope `json:"constraints"`
	CreatedAt              string              `json:"created_at"`
	SemanticManifestDigest string              `json:"semantic_manifest_digest"`
	ManifestDigest         string              `json:"manifest_digest"`
}

// semanticView carries every field that participates in
// semantic_manifest_digest: everything content-derived, never created_at
// and never either digest field itself.
type semanticView struct {
	ManifestSchemaVersion int                 `json:"manifest_schema_version"`
	StoreSchemaVersion    string              `json:"store_schema_version"`
	PolicyRef             string              `json:"policy_ref"`
	ProfileRef            string              `json:"profile_ref"`
	RootEttleID           string              `json:"root_ettle_id"`
	SeedDigest            string              `json:"seed_digest,omitempty"`
	EPT                   []EPTEntry          `json:"ept"`
	EPTDigest             string              `json:"ept_digest"`
	Constraints           ConstraintsEnvelope `json:"constraints"`
}

// fullView carries every field of Manifest except manifest_digest itself,
// which would otherwise have to digest its own value.
type fullView struct {
	semanticView
	CreatedAt              string `json:"created_at"`
	SemanticManifestDigest string `json:"semantic_manifest_digest"`
}

// CanonicalBytes reconstructs the exact canonical JSON that
// ManifestDigest was computed over (full manifest minus the
// manifest_digest field itself). This is what the commit orchestrator
// persists to the blob store, so the blob's own content-address equals
// m.ManifestDigest without the blob store needing to know about the
// self-referential-digest rule.
func CanonicalBytes(m *Manifest) ([]byte, error) {
	fv := fullView{
		semanticView: semanticView{
			ManifestSchemaVersion: m.ManifestSchemaVersion,
			StoreSchemaVersion:    m.StoreSchemaVersion,
			PolicyRef:             m.PolicyRef,
			ProfileRef:            m.ProfileRef,
			RootEttleID:           m.RootEttleID,
			SeedDigest:            m.SeedDigest,
			EPT:                   m.EPT,
			EPTDigest:             m.EPTDigest,
			Constraints:           m.Constraints,
		},
		CreatedAt:              m.CreatedAt,
		SemanticManifestDigest: m.SemanticManifestDigest,
	}
	return digest.Canonicalize(fv)
}

// ComputeEPDigest is the phase-1 ep_digest placeholder: SHA-256 of the raw
// ep id. A future schema version that digests an EP's actual content would
// replace calls to this function; nothing else in this package assumes
// the placeholder shape.
func ComputeEPDigest(epID string) string {
	return digest.SHA256Hex([]byte(epID))
}

// Input bundles everything Generate needs.
type Input struct {
	StoreSchemaVersion string
	PolicyRef          string
	ProfileRef         string
	RootEttleID        string
	SeedDigest         string
	EPTEpIDs           []string
	ConstraintIndex    ConstraintIndex
	CreatedAt          time.Time
}

// Generate runs the five-step algorithm of spec.md §4.6. It is a pure
// function of in except for in.CreatedAt, which only affects
// ManifestDigest (never SemanticManifestDigest).
func Generate(in Input) (*Manifest, error) {
	ept := make([]EPTEntry, len(in.EPTEpIDs))
	for i, epID := range in.EPTEpIDs {
		ept[i] = EPTEntry{
			Ordinal:   i,
			EpID:      epID,
			Normative: true,
			EpDigest:  ComputeEPDigest(epID),
		}
	}

	eptDigest, err := digest.ComputeEPTDigest(in.EPTEpIDs)
	if err != nil {
		return nil, err
	}

	envelope, err := evaluateConstraints(in.ConstraintIndex, in.EPTEpIDs)
	if err != nil {
		return nil, err
	}

	sv := semanticView{
		ManifestSchemaVersion: WireSchemaVersion,
		StoreSchemaVersion:    in.StoreSchemaVersion,
		PolicyRef:             in.PolicyRef,
		ProfileRef:            in.ProfileRef,
		RootEttleID:           in.RootEttleID,
		SeedDigest:            in.SeedDigest,
		EPT:                   ept,
		EPTDigest:             eptDigest,
		Constraints:           envelope,
	}
	semanticDigest, err := digest.CanonicalDigest(sv)
	if err != nil {
		return nil, err
	}

	createdAt := in.CreatedAt.UTC().Format(time.RFC3339Nano)
	fv := fullView{
		semanticView:           sv,
		CreatedAt:              createdAt,
		SemanticManifestDigest: semanticDigest,
	}
	manifestDigest, err := digest.CanonicalDigest(fv)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		ManifestSchemaVersion:  WireSchemaVersion,
		StoreSchemaVersion:     in.StoreSchemaVersion,
		PolicyRef:              in.PolicyRef,
		ProfileRef:              in.ProfileRef,
		RootEttleID:            in.RootEttleID,
		SeedDigest:             in.SeedDigest,
		EPT:                    ept,
		EPTDigest:              eptDigest,
		Constraints:            envelope,
		CreatedAt:              createdAt,
		SemanticManifestDigest: semanticDigest,
		ManifestDigest:         manifestDigest,
	}, nil
}
