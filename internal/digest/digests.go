package digest

import "sort"

// EPContent is the canonical shape digested for an EP's content_digest:
// {"how": H, "what": W, "why": Y} with keys alphabetical (spec.md §3.2).
type EPContent struct {
	How  string `json:"how"`
	What string `json:"what"`
	Why  string `json:"why"`
}

// ComputeEPContentDigest computes an EP's content_digest.
func ComputeEPContentDigest(why, what, how string) (string, error) {
	return CanonicalDigest(EPContent{How: how, What: what, Why: why})
}

// ComputeEPTDigest computes the EPT digest: SHA-256 over the canonical JSON
// of the ordered list of EP ids (spec.md §4.5). Permuting the list changes
// the digest (P8).
func ComputeEPTDigest(epIDs []string) (string, error) {
	return CanonicalDigest(append([]string(nil), epIDs...))
}

// ComputeConstraintPayloadDigest computes a Constraint's payload_digest.
func ComputeConstraintPayloadDigest(payload any) (string, error) {
	return CanonicalDigest(payload)
}

// ComputeFamilyDigest computes a constraint family's digest: SHA-256 over
// the canonical JSON of the sorted list of constraint ids in the family.
func ComputeFamilyDigest(constraintIDs []string) (string, error) {
	sorted := append([]string(nil), constraintIDs...)
	sort.Strings(sorted)
	return CanonicalDigest(sorted)
}

// FamilyDigestEntry is one (family_name, family_digest) pair, used to build
// the constraints_digest input in declared order (sorted by family name by
// the caller).
type FamilyDigestEntry struct {
	Family string
	Digest string
}

// ComputeConstraintsDigest computes the envelope's constraints_digest:
// SHA-256 over the canonical JSON [declared_ref_ids, [(family, digest)...]].
func ComputeConstraintsDigest(declaredRefIDs []string, families []FamilyDigestEntry) (string, error) {
	pairs := make([][2]string, 0, len(families))
	for _, f := range families {
		pairs = append(pairs, [2]string{f.Family, f.Digest})
	}
	return CanonicalDigest([]any{append([]string(nil), declaredRefIDs...), pairs})
}

// ComputeSeedDigest computes a deterministic digest over a seed's canonical
// form. The caller is responsible for producing a JSON-shaped value with
// Ettles sorted by id (each with EPs sorted by ordinal and fields
// alphabetized) and links sorted by (parent, parent_ep, child), per
// spec.md §4.5 — seed parsing itself is an out-of-scope collaborator, this
// is only the digest seam it is expected to call.
func ComputeSeedDigest(canonicalSeed any) (string, error) {
	return CanonicalDigest(canonicalSeed)
}
