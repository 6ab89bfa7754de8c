// Package command implements the closed command surface of spec.md §4.3:
// a pure state-transition function (Store, Command, AnchorPolicy) → Store.
// Every command either fully applies or leaves the input Store completely
// untouched (P5) — Apply works against a clone and only swaps it in on
// success.
package command

import (
	"strings"

	"github.com/NickOut/EttleX-R-sub001/internal/policy"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

// IDAllocator allocates fresh, time-ordered ids for new entities.
type IDAllocator interface {
	NextEttleID() string
	NextEpID() string
}

// Command is the closed variant of mutating operations.
type Command interface {
	apply(s *store.Store, ids IDAllocator, anchor policy.AnchorPolicy) (Output, error)
}

// Output carries whatever a command's caller needs back beyond the
// mutated Store (e.g. a newly allocated id).
type Output struct {
	NewEttleID string
	NewEpID    string
}

// Apply is the single entry point: it applies cmd against a clone of s and
// only returns that clone if cmd succeeds. On failure it returns s itself,
// unmodified, alongside the error — no partial mutation is ever observable
// (P5).
func Apply(s *store.Store, cmd Command, ids IDAllocator, anchor policy.AnchorPolicy) (*store.Store, Output, error) {
	working := s.Clone()
	out, err := cmd.apply(working, ids, anchor)
	if err != nil {
		return s, Output{}, err
	}
	return working, out, nil
}

func nonEmptyTrimmed(s string) bool {
	return strings.TrimSpace(s) != ""
}

// blankIfExplicit reports whether a pointer-to-string field was supplied
// (non-nil) but empty — the spec forbids explicitly-blank what/how
// while allowing omission (spec.md §4.3: "what and how, if provided, must
// not be the empty string").
func blankIfExplicit(v *string) bool {
	return v != nil && *v == ""
}

// stringOrEmpty dereferences v, defaulting an omitted (nil) field to "".
func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
