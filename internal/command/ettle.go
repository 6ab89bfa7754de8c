package command

import (
	"time"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
	"github.com/NickOut/EttleX-R-sub001/internal/policy"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

// EttleCreate allocates a new Ettle together with its mandatory EP0. Why,
// What, and How are *string so apply can tell "omitted" (nil, defaults to
// "") from "explicitly blank" (non-nil empty string, rejected) — spec.md
// §4.3: "what and how, if provided, must not be the empty string".
type EttleCreate struct {
	Title    string
	Metadata map[string]any
	Why      *string
	What     *string
	How      *string
}

func (c EttleCreate) apply(s *store.Store, ids IDAllocator, _ policy.AnchorPolicy) (Output, error) {
	if !nonEmptyTrimmed(c.Title) {
		return Output{}, errtax.New(errtax.InvalidTitle, "title must not be blank")
	}
	if blankIfExplicit(c.What) {
		return Output{}, errtax.New(errtax.InvalidInput, "what must not be explicitly blank")
	}
	if blankIfExplicit(c.How) {
		return Output{}, errtax.New(errtax.InvalidInput, "how must not be explicitly blank")
	}

	now := time.Now().UTC()
	ettleID := ids.NextEttleID()
	epID := ids.NextEpID()

	ettle := &model.Ettle{
		ID:        ettleID,
		Title:     c.Title,
		Metadata:  c.Metadata,
		EPIDs:     []string{epID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	ep := &model.EP{
		ID:        epID,
		EttleID:   ettleID,
		Ordinal:   0,
		Normative: true,
		Why:       stringOrEmpty(c.Why),
		What:      stringOrEmpty(c.What),
		How:       stringOrEmpty(c.How),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.PutEttle(ettle)
	s.PutEP(ep)
	return Output{NewEttleID: ettleID, NewEpID: epID}, nil
}

// EttleUpdate replaces an Ettle's title and/or metadata.
type EttleUpdate struct {
	ID       string
	Title    *string
	Metadata map[string]any
	SetMeta  bool // true when Metadata should replace the prior value, including with nil/empty
}

func (c EttleUpdate) apply(s *store.Store, _ IDAllocator, _ policy.AnchorPolicy) (Output, error) {
	target, err := s.GetEttle(c.ID)
	if err != nil {
		return Output{}, err
	}
	if c.Title != nil {
		if !nonEmptyTrimmed(*c.Title) {
			return Output{}, errtax.New(errtax.InvalidTitle, "title must not be blank").WithEntity(c.ID)
		}
		target.Title = *c.Title
	}
	if c.SetMeta {
		target.Metadata = c.Metadata
	}
	target.UpdatedAt = time.Now().UTC()
	s.PutEttle(target)
	return Output{}, nil
}

// EttleDelete tombstones an Ettle, refused while any active EP of it still
// maps to a live child (that would strand the child).
type EttleDelete struct {
	ID string
}

func (c EttleDelete) apply(s *store.Store, _ IDAllocator, _ policy.AnchorPolicy) (Output, error) {
	target, err := s.GetEttle(c.ID)
	if err != nil {
		return Output{}, err
	}
	active, err := s.ActiveEPs(target)
	if err != nil {
		return Output{}, err
	}
	for _, ep := range active {
		if ep.ChildEttleID != "" {
			if child, ok := s.GetEttleRaw(ep.ChildEttleID); ok && !child.Deleted {
				return Output{}, errtax.New(errtax.StrandsChild,
					"ettle %s still has an active mapping to child %s", c.ID, ep.ChildEttleID).
					WithEntity(c.ID).WithEp(ep.ID)
			}
		}
	}
	target.Deleted = true
	target.UpdatedAt = time.Now().UTC()
	s.PutEttle(target)
	return Output{}, nil
}
