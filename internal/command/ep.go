package command

import (
	"time"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
	"github.com/NickOut/EttleX-R-sub001/internal/policy"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

// EpCreate appends a new EP to an active Ettle at a previously-unused
// ordinal. Ordinals are never reused, even once the EP that held them has
// been tombstoned.
type EpCreate struct {
	EttleID   string
	Ordinal   int
	Normative bool
	Why       string
	What      string
	How       string
}

func (c EpCreate) apply(s *store.Store, ids IDAllocator, _ policy.AnchorPolicy) (Output, error) {
	ettle, err := s.GetEttle(c.EttleID)
	if err != nil {
		return Output{}, err
	}
	for _, epID := range ettle.EPIDs {
		existing, ok := s.GetEPRaw(epID)
		if !ok || existing.Ordinal != c.Ordinal {
			continue
		}
		if existing.Deleted {
			return Output{}, errtax.New(errtax.InvalidOrdinal,
				"ordinal %d on ettle %s was used by tombstoned ep %s and cannot be reused",
				c.Ordinal, c.EttleID, existing.ID).WithEntity(c.EttleID).WithOrdinal(c.Ordinal)
		}
		return Output{}, errtax.New(errtax.InvalidOrdinal,
			"ordinal %d already exists on ettle %s (ep %s)", c.Ordinal, c.EttleID, existing.ID).
			WithEntity(c.EttleID).WithOrdinal(c.Ordinal)
	}

	now := time.Now().UTC()
	epID := ids.NextEpID()
	ep := &model.EP{
		ID:        epID,
		EttleID:   c.EttleID,
		Ordinal:   c.Ordinal,
		Normative: c.Normative,
		Why:       c.Why,
		What:      c.What,
		How:       c.How,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.PutEP(ep)
	ettle.EPIDs = append(ettle.EPIDs, epID)
	ettle.UpdatedAt = now
	s.PutEttle(ettle)
	return Output{NewEpID: epID}, nil
}

// EpUpdate replaces an EP's content fields. The ordinal is immutable — no
// field exposes it.
type EpUpdate struct {
	EpID      string
	Why       *string
	What      *string
	How       *string
	Normative *bool
}

func (c EpUpdate) apply(s *store.Store, _ IDAllocator, _ policy.AnchorPolicy) (Output, error) {
	ep, err := s.GetEP(c.EpID)
	if err != nil {
		return Output{}, err
	}
	if blankIfExplicit(c.What) {
		return Output{}, errtax.New(errtax.InvalidInput, "what must not be explicitly blank").WithEp(c.EpID)
	}
	if blankIfExplicit(c.How) {
		return Output{}, errtax.New(errtax.InvalidInput, "how must not be explicitly blank").WithEp(c.EpID)
	}
	if c.Why != nil {
		ep.Why = *c.Why
	}
	if c.What != nil {
		ep.What = *c.What
	}
	if c.How != nil {
		ep.How = *c.How
	}
	if c.Normative != nil {
		ep.Normative = *c.Normative
	}
	ep.UpdatedAt = time.Now().UTC()
	s.PutEP(ep)
	return Output{}, nil
}

// EpDelete tombstones an EP. EP0 can never be deleted, and an EP that is
// the sole active mapping to a live child cannot be tombstoned without
// first unlinking it.
type EpDelete struct {
	EpID string
}

func (c EpDelete) apply(s *store.Store, _ IDAllocator, anchor policy.AnchorPolicy) (Output, error) {
	ep, err := s.GetEP(c.EpID)
	if err != nil {
		return Output{}, err
	}
	if ep.Ordinal == 0 {
		return Output{}, errtax.New(errtax.CannotDelete, "ep0 of ettle %s cannot be deleted", ep.EttleID).WithEp(c.EpID)
	}
	if ep.ChildEttleID != "" {
		if child, ok := s.GetEttleRaw(ep.ChildEttleID); ok && !child.Deleted {
			return Output{}, errtax.New(errtax.StrandsChild,
				"ep %s is the active mapping to child %s; unlink before deleting", c.EpID, ep.ChildEttleID).
				WithEp(c.EpID).WithEntity(ep.ChildEttleID)
		}
	}
	_ = anchor // consulted for forward compatibility; hard delete is never taken in phase 1
	ep.Deleted = true
	ep.UpdatedAt = time.Now().UTC()
	s.PutEP(ep)
	return Output{}, nil
}
