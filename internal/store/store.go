// Package store holds the in-memory keyed collections of Ettles and EPs
// (spec.md §4.1) and the single deterministic active-EP projection every
// downstream computation (traversal, digesting, manifest generation) is
// built on.
package store

import (
	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
)

// Store owns every Ettle and EP record. It is never shared mutably: command
// application consumes one Store and returns a fresh one (spec.md §3.11).
type Store struct {
	ettles map[string]*model.Ettle
	eps    map[string]*model.EP
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		ettles: make(map[string]*model.Ettle),
		eps:    make(map[string]*model.EP),
	}
}

// Clone returns a copy suitable as the basis for a command's copy-on-write
// mutation: every Ettle and EP record is cloned individually, so a command
// may mutate the records it fetches from the clone in place without the
// original Store observing the change.
func (s *Store) Clone() *Store {
	c := &Store{
		ettles: make(map[string]*model.Ettle, len(s.ettles)),
		eps:    make(map[string]*model.EP, len(s.eps)),
	}
	for k, v := range s.ettles {
		c.ettles[k] = v.Clone()
	}
	for k, v := range s.eps {
		c.eps[k] = v.Clone()
	}
	return c
}

// PutEttle inserts or replaces an Ettle record.
func (s *Store) PutEttle(e *model.Ettle) {
	s.ettles[e.ID] = e
}

// PutEP inserts or replaces an EP record.
func (s *Store) PutEP(p *model.EP) {
	s.eps[p.ID] = p
}

// GetEttle returns an active (non-tombstoned) Ettle, or *errtax.Error with
// Kind NotFound / Deleted.
func (s *Store) GetEttle(id string) (*model.Ettle, error) {
	e, ok := s.ettles[id]
	if !ok {
		return nil, errtax.New(errtax.NotFound, "ettle %s not found", id).WithEntity(id)
	}
	if e.Deleted {
		return nil, errtax.New(errtax.Deleted, "ettle %s is deleted", id).WithEntity(id)
	}
	return e, nil
}

// GetEP returns an active (non-tombstoned) EP, or *errtax.Error with Kind
// NotFound / Deleted.
func (s *Store) GetEP(id string) (*model.EP, error) {
	p, ok := s.eps[id]
	if !ok {
		return nil, errtax.New(errtax.NotFound, "ep %s not found", id).WithEp(id)
	}
	if p.Deleted {
		return nil, errtax.New(errtax.Deleted, "ep %s is deleted", id).WithEp(id)
	}
	return p, nil
}

// GetEttleRaw bypasses tombstone filtering, for invariant checks and
// hydration.
func (s *Store) GetEttleRaw(id string) (*model.Ettle, bool) {
	e, ok := s.ettles[id]
	return e, ok
}

// GetEPRaw bypasses tombstone filtering, for invariant checks and
// hydration.
func (s *Store) GetEPRaw(id string) (*model.EP, bool) {
	p, ok := s.eps[id]
	return p, ok
}

// ListEttles returns every non-deleted Ettle, order-unspecified.
func (s *Store) ListEttles() []*model.Ettle {
	out := make([]*model.Ettle, 0, len(s.ettles))
	for _, e := range s.ettles {
		if !e.Deleted {
			out = append(out, e)
		}
	}
	return out
}

// ListEPs returns every non-deleted EP, order-unspecified.
func (s *Store) ListEPs() []*model.EP {
	out := make([]*model.EP, 0, len(s.eps))
	for _, p := range s.eps {
		if !p.Deleted {
			out = append(out, p)
		}
	}
	return out
}

// ListEttlesRaw returns every Ettle including tombstoned ones, for
// invariant checks.
func (s *Store) ListEttlesRaw() []*model.Ettle {
	out := make([]*model.Ettle, 0, len(s.ettles))
	for _, e := range s.ettles {
		out = append(out, e)
	}
	return out
}

// ListEPsRaw returns every EP including tombstoned ones, for invariant
// checks.
func (s *Store) ListEPsRaw() []*model.EP {
	out := make([]*model.EP, 0, len(s.eps))
	for _, p := range s.eps {
		out = append(out, p)
	}
	return out
}
