package command

import "github.com/NickOut/EttleX-R-sub001/internal/idgen"

// DefaultIDAllocator wires internal/idgen's time-ordered generators into
// the IDAllocator commands expect.
type DefaultIDAllocator struct {
	ettles *idgen.Generator
	eps    *idgen.Generator
}

// NewDefaultIDAllocator builds an allocator prefixing ids "ettle" and "ep".
func NewDefaultIDAllocator() *DefaultIDAllocator {
	return &DefaultIDAllocator{
		ettles: idgen.New("ettle"),
		eps:    idgen.New("ep"),
	}
}

func (a *DefaultIDAllocator) NextEttleID() string { return a.ettles.Next() }
func (a *DefaultIDAllocator) NextEpID() string    { return a.eps.Next() }
