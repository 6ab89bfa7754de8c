// Package hydrate implements the C14 hydration procedure of spec.md
// §4.10: reconstruct a Store from a ledger handle, then run the C5
// structural validation pass before handing the Store to any caller. The
// ledger's own retrieval order is unspecified and irrelevant; only
// active_eps' ordinal sort matters downstream (spec.md §4.10).
package hydrate

import (
	"context"

	"github.com/NickOut/EttleX-R-sub001/internal/ledger"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
	"github.com/NickOut/EttleX-R-sub001/internal/validate"
)

// Hydrate reads every active Ettle/EP from l and returns a validated Store.
// A Store that fails structural validation is never handed back; the
// first violation (in validate.ValidateTree's fixed check order) is
// returned instead.
func Hydrate(ctx context.Context, l ledger.Ledger) (*store.Store, error) {
	s, err := l.HydrateAll(ctx)
	if err != nil {
		return nil, err
	}
	if verr := validate.ValidateTree(s); verr != nil {
		return nil, verr
	}
	return s, nil
}
