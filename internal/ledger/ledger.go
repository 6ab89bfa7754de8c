// Package ledger defines the persistence contract the core depends on
// (spec.md §6): idempotent entity upserts, whole-store hydration, opaque
// metadata lookups, and snapshot append/query. Schema is left to the
// implementer; behavior is contractual.
package ledger

import (
	"context"

	"github.com/NickOut/EttleX-R-sub001/internal/model"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

// Ledger is the persistence boundary the commit orchestrator and the
// façade depend on. Implementations must make PersistEttle/PersistEP
// idempotent upserts and InsertSnapshot atomic.
type Ledger interface {
	PersistEttle(ctx context.Context, e *model.Ettle) error
	PersistEP(ctx context.Context, p *model.EP) error
	HydrateAll(ctx context.Context) (*store.Store, error)

	GetSchemaVersion(ctx context.Context) (string, error)
	GetMetadata(ctx context.Context, key string) (string, bool, error)

	GetHeadSnapshot(ctx context.Context) (*model.Snapshot, bool, error)
	FindSnapshotBySemanticDigest(ctx context.Context, digestHex string) (*model.Snapshot, bool, error)
	// InsertSnapshot appends row in a single transaction. row.ParentSnapshotID
	// must already be resolved by the caller (the prior head as observed at
	// the start of the commit).
	InsertSnapshot(ctx context.Context, row *model.Snapshot) error
}
