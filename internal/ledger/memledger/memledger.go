// Package memledger is an in-memory Ledger, grounded on the teacher's
// MemoryStorage backend (internal/storage/memory): useful for tests and
// for any caller that doesn't need durability across process restarts.
package memledger

import (
	"context"
	"sort"
	"sync"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/ledger"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
	"github.com/NickOut/EttleX-R-sub001/internal/store"
)

// Ledger is a mutex-guarded in-memory implementation of ledger.Ledger.
type Ledger struct {
	mu sync.RWMutex

	ettles    map[string]*model.Ettle
	eps       map[string]*model.EP
	metadata  map[string]string
	schemaVer string
	snapshots []*model.Snapshot
}

var _ ledger.Ledger = (*Ledger)(nil)

// New returns an empty in-memory ledger at schema version schemaVersion.
func New(schemaVersion string) *Ledger {
	return &Ledger{
		ettles:    make(map[string]*model.Ettle),
		eps:       make(map[string]*model.EP),
		metadata:  make(map[string]string),
		schemaVer: schemaVersion,
	}
}

func (l *Ledger) PersistEttle(_ context.Context, e *model.Ettle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	clone := e.Clone()
	l.ettles[clone.ID] = clone
	return nil
}

func (l *Ledger) PersistEP(_ context.Context, p *model.EP) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	clone := p.Clone()
	l.eps[clone.ID] = clone
	return nil
}

func (l *Ledger) HydrateAll(_ context.Context) (*store.Store, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := store.New()
	for _, e := range l.ettles {
		if !e.Deleted {
			s.PutEttle(e.Clone())
		}
	}
	for _, p := range l.eps {
		if !p.Deleted {
			s.PutEP(p.Clone())
		}
	}
	return s, nil
}

func (l *Ledger) GetSchemaVersion(_ context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.schemaVer, nil
}

// SetMetadata is a test/seeding helper; the core never writes metadata
// through the Ledger interface itself.
func (l *Ledger) SetMetadata(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.metadata[key] = value
}

func (l *Ledger) GetMetadata(_ context.Context, key string) (string, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.metadata[key]
	return v, ok, nil
}

func (l *Ledger) GetHeadSnapshot(_ context.Context) (*model.Snapshot, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.snapshots) == 0 {
		return nil, false, nil
	}
	head := *l.snapshots[len(l.snapshots)-1]
	return &head, true, nil
}

func (l *Ledger) FindSnapshotBySemanticDigest(_ context.Context, digestHex string) (*model.Snapshot, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	// snapshots are appended in commit order, which is already
	// time-ordered; scan oldest-first so ties resolve to the earliest row.
	for _, s := range l.snapshots {
		if s.SemanticManifestDigest == digestHex {
			row := *s
			return &row, true, nil
		}
	}
	return nil, false, nil
}

func (l *Ledger) InsertSnapshot(_ context.Context, row *model.Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.snapshots {
		if existing.SnapshotID == row.SnapshotID {
			return errtax.New(errtax.Persistence, "snapshot id %s already exists", row.SnapshotID).WithEntity(row.SnapshotID)
		}
	}
	copyRow := *row
	l.snapshots = append(l.snapshots, &copyRow)
	return nil
}

// SnapshotCount is a test helper exposing the total row count.
func (l *Ledger) SnapshotCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.snapshots)
}

// AllSnapshots is a test helper returning every row ordered by CreatedAt;
// rows with equal CreatedAt keep their insertion order.
func (l *Ledger) AllSnapshots() []*model.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*model.Snapshot, len(l.snapshots))
	copy(out, l.snapshots)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
