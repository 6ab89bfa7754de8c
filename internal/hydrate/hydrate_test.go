package hydrate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/ledger/memledger"
	"github.com/NickOut/EttleX-R-sub001/internal/model"
)

func TestHydrateValidTreeSucceeds(t *testing.T) {
	ctx := context.Background()
	l := memledger.New("1")
	now := time.Now().UTC()
	require.NoError(t, l.PersistEttle(ctx, &model.Ettle{ID: "ettle:root", Title: "root", EPIDs: []string{"ep:0"}, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, l.PersistEP(ctx, &model.EP{ID: "ep:0", EttleID: "ettle:root", Ordinal: 0, CreatedAt: now, UpdatedAt: now}))

	s, err := Hydrate(ctx, l)
	require.NoError(t, err)
	ettle, err := s.GetEttle("ettle:root")
	require.NoError(t, err)
	assert.Equal(t, "root", ettle.Title)
}

func TestHydrateRejectsStructurallyBrokenLedger(t *testing.T) {
	ctx := context.Background()
	l := memledger.New("1")
	now := time.Now().UTC()
	// Ettle lists an ep id that was never persisted.
	require.NoError(t, l.PersistEttle(ctx, &model.Ettle{ID: "ettle:root", Title: "root", EPIDs: []string{"ep:missing"}, CreatedAt: now, UpdatedAt: now}))

	_, err := Hydrate(ctx, l)
	require.Error(t, err)
	assert.Equal(t, errtax.DeterminismViolation, errtax.KindOf(err))
}
