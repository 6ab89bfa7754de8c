package idgen

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextIsPrefixed(t *testing.T) {
	g := New("ettle")
	id := g.Next()
	assert.Contains(t, id, "ettle_")
}

func TestIdsAreTimeOrdered(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	g := NewWithClock("ep", func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	})

	var ids []string
	for i := 0; i < 50; i++ {
		ids = append(ids, g.Next())
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	assert.Equal(t, ids, sorted, "ids generated in increasing clock order must already be lexicographically sorted")
}

func TestEncodeBase36RoundTripsWidth(t *testing.T) {
	out := EncodeBase36([]byte{0xff, 0xff, 0xff}, 10)
	assert.Len(t, out, 10)
}

func TestIdsAreUnique(t *testing.T) {
	g := New("snap")
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := g.Next()
		assert.False(t, seen[id], "duplicate id generated: %s", id)
		seen[id] = true
	}
}
