// Package idgen generates time-ordered, lexicographically sortable ids for
// Ettles, EPs, and snapshots.
//
// The encoding reuses the teacher's base36 byte encoder
// (internal/idgen/hash.go in steveyegge-beads), but where the teacher hashes
// content to a short opaque suffix, ids here must be *time-ordered* (spec.md
// §3.1, §3.6): a fixed-width, zero-padded base36 timestamp forms the
// sortable prefix, and a random suffix (sourced from google/uuid, promoted
// here to a direct dependency) disambiguates same-millisecond allocations.
package idgen

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// timestampWidth is the number of base36 digits needed to hold milliseconds
// since the Unix epoch through the year ~5188 without overflowing.
const timestampWidth = 9

// suffixWidth is the number of base36 digits in the random disambiguator.
const suffixWidth = 6

// EncodeBase36 converts a byte slice to a base36 string of exactly length
// characters, left-padding with '0' and truncating to the least-significant
// digits if the encoded value is longer than length.
func EncodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)
	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}
	for i, j := 0, len(chars)-1; i < j; i, j = i+1, j-1 {
		chars[i], chars[j] = chars[j], chars[i]
	}
	str := string(chars)
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	if len(str) > length {
		str = str[len(str)-length:]
	}
	return str
}

func encodeUint64(v uint64, width int) string {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return EncodeBase36(b, width)
}

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Generator produces time-ordered ids with a fixed prefix (e.g. "ettle",
// "ep", "snap"). Ids it produces compare lexicographically in the same
// order they were generated whenever the clock advances by at least one
// millisecond between calls; ids from the same millisecond are ordered by
// their random suffix.
type Generator struct {
	prefix string
	now    Clock
}

// New creates a Generator whose ids are tagged with prefix.
func New(prefix string) *Generator {
	return &Generator{prefix: prefix, now: time.Now}
}

// NewWithClock creates a Generator using an injected clock, for tests that
// need reproducible ordering.
func NewWithClock(prefix string, clock Clock) *Generator {
	return &Generator{prefix: prefix, now: clock}
}

// Next allocates a new id of the form "<prefix>_<ts><suffix>".
func (g *Generator) Next() string {
	ms := uint64(g.now().UnixMilli())
	ts := encodeUint64(ms, timestampWidth)
	suffix := EncodeBase36(uuid.New().NodeID(), suffixWidth)
	return fmt.Sprintf("%s_%s%s", g.prefix, ts, suffix)
}
