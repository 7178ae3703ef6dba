package policy

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RNG is the single mutable resource generation threads through every
// recursive call (spec.md §5, §9 "Global mutable RNG"). It is never a
// package-global: a *RNG is passed explicitly so two runs with the same
// seed produce byte-identical output (spec.md §5 Determinism, §8.1.1)
// regardless of what else runs concurrently in the same process.
type RNG struct {
	r *rand.Rand
}

// ResolveSeed turns the CLI's raw seed into an effective one: 0 means "draw
// from OS entropy" (spec.md §6.3); anything else is used verbatim so runs
// are reproducible.
func ResolveSeed(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	var b [8]byte
	if _, err := crand.Read(b[:]); err == nil {
		if v := binary.LittleEndian.Uint64(b[:]); v != 0 {
			return v
		}
	}
	return 0x9e3779b97f4a7c15 // fallback constant, never zero
}

// NewRNG builds a deterministic generator seeded from a resolved
// (non-zero) seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(seed, seed^0xff51afd7ed558ccd))}
}

// Uniform returns an integer in [lo, hi], inclusive.
func (g *RNG) Uniform(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.r.IntN(hi-lo+1)
}

// Bool returns true with probability p (0 <= p <= 1).
func (g *RNG) Bool(p float64) bool {
	return g.r.Float64() < p
}

// UniformU64 returns an integer in [lo, hi], inclusive, spanning the full
// uint64 domain when needed (e.g. unsigned long long's range) without the
// overflow a naive hi-lo+1 computation would hit at the top of that
// domain.
func (g *RNG) UniformU64(lo, hi uint64) uint64 {
	if hi <= lo {
		return lo
	}
	span := hi - lo
	if span == ^uint64(0) {
		return g.r.Uint64()
	}
	return lo + g.r.Uint64N(span+1)
}

// UniformI64 returns an integer in [lo, hi], inclusive, spanning the full
// int64 domain when needed (e.g. long long's range). The lo/hi difference
// is taken in uint64's two's-complement domain, which yields the correct
// span even when it does not fit in int64.
func (g *RNG) UniformI64(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	span := uint64(hi) - uint64(lo)
	if span == ^uint64(0) {
		return int64(g.r.Uint64())
	}
	return int64(uint64(lo) + g.r.Uint64N(span+1))
}

// Weighted is one (item, weight) entry of a pick(id, weight)* distribution
// (spec.md §2 C2).
type Weighted[T any] struct {
	Item   T
	Weight int
}

// Pick chooses one item from dist, weighted by Weight. Panics if dist is
// empty or every weight is <= 0. Policy.Validate does not check the
// distributions, so such a Policy reaches Pick unchanged and panics here.
func Pick[T any](g *RNG, dist []Weighted[T]) T {
	total := 0
	for _, w := range dist {
		if w.Weight > 0 {
			total += w.Weight
		}
	}
	n := g.r.IntN(total)
	for _, w := range dist {
		if w.Weight <= 0 {
			continue
		}
		if n < w.Weight {
			return w.Item
		}
		n -= w.Weight
	}
	return dist[len(dist)-1].Item
}
