package rewrite

import (
	"testing"

	"cfuzzgen/internal/expr"
	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/ivalue"
	"cfuzzgen/internal/policy"
	"cfuzzgen/internal/symtab"
)

func newBuilder(seed uint64) (*expr.Builder, *inttype.Pool) {
	pool := inttype.NewPool()
	rng := policy.NewRNG(seed)
	rewriter := NewRewriter(pool, rng)
	return expr.NewBuilder(pool, rewriter, true), pool
}

// TestDivByZeroRewritten is spec.md §8.3's boundary case 14 and §8.4 S2:
// a generated `x / 0` must never survive Binary's fixIfUB pass.
func TestDivByZeroRewritten(t *testing.T) {
	b, pool := newBuilder(1)
	i := pool.Plain(inttype.Int)
	l := b.Const(ivalue.FromSigned(i, 7))
	r := b.Const(ivalue.FromSigned(i, 0))

	got := b.Binary(ivalue.Div, l, r)
	if got.Value.UB != ivalue.NoUB {
		t.Fatalf("rewritten Div-by-zero still UB: %v", got.Value.UB)
	}
	if got.BinaryOp == ivalue.Div {
		t.Errorf("rewriter left the operator as Div")
	}
}

// TestIntMinDivNegOneRewritten is spec.md §8.3 boundary case 11.
func TestIntMinDivNegOneRewritten(t *testing.T) {
	b, pool := newBuilder(2)
	i := pool.Plain(inttype.Int)
	l := b.Const(ivalue.FromSigned(i, i.SignedMin()))
	r := b.Const(ivalue.FromSigned(i, -1))

	got := b.Binary(ivalue.Div, l, r)
	if got.Value.UB != ivalue.NoUB {
		t.Fatalf("rewritten INT_MIN/-1 still UB: %v", got.Value.UB)
	}
}

// TestShiftByBitwidthRewritten is spec.md §8.3 boundary case 12 / §8.4 S3.
func TestShiftByBitwidthRewritten(t *testing.T) {
	b, pool := newBuilder(3)
	i := pool.Plain(inttype.Int)
	l := b.Const(ivalue.FromSigned(i, 1))
	r := b.Const(ivalue.FromSigned(i, 64))

	got := b.Binary(ivalue.Shl, l, r)
	if got.Value.UB != ivalue.NoUB {
		t.Fatalf("rewritten Shl-by-64 still UB: %v", got.Value.UB)
	}
	if got.Type.ID != inttype.Int {
		t.Errorf("Shl result type = %v, want int", got.Type.ID)
	}
}

// TestNegativeShiftLHSRewritten is spec.md §8.3 boundary case 13.
func TestNegativeShiftLHSRewritten(t *testing.T) {
	b, pool := newBuilder(4)
	i := pool.Plain(inttype.Int)
	l := b.Const(ivalue.FromSigned(i, -5))
	r := b.Const(ivalue.FromSigned(i, 2))

	got := b.Binary(ivalue.Shl, l, r)
	if got.Value.UB != ivalue.NoUB {
		t.Fatalf("rewritten negative-lhs Shl still UB: %v", got.Value.UB)
	}
}

// TestPostIncAtMaxRewritten is spec.md §8.3 boundary case 15.
func TestPostIncAtMaxRewritten(t *testing.T) {
	b, pool := newBuilder(5)
	sc := pool.Plain(inttype.SChar)
	v := &symtab.Scalar{Name: "var_0", Type: sc}
	v.Assign(ivalue.FromSigned(sc, sc.SignedMax()), true)
	arg := b.VarUse(v)

	got := b.UnaryTaken(ivalue.PostInc, arg, true)
	if got.Value.UB != ivalue.NoUB {
		t.Fatalf("rewritten PostInc-at-max still UB: %v", got.Value.UB)
	}
	if got.UnaryOp != ivalue.PostDec {
		t.Errorf("fixUnary swapped PostInc to %v, want PostDec", got.UnaryOp)
	}
	if v.Current.Raw != got.Value.Raw {
		t.Errorf("PostDec did not write through: variable raw=%d, node value=%d", v.Current.Raw, got.Value.Raw)
	}
}

func TestStatsCountsRewrites(t *testing.T) {
	pool := inttype.NewPool()
	rng := policy.NewRNG(6)
	r := NewRewriter(pool, rng)
	b := expr.NewBuilder(pool, r, true)

	i := pool.Plain(inttype.Int)
	l := b.Const(ivalue.FromSigned(i, 7))
	rhs := b.Const(ivalue.FromSigned(i, 0))
	b.Binary(ivalue.Div, l, rhs)

	if r.Stats.Count(ivalue.ZeroDiv) != 1 {
		t.Errorf("Stats.Count(ZeroDiv) = %d, want 1", r.Stats.Count(ivalue.ZeroDiv))
	}
	if r.Stats.Total() != 1 {
		t.Errorf("Stats.Total() = %d, want 1", r.Stats.Total())
	}
}
