package expr

import (
	"testing"

	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/ivalue"
	"cfuzzgen/internal/symtab"
)

// identityFixer panics if asked to fix anything — every test in this file
// builds operands that never evaluate to UB.
type identityFixer struct{}

func (identityFixer) Fix(e *Expr) *Expr { panic("identityFixer.Fix should never be called") }

func newTestBuilder() (*Builder, *inttype.Pool) {
	pool := inttype.NewPool()
	return NewBuilder(pool, identityFixer{}, true), pool
}

func TestBinaryPromotesNarrowOperands(t *testing.T) {
	b, pool := newTestBuilder()
	sc := pool.Plain(inttype.SChar)
	l := b.Const(ivalue.FromSigned(sc, 10))
	r := b.Const(ivalue.FromSigned(sc, 20))

	got := b.Binary(ivalue.Add, l, r)
	if got.Type.ID != inttype.Int {
		t.Errorf("Binary(Add, schar, schar).Type = %v, want int (both operands promoted)", got.Type.ID)
	}
	if got.Value.Big().Int64() != 30 {
		t.Errorf("value = %d, want 30", got.Value.Big().Int64())
	}
}

func TestUsualArithConvUnsignedWins(t *testing.T) {
	b, pool := newTestBuilder()
	i := pool.Plain(inttype.Int)
	u := pool.Plain(inttype.UInt)
	l := b.Const(ivalue.FromSigned(i, -1))
	r := b.Const(ivalue.FromUnsigned(u, 5))

	got := b.Binary(ivalue.Add, l, r)
	if got.Type.ID != inttype.UInt {
		t.Errorf("int+uint result type = %v, want uint (same rank, unsigned wins)", got.Type.ID)
	}
}

func TestShiftSkipsUsualArithConversions(t *testing.T) {
	b, pool := newTestBuilder()
	i := pool.Plain(inttype.Int)
	l := pool.Plain(inttype.Long)
	lhs := b.Const(ivalue.FromSigned(l, 1))
	rhs := b.Const(ivalue.FromSigned(i, 2))

	got := b.Binary(ivalue.Shl, lhs, rhs)
	if got.Type.ID != inttype.Long {
		t.Errorf("Shl result type = %v, want long (result type == promoted lhs type)", got.Type.ID)
	}
}

func TestComparisonYieldsBool(t *testing.T) {
	b, pool := newTestBuilder()
	i := pool.Plain(inttype.Int)
	l := b.Const(ivalue.FromSigned(i, 3))
	r := b.Const(ivalue.FromSigned(i, 5))

	got := b.Binary(ivalue.Lt, l, r)
	if got.Type.ID != inttype.Bool {
		t.Errorf("Lt result type = %v, want bool", got.Type.ID)
	}
	if got.Value.Raw != 1 {
		t.Errorf("3 < 5 evaluated to %d, want 1", got.Value.Raw)
	}
}

func TestAssignGatesWriteThroughOnTaken(t *testing.T) {
	b, pool := newTestBuilder()
	i := pool.Plain(inttype.Int)
	target := &symtab.Scalar{Name: "var_0", Type: i}
	source := b.Const(ivalue.FromSigned(i, 42))

	targetExpr := b.AssignTarget(target)
	if _, err := b.Assign(targetExpr, source, false); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if !target.Written {
		t.Error("Assign must mark the target Written even when taken=false")
	}
	if target.Current.Raw != 0 {
		t.Errorf("untaken Assign must not update Current, got %d", target.Current.Raw)
	}

	if _, err := b.Assign(targetExpr, source, true); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if target.Current.Raw != 42 {
		t.Errorf("taken Assign did not update Current, got %d", target.Current.Raw)
	}
}

func TestAssignRejectsNonLvalueTarget(t *testing.T) {
	b, pool := newTestBuilder()
	i := pool.Plain(inttype.Int)
	notAnLvalue := b.Const(ivalue.FromSigned(i, 1))
	source := b.Const(ivalue.FromSigned(i, 2))

	if _, err := b.Assign(notAnLvalue, source, true); err == nil {
		t.Fatal("expected Assign to reject a Const target")
	}
}

func TestUnaryIncDecRequiresLvalue(t *testing.T) {
	b, pool := newTestBuilder()
	i := pool.Plain(inttype.Int)
	notAnLvalue := b.Const(ivalue.FromSigned(i, 1))

	defer func() {
		if recover() == nil {
			t.Fatal("expected UnaryTaken(PostInc, ...) on a non-lvalue to panic")
		}
	}()
	b.UnaryTaken(ivalue.PostInc, notAnLvalue, true)
}

func TestUnaryIncDecWritesThroughAndNeverPromotes(t *testing.T) {
	b, pool := newTestBuilder()
	sc := pool.Plain(inttype.SChar)
	v := &symtab.Scalar{Name: "var_0", Type: sc}
	v.Assign(ivalue.FromSigned(sc, 10), true)
	arg := b.VarUse(v)

	got := b.UnaryTaken(ivalue.PostInc, arg, true)
	if got.Type.ID != inttype.SChar {
		t.Errorf("PostInc result type = %v, want schar (++/-- never promote their operand)", got.Type.ID)
	}
	if v.Current.Big().Int64() != 11 {
		t.Errorf("PostInc did not write through: var Current = %d, want 11", v.Current.Big().Int64())
	}
}

func TestUnaryIncDecUntakenDoesNotWriteThrough(t *testing.T) {
	b, pool := newTestBuilder()
	i := pool.Plain(inttype.Int)
	v := &symtab.Scalar{Name: "var_0", Type: i}
	v.Assign(ivalue.FromSigned(i, 10), true)
	arg := b.VarUse(v)

	b.UnaryTaken(ivalue.PreInc, arg, false)
	if v.Current.Big().Int64() != 10 {
		t.Errorf("untaken PreInc must not write through, var Current = %d, want 10", v.Current.Big().Int64())
	}
	if !v.Written {
		t.Error("untaken PreInc must still mark the variable Written")
	}
}

func TestCastRoundTrip(t *testing.T) {
	b, pool := newTestBuilder()
	sc := pool.Plain(inttype.SChar)
	i := pool.Plain(inttype.Int)
	orig := b.Const(ivalue.FromSigned(sc, -42))

	widened := b.TypeCast(orig, i, false)
	narrowed := b.TypeCast(widened, sc, false)
	if narrowed.Value.Big().Int64() != -42 {
		t.Errorf("widen-then-narrow round trip = %d, want -42", narrowed.Value.Big().Int64())
	}
}

func TestToBoolIdempotentOnBool(t *testing.T) {
	b, pool := newTestBuilder()
	boolT := pool.Plain(inttype.Bool)
	v := b.Const(ivalue.Value{Type: boolT, Raw: 1})

	got := b.ToBool(v)
	if got != v {
		t.Error("ToBool on an already-bool operand must return it unchanged, not wrap a redundant cast")
	}
}
