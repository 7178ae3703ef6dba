package expr

import (
	"testing"

	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/ivalue"
	"cfuzzgen/internal/policy"
	"cfuzzgen/internal/symtab"
)

// zeroFixer clears UB by pinning the offending node's value to zero while
// keeping its shape. GenExpr draws random operands, so UB does arise in
// these tests; they check which leaves the generator picks, not values.
type zeroFixer struct{}

func (zeroFixer) Fix(e *Expr) *Expr {
	e.Value = ivalue.FromSigned(e.Type, 0)
	return e
}

func newGenTestContext(seed uint64) (*Builder, *symtab.Context) {
	pol := policy.Default()
	rng := policy.NewRNG(seed)
	ctx := symtab.NewTopLevel(pol, rng)
	b := NewBuilder(ctx.Pool, zeroFixer{}, pol.LongEqLLong)
	return b, ctx
}

// TestWritableLeafPoolExcludesExternInput is the fix for the inc/dec
// operand-pool bug: extern_input is read-only (spec.md §3.4), so it must
// never appear in the pool ++/-- draws its operand from.
func TestWritableLeafPoolExcludesExternInput(t *testing.T) {
	_, ctx := newGenTestContext(1)
	it := ctx.Pool.Plain(inttype.Int)
	input := &symtab.Scalar{Name: "var_0", Type: it}
	input.Assign(ivalue.FromSigned(it, 1), true)
	if err := ctx.ExternInput.Add(input); err != nil {
		t.Fatal(err)
	}

	for _, c := range WritableLeafPool(ctx) {
		if c.Scalar == input {
			t.Fatal("WritableLeafPool included an extern_input scalar")
		}
	}
}

// TestWritableLeafPoolExcludesConstScalars covers the compile-error case:
// PopulateExterns sometimes interns an extern_input scalar's type as
// CVConst; even if such a scalar ended up in a writable table, it must
// still be excluded.
func TestWritableLeafPoolExcludesConstScalars(t *testing.T) {
	_, ctx := newGenTestContext(2)
	constInt := ctx.Pool.Intern(inttype.Int, false, inttype.CVConst)
	v := &symtab.Scalar{Name: "var_0", Type: constInt}
	v.Assign(ivalue.FromSigned(constInt, 1), true)
	if err := ctx.ExternMixed.Add(v); err != nil {
		t.Fatal(err)
	}

	for _, c := range WritableLeafPool(ctx) {
		if c.Scalar == v {
			t.Fatal("WritableLeafPool included a const-qualified scalar")
		}
	}
}

func TestWritableLeafPoolIncludesLocalsAndMixedAndOutput(t *testing.T) {
	_, ctx := newGenTestContext(3)
	it := ctx.Pool.Plain(inttype.Int)

	local := &symtab.Scalar{Name: "var_0", Type: it}
	local.Assign(ivalue.FromSigned(it, 1), true)
	if err := ctx.Scope.Local.Add(local); err != nil {
		t.Fatal(err)
	}
	mixed := &symtab.Scalar{Name: "var_1", Type: it}
	mixed.Assign(ivalue.FromSigned(it, 2), true)
	if err := ctx.ExternMixed.Add(mixed); err != nil {
		t.Fatal(err)
	}
	output := &symtab.Scalar{Name: "var_2", Type: it}
	output.Assign(ivalue.FromSigned(it, 3), true)
	if err := ctx.ExternOutput.Add(output); err != nil {
		t.Fatal(err)
	}

	seen := map[*symtab.Scalar]bool{}
	for _, c := range WritableLeafPool(ctx) {
		seen[c.Scalar] = true
	}
	for _, want := range []*symtab.Scalar{local, mixed, output} {
		if !seen[want] {
			t.Errorf("WritableLeafPool missing expected scalar %q", want.Name)
		}
	}
}

// TestGenExprIncDecNeverPicksExternInput drives GenExpr directly (seeded
// so ExprUnary/inc-dec is reachable) with only an extern_input scalar and
// a writable local in scope, and asserts any emitted inc/dec node's
// operand is never the input.
func TestGenExprIncDecNeverPicksExternInput(t *testing.T) {
	b, ctx := newGenTestContext(4)
	it := ctx.Pool.Plain(inttype.Int)
	input := &symtab.Scalar{Name: "var_0", Type: it}
	input.Assign(ivalue.FromSigned(it, 5), true)
	if err := ctx.ExternInput.Add(input); err != nil {
		t.Fatal(err)
	}
	local := &symtab.Scalar{Name: "var_1", Type: it}
	local.Assign(ivalue.FromSigned(it, 7), true)
	if err := ctx.Scope.Local.Add(local); err != nil {
		t.Fatal(err)
	}

	var walk func(e *Expr)
	walk = func(e *Expr) {
		if e == nil {
			return
		}
		if e.Kind == KUnary && isIncDec(e.UnaryOp) {
			if e.Operand.Kind == KVarUse && e.Operand.Var == input {
				t.Fatal("inc/dec operand resolved to an extern_input scalar")
			}
		}
		walk(e.Operand)
		walk(e.Left)
		walk(e.Right)
	}

	pool := LeafPool(ctx)
	for i := 0; i < 50; i++ {
		walk(GenExpr(b, ctx, pool, 0))
	}
}
