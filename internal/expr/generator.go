package expr

import (
	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/ivalue"
	"cfuzzgen/internal/policy"
	"cfuzzgen/internal/symtab"
	"cfuzzgen/internal/xerrors"
)

// LeafCandidate names one variable (or struct member) gen_expr may wrap as
// a fresh VarUse/MemberUse leaf. A *Expr is never reused across two tree
// positions (spec.md §3.7 "no node is shared between two parents"), so
// the pool holds the underlying Variable, not a built Expr, and each pick
// builds a new node.
type LeafCandidate struct {
	Scalar *symtab.Scalar
	Struct *symtab.Struct
	Idx    int
}

// ScalarCandidate wraps a Scalar as a leaf candidate.
func ScalarCandidate(s *symtab.Scalar) LeafCandidate { return LeafCandidate{Scalar: s} }

// MemberCandidate wraps one member of a Struct as a leaf candidate.
func MemberCandidate(s *symtab.Struct, idx int) LeafCandidate {
	return LeafCandidate{Struct: s, Idx: idx}
}

func (b *Builder) buildLeaf(c LeafCandidate) *Expr {
	if c.Struct != nil {
		return b.MemberUse(c.Struct, c.Idx)
	}
	return b.VarUse(c.Scalar)
}

// LeafPool builds the full available-inputs pool for a Context: every
// scalar reachable from it plus every member of every reachable Struct
// (spec.md §4.4 "every in-scope variable wrapped in VarUse, every
// MemberUse reachable from visible Structs").
func LeafPool(ctx *symtab.Context) []LeafCandidate {
	var out []LeafCandidate
	for _, s := range ctx.VisibleScalars() {
		out = append(out, ScalarCandidate(s))
	}
	for _, st := range ctx.VisibleStructs() {
		for i := range st.Members {
			out = append(out, MemberCandidate(st, i))
		}
	}
	return out
}

func appendWritableScalars(out []LeafCandidate, scalars []*symtab.Scalar) []LeafCandidate {
	for _, s := range scalars {
		if s.Type.CV == inttype.CVConst || s.Type.CV == inttype.CVConstVolatile {
			continue
		}
		out = append(out, ScalarCandidate(s))
	}
	return out
}

func appendStructMembers(out []LeafCandidate, structs []*symtab.Struct) []LeafCandidate {
	for _, st := range structs {
		for i := range st.Members {
			out = append(out, MemberCandidate(st, i))
		}
	}
	return out
}

// WritableLeafPool builds the pool of lvalues an in-place mutation (++/--)
// may legally target: every local scalar/struct member, plus extern_mixed
// and extern_output — never extern_input, which spec.md §3.4 makes
// read-only, and never a const-qualified scalar (PopulateExterns gives
// extern_input scalars a chance at CVConst, so excluding the whole table
// also sidesteps emitting a mutation of a `const` variable).
func WritableLeafPool(ctx *symtab.Context) []LeafCandidate {
	var out []LeafCandidate
	for _, sc := range ctx.Scope.Chain() {
		out = appendWritableScalars(out, sc.Local.Scalars())
		out = appendStructMembers(out, sc.Local.Structs())
	}
	out = appendWritableScalars(out, ctx.ExternMixed.Scalars())
	out = appendStructMembers(out, ctx.ExternMixed.Structs())
	out = appendWritableScalars(out, ctx.ExternOutput.Scalars())
	out = appendStructMembers(out, ctx.ExternOutput.Structs())
	return out
}

// RandomType picks a type by ctx's IntTypeDistr (spec.md §4.5). Exported
// so internal/stmt can pick Decl/Loop-iterator types the same way the
// expression generator picks TypeCast targets and Const types.
func RandomType(ctx *symtab.Context) *inttype.Type {
	id := policy.Pick(ctx.RNG, ctx.Policy.IntTypeDistr)
	return ctx.Pool.Plain(id)
}

// RandomValue picks a uniformly distributed in-range value of t, always
// satisfying spec.md §8.1.5 "Representability".
func RandomValue(ctx *symtab.Context, t *inttype.Type) ivalue.Value {
	if t.IsSigned() {
		v := ctx.RNG.UniformI64(t.SignedMin(), t.SignedMax())
		return ivalue.FromSigned(t, v)
	}
	v := ctx.RNG.UniformU64(0, t.UnsignedMax())
	return ivalue.FromUnsigned(t, v)
}

// genConst builds a fresh Const of a random type and a random in-range
// value (spec.md §4.5), always satisfying spec.md §8.1.5
// "Representability".
func (b *Builder) genConst(ctx *symtab.Context) *Expr {
	t := RandomType(ctx)
	return b.Const(RandomValue(ctx, t))
}

func (b *Builder) genLeaf(ctx *symtab.Context, available []LeafCandidate) *Expr {
	if len(available) == 0 || ctx.RNG.Bool(ctx.Policy.ConstProb) {
		return b.genConst(ctx)
	}
	idx := ctx.RNG.Uniform(0, len(available)-1)
	return b.buildLeaf(available[idx])
}

// chooseKind implements spec.md §4.5's "Leaf probability rises with depth
// or when depth == max_depth".
func chooseKind(ctx *symtab.Context, depth int) policy.ExprKind {
	if depth >= ctx.Policy.MaxArithDepth {
		return policy.ExprLeaf
	}
	bump := float64(depth) / float64(ctx.Policy.MaxArithDepth)
	if ctx.RNG.Bool(bump) {
		return policy.ExprLeaf
	}
	return policy.Pick(ctx.RNG, ctx.Policy.ExprKindDistr)
}

// GenExpr recursively builds a typed expression tree (spec.md §4.5).
// Every constructed node is immediately type/value-propagated by Builder;
// UB triggers the Fixer (spec.md §4.3).
func GenExpr(b *Builder, ctx *symtab.Context, available []LeafCandidate, depth int) *Expr {
	switch chooseKind(ctx, depth) {
	case policy.ExprUnary:
		op := policy.Pick(ctx.RNG, ctx.Policy.UnaryOpDistr)
		if isIncDec(op) {
			// ++/-- need a writable lvalue operand (spec.md §6.2 emission),
			// so pick one directly from WritableLeafPool instead of
			// recursing into an arbitrary subtree — available may contain
			// extern_input scalars, which are read-only (spec.md §3.4) and
			// sometimes const-qualified, so they are never eligible here.
			// With no candidates, fall back to Negate, which never needs one.
			lvalues := WritableLeafPool(ctx)
			if len(lvalues) == 0 {
				arg := GenExpr(b, ctx, available, depth+1)
				return b.Unary(ivalue.Negate, arg)
			}
			idx := ctx.RNG.Uniform(0, len(lvalues)-1)
			arg := b.buildLeaf(lvalues[idx])
			return b.UnaryTaken(op, arg, ctx.Taken)
		}
		arg := GenExpr(b, ctx, available, depth+1)
		return b.Unary(op, arg)
	case policy.ExprBinary:
		op := policy.Pick(ctx.RNG, ctx.Policy.BinaryOpDistr)
		l := GenExpr(b, ctx, available, depth+1)
		r := GenExpr(b, ctx, available, depth+1)
		return b.Binary(op, l, r)
	case policy.ExprTypeCast:
		arg := GenExpr(b, ctx, available, depth+1)
		to := RandomType(ctx)
		return b.TypeCast(arg, to, false)
	default:
		return b.genLeaf(ctx, available)
	}
}

// RInit builds an expression guaranteed to evaluate to outValue (already
// typed as outType) while depending on at least one input (spec.md §4.6):
// it builds an arbitrary subtree T that includes a forced variable leaf,
// then wraps it as (T - const(value_of_T)) + const(outValue). Both the
// subtraction and the addition are re-checked for NoUB; since x - x is
// always 0 (always representable) and 0 + outValue is always outValue
// (already in range), the retry loop is a safety net rather than a
// commonly-taken path.
func RInit(b *Builder, ctx *symtab.Context, available []LeafCandidate, outType *inttype.Type, outValue ivalue.Value) *Expr {
	if len(available) == 0 {
		panic(xerrors.Fatalf("expr", "RInit", "no input variables available to build an output dependency"))
	}
	const maxAttempts = 8
	for attempt := 0; attempt < maxAttempts; attempt++ {
		idx := ctx.RNG.Uniform(0, len(available)-1)
		seed := b.buildLeaf(available[idx])
		rest := GenExpr(b, ctx, available, 1)
		op := policy.Pick(ctx.RNG, ctx.Policy.BinaryOpDistr)
		t := b.Binary(op, seed, rest)

		constT := b.Const(ivalue.Value{Type: t.Type, Raw: t.Value.Raw})
		diff := b.Binary(ivalue.Sub, t, constT)
		if diff.Value.UB != ivalue.NoUB {
			continue
		}
		castDiff := b.TypeCast(diff, outType, true)
		outConst := b.Const(outValue)
		final := b.Binary(ivalue.Add, castDiff, outConst)
		if final.Value.UB != ivalue.NoUB {
			continue
		}
		return final
	}
	panic(xerrors.Fatalf("expr", "RInit", "failed to build an output-pinning expression after %d attempts", maxAttempts))
}
