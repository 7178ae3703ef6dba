// Package rewrite implements spec.md §4.3's operator-rewrite UB-elimination
// strategy: the Rewriter swaps an offending operator for one that produces
// a well-defined result from the same operands, grounded on the original
// implementation's UnaryExpr::rebuild/ArithExprGen::rebuild_binary
// (original_source/expr.cpp, original_source/master.cpp). It implements
// internal/expr's Fixer interface without internal/expr importing this
// package, keeping C4/C5 free of an import cycle (spec.md §9).
package rewrite

import (
	"math/bits"

	"cfuzzgen/internal/expr"
	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/ivalue"
	"cfuzzgen/internal/policy"
	"cfuzzgen/internal/xerrors"
)

// Stats accumulates how many times each UB reason was observed and
// rewritten during a run (spec.md §5.2, a feature the distilled spec
// dropped but the original tool reports via its Statistics struct,
// original_source/src/statistics.h).
type Stats struct {
	counts map[ivalue.UBTag]int
}

func NewStats() *Stats { return &Stats{counts: make(map[ivalue.UBTag]int)} }

func (s *Stats) record(tag ivalue.UBTag) { s.counts[tag]++ }

// Count returns how many rewrites were triggered by the given UB reason.
func (s *Stats) Count(tag ivalue.UBTag) int { return s.counts[tag] }

// Total returns the number of rewrites performed across all UB reasons.
func (s *Stats) Total() int {
	n := 0
	for _, c := range s.counts {
		n += c
	}
	return n
}

// Rewriter is the expr.Fixer implementation (spec.md §4.3). It needs the
// same type pool, bool type and RNG the Builder that owns it was
// constructed with, so rewritten constants land in the same flyweight
// table and shift-width corrections stay deterministic under the run's
// seed.
type Rewriter struct {
	Pool     *inttype.Pool
	BoolType *inttype.Type
	RNG      *policy.RNG
	Stats    *Stats
}

func NewRewriter(pool *inttype.Pool, rng *policy.RNG) *Rewriter {
	return &Rewriter{Pool: pool, BoolType: pool.Plain(inttype.Bool), RNG: rng, Stats: NewStats()}
}

// Fix implements expr.Fixer.
func (r *Rewriter) Fix(e *expr.Expr) *expr.Expr {
	r.Stats.record(e.Value.UB)
	switch e.Kind {
	case expr.KUnary:
		return r.fixUnary(e)
	case expr.KBinary:
		return r.fixBinary(e)
	default:
		panic(xerrors.Fatalf("rewrite", "Fix", "node kind %d cannot be UB and has no rewrite strategy", e.Kind))
	}
}

func (r *Rewriter) evalUnary(e *expr.Expr) {
	e.Value = ivalue.EvalUnary(e.UnaryOp, e.Operand.Value)
}

func (r *Rewriter) evalBinary(e *expr.Expr) {
	e.Value = ivalue.EvalBinary(e.BinaryOp, e.Left.Value, e.Right.Value, r.BoolType)
}

// fixUnary mirrors UnaryExpr::rebuild: PreInc/PreDec and PostInc/PostDec
// swap with each other, Negate becomes Plus. Plus/LogicalNot/BitNot never
// reach here since spec.md §4.1.1 never marks them UB.
func (r *Rewriter) fixUnary(e *expr.Expr) *expr.Expr {
	switch e.UnaryOp {
	case ivalue.PreInc:
		e.UnaryOp = ivalue.PreDec
	case ivalue.PreDec:
		e.UnaryOp = ivalue.PreInc
	case ivalue.PostInc:
		e.UnaryOp = ivalue.PostDec
	case ivalue.PostDec:
		e.UnaryOp = ivalue.PostInc
	case ivalue.Negate:
		e.UnaryOp = ivalue.Plus
	default:
		panic(xerrors.Fatalf("rewrite", "fixUnary", "no rewrite strategy for unary op %d", e.UnaryOp))
	}
	r.evalUnary(e)
	if e.Value.UB != ivalue.NoUB {
		panic(xerrors.Fatalf("rewrite", "fixUnary", "rewritten unary node is still UB (%s)", e.Value.UB))
	}
	return e
}

// fixBinary mirrors ArithExprGen::rebuild_binary.
func (r *Rewriter) fixBinary(e *expr.Expr) *expr.Expr {
	ub := e.Value.UB
	switch e.BinaryOp {
	case ivalue.Add:
		e.BinaryOp = ivalue.Sub
	case ivalue.Sub:
		e.BinaryOp = ivalue.Add
	case ivalue.Mul:
		if ub == ivalue.SignOvfMin {
			e.BinaryOp = ivalue.Sub
		} else {
			e.BinaryOp = ivalue.Div
		}
	case ivalue.Div, ivalue.Mod:
		if ub == ivalue.ZeroDiv {
			e.BinaryOp = ivalue.Mul
		} else {
			e.BinaryOp = ivalue.Sub
		}
	case ivalue.Shl, ivalue.Shr:
		return r.fixShift(e, ub)
	default:
		panic(xerrors.Fatalf("rewrite", "fixBinary", "no rewrite strategy for binary op %d (UB=%s)", e.BinaryOp, ub))
	}
	r.evalBinary(e)
	if e.Value.UB != ivalue.NoUB {
		return r.fixBinary(e)
	}
	return e
}

func msb(v ivalue.Value) int {
	if v.Raw == 0 {
		return 0
	}
	return bits.Len64(v.Raw)
}

// fixShift mirrors rebuild_binary's Shl/Shr case: a negative or
// out-of-range shift count gets nudged back into [0, width) by inserting
// a corrective Add/Sub on the rhs; a negative signed lhs (NegShift) is
// corrected by adding its type's max value to the lhs instead.
func (r *Rewriter) fixShift(e *expr.Expr, ub ivalue.UBTag) *expr.Expr {
	switch ub {
	case ivalue.ShiftRhsNeg, ivalue.ShiftRhsLarge:
		rhs := e.Right
		lhs := e.Left

		maxShift := lhs.Type.Bits()
		if e.BinaryOp == ivalue.Shl && lhs.Type.IsSigned() && ub == ivalue.ShiftRhsLarge {
			maxShift -= msb(lhs.Value)
			if maxShift < 0 {
				maxShift = 0
			}
		}
		corrective := int64(r.RNG.Uniform(0, maxShift))

		var op ivalue.BinaryOp
		var constVal int64
		if ub == ivalue.ShiftRhsNeg {
			op = ivalue.Add
			rhsSigned := rhs.Value.Big().Int64()
			if rhsSigned < 0 {
				rhsSigned = -rhsSigned
			}
			constVal = corrective + rhsSigned
			if max := rhs.Type.SignedMax(); rhs.Type.IsSigned() && constVal > max {
				constVal = max
			}
		} else {
			op = ivalue.Sub
			constVal = rhs.Value.Big().Int64() - corrective
		}

		constNode := &expr.Expr{Kind: expr.KConst, Type: rhs.Type, Value: ivalue.FromSigned(rhs.Type, constVal)}
		newRhs := &expr.Expr{Kind: expr.KBinary, Type: rhs.Type, BinaryOp: op, Left: rhs, Right: constNode}
		r.evalBinary(newRhs)
		e.Right = newRhs

	default: // NegShift: lhs itself is a negative signed value.
		lhs := e.Left
		constNode := &expr.Expr{Kind: expr.KConst, Type: lhs.Type, Value: ivalue.FromSigned(lhs.Type, lhs.Type.SignedMax())}
		newLhs := &expr.Expr{Kind: expr.KBinary, Type: lhs.Type, BinaryOp: ivalue.Add, Left: lhs, Right: constNode}
		r.evalBinary(newLhs)
		e.Left = newLhs
	}

	r.evalBinary(e)
	if e.Value.UB != ivalue.NoUB {
		return r.fixBinary(e)
	}
	return e
}
