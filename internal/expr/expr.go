// Package expr implements the typed expression IR (spec.md §3.5): a
// sealed sum type dispatched on a Kind tag rather than the teacher's
// polymorphic Accept/Visitor hierarchy (spec.md §9 "Variants vs
// inheritance"), its type/value propagation (spec.md §4.2), and the
// recursive generator (spec.md §4.5, §4.6) in generator.go.
//
// Struct aggregates generated by this package are always single-level
// (every Struct.Members entry is a *symtab.Scalar): spec.md §3.3 allows a
// Struct member to recursively be another Struct, but this generator
// never nests Structs, so MemberUse only ever needs a (StructRoot, Idx)
// pair rather than a recursive parent-expression field.
package expr

import (
	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/ivalue"
	"cfuzzgen/internal/symtab"
	"cfuzzgen/internal/xerrors"
)

// Kind tags Expr's variants (spec.md §3.5).
type Kind int

const (
	KConst Kind = iota
	KVarUse
	KMemberUse
	KTypeCast
	KUnary
	KBinary
	KAssign
)

// Expr is one IR node. Only the fields relevant to Kind are populated;
// this is Go's idiomatic stand-in for a sealed sum type (spec.md §9).
type Expr struct {
	Kind  Kind
	Type  *inttype.Type
	Value ivalue.Value // cached evaluation result (spec.md §3.5)

	// KVarUse
	Var *symtab.Scalar

	// KMemberUse
	StructRoot *symtab.Struct
	Idx        int

	// KTypeCast, KUnary: Operand holds the single child.
	Operand  *Expr
	Implicit bool // true for casts inserted by propagate_type itself

	UnaryOp ivalue.UnaryOp

	// KBinary
	BinaryOp    ivalue.BinaryOp
	Left, Right *Expr

	// KAssign
	Target *Expr // KVarUse or KMemberUse
	Source *Expr
	Taken  bool
}

// Fixer is implemented by internal/rewrite. Defined here (consumer side)
// so this package never imports the rewriter — only Builder does, via
// dependency injection — keeping propagation logic decoupled from UB
// elimination (spec.md §9 "Operator rewriting ... Expr -> Expr").
type Fixer interface {
	// Fix is called only when e.Value.UB != ivalue.NoUB. It returns a
	// replacement node of the same general shape with Value.UB == NoUB.
	Fix(e *Expr) *Expr
}

// Builder constructs Expr nodes, running propagate_type then
// propagate_value on every construction (spec.md §3.5) and invoking Fixer
// when propagate_value reports UB, so every Expr a Builder method returns
// already satisfies spec.md §8.1.2 "UB freedom of output".
type Builder struct {
	Pool        *inttype.Pool
	BoolType    *inttype.Type
	Fixer       Fixer
	LongEqLLong bool // spec.md §9 open question, resolved as a policy field
}

func NewBuilder(pool *inttype.Pool, fixer Fixer, longEqLLong bool) *Builder {
	return &Builder{Pool: pool, BoolType: pool.Plain(inttype.Bool), Fixer: fixer, LongEqLLong: longEqLLong}
}

// scalarValue looks up the current value of the Variable a VarUse or
// MemberUse references, enforcing spec.md §9's open-question resolution:
// reading an unwritten Scalar is a fatal Invariant violation, not a
// silent 0.
func scalarValue(s *symtab.Scalar) (ivalue.Value, error) {
	if !s.Written {
		return ivalue.Value{}, xerrors.Fatalf("expr", "VarUse", "read of uninitialized variable %q", s.Name)
	}
	return s.Current, nil
}

// Const builds a Const(value) node (spec.md §3.5).
func (b *Builder) Const(v ivalue.Value) *Expr {
	return &Expr{Kind: KConst, Type: v.Type, Value: v}
}

// VarUse builds a VarUse(var) node, evaluating to the variable's current
// value. Panics with a fatal *xerrors.GenError if var is unwritten — a
// generator bug, since the expression generator must never offer an
// unwritten Scalar as an operand (spec.md §9).
func (b *Builder) VarUse(v *symtab.Scalar) *Expr {
	val, err := scalarValue(v)
	if err != nil {
		panic(err)
	}
	return &Expr{Kind: KVarUse, Type: v.Type, Value: val, Var: v}
}

// MemberUse builds a MemberUse(parent, idx) node (spec.md §3.5).
func (b *Builder) MemberUse(s *symtab.Struct, idx int) *Expr {
	member, ok := s.Member(idx).(*symtab.Scalar)
	if !ok {
		panic(xerrors.Fatalf("expr", "MemberUse", "member %d of %q is not a Scalar", idx, s.Name))
	}
	val, err := scalarValue(member)
	if err != nil {
		panic(err)
	}
	return &Expr{Kind: KMemberUse, Type: member.Type, Value: val, StructRoot: s, Idx: idx}
}

// AssignTarget builds a bare KVarUse lvalue reference for use as an
// Assign target, without VarUse's "must already be written" check: an
// assignment target's pre-assignment value is never read, so whether it
// has been written before does not matter here.
func (b *Builder) AssignTarget(v *symtab.Scalar) *Expr {
	return &Expr{Kind: KVarUse, Type: v.Type, Var: v}
}

// AssignMemberTarget mirrors AssignTarget for a Struct member lvalue.
func (b *Builder) AssignMemberTarget(s *symtab.Struct, idx int) *Expr {
	member, ok := s.Member(idx).(*symtab.Scalar)
	if !ok {
		panic(xerrors.Fatalf("expr", "AssignMemberTarget", "member %d of %q is not a Scalar", idx, s.Name))
	}
	return &Expr{Kind: KMemberUse, Type: member.Type, StructRoot: s, Idx: idx}
}

// TypeCast builds TypeCast(expr, to_type, implicit), never UB (spec.md
// §4.1.6): casting a UB operand yields a UB value of the new type;
// casting a NoUB operand always succeeds.
func (b *Builder) TypeCast(operand *Expr, to *inttype.Type, implicit bool) *Expr {
	return &Expr{
		Kind:     KTypeCast,
		Type:     to,
		Value:    ivalue.Cast(operand.Value, to),
		Operand:  operand,
		Implicit: implicit,
	}
}

// ToBool wraps operand in an implicit cast to bool unless it already is
// one (spec.md §4.1.3). Exported for callers outside this package (e.g.
// internal/stmt's If/Loop condition coercion) that need the same
// conversion Unary(LogicalNot, ...) applies internally.
func (b *Builder) ToBool(operand *Expr) *Expr { return b.toBool(operand) }

func (b *Builder) toBool(operand *Expr) *Expr {
	if operand.Type.ID == inttype.Bool {
		return operand
	}
	return &Expr{
		Kind:     KTypeCast,
		Type:     b.BoolType,
		Value:    ivalue.ToBool(operand.Value, b.BoolType),
		Operand:  operand,
		Implicit: true,
	}
}

// promote wraps operand in an implicit cast to int if its rank is below
// int's (spec.md §4.1.2). bool promotes to int.
func (b *Builder) promote(operand *Expr) *Expr {
	if inttype.Rank(operand.Type.ID, b.LongEqLLong) >= inttype.Rank(inttype.Int, b.LongEqLLong) {
		return operand
	}
	to := b.Pool.Plain(inttype.Int)
	return &Expr{
		Kind:     KTypeCast,
		Type:     to,
		Value:    ivalue.Cast(operand.Value, to),
		Operand:  operand,
		Implicit: true,
	}
}

func isIncDec(op ivalue.UnaryOp) bool {
	switch op {
	case ivalue.PreInc, ivalue.PreDec, ivalue.PostInc, ivalue.PostDec:
		return true
	default:
		return false
	}
}

// Unary builds Unary(op, arg), promoting/bool-converting arg per spec.md
// §4.1.2/§4.1.3 and invoking Fixer on UB (spec.md §4.3). Equivalent to
// UnaryTaken(op, arg, true) — the common case for every op except ++/--,
// whose side effect callers outside a taken-tracking generator never need
// to gate.
func (b *Builder) Unary(op ivalue.UnaryOp, arg *Expr) *Expr {
	return b.unaryImpl(op, arg, true)
}

// UnaryTaken builds Unary(op, arg) the same way Unary does, but for
// PreInc/PreDec/PostInc/PostDec additionally writes the incremented or
// decremented value through to arg's underlying variable, gated on taken
// exactly the way Assign gates its write-through (spec.md §4.2): in C,
// ++/-- always mutate their operand, so this is the one unary family that
// carries Assign's side-effect shape instead of being a pure computation.
func (b *Builder) UnaryTaken(op ivalue.UnaryOp, arg *Expr, taken bool) *Expr {
	return b.unaryImpl(op, arg, taken)
}

func (b *Builder) unaryImpl(op ivalue.UnaryOp, arg *Expr, taken bool) *Expr {
	var operand *Expr
	var resultType *inttype.Type
	switch {
	case op == ivalue.LogicalNot:
		operand = b.toBool(arg)
		resultType = b.BoolType
	case isIncDec(op):
		// ++/-- operate on arg directly, never a promoted copy: C requires
		// an lvalue operand, and wrapping it in promote()'s implicit
		// TypeCast would emit an unassignable cast expression (spec.md
		// §6.2's `(T)(expr)` rendering is never an lvalue).
		if arg.Kind != KVarUse && arg.Kind != KMemberUse {
			panic(xerrors.Fatalf("expr", "Unary", "%v requires an lvalue operand (kind=%d)", op, arg.Kind))
		}
		operand = arg
		resultType = arg.Type
	default:
		operand = b.promote(arg)
		resultType = operand.Type
	}
	e := &Expr{Kind: KUnary, Type: resultType, UnaryOp: op, Operand: operand}
	e.Value = ivalue.EvalUnary(op, operand.Value)
	e = b.fixIfUB(e)
	if isIncDec(op) {
		writeThrough(e.Operand, e.Value, taken)
	}
	return e
}

// Binary builds Binary(op, lhs, rhs): promotes both operands, performs
// usual arithmetic conversions for non-shift ops (spec.md §4.1.5),
// evaluates, and invokes Fixer on UB (spec.md §4.3).
func (b *Builder) Binary(op ivalue.BinaryOp, lhs, rhs *Expr) *Expr {
	l := b.promote(lhs)
	r := b.promote(rhs)

	switch op {
	case ivalue.Shl, ivalue.Shr:
		// Shifts skip usual arithmetic conversions (spec.md §4.1.5); result
		// type equals the promoted lhs's type.
		e := &Expr{Kind: KBinary, Type: l.Type, BinaryOp: op, Left: l, Right: r}
		e.Value = ivalue.EvalBinary(op, l.Value, r.Value, b.BoolType)
		return b.fixIfUB(e)
	case ivalue.LogAnd, ivalue.LogOr:
		l = b.toBool(l)
		r = b.toBool(r)
		e := &Expr{Kind: KBinary, Type: b.BoolType, BinaryOp: op, Left: l, Right: r}
		e.Value = ivalue.EvalBinary(op, l.Value, r.Value, b.BoolType)
		return e // never UB
	default:
		l, r = b.usualArithConv(l, r)
		resultType := l.Type
		if ivalue.IsComparison(op) {
			resultType = b.BoolType
		}
		e := &Expr{Kind: KBinary, Type: resultType, BinaryOp: op, Left: l, Right: r}
		e.Value = ivalue.EvalBinary(op, l.Value, r.Value, b.BoolType)
		return b.fixIfUB(e)
	}
}

// usualArithConv implements spec.md §4.1.5 steps 1-5.
func (b *Builder) usualArithConv(l, r *Expr) (*Expr, *Expr) {
	if l.Type.ID == r.Type.ID {
		return l, r
	}
	longEq := b.LongEqLLong
	lRank, rRank := inttype.Rank(l.Type.ID, longEq), inttype.Rank(r.Type.ID, longEq)
	lSigned, rSigned := l.Type.IsSigned(), r.Type.IsSigned()

	if lSigned == rSigned {
		if lRank >= rRank {
			return l, b.castTo(r, l.Type)
		}
		return b.castTo(l, r.Type), r
	}
	// One signed, one unsigned.
	if !lSigned && lRank >= rRank {
		return l, b.castTo(r, l.Type)
	}
	if !rSigned && rRank >= lRank {
		return b.castTo(l, r.Type), r
	}
	if lSigned && inttype.CanRepresent(l.Type, r.Type) {
		return l, b.castTo(r, l.Type)
	}
	if rSigned && inttype.CanRepresent(r.Type, l.Type) {
		return b.castTo(l, r.Type), r
	}
	// Cast both to the unsigned counterpart of whichever is signed.
	if lSigned {
		u := b.unsignedCounterpart(l.Type)
		return b.castTo(l, u), b.castTo(r, u)
	}
	u := b.unsignedCounterpart(r.Type)
	return b.castTo(l, u), b.castTo(r, u)
}

func (b *Builder) castTo(e *Expr, to *inttype.Type) *Expr {
	if e.Type.ID == to.ID {
		return e
	}
	return &Expr{Kind: KTypeCast, Type: to, Value: ivalue.Cast(e.Value, to), Operand: e, Implicit: true}
}

func (b *Builder) unsignedCounterpart(t *inttype.Type) *inttype.Type {
	var id inttype.ID
	switch t.ID {
	case inttype.SChar:
		id = inttype.UChar
	case inttype.Short:
		id = inttype.UShort
	case inttype.Int:
		id = inttype.UInt
	case inttype.Long:
		id = inttype.ULong
	case inttype.LLong:
		id = inttype.ULLong
	default:
		id = t.ID
	}
	return b.Pool.Plain(id)
}

func (b *Builder) fixIfUB(e *Expr) *Expr {
	if e.Value.UB == ivalue.NoUB {
		return e
	}
	fixed := b.Fixer.Fix(e)
	if fixed.Value.UB != ivalue.NoUB {
		panic(xerrors.Fatalf("expr", "fixIfUB", "rewriter returned a node that is still UB (%s)", fixed.Value.UB))
	}
	return fixed
}

// Assign builds Assign(target, source, taken): inserts an implicit cast of
// source to target's type and, if taken, writes through to the target
// variable (spec.md §3.5, §4.2). target must be KVarUse or KMemberUse — any
// other shape is a fatal Invariant violation (spec.md §5).
func (b *Builder) Assign(target, source *Expr, taken bool) (*Expr, error) {
	if target.Kind != KVarUse && target.Kind != KMemberUse {
		return nil, xerrors.Fatalf("expr", "Assign", "target is not an lvalue (kind=%d)", target.Kind)
	}
	casted := b.castTo(source, target.Type)
	e := &Expr{Kind: KAssign, Type: target.Type, Value: casted.Value, Target: target, Source: casted, Taken: taken}
	writeThrough(target, casted.Value, taken)
	return e, nil
}

func writeThrough(target *Expr, v ivalue.Value, taken bool) {
	switch target.Kind {
	case KVarUse:
		target.Var.Assign(v, taken)
	case KMemberUse:
		if m, ok := target.StructRoot.Member(target.Idx).(*symtab.Scalar); ok {
			m.Assign(v, taken)
		}
	}
}
