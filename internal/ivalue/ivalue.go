// Package ivalue implements the C/C++ integer value model: a typed value
// that evaluates to either a concrete bit pattern or a tagged UB reason
// (spec.md §3.2, §4.1), plus every arithmetic/relational/logical/bitwise/
// shift/cast operator's exact overflow detection (spec.md §4.1.1).
//
// True-value arithmetic runs over math/big so 64-bit overflow detection
// (INT64_MAX+1, LLONG_MIN*-1, ...) never has to fight Go's own wrapping
// int64/uint64 semantics; the result is always re-truncated to the
// operand's bit width before being stored back in a Value's Raw field,
// per spec.md §9 "EvalResult = Concrete(T, raw) | Undef(T, reason)".
package ivalue

import (
	"math/big"
	"math/bits"

	"cfuzzgen/internal/inttype"
)

// UBTag is the reason a Value failed to evaluate to a concrete bit pattern
// (spec.md §3.2).
type UBTag int

const (
	NoUB UBTag = iota
	SignOvf
	SignOvfMin
	ZeroDiv
	ShiftRhsNeg
	ShiftRhsLarge
	NegShift
	Uninit
)

func (t UBTag) String() string {
	switch t {
	case NoUB:
		return "NoUB"
	case SignOvf:
		return "SignOvf"
	case SignOvfMin:
		return "SignOvfMin"
	case ZeroDiv:
		return "ZeroDiv"
	case ShiftRhsNeg:
		return "ShiftRhsNeg"
	case ShiftRhsLarge:
		return "ShiftRhsLarge"
	case NegShift:
		return "NegShift"
	case Uninit:
		return "Uninit"
	default:
		return "UBTag(?)"
	}
}

// Value is a typed value: (T, raw) plus a UB tag (spec.md §3.2). Raw is
// always masked to T.Bits() bits; when UB != NoUB the payload is
// unspecified (kept zeroed here for determinism of unrelated comparisons,
// though equality of Values with differing UB tags is never meaningful —
// spec.md §3.2 "The UB tag is not part of value equality but is part of
// IR-node identity").
type Value struct {
	Type *inttype.Type
	Raw  uint64
	UB   UBTag
}

func mask(raw uint64, bits int) uint64 {
	if bits >= 64 {
		return raw
	}
	return raw & ((uint64(1) << bits) - 1)
}

// FromSigned builds a concrete Value of t from a signed 64-bit magnitude,
// truncating/wrapping into t's width the same way a C implicit narrowing
// conversion would (used by constant construction, never by operator
// evaluation, which goes through big.Int below).
func FromSigned(t *inttype.Type, v int64) Value {
	return Value{Type: t, Raw: mask(uint64(v), t.Bits())}
}

// FromUnsigned builds a concrete Value of t from a raw bit pattern.
func FromUnsigned(t *inttype.Type, v uint64) Value {
	return Value{Type: t, Raw: mask(v, t.Bits())}
}

// Undef builds a UB-tagged Value of type t.
func Undef(t *inttype.Type, tag UBTag) Value {
	return Value{Type: t, UB: tag}
}

// Big returns v's mathematical value: masked raw bits reinterpreted
// according to v.Type's signedness. Only meaningful when v.UB == NoUB.
func (v Value) Big() *big.Int {
	r := mask(v.Raw, v.Type.Bits())
	if v.Type.IsSigned() {
		signBit := uint64(1) << (v.Type.Bits() - 1)
		if v.Type.Bits() < 64 && r&signBit != 0 {
			r -= uint64(1) << v.Type.Bits()
			return new(big.Int).SetInt64(int64(r))
		}
		if v.Type.Bits() == 64 {
			return new(big.Int).SetInt64(int64(r))
		}
	}
	return new(big.Int).SetUint64(r)
}

// fromBig truncates a mathematical value into t's bit width, producing the
// two's-complement raw pattern (spec.md §4.1.6 "reinterprets the raw using
// standard C semantics").
func fromBig(t *inttype.Type, x *big.Int) uint64 {
	m := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits()))
	r := new(big.Int).Mod(x, m) // Mod always returns a non-negative residue
	return r.Uint64()
}

// inRangeSigned/inRangeUnsigned test a mathematical (untruncated) value
// against t's representable range, used for UB detection before truncation.
func inRangeSigned(t *inttype.Type, x *big.Int) bool {
	return x.Cmp(big.NewInt(t.SignedMin())) >= 0 && x.Cmp(big.NewInt(t.SignedMax())) <= 0
}

func inRangeUnsigned(t *inttype.Type, x *big.Int) bool {
	return x.Sign() >= 0 && x.Cmp(new(big.Int).SetUint64(t.UnsignedMax())) <= 0
}

// msb is the 1-based index of the highest set bit, 0 for x == 0, and
// bitwidth(lhs) for a negative signed x (spec.md §4.1.1).
func msb(v Value) int {
	if v.Type.IsSigned() && v.Big().Sign() < 0 {
		return v.Type.Bits()
	}
	return bits.Len64(mask(v.Raw, v.Type.Bits()))
}

// --- Unary operators (spec.md §4.1.1) ---

type UnaryOp int

const (
	Plus UnaryOp = iota
	Negate
	LogicalNot
	BitNot
	PreInc
	PreDec
	PostInc
	PostDec
)

// EvalUnary evaluates op on v (already promoted by the caller per spec.md
// §4.1.2/§4.1.3). LogicalNot assumes v.Type is already bool.
func EvalUnary(op UnaryOp, v Value) Value {
	if v.UB != NoUB {
		return Value{Type: v.Type, UB: v.UB}
	}
	t := v.Type
	switch op {
	case Plus:
		return v
	case Negate:
		x := new(big.Int).Neg(v.Big())
		if t.IsSigned() && v.Big().Cmp(big.NewInt(t.SignedMin())) == 0 {
			return Undef(t, SignOvf)
		}
		if t.IsSigned() && !inRangeSigned(t, x) {
			return Undef(t, SignOvf)
		}
		return Value{Type: t, Raw: fromBig(t, x)}
	case LogicalNot:
		if v.Raw == 0 {
			return Value{Type: t, Raw: 1}
		}
		return Value{Type: t, Raw: 0}
	case BitNot:
		return Value{Type: t, Raw: mask(^v.Raw, t.Bits())}
	case PreInc, PostInc:
		x := new(big.Int).Add(v.Big(), big.NewInt(1))
		if t.IsSigned() && !inRangeSigned(t, x) {
			return Undef(t, SignOvf)
		}
		return Value{Type: t, Raw: fromBig(t, x)}
	case PreDec, PostDec:
		x := new(big.Int).Sub(v.Big(), big.NewInt(1))
		if t.IsSigned() && !inRangeSigned(t, x) {
			return Undef(t, SignOvf)
		}
		return Value{Type: t, Raw: fromBig(t, x)}
	default:
		panic("ivalue: unknown UnaryOp")
	}
}

// --- Binary operators (spec.md §4.1.1) ---

type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Shl
	Shr
	Lt
	Gt
	Le
	Ge
	Eq
	Ne
	BitAnd
	BitOr
	BitXor
	LogAnd
	LogOr
)

// IsComparison reports whether op's result type is always bool.
func IsComparison(op BinaryOp) bool {
	switch op {
	case Lt, Gt, Le, Ge, Eq, Ne, LogAnd, LogOr:
		return true
	default:
		return false
	}
}

// EvalBinary evaluates op on l and r. For every op except Shl/Shr, l and r
// must share a type (the caller performs usual arithmetic conversions
// first, spec.md §4.1.5); shift operands may differ in type, since shifts
// skip usual arithmetic conversions (spec.md §4.1.5). boolType is the
// interned bool flyweight, used for comparison/logical results.
func EvalBinary(op BinaryOp, l, r Value, boolType *inttype.Type) Value {
	if l.UB != NoUB {
		return Value{Type: resultType(op, l, r, boolType), UB: l.UB}
	}
	if r.UB != NoUB {
		return Value{Type: resultType(op, l, r, boolType), UB: r.UB}
	}
	t := l.Type
	switch op {
	case Add:
		x := new(big.Int).Add(l.Big(), r.Big())
		return checkedArith(t, x)
	case Sub:
		x := new(big.Int).Sub(l.Big(), r.Big())
		return checkedArith(t, x)
	case Mul:
		x := new(big.Int).Mul(l.Big(), r.Big())
		if t.IsSigned() && isMinTimesNegOne(t, l, r) {
			return Undef(t, SignOvfMin)
		}
		return checkedArith(t, x)
	case Div:
		if r.Big().Sign() == 0 {
			return Undef(t, ZeroDiv)
		}
		if t.IsSigned() && isMinDivNegOne(t, l, r) {
			return Undef(t, SignOvf)
		}
		x := new(big.Int).Quo(l.Big(), r.Big())
		return Value{Type: t, Raw: fromBig(t, x)}
	case Mod:
		if r.Big().Sign() == 0 {
			return Undef(t, ZeroDiv)
		}
		if t.IsSigned() && isMinDivNegOne(t, l, r) {
			return Undef(t, SignOvf)
		}
		x := new(big.Int).Rem(l.Big(), r.Big())
		return Value{Type: t, Raw: fromBig(t, x)}
	case Shl:
		return evalShl(l, r)
	case Shr:
		return evalShr(l, r)
	case Lt:
		return boolOf(boolType, l.Big().Cmp(r.Big()) < 0)
	case Gt:
		return boolOf(boolType, l.Big().Cmp(r.Big()) > 0)
	case Le:
		return boolOf(boolType, l.Big().Cmp(r.Big()) <= 0)
	case Ge:
		return boolOf(boolType, l.Big().Cmp(r.Big()) >= 0)
	case Eq:
		return boolOf(boolType, l.Big().Cmp(r.Big()) == 0)
	case Ne:
		return boolOf(boolType, l.Big().Cmp(r.Big()) != 0)
	case BitAnd:
		return Value{Type: t, Raw: mask(l.Raw&r.Raw, t.Bits())}
	case BitOr:
		return Value{Type: t, Raw: mask(l.Raw|r.Raw, t.Bits())}
	case BitXor:
		return Value{Type: t, Raw: mask(l.Raw^r.Raw, t.Bits())}
	case LogAnd:
		return boolOf(boolType, l.Raw != 0 && r.Raw != 0)
	case LogOr:
		return boolOf(boolType, l.Raw != 0 || r.Raw != 0)
	default:
		panic("ivalue: unknown BinaryOp")
	}
}

func resultType(op BinaryOp, l, r Value, boolType *inttype.Type) *inttype.Type {
	if IsComparison(op) {
		return boolType
	}
	if op == Shl || op == Shr {
		return l.Type
	}
	return l.Type
}

func checkedArith(t *inttype.Type, x *big.Int) Value {
	if t.IsSigned() && !inRangeSigned(t, x) {
		return Undef(t, SignOvf)
	}
	return Value{Type: t, Raw: fromBig(t, x)}
}

func isMinTimesNegOne(t *inttype.Type, l, r Value) bool {
	min := big.NewInt(t.SignedMin())
	negOne := big.NewInt(-1)
	return (l.Big().Cmp(min) == 0 && r.Big().Cmp(negOne) == 0) ||
		(r.Big().Cmp(min) == 0 && l.Big().Cmp(negOne) == 0)
}

func isMinDivNegOne(t *inttype.Type, l, r Value) bool {
	return l.Big().Cmp(big.NewInt(t.SignedMin())) == 0 && r.Big().Cmp(big.NewInt(-1)) == 0
}

func boolOf(boolType *inttype.Type, b bool) Value {
	if b {
		return Value{Type: boolType, Raw: 1}
	}
	return Value{Type: boolType, Raw: 0}
}

// evalShl implements `<<`'s UB table (spec.md §4.1.1): rhs signed & rhs<0
// -> ShiftRhsNeg; rhs >= bitwidth(lhs) -> ShiftRhsLarge; signed lhs<0 ->
// NegShift; signed lhs & rhs > bitwidth(lhs)-msb(lhs) -> ShiftRhsLarge.
func evalShl(l, r Value) Value {
	t := l.Type
	bw := t.Bits()
	if r.Type.IsSigned() && r.Big().Sign() < 0 {
		return Undef(t, ShiftRhsNeg)
	}
	rv := r.Big()
	if rv.Cmp(big.NewInt(int64(bw))) >= 0 {
		return Undef(t, ShiftRhsLarge)
	}
	if t.IsSigned() && l.Big().Sign() < 0 {
		return Undef(t, NegShift)
	}
	if t.IsSigned() {
		limit := int64(bw - msb(l))
		if rv.Cmp(big.NewInt(limit)) > 0 {
			return Undef(t, ShiftRhsLarge)
		}
	}
	shift := uint(rv.Int64())
	x := new(big.Int).Lsh(l.Big(), shift)
	return Value{Type: t, Raw: fromBig(t, x)}
}

// evalShr implements `>>`'s UB table (spec.md §4.1.1).
func evalShr(l, r Value) Value {
	t := l.Type
	bw := t.Bits()
	if r.Type.IsSigned() && r.Big().Sign() < 0 {
		return Undef(t, ShiftRhsNeg)
	}
	rv := r.Big()
	if rv.Cmp(big.NewInt(int64(bw))) >= 0 {
		return Undef(t, ShiftRhsLarge)
	}
	if t.IsSigned() && l.Big().Sign() < 0 {
		return Undef(t, NegShift)
	}
	shift := uint(rv.Int64())
	x := new(big.Int).Rsh(l.Big(), shift)
	return Value{Type: t, Raw: fromBig(t, x)}
}

// --- Casts (spec.md §4.1.6) ---

// Cast reinterprets v as type to, following spec.md §4.1.6. A UB value
// casts to a UB value of the new type, preserving the tag.
func Cast(v Value, to *inttype.Type) Value {
	if v.UB != NoUB {
		return Value{Type: to, UB: v.UB}
	}
	return Value{Type: to, Raw: fromBig(to, v.Big())}
}

// ToBool implicitly converts v to bool (spec.md §4.1.3): 0 iff v's raw
// value is 0, else 1. Never UB.
func ToBool(v Value, boolType *inttype.Type) Value {
	if v.UB != NoUB {
		return Value{Type: boolType, UB: v.UB}
	}
	if mask(v.Raw, v.Type.Bits()) == 0 {
		return Value{Type: boolType, Raw: 0}
	}
	return Value{Type: boolType, Raw: 1}
}
