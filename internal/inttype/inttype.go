// Package inttype implements the eleven C/C++ integer type identifiers
// (spec.md §3.1) as process-wide flyweights: constructed once per
// (id, static, cv) triple and referenced afterward by shared *Type handles.
// Two handles denote the same C type iff that triple is equal; there is no
// mutation after construction (spec.md §3.1, §3.7, §9 "Shared type flyweights").
package inttype

import "fmt"

// ID names one of the eleven integer types. Order matches rising rank.
type ID int

const (
	Bool ID = iota
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LLong
	ULLong
)

func (id ID) String() string {
	switch id {
	case Bool:
		return "bool"
	case SChar:
		return "schar"
	case UChar:
		return "uchar"
	case Short:
		return "short"
	case UShort:
		return "ushort"
	case Int:
		return "int"
	case UInt:
		return "uint"
	case Long:
		return "long"
	case ULong:
		return "ulong"
	case LLong:
		return "llong"
	case ULLong:
		return "ullong"
	default:
		return fmt.Sprintf("inttype.ID(%d)", int(id))
	}
}

// CV is the qualifier attached to a flyweight type (spec.md §3.1).
type CV int

const (
	CVNone CV = iota
	CVConst
	CVVolatile
	CVConstVolatile
)

// CName is the spelling the emitter writes before a declarator.
func (cv CV) CName() string {
	switch cv {
	case CVConst:
		return "const "
	case CVVolatile:
		return "volatile "
	case CVConstVolatile:
		return "const volatile "
	default:
		return ""
	}
}

// info is the target-fixed description of one ID: bit size, signedness and
// C spelling. Bit sizes follow a standard LP64 target (spec.md §3.1 "bit
// size (fixed by target, recorded explicitly)").
type info struct {
	bits    int
	signed  bool
	cname   string
	suffix  string // literal suffix, spec.md §3.1
}

var table = [...]info{
	Bool:   {1, false, "bool", ""},
	SChar:  {8, true, "signed char", ""},
	UChar:  {8, false, "unsigned char", ""},
	Short:  {16, true, "short", ""},
	UShort: {16, false, "unsigned short", ""},
	Int:    {32, true, "int", ""},
	UInt:   {32, false, "unsigned int", "U"},
	Long:   {64, true, "long", "L"},
	ULong:  {64, false, "unsigned long", "UL"},
	LLong:  {64, true, "long long", "LL"},
	ULLong: {64, false, "unsigned long long", "ULL"},
}

// Type is an interned, immutable flyweight (spec.md §3.1, §3.7).
type Type struct {
	ID     ID
	Static bool
	CV     CV
}

// Bits is T's bit size.
func (t *Type) Bits() int { return table[t.ID].bits }

// IsSigned reports whether T is a signed integer type ("false for bool").
func (t *Type) IsSigned() bool { return table[t.ID].signed }

// Suffix is the literal suffix emitted after an integer constant of this
// type (spec.md §3.1, §6.2).
func (t *Type) Suffix() string { return table[t.ID].suffix }

// CName is the bare C type name, without CV/static qualifiers.
func (t *Type) CName() string { return table[t.ID].cname }

// Decl is the full declarator prefix the emitter uses for a variable of
// this type: CV qualifiers, optional "static", then the C type name.
func (t *Type) Decl() string {
	s := t.CV.CName()
	if t.Static {
		s += "static "
	}
	return s + t.CName()
}

// SignedMin is T's minimum representable value, interpreted as signed.
// Valid for any ID; for unsigned types it is always 0.
func (t *Type) SignedMin() int64 {
	if !t.IsSigned() {
		return 0
	}
	return -(1 << (t.Bits() - 1))
}

// SignedMax is T's maximum value when IsSigned(); undefined for unsigned types.
func (t *Type) SignedMax() int64 {
	if t.Bits() == 64 {
		return 1<<63 - 1
	}
	return 1<<(t.Bits()-1) - 1
}

// UnsignedMax is T's maximum value when !IsSigned(); undefined for signed types.
func (t *Type) UnsignedMax() uint64 {
	if t.Bits() == 1 {
		return 1
	}
	if t.Bits() == 64 {
		return ^uint64(0)
	}
	return (uint64(1) << t.Bits()) - 1
}

// InRange reports whether raw (two's-complement bit pattern in a uint64)
// represents a value within [T.min, T.max] under T's own signedness
// (spec.md §3.2 invariant, §8.1.5 "Representability").
func (t *Type) InRange(raw uint64) bool {
	if t.IsSigned() {
		v := signExtend(raw, t.Bits())
		return v >= t.SignedMin() && v <= t.SignedMax()
	}
	return raw <= t.UnsignedMax()
}

func signExtend(raw uint64, bits int) int64 {
	if bits >= 64 {
		return int64(raw)
	}
	shift := uint(64 - bits)
	return int64(raw<<shift) >> shift
}

// Pool is the process-wide flyweight intern table (spec.md §3.1, §3.7,
// §5 "Types live in a process-wide pool for the lifetime of a run").
// A Pool is not safe for concurrent use; generation is single-threaded
// (spec.md §5).
type Pool struct {
	m map[Type]*Type
}

// NewPool creates an empty flyweight pool.
func NewPool() *Pool {
	return &Pool{m: make(map[Type]*Type)}
}

// Intern returns the shared handle for (id, static, cv), constructing it on
// first use. Equal triples always return the same pointer.
func (p *Pool) Intern(id ID, static bool, cv CV) *Type {
	key := Type{ID: id, Static: static, CV: cv}
	if t, ok := p.m[key]; ok {
		return t
	}
	t := key
	p.m[key] = &t
	return &t
}

// Plain interns (id, false, CVNone) — the common case of an unqualified type.
func (p *Pool) Plain(id ID) *Type { return p.Intern(id, false, CVNone) }

// rankTier buckets an ID into a promotion/usual-arithmetic-conversion rank
// tier (spec.md §4.1.2, §4.1.5). When longEqLLong is true, long/ulong and
// llong/ullong share a tier — spec.md §9's open question, recorded as a
// policy-level boolean rather than a host sizeof probe.
func rankTier(id ID, longEqLLong bool) int {
	switch id {
	case Bool:
		return 0
	case SChar, UChar:
		return 1
	case Short, UShort:
		return 2
	case Int, UInt:
		return 3
	case Long, ULong:
		return 4
	case LLong, ULLong:
		if longEqLLong {
			return 4
		}
		return 5
	default:
		return -1
	}
}

// Rank compares the promotion rank of two IDs (spec.md §4.1.2, §4.1.5).
func Rank(id ID, longEqLLong bool) int { return rankTier(id, longEqLLong) }

// CanRepresent reports whether every value of type b is representable in
// type a (spec.md §4.1.4), honoring a's/b's signedness and bit size. Bit
// sizes are fixed per ID regardless of the long/long-long identity policy
// flag (that flag only affects promotion rank, see Rank), so this takes no
// such parameter.
func CanRepresent(a, b *Type) bool {
	if a.ID == b.ID {
		return true
	}
	if a.IsSigned() == b.IsSigned() {
		return a.Bits() >= b.Bits()
	}
	if a.IsSigned() {
		// a signed, b unsigned: a must have strictly more bits to cover b's range.
		return a.Bits() > b.Bits()
	}
	// a unsigned, b signed: a can't represent b's negative values unless b
	// never has any, which never holds for a real signed type.
	return false
}
