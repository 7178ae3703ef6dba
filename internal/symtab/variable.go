// Package symtab implements spec.md §3.3/§3.4: Scalar and Struct
// variables, the four symbol tables (extern_input, extern_mixed,
// extern_output, local) and the generation Context that threads policy,
// RNG, tables and depth/taken state through recursive generation
// (spec.md §2 C3).
package symtab

import (
	"fmt"

	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/ivalue"
)

// Variable is either a *Scalar or a *Struct (spec.md §3.3).
type Variable interface {
	VarName() string
}

// Scalar is a named, typed value with separate initial/current values
// (spec.md §3.3). Scalar variables are owned by exactly one symbol table
// (spec.md §3.7).
type Scalar struct {
	Name    string
	Type    *inttype.Type
	Initial ivalue.Value
	Current ivalue.Value

	// Written tracks whether this Scalar has ever been assigned, used to
	// enforce spec.md §9's open-question resolution: a read of an
	// unwritten Scalar is a fatal invariant violation, never a silent 0.
	Written bool
}

func (s *Scalar) VarName() string { return s.Name }

// Assign records a write. It always marks Written, independent of
// taken (spec.md §4.2 "Assign.propagate_value always marks the target
// variable as written irrespective of taken"); it only updates Current
// when taken is true.
func (s *Scalar) Assign(v ivalue.Value, taken bool) {
	s.Written = true
	if taken {
		s.Current = v
	}
}

// Struct is a recursive aggregate with ordered named members (spec.md
// §3.3). A Struct variable holds unique ownership of its members.
type Struct struct {
	Name    string
	TypeTag string // e.g. "structtype_3" — the emitted struct type's tag name
	Members []Variable
}

func (s *Struct) VarName() string { return s.Name }

// Member returns the idx-th member (spec.md §3.5 MemberUse).
func (s *Struct) Member(idx int) Variable { return s.Members[idx] }

// NameGen dispenses monotonically increasing identifiers (spec.md §3.4):
// var_N, arr_N, struct_N, member_N. A single NameGen is shared across an
// entire run so names stay globally unique and generation stays
// deterministic (spec.md §5 "the name generator uses a deterministic
// monotonic counter").
type NameGen struct {
	counters map[string]int
}

func NewNameGen() *NameGen {
	return &NameGen{counters: make(map[string]int)}
}

func (g *NameGen) Next(prefix string) string {
	n := g.counters[prefix]
	g.counters[prefix] = n + 1
	return fmt.Sprintf("%s_%d", prefix, n)
}
