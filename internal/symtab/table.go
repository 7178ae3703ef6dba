package symtab

import "cfuzzgen/internal/xerrors"

// Role names which of the four tables (spec.md §3.4) a Table plays.
type Role int

const (
	ExternInput Role = iota
	ExternMixed
	ExternOutput
	Local
)

func (r Role) String() string {
	switch r {
	case ExternInput:
		return "extern_input"
	case ExternMixed:
		return "extern_mixed"
	case ExternOutput:
		return "extern_output"
	case Local:
		return "local"
	default:
		return "table(?)"
	}
}

// Table is an ordered list of variables with unique names (spec.md §3.4).
type Table struct {
	Role   Role
	vars   []Variable
	byName map[string]Variable
}

func NewTable(role Role) *Table {
	return &Table{Role: role, byName: make(map[string]Variable)}
}

// Add inserts v, preserving insertion order (spec.md §5 determinism: "all
// iteration over variables/members follows insertion order"). Returns a
// fatal xerrors.GenError if the name already exists in this table (spec.md
// §8.1.6 "Symbol-table uniqueness").
func (t *Table) Add(v Variable) error {
	if _, exists := t.byName[v.VarName()]; exists {
		return xerrors.Fatalf("symtab", "Add", "duplicate name %q in table %s", v.VarName(), t.Role)
	}
	t.vars = append(t.vars, v)
	t.byName[v.VarName()] = v
	return nil
}

// Vars returns every variable in insertion order.
func (t *Table) Vars() []Variable { return t.vars }

// Lookup resolves a name within this table only (no parent chain).
func (t *Table) Lookup(name string) (Variable, bool) {
	v, ok := t.byName[name]
	return v, ok
}

// Scalars returns every *Scalar directly owned by this table, in order.
func (t *Table) Scalars() []*Scalar {
	var out []*Scalar
	for _, v := range t.vars {
		if s, ok := v.(*Scalar); ok {
			out = append(out, s)
		}
	}
	return out
}

// Structs returns every *Struct directly owned by this table, in order.
func (t *Table) Structs() []*Struct {
	var out []*Struct
	for _, v := range t.vars {
		if s, ok := v.(*Struct); ok {
			out = append(out, s)
		}
	}
	return out
}
