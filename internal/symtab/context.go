package symtab

import (
	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/policy"
)

// Scope is one parent-linked local symbol table (spec.md §3.4 local
// table: "dynamic, per-scope, parent-linked up to the top-level context").
type Scope struct {
	Parent *Scope
	Local  *Table
}

// Lookup resolves name to the innermost binding on the chain (spec.md
// §8.1.6).
func (s *Scope) Lookup(name string) (Variable, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if v, ok := sc.Local.Lookup(name); ok {
			return v, ok
		}
	}
	return nil, false
}

// Chain returns every Scope from outermost to innermost (including s),
// used to assemble the "currently visible" variable pool (spec.md §4.4)
// in deterministic, insertion order (spec.md §5).
func (s *Scope) Chain() []*Scope {
	var rev []*Scope
	for sc := s; sc != nil; sc = sc.Parent {
		rev = append(rev, sc)
	}
	out := make([]*Scope, len(rev))
	for i, sc := range rev {
		out[len(rev)-1-i] = sc
	}
	return out
}

// Context threads the active policy, RNG, symbol tables, depth counters
// and the taken flag through recursive generation (spec.md §2 C3). It is
// a plain value: cheap to copy when C6 "recurses with cloned contexts" for
// If/Loop bodies, since every field that must stay shared (tables, pool,
// RNG, name generator) is itself a pointer.
type Context struct {
	Policy *policy.Policy
	RNG    *policy.RNG
	Pool   *inttype.Pool
	Names  *NameGen

	ExternInput  *Table
	ExternMixed  *Table
	ExternOutput *Table

	Scope *Scope

	IfDepth   int
	LoopDepth int
	Taken     bool
}

// NewTopLevel builds the top-level context (spec.md §2 flow): empty local
// tables, the three extern tables ready to be populated by the driver.
func NewTopLevel(pol *policy.Policy, rng *policy.RNG) *Context {
	pool := inttype.NewPool()
	return &Context{
		Policy:       pol,
		RNG:          rng,
		Pool:         pool,
		Names:        NewNameGen(),
		ExternInput:  NewTable(ExternInput),
		ExternMixed:  NewTable(ExternMixed),
		ExternOutput: NewTable(ExternOutput),
		Scope:        &Scope{Local: NewTable(Local)},
		Taken:        true,
	}
}

// Child opens a fresh nested local scope sharing every run-wide resource,
// for If/Loop bodies to recurse into (spec.md §2 flow: "recurses with
// cloned contexts whose taken flag equals the evaluated condition").
func (c *Context) Child(taken bool) *Context {
	child := *c
	child.Scope = &Scope{Parent: c.Scope, Local: NewTable(Local)}
	child.Taken = taken
	return &child
}

// VisibleScalars gathers every Scalar reachable from ctx in deterministic
// order: outermost-to-innermost locals, then extern_mixed, then
// extern_input (spec.md §4.4 "every in-scope variable ... and every
// extern-input/extern-mixed variable"). extern_output is excluded — it is
// write-only from the generator's perspective until assigned, and is
// never offered as a read operand, matching spec.md §3.4.
func (c *Context) VisibleScalars() []*Scalar {
	var out []*Scalar
	for _, sc := range c.Scope.Chain() {
		out = append(out, sc.Local.Scalars()...)
	}
	out = append(out, c.ExternMixed.Scalars()...)
	out = append(out, c.ExternInput.Scalars()...)
	return out
}

// VisibleStructs mirrors VisibleScalars for Struct variables, whose
// members are reachable via MemberUse (spec.md §4.4).
func (c *Context) VisibleStructs() []*Struct {
	var out []*Struct
	for _, sc := range c.Scope.Chain() {
		out = append(out, sc.Local.Structs()...)
	}
	out = append(out, c.ExternMixed.Structs()...)
	out = append(out, c.ExternInput.Structs()...)
	return out
}

// AssignTargets gathers extern_mixed and extern_output Scalars — spec.md
// §4.4's two valid ExprStmt assignment targets ("a fresh extern-output
// variable added to that table, or an existing extern-mixed variable").
// extern_output's quota is pre-populated up front by PopulateExterns
// rather than grown ad hoc per statement (see internal/stmt's
// PopulateExterns), so both tables are simply read here.
func (c *Context) AssignTargets() []*Scalar {
	out := append([]*Scalar{}, c.ExternMixed.Scalars()...)
	out = append(out, c.ExternOutput.Scalars()...)
	return out
}
