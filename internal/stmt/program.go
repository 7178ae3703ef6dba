package stmt

import (
	"cfuzzgen/internal/expr"
	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/symtab"
)

// PopulateExterns pre-creates ctx's extern_input, extern_mixed and
// extern_output Scalars and Structs, each with a generation-time chosen
// initial value (spec.md §6.1 init.cpp "Definitions (with chosen initial
// values) of all external variables"), before any statement is generated.
// Counts are drawn from the policy's min/max bounds (spec.md §4.4).
func PopulateExterns(ctx *symtab.Context) {
	populate(ctx, ctx.ExternInput, ctx.Policy.MinInputVars, ctx.Policy.MaxInputVars, ctx.Policy.InputConstProb)
	populate(ctx, ctx.ExternMixed, ctx.Policy.MinMixedVars, ctx.Policy.MaxMixedVars, 0)
	populate(ctx, ctx.ExternOutput, ctx.Policy.MinOutputVars, ctx.Policy.MaxOutputVars, 0)

	populateStructs(ctx, ctx.ExternInput)
	populateStructs(ctx, ctx.ExternMixed)
	populateStructs(ctx, ctx.ExternOutput)
}

func populate(ctx *symtab.Context, table *symtab.Table, min, max int, constProb float64) {
	n := ctx.RNG.Uniform(min, max)
	for i := 0; i < n; i++ {
		v := newScalar(ctx, ctx.Names.Next("var"))
		if constProb > 0 && ctx.RNG.Bool(constProb) {
			v.Type = ctx.Pool.Intern(v.Type.ID, v.Type.Static, inttype.CVConst)
		}
		if err := table.Add(v); err != nil {
			panic(err)
		}
	}
}

func newScalar(ctx *symtab.Context, name string) *symtab.Scalar {
	t := expr.RandomType(ctx)
	v := &symtab.Scalar{Name: name, Type: t}
	val := expr.RandomValue(ctx, t)
	v.Initial = val
	v.Current = val
	v.Written = true
	return v
}

// populateStructs pre-creates table's quota of Struct variables (spec.md
// §3.3), each a flat aggregate of freshly initialized Scalar members
// (this generator never nests Structs — see internal/expr's package
// doc).
func populateStructs(ctx *symtab.Context, table *symtab.Table) {
	n := ctx.RNG.Uniform(ctx.Policy.MinStructVars, ctx.Policy.MaxStructVars)
	for i := 0; i < n; i++ {
		memberCount := ctx.RNG.Uniform(ctx.Policy.StructMemberMin, ctx.Policy.StructMemberMax)
		members := make([]symtab.Variable, 0, memberCount)
		for j := 0; j < memberCount; j++ {
			members = append(members, newScalar(ctx, ctx.Names.Next("member")))
		}
		st := &symtab.Struct{
			Name:    ctx.Names.Next("struct"),
			TypeTag: ctx.Names.Next("structtype"),
			Members: members,
		}
		if err := table.Add(st); err != nil {
			panic(err)
		}
	}
}

// GenProgram builds the full top-level program: externs, then the
// top-level Scope (spec.md §2 flow, §6.1 func.cpp).
func GenProgram(b *expr.Builder, ctx *symtab.Context) *Stmt {
	PopulateExterns(ctx)
	return GenScope(b, ctx)
}
