// Package stmt implements the statement IR and its structural generator
// (spec.md §3.6, §4.4 — C6): Decl, ExprStmt, Scope, If and counted Loop,
// each wiring internal/expr's Builder (already holding an injected
// internal/rewrite.Rewriter as its Fixer) against internal/symtab's
// Context to pick operands and write results through.
package stmt

import (
	"cfuzzgen/internal/expr"
	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/ivalue"
	"cfuzzgen/internal/policy"
	"cfuzzgen/internal/symtab"
	"cfuzzgen/internal/xerrors"
)

// Kind tags Stmt's variants (spec.md §3.6).
type Kind int

const (
	SDecl Kind = iota
	SExprStmt
	SScope
	SIf
	SLoop
)

// Stmt is one statement-tree node, Go's sealed-sum-type stand-in (spec.md
// §9), mirroring internal/expr.Expr's tagged-struct shape.
type Stmt struct {
	Kind Kind

	// SDecl
	DeclVar *symtab.Scalar
	Init    *expr.Expr // nil if the declaration has no initializer

	// SExprStmt
	Expr *expr.Expr

	// SScope
	Table *symtab.Scope
	Body  []*Stmt

	// SIf
	Cond *expr.Expr
	Then *Stmt // always SScope
	Else *Stmt // SScope, nil if absent

	// SLoop
	IterVar          *symtab.Scalar
	Start, End, Step *expr.Expr
	CmpOp            ivalue.BinaryOp
	LoopBody         *Stmt // always SScope
}

// GenScope builds one Scope stmt: a fresh local table's worth of
// statements, count drawn from policy.ScopeStmtMin/Max (spec.md §4.4 "For
// each slot in a scope").
func GenScope(b *expr.Builder, ctx *symtab.Context) *Stmt {
	n := ctx.RNG.Uniform(ctx.Policy.ScopeStmtMin, ctx.Policy.ScopeStmtMax)
	body := make([]*Stmt, 0, n)
	for i := 0; i < n; i++ {
		body = append(body, genStmt(b, ctx))
	}
	return &Stmt{Kind: SScope, Table: ctx.Scope, Body: body}
}

func genStmt(b *expr.Builder, ctx *symtab.Context) *Stmt {
	switch chooseStmtKind(ctx) {
	case policy.StmtDecl:
		return genDecl(b, ctx)
	case policy.StmtIf:
		return genIf(b, ctx)
	case policy.StmtLoop:
		return genLoop(b, ctx)
	default:
		return genExprStmt(b, ctx)
	}
}

// chooseStmtKind picks a slot's StmtKind by policy, falling back to
// StmtExpr whenever the chosen kind would exceed the if-depth/loop-depth
// hard limits (spec.md §4.4 "bounded by hard limits on if-depth and
// loop-depth").
func chooseStmtKind(ctx *symtab.Context) policy.StmtKind {
	k := policy.Pick(ctx.RNG, ctx.Policy.StmtKindDistr)
	if k == policy.StmtIf && ctx.IfDepth >= ctx.Policy.IfDepthLimit {
		return policy.StmtExpr
	}
	if k == policy.StmtLoop && ctx.LoopDepth >= ctx.Policy.LoopNestDepthLimit {
		return policy.StmtExpr
	}
	return k
}

// genDecl builds Decl(var, init_expr?) (spec.md §4.4): a new Scalar of a
// random type, an initializer built from the currently visible
// expressions, attached to ctx's local table.
func genDecl(b *expr.Builder, ctx *symtab.Context) *Stmt {
	t := expr.RandomType(ctx)
	v := &symtab.Scalar{Name: ctx.Names.Next("var"), Type: t}

	pool := expr.LeafPool(ctx)
	var init *expr.Expr
	if len(pool) > 0 {
		raw := expr.GenExpr(b, ctx, pool, 1)
		init = b.TypeCast(raw, t, true)
	} else {
		init = b.Const(expr.RandomValue(ctx, t))
	}
	// Decl's initializer always takes effect on the local's own bookkeeping
	// value, independent of ctx.Taken: unlike ExprStmt's Assign, a Decl
	// that sits in an untaken branch is never observed through a
	// checksummed extern variable anyway (only Assign.propagate_value
	// gates writes to extern_mixed/extern_output on taken), so there is no
	// "declared but still holding its zero value" state to model.
	v.Initial = init.Value
	v.Current = init.Value
	v.Written = true

	if err := ctx.Scope.Local.Add(v); err != nil {
		panic(err)
	}
	return &Stmt{Kind: SDecl, DeclVar: v, Init: init}
}

// genExprStmt builds ExprStmt(Assign(target, rhs, taken)) (spec.md §4.4):
// the target is an existing extern_output or extern_mixed Scalar, or a
// member of an extern_output/extern_mixed Struct (both pre-populated by
// PopulateExterns with a chosen initial value before the body is
// generated; spec.md §8.4 S5 requires struct-member assignment to be
// reachable too). The rhs is built by RInit (spec.md §4.6): a fresh
// pre-chosen value of the target's type, pinned through an expression
// that is forced to depend on at least one visible input, rather than an
// arbitrary tree that might happen to be all-constant.
func genExprStmt(b *expr.Builder, ctx *symtab.Context) *Stmt {
	targetExpr := pickAssignTarget(b, ctx)
	pool := expr.LeafPool(ctx)

	var rhs *expr.Expr
	if len(pool) > 0 {
		outValue := expr.RandomValue(ctx, targetExpr.Type)
		rhs = expr.RInit(b, ctx, pool, targetExpr.Type, outValue)
	} else {
		rhs = expr.GenExpr(b, ctx, pool, 1)
	}

	assign, err := b.Assign(targetExpr, rhs, ctx.Taken)
	if err != nil {
		panic(err)
	}
	return &Stmt{Kind: SExprStmt, Expr: assign}
}

// pickAssignTarget chooses uniformly among every existing extern_mixed/
// extern_output Scalar and every member of an extern_mixed/extern_output
// Struct (spec.md §4.4's "fresh extern-output variable" is realized as
// PopulateExterns pre-creating extern_output's full quota up front instead
// of ad hoc per-statement, each with an initial value already written —
// see DESIGN.md's Open Question decisions). Struct members are
// included so spec.md §8.4 S5's struct-member assignment scenario is
// actually reachable, not just representable by the IR.
func pickAssignTarget(b *expr.Builder, ctx *symtab.Context) *expr.Expr {
	scalars := ctx.AssignTargets()
	structs := append([]*symtab.Struct{}, ctx.ExternMixed.Structs()...)
	structs = append(structs, ctx.ExternOutput.Structs()...)

	memberSlots := 0
	for _, st := range structs {
		memberSlots += len(st.Members)
	}

	n := ctx.RNG.Uniform(0, len(scalars)+memberSlots-1)
	if n < len(scalars) {
		return b.AssignTarget(scalars[n])
	}
	n -= len(scalars)
	for _, st := range structs {
		if n < len(st.Members) {
			return b.AssignMemberTarget(st, n)
		}
		n -= len(st.Members)
	}
	panic(xerrors.Fatalf("stmt", "pickAssignTarget", "assign-target index out of range"))
}

// genIf builds If(cond, then, else?) (spec.md §4.4): cond is coerced to
// bool and its NoUB value computed at generation time, driving which
// branch recurses with taken = true.
func genIf(b *expr.Builder, ctx *symtab.Context) *Stmt {
	pool := expr.LeafPool(ctx)
	raw := expr.GenExpr(b, ctx, pool, 1)
	cond := b.ToBool(raw) // spec.md §4.1.3

	condTrue := cond.Value.Raw != 0

	thenCtx := ctx.Child(ctx.Taken && condTrue)
	thenCtx.IfDepth++
	thenStmt := GenScope(b, thenCtx)

	s := &Stmt{Kind: SIf, Cond: cond, Then: thenStmt}

	if ctx.RNG.Bool(ctx.Policy.ElseProb) {
		elseCtx := ctx.Child(ctx.Taken && !condTrue)
		elseCtx.IfDepth++
		s.Else = GenScope(b, elseCtx)
	}
	return s
}

// genLoop builds a counted Loop (spec.md §4.4): an iterator Scalar in a
// fresh sub-scope, start in [0, LoopIterSpaceSize), a signed step from
// LoopStepMagnitudes, a terminal value exactly iterationCount steps away
// from start (clamped into the iterator type's range; no overshooting
// terminal is ever produced), a comparator consistent with the
// step's sign, and a body executed for exactly one representative
// iteration with the iterator bound to start.
func genLoop(b *expr.Builder, ctx *symtab.Context) *Stmt {
	t := pickLoopIterType(ctx)

	start := ctx.RNG.Uniform(0, ctx.Policy.LoopIterSpaceSize-1)
	step := pickLoopStep(ctx)

	iterationCount := ctx.RNG.Uniform(0, ctx.Policy.LoopIterSpaceSize)
	terminal := start + iterationCount*step
	terminal = clampToType(t, terminal)

	cmpOp := pickLoopCmp(ctx, step)

	loopCtx := ctx.Child(ctx.Taken)
	loopCtx.LoopDepth++
	iterVar := &symtab.Scalar{Name: ctx.Names.Next("var"), Type: t}
	iterVar.Assign(ivalue.FromSigned(t, int64(start)), true)
	if err := loopCtx.Scope.Local.Add(iterVar); err != nil {
		panic(err)
	}

	startExpr := b.Const(ivalue.FromSigned(t, int64(start)))
	endExpr := b.Const(ivalue.FromSigned(t, int64(terminal)))
	stepExpr := b.Const(ivalue.FromSigned(t, int64(step)))

	// Exactly one representative iteration, per spec.md §4.4, regardless of
	// how many the emitted C loop will actually run: the generator's value
	// model only ever observes the iterator bound to start.
	runsAtLeastOnce := loopTaken(cmpOp, start, terminal)
	bodyCtx := loopCtx.Child(loopCtx.Taken && runsAtLeastOnce)
	body := GenScope(b, bodyCtx)

	return &Stmt{
		Kind:     SLoop,
		IterVar:  iterVar,
		Start:    startExpr,
		End:      endExpr,
		Step:     stepExpr,
		CmpOp:    cmpOp,
		LoopBody: body,
	}
}

func pickLoopIterType(ctx *symtab.Context) *inttype.Type {
	for {
		t := expr.RandomType(ctx)
		if t.ID != inttype.Bool {
			return t
		}
	}
}

func pickLoopStep(ctx *symtab.Context) int {
	m := ctx.Policy.LoopStepMagnitudes[ctx.RNG.Uniform(0, len(ctx.Policy.LoopStepMagnitudes)-1)]
	if ctx.RNG.Bool(0.5) {
		return m
	}
	return -m
}

func clampToType(t *inttype.Type, v int) int {
	if t.IsSigned() {
		if int64(v) < t.SignedMin() {
			return int(t.SignedMin())
		}
		if int64(v) > t.SignedMax() {
			return int(t.SignedMax())
		}
		return v
	}
	if v < 0 {
		return 0
	}
	if uint64(v) > t.UnsignedMax() {
		return int(t.UnsignedMax())
	}
	return v
}

// pickLoopCmp picks a comparator consistent with step's sign (spec.md
// §4.4 "`<, ≤, >, ≥, ≠` consistent with the step sign").
func pickLoopCmp(ctx *symtab.Context, step int) ivalue.BinaryOp {
	if ctx.RNG.Bool(0.2) {
		return ivalue.Ne
	}
	if step > 0 {
		if ctx.RNG.Bool(0.5) {
			return ivalue.Lt
		}
		return ivalue.Le
	}
	if ctx.RNG.Bool(0.5) {
		return ivalue.Gt
	}
	return ivalue.Ge
}

func loopTaken(cmp ivalue.BinaryOp, start, terminal int) bool {
	switch cmp {
	case ivalue.Lt:
		return start < terminal
	case ivalue.Le:
		return start <= terminal
	case ivalue.Gt:
		return start > terminal
	case ivalue.Ge:
		return start >= terminal
	case ivalue.Ne:
		return start != terminal
	default:
		panic(xerrors.Fatalf("stmt", "loopTaken", "unexpected loop comparator %d", cmp))
	}
}
