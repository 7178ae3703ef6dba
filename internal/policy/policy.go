// Package policy is pure configuration (spec.md §2 C2): probability
// distributions over type choices, operator choices, tree depths,
// statement kinds and loop shapes, plus the seeded RNG wrapper in rng.go.
// None of it evaluates anything; internal/expr and internal/stmt consult
// it and drive internal/ivalue/internal/inttype themselves.
package policy

import (
	"encoding/json"
	"os"

	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/ivalue"
	"cfuzzgen/internal/xerrors"
)

// StmtKind is a statement-generation choice (spec.md §3.6, §4.4).
type StmtKind int

const (
	StmtDecl StmtKind = iota
	StmtExpr
	StmtIf
	StmtLoop
)

// ExprKind is an expression-tree node shape choice (spec.md §4.5).
type ExprKind int

const (
	ExprLeaf ExprKind = iota
	ExprUnary
	ExprBinary
	ExprTypeCast
)

// Policy is one named, immutable configuration. Every generation call
// threads a *Policy alongside the *RNG (spec.md §2 C3 "A context threads
// the active policy").
type Policy struct {
	Name string `json:"name"`

	// LongEqLLong is spec.md §9's open question, resolved as a policy
	// field rather than a host sizeof probe.
	LongEqLLong bool `json:"long_eq_llong"`

	// Structural limits (spec.md §4.4, grounded on
	// original_source/src/gen_policy.h).
	LoopNestDepthLimit int `json:"loop_nest_depth_limit"`
	IfDepthLimit       int `json:"if_depth_limit"`
	ScopeStmtMin       int `json:"scope_stmt_min"`
	ScopeStmtMax       int `json:"scope_stmt_max"`

	MinInputVars  int `json:"min_input_vars"`
	MaxInputVars  int `json:"max_input_vars"`
	MinMixedVars  int `json:"min_mixed_vars"`
	MaxMixedVars  int `json:"max_mixed_vars"`
	MinOutputVars int `json:"min_output_vars"`
	MaxOutputVars int `json:"max_output_vars"`

	// Struct population (spec.md §3.3): applied independently to each of
	// the three extern tables, in addition to their scalar quota.
	MinStructVars   int `json:"min_struct_vars"`
	MaxStructVars   int `json:"max_struct_vars"`
	StructMemberMin int `json:"struct_member_min"`
	StructMemberMax int `json:"struct_member_max"`

	// InputConstProb is the chance an extern_input Scalar's type picks up
	// a `const` qualifier (spec.md §6.2 "External variables are emitted
	// with the CV/static qualifiers from their type"): input variables
	// are never assignment targets (internal/stmt's pickAssignTarget only
	// ever chooses extern_mixed/extern_output), so const never conflicts
	// with a later write.
	InputConstProb float64 `json:"input_const_prob"`

	// Expression-tree shape (spec.md §4.5).
	MaxArithDepth int     `json:"max_arith_depth"`
	ConstProb     float64 `json:"const_prob"`
	ElseProb      float64 `json:"else_prob"`

	LoopStepMagnitudes []int `json:"loop_step_magnitudes"`

	// LoopIterSpaceSize bounds a counted loop's start value to
	// [0, LoopIterSpaceSize) (spec.md §4.4). spec.md's prose calls this
	// "min_extern_array_size", a holdover from the original generator's
	// array-indexing loops; this generator has no Array variable kind
	// (spec.md §3.3 defines only Scalar and Struct), so the bound is a
	// plain policy constant instead of a real array's length.
	LoopIterSpaceSize int `json:"loop_iter_space_size"`

	StmtKindDistr  []Weighted[StmtKind]      `json:"-"`
	ExprKindDistr  []Weighted[ExprKind]      `json:"-"`
	IntTypeDistr   []Weighted[inttype.ID]    `json:"-"`
	UnaryOpDistr   []Weighted[ivalue.UnaryOp]  `json:"-"`
	BinaryOpDistr  []Weighted[ivalue.BinaryOp] `json:"-"`
}

// Default is the baseline policy (spec.md §6.3 "If unspecified, defaults
// defined in §4 apply").
func Default() *Policy {
	return &Policy{
		Name:               "default",
		LongEqLLong:        true,
		LoopNestDepthLimit: 2,
		IfDepthLimit:       3,
		ScopeStmtMin:       3,
		ScopeStmtMax:       8,
		MinInputVars:       2,
		MaxInputVars:       6,
		MinMixedVars:       1,
		MaxMixedVars:       4,
		MinOutputVars:      1,
		MaxOutputVars:      4,
		MinStructVars:      0,
		MaxStructVars:      2,
		StructMemberMin:    2,
		StructMemberMax:    4,
		InputConstProb:     0.25,
		MaxArithDepth:      4,
		ConstProb:          0.35,
		ElseProb:           0.5,
		LoopStepMagnitudes: []int{1, 2, 3, 4, 8},
		LoopIterSpaceSize:  16,
		StmtKindDistr: []Weighted[StmtKind]{
			{StmtDecl, 3}, {StmtExpr, 5}, {StmtIf, 3}, {StmtLoop, 1},
		},
		ExprKindDistr: []Weighted[ExprKind]{
			{ExprLeaf, 4}, {ExprUnary, 2}, {ExprBinary, 5}, {ExprTypeCast, 1},
		},
		IntTypeDistr: []Weighted[inttype.ID]{
			{inttype.Bool, 1}, {inttype.SChar, 2}, {inttype.UChar, 2},
			{inttype.Short, 2}, {inttype.UShort, 2}, {inttype.Int, 4},
			{inttype.UInt, 4}, {inttype.Long, 3}, {inttype.ULong, 3},
			{inttype.LLong, 2}, {inttype.ULLong, 2},
		},
		UnaryOpDistr: []Weighted[ivalue.UnaryOp]{
			{ivalue.Plus, 1}, {ivalue.Negate, 3}, {ivalue.LogicalNot, 2},
			{ivalue.BitNot, 2}, {ivalue.PreInc, 2}, {ivalue.PreDec, 2},
			{ivalue.PostInc, 2}, {ivalue.PostDec, 2},
		},
		BinaryOpDistr: []Weighted[ivalue.BinaryOp]{
			{ivalue.Add, 5}, {ivalue.Sub, 5}, {ivalue.Mul, 4}, {ivalue.Div, 2},
			{ivalue.Mod, 2}, {ivalue.Shl, 1}, {ivalue.Shr, 1},
			{ivalue.Lt, 2}, {ivalue.Gt, 2}, {ivalue.Le, 2}, {ivalue.Ge, 2},
			{ivalue.Eq, 2}, {ivalue.Ne, 2},
			{ivalue.BitAnd, 2}, {ivalue.BitOr, 2}, {ivalue.BitXor, 2},
			{ivalue.LogAnd, 1}, {ivalue.LogOr, 1},
		},
	}
}

// DeepArithmetic favors deep arithmetic expressions over control flow
// (spec.md §5.3, grounded on original_source/gen_policy.cpp's alternate
// hand-tuned distributions).
func DeepArithmetic() *Policy {
	p := Default()
	p.Name = "deep-arith"
	p.MaxArithDepth = 8
	p.ConstProb = 0.2
	p.StmtKindDistr = []Weighted[StmtKind]{
		{StmtDecl, 2}, {StmtExpr, 8}, {StmtIf, 1}, {StmtLoop, 1},
	}
	return p
}

// ControlFlowHeavy favors if/loop nesting over deep arithmetic (spec.md §5.3).
func ControlFlowHeavy() *Policy {
	p := Default()
	p.Name = "control-flow"
	p.MaxArithDepth = 3
	p.LoopNestDepthLimit = 3
	p.IfDepthLimit = 5
	p.StmtKindDistr = []Weighted[StmtKind]{
		{StmtDecl, 2}, {StmtExpr, 3}, {StmtIf, 5}, {StmtLoop, 3},
	}
	return p
}

// ByName resolves a --policy flag value (spec.md SPEC_FULL.md §5.3).
func ByName(name string) (*Policy, error) {
	switch name {
	case "", "default":
		return Default(), nil
	case "deep-arith":
		return DeepArithmetic(), nil
	case "control-flow":
		return ControlFlowHeavy(), nil
	default:
		return nil, xerrors.Policyf("unknown policy preset %q", name)
	}
}

// Load reads a Policy's scalar/limit fields from a JSON file, starting
// from Default() for any field the file omits, then validating the
// result. Distributions (weights over ops/types/statement kinds) are not
// JSON-overridable in this version — only the scalar limits original
// operators actually tune at the command line.
func Load(path string) (*Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Policyf("opening policy file: %v", err)
	}
	defer f.Close()

	p := Default()
	dec := json.NewDecoder(f)
	if err := dec.Decode(p); err != nil {
		return nil, xerrors.Policyf("decoding policy file: %v", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the hard limits spec.md §4.4 requires generation to
// respect (if-depth/loop-depth bounds, non-empty scope/var ranges).
func (p *Policy) Validate() error {
	switch {
	case p.LoopNestDepthLimit < 0:
		return xerrors.Policyf("loop_nest_depth_limit must be >= 0")
	case p.IfDepthLimit < 0:
		return xerrors.Policyf("if_depth_limit must be >= 0")
	case p.ScopeStmtMin < 0 || p.ScopeStmtMax < p.ScopeStmtMin:
		return xerrors.Policyf("invalid scope_stmt_min/max (%d/%d)", p.ScopeStmtMin, p.ScopeStmtMax)
	case p.MinInputVars < 0 || p.MaxInputVars < p.MinInputVars:
		return xerrors.Policyf("invalid min/max_input_vars (%d/%d)", p.MinInputVars, p.MaxInputVars)
	case p.MaxOutputVars < p.MinOutputVars || p.MinOutputVars < 1:
		return xerrors.Policyf("invalid min/max_output_vars (%d/%d): need at least one output", p.MinOutputVars, p.MaxOutputVars)
	case p.MaxArithDepth < 1:
		return xerrors.Policyf("max_arith_depth must be >= 1")
	case p.MaxStructVars < p.MinStructVars || p.MinStructVars < 0:
		return xerrors.Policyf("invalid min/max_struct_vars (%d/%d)", p.MinStructVars, p.MaxStructVars)
	case p.StructMemberMax < p.StructMemberMin || p.StructMemberMin < 1:
		return xerrors.Policyf("invalid struct_member_min/max (%d/%d)", p.StructMemberMin, p.StructMemberMax)
	case len(p.LoopStepMagnitudes) == 0:
		return xerrors.Policyf("loop_step_magnitudes must be non-empty")
	}
	return nil
}
