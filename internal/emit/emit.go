// Package emit implements C7, the textual visitor spec.md §6 describes:
// a read-only walk over the stmt.Stmt/expr.Expr trees that renders the
// six files of the emitted program surface (§6.1), following §6.2's
// literal/cast/operator/loop rendering rules. It is the C++ counterpart
// of internal/formatter, adapted from a source-printing visitor over a
// scripting-language AST to one over a typed integer-arithmetic IR.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cfuzzgen/internal/expr"
	"cfuzzgen/internal/inttype"
	"cfuzzgen/internal/ivalue"
	"cfuzzgen/internal/stmt"
	"cfuzzgen/internal/symtab"
	"cfuzzgen/internal/xerrors"
)

// printer accumulates one output file's text with teacher-style
// indent-tracking (internal/formatter.Formatter).
type printer struct {
	indent int
	out    strings.Builder
}

func (p *printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.out.WriteString("    ")
	}
}

func (p *printer) line(format string, args ...any) {
	p.writeIndent()
	fmt.Fprintf(&p.out, format, args...)
	p.out.WriteString("\n")
}

// renderConst renders a Const Value as a C++ integer literal with its
// type's suffix (spec.md §6.2 "Integer literals are followed by their
// type's suffix"). bool has no numeral spelling in this dialect's literal
// suffix table, so it renders as the keyword literal.
func renderConst(v ivalue.Value) string {
	if v.Type.ID == inttype.Bool {
		if v.Raw != 0 {
			return "true"
		}
		return "false"
	}
	return v.Big().String() + v.Type.Suffix()
}

var unaryPrefix = map[ivalue.UnaryOp]string{
	ivalue.Plus:       "+",
	ivalue.Negate:     "-",
	ivalue.LogicalNot: "!",
	ivalue.BitNot:     "~",
	ivalue.PreInc:     "++",
	ivalue.PreDec:     "--",
}

var unaryPostfix = map[ivalue.UnaryOp]string{
	ivalue.PostInc: "++",
	ivalue.PostDec: "--",
}

var binarySym = map[ivalue.BinaryOp]string{
	ivalue.Add: "+", ivalue.Sub: "-", ivalue.Mul: "*", ivalue.Div: "/", ivalue.Mod: "%",
	ivalue.Shl: "<<", ivalue.Shr: ">>",
	ivalue.Lt: "<", ivalue.Gt: ">", ivalue.Le: "<=", ivalue.Ge: ">=", ivalue.Eq: "==", ivalue.Ne: "!=",
	ivalue.BitAnd: "&", ivalue.BitOr: "|", ivalue.BitXor: "^",
	ivalue.LogAnd: "&&", ivalue.LogOr: "||",
}

// memberName resolves the name of Struct s's idx-th member. Generation
// never nests Structs (internal/expr's package doc), so the member is
// always a *symtab.Scalar.
func memberName(s *symtab.Struct, idx int) string {
	return s.Member(idx).VarName()
}

// renderExpr renders e following spec.md §6.2: casts as `(T)(expr)`,
// binary ops as `(lhs) op (rhs)`, postfix `++/--` as `(arg)op`, prefix
// forms as `op(arg)`.
func renderExpr(e *expr.Expr) string {
	switch e.Kind {
	case expr.KConst:
		return renderConst(e.Value)
	case expr.KVarUse:
		return e.Var.Name
	case expr.KMemberUse:
		return e.StructRoot.Name + "." + memberName(e.StructRoot, e.Idx)
	case expr.KTypeCast:
		return fmt.Sprintf("(%s)(%s)", e.Type.CName(), renderExpr(e.Operand))
	case expr.KUnary:
		arg := renderExpr(e.Operand)
		if sym, ok := unaryPostfix[e.UnaryOp]; ok {
			return fmt.Sprintf("(%s)%s", arg, sym)
		}
		return fmt.Sprintf("%s(%s)", unaryPrefix[e.UnaryOp], arg)
	case expr.KBinary:
		return fmt.Sprintf("(%s) %s (%s)", renderExpr(e.Left), binarySym[e.BinaryOp], renderExpr(e.Right))
	case expr.KAssign:
		return fmt.Sprintf("%s = %s", renderExpr(e.Target), renderExpr(e.Source))
	default:
		panic(xerrors.Fatalf("emit", "renderExpr", "unknown expr kind %d", e.Kind))
	}
}

// renderStmt appends s's text to p, spec.md §6.2's brace rule: a Scope
// body belonging to an If/Loop always gets braces, even for a single
// statement, since it contains control flow by construction (If/Loop are
// exactly the statements the hard depth limits bound).
func (p *printer) renderStmt(s *stmt.Stmt) {
	switch s.Kind {
	case stmt.SDecl:
		init := ""
		if s.Init != nil {
			init = " = " + renderExpr(s.Init)
		}
		p.line("%s %s%s;", s.DeclVar.Type.Decl(), s.DeclVar.Name, init)

	case stmt.SExprStmt:
		p.line("%s;", renderExpr(s.Expr))

	case stmt.SScope:
		for _, child := range s.Body {
			p.renderStmt(child)
		}

	case stmt.SIf:
		p.line("if (%s) {", renderExpr(s.Cond))
		p.indent++
		p.renderStmt(s.Then)
		p.indent--
		if s.Else != nil {
			p.line("} else {")
			p.indent++
			p.renderStmt(s.Else)
			p.indent--
			p.line("}")
		} else {
			p.line("}")
		}

	case stmt.SLoop:
		p.line("for (%s %s = %s; %s %s %s; %s += %s) {",
			s.IterVar.Type.CName(), s.IterVar.Name, renderExpr(s.Start),
			s.IterVar.Name, binarySym[s.CmpOp], renderExpr(s.End),
			s.IterVar.Name, renderExpr(s.Step))
		p.indent++
		p.renderStmt(s.LoopBody)
		p.indent--
		p.line("}")

	default:
		panic(xerrors.Fatalf("emit", "renderStmt", "unknown stmt kind %d", s.Kind))
	}
}

// renderStructDef renders one Struct variable's C++ tag-type definition
// (spec.md §3.3's aggregate variant, emitted the way §6.1 implies
// init.h groups "extern declarations ... of every external ... variable"
// — the backing type has to be declared before any extern of it).
func renderStructDef(s *symtab.Struct) string {
	var p printer
	p.line("struct %s {", s.TypeTag)
	p.indent++
	for _, m := range s.Members {
		sc := m.(*symtab.Scalar)
		p.line("%s %s;", sc.Type.Decl(), sc.Name)
	}
	p.indent--
	p.line("};")
	return p.out.String()
}

func externDecl(v symtab.Variable) string {
	switch x := v.(type) {
	case *symtab.Scalar:
		return fmt.Sprintf("extern %s %s;", x.Type.Decl(), x.Name)
	case *symtab.Struct:
		return fmt.Sprintf("extern %s %s;", x.TypeTag, x.Name)
	default:
		panic(xerrors.Fatalf("emit", "externDecl", "unknown variable kind %T", v))
	}
}

// allExternTables returns the three extern tables in the fixed order
// init.h/init.cpp/check.cpp iterate them in (spec.md §5 determinism:
// "all iteration over variables/members follows insertion order").
func allExternTables(ctx *symtab.Context) []*symtab.Table {
	return []*symtab.Table{ctx.ExternInput, ctx.ExternMixed, ctx.ExternOutput}
}

// InitHeader renders init.h.
func InitHeader(ctx *symtab.Context) string {
	var p printer
	p.line("#ifndef INIT_H")
	p.line("#define INIT_H")
	p.line("")
	p.line("#include <cstdint>")
	p.line("")
	for _, table := range allExternTables(ctx) {
		for _, st := range table.Structs() {
			p.out.WriteString(renderStructDef(st))
			p.line("")
		}
	}
	for _, table := range allExternTables(ctx) {
		for _, v := range table.Vars() {
			p.line("%s", externDecl(v))
		}
	}
	p.line("")
	p.line("void hash(uint64_t &seed, uint64_t v);")
	p.line("")
	p.line("#endif")
	return p.out.String()
}

// InitSource renders init.cpp: definitions carrying each Scalar's chosen
// initial value, plus an init() assigning every Struct member's initial
// value (spec.md §6.1).
func InitSource(ctx *symtab.Context) string {
	var p printer
	p.line("#include \"init.h\"")
	p.line("")
	for _, table := range allExternTables(ctx) {
		for _, v := range table.Vars() {
			switch x := v.(type) {
			case *symtab.Scalar:
				p.line("%s %s = %s;", x.Type.Decl(), x.Name, renderConst(x.Initial))
			case *symtab.Struct:
				p.line("%s %s;", x.TypeTag, x.Name)
			}
		}
	}
	p.line("")
	p.line("void init() {")
	p.indent++
	for _, table := range allExternTables(ctx) {
		for _, st := range table.Structs() {
			for _, m := range st.Members {
				sc := m.(*symtab.Scalar)
				p.line("%s.%s = %s;", st.Name, sc.Name, renderConst(sc.Initial))
			}
		}
	}
	p.indent--
	p.line("}")
	return p.out.String()
}

// Func renders func.cpp: the generated void foo() body (spec.md §6.1).
func Func(program *stmt.Stmt) string {
	var p printer
	p.line("#include \"init.h\"")
	p.line("")
	p.line("void foo() {")
	p.indent++
	p.renderStmt(program)
	p.indent--
	p.line("}")
	return p.out.String()
}

// Check renders check.cpp: checksum() folding every mixed and output
// variable through hash(), recursing into Structs member-by-member
// (spec.md §6.1).
func Check(ctx *symtab.Context) string {
	var p printer
	p.line("#include \"init.h\"")
	p.line("")
	p.line("uint64_t checksum() {")
	p.indent++
	p.line("uint64_t seed = 0;")
	for _, table := range []*symtab.Table{ctx.ExternMixed, ctx.ExternOutput} {
		for _, v := range table.Vars() {
			switch x := v.(type) {
			case *symtab.Scalar:
				p.line("hash(seed, (uint64_t)(%s));", x.Name)
			case *symtab.Struct:
				for _, m := range x.Members {
					sc := m.(*symtab.Scalar)
					p.line("hash(seed, (uint64_t)(%s.%s));", x.Name, sc.Name)
				}
			}
		}
	}
	p.line("return seed;")
	p.indent--
	p.line("}")
	return p.out.String()
}

// Driver renders driver.cpp (spec.md §6.1).
func Driver() string {
	var p printer
	p.line("#include <cstdio>")
	p.line("#include \"init.h\"")
	p.line("")
	p.line("int main() {")
	p.indent++
	p.line("init();")
	p.line("foo();")
	p.line("printf(\"%%llu\\n\", (unsigned long long)checksum());")
	p.line("return 0;")
	p.indent--
	p.line("}")
	return p.out.String()
}

// Hash renders hash.cpp: the fixed 64-bit mixer (spec.md §6.1).
func Hash() string {
	var p printer
	p.line("#include \"init.h\"")
	p.line("")
	p.line("void hash(uint64_t &seed, uint64_t v) {")
	p.indent++
	p.line("seed ^= v + 0x9e3779b9 + (seed << 6) + (seed >> 2);")
	p.indent--
	p.line("}")
	return p.out.String()
}

// Write renders the full program surface and writes it under dir (spec.md
// §6.1, §6.4): the caller is expected to have already created dir and to
// discard it on a non-nil error (§7.B), so Write attempts no cleanup of
// partially written files.
func Write(dir string, ctx *symtab.Context, program *stmt.Stmt) error {
	files := map[string]string{
		"init.h":     InitHeader(ctx),
		"init.cpp":   InitSource(ctx),
		"func.cpp":   Func(program),
		"check.cpp":  Check(ctx),
		"driver.cpp": Driver(),
		"hash.cpp":   Hash(),
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return xerrors.Emitf("writing %s: %v", path, err)
		}
	}
	return nil
}
