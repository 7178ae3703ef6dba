// Package xerrors is the generator's single error type.
//
// spec.md §7 draws a hard line between two error populations: UB found
// while evaluating a generated expression (never surfaces — internal/rewrite
// handles it) and generator invariant violations (fatal, reported with the
// operator name and the component that found the contradiction). This
// package models only the second population.
package xerrors

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a GenError.
type Kind string

const (
	// Invariant is a programmer-error contradiction in type/value propagation
	// (§5, §7.B): an Assign whose target isn't an lvalue, an arithmetic
	// operator applied to a Struct, an unknown integer-type id, a read of an
	// unwritten Scalar. Always fatal.
	Invariant Kind = "Invariant"
	// Policy marks a malformed or out-of-range policy configuration.
	Policy Kind = "Policy"
	// Emit marks a failure writing the emitted source tree to disk.
	Emit Kind = "Emit"
)

// GenError is returned by every fallible call in C1–C7 and by the CLI
// driver's own I/O. The zero value is not meaningful; use Fatalf/Policyf/Emitf.
type GenError struct {
	Kind      Kind
	Message   string
	Component string // e.g. "expr", "stmt", "rewrite"
	Operator  string // e.g. "Div", "Assign" — empty when not operator-specific
	Context   map[string]string
}

func (e *GenError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Component != "" {
		fmt.Fprintf(&sb, " (component=%s", e.Component)
		if e.Operator != "" {
			fmt.Fprintf(&sb, " op=%s", e.Operator)
		}
		sb.WriteString(")")
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%s", k, e.Context[k])
	}
	return sb.String()
}

// Fatalf builds an Invariant GenError — the sole mechanism C1–C6 use to
// report a generator-invariant violation.
func Fatalf(component, operator, format string, args ...any) *GenError {
	return &GenError{
		Kind:      Invariant,
		Message:   fmt.Sprintf(format, args...),
		Component: component,
		Operator:  operator,
	}
}

// Policyf builds a Policy GenError for a malformed configuration.
func Policyf(format string, args ...any) *GenError {
	return &GenError{Kind: Policy, Message: fmt.Sprintf(format, args...)}
}

// Emitf builds an Emit GenError for an output-writing failure.
func Emitf(format string, args ...any) *GenError {
	return &GenError{Kind: Emit, Message: fmt.Sprintf(format, args...)}
}

// WithContext attaches a key/value pair of diagnostic context, mirroring the
// teacher's builder-style WithSource/WithStack methods.
func (e *GenError) WithContext(key, value string) *GenError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}
