package ivalue

import (
	"testing"

	"cfuzzgen/internal/inttype"
)

func pool() *inttype.Pool { return inttype.NewPool() }

func TestEvalBinaryAddOverflow(t *testing.T) {
	p := pool()
	sc := p.Plain(inttype.SChar)
	boolT := p.Plain(inttype.Bool)

	tests := []struct {
		name    string
		l, r    int64
		wantUB  UBTag
		wantRaw int64
	}{
		{"within range", 100, 20, NoUB, 120},
		{"overflow at max", 127, 1, SignOvf, 0},
		{"no overflow at min", -128, 0, NoUB, -128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := FromSigned(sc, tt.l)
			r := FromSigned(sc, tt.r)
			got := EvalBinary(Add, l, r, boolT)
			if got.UB != tt.wantUB {
				t.Fatalf("UB = %v, want %v", got.UB, tt.wantUB)
			}
			if tt.wantUB == NoUB && got.Big().Int64() != tt.wantRaw {
				t.Errorf("value = %d, want %d", got.Big().Int64(), tt.wantRaw)
			}
		})
	}
}

func TestEvalBinaryDivByZero(t *testing.T) {
	p := pool()
	i := p.Plain(inttype.Int)
	boolT := p.Plain(inttype.Bool)

	l := FromSigned(i, 10)
	r := FromSigned(i, 0)
	got := EvalBinary(Div, l, r, boolT)
	if got.UB != ZeroDiv {
		t.Fatalf("Div by zero UB = %v, want ZeroDiv", got.UB)
	}
}

func TestEvalBinaryMinDivNegOne(t *testing.T) {
	p := pool()
	i := p.Plain(inttype.Int)
	boolT := p.Plain(inttype.Bool)

	l := FromSigned(i, i.SignedMin())
	r := FromSigned(i, -1)
	got := EvalBinary(Div, l, r, boolT)
	if got.UB != SignOvf {
		t.Fatalf("INT_MIN / -1 UB = %v, want SignOvf", got.UB)
	}
}

func TestEvalShlShiftTooFar(t *testing.T) {
	p := pool()
	i := p.Plain(inttype.Int)

	l := FromSigned(i, 1)
	r := FromSigned(i, 32) // == bitwidth(int)
	got := EvalBinary(Shl, l, r, p.Plain(inttype.Bool))
	if got.UB != ShiftRhsLarge {
		t.Fatalf("Shl by bitwidth UB = %v, want ShiftRhsLarge", got.UB)
	}
}

func TestEvalShlNegativeLHS(t *testing.T) {
	p := pool()
	i := p.Plain(inttype.Int)

	l := FromSigned(i, -1)
	r := FromSigned(i, 1)
	got := EvalBinary(Shl, l, r, p.Plain(inttype.Bool))
	if got.UB != NegShift {
		t.Fatalf("Shl of a negative signed value UB = %v, want NegShift", got.UB)
	}
}

func TestEvalShrNegativeRHS(t *testing.T) {
	p := pool()
	i := p.Plain(inttype.Int)

	l := FromSigned(i, 8)
	r := FromSigned(i, -1)
	got := EvalBinary(Shr, l, r, p.Plain(inttype.Bool))
	if got.UB != ShiftRhsNeg {
		t.Fatalf("Shr by a negative count UB = %v, want ShiftRhsNeg", got.UB)
	}
}

func TestCastTruncates(t *testing.T) {
	p := pool()
	i := p.Plain(inttype.Int)
	uc := p.Plain(inttype.UChar)

	v := FromSigned(i, 300) // 0x12C
	got := Cast(v, uc)
	if got.Raw != 0x2C {
		t.Errorf("Cast(300, UChar).Raw = %#x, want 0x2c", got.Raw)
	}
}

func TestToBool(t *testing.T) {
	p := pool()
	i := p.Plain(inttype.Int)
	boolT := p.Plain(inttype.Bool)

	if got := ToBool(FromSigned(i, 0), boolT); got.Raw != 0 {
		t.Errorf("ToBool(0).Raw = %d, want 0", got.Raw)
	}
	if got := ToBool(FromSigned(i, -5), boolT); got.Raw != 1 {
		t.Errorf("ToBool(-5).Raw = %d, want 1", got.Raw)
	}
}

func TestEvalUnaryNegateOverflow(t *testing.T) {
	p := pool()
	i := p.Plain(inttype.Int)

	v := FromSigned(i, i.SignedMin())
	got := EvalUnary(Negate, v)
	if got.UB != SignOvf {
		t.Fatalf("Negate(INT_MIN) UB = %v, want SignOvf", got.UB)
	}
}

func TestEvalUnaryPropagatesUB(t *testing.T) {
	p := pool()
	i := p.Plain(inttype.Int)
	u := Undef(i, ZeroDiv)
	got := EvalUnary(Negate, u)
	if got.UB != ZeroDiv {
		t.Fatalf("EvalUnary on an already-UB value should propagate its tag, got %v", got.UB)
	}
}

func TestBigRoundTripSigned(t *testing.T) {
	p := pool()
	sc := p.Plain(inttype.SChar)
	v := FromSigned(sc, -1)
	if v.Big().Int64() != -1 {
		t.Errorf("Big() for signed char -1 = %d, want -1", v.Big().Int64())
	}
}
