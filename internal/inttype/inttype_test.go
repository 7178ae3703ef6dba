package inttype

import "testing"

func TestPoolInternReturnsSharedHandle(t *testing.T) {
	p := NewPool()
	a := p.Intern(Int, false, CVNone)
	b := p.Intern(Int, false, CVNone)
	if a != b {
		t.Fatalf("Intern(Int, false, CVNone) returned distinct handles: %p != %p", a, b)
	}

	c := p.Intern(Int, false, CVConst)
	if a == c {
		t.Fatalf("Intern with a different CV returned the same handle as an unqualified one")
	}
}

func TestPlainIsUnqualified(t *testing.T) {
	p := NewPool()
	ty := p.Plain(ULong)
	if ty.Static || ty.CV != CVNone {
		t.Fatalf("Plain(ULong) = %+v, want Static=false CV=CVNone", ty)
	}
}

func TestDecl(t *testing.T) {
	p := NewPool()
	tests := []struct {
		name string
		ty   *Type
		want string
	}{
		{"plain int", p.Intern(Int, false, CVNone), "int"},
		{"const int", p.Intern(Int, false, CVConst), "const int"},
		{"static unsigned long", p.Intern(ULong, true, CVNone), "static unsigned long"},
		{"const static short", p.Intern(Short, true, CVConst), "const static short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ty.Decl(); got != tt.want {
				t.Errorf("Decl() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignedBounds(t *testing.T) {
	p := NewPool()
	tests := []struct {
		id      ID
		min     int64
		max     int64
		unsMax  uint64
		signed  bool
	}{
		{SChar, -128, 127, 0, true},
		{UChar, 0, 0, 255, false},
		{Int, -2147483648, 2147483647, 0, true},
		{UInt, 0, 0, 4294967295, false},
		{LLong, -9223372036854775808, 9223372036854775807, 0, true},
	}
	for _, tt := range tests {
		ty := p.Plain(tt.id)
		if ty.IsSigned() != tt.signed {
			t.Errorf("%v.IsSigned() = %v, want %v", tt.id, ty.IsSigned(), tt.signed)
		}
		if tt.signed {
			if ty.SignedMin() != tt.min || ty.SignedMax() != tt.max {
				t.Errorf("%v: min/max = %d/%d, want %d/%d", tt.id, ty.SignedMin(), ty.SignedMax(), tt.min, tt.max)
			}
		} else if ty.UnsignedMax() != tt.unsMax {
			t.Errorf("%v.UnsignedMax() = %d, want %d", tt.id, ty.UnsignedMax(), tt.unsMax)
		}
	}
}

func TestInRange(t *testing.T) {
	p := NewPool()
	schar := p.Plain(SChar)
	if !schar.InRange(uint64(0xFF)) { // -1 in 8-bit two's complement
		t.Errorf("InRange(0xFF) for signed char should hold (-1 is representable)")
	}
	uchar := p.Plain(UChar)
	if uchar.InRange(uint64(256)) {
		t.Errorf("InRange(256) for unsigned char should not hold")
	}
}

func TestRankOrdering(t *testing.T) {
	if Rank(Int, true) >= Rank(Long, true) {
		t.Errorf("Rank(Int) should be less than Rank(Long)")
	}
	if Rank(Long, true) != Rank(LLong, true) {
		t.Errorf("with longEqLLong=true, Rank(Long) should equal Rank(LLong)")
	}
	if Rank(Long, false) == Rank(LLong, false) {
		t.Errorf("with longEqLLong=false, Rank(Long) should differ from Rank(LLong)")
	}
}

func TestCanRepresent(t *testing.T) {
	p := NewPool()
	tests := []struct {
		name string
		a, b *Type
		want bool
	}{
		{"same type", p.Plain(Int), p.Plain(Int), true},
		{"wider signed covers narrower signed", p.Plain(Long), p.Plain(Int), true},
		{"narrower signed can't cover wider signed", p.Plain(Int), p.Plain(Long), false},
		{"same-width unsigned into signed fails", p.Plain(Int), p.Plain(UInt), false},
		{"strictly wider signed covers unsigned", p.Plain(Long), p.Plain(UInt), true},
		{"unsigned never covers signed", p.Plain(UInt), p.Plain(Int), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanRepresent(tt.a, tt.b); got != tt.want {
				t.Errorf("CanRepresent(%v, %v) = %v, want %v", tt.a.ID, tt.b.ID, got, tt.want)
			}
		})
	}
}
