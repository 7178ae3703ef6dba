package commands

import (
	"math/big"

	"cfuzzgen/internal/ivalue"
	"cfuzzgen/internal/symtab"
)

var twoPow64 = new(big.Int).Lsh(big.NewInt(1), 64)

// asUint64 mirrors a C++ `(uint64_t)(scalar)` cast: v.Big() already carries
// the mathematically correct signed-or-unsigned value for v's type, so
// reducing it mod 2^64 reproduces the same wraparound a narrower signed
// type's conversion to uint64_t would.
func asUint64(v ivalue.Value) uint64 {
	return new(big.Int).Mod(v.Big(), twoPow64).Uint64()
}

// mix is the Go mirror of hash.cpp's `hash(uint64_t &seed, uint64_t v)`
// (internal/emit.Hash): the same 64-bit avalanche used by the emitted
// checksum() function, so a run's recorded checksum (internal/ledger)
// matches what the compiled program would print without ever compiling
// or running it.
func mix(seed, v uint64) uint64 {
	return seed ^ (v + 0x9e3779b9 + (seed << 6) + (seed >> 2))
}

// Checksum computes the value the emitted checksum() would print at
// runtime, folding every extern_mixed and extern_output Scalar's Current
// value (and every Struct member's) through mix() in the same table/
// insertion order internal/emit.Check renders them in.
func Checksum(ctx *symtab.Context) uint64 {
	var seed uint64
	for _, table := range []*symtab.Table{ctx.ExternMixed, ctx.ExternOutput} {
		for _, v := range table.Vars() {
			switch x := v.(type) {
			case *symtab.Scalar:
				seed = mix(seed, asUint64(x.Current))
			case *symtab.Struct:
				for _, m := range x.Members {
					sc := m.(*symtab.Scalar)
					seed = mix(seed, asUint64(sc.Current))
				}
			}
		}
	}
	return seed
}
