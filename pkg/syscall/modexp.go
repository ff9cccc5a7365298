package syscall

import (
	"fmt"
	"math/big"

	"github.com/fortiblox/X1-Sealevel/pkg/features"
	"github.com/fortiblox/X1-Sealevel/pkg/memory"
)

// registerBigModExp registers sol_big_mod_exp: r1 points to a parameter
// block of three (ptr, len) pairs for base, exponent, and modulus; the
// result is written big-endian, left-padded to the modulus length, at r2.
func (r *Registry) registerBigModExp() {
	ic := r.ic
	budget := ic.Budget()

	r.registerGated(features.BigModExpSyscall, "sol_big_mod_exp",
		func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
			var ptrs, lens [3]uint64
			var err error
			for i := uint64(0); i < 3; i++ {
				if ptrs[i], err = mem.Read64(r1 + i*16); err != nil {
					return 0, err
				}
				if lens[i], err = mem.Read64(r1 + i*16 + 8); err != nil {
					return 0, err
				}
				if lens[i] > budget.MaxModExpLen {
					return 0, fmt.Errorf("%w: operand %d is %d bytes, max %d", ErrInvalidLength, i, lens[i], budget.MaxModExpLen)
				}
			}

			cost := budget.ModExpBase + budget.ModExpPerByte*(lens[0]+lens[1]+lens[2])
			if err := ic.Meter().Consume(cost); err != nil {
				return 0, err
			}

			var operands [3][]byte
			for i := uint64(0); i < 3; i++ {
				operands[i], err = mem.Translate(ptrs[i], lens[i], false)
				if err != nil {
					return 0, err
				}
			}
			out, err := mem.Translate(r2, lens[2], true)
			if err != nil {
				return 0, err
			}

			modulus := new(big.Int).SetBytes(operands[2])
			for i := range out {
				out[i] = 0
			}
			// A zero modulus yields an all-zero result rather than a fault,
			// mirroring the EVM modexp convention.
			if modulus.Sign() == 0 {
				return 0, nil
			}
			base := new(big.Int).SetBytes(operands[0])
			exponent := new(big.Int).SetBytes(operands[1])
			result := new(big.Int).Exp(base, exponent, modulus)
			result.FillBytes(out)
			return 0, nil
		})
}
