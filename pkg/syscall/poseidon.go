package syscall

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"

	"github.com/fortiblox/X1-Sealevel/pkg/features"
	"github.com/fortiblox/X1-Sealevel/pkg/memory"
)

// Endianness selectors for sol_poseidon input and output.
const (
	poseidonBigEndian    = 0
	poseidonLittleEndian = 1
)

// Poseidon permutation rounds for the BN254 scalar field.
const (
	poseidonFullRounds    = 8
	poseidonPartialRounds = 56
)

// registerPoseidon registers sol_poseidon:
// r1 = parameter set (0 = BN254 scalar field), r2 = endianness,
// r3 = input slice array, r4 = input count, r5 = 32-byte result address.
// A non-canonical field element is a semantic failure returned in r0.
func (r *Registry) registerPoseidon() {
	ic := r.ic
	budget := ic.Budget()

	r.registerGated(features.PoseidonSyscall, "sol_poseidon",
		func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
			if r1 != 0 {
				return 0, fmt.Errorf("%w: poseidon parameter set %d", ErrInvalidArgument, r1)
			}
			if r2 != poseidonBigEndian && r2 != poseidonLittleEndian {
				return 0, fmt.Errorf("%w: endianness %d", ErrInvalidArgument, r2)
			}
			count := r4
			if count == 0 || count > budget.MaxPoseidonWidth {
				return 0, fmt.Errorf("%w: %d inputs, max %d", ErrInvalidArgument, count, budget.MaxPoseidonWidth)
			}
			cost := budget.PoseidonBase + budget.PoseidonPerInput*count
			if err := ic.Meter().Consume(cost); err != nil {
				return 0, err
			}
			slices, err := r.readSlices(mem, r3, count, 32, 0)
			if err != nil {
				return 0, err
			}
			out, err := mem.Translate(r5, 32, true)
			if err != nil {
				return 0, err
			}

			// Sponge state: one capacity element plus the inputs.
			state := make([]fr.Element, count+1)
			for i, s := range slices {
				if uint64(len(s)) != 32 {
					return 0, fmt.Errorf("%w: input %d is %d bytes", ErrInvalidLength, i, len(s))
				}
				var buf [32]byte
				copy(buf[:], s)
				if r2 == poseidonLittleEndian {
					reverse32(&buf)
				}
				if err := state[i+1].SetBytesCanonical(buf[:]); err != nil {
					return curveError, nil
				}
			}

			perm := poseidon2.NewPermutation(len(state), poseidonFullRounds, poseidonPartialRounds)
			if err := perm.Permutation(state); err != nil {
				return curveError, nil
			}
			digest := state[0].Bytes()
			if r2 == poseidonLittleEndian {
				reverse32(&digest)
			}
			copy(out, digest[:])
			return curveOK, nil
		})
}

func reverse32(b *[32]byte) {
	for i := 0; i < 16; i++ {
		b[i], b[31-i] = b[31-i], b[i]
	}
}
