package syscall

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fortiblox/X1-Sealevel/pkg/features"
	"github.com/fortiblox/X1-Sealevel/pkg/memory"
)

// secp256k1_recover result codes returned in r0. A malformed signature is a
// semantic result the program inspects, not a fault.
const (
	secpRecoverOK                = 0
	secpRecoverInvalidHash       = 1
	secpRecoverInvalidRecoveryID = 2
	secpRecoverInvalidSignature  = 3
)

// registerSecp256k1 registers sol_secp256k1_recover:
// r1 = 32-byte message hash, r2 = recovery id, r3 = 64-byte signature,
// r4 = 64-byte output for the uncompressed public key without its prefix.
func (r *Registry) registerSecp256k1() {
	ic := r.ic
	budget := ic.Budget()

	r.registerGated(features.Secp256k1RecoverSyscall, "sol_secp256k1_recover", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		if err := ic.Meter().Consume(budget.Secp256k1Recover); err != nil {
			return 0, err
		}
		msgHash, err := mem.Translate(r1, 32, false)
		if err != nil {
			return 0, err
		}
		sig, err := mem.Translate(r3, 64, false)
		if err != nil {
			return 0, err
		}
		// The recovered key is written after the inputs are read, so the
		// output buffer must not alias either of them.
		if !memory.IsNonOverlapping(r1, 32, r4, 64) || !memory.IsNonOverlapping(r3, 64, r4, 64) {
			return 0, fmt.Errorf("%w: recover output aliases an input", memory.ErrOverlappingCopy)
		}
		out, err := mem.Translate(r4, 64, true)
		if err != nil {
			return 0, err
		}

		if r2 > 3 {
			return secpRecoverInvalidRecoveryID, nil
		}

		// go-ethereum expects [R || S || V] with V in the last byte.
		var packed [65]byte
		copy(packed[:64], sig)
		packed[64] = byte(r2)

		pubkey, err := crypto.Ecrecover(msgHash, packed[:])
		if err != nil {
			return secpRecoverInvalidSignature, nil
		}
		// Strip the 0x04 uncompressed-point prefix.
		copy(out, pubkey[1:])
		return secpRecoverOK, nil
	})
}
