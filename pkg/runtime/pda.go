package runtime

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/fortiblox/X1-Sealevel/internal/types"
	"github.com/fortiblox/X1-Sealevel/pkg/cu"
)

// pdaMarker is the domain separator appended to every derivation preimage.
const pdaMarker = "ProgramDerivedAddress"

// PDA errors.
var (
	// ErrMaxSeedLengthExceeded is returned when a seed or the seed count
	// exceeds the budget caps.
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrInvalidSeeds is returned by CreateProgramAddress when the derived
	// address lands on the ed25519 curve.
	ErrInvalidSeeds = errors.New("seeds derive an on-curve address")

	// ErrNoViableBump is returned when no bump in 255..0 yields an off-curve
	// address.
	ErrNoViableBump = errors.New("no viable bump seed found")
)

// isOnCurve reports whether b decompresses to a valid ed25519 point.
// Program-derived addresses must not have a private key, so derivation
// rejects on-curve results.
func isOnCurve(b [32]byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}

// validateSeeds enforces the seed count and per-seed length caps.
func validateSeeds(seeds [][]byte, budget *cu.Budget) error {
	if uint64(len(seeds)) > budget.MaxSeeds {
		return fmt.Errorf("%w: %d seeds, max %d", ErrMaxSeedLengthExceeded, len(seeds), budget.MaxSeeds)
	}
	for i, seed := range seeds {
		if uint64(len(seed)) > budget.MaxSeedLen {
			return fmt.Errorf("%w: seed %d is %d bytes, max %d", ErrMaxSeedLengthExceeded, i, len(seed), budget.MaxSeedLen)
		}
	}
	return nil
}

// deriveProgramAddress hashes seeds ++ programID ++ marker without any
// validation. Callers must have charged and validated first.
func deriveProgramAddress(seeds [][]byte, programID types.Pubkey) [32]byte {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// CreateProgramAddress derives the address for the given seeds, failing if
// the result is on-curve. The meter is charged once per call.
func CreateProgramAddress(meter *cu.Meter, budget *cu.Budget, seeds [][]byte, programID types.Pubkey) (types.Pubkey, error) {
	if err := meter.Consume(budget.CreateProgramAddress); err != nil {
		return types.Pubkey{}, err
	}
	if err := validateSeeds(seeds, budget); err != nil {
		return types.Pubkey{}, err
	}
	addr := deriveProgramAddress(seeds, programID)
	if isOnCurve(addr) {
		return types.Pubkey{}, ErrInvalidSeeds
	}
	return types.Pubkey(addr), nil
}

// FindProgramAddress searches bump seeds from 255 down to 0 for the first
// off-curve derivation, returning the address and the bump. Each attempt
// charges the meter, so an adversarial search exhausts the budget rather
// than the host.
func FindProgramAddress(meter *cu.Meter, budget *cu.Budget, seeds [][]byte, programID types.Pubkey) (types.Pubkey, uint8, error) {
	if uint64(len(seeds))+1 > budget.MaxSeeds {
		return types.Pubkey{}, 0, fmt.Errorf("%w: %d seeds plus bump, max %d", ErrMaxSeedLengthExceeded, len(seeds), budget.MaxSeeds)
	}
	bumpSeed := []byte{0}
	trial := make([][]byte, len(seeds)+1)
	copy(trial, seeds)
	trial[len(seeds)] = bumpSeed

	for bump := 255; bump >= 0; bump-- {
		bumpSeed[0] = uint8(bump)
		addr, err := CreateProgramAddress(meter, budget, trial, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return types.Pubkey{}, 0, err
		}
	}
	return types.Pubkey{}, 0, ErrNoViableBump
}
