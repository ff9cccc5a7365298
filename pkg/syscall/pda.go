package syscall

import (
	"errors"

	"github.com/fortiblox/X1-Sealevel/internal/types"
	"github.com/fortiblox/X1-Sealevel/pkg/memory"
	"github.com/fortiblox/X1-Sealevel/pkg/runtime"
)

// readSeeds reads a seed array for address derivation: count (ptr, len)
// pairs at addr, each seed at most the budget's seed length.
func (r *Registry) readSeeds(mem *memory.Map, addr, count uint64) ([][]byte, error) {
	budget := r.ic.Budget()
	if count > budget.MaxSeeds {
		return nil, runtime.ErrMaxSeedLengthExceeded
	}
	return r.readSlices(mem, addr, count, budget.MaxSeedLen, 0)
}

// registerPDA registers the program-derived-address syscalls. Both write
// the derived address to r4; an on-curve derivation is reported through r0.
func (r *Registry) registerPDA() {
	ic := r.ic

	// sol_create_program_address: r1 = seeds, r2 = seed count,
	// r3 = program id, r4 = 32-byte result.
	r.register("sol_create_program_address", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		seeds, err := r.readSeeds(mem, r1, r2)
		if err != nil {
			return 0, err
		}
		programIDRaw, err := mem.Translate(r3, 32, false)
		if err != nil {
			return 0, err
		}
		var programID types.Pubkey
		copy(programID[:], programIDRaw)

		addr, err := runtime.CreateProgramAddress(ic.Meter(), ic.Budget(), seeds, programID)
		if errors.Is(err, runtime.ErrInvalidSeeds) {
			return 1, nil
		}
		if err != nil {
			return 0, err
		}
		if err := mem.Write(r4, addr[:]); err != nil {
			return 0, err
		}
		return 0, nil
	})

	// sol_try_find_program_address: as above, plus the bump byte at r5.
	r.register("sol_try_find_program_address", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		seeds, err := r.readSeeds(mem, r1, r2)
		if err != nil {
			return 0, err
		}
		programIDRaw, err := mem.Translate(r3, 32, false)
		if err != nil {
			return 0, err
		}
		var programID types.Pubkey
		copy(programID[:], programIDRaw)

		addr, bump, err := runtime.FindProgramAddress(ic.Meter(), ic.Budget(), seeds, programID)
		if errors.Is(err, runtime.ErrNoViableBump) {
			return 1, nil
		}
		if err != nil {
			return 0, err
		}
		if err := mem.Write(r4, addr[:]); err != nil {
			return 0, err
		}
		if err := mem.Write8(r5, bump); err != nil {
			return 0, err
		}
		return 0, nil
	})
}
