package syscall

import (
	"fmt"

	"github.com/fortiblox/X1-Sealevel/internal/types"
	"github.com/fortiblox/X1-Sealevel/pkg/features"
	"github.com/fortiblox/X1-Sealevel/pkg/memory"
	"github.com/fortiblox/X1-Sealevel/pkg/sysvar"
)

// sysvarCopyOut builds a handler that serializes one sysvar into the guest
// buffer at r1. The charge covers the base cost plus the serialized size.
func (r *Registry) sysvarCopyOut(serialize func(*sysvar.Cache) []byte) Handler {
	ic := r.ic
	budget := ic.Budget()
	return func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		data := serialize(ic.Sysvars())
		if err := ic.Meter().Consume(budget.SyscallBase + uint64(len(data))); err != nil {
			return 0, err
		}
		if err := mem.Write(r1, data); err != nil {
			return 0, err
		}
		return 0, nil
	}
}

// registerSysvars registers the sysvar copy-out syscalls and the generic
// windowed reader.
func (r *Registry) registerSysvars() {
	ic := r.ic
	budget := ic.Budget()

	r.register("sol_get_clock_sysvar", r.sysvarCopyOut(func(c *sysvar.Cache) []byte {
		return c.Clock.Serialize()
	}))
	r.register("sol_get_rent_sysvar", r.sysvarCopyOut(func(c *sysvar.Cache) []byte {
		return c.Rent.Serialize()
	}))
	r.register("sol_get_epoch_schedule_sysvar", r.sysvarCopyOut(func(c *sysvar.Cache) []byte {
		return c.EpochSchedule.Serialize()
	}))
	r.registerGated(features.EpochRewardsSysvar, "sol_get_epoch_rewards_sysvar",
		r.sysvarCopyOut(func(c *sysvar.Cache) []byte {
			return c.EpochRewards.Serialize()
		}))
	r.registerGated(features.LastRestartSlotSysvar, "sol_get_last_restart_slot",
		r.sysvarCopyOut(func(c *sysvar.Cache) []byte {
			return c.LastRestartSlot.Serialize()
		}))
	if !ic.Features().IsActive(features.DisableFeesSysvar) {
		r.register("sol_get_fees_sysvar", r.sysvarCopyOut(func(c *sysvar.Cache) []byte {
			return c.Fees.Serialize()
		}))
	}

	// sol_get_sysvar reads length bytes at offset from the sysvar whose id
	// is at r1 into r2. Unknown ids and out-of-range windows fail loudly.
	r.register("sol_get_sysvar", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		offset, length := r3, r4
		if err := ic.Meter().Consume(budget.SyscallBase + length); err != nil {
			return 0, err
		}
		idRaw, err := mem.Translate(r1, 32, false)
		if err != nil {
			return 0, err
		}
		var id types.Pubkey
		copy(id[:], idRaw)

		data, err := ic.Sysvars().Get(id)
		if err != nil {
			return 0, err
		}
		if offset > uint64(len(data)) || length > uint64(len(data))-offset {
			return 0, fmt.Errorf("%w: window [%d, %d) of %d-byte sysvar %s",
				ErrInvalidLength, offset, offset+length, len(data), id)
		}
		if err := mem.Write(r2, data[offset:offset+length]); err != nil {
			return 0, err
		}
		return 0, nil
	})
}
