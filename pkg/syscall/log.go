package syscall

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fortiblox/X1-Sealevel/internal/types"
	"github.com/fortiblox/X1-Sealevel/pkg/features"
	"github.com/fortiblox/X1-Sealevel/pkg/memory"
)

// ErrAborted is returned when a program calls abort or panics.
var ErrAborted = errors.New("program aborted")

// registerLogging registers the diagnostics syscalls.
func (r *Registry) registerLogging() {
	ic := r.ic
	budget := ic.Budget()

	// sol_log_ logs a UTF-8 message of r2 bytes at r1.
	r.register("sol_log_", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		if r2 > budget.MaxLogDataLen {
			return 0, fmt.Errorf("%w: log message %d bytes, max %d", ErrInvalidLength, r2, budget.MaxLogDataLen)
		}
		cost := budget.LogBase
		if c := budget.LogPerByte * r2; c > cost {
			cost = c
		}
		if err := ic.Meter().Consume(cost); err != nil {
			return 0, err
		}
		msg, err := mem.Translate(r1, r2, false)
		if err != nil {
			return 0, err
		}
		ic.Logs().Log("Program log: " + string(msg))
		return 0, nil
	})

	// sol_log_64_ logs five integers in hex.
	r.register("sol_log_64_", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		if err := ic.Meter().Consume(budget.Log64Units); err != nil {
			return 0, err
		}
		ic.Logs().Log(fmt.Sprintf("Program log: 0x%x, 0x%x, 0x%x, 0x%x, 0x%x", r1, r2, r3, r4, r5))
		return 0, nil
	})

	// sol_log_pubkey logs the base58 form of the 32 bytes at r1.
	r.register("sol_log_pubkey", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		if err := ic.Meter().Consume(budget.LogPubkey); err != nil {
			return 0, err
		}
		raw, err := mem.Translate(r1, 32, false)
		if err != nil {
			return 0, err
		}
		var pk types.Pubkey
		copy(pk[:], raw)
		ic.Logs().Log("Program log: " + pk.String())
		return 0, nil
	})

	// sol_log_compute_units_ logs the remaining budget.
	r.register("sol_log_compute_units_", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		if err := ic.Meter().Consume(budget.SyscallBase); err != nil {
			return 0, err
		}
		ic.Logs().Log(fmt.Sprintf("Program consumption: %d units remaining", ic.Meter().Remaining()))
		return 0, nil
	})

	// sol_log_data logs r2 guest slices described at r1 as hex fields.
	r.register("sol_log_data", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		if r2 == 0 || r2 > budget.MaxHashSlices {
			return 0, fmt.Errorf("%w: %d slices", ErrInvalidArgument, r2)
		}
		if err := ic.Meter().Consume(budget.LogBase); err != nil {
			return 0, err
		}
		slices, err := r.readSlices(mem, r1, r2, budget.MaxLogDataLen, budget.LogPerByte)
		if err != nil {
			return 0, err
		}
		line := "Program data:"
		for _, s := range slices {
			line += " " + hex.EncodeToString(s)
		}
		ic.Logs().Log(line)
		return 0, nil
	})

	// abort terminates the program immediately.
	r.register("abort", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		return 0, ErrAborted
	})

	// sol_panic_ terminates with the source location at (r1, r2), line r3,
	// column r4.
	r.register("sol_panic_", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		fileLen := r2
		if fileLen > 256 {
			fileLen = 256
		}
		file, err := mem.Translate(r1, fileLen, false)
		if err != nil {
			return 0, fmt.Errorf("%w: panicked", ErrAborted)
		}
		return 0, fmt.Errorf("%w: panicked at %s:%d:%d", ErrAborted, file, r3, r4)
	})
}

// registerMisc registers the remaining introspection syscalls.
func (r *Registry) registerMisc() {
	ic := r.ic
	budget := ic.Budget()

	// sol_get_stack_height returns the CPI depth of the running frame.
	r.register("sol_get_stack_height", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		if err := ic.Meter().Consume(budget.SyscallBase); err != nil {
			return 0, err
		}
		return uint64(ic.StackHeight()), nil
	})

	// sol_remaining_compute_units returns the units left on the meter.
	r.registerGated(features.RemainingComputeUnitsSyscall, "sol_remaining_compute_units",
		func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
			if err := ic.Meter().Consume(budget.SyscallBase); err != nil {
				return 0, err
			}
			return ic.Meter().Remaining(), nil
		})
}
