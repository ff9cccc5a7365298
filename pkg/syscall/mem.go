package syscall

import (
	"bytes"
	"fmt"

	"github.com/fortiblox/X1-Sealevel/pkg/features"
	"github.com/fortiblox/X1-Sealevel/pkg/memory"
)

// chargeMemOp charges the linear memory-operation cost for n bytes, guarding
// the multiplication against overflow.
func (r *Registry) chargeMemOp(n uint64) error {
	budget := r.ic.Budget()
	if n > budget.MaxMemOpSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrInvalidLength, n, budget.MaxMemOpSize)
	}
	cost := budget.MemOpBase
	if budget.MemOpPerByte > 0 && n > 0 {
		cost += budget.MemOpPerByte * n
	}
	return r.ic.Meter().Consume(cost)
}

// registerMemory registers the guest memory-operation syscalls.
func (r *Registry) registerMemory() {
	budget := r.ic.Budget()

	// sol_memcpy_ copies r3 bytes from r2 to r1. The ranges must not
	// overlap; a program that needs overlap uses memmove.
	r.register("sol_memcpy_", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		dst, src, n := r1, r2, r3
		if err := r.chargeMemOp(n); err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, nil
		}
		if !memory.IsNonOverlapping(src, n, dst, n) {
			return 0, fmt.Errorf("%w: memcpy 0x%x..0x%x overlaps 0x%x", memory.ErrOverlappingCopy, src, src+n, dst)
		}
		srcMem, err := mem.Translate(src, n, false)
		if err != nil {
			return 0, err
		}
		dstMem, err := mem.Translate(dst, n, true)
		if err != nil {
			return 0, err
		}
		copy(dstMem, srcMem)
		return 0, nil
	})

	// sol_memmove_ is memcpy with overlap allowed.
	r.register("sol_memmove_", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		dst, src, n := r1, r2, r3
		if err := r.chargeMemOp(n); err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, nil
		}
		srcMem, err := mem.Translate(src, n, false)
		if err != nil {
			return 0, err
		}
		dstMem, err := mem.Translate(dst, n, true)
		if err != nil {
			return 0, err
		}
		copy(dstMem, srcMem) // copy handles overlapping slices
		return 0, nil
	})

	// sol_memset_ fills r3 bytes at r1 with the byte r2.
	r.register("sol_memset_", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		dst, val, n := r1, uint8(r2), r3
		if err := r.chargeMemOp(n); err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, nil
		}
		dstMem, err := mem.Translate(dst, n, true)
		if err != nil {
			return 0, err
		}
		for i := range dstMem {
			dstMem[i] = val
		}
		return 0, nil
	})

	// sol_memcmp_ compares r3 bytes at r1 and r2 and writes the signed
	// result to r4.
	r.register("sol_memcmp_", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		addr1, addr2, n, resultAddr := r1, r2, r3, r4
		if err := r.chargeMemOp(n); err != nil {
			return 0, err
		}
		var result int32
		if n > 0 {
			m1, err := mem.Translate(addr1, n, false)
			if err != nil {
				return 0, err
			}
			m2, err := mem.Translate(addr2, n, false)
			if err != nil {
				return 0, err
			}
			if i := firstDiff(m1, m2); i >= 0 {
				result = int32(m1[i]) - int32(m2[i])
			}
		}
		if err := mem.Write32(resultAddr, uint32(result)); err != nil {
			return 0, err
		}
		return 0, nil
	})

	// sol_alloc_free_ is the guest bump allocator: r1 is the size, r2 is
	// the address to free. Free is a no-op; failure returns null. Once the
	// disable gate is active, newly deployed programs no longer link it,
	// and it drops out of the table.
	if r.ic.Features().IsActive(features.DisableDeployOfAllocFree) {
		return
	}
	r.register("sol_alloc_free_", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		if err := r.ic.Meter().Consume(budget.SyscallBase); err != nil {
			return 0, err
		}
		if r2 != 0 {
			return 0, nil
		}
		return mem.Allocate(r1, 8), nil
	})
}

// firstDiff returns the index of the first differing byte, or -1.
func firstDiff(a, b []byte) int {
	if bytes.Equal(a, b) {
		return -1
	}
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}
