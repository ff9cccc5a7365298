package syscall

import (
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"

	"github.com/fortiblox/X1-Sealevel/pkg/memory"
)

// hashSyscall builds one multi-slice hashing handler: r1 points to r2
// (ptr, len) pairs and the 32-byte digest is written to r3. The base cost is
// charged up front, the per-byte cost as each slice is materialized.
func (r *Registry) hashSyscall(newHash func() hash.Hash) Handler {
	ic := r.ic
	budget := ic.Budget()
	return func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		if r2 > budget.MaxHashSlices {
			return 0, fmt.Errorf("%w: %d slices, max %d", ErrInvalidArgument, r2, budget.MaxHashSlices)
		}
		if err := ic.Meter().Consume(budget.HashBase); err != nil {
			return 0, err
		}
		slices, err := r.readSlices(mem, r1, r2, budget.MaxMemOpSize, budget.HashPerByte)
		if err != nil {
			return 0, err
		}
		h := newHash()
		for _, s := range slices {
			h.Write(s)
		}
		if err := mem.Write(r3, h.Sum(nil)); err != nil {
			return 0, err
		}
		return 0, nil
	}
}

// registerHashing registers the multi-slice digest syscalls.
func (r *Registry) registerHashing() {
	r.register("sol_sha256", r.hashSyscall(sha256.New))
	r.register("sol_keccak256", r.hashSyscall(sha3.NewLegacyKeccak256))
	r.register("sol_blake3", r.hashSyscall(func() hash.Hash { return blake3.New() }))
}
