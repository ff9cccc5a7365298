// Package syscall implements the host call surface exposed to sBPF programs.
//
// Syscalls are identified by the murmur3 hash of their name. Arguments
// arrive in registers r1-r5 and the result is returned in r0. A handler
// either completes fully or fails the transaction: the only "errors" that
// travel through r0 are semantic results such as an invalid signature or an
// on-curve derivation, which well-formed callers handle as data.
package syscall

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fortiblox/X1-Sealevel/pkg/features"
	"github.com/fortiblox/X1-Sealevel/pkg/memory"
	"github.com/fortiblox/X1-Sealevel/pkg/runtime"
)

// Syscall errors.
var (
	ErrUnknownSyscall  = errors.New("unknown syscall")
	ErrInvalidArgument = errors.New("invalid syscall argument")
	ErrInvalidLength   = errors.New("invalid length")
)

// Handler executes one syscall against guest memory.
type Handler func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error)

// Descriptor is one registered syscall. Gate is nil for syscalls that are
// always available.
type Descriptor struct {
	Name string
	Hash uint32
	Gate *features.Gate
	Fn   Handler
}

// Registry maps syscall hashes to handlers for one protocol snapshot.
// It is rebuilt whenever the feature set changes: a gated syscall that is
// not active simply does not exist.
type Registry struct {
	ic     *runtime.InvokeContext
	byHash map[uint32]*Descriptor
}

// NewRegistry builds the syscall table for the context's feature snapshot.
func NewRegistry(ic *runtime.InvokeContext) *Registry {
	r := &Registry{
		ic:     ic,
		byHash: make(map[uint32]*Descriptor, 64),
	}
	r.registerLogging()
	r.registerMemory()
	r.registerHashing()
	r.registerSecp256k1()
	r.registerCurve25519()
	r.registerAltBn128()
	r.registerBigModExp()
	r.registerPoseidon()
	r.registerSysvars()
	r.registerPDA()
	r.registerCPI()
	r.registerMisc()
	return r
}

// register adds a syscall under the murmur3 hash of its name. A hash
// collision is a builder bug, not runtime input, so it panics.
func (r *Registry) register(name string, fn Handler) {
	hash := murmur3Hash(name)
	if prev, ok := r.byHash[hash]; ok {
		panic(fmt.Sprintf("syscall hash collision: %s and %s both map to 0x%08x", prev.Name, name, hash))
	}
	r.byHash[hash] = &Descriptor{Name: name, Hash: hash, Fn: fn}
}

// registerGated adds a syscall only when its feature gate is active.
func (r *Registry) registerGated(gate features.Gate, name string, fn Handler) {
	if !r.ic.Features().IsActive(gate) {
		return
	}
	r.register(name, fn)
	r.byHash[murmur3Hash(name)].Gate = &gate
}

// Descriptors returns every registered syscall sorted by name.
func (r *Registry) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.byHash))
	for _, d := range r.byHash {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the descriptor for a hash.
func (r *Registry) Lookup(hash uint32) (*Descriptor, bool) {
	d, ok := r.byHash[hash]
	return d, ok
}

// LookupName returns the descriptor for a syscall name.
func (r *Registry) LookupName(name string) (*Descriptor, bool) {
	return r.Lookup(murmur3Hash(name))
}

// Dispatch runs the syscall registered under hash.
func (r *Registry) Dispatch(mem *memory.Map, hash uint32, r1, r2, r3, r4, r5 uint64) (uint64, error) {
	d, ok := r.byHash[hash]
	if !ok {
		return 0, fmt.Errorf("%w: hash 0x%08x", ErrUnknownSyscall, hash)
	}
	return d.Fn(mem, r1, r2, r3, r4, r5)
}

// Hash returns the murmur3 hash used to identify a syscall name.
func Hash(name string) uint32 {
	return murmur3Hash(name)
}

// murmur3Hash computes the 32-bit murmur3 hash of a syscall name with a
// zero seed, matching the relocation hashes emitted by program loaders.
func murmur3Hash(name string) uint32 {
	const (
		c1 = 0xcc9e2d51
		c2 = 0x1b873593
	)

	data := []byte(name)
	h1 := uint32(0)
	length := len(data)

	nblocks := length / 4
	for i := 0; i < nblocks; i++ {
		k1 := uint32(data[i*4]) |
			uint32(data[i*4+1])<<8 |
			uint32(data[i*4+2])<<16 |
			uint32(data[i*4+3])<<24

		k1 *= c1
		k1 = (k1 << 15) | (k1 >> 17)
		k1 *= c2

		h1 ^= k1
		h1 = (h1 << 13) | (h1 >> 19)
		h1 = h1*5 + 0xe6546b64
	}

	tail := data[nblocks*4:]
	var k1 uint32
	switch len(tail) {
	case 3:
		k1 ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k1 ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k1 ^= uint32(tail[0])
		k1 *= c1
		k1 = (k1 << 15) | (k1 >> 17)
		k1 *= c2
		h1 ^= k1
	}

	h1 ^= uint32(length)
	h1 ^= h1 >> 16
	h1 *= 0x85ebca6b
	h1 ^= h1 >> 13
	h1 *= 0xc2b2ae35
	h1 ^= h1 >> 16

	return h1
}

// readSlices reads an array of count (ptr, len) pairs from guest memory and
// materializes each slice, charging perByte for every byte read. maxLen
// bounds each slice individually.
func (r *Registry) readSlices(mem *memory.Map, addr, count, maxLen, perByte uint64) ([][]byte, error) {
	out := make([][]byte, count)
	for i := uint64(0); i < count; i++ {
		ptr, err := mem.Read64(addr + i*16)
		if err != nil {
			return nil, err
		}
		length, err := mem.Read64(addr + i*16 + 8)
		if err != nil {
			return nil, err
		}
		if length > maxLen {
			return nil, fmt.Errorf("%w: slice %d is %d bytes, max %d", ErrInvalidLength, i, length, maxLen)
		}
		if perByte > 0 {
			if err := r.ic.Meter().Consume(perByte * length); err != nil {
				return nil, err
			}
		}
		slice, err := mem.Translate(ptr, length, false)
		if err != nil {
			return nil, err
		}
		out[i] = slice
	}
	return out, nil
}
