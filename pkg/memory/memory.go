// Package memory implements the guest address-space bridge.
//
// Guest virtual addresses are never trusted: every syscall materializes
// guest buffers as host slices through Map.Translate, which enforces region
// bounds, write permission, and (for typed views) natural alignment. The
// address space is split into fixed windows keyed by the upper 32 bits:
//
//   - Program (0x100000000): read-only executable code and rodata
//   - Stack   (0x200000000): read-write stack frames
//   - Heap    (0x300000000): read-write heap memory
//   - Input   (0x400000000): serialized accounts and instruction data
package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Virtual memory region base addresses.
const (
	VaddrProgram = uint64(0x1_0000_0000)
	VaddrStack   = uint64(0x2_0000_0000)
	VaddrHeap    = uint64(0x3_0000_0000)
	VaddrInput   = uint64(0x4_0000_0000)
)

// Memory fault errors. All of them are fatal to the transaction.
var (
	ErrAccessViolation   = errors.New("access violation")
	ErrWriteProtected    = errors.New("write to read-only region")
	ErrUnalignedPointer  = errors.New("unaligned guest pointer")
	ErrOverlappingCopy   = errors.New("overlapping copy")
	ErrHeapExhausted     = errors.New("heap exhausted")
)

// Region is one contiguous window of guest address space backed by a host
// slice.
type Region struct {
	Base     uint64
	Data     []byte
	Writable bool
}

// Map owns the guest memory regions for one VM instance.
type Map struct {
	regions map[uint64]*Region // keyed by Base >> 32

	heapMax uint64 // heap growth cap for the bump allocator
	heapPos uint64 // bump pointer offset into the heap region
}

// Config bounds heap growth for a Map.
type Config struct {
	HeapMax uint64
}

// DefaultHeapMax is the heap growth cap when Config leaves it zero.
const DefaultHeapMax = 256 * 1024

// NewMap builds a memory map from the four standard regions. Input is
// writable: serialized account data lives there and programs mutate it in
// place.
func NewMap(program, stack, heap, input []byte, cfg Config) *Map {
	heapMax := cfg.HeapMax
	if heapMax == 0 {
		heapMax = DefaultHeapMax
	}
	m := &Map{
		regions: make(map[uint64]*Region, 4),
		heapMax: heapMax,
	}
	m.addRegion(&Region{Base: VaddrProgram, Data: program, Writable: false})
	m.addRegion(&Region{Base: VaddrStack, Data: stack, Writable: true})
	m.addRegion(&Region{Base: VaddrHeap, Data: heap, Writable: true})
	m.addRegion(&Region{Base: VaddrInput, Data: input, Writable: true})
	return m
}

func (m *Map) addRegion(r *Region) {
	m.regions[r.Base>>32] = r
}

// Translate converts a guest (addr, size) pair into a host slice covering
// exactly that byte range, or fails with a memory fault. A zero-length range
// is legal whenever the address falls in a known window.
func (m *Map) Translate(addr uint64, size uint64, store bool) ([]byte, error) {
	r, ok := m.regions[addr>>32]
	if !ok {
		return nil, fmt.Errorf("%w: unmapped region at 0x%x", ErrAccessViolation, addr)
	}
	if store && !r.Writable {
		return nil, fmt.Errorf("%w: at 0x%x", ErrWriteProtected, addr)
	}

	lo := addr & 0xFFFF_FFFF
	if size > 0 && lo > ^uint64(0)-size {
		return nil, fmt.Errorf("%w: address overflow at 0x%x (size %d)", ErrAccessViolation, addr, size)
	}
	end := lo + size
	if end > uint64(len(r.Data)) {
		return nil, fmt.Errorf("%w: at 0x%x (size %d, region size %d)", ErrAccessViolation, addr, size, len(r.Data))
	}
	return r.Data[lo:end:end], nil
}

// TranslateAligned is Translate with a natural-alignment requirement for
// typed views.
func (m *Map) TranslateAligned(addr uint64, size uint64, store bool, align uint64) ([]byte, error) {
	if align > 1 && addr%align != 0 {
		return nil, fmt.Errorf("%w: 0x%x is not %d-byte aligned", ErrUnalignedPointer, addr, align)
	}
	return m.Translate(addr, size, store)
}

// Read copies bytes out of guest memory.
func (m *Map) Read(addr uint64, p []byte) error {
	mem, err := m.Translate(addr, uint64(len(p)), false)
	if err != nil {
		return err
	}
	copy(p, mem)
	return nil
}

// Read8 reads a byte from guest memory.
func (m *Map) Read8(addr uint64) (uint8, error) {
	mem, err := m.Translate(addr, 1, false)
	if err != nil {
		return 0, err
	}
	return mem[0], nil
}

// Read16 reads a 16-bit little-endian value from guest memory.
func (m *Map) Read16(addr uint64) (uint16, error) {
	mem, err := m.TranslateAligned(addr, 2, false, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(mem), nil
}

// Read32 reads a 32-bit little-endian value from guest memory.
func (m *Map) Read32(addr uint64) (uint32, error) {
	mem, err := m.TranslateAligned(addr, 4, false, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(mem), nil
}

// Read64 reads a 64-bit little-endian value from guest memory.
func (m *Map) Read64(addr uint64) (uint64, error) {
	mem, err := m.TranslateAligned(addr, 8, false, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(mem), nil
}

// Write copies bytes into guest memory.
func (m *Map) Write(addr uint64, p []byte) error {
	mem, err := m.Translate(addr, uint64(len(p)), true)
	if err != nil {
		return err
	}
	copy(mem, p)
	return nil
}

// Write8 writes a byte to guest memory.
func (m *Map) Write8(addr uint64, x uint8) error {
	mem, err := m.Translate(addr, 1, true)
	if err != nil {
		return err
	}
	mem[0] = x
	return nil
}

// Write32 writes a 32-bit little-endian value to guest memory.
func (m *Map) Write32(addr uint64, x uint32) error {
	mem, err := m.TranslateAligned(addr, 4, true, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(mem, x)
	return nil
}

// Write64 writes a 64-bit little-endian value to guest memory.
func (m *Map) Write64(addr uint64, x uint64) error {
	mem, err := m.TranslateAligned(addr, 8, true, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(mem, x)
	return nil
}

// Allocate bump-allocates size bytes from the heap region and returns the
// guest address, growing the backing slice up to the configured cap. A zero
// return means allocation failure; the guest allocator treats it as null.
func (m *Map) Allocate(size uint64, align uint64) uint64 {
	if size == 0 {
		return 0
	}
	if align > 1 {
		m.heapPos = (m.heapPos + align - 1) &^ (align - 1)
	}
	if m.heapPos > m.heapMax || size > m.heapMax-m.heapPos {
		return 0
	}
	heap := m.regions[VaddrHeap>>32]
	need := m.heapPos + size
	if need > uint64(len(heap.Data)) {
		grown := make([]byte, need)
		copy(grown, heap.Data)
		heap.Data = grown
	}
	addr := VaddrHeap + m.heapPos
	m.heapPos += size
	return addr
}

// HeapSize returns the current heap region size in bytes.
func (m *Map) HeapSize() uint64 {
	return uint64(len(m.regions[VaddrHeap>>32].Data))
}

// IsNonOverlapping reports whether two guest ranges are disjoint. Syscalls
// whose semantics require an exclusive output buffer (memcpy, return-data
// copy-out, signature recovery) reject overlapping source/destination pairs.
func IsNonOverlapping(src uint64, srcLen uint64, dst uint64, dstLen uint64) bool {
	if srcLen == 0 || dstLen == 0 {
		return true
	}
	if src > dst {
		return src-dst >= dstLen
	}
	return dst-src >= srcLen
}
