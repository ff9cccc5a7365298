package syscall

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/fortiblox/X1-Sealevel/pkg/memory"
)

func TestMemcpy(t *testing.T) {
	vm := newTestVM(t)
	src := vm.poke(t, 0, []byte("hello, world"))

	if _, err := vm.call(t, "sol_memcpy_", in(100), src, 12, 0, 0); err != nil {
		t.Fatalf("memcpy failed: %v", err)
	}
	if got := vm.peek(t, 100, 12); string(got) != "hello, world" {
		t.Errorf("dst = %q, want %q", got, "hello, world")
	}
}

func TestMemcpyRejectsOverlap(t *testing.T) {
	vm := newTestVM(t)
	vm.poke(t, 0, bytes.Repeat([]byte{7}, 32))

	if _, err := vm.call(t, "sol_memcpy_", in(8), in(0), 16, 0, 0); !errors.Is(err, memory.ErrOverlappingCopy) {
		t.Errorf("overlapping memcpy = %v, want ErrOverlappingCopy", err)
	}
	// memmove accepts the same ranges.
	if _, err := vm.call(t, "sol_memmove_", in(8), in(0), 16, 0, 0); err != nil {
		t.Errorf("overlapping memmove failed: %v", err)
	}
}

func TestMemcpyIntoReadOnlyRegionFaults(t *testing.T) {
	vm := newTestVM(t)
	src := vm.poke(t, 0, []byte{1, 2, 3, 4})

	if _, err := vm.call(t, "sol_memcpy_", memory.VaddrProgram, src, 4, 0, 0); !errors.Is(err, memory.ErrWriteProtected) {
		t.Errorf("memcpy into program region = %v, want ErrWriteProtected", err)
	}
}

func TestMemset(t *testing.T) {
	vm := newTestVM(t)
	if _, err := vm.call(t, "sol_memset_", in(0), 0xAB, 8, 0, 0); err != nil {
		t.Fatalf("memset failed: %v", err)
	}
	if got := vm.peek(t, 0, 8); !bytes.Equal(got, bytes.Repeat([]byte{0xAB}, 8)) {
		t.Errorf("memset wrote %x", got)
	}
}

func TestMemcmp(t *testing.T) {
	vm := newTestVM(t)
	a := vm.poke(t, 0, []byte("abcd"))
	b := vm.poke(t, 16, []byte("abce"))

	if _, err := vm.call(t, "sol_memcmp_", a, b, 4, in(32), 0); err != nil {
		t.Fatalf("memcmp failed: %v", err)
	}
	result := int32(binary.LittleEndian.Uint32(vm.peek(t, 32, 4)))
	if result >= 0 {
		t.Errorf("memcmp(abcd, abce) = %d, want negative", result)
	}

	if _, err := vm.call(t, "sol_memcmp_", a, a, 4, in(32), 0); err != nil {
		t.Fatalf("memcmp failed: %v", err)
	}
	if result := binary.LittleEndian.Uint32(vm.peek(t, 32, 4)); result != 0 {
		t.Errorf("memcmp(abcd, abcd) = %d, want 0", result)
	}
}

func TestMemOpSizeCap(t *testing.T) {
	vm := newTestVM(t)
	tooBig := vm.ic.Budget().MaxMemOpSize + 1
	if _, err := vm.call(t, "sol_memset_", in(0), 0, tooBig, 0, 0); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("oversized memset = %v, want ErrInvalidLength", err)
	}
}

func TestAllocFree(t *testing.T) {
	vm := newTestVM(t)

	addr, err := vm.call(t, "sol_alloc_free_", 64, 0, 0, 0, 0)
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	if addr < memory.VaddrHeap || addr >= memory.VaddrInput {
		t.Fatalf("alloc returned 0x%x, want heap address", addr)
	}
	// Free is a no-op.
	if r0, err := vm.call(t, "sol_alloc_free_", 0, addr, 0, 0, 0); err != nil || r0 != 0 {
		t.Errorf("free = (%d, %v), want (0, nil)", r0, err)
	}
	// Exhausting the heap cap returns null rather than faulting.
	if r0, err := vm.call(t, "sol_alloc_free_", memory.DefaultHeapMax, 0, 0, 0, 0); err != nil || r0 != 0 {
		t.Errorf("over-cap alloc = (%d, %v), want (0, nil)", r0, err)
	}
}

func TestLogSyscalls(t *testing.T) {
	vm := newTestVM(t)
	msg := vm.poke(t, 0, []byte("syscall test"))

	if _, err := vm.call(t, "sol_log_", msg, 12, 0, 0, 0); err != nil {
		t.Fatalf("sol_log_ failed: %v", err)
	}
	if _, err := vm.call(t, "sol_log_64_", 1, 2, 3, 4, 5); err != nil {
		t.Fatalf("sol_log_64_ failed: %v", err)
	}
	pk := vm.poke(t, 64, testProgramID[:])
	if _, err := vm.call(t, "sol_log_pubkey", pk, 0, 0, 0, 0); err != nil {
		t.Fatalf("sol_log_pubkey failed: %v", err)
	}

	msgs := vm.ic.Logs().Messages()
	if len(msgs) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(msgs))
	}
	if msgs[0] != "Program log: syscall test" {
		t.Errorf("message 0 = %q", msgs[0])
	}
	if msgs[1] != "Program log: 0x1, 0x2, 0x3, 0x4, 0x5" {
		t.Errorf("message 1 = %q", msgs[1])
	}
	if !strings.Contains(msgs[2], testProgramID.String()) {
		t.Errorf("message 2 = %q, want base58 pubkey", msgs[2])
	}
}

func TestAbortAndPanic(t *testing.T) {
	vm := newTestVM(t)
	if _, err := vm.call(t, "abort", 0, 0, 0, 0, 0); !errors.Is(err, ErrAborted) {
		t.Errorf("abort = %v, want ErrAborted", err)
	}
	file := vm.poke(t, 0, []byte("lib.rs"))
	_, err := vm.call(t, "sol_panic_", file, 6, 42, 7, 0)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("panic = %v, want ErrAborted", err)
	}
	if !strings.Contains(err.Error(), "lib.rs:42:7") {
		t.Errorf("panic error = %v, want source location", err)
	}
}
