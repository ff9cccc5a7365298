package syscall

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"

	"github.com/fortiblox/X1-Sealevel/pkg/cu"
)

func TestSha256MultiSlice(t *testing.T) {
	vm := newTestVM(t)
	arr := vm.pokeSlices(t, 0, []byte("multi"), []byte("slice"), []byte("hash"))

	if _, err := vm.call(t, "sol_sha256", arr, 3, in(512), 0, 0); err != nil {
		t.Fatalf("sol_sha256 failed: %v", err)
	}
	want := sha256.Sum256([]byte("multislicehash"))
	if got := vm.peek(t, 512, 32); !bytes.Equal(got, want[:]) {
		t.Errorf("digest = %x, want %x", got, want)
	}
}

func TestSha256ZeroSlices(t *testing.T) {
	vm := newTestVM(t)
	if _, err := vm.call(t, "sol_sha256", 0, 0, in(512), 0, 0); err != nil {
		t.Fatalf("empty sol_sha256 failed: %v", err)
	}
	want := sha256.Sum256(nil)
	if got := vm.peek(t, 512, 32); !bytes.Equal(got, want[:]) {
		t.Errorf("digest = %x, want %x", got, want)
	}
}

func TestKeccak256(t *testing.T) {
	vm := newTestVM(t)
	arr := vm.pokeSlices(t, 0, []byte("keccak input"))

	if _, err := vm.call(t, "sol_keccak256", arr, 1, in(512), 0, 0); err != nil {
		t.Fatalf("sol_keccak256 failed: %v", err)
	}
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte("keccak input"))
	if got := vm.peek(t, 512, 32); !bytes.Equal(got, h.Sum(nil)) {
		t.Errorf("digest = %x, want %x", got, h.Sum(nil))
	}
}

func TestBlake3(t *testing.T) {
	vm := newTestVM(t)
	arr := vm.pokeSlices(t, 0, []byte("blake3 input"))

	if _, err := vm.call(t, "sol_blake3", arr, 1, in(512), 0, 0); err != nil {
		t.Fatalf("sol_blake3 failed: %v", err)
	}
	h := blake3.New()
	h.Write([]byte("blake3 input"))
	if got := vm.peek(t, 512, 32); !bytes.Equal(got, h.Sum(nil)) {
		t.Errorf("digest = %x, want %x", got, h.Sum(nil))
	}
}

func TestHashSliceCountCap(t *testing.T) {
	vm := newTestVM(t)
	tooMany := vm.ic.Budget().MaxHashSlices + 1
	if _, err := vm.call(t, "sol_sha256", in(0), tooMany, in(512), 0, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("over-cap slice count = %v, want ErrInvalidArgument", err)
	}
}

func TestHashPerByteCharge(t *testing.T) {
	// The base cost plus one unit per input byte.
	budget := cu.DefaultBudget()
	vmCost := budget.HashBase + budget.HashPerByte*14

	vm := newTestVMWithMeter(t, cu.NewMeter(vmCost))
	arr := vm.pokeSlices(t, 0, []byte("metered inputs"))
	if _, err := vm.call(t, "sol_sha256", arr, 1, in(512), 0, 0); err != nil {
		t.Fatalf("exactly-funded sol_sha256 failed: %v", err)
	}
	if remaining := vm.ic.Meter().Remaining(); remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}

	vm = newTestVMWithMeter(t, cu.NewMeter(vmCost-1))
	arr = vm.pokeSlices(t, 0, []byte("metered inputs"))
	if _, err := vm.call(t, "sol_sha256", arr, 1, in(512), 0, 0); !errors.Is(err, cu.ErrComputeExceeded) {
		t.Errorf("underfunded sol_sha256 = %v, want ErrComputeExceeded", err)
	}
}
