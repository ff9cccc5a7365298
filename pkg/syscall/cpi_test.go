package syscall

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fortiblox/X1-Sealevel/internal/types"
	"github.com/fortiblox/X1-Sealevel/pkg/runtime"
)

var calleeProgramID = types.MustPubkeyFromBase58("LoaderV411111111111111111111111111111111111")

// layoutInstructionC writes a C ABI SolInstruction into guest memory at
// base and returns its address.
func layoutInstructionC(t *testing.T, vm *testVM, base uint64, programID types.Pubkey, data []byte) uint64 {
	t.Helper()
	pidAddr := vm.poke(t, base+64, programID[:])
	var dataAddr uint64
	if len(data) > 0 {
		dataAddr = vm.poke(t, base+128, data)
	}
	var ix [solInstructionSize]byte
	putUint64(ix[0:8], pidAddr)
	putUint64(ix[8:16], 0) // no account metas
	putUint64(ix[16:24], 0)
	putUint64(ix[24:32], dataAddr)
	putUint64(ix[32:40], uint64(len(data)))
	return vm.poke(t, base, ix[:])
}

func TestInvokeSignedC(t *testing.T) {
	vm := newTestVM(t)

	var gotProgram types.Pubkey
	var gotData []byte
	var gotHeight int
	vm.ic.SetExecutor(runtime.ExecutorFunc(func(ic *runtime.InvokeContext, programID types.Pubkey, accounts []runtime.InstructionAccount, data []byte) error {
		gotProgram = programID
		gotData = append([]byte(nil), data...)
		gotHeight = ic.StackHeight()
		return nil
	}))

	ixAddr := layoutInstructionC(t, vm, 0, calleeProgramID, []byte{0xCA, 0xFE})
	r0, err := vm.call(t, "sol_invoke_signed_c", ixAddr, 0, 0, 0, 0)
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if r0 != 0 {
		t.Fatalf("r0 = %d, want 0", r0)
	}
	if gotProgram != calleeProgramID {
		t.Errorf("callee = %s, want %s", gotProgram, calleeProgramID)
	}
	if !bytes.Equal(gotData, []byte{0xCA, 0xFE}) {
		t.Errorf("data = %x, want cafe", gotData)
	}
	if gotHeight != 2 {
		t.Errorf("callee stack height = %d, want 2", gotHeight)
	}
	if vm.ic.StackHeight() != 1 {
		t.Errorf("stack height after invoke = %d, want 1", vm.ic.StackHeight())
	}
}

func TestInvokeSignedRust(t *testing.T) {
	vm := newTestVM(t)

	var gotProgram types.Pubkey
	vm.ic.SetExecutor(runtime.ExecutorFunc(func(ic *runtime.InvokeContext, programID types.Pubkey, accounts []runtime.InstructionAccount, data []byte) error {
		gotProgram = programID
		return nil
	}))

	// StableInstruction: empty accounts vec, one data byte, inline id.
	dataAddr := vm.poke(t, 128, []byte{0x7})
	var ix [80]byte
	putUint64(ix[rustDataPtrOff:rustDataPtrOff+8], dataAddr)
	putUint64(ix[rustDataLenOff:rustDataLenOff+8], 1)
	copy(ix[rustProgramIDOff:], calleeProgramID[:])
	ixAddr := vm.poke(t, 0, ix[:])

	if _, err := vm.call(t, "sol_invoke_signed_rust", ixAddr, 0, 0, 0, 0); err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if gotProgram != calleeProgramID {
		t.Errorf("callee = %s, want %s", gotProgram, calleeProgramID)
	}
}

func TestInvokeDataCapFromGuest(t *testing.T) {
	vm := newTestVM(t)
	vm.ic.SetExecutor(runtime.ExecutorFunc(func(ic *runtime.InvokeContext, programID types.Pubkey, accounts []runtime.InstructionAccount, data []byte) error {
		return nil
	}))

	pidAddr := vm.poke(t, 64, calleeProgramID[:])
	var ix [solInstructionSize]byte
	putUint64(ix[0:8], pidAddr)
	putUint64(ix[32:40], vm.ic.Budget().MaxInstructionData+1)
	ixAddr := vm.poke(t, 0, ix[:])

	if _, err := vm.call(t, "sol_invoke_signed_c", ixAddr, 0, 0, 0, 0); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("oversized data = %v, want ErrInvalidLength", err)
	}
}

func TestReturnDataSyscalls(t *testing.T) {
	vm := newTestVM(t)
	payload := vm.poke(t, 0, []byte("return value"))

	if _, err := vm.call(t, "sol_set_return_data", payload, 12, 0, 0, 0); err != nil {
		t.Fatalf("set_return_data failed: %v", err)
	}

	n, err := vm.call(t, "sol_get_return_data", in(100), 64, in(200), 0, 0)
	if err != nil {
		t.Fatalf("get_return_data failed: %v", err)
	}
	if n != 12 {
		t.Errorf("length = %d, want 12", n)
	}
	if got := vm.peek(t, 100, 12); string(got) != "return value" {
		t.Errorf("data = %q", got)
	}
	if got := vm.peek(t, 200, 32); !bytes.Equal(got, testProgramID[:]) {
		t.Errorf("program id = %x, want %x", got, testProgramID[:])
	}

	// Zero length clears.
	if _, err := vm.call(t, "sol_set_return_data", 0, 0, 0, 0, 0); err != nil {
		t.Fatalf("clearing set_return_data failed: %v", err)
	}
	if n, err := vm.call(t, "sol_get_return_data", in(100), 64, in(200), 0, 0); err != nil || n != 0 {
		t.Errorf("after clear = (%d, %v), want (0, nil)", n, err)
	}
}

func TestSetReturnDataCap(t *testing.T) {
	vm := newTestVM(t)
	if _, err := vm.call(t, "sol_set_return_data", in(0), vm.ic.Budget().MaxReturnData+1, 0, 0, 0); !errors.Is(err, runtime.ErrReturnDataTooLarge) {
		t.Errorf("oversized return data = %v, want ErrReturnDataTooLarge", err)
	}
}

func TestStackHeightAndRemainingUnits(t *testing.T) {
	vm := newTestVM(t)

	h, err := vm.call(t, "sol_get_stack_height", 0, 0, 0, 0, 0)
	if err != nil {
		t.Fatalf("get_stack_height failed: %v", err)
	}
	if h != 1 {
		t.Errorf("stack height = %d, want 1", h)
	}

	remaining, err := vm.call(t, "sol_remaining_compute_units", 0, 0, 0, 0, 0)
	if err != nil {
		t.Fatalf("remaining_compute_units failed: %v", err)
	}
	if remaining != vm.ic.Meter().Remaining() {
		t.Errorf("remaining = %d, want %d", remaining, vm.ic.Meter().Remaining())
	}
}

func TestCreateProgramAddressSyscall(t *testing.T) {
	vm := newTestVM(t)
	seedArr := vm.pokeSlices(t, 0, []byte("vault"))
	pidAddr := vm.poke(t, 128, testProgramID[:])

	r0, err := vm.call(t, "sol_try_find_program_address", seedArr, 1, pidAddr, in(256), in(300))
	if err != nil {
		t.Fatalf("try_find faulted: %v", err)
	}
	if r0 != 0 {
		t.Fatalf("r0 = %d, want 0", r0)
	}
	derived := vm.peek(t, 256, 32)
	bump := vm.peek(t, 300, 1)[0]

	// Re-deriving with the bump through sol_create_program_address
	// reproduces the address.
	seedArrBump := vm.pokeSlices(t, 400, []byte("vault"), []byte{bump})
	r0, err = vm.call(t, "sol_create_program_address", seedArrBump, 2, pidAddr, in(500), 0)
	if err != nil {
		t.Fatalf("create faulted: %v", err)
	}
	if r0 != 0 {
		t.Fatalf("r0 = %d, want 0", r0)
	}
	if got := vm.peek(t, 500, 32); !bytes.Equal(got, derived) {
		t.Errorf("create = %x, want %x", got, derived)
	}
}
