package runtime

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fortiblox/X1-Sealevel/pkg/cu"
)

func TestCreateProgramAddressDeterministic(t *testing.T) {
	meter := cu.NewMeterDisabled()
	budget := cu.DefaultBudget()
	prog := testKey(100)
	seeds := [][]byte{[]byte("metadata"), {1, 2, 3}}

	addr, bump, err := FindProgramAddress(meter, budget, seeds, prog)
	if err != nil {
		t.Fatalf("FindProgramAddress failed: %v", err)
	}
	again, bump2, err := FindProgramAddress(meter, budget, seeds, prog)
	if err != nil {
		t.Fatalf("second FindProgramAddress failed: %v", err)
	}
	if addr != again || bump != bump2 {
		t.Error("derivation is not deterministic")
	}

	// CreateProgramAddress with the found bump reproduces the address.
	withBump := append(append([][]byte{}, seeds...), []byte{bump})
	direct, err := CreateProgramAddress(meter, budget, withBump, prog)
	if err != nil {
		t.Fatalf("CreateProgramAddress failed: %v", err)
	}
	if direct != addr {
		t.Errorf("CreateProgramAddress = %s, want %s", direct, addr)
	}
	if isOnCurve([32]byte(addr)) {
		t.Error("derived address is on-curve")
	}
}

func TestCreateProgramAddressSeedCaps(t *testing.T) {
	meter := cu.NewMeterDisabled()
	budget := cu.DefaultBudget()
	prog := testKey(100)

	tooMany := make([][]byte, budget.MaxSeeds+1)
	for i := range tooMany {
		tooMany[i] = []byte{byte(i)}
	}
	if _, err := CreateProgramAddress(meter, budget, tooMany, prog); !errors.Is(err, ErrMaxSeedLengthExceeded) {
		t.Errorf("too many seeds = %v, want ErrMaxSeedLengthExceeded", err)
	}

	longSeed := [][]byte{bytes.Repeat([]byte{7}, int(budget.MaxSeedLen)+1)}
	if _, err := CreateProgramAddress(meter, budget, longSeed, prog); !errors.Is(err, ErrMaxSeedLengthExceeded) {
		t.Errorf("oversized seed = %v, want ErrMaxSeedLengthExceeded", err)
	}
}

func TestFindProgramAddressChargesPerAttempt(t *testing.T) {
	budget := cu.DefaultBudget()
	prog := testKey(100)
	seeds := [][]byte{[]byte("counter")}

	free := cu.NewMeterDisabled()
	addr, bump, err := FindProgramAddress(free, budget, seeds, prog)
	if err != nil {
		t.Fatalf("FindProgramAddress failed: %v", err)
	}
	attempts := uint64(255 - int(bump) + 1)

	metered := cu.NewMeter(attempts * budget.CreateProgramAddress)
	got, _, err := FindProgramAddress(metered, budget, seeds, prog)
	if err != nil {
		t.Fatalf("metered FindProgramAddress failed: %v", err)
	}
	if got != addr {
		t.Errorf("metered result = %s, want %s", got, addr)
	}
	if metered.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", metered.Remaining())
	}

	// One unit short of the needed attempts exhausts the budget mid-search.
	short := cu.NewMeter(attempts*budget.CreateProgramAddress - 1)
	if _, _, err := FindProgramAddress(short, budget, seeds, prog); !errors.Is(err, cu.ErrComputeExceeded) {
		t.Errorf("underfunded search = %v, want ErrComputeExceeded", err)
	}
}
