package runtime

import (
	"errors"
	"testing"

	"github.com/fortiblox/X1-Sealevel/internal/types"
)

func testKey(b byte) types.Pubkey {
	var p types.Pubkey
	p[0] = b
	return p
}

func testArena(n int) *Accounts {
	accounts := make([]*Account, n)
	for i := range accounts {
		accounts[i] = &Account{
			Key:      testKey(byte(i + 1)),
			Lamports: 1_000,
			Owner:    types.SystemProgramAddr,
		}
	}
	return NewAccounts(accounts)
}

func TestBorrowSharedAllowsReaders(t *testing.T) {
	a := testArena(1)

	v1, err := a.BorrowShared(0, false)
	if err != nil {
		t.Fatalf("first shared borrow failed: %v", err)
	}
	v2, err := a.BorrowShared(0, false)
	if err != nil {
		t.Fatalf("second shared borrow failed: %v", err)
	}
	if _, err := a.BorrowExclusive(0, false); !errors.Is(err, ErrAccountBorrowFailed) {
		t.Errorf("exclusive over shared = %v, want ErrAccountBorrowFailed", err)
	}

	v1.Release()
	v2.Release()
	if _, err := a.BorrowExclusive(0, false); err != nil {
		t.Errorf("exclusive after release failed: %v", err)
	}
}

func TestBorrowExclusiveIsExclusive(t *testing.T) {
	a := testArena(1)

	v, err := a.BorrowExclusive(0, false)
	if err != nil {
		t.Fatalf("exclusive borrow failed: %v", err)
	}
	if _, err := a.BorrowShared(0, false); !errors.Is(err, ErrAccountBorrowFailed) {
		t.Errorf("shared over exclusive = %v, want ErrAccountBorrowFailed", err)
	}
	if _, err := a.BorrowExclusive(0, false); !errors.Is(err, ErrAccountBorrowFailed) {
		t.Errorf("double exclusive = %v, want ErrAccountBorrowFailed", err)
	}

	v.Release()
	v.Release() // second release is a no-op
	live, _ := a.HasLiveBorrow(0)
	if live {
		t.Error("borrow still live after release")
	}
}

func TestViewWriteRequiresWritable(t *testing.T) {
	a := testArena(1)

	ro, err := a.BorrowShared(0, false)
	if err != nil {
		t.Fatalf("shared borrow failed: %v", err)
	}
	if err := ro.SetLamports(5); !errors.Is(err, ErrAccountBorrowFailed) {
		t.Errorf("SetLamports on read view = %v, want ErrAccountBorrowFailed", err)
	}
	ro.Release()

	rw, err := a.BorrowExclusive(0, true)
	if err != nil {
		t.Fatalf("exclusive borrow failed: %v", err)
	}
	if err := rw.SetLamports(5); err != nil {
		t.Fatalf("SetLamports failed: %v", err)
	}
	if got := rw.Lamports(); got != 5 {
		t.Errorf("lamports = %d, want 5", got)
	}
	if !rw.IsSigner() {
		t.Error("signer flag lost")
	}
	rw.Release()
}

func TestAccountsGetOutOfRange(t *testing.T) {
	a := testArena(2)
	if _, err := a.Get(2); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Get(2) = %v, want ErrAccountNotFound", err)
	}
	if _, err := a.Get(-1); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Get(-1) = %v, want ErrAccountNotFound", err)
	}
	if _, ok := a.IndexOf(testKey(9)); ok {
		t.Error("IndexOf found a key not in the arena")
	}
}
