package runtime

import (
	"errors"
	"fmt"

	"github.com/fortiblox/X1-Sealevel/internal/types"
)

// Account borrow errors.
var (
	// ErrAccountBorrowFailed is returned when a view is requested while a
	// conflicting view of the same account is live.
	ErrAccountBorrowFailed = errors.New("account borrow failed")

	// ErrAccountNotFound is returned when an instruction references an
	// account outside the transaction's account set.
	ErrAccountNotFound = errors.New("account not found in transaction")

	// ErrAccountDataTooLarge is returned when a program grows account data
	// beyond the allowed size.
	ErrAccountDataTooLarge = errors.New("account data too large")
)

// Account is one transaction-level account: the authoritative state shared
// by every frame that references it.
type Account struct {
	Key        types.Pubkey
	Lamports   uint64
	Data       []byte
	Owner      types.Pubkey
	Executable bool
	RentEpoch  uint64
}

// borrowState tracks the live views of one account.
// Free: no views. Shared: one or more read views. Exclusive: one write view.
type borrowState struct {
	shared    int
	exclusive bool
}

// Accounts is the arena of transaction accounts plus the borrow-state table
// keyed by account index. Views are borrowed, never copied: frames that
// reference the same underlying account share one Account entry.
type Accounts struct {
	accounts []*Account
	borrows  []borrowState
}

// NewAccounts builds the arena for one transaction.
func NewAccounts(accounts []*Account) *Accounts {
	return &Accounts{
		accounts: accounts,
		borrows:  make([]borrowState, len(accounts)),
	}
}

// Len returns the number of transaction accounts.
func (a *Accounts) Len() int {
	return len(a.accounts)
}

// IndexOf returns the arena index of the account with the given key.
func (a *Accounts) IndexOf(key types.Pubkey) (int, bool) {
	for i, acc := range a.accounts {
		if acc.Key == key {
			return i, true
		}
	}
	return -1, false
}

// Get returns the account at the given index without borrowing it. Callers
// that mutate account state must hold an exclusive view instead.
func (a *Accounts) Get(index int) (*Account, error) {
	if index < 0 || index >= len(a.accounts) {
		return nil, fmt.Errorf("%w: index %d", ErrAccountNotFound, index)
	}
	return a.accounts[index], nil
}

// HasLiveBorrow reports whether any view of the account is live, and whether
// one of them is exclusive.
func (a *Accounts) HasLiveBorrow(index int) (live bool, exclusive bool) {
	b := a.borrows[index]
	return b.shared > 0 || b.exclusive, b.exclusive
}

// View is a privilege-tagged borrow of one account. Writable views are
// exclusive; read views are shared. A View must be released before a
// conflicting view of the same account can be taken.
type View struct {
	arena    *Accounts
	index    int
	account  *Account
	writable bool
	signer   bool
	released bool
}

// BorrowShared takes a read view of the account at index.
func (a *Accounts) BorrowShared(index int, signer bool) (*View, error) {
	acc, err := a.Get(index)
	if err != nil {
		return nil, err
	}
	if a.borrows[index].exclusive {
		return nil, fmt.Errorf("%w: account %s already mutably borrowed", ErrAccountBorrowFailed, acc.Key)
	}
	a.borrows[index].shared++
	return &View{arena: a, index: index, account: acc, signer: signer}, nil
}

// BorrowExclusive takes a write view of the account at index.
func (a *Accounts) BorrowExclusive(index int, signer bool) (*View, error) {
	acc, err := a.Get(index)
	if err != nil {
		return nil, err
	}
	if b := a.borrows[index]; b.exclusive || b.shared > 0 {
		return nil, fmt.Errorf("%w: account %s already borrowed", ErrAccountBorrowFailed, acc.Key)
	}
	a.borrows[index].exclusive = true
	return &View{arena: a, index: index, account: acc, writable: true, signer: signer}, nil
}

// Release ends the borrow. Releasing twice is a no-op.
func (v *View) Release() {
	if v.released {
		return
	}
	v.released = true
	if v.writable {
		v.arena.borrows[v.index].exclusive = false
	} else {
		v.arena.borrows[v.index].shared--
	}
}

// Key returns the account address.
func (v *View) Key() types.Pubkey {
	return v.account.Key
}

// Owner returns the owning program.
func (v *View) Owner() types.Pubkey {
	return v.account.Owner
}

// Lamports returns the account balance.
func (v *View) Lamports() uint64 {
	return v.account.Lamports
}

// Data returns the account data buffer. Mutating it requires a writable
// view.
func (v *View) Data() []byte {
	return v.account.Data
}

// IsWritable reports whether the view permits mutation.
func (v *View) IsWritable() bool {
	return v.writable
}

// IsSigner reports whether the account signed at this frame.
func (v *View) IsSigner() bool {
	return v.signer
}

// SetLamports updates the balance through a writable view.
func (v *View) SetLamports(lamports uint64) error {
	if !v.writable {
		return fmt.Errorf("%w: lamport write through read view of %s", ErrAccountBorrowFailed, v.account.Key)
	}
	v.account.Lamports = lamports
	return nil
}

// SetData replaces the data buffer through a writable view.
func (v *View) SetData(data []byte) error {
	if !v.writable {
		return fmt.Errorf("%w: data write through read view of %s", ErrAccountBorrowFailed, v.account.Key)
	}
	v.account.Data = data
	return nil
}

// SetOwner reassigns the owning program through a writable view. The CPI
// reconciliation at frame pop decides whether the change was authorized.
func (v *View) SetOwner(owner types.Pubkey) error {
	if !v.writable {
		return fmt.Errorf("%w: owner write through read view of %s", ErrAccountBorrowFailed, v.account.Key)
	}
	v.account.Owner = owner
	return nil
}
