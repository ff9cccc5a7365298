// Package features implements protocol feature gating.
//
// A Set is an immutable snapshot of the feature gates active for one
// transaction, taken at invocation-context construction time. Syscall
// availability and CPI behavior consult the snapshot, never mutable global
// state, so execution stays a pure function of (input, context).
package features

import "github.com/fortiblox/X1-Sealevel/internal/types"

// Gate identifies one feature gate by its on-chain feature account address.
type Gate struct {
	Addr types.Pubkey
	Name string
}

// Feature gates recognized by this layer.
var (
	Secp256k1RecoverSyscall = Gate{
		Addr: types.MustPubkeyFromBase58("6RvdSWHh8oh72Dp7wMTS2DBkf3fRPtChfNrAo3cZZoXJ"),
		Name: "secp256k1_recover_syscall",
	}
	Curve25519Syscall = Gate{
		Addr: types.MustPubkeyFromBase58("7rcw5UtqgDTBBv2EcynNfYckgdAaH1MAsCjKgXMkN7Ri"),
		Name: "curve25519_syscall_enabled",
	}
	AltBn128Syscall = Gate{
		Addr: types.MustPubkeyFromBase58("A16q37opZdQMCbe5qJ6xpBB9usykfv8jZaMkxvZQi4GJ"),
		Name: "enable_alt_bn128_syscall",
	}
	BigModExpSyscall = Gate{
		Addr: types.MustPubkeyFromBase58("EBq48m8irRKuE7ZnMTLvLg2UuGSqhe8s8oMqnmja1fJw"),
		Name: "enable_big_mod_exp_syscall",
	}
	PoseidonSyscall = Gate{
		Addr: types.MustPubkeyFromBase58("FL9RsQA6TVUoh5xJQ9d936RHSebA1NLQqe3Zv9sXZRpr"),
		Name: "enable_poseidon_syscall",
	}
	LastRestartSlotSysvar = Gate{
		Addr: types.MustPubkeyFromBase58("HooKD5NC9QNxk25QuzCssB8ecrEzGt6eXEPBUxWp1LaR"),
		Name: "last_restart_slot_sysvar",
	}
	EpochRewardsSysvar = Gate{
		Addr: types.MustPubkeyFromBase58("8GdovDzVwWU5edz2G697bbB7GZjrUc6aQZLWyNNAtHdg"),
		Name: "enable_partitioned_epoch_reward",
	}
	RemainingComputeUnitsSyscall = Gate{
		Addr: types.MustPubkeyFromBase58("5TuppMutoyzhUSfuYdhgzD47F92GL1g89KpCZQKqedxP"),
		Name: "remaining_compute_units_syscall_enabled",
	}
	DisableFeesSysvar = Gate{
		Addr: types.MustPubkeyFromBase58("JAN1trEUEtZjgXYzNBYHU9DYd7GnThhXfFP7SzPXkPsG"),
		Name: "disable_fees_sysvar",
	}
	DisableDeployOfAllocFree = Gate{
		Addr: types.MustPubkeyFromBase58("79HWsX9rpnnJBPcdNURVqygpMAfxdrAirzAGAVmf92im"),
		Name: "disable_deploy_of_alloc_free_syscall",
	}
)

// Set is an immutable feature snapshot.
type Set struct {
	active map[types.Pubkey]bool
}

// NewSet creates a snapshot with the given gates active.
func NewSet(gates ...Gate) *Set {
	s := &Set{active: make(map[types.Pubkey]bool, len(gates))}
	for _, g := range gates {
		s.active[g.Addr] = true
	}
	return s
}

// AllEnabled returns a snapshot with every known gate active. Used by tests
// and by the current-protocol default.
func AllEnabled() *Set {
	return NewSet(
		Secp256k1RecoverSyscall,
		Curve25519Syscall,
		AltBn128Syscall,
		BigModExpSyscall,
		PoseidonSyscall,
		LastRestartSlotSysvar,
		EpochRewardsSysvar,
		RemainingComputeUnitsSyscall,
	)
}

// IsActive reports whether the gate is active in this snapshot.
func (s *Set) IsActive(g Gate) bool {
	if s == nil {
		return false
	}
	return s.active[g.Addr]
}
