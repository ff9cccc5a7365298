// Package types provides well-known program and sysvar addresses.
package types

import "fmt"

// Native program addresses.
// These are the same across Solana mainnet and X1.
var (
	// SystemProgramAddr is the System Program address.
	SystemProgramAddr = MustPubkeyFromBase58("11111111111111111111111111111111")

	// BPFLoaderAddr is the BPF Loader address.
	BPFLoaderAddr = MustPubkeyFromBase58("BPFLoader1111111111111111111111111111111111")

	// BPFLoader2Addr is the BPF Loader 2 address.
	BPFLoader2Addr = MustPubkeyFromBase58("BPFLoader2111111111111111111111111111111111")

	// BPFLoaderUpgradeableAddr is the BPF Loader Upgradeable address.
	BPFLoaderUpgradeableAddr = MustPubkeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")

	// LoaderV4Addr is the Loader V4 address.
	LoaderV4Addr = MustPubkeyFromBase58("LoaderV411111111111111111111111111111111111")

	// NativeLoaderAddr is the Native Loader address.
	NativeLoaderAddr = MustPubkeyFromBase58("NativeLoader1111111111111111111111111111111")

	// FeatureGateProgramAddr is the Feature Gate Program address.
	FeatureGateProgramAddr = MustPubkeyFromBase58("Feature111111111111111111111111111111111111")
)

// Sysvar addresses.
var (
	// SysvarClockAddr is the Clock sysvar address.
	SysvarClockAddr = MustPubkeyFromBase58("SysvarC1ock11111111111111111111111111111111")

	// SysvarRentAddr is the Rent sysvar address.
	SysvarRentAddr = MustPubkeyFromBase58("SysvarRent111111111111111111111111111111111")

	// SysvarEpochScheduleAddr is the Epoch Schedule sysvar address.
	SysvarEpochScheduleAddr = MustPubkeyFromBase58("SysvarEpochSchedu1e111111111111111111111111")

	// SysvarFeesAddr is the Fees sysvar address (deprecated).
	SysvarFeesAddr = MustPubkeyFromBase58("SysvarFees111111111111111111111111111111111")

	// SysvarRecentBlockhashesAddr is the Recent Blockhashes sysvar address (deprecated).
	SysvarRecentBlockhashesAddr = MustPubkeyFromBase58("SysvarRecentB1ockHashes11111111111111111111")

	// SysvarEpochRewardsAddr is the Epoch Rewards sysvar address.
	SysvarEpochRewardsAddr = MustPubkeyFromBase58("SysvarEpochRewards1111111111111111111111111")

	// SysvarLastRestartSlotAddr is the Last Restart Slot sysvar address.
	SysvarLastRestartSlotAddr = MustPubkeyFromBase58("SysvarLastRestartS1ot1111111111111111111111")
)

// MustPubkeyFromBase58 parses a base58 pubkey or panics.
// Only use for compile-time constants.
func MustPubkeyFromBase58(s string) Pubkey {
	p, err := PubkeyFromBase58(s)
	if err != nil {
		panic(fmt.Sprintf("invalid pubkey constant %q: %v", s, err))
	}
	return p
}

// IsNativeProgram returns true if the pubkey is a native program.
func IsNativeProgram(p Pubkey) bool {
	switch p {
	case SystemProgramAddr,
		BPFLoaderAddr,
		BPFLoader2Addr,
		BPFLoaderUpgradeableAddr,
		LoaderV4Addr,
		NativeLoaderAddr,
		FeatureGateProgramAddr:
		return true
	default:
		return false
	}
}

// IsSysvar returns true if the pubkey is a sysvar.
func IsSysvar(p Pubkey) bool {
	switch p {
	case SysvarClockAddr,
		SysvarRentAddr,
		SysvarEpochScheduleAddr,
		SysvarFeesAddr,
		SysvarRecentBlockhashesAddr,
		SysvarEpochRewardsAddr,
		SysvarLastRestartSlotAddr:
		return true
	default:
		return false
	}
}
