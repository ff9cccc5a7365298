// Package sysvar exposes host-maintained runtime facts to guest programs.
//
// Each sysvar has a fixed serialized form; the copy-out syscalls write
// exactly that form into a guest buffer. Sysvars are strictly read-only from
// guest code.
package sysvar

import (
	"encoding/binary"
	"math"

	"github.com/fortiblox/X1-Sealevel/internal/types"
)

// Serialized sizes in bytes.
const (
	ClockSize           = 40
	RentSize            = 17
	EpochScheduleSize   = 33
	EpochRewardsSize    = 81
	FeesSize            = 8
	LastRestartSlotSize = 8
)

// Clock carries slot, epoch, and timestamp information.
type Clock struct {
	Slot                uint64
	EpochStartTimestamp int64
	Epoch               uint64
	LeaderScheduleEpoch uint64
	UnixTimestamp       int64
}

// Serialize returns the fixed little-endian form.
func (c *Clock) Serialize() []byte {
	out := make([]byte, ClockSize)
	binary.LittleEndian.PutUint64(out[0:8], c.Slot)
	binary.LittleEndian.PutUint64(out[8:16], uint64(c.EpochStartTimestamp))
	binary.LittleEndian.PutUint64(out[16:24], c.Epoch)
	binary.LittleEndian.PutUint64(out[24:32], c.LeaderScheduleEpoch)
	binary.LittleEndian.PutUint64(out[32:40], uint64(c.UnixTimestamp))
	return out
}

// Rent carries the rent parameters.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         uint8
}

// Serialize returns the fixed little-endian form.
func (r *Rent) Serialize() []byte {
	out := make([]byte, RentSize)
	binary.LittleEndian.PutUint64(out[0:8], r.LamportsPerByteYear)
	binary.LittleEndian.PutUint64(out[8:16], math.Float64bits(r.ExemptionThreshold))
	out[16] = r.BurnPercent
	return out
}

// EpochSchedule carries the epoch layout.
type EpochSchedule struct {
	SlotsPerEpoch            uint64
	LeaderScheduleSlotOffset uint64
	Warmup                   bool
	FirstNormalEpoch         uint64
	FirstNormalSlot          uint64
}

// Serialize returns the fixed little-endian form.
func (es *EpochSchedule) Serialize() []byte {
	out := make([]byte, EpochScheduleSize)
	binary.LittleEndian.PutUint64(out[0:8], es.SlotsPerEpoch)
	binary.LittleEndian.PutUint64(out[8:16], es.LeaderScheduleSlotOffset)
	if es.Warmup {
		out[16] = 1
	}
	binary.LittleEndian.PutUint64(out[17:25], es.FirstNormalEpoch)
	binary.LittleEndian.PutUint64(out[25:33], es.FirstNormalSlot)
	return out
}

// EpochRewards carries the partitioned epoch reward distribution state.
type EpochRewards struct {
	DistributionStartingBlockHeight uint64
	NumPartitions                   uint64
	ParentBlockhash                 types.Hash
	TotalPoints                     [16]byte // u128, little-endian
	TotalRewards                    uint64
	DistributedRewards              uint64
	Active                          bool
}

// Serialize returns the fixed little-endian form.
func (er *EpochRewards) Serialize() []byte {
	out := make([]byte, EpochRewardsSize)
	binary.LittleEndian.PutUint64(out[0:8], er.DistributionStartingBlockHeight)
	binary.LittleEndian.PutUint64(out[8:16], er.NumPartitions)
	copy(out[16:48], er.ParentBlockhash[:])
	copy(out[48:64], er.TotalPoints[:])
	binary.LittleEndian.PutUint64(out[64:72], er.TotalRewards)
	binary.LittleEndian.PutUint64(out[72:80], er.DistributedRewards)
	if er.Active {
		out[80] = 1
	}
	return out
}

// Fees carries the fee parameters (deprecated sysvar, still gated in).
type Fees struct {
	LamportsPerSignature uint64
}

// Serialize returns the fixed little-endian form.
func (f *Fees) Serialize() []byte {
	out := make([]byte, FeesSize)
	binary.LittleEndian.PutUint64(out, f.LamportsPerSignature)
	return out
}

// LastRestartSlot carries the slot of the last cluster restart.
type LastRestartSlot struct {
	LastRestartSlot uint64
}

// Serialize returns the fixed little-endian form.
func (l *LastRestartSlot) Serialize() []byte {
	out := make([]byte, LastRestartSlotSize)
	binary.LittleEndian.PutUint64(out, l.LastRestartSlot)
	return out
}

// RecentBlockhashEntry is one (blockhash, fee) pair.
type RecentBlockhashEntry struct {
	Blockhash            types.Hash
	LamportsPerSignature uint64
}

// RecentBlockhashes is the deprecated recent-blockhashes sysvar.
type RecentBlockhashes struct {
	Entries []RecentBlockhashEntry
}

// Serialize returns the length-prefixed little-endian form.
func (rb *RecentBlockhashes) Serialize() []byte {
	out := make([]byte, 8+len(rb.Entries)*40)
	binary.LittleEndian.PutUint64(out[0:8], uint64(len(rb.Entries)))
	off := 8
	for _, e := range rb.Entries {
		copy(out[off:off+32], e.Blockhash[:])
		binary.LittleEndian.PutUint64(out[off+32:off+40], e.LamportsPerSignature)
		off += 40
	}
	return out
}

