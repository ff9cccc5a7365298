package sysvar

import (
	"errors"

	"github.com/fortiblox/X1-Sealevel/internal/types"
)

// ErrUnsupportedSysvar is returned for sysvar ids this layer does not serve.
// Unknown ids fail loudly; they never yield zeroed data.
var ErrUnsupportedSysvar = errors.New("unsupported sysvar")

// Cache holds the host-maintained sysvar values for one transaction. The
// runtime seeds it before execution; guest code can only read it.
type Cache struct {
	Clock             Clock
	Rent              Rent
	EpochSchedule     EpochSchedule
	EpochRewards      EpochRewards
	Fees              Fees
	LastRestartSlot   LastRestartSlot
	RecentBlockhashes RecentBlockhashes
}

// Get returns the serialized form of the sysvar with the given id.
func (c *Cache) Get(id types.Pubkey) ([]byte, error) {
	switch id {
	case types.SysvarClockAddr:
		return c.Clock.Serialize(), nil
	case types.SysvarRentAddr:
		return c.Rent.Serialize(), nil
	case types.SysvarEpochScheduleAddr:
		return c.EpochSchedule.Serialize(), nil
	case types.SysvarEpochRewardsAddr:
		return c.EpochRewards.Serialize(), nil
	case types.SysvarFeesAddr:
		return c.Fees.Serialize(), nil
	case types.SysvarLastRestartSlotAddr:
		return c.LastRestartSlot.Serialize(), nil
	case types.SysvarRecentBlockhashesAddr:
		return c.RecentBlockhashes.Serialize(), nil
	default:
		return nil, ErrUnsupportedSysvar
	}
}
