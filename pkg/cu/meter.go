// Package cu implements compute unit metering for the Sealevel syscall layer.
//
// Every syscall charges its cost through a Meter before performing work.
// Exhausting the meter is fatal to the whole transaction: partially metered
// work would be unsound, so the error is never caught and retried.
package cu

import "errors"

var (
	// ErrComputeExceeded is returned when compute units are exhausted.
	ErrComputeExceeded = errors.New("compute budget exceeded")

	// ErrInvalidLimit is returned for an invalid compute unit limit.
	ErrInvalidLimit = errors.New("invalid compute unit limit")
)

// Meter tracks compute unit consumption for one transaction.
//
// A transaction's invocation context is strictly sequential, so the meter is
// not safe for concurrent use and does not need to be.
type Meter struct {
	remaining uint64
	consumed  uint64
	limit     uint64
	disabled  bool
}

// NewMeter creates a meter with the specified limit.
func NewMeter(limit uint64) *Meter {
	return &Meter{
		remaining: limit,
		limit:     limit,
	}
}

// NewMeterDisabled creates a meter that never charges (for testing).
func NewMeterDisabled() *Meter {
	return &Meter{
		remaining: ^uint64(0),
		limit:     ^uint64(0),
		disabled:  true,
	}
}

// Consume attempts to consume the specified compute units.
// Returns ErrComputeExceeded if insufficient units remain; the counter never
// goes negative and the failed debit leaves no partial charge behind it.
func (m *Meter) Consume(cost uint64) error {
	if m.disabled {
		return nil
	}
	if m.remaining < cost {
		m.remaining = 0
		return ErrComputeExceeded
	}
	m.remaining -= cost
	m.consumed += cost
	return nil
}

// ConsumeChecked consumes up to cost units, saturating at zero, and returns
// the amount actually consumed.
func (m *Meter) ConsumeChecked(cost uint64) uint64 {
	if m.disabled {
		return cost
	}
	actual := cost
	if m.remaining < cost {
		actual = m.remaining
	}
	m.remaining -= actual
	m.consumed += actual
	return actual
}

// Remaining returns the remaining compute units.
func (m *Meter) Remaining() uint64 {
	return m.remaining
}

// Consumed returns the total consumed compute units.
func (m *Meter) Consumed() uint64 {
	return m.consumed
}

// Limit returns the compute unit limit.
func (m *Meter) Limit() uint64 {
	return m.limit
}

// IsExhausted returns true if compute units are exhausted.
func (m *Meter) IsExhausted() bool {
	return !m.disabled && m.remaining == 0
}
