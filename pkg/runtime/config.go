// Package runtime implements the invocation context for one transaction:
// the CPI frame stack, the account borrow discipline, bounded program-log
// capture, and return data.
//
// An InvokeContext is owned by the runtime for the lifetime of one
// transaction and is strictly sequential: a syscall either fully completes
// or fully fails before any side effect is committed. Concurrency exists
// only across transactions, each with its own context.
package runtime

import (
	"log/slog"

	"github.com/fortiblox/X1-Sealevel/pkg/cu"
	"github.com/fortiblox/X1-Sealevel/pkg/features"
)

// Config carries the execution limits for one protocol version. Literal
// numeric limits are protocol parameters that evolve over time, so they live
// here rather than in the call sites.
type Config struct {
	// MaxInvokeDepth bounds the CPI frame stack, counting the top-level
	// instruction as depth 1.
	MaxInvokeDepth int

	// SelfRecursionLimit is the number of nested direct self-invocations a
	// program may make. Indirect re-entrancy (A calls B calls A) is always
	// rejected.
	SelfRecursionLimit int

	// Budget is the compute cost table.
	Budget *cu.Budget

	// Features is the immutable feature-gate snapshot.
	Features *features.Set

	// Logger receives host-side diagnostics at Debug level. Program log
	// output goes through the LogCollector, never here.
	Logger *slog.Logger
}

// DefaultConfig returns the limits for the current protocol version.
func DefaultConfig() *Config {
	return &Config{
		MaxInvokeDepth:     5,
		SelfRecursionLimit: 1,
		Budget:             cu.DefaultBudget(),
		Features:           features.AllEnabled(),
		Logger:             slog.Default(),
	}
}
