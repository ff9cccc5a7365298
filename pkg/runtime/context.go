package runtime

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fortiblox/X1-Sealevel/internal/types"
	"github.com/fortiblox/X1-Sealevel/pkg/cu"
	"github.com/fortiblox/X1-Sealevel/pkg/features"
	"github.com/fortiblox/X1-Sealevel/pkg/sysvar"
)

// Frame stack errors.
var (
	// ErrCallDepthExceeded is returned when a push would exceed the
	// configured invocation depth.
	ErrCallDepthExceeded = errors.New("max invoke depth exceeded")

	// ErrReentrancyNotAllowed is returned for indirect re-entrancy or for
	// direct self-recursion deeper than the configured limit.
	ErrReentrancyNotAllowed = errors.New("reentrancy not allowed")

	// ErrUnbalancedInstruction is returned when the lamport sum over a
	// frame's accounts changes between push and pop.
	ErrUnbalancedInstruction = errors.New("instruction changed total lamports")

	// ErrIllegalOwnerChange is returned when a frame reassigned an account
	// owner it had no authority over.
	ErrIllegalOwnerChange = errors.New("illegal account owner change")

	// ErrReturnDataTooLarge is returned when return data exceeds the cap.
	ErrReturnDataTooLarge = errors.New("return data too large")

	// ErrEmptyStack is returned by frame operations with no live frame.
	ErrEmptyStack = errors.New("no live invocation frame")
)

// InstructionAccount binds one instruction account slot to its transaction
// account and the privileges it carries in this frame.
type InstructionAccount struct {
	IndexInTransaction int
	IsSigner           bool
	IsWritable         bool
}

// Frame is one level of the invocation stack.
type Frame struct {
	ProgramID types.Pubkey
	Accounts  []InstructionAccount
	Data      []byte

	// Snapshots taken at push, checked at pop.
	lamportSum uint64
	owners     map[int]types.Pubkey
	dataLens   map[int]int
}

// InvokeContext is the per-transaction execution context: the frame stack,
// the shared account arena, the compute meter, sysvars, logs, and return
// data. It is not safe for concurrent use.
type InvokeContext struct {
	cfg      *Config
	meter    *cu.Meter
	sysvars  *sysvar.Cache
	accounts *Accounts
	stack    []*Frame
	logs     *LogCollector
	logger   *slog.Logger
	executor Executor

	returnDataProgram types.Pubkey
	returnData        []byte
}

// NewInvokeContext wires a fresh context for one transaction.
func NewInvokeContext(cfg *Config, meter *cu.Meter, sysvars *sysvar.Cache, accounts *Accounts) *InvokeContext {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &InvokeContext{
		cfg:      cfg,
		meter:    meter,
		sysvars:  sysvars,
		accounts: accounts,
		logs:     NewLogCollector(cfg.Budget.MaxLogBytes),
		logger:   logger,
	}
}

// SetExecutor installs the callee dispatcher used by cross-program invokes.
func (ic *InvokeContext) SetExecutor(e Executor) {
	ic.executor = e
}

// Config returns the execution limits.
func (ic *InvokeContext) Config() *Config { return ic.cfg }

// Meter returns the compute meter.
func (ic *InvokeContext) Meter() *cu.Meter { return ic.meter }

// Budget returns the compute cost table.
func (ic *InvokeContext) Budget() *cu.Budget { return ic.cfg.Budget }

// Features returns the feature-gate snapshot.
func (ic *InvokeContext) Features() *features.Set { return ic.cfg.Features }

// Sysvars returns the sysvar cache.
func (ic *InvokeContext) Sysvars() *sysvar.Cache { return ic.sysvars }

// Accounts returns the transaction account arena.
func (ic *InvokeContext) Accounts() *Accounts { return ic.accounts }

// Logs returns the program log collector.
func (ic *InvokeContext) Logs() *LogCollector { return ic.logs }

// StackHeight returns the current invocation depth. The top-level
// instruction runs at height 1.
func (ic *InvokeContext) StackHeight() int {
	return len(ic.stack)
}

// CurrentFrame returns the frame on top of the stack.
func (ic *InvokeContext) CurrentFrame() (*Frame, error) {
	if len(ic.stack) == 0 {
		return nil, ErrEmptyStack
	}
	return ic.stack[len(ic.stack)-1], nil
}

// selfRunDepth counts the consecutive frames at the top of the stack that
// belong to programID.
func (ic *InvokeContext) selfRunDepth(programID types.Pubkey) int {
	n := 0
	for i := len(ic.stack) - 1; i >= 0; i-- {
		if ic.stack[i].ProgramID != programID {
			break
		}
		n++
	}
	return n
}

// checkReentrancy enforces the invocation rules for a program already on
// the stack: direct self-recursion is allowed up to the configured limit,
// indirect re-entrancy never is.
func (ic *InvokeContext) checkReentrancy(programID types.Pubkey) error {
	onStack := false
	for _, f := range ic.stack {
		if f.ProgramID == programID {
			onStack = true
			break
		}
	}
	if !onStack {
		return nil
	}
	run := ic.selfRunDepth(programID)
	if run == 0 {
		return fmt.Errorf("%w: program %s is re-entered indirectly", ErrReentrancyNotAllowed, programID)
	}
	if run > ic.cfg.SelfRecursionLimit {
		return fmt.Errorf("%w: program %s exceeds self-recursion limit %d",
			ErrReentrancyNotAllowed, programID, ic.cfg.SelfRecursionLimit)
	}
	return nil
}

// lamportSum sums balances over the distinct transaction accounts of the
// instruction. Duplicate listings of one account count once.
func (ic *InvokeContext) lamportSum(accounts []InstructionAccount) (uint64, error) {
	seen := make(map[int]bool, len(accounts))
	var sum uint64
	for _, ia := range accounts {
		if seen[ia.IndexInTransaction] {
			continue
		}
		seen[ia.IndexInTransaction] = true
		acc, err := ic.accounts.Get(ia.IndexInTransaction)
		if err != nil {
			return 0, err
		}
		sum += acc.Lamports
	}
	return sum, nil
}

// Push opens a new frame for programID. It enforces the depth limit, the
// re-entrancy rules, and the borrow discipline, and snapshots the state the
// matching Pop will verify.
func (ic *InvokeContext) Push(programID types.Pubkey, accounts []InstructionAccount, data []byte) error {
	if len(ic.stack)+1 > ic.cfg.MaxInvokeDepth {
		return fmt.Errorf("%w: depth %d", ErrCallDepthExceeded, len(ic.stack)+1)
	}
	if err := ic.checkReentrancy(programID); err != nil {
		return err
	}

	// A nested instruction may not touch an account some live view still
	// holds in a conflicting mode.
	for _, ia := range accounts {
		live, exclusive := ic.accounts.HasLiveBorrow(ia.IndexInTransaction)
		if exclusive || (live && ia.IsWritable) {
			acc, err := ic.accounts.Get(ia.IndexInTransaction)
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: account %s is in use by a caller", ErrAccountBorrowFailed, acc.Key)
		}
	}

	sum, err := ic.lamportSum(accounts)
	if err != nil {
		return err
	}
	frame := &Frame{
		ProgramID:  programID,
		Accounts:   accounts,
		Data:       data,
		lamportSum: sum,
		owners:     make(map[int]types.Pubkey, len(accounts)),
		dataLens:   make(map[int]int, len(accounts)),
	}
	for _, ia := range accounts {
		acc, err := ic.accounts.Get(ia.IndexInTransaction)
		if err != nil {
			return err
		}
		frame.owners[ia.IndexInTransaction] = acc.Owner
		frame.dataLens[ia.IndexInTransaction] = len(acc.Data)
	}
	ic.stack = append(ic.stack, frame)
	ic.logger.Debug("frame push", "program", programID, "depth", len(ic.stack))
	return nil
}

// Pop closes the top frame after verifying lamport conservation and the
// owner-change rules. A failed verification is fatal to the transaction.
func (ic *InvokeContext) Pop() error {
	frame, err := ic.CurrentFrame()
	if err != nil {
		return err
	}
	sum, err := ic.lamportSum(frame.Accounts)
	if err != nil {
		return err
	}
	if sum != frame.lamportSum {
		return fmt.Errorf("%w: program %s: %d before, %d after",
			ErrUnbalancedInstruction, frame.ProgramID, frame.lamportSum, sum)
	}
	for _, ia := range frame.Accounts {
		acc, err := ic.accounts.Get(ia.IndexInTransaction)
		if err != nil {
			return err
		}
		before := frame.owners[ia.IndexInTransaction]
		if acc.Owner == before {
			continue
		}
		// Only the owning program may reassign, the account must be
		// writable in this frame, and the data must be zeroed so the new
		// owner never inherits state it did not write.
		if before != frame.ProgramID {
			return fmt.Errorf("%w: program %s does not own %s", ErrIllegalOwnerChange, frame.ProgramID, acc.Key)
		}
		if !ia.IsWritable {
			return fmt.Errorf("%w: account %s is not writable", ErrIllegalOwnerChange, acc.Key)
		}
		for _, b := range acc.Data {
			if b != 0 {
				return fmt.Errorf("%w: account %s has non-zero data", ErrIllegalOwnerChange, acc.Key)
			}
		}
	}
	ic.stack = ic.stack[:len(ic.stack)-1]
	ic.logger.Debug("frame pop", "program", frame.ProgramID, "depth", len(ic.stack), "units", ic.meter.Consumed())
	return nil
}

// SetReturnData records the data the current program hands to its caller.
// An empty payload clears it.
func (ic *InvokeContext) SetReturnData(programID types.Pubkey, data []byte) error {
	if uint64(len(data)) > ic.cfg.Budget.MaxReturnData {
		return fmt.Errorf("%w: %d bytes, max %d", ErrReturnDataTooLarge, len(data), ic.cfg.Budget.MaxReturnData)
	}
	ic.returnDataProgram = programID
	ic.returnData = data
	return nil
}

// ReturnData returns the last return data and the program that set it.
func (ic *InvokeContext) ReturnData() (types.Pubkey, []byte) {
	return ic.returnDataProgram, ic.returnData
}
