package runtime

import (
	"errors"
	"fmt"

	"github.com/fortiblox/X1-Sealevel/internal/types"
)

// CPI errors.
var (
	// ErrPrivilegeEscalation is returned when a nested instruction requests
	// a privilege its caller does not hold.
	ErrPrivilegeEscalation = errors.New("cross-program privilege escalation")

	// ErrInstructionDataTooLarge is returned when nested instruction data
	// exceeds the cap.
	ErrInstructionDataTooLarge = errors.New("instruction data too large")

	// ErrTooManyAccounts is returned when a nested instruction lists more
	// accounts than the cap allows.
	ErrTooManyAccounts = errors.New("too many instruction accounts")

	// ErrMissingExecutor is returned when no callee dispatcher is installed.
	ErrMissingExecutor = errors.New("no executor installed")
)

// Executor runs one prepared instruction in an already-pushed frame.
// The engine owns push and pop; the executor only runs the callee.
type Executor interface {
	Execute(ic *InvokeContext, programID types.Pubkey, accounts []InstructionAccount, data []byte) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ic *InvokeContext, programID types.Pubkey, accounts []InstructionAccount, data []byte) error

// Execute calls f.
func (f ExecutorFunc) Execute(ic *InvokeContext, programID types.Pubkey, accounts []InstructionAccount, data []byte) error {
	return f(ic, programID, accounts, data)
}

// callerPrivileges collapses the caller frame's account list into the
// strongest privilege the caller holds per transaction account.
func callerPrivileges(frame *Frame) map[int]InstructionAccount {
	privs := make(map[int]InstructionAccount, len(frame.Accounts))
	for _, ia := range frame.Accounts {
		p := privs[ia.IndexInTransaction]
		p.IndexInTransaction = ia.IndexInTransaction
		p.IsSigner = p.IsSigner || ia.IsSigner
		p.IsWritable = p.IsWritable || ia.IsWritable
		privs[ia.IndexInTransaction] = p
	}
	return privs
}

// derivePDASigners resolves each signer-seed group into the address it
// derives for the calling program. The derived set extends the caller's
// signing authority for this one invoke.
func (ic *InvokeContext) derivePDASigners(caller types.Pubkey, signerSeeds [][][]byte) (map[types.Pubkey]bool, error) {
	signers := make(map[types.Pubkey]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		addr, err := CreateProgramAddress(ic.meter, ic.cfg.Budget, seeds, caller)
		if err != nil {
			return nil, err
		}
		signers[addr] = true
	}
	return signers, nil
}

// PrepareInstruction maps a nested instruction's account metas to
// transaction accounts and derives the privileges the callee frame will
// hold. Every requested privilege must be covered by the caller, except
// signer status granted by a PDA the calling program controls.
func (ic *InvokeContext) PrepareInstruction(ix types.Instruction, pdaSigners map[types.Pubkey]bool) ([]InstructionAccount, error) {
	frame, err := ic.CurrentFrame()
	if err != nil {
		return nil, err
	}
	privs := callerPrivileges(frame)

	out := make([]InstructionAccount, 0, len(ix.Accounts))
	for _, meta := range ix.Accounts {
		index, ok := ic.accounts.IndexOf(meta.Pubkey)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, meta.Pubkey)
		}
		callerPriv, visible := privs[index]
		if !visible {
			return nil, fmt.Errorf("%w: account %s is not in the caller's frame", ErrPrivilegeEscalation, meta.Pubkey)
		}
		if meta.IsWritable && !callerPriv.IsWritable {
			return nil, fmt.Errorf("%w: account %s is not writable by the caller", ErrPrivilegeEscalation, meta.Pubkey)
		}
		if meta.IsSigner && !callerPriv.IsSigner && !pdaSigners[meta.Pubkey] {
			return nil, fmt.Errorf("%w: account %s did not sign for the caller", ErrPrivilegeEscalation, meta.Pubkey)
		}
		out = append(out, InstructionAccount{
			IndexInTransaction: index,
			IsSigner:           meta.IsSigner,
			IsWritable:         meta.IsWritable,
		})
	}
	return out, nil
}

// NativeInvoke runs one cross-program invocation end to end: it charges the
// invoke cost, validates the nested instruction against the caps, derives
// PDA signers from signerSeeds, checks privileges, pushes a frame, runs the
// executor, and pops with the conservation checks.
func (ic *InvokeContext) NativeInvoke(ix types.Instruction, signerSeeds [][][]byte) error {
	if ic.executor == nil {
		return ErrMissingExecutor
	}
	frame, err := ic.CurrentFrame()
	if err != nil {
		return err
	}
	budget := ic.cfg.Budget
	if err := ic.meter.Consume(budget.InvokeBase); err != nil {
		return err
	}
	if uint64(len(ix.Data)) > budget.MaxInstructionData {
		return fmt.Errorf("%w: %d bytes, max %d", ErrInstructionDataTooLarge, len(ix.Data), budget.MaxInstructionData)
	}
	if uint64(len(ix.Accounts)) > budget.MaxCpiAccountInfos {
		return fmt.Errorf("%w: %d accounts, max %d", ErrTooManyAccounts, len(ix.Accounts), budget.MaxCpiAccountInfos)
	}
	// Traffic across the boundary is metered by volume.
	traffic := uint64(len(ix.Data)) + uint64(len(ix.Accounts))*uint64(len(types.Pubkey{}))
	if budget.CpiBytesPerUnit > 0 {
		if err := ic.meter.Consume(traffic / budget.CpiBytesPerUnit); err != nil {
			return err
		}
	}

	pdaSigners, err := ic.derivePDASigners(frame.ProgramID, signerSeeds)
	if err != nil {
		return err
	}
	accounts, err := ic.PrepareInstruction(ix, pdaSigners)
	if err != nil {
		return err
	}
	if err := ic.Push(ix.ProgramID, accounts, ix.Data); err != nil {
		return err
	}
	if err := ic.executor.Execute(ic, ix.ProgramID, accounts, ix.Data); err != nil {
		return err
	}
	return ic.Pop()
}
