package syscall

import (
	"fmt"

	"github.com/fortiblox/X1-Sealevel/internal/types"
	"github.com/fortiblox/X1-Sealevel/pkg/memory"
)

// C ABI struct sizes.
//
//	SolInstruction  { program_id*, accounts*, account_len, data*, data_len }
//	SolAccountMeta  { pubkey*, is_writable, is_signer }
const (
	solInstructionSize = 40
	solAccountMetaSize = 10
)

// Rust ABI offsets into StableInstruction:
// accounts StableVec (ptr, cap, len), data StableVec (ptr, cap, len),
// then the program id inline.
const (
	rustAccountsPtrOff = 0
	rustAccountsLenOff = 16
	rustDataPtrOff     = 24
	rustDataLenOff     = 40
	rustProgramIDOff   = 48
	rustAccountMetaLen = 34 // pubkey inline (32) + is_signer + is_writable
)

// readSignerSeeds reads the nested signer-seed groups: count (ptr, len)
// group headers at addr, each pointing at an array of (ptr, len) seeds.
func (r *Registry) readSignerSeeds(mem *memory.Map, addr, count uint64) ([][][]byte, error) {
	budget := r.ic.Budget()
	if count > budget.MaxSeeds {
		return nil, fmt.Errorf("%w: %d signer seed groups, max %d", ErrInvalidArgument, count, budget.MaxSeeds)
	}
	groups := make([][][]byte, count)
	for i := uint64(0); i < count; i++ {
		groupPtr, err := mem.Read64(addr + i*16)
		if err != nil {
			return nil, err
		}
		groupLen, err := mem.Read64(addr + i*16 + 8)
		if err != nil {
			return nil, err
		}
		seeds, err := r.readSeeds(mem, groupPtr, groupLen)
		if err != nil {
			return nil, err
		}
		groups[i] = seeds
	}
	return groups, nil
}

// readInstructionC decodes a SolInstruction in the C ABI at addr.
func (r *Registry) readInstructionC(mem *memory.Map, addr uint64) (types.Instruction, error) {
	var ix types.Instruction
	budget := r.ic.Budget()

	programIDPtr, err := mem.Read64(addr)
	if err != nil {
		return ix, err
	}
	accountsPtr, err := mem.Read64(addr + 8)
	if err != nil {
		return ix, err
	}
	accountsLen, err := mem.Read64(addr + 16)
	if err != nil {
		return ix, err
	}
	dataPtr, err := mem.Read64(addr + 24)
	if err != nil {
		return ix, err
	}
	dataLen, err := mem.Read64(addr + 32)
	if err != nil {
		return ix, err
	}
	if accountsLen > budget.MaxCpiAccountInfos {
		return ix, fmt.Errorf("%w: %d account metas", ErrInvalidLength, accountsLen)
	}
	if dataLen > budget.MaxInstructionData {
		return ix, fmt.Errorf("%w: %d data bytes", ErrInvalidLength, dataLen)
	}

	if err := mem.Read(programIDPtr, ix.ProgramID[:]); err != nil {
		return ix, err
	}
	ix.Accounts = make([]types.AccountMeta, accountsLen)
	for i := uint64(0); i < accountsLen; i++ {
		metaAddr := accountsPtr + i*solAccountMetaSize
		pubkeyPtr, err := mem.Read64(metaAddr)
		if err != nil {
			return ix, err
		}
		if err := mem.Read(pubkeyPtr, ix.Accounts[i].Pubkey[:]); err != nil {
			return ix, err
		}
		isWritable, err := mem.Read8(metaAddr + 8)
		if err != nil {
			return ix, err
		}
		isSigner, err := mem.Read8(metaAddr + 9)
		if err != nil {
			return ix, err
		}
		ix.Accounts[i].IsWritable = isWritable != 0
		ix.Accounts[i].IsSigner = isSigner != 0
	}
	if dataLen > 0 {
		ix.Data = make([]byte, dataLen)
		if err := mem.Read(dataPtr, ix.Data); err != nil {
			return ix, err
		}
	}
	return ix, nil
}

// readInstructionRust decodes a StableInstruction in the Rust ABI at addr.
func (r *Registry) readInstructionRust(mem *memory.Map, addr uint64) (types.Instruction, error) {
	var ix types.Instruction
	budget := r.ic.Budget()

	accountsPtr, err := mem.Read64(addr + rustAccountsPtrOff)
	if err != nil {
		return ix, err
	}
	accountsLen, err := mem.Read64(addr + rustAccountsLenOff)
	if err != nil {
		return ix, err
	}
	dataPtr, err := mem.Read64(addr + rustDataPtrOff)
	if err != nil {
		return ix, err
	}
	dataLen, err := mem.Read64(addr + rustDataLenOff)
	if err != nil {
		return ix, err
	}
	if accountsLen > budget.MaxCpiAccountInfos {
		return ix, fmt.Errorf("%w: %d account metas", ErrInvalidLength, accountsLen)
	}
	if dataLen > budget.MaxInstructionData {
		return ix, fmt.Errorf("%w: %d data bytes", ErrInvalidLength, dataLen)
	}

	if err := mem.Read(addr+rustProgramIDOff, ix.ProgramID[:]); err != nil {
		return ix, err
	}
	ix.Accounts = make([]types.AccountMeta, accountsLen)
	for i := uint64(0); i < accountsLen; i++ {
		metaAddr := accountsPtr + i*rustAccountMetaLen
		if err := mem.Read(metaAddr, ix.Accounts[i].Pubkey[:]); err != nil {
			return ix, err
		}
		isSigner, err := mem.Read8(metaAddr + 32)
		if err != nil {
			return ix, err
		}
		isWritable, err := mem.Read8(metaAddr + 33)
		if err != nil {
			return ix, err
		}
		ix.Accounts[i].IsSigner = isSigner != 0
		ix.Accounts[i].IsWritable = isWritable != 0
	}
	if dataLen > 0 {
		ix.Data = make([]byte, dataLen)
		if err := mem.Read(dataPtr, ix.Data); err != nil {
			return ix, err
		}
	}
	return ix, nil
}

// registerCPI registers the cross-program invocation and return-data
// syscalls.
func (r *Registry) registerCPI() {
	ic := r.ic
	budget := ic.Budget()

	invoke := func(decode func(*memory.Map, uint64) (types.Instruction, error)) Handler {
		return func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
			// r2/r3 carry the caller's account-info array; privileges come
			// from the invocation context, so only the instruction and the
			// signer seeds are decoded here.
			ix, err := decode(mem, r1)
			if err != nil {
				return 0, err
			}
			var signerSeeds [][][]byte
			if r4 != 0 && r5 > 0 {
				signerSeeds, err = r.readSignerSeeds(mem, r4, r5)
				if err != nil {
					return 0, err
				}
			}
			if err := ic.NativeInvoke(ix, signerSeeds); err != nil {
				return 0, err
			}
			return 0, nil
		}
	}

	// sol_invoke_signed_c: r1 = SolInstruction, r4/r5 = signer seeds.
	r.register("sol_invoke_signed_c", invoke(r.readInstructionC))

	// sol_invoke_signed_rust: r1 = StableInstruction, r4/r5 = signer seeds.
	r.register("sol_invoke_signed_rust", invoke(r.readInstructionRust))

	// sol_set_return_data: r1 = data, r2 = length. Length zero clears.
	r.register("sol_set_return_data", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		cost := budget.SyscallBase
		if budget.CpiBytesPerUnit > 0 {
			cost += r2 / budget.CpiBytesPerUnit
		}
		if err := ic.Meter().Consume(cost); err != nil {
			return 0, err
		}
		frame, err := ic.CurrentFrame()
		if err != nil {
			return 0, err
		}
		var data []byte
		if r2 > 0 {
			src, err := mem.Translate(r1, r2, false)
			if err != nil {
				return 0, err
			}
			data = make([]byte, r2)
			copy(data, src)
		}
		if err := ic.SetReturnData(frame.ProgramID, data); err != nil {
			return 0, err
		}
		return 0, nil
	})

	// sol_get_return_data: copies up to r2 bytes to r1 and the setter's
	// program id to r3; returns the full length in r0.
	r.register("sol_get_return_data", func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
		if err := ic.Meter().Consume(budget.SyscallBase); err != nil {
			return 0, err
		}
		programID, data := ic.ReturnData()
		copyLen := uint64(len(data))
		if copyLen > r2 {
			copyLen = r2
		}
		if copyLen > 0 {
			if budget.CpiBytesPerUnit > 0 {
				if err := ic.Meter().Consume(copyLen / budget.CpiBytesPerUnit); err != nil {
					return 0, err
				}
			}
			if !memory.IsNonOverlapping(r1, copyLen, r3, 32) {
				return 0, fmt.Errorf("%w: return data and program id buffers overlap", memory.ErrOverlappingCopy)
			}
			if err := mem.Write(r1, data[:copyLen]); err != nil {
				return 0, err
			}
			if err := mem.Write(r3, programID[:]); err != nil {
				return 0, err
			}
		}
		return uint64(len(data)), nil
	})
}
