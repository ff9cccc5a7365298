package types

// AccountMeta describes an account referenced by an instruction, with the
// privileges requested for it.
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// Instruction is one program invocation: the program to run, the accounts it
// may touch, and its opaque input data.
type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}
