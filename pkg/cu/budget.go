package cu

// Budget carries every syscall cost constant and secondary cap for one
// protocol version. Limits are configuration, not hard-coded per call site:
// the runtime threads one immutable Budget snapshot through the invocation
// context at construction time.
type Budget struct {
	// Transaction-level limits.
	ComputeUnitLimit uint64 // default CU limit per transaction
	MaxComputeUnits  uint64 // hard cap on the limit

	// Base costs.
	SyscallBase uint64 // flat cost charged by every syscall

	// Logging.
	LogBase       uint64
	LogPerByte    uint64
	Log64Units    uint64
	LogPubkey     uint64
	MaxLogBytes   uint64 // log collector capacity (bytes)
	MaxLogDataLen uint64 // per-slice cap for sol_log_data

	// Memory operations.
	MemOpBase    uint64
	MemOpPerByte uint64
	MaxMemOpSize uint64

	// Hashing.
	HashBase      uint64 // sha256/keccak256/blake3 base
	HashPerByte   uint64
	MaxHashSlices uint64 // secondary cap on slice count per call

	// Signature recovery.
	Secp256k1Recover uint64

	// Curve25519 operations.
	CurveValidatePoint uint64
	CurveGroupOp       uint64
	CurveMSMBase       uint64
	CurveMSMPerPoint   uint64
	MaxCurvePoints     uint64 // secondary cap for multiscalar multiplication

	// BN254 (alt_bn128) operations.
	Bn254AdditionCost       uint64
	Bn254MultiplicationCost uint64
	Bn254PairingBase        uint64
	Bn254PairingPerPair     uint64
	MaxBn254Pairs           uint64

	// Modular exponentiation.
	ModExpBase    uint64
	ModExpPerByte uint64
	MaxModExpLen  uint64 // max operand length in bytes

	// Poseidon.
	PoseidonBase     uint64
	PoseidonPerInput uint64
	MaxPoseidonWidth uint64 // max number of field-element inputs

	// Program-derived addresses.
	CreateProgramAddress uint64 // per derivation attempt
	MaxSeeds             uint64
	MaxSeedLen           uint64

	// CPI.
	InvokeBase         uint64
	CpiBytesPerUnit    uint64 // bytes of CPI traffic per compute unit
	MaxInstructionData uint64
	MaxCpiAccountInfos uint64
	MaxReturnData      uint64

	// Sysvars are charged SyscallBase plus their serialized size.
}

// DefaultBudget returns the budget for the current protocol version.
func DefaultBudget() *Budget {
	return &Budget{
		ComputeUnitLimit: 200_000,
		MaxComputeUnits:  1_400_000,

		SyscallBase: 100,

		LogBase:       100,
		LogPerByte:    1,
		Log64Units:    100,
		LogPubkey:     100,
		MaxLogBytes:   10_000,
		MaxLogDataLen: 10_000,

		MemOpBase:    10,
		MemOpPerByte: 1,
		MaxMemOpSize: 10 * 1024 * 1024,

		HashBase:      85,
		HashPerByte:   1,
		MaxHashSlices: 100,

		Secp256k1Recover: 25_000,

		CurveValidatePoint: 5_000,
		CurveGroupOp:       5_000,
		CurveMSMBase:       10_000,
		CurveMSMPerPoint:   1_500,
		MaxCurvePoints:     512,

		Bn254AdditionCost:       334,
		Bn254MultiplicationCost: 3_840,
		Bn254PairingBase:        36_364,
		Bn254PairingPerPair:     12_121,
		MaxBn254Pairs:           16,

		ModExpBase:    190,
		ModExpPerByte: 2,
		MaxModExpLen:  512,

		PoseidonBase:     542,
		PoseidonPerInput: 61,
		MaxPoseidonWidth: 12,

		CreateProgramAddress: 1_500,
		MaxSeeds:             16,
		MaxSeedLen:           32,

		InvokeBase:         1_000,
		CpiBytesPerUnit:    250,
		MaxInstructionData: 10 * 1024,
		MaxCpiAccountInfos: 128,
		MaxReturnData:      1_024,
	}
}
