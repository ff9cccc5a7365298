package syscall

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/fortiblox/X1-Sealevel/pkg/features"
	"github.com/fortiblox/X1-Sealevel/pkg/memory"
)

// Group operations for sol_alt_bn128_group_op.
const (
	bn254OpAdd     = 0
	bn254OpSub     = 1
	bn254OpMul     = 2
	bn254OpPairing = 3
)

// BN254 wire sizes. Points are big-endian affine coordinates; G2 coordinate
// pairs carry the imaginary component first, matching the EVM precompiles.
const (
	bn254G1Size      = 64
	bn254G2Size      = 128
	bn254ScalarSize  = 32
	bn254PairSize    = bn254G1Size + bn254G2Size
	bn254OutputSize  = 64
	bn254PairingSize = 32
)

// registerAltBn128 registers sol_alt_bn128_group_op:
// r1 = op, r2 = input address, r3 = input size, r4 = result address.
// Malformed points are returned as r0=1; the transaction continues.
func (r *Registry) registerAltBn128() {
	ic := r.ic
	budget := ic.Budget()

	r.registerGated(features.AltBn128Syscall, "sol_alt_bn128_group_op",
		func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
			var cost uint64
			var outSize uint64
			switch r1 {
			case bn254OpAdd, bn254OpSub:
				cost, outSize = budget.Bn254AdditionCost, bn254OutputSize
				if r3 != 2*bn254G1Size {
					return 0, fmt.Errorf("%w: %d input bytes for add", ErrInvalidLength, r3)
				}
			case bn254OpMul:
				cost, outSize = budget.Bn254MultiplicationCost, bn254OutputSize
				if r3 != bn254G1Size+bn254ScalarSize {
					return 0, fmt.Errorf("%w: %d input bytes for mul", ErrInvalidLength, r3)
				}
			case bn254OpPairing:
				pairs := r3 / bn254PairSize
				if r3%bn254PairSize != 0 || pairs == 0 || pairs > budget.MaxBn254Pairs {
					return 0, fmt.Errorf("%w: %d input bytes for pairing", ErrInvalidLength, r3)
				}
				cost, outSize = budget.Bn254PairingBase+budget.Bn254PairingPerPair*pairs, bn254PairingSize
			default:
				return 0, fmt.Errorf("%w: group op %d", ErrInvalidArgument, r1)
			}
			if err := ic.Meter().Consume(cost); err != nil {
				return 0, err
			}
			input, err := mem.Translate(r2, r3, false)
			if err != nil {
				return 0, err
			}
			out, err := mem.Translate(r4, outSize, true)
			if err != nil {
				return 0, err
			}

			switch r1 {
			case bn254OpAdd, bn254OpSub:
				return bn254AddSub(r1 == bn254OpSub, input, out)
			case bn254OpMul:
				return bn254Mul(input, out)
			default:
				return bn254Pairing(input, out)
			}
		})
}

// decodeG1 parses a 64-byte big-endian affine G1 point. The all-zero
// encoding is the point at infinity.
func decodeG1(in []byte) (bn254.G1Affine, bool) {
	var p bn254.G1Affine
	if isAllZero(in) {
		return p, true
	}
	if err := p.X.SetBytesCanonical(in[:32]); err != nil {
		return p, false
	}
	if err := p.Y.SetBytesCanonical(in[32:64]); err != nil {
		return p, false
	}
	if !p.IsOnCurve() {
		return p, false
	}
	return p, true
}

// decodeG2 parses a 128-byte affine G2 point with imaginary-first
// coordinate encoding. Pairing inputs must also lie in the r-torsion
// subgroup.
func decodeG2(in []byte) (bn254.G2Affine, bool) {
	var q bn254.G2Affine
	if isAllZero(in) {
		return q, true
	}
	if err := q.X.A1.SetBytesCanonical(in[0:32]); err != nil {
		return q, false
	}
	if err := q.X.A0.SetBytesCanonical(in[32:64]); err != nil {
		return q, false
	}
	if err := q.Y.A1.SetBytesCanonical(in[64:96]); err != nil {
		return q, false
	}
	if err := q.Y.A0.SetBytesCanonical(in[96:128]); err != nil {
		return q, false
	}
	if !q.IsOnCurve() || !q.IsInSubGroup() {
		return q, false
	}
	return q, true
}

// encodeG1 writes a 64-byte big-endian affine encoding; infinity encodes as
// all zeros.
func encodeG1(p *bn254.G1Affine, out []byte) {
	for i := range out[:bn254G1Size] {
		out[i] = 0
	}
	if p.IsInfinity() {
		return
	}
	x := p.X.Bytes()
	y := p.Y.Bytes()
	copy(out[:32], x[:])
	copy(out[32:64], y[:])
}

func bn254AddSub(sub bool, input, out []byte) (uint64, error) {
	a, ok := decodeG1(input[:bn254G1Size])
	if !ok {
		return curveError, nil
	}
	b, ok := decodeG1(input[bn254G1Size : 2*bn254G1Size])
	if !ok {
		return curveError, nil
	}
	if sub {
		b.Neg(&b)
	}
	var aj, bj bn254.G1Jac
	aj.FromAffine(&a)
	bj.FromAffine(&b)
	aj.AddAssign(&bj)
	var res bn254.G1Affine
	res.FromJacobian(&aj)
	encodeG1(&res, out)
	return curveOK, nil
}

func bn254Mul(input, out []byte) (uint64, error) {
	p, ok := decodeG1(input[:bn254G1Size])
	if !ok {
		return curveError, nil
	}
	scalar := new(big.Int).SetBytes(input[bn254G1Size : bn254G1Size+bn254ScalarSize])
	var res bn254.G1Affine
	res.ScalarMultiplication(&p, scalar)
	encodeG1(&res, out)
	return curveOK, nil
}

func bn254Pairing(input, out []byte) (uint64, error) {
	pairs := len(input) / bn254PairSize
	g1s := make([]bn254.G1Affine, 0, pairs)
	g2s := make([]bn254.G2Affine, 0, pairs)
	for i := 0; i < pairs; i++ {
		chunk := input[i*bn254PairSize : (i+1)*bn254PairSize]
		p, ok := decodeG1(chunk[:bn254G1Size])
		if !ok {
			return curveError, nil
		}
		if !p.IsInfinity() && !p.IsInSubGroup() {
			return curveError, nil
		}
		q, ok := decodeG2(chunk[bn254G1Size:])
		if !ok {
			return curveError, nil
		}
		g1s = append(g1s, p)
		g2s = append(g2s, q)
	}
	ok, err := bn254.PairingCheck(g1s, g2s)
	if err != nil {
		return curveError, nil
	}
	for i := range out[:bn254PairingSize] {
		out[i] = 0
	}
	if ok {
		out[bn254PairingSize-1] = 1
	}
	return curveOK, nil
}

func isAllZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}
