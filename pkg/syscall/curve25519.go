package syscall

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/gtank/ristretto255"

	"github.com/fortiblox/X1-Sealevel/pkg/features"
	"github.com/fortiblox/X1-Sealevel/pkg/memory"
)

// Curve identifiers for the curve25519 syscall family.
const (
	curveEdwards   = 0
	curveRistretto = 1
)

// Group operations for sol_curve_group_op.
const (
	curveOpAdd = 0
	curveOpSub = 1
	curveOpMul = 2
)

// Curve syscall result codes. An invalid point or scalar is data to the
// caller, not a fault.
const (
	curveOK    = 0
	curveError = 1
)

// registerCurve25519 registers the edwards/ristretto point syscalls.
func (r *Registry) registerCurve25519() {
	ic := r.ic
	budget := ic.Budget()

	// sol_curve_validate_point: r1 = curve id, r2 = 32-byte point.
	r.registerGated(features.Curve25519Syscall, "sol_curve_validate_point",
		func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
			if err := ic.Meter().Consume(budget.CurveValidatePoint); err != nil {
				return 0, err
			}
			raw, err := mem.Translate(r2, 32, false)
			if err != nil {
				return 0, err
			}
			switch r1 {
			case curveEdwards:
				if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
					return curveError, nil
				}
			case curveRistretto:
				if err := ristretto255.NewElement().Decode(raw); err != nil {
					return curveError, nil
				}
			default:
				return 0, fmt.Errorf("%w: curve id %d", ErrInvalidArgument, r1)
			}
			return curveOK, nil
		})

	// sol_curve_group_op: r1 = curve id, r2 = op, r3 and r4 = 32-byte
	// inputs, r5 = 32-byte result. For multiplication r3 is the scalar.
	r.registerGated(features.Curve25519Syscall, "sol_curve_group_op",
		func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
			if err := ic.Meter().Consume(budget.CurveGroupOp); err != nil {
				return 0, err
			}
			left, err := mem.Translate(r3, 32, false)
			if err != nil {
				return 0, err
			}
			right, err := mem.Translate(r4, 32, false)
			if err != nil {
				return 0, err
			}
			out, err := mem.Translate(r5, 32, true)
			if err != nil {
				return 0, err
			}
			switch r1 {
			case curveEdwards:
				return edwardsGroupOp(r2, left, right, out)
			case curveRistretto:
				return ristrettoGroupOp(r2, left, right, out)
			default:
				return 0, fmt.Errorf("%w: curve id %d", ErrInvalidArgument, r1)
			}
		})

	// sol_curve_multiscalar_mul: r1 = curve id, r2 = scalars, r3 = points,
	// r4 = count, r5 = 32-byte result.
	r.registerGated(features.Curve25519Syscall, "sol_curve_multiscalar_mul",
		func(mem *memory.Map, r1, r2, r3, r4, r5 uint64) (uint64, error) {
			count := r4
			if count == 0 || count > budget.MaxCurvePoints {
				return 0, fmt.Errorf("%w: %d points, max %d", ErrInvalidArgument, count, budget.MaxCurvePoints)
			}
			cost := budget.CurveMSMBase + budget.CurveMSMPerPoint*count
			if err := ic.Meter().Consume(cost); err != nil {
				return 0, err
			}
			scalars, err := mem.Translate(r2, count*32, false)
			if err != nil {
				return 0, err
			}
			points, err := mem.Translate(r3, count*32, false)
			if err != nil {
				return 0, err
			}
			out, err := mem.Translate(r5, 32, true)
			if err != nil {
				return 0, err
			}
			switch r1 {
			case curveEdwards:
				return edwardsMSM(count, scalars, points, out)
			case curveRistretto:
				return ristrettoMSM(count, scalars, points, out)
			default:
				return 0, fmt.Errorf("%w: curve id %d", ErrInvalidArgument, r1)
			}
		})
}

func edwardsGroupOp(op uint64, left, right, out []byte) (uint64, error) {
	switch op {
	case curveOpAdd, curveOpSub:
		p, err := new(edwards25519.Point).SetBytes(left)
		if err != nil {
			return curveError, nil
		}
		q, err := new(edwards25519.Point).SetBytes(right)
		if err != nil {
			return curveError, nil
		}
		res := edwards25519.NewIdentityPoint()
		if op == curveOpAdd {
			res.Add(p, q)
		} else {
			res.Subtract(p, q)
		}
		copy(out, res.Bytes())
	case curveOpMul:
		s, err := new(edwards25519.Scalar).SetCanonicalBytes(left)
		if err != nil {
			return curveError, nil
		}
		q, err := new(edwards25519.Point).SetBytes(right)
		if err != nil {
			return curveError, nil
		}
		copy(out, new(edwards25519.Point).ScalarMult(s, q).Bytes())
	default:
		return 0, fmt.Errorf("%w: group op %d", ErrInvalidArgument, op)
	}
	return curveOK, nil
}

func ristrettoGroupOp(op uint64, left, right, out []byte) (uint64, error) {
	switch op {
	case curveOpAdd, curveOpSub:
		p := ristretto255.NewElement()
		if err := p.Decode(left); err != nil {
			return curveError, nil
		}
		q := ristretto255.NewElement()
		if err := q.Decode(right); err != nil {
			return curveError, nil
		}
		res := ristretto255.NewElement()
		if op == curveOpAdd {
			res.Add(p, q)
		} else {
			res.Subtract(p, q)
		}
		copy(out, res.Encode(nil))
	case curveOpMul:
		s := ristretto255.NewScalar()
		if err := s.Decode(left); err != nil {
			return curveError, nil
		}
		q := ristretto255.NewElement()
		if err := q.Decode(right); err != nil {
			return curveError, nil
		}
		copy(out, ristretto255.NewElement().ScalarMult(s, q).Encode(nil))
	default:
		return 0, fmt.Errorf("%w: group op %d", ErrInvalidArgument, op)
	}
	return curveOK, nil
}

func edwardsMSM(count uint64, scalars, points, out []byte) (uint64, error) {
	ss := make([]*edwards25519.Scalar, count)
	ps := make([]*edwards25519.Point, count)
	for i := uint64(0); i < count; i++ {
		s, err := new(edwards25519.Scalar).SetCanonicalBytes(scalars[i*32 : (i+1)*32])
		if err != nil {
			return curveError, nil
		}
		p, err := new(edwards25519.Point).SetBytes(points[i*32 : (i+1)*32])
		if err != nil {
			return curveError, nil
		}
		ss[i], ps[i] = s, p
	}
	res := edwards25519.NewIdentityPoint().MultiScalarMult(ss, ps)
	copy(out, res.Bytes())
	return curveOK, nil
}

func ristrettoMSM(count uint64, scalars, points, out []byte) (uint64, error) {
	acc := ristretto255.NewElement()
	term := ristretto255.NewElement()
	for i := uint64(0); i < count; i++ {
		s := ristretto255.NewScalar()
		if err := s.Decode(scalars[i*32 : (i+1)*32]); err != nil {
			return curveError, nil
		}
		p := ristretto255.NewElement()
		if err := p.Decode(points[i*32 : (i+1)*32]); err != nil {
			return curveError, nil
		}
		term.ScalarMult(s, p)
		acc.Add(acc, term)
	}
	copy(out, acc.Encode(nil))
	return curveOK, nil
}
