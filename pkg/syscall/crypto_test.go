package syscall

import (
	"bytes"
	"testing"

	"filippo.io/edwards25519"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestSecp256k1Recover(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	msgHash := crypto.Keccak256([]byte("signed message"))
	sig, err := crypto.Sign(msgHash, key)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	vm := newTestVM(t)
	hashAddr := vm.poke(t, 0, msgHash)
	sigAddr := vm.poke(t, 64, sig[:64])

	r0, err := vm.call(t, "sol_secp256k1_recover", hashAddr, uint64(sig[64]), sigAddr, in(256), 0)
	if err != nil {
		t.Fatalf("recover failed: %v", err)
	}
	if r0 != secpRecoverOK {
		t.Fatalf("r0 = %d, want 0", r0)
	}
	want := crypto.FromECDSAPub(&key.PublicKey)[1:]
	if got := vm.peek(t, 256, 64); !bytes.Equal(got, want) {
		t.Errorf("recovered pubkey = %x, want %x", got, want)
	}
}

func TestSecp256k1RecoverBadInputs(t *testing.T) {
	vm := newTestVM(t)
	hashAddr := vm.poke(t, 0, make([]byte, 32))
	sigAddr := vm.poke(t, 64, make([]byte, 64))

	// A bad recovery id is reported through r0, not a fault.
	r0, err := vm.call(t, "sol_secp256k1_recover", hashAddr, 9, sigAddr, in(256), 0)
	if err != nil {
		t.Fatalf("recover faulted: %v", err)
	}
	if r0 != secpRecoverInvalidRecoveryID {
		t.Errorf("r0 = %d, want %d", r0, secpRecoverInvalidRecoveryID)
	}

	// An all-zero signature cannot recover a key.
	r0, err = vm.call(t, "sol_secp256k1_recover", hashAddr, 0, sigAddr, in(256), 0)
	if err != nil {
		t.Fatalf("recover faulted: %v", err)
	}
	if r0 != secpRecoverInvalidSignature {
		t.Errorf("r0 = %d, want %d", r0, secpRecoverInvalidSignature)
	}
}

func TestCurveValidatePoint(t *testing.T) {
	vm := newTestVM(t)
	gen := edwards25519.NewGeneratorPoint().Bytes()
	genAddr := vm.poke(t, 0, gen)

	r0, err := vm.call(t, "sol_curve_validate_point", curveEdwards, genAddr, 0, 0, 0)
	if err != nil {
		t.Fatalf("validate faulted: %v", err)
	}
	if r0 != curveOK {
		t.Errorf("r0 = %d, want 0 for generator", r0)
	}

	bad := vm.poke(t, 64, bytes.Repeat([]byte{0xFF}, 32))
	r0, err = vm.call(t, "sol_curve_validate_point", curveEdwards, bad, 0, 0, 0)
	if err != nil {
		t.Fatalf("validate faulted: %v", err)
	}
	if r0 != curveError {
		t.Errorf("r0 = %d, want 1 for non-canonical encoding", r0)
	}
}

func TestCurveGroupOpAdd(t *testing.T) {
	vm := newTestVM(t)
	g := edwards25519.NewGeneratorPoint()
	gAddr := vm.poke(t, 0, g.Bytes())
	hAddr := vm.poke(t, 32, g.Bytes())

	r0, err := vm.call(t, "sol_curve_group_op", curveEdwards, curveOpAdd, gAddr, hAddr, in(64))
	if err != nil {
		t.Fatalf("group op faulted: %v", err)
	}
	if r0 != curveOK {
		t.Fatalf("r0 = %d, want 0", r0)
	}
	want := new(edwards25519.Point).Add(g, g).Bytes()
	if got := vm.peek(t, 64, 32); !bytes.Equal(got, want) {
		t.Errorf("G+G = %x, want %x", got, want)
	}

	// (G+G) - G = G round trip.
	r0, err = vm.call(t, "sol_curve_group_op", curveEdwards, curveOpSub, in(64), gAddr, in(96))
	if err != nil || r0 != curveOK {
		t.Fatalf("sub = (%d, %v)", r0, err)
	}
	if got := vm.peek(t, 96, 32); !bytes.Equal(got, g.Bytes()) {
		t.Errorf("2G-G = %x, want G", got)
	}
}

func TestCurveMultiscalarMul(t *testing.T) {
	vm := newTestVM(t)
	g := edwards25519.NewGeneratorPoint()

	// Scalars 2 and 3 against (G, G): result is 5G.
	two := make([]byte, 32)
	two[0] = 2
	three := make([]byte, 32)
	three[0] = 3
	five := make([]byte, 32)
	five[0] = 5

	scalars := vm.poke(t, 0, append(append([]byte{}, two...), three...))
	points := vm.poke(t, 64, append(append([]byte{}, g.Bytes()...), g.Bytes()...))

	r0, err := vm.call(t, "sol_curve_multiscalar_mul", curveEdwards, scalars, points, 2, in(128))
	if err != nil {
		t.Fatalf("msm faulted: %v", err)
	}
	if r0 != curveOK {
		t.Fatalf("r0 = %d, want 0", r0)
	}
	s5, err := new(edwards25519.Scalar).SetCanonicalBytes(five)
	if err != nil {
		t.Fatalf("scalar: %v", err)
	}
	want := new(edwards25519.Point).ScalarMult(s5, g).Bytes()
	if got := vm.peek(t, 128, 32); !bytes.Equal(got, want) {
		t.Errorf("msm = %x, want 5G = %x", got, want)
	}
}
