// Package sign implements the latticekit digital signature scheme, a
// module-lattice Fiat-Shamir-with-aborts construction with deterministic
// signing.
package sign

import (
	"errors"

	latticekit "github.com/pqcraft/latticekit-go"
	"github.com/pqcraft/latticekit-go/core"
	"github.com/pqcraft/latticekit-go/ring"
	"github.com/pqcraft/latticekit-go/utils"
)

const (
	DomainKeyGen = "latticekit-sign-keygen-v1"

	// MaxSigningAttempts bounds the rejection-sampling loop. The expected
	// number of attempts is single-digit for every parameter set, so
	// exhausting this bound indicates corrupted key material.
	MaxSigningAttempts = 576

	// muSize is the size of the message representative in bytes.
	muSize = 64
)

var (
	// ErrInvalidPublicKey indicates a malformed serialized public key.
	ErrInvalidPublicKey = errors.New("invalid public key encoding")
	// ErrInvalidSecretKey indicates a malformed serialized secret key.
	ErrInvalidSecretKey = errors.New("invalid secret key encoding")
	// ErrInvalidSignature indicates a malformed serialized signature.
	ErrInvalidSignature = errors.New("invalid signature encoding")
	// ErrMessageTooLarge indicates a message above the signing size limit.
	ErrMessageTooLarge = errors.New("message exceeds maximum size")
	// ErrSamplingExhausted indicates the rejection loop hit its bound.
	ErrSamplingExhausted = errors.New("rejection sampling exhausted")
)

// rq is the signature polynomial ring Z_q[X]/(X^256+1) with q = 8380417.
var rq = ring.New(core.SignQ, core.SignRoot, 8)

// GenerateKeyPair generates a signature key pair for the given algorithm.
func GenerateKeyPair(alg latticekit.SignAlgorithm) (*latticekit.SignKeyPair, error) {
	params, err := core.GetSignParams(alg)
	if err != nil {
		return nil, err
	}

	seed, err := utils.SecureRandomBytes(core.SeedSize)
	if err != nil {
		return nil, err
	}

	kp, err := GenerateKeyPairFromSeed(params, seed)
	utils.Zeroize(seed)
	return kp, err
}

// GenerateKeyPairFromSeed generates a deterministic key pair from seed.
func GenerateKeyPairFromSeed(params latticekit.SignParams, seed []byte) (*latticekit.SignKeyPair, error) {
	if err := core.ValidateSignParams(params); err != nil {
		return nil, err
	}
	if len(seed) < core.SeedSize {
		return nil, errors.New("seed must be at least 32 bytes")
	}
	if err := utils.ValidateSeedEntropy(seed); err != nil {
		return nil, err
	}

	zeta := utils.HashWithDomain(DomainKeyGen, seed)
	expanded := utils.Shake256(zeta, 128)
	utils.Zeroize(zeta)

	var rho, key [32]byte
	copy(rho[:], expanded[:32])
	rhoPrime := expanded[32:96]
	copy(key[:], expanded[96:])

	k, l := params.K, params.L
	a := expandA(rho, k, l)

	s1 := make([]ring.Poly, l)
	s2 := make([]ring.Poly, k)
	for i := 0; i < l; i++ {
		s1[i] = rq.SampleUniformEta(rhoPrime, uint16(i), params.Eta)
	}
	for i := 0; i < k; i++ {
		s2[i] = rq.SampleUniformEta(rhoPrime, uint16(l+i), params.Eta)
	}
	utils.Zeroize(expanded)

	s1Hat := make([]ring.Poly, l)
	for i := 0; i < l; i++ {
		s1Hat[i] = rq.NTT(s1[i])
	}

	// t = A*s1 + s2, split into high and low halves.
	t1 := make([]ring.Poly, k)
	t0 := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		var acc ring.Poly
		for j := 0; j < l; j++ {
			acc = rq.Add(acc, rq.MulNTT(a[i][j], s1Hat[j]))
		}
		t := rq.Add(rq.InvNTT(acc), s2[i])
		t1[i], t0[i] = rq.Power2Round(t, params.D)
	}

	publicKey := latticekit.SignPublicKey{
		Rho:    rho,
		T1:     t1,
		Params: params,
	}

	secretKey := latticekit.SignSecretKey{
		Rho:    rho,
		Key:    key,
		S1:     s1,
		S2:     s2,
		T0:     t0,
		Params: params,
	}
	copy(secretKey.Tr[:], utils.SHA3256(SerializePublicKey(&publicKey)))

	return &latticekit.SignKeyPair{
		PublicKey: publicKey,
		SecretKey: secretKey,
	}, nil
}

// Sign produces a deterministic signature over msg. The same key and message
// always yield the same signature bytes.
func Sign(sk *latticekit.SignSecretKey, msg []byte) ([]byte, error) {
	params := sk.Params
	if err := core.ValidateSignParams(params); err != nil {
		return nil, err
	}
	if err := utils.CheckLength(len(msg), utils.MaxMessageSize); err != nil {
		return nil, ErrMessageTooLarge
	}
	k, l := params.K, params.L
	if len(sk.S1) != l || len(sk.S2) != k || len(sk.T0) != k {
		return nil, ErrInvalidSecretKey
	}

	mu := utils.Shake256Concat(muSize, sk.Tr[:], msg)
	rhoPrime := utils.Shake256Concat(muSize, sk.Key[:], mu)
	defer utils.Zeroize(rhoPrime)

	a := expandA(sk.Rho, k, l)
	s1Hat := make([]ring.Poly, l)
	for i := 0; i < l; i++ {
		s1Hat[i] = rq.NTT(sk.S1[i])
	}
	s2Hat := make([]ring.Poly, k)
	t0Hat := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		s2Hat[i] = rq.NTT(sk.S2[i])
		t0Hat[i] = rq.NTT(sk.T0[i])
	}

	var kappa uint16
	for attempt := 0; attempt < MaxSigningAttempts; attempt++ {
		y := make([]ring.Poly, l)
		yHat := make([]ring.Poly, l)
		for i := 0; i < l; i++ {
			y[i] = rq.SampleMask(rhoPrime, kappa, params.Gamma1)
			yHat[i] = rq.NTT(y[i])
			kappa++
		}

		// w = A*y, decomposed for the challenge hash.
		w := make([]ring.Poly, k)
		w1 := make([]ring.Poly, k)
		for i := 0; i < k; i++ {
			var acc ring.Poly
			for j := 0; j < l; j++ {
				acc = rq.Add(acc, rq.MulNTT(a[i][j], yHat[j]))
			}
			w[i] = rq.InvNTT(acc)
			w1[i] = rq.HighBits(w[i], params.Gamma2)
		}

		var cTilde [32]byte
		copy(cTilde[:], utils.Shake256Concat(32, mu, packW1(w1, params)))
		cHat := rq.NTT(rq.SampleInBall(cTilde[:], params.Tau))

		// z = y + c*s1, rejected unless well within the mask range.
		z := make([]ring.Poly, l)
		zOK := true
		for i := 0; i < l; i++ {
			z[i] = rq.Add(y[i], rq.InvNTT(rq.MulNTT(cHat, s1Hat[i])))
			if rq.InfNorm(z[i]) >= params.Gamma1-params.Beta {
				zOK = false
				break
			}
		}
		if !zOK {
			rejectCandidates(y, z)
			continue
		}

		// The low half of w - c*s2 must not leak the secret.
		wSubCS2 := make([]ring.Poly, k)
		lowOK := true
		for i := 0; i < k; i++ {
			wSubCS2[i] = rq.Sub(w[i], rq.InvNTT(rq.MulNTT(cHat, s2Hat[i])))
			if rq.InfNorm(rq.LowBits(wSubCS2[i], params.Gamma2)) >= params.Gamma2-params.Beta {
				lowOK = false
				break
			}
		}
		if !lowOK {
			rejectCandidates(y, z)
			continue
		}

		// Hints let the verifier recover HighBits without t0.
		hint := make([]ring.Poly, k)
		hintWeight := 0
		ct0OK := true
		for i := 0; i < k; i++ {
			ct0 := rq.InvNTT(rq.MulNTT(cHat, t0Hat[i]))
			if rq.InfNorm(ct0) >= params.Gamma2 {
				ct0OK = false
				break
			}
			var weight int
			hint[i], weight = rq.MakeHint(rq.Sub(ring.Poly{}, ct0), rq.Add(wSubCS2[i], ct0), params.Gamma2)
			hintWeight += weight
		}
		if !ct0OK || hintWeight > params.Omega {
			rejectCandidates(y, z)
			continue
		}

		sig := latticekit.Signature{
			CTilde: cTilde,
			Z:      z,
			Hint:   hint,
		}
		return SerializeSignature(&sig, params), nil
	}

	return nil, ErrSamplingExhausted
}

// Verify reports whether sig is a valid signature over msg under pk.
// Malformed inputs verify as false; Verify never returns an error.
func Verify(pk *latticekit.SignPublicKey, msg, sig []byte) bool {
	params := pk.Params
	if core.ValidateSignParams(params) != nil {
		return false
	}
	if len(pk.T1) != params.K {
		return false
	}
	decoded, err := DeserializeSignature(sig, params)
	if err != nil {
		return false
	}
	for _, z := range decoded.Z {
		if rq.InfNorm(z) >= params.Gamma1-params.Beta {
			return false
		}
	}

	k, l := params.K, params.L
	tr := utils.SHA3256(SerializePublicKey(pk))
	mu := utils.Shake256Concat(muSize, tr, msg)

	a := expandA(pk.Rho, k, l)
	cHat := rq.NTT(rq.SampleInBall(decoded.CTilde[:], params.Tau))

	zHat := make([]ring.Poly, l)
	for i := 0; i < l; i++ {
		zHat[i] = rq.NTT(decoded.Z[i])
	}

	// w' = A*z - c*t1*2^d; the hints recover HighBits(w) from it.
	w1 := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		var acc ring.Poly
		for j := 0; j < l; j++ {
			acc = rq.Add(acc, rq.MulNTT(a[i][j], zHat[j]))
		}
		t1Shifted := rq.NTT(rq.ScalarMul(int32(1)<<params.D, pk.T1[i]))
		approx := rq.InvNTT(rq.Sub(acc, rq.MulNTT(cHat, t1Shifted)))
		w1[i] = rq.UseHint(decoded.Hint[i], approx, params.Gamma2)
	}

	expected := utils.Shake256Concat(32, mu, packW1(w1, params))
	return utils.ConstantTimeEqual(expected, decoded.CTilde[:])
}

// expandA derives the k x l public matrix from rho with SHAKE128. Both the
// signer and verifier use the same orientation.
func expandA(rho [32]byte, k, l int) [][]ring.Poly {
	a := make([][]ring.Poly, k)
	for i := 0; i < k; i++ {
		a[i] = make([]ring.Poly, l)
		for j := 0; j < l; j++ {
			a[i][j] = rq.SampleUniform(rho[:], byte(j), byte(i))
		}
	}
	return a
}

// rejectCandidates clears rejected mask and response polynomials before the
// next attempt.
func rejectCandidates(y, z []ring.Poly) {
	for i := range y {
		utils.ZeroizeInt32(y[i][:])
	}
	for i := range z {
		if z[i] != (ring.Poly{}) {
			utils.ZeroizeInt32(z[i][:])
		}
	}
}
