// Package kem implements the latticekit key encapsulation mechanism, a
// module-LWE scheme with a Fujisaki-Okamoto transform and implicit rejection.
package kem

import (
	"errors"
	"sync"

	latticekit "github.com/pqcraft/latticekit-go"
	"github.com/pqcraft/latticekit-go/core"
	"github.com/pqcraft/latticekit-go/ring"
	"github.com/pqcraft/latticekit-go/utils"
)

const (
	DomainKeyGen         = "latticekit-kem-keygen-v1"
	DomainImplicitReject = "latticekit-kem-reject-v1"
)

var (
	// ErrInvalidPublicKey indicates a malformed serialized public key.
	ErrInvalidPublicKey = errors.New("invalid public key encoding")
	// ErrInvalidSecretKey indicates a malformed serialized secret key.
	ErrInvalidSecretKey = errors.New("invalid secret key encoding")
	// ErrInvalidCiphertext indicates a ciphertext of the wrong length.
	ErrInvalidCiphertext = errors.New("invalid ciphertext length")
)

// rq is the KEM polynomial ring Z_q[X]/(X^256+1) with q = 3329.
var rq = ring.New(core.KEMQ, core.KEMRoot, 7)

// GenerateKeyPair generates a KEM key pair for the given algorithm.
func GenerateKeyPair(alg latticekit.KEMAlgorithm) (*latticekit.KEMKeyPair, error) {
	params, err := core.GetKEMParams(alg)
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
// The same seed and parameters always produce the same key pair.
func GenerateKeyPairFromSeed(params latticekit.KEMParams, seed []byte) (*latticekit.KEMKeyPair, error) {
	if err := core.ValidateKEMParams(params); err != nil {
		return nil, err
	}
	if len(seed) < core.SeedSize {
		return nil, errors.New("seed must be at least 32 bytes")
	}
	if err := utils.ValidateSeedEntropy(seed); err != nil {
		return nil, err
	}

	// Derive the CPA key-generation seed and the implicit-rejection seed
	// from independent domains.
	d := utils.HashWithDomain(DomainKeyGen, seed)
	z := utils.HashWithDomain(DomainImplicitReject, seed)

	k := params.K
	g := utils.SHA3512(d)
	var rho [32]byte
	copy(rho[:], g[:32])
	sigma := g[32:]

	a := expandMatrix(rho, k, false)

	s := make([]ring.Poly, k)
	e := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		s[i] = rq.NTT(rq.SampleCBD(sigma, byte(i), params.Eta1))
		e[i] = rq.NTT(rq.SampleCBD(sigma, byte(k+i), params.Eta1))
	}

	// t = A*s + e, all in the NTT domain.
	t := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		acc := e[i]
		for j := 0; j < k; j++ {
			acc = rq.Add(acc, rq.MulNTT(a[i][j], s[j]))
		}
		t[i] = acc
	}

	publicKey := latticekit.KEMPublicKey{
		Rho:    rho,
		T:      t,
		Params: params,
	}

	secretKey := latticekit.KEMSecretKey{
		S:      s,
		Public: publicKey,
	}
	copy(secretKey.PKHash[:], utils.SHA3256(SerializePublicKey(&publicKey)))
	copy(secretKey.Z[:], z)
	utils.Zeroize(d)
	utils.Zeroize(z)
	utils.Zeroize(g)

	return &latticekit.KEMKeyPair{
		PublicKey: publicKey,
		SecretKey: secretKey,
	}, nil
}

// Encapsulate generates a shared secret and a ciphertext for the holder of
// the corresponding secret key.
func Encapsulate(pk *latticekit.KEMPublicKey) (*latticekit.EncapsulationResult, error) {
	ephemeral, err := utils.SecureRandomBytes(core.SeedSize)
	if err != nil {
		return nil, err
	}
	result, err := EncapsulateDeterministic(pk, ephemeral)
	utils.Zeroize(ephemeral)
	return result, err
}

// EncapsulateDeterministic performs deterministic encapsulation from a
// 32-byte ephemeral secret. The ephemeral secret is hashed before use, so
// even a biased input does not leak directly into the transcript.
func EncapsulateDeterministic(pk *latticekit.KEMPublicKey, ephemeral []byte) (*latticekit.EncapsulationResult, error) {
	if len(ephemeral) != core.SeedSize {
		return nil, errors.New("ephemeral secret must be 32 bytes")
	}
	if err := core.ValidateKEMParams(pk.Params); err != nil {
		return nil, err
	}
	if len(pk.T) != pk.Params.K {
		return nil, ErrInvalidPublicKey
	}

	m := utils.SHA3256(ephemeral)
	pkHash := utils.SHA3256(SerializePublicKey(pk))

	// (kBar, r) = G(m || H(pk)) binds the shared secret to the target key.
	g := utils.SHA3512Concat(m, pkHash)
	kBar, r := g[:32], g[32:]

	ciphertext := encrypt(pk, m, r)

	ctHash := utils.SHA3256(ciphertext)
	sharedSecret := utils.Shake256Concat(core.SharedSecretSize, kBar, ctHash)
	utils.Zeroize(g)
	utils.Zeroize(m)

	return &latticekit.EncapsulationResult{
		SharedSecret: sharedSecret,
		Ciphertext:   ciphertext,
	}, nil
}

// Decapsulate recovers the shared secret from a ciphertext. A malformed or
// forged ciphertext of the correct length yields a deterministic
// pseudo-random value instead of an error, so the caller cannot be used as
// a decryption-failure oracle.
func Decapsulate(sk *latticekit.KEMSecretKey, ciphertext []byte) ([]byte, error) {
	params := sk.Public.Params
	if err := core.ValidateKEMParams(params); err != nil {
		return nil, err
	}
	if len(ciphertext) != params.CiphertextSize {
		return nil, ErrInvalidCiphertext
	}
	if len(sk.S) != params.K || len(sk.Public.T) != params.K {
		return nil, ErrInvalidSecretKey
	}

	m := decrypt(sk, ciphertext)

	// Re-encrypt under the recovered message (Fujisaki-Okamoto).
	g := utils.SHA3512Concat(m, sk.PKHash[:])
	kBar, r := g[:32], g[32:]
	reEnc := encrypt(&sk.Public, m, r)

	ctHash := utils.SHA3256(ciphertext)
	sharedSecret := utils.Shake256Concat(core.SharedSecretSize, kBar, ctHash)
	rejectSecret := utils.Shake256Concat(core.SharedSecretSize, sk.Z[:], ctHash)

	match := 0
	if utils.ConstantTimeEqual(ciphertext, reEnc) {
		match = 1
	}
	result := utils.ConstantTimeSelect(match, sharedSecret, rejectSecret)
	utils.Zeroize(g)
	utils.Zeroize(m)
	utils.Zeroize(sharedSecret)
	utils.Zeroize(rejectSecret)

	return result, nil
}

// encrypt is the deterministic CPA encryption core shared by encapsulation
// and the re-encryption check. m is the 32-byte message, r the 32-byte
// encryption randomness.
func encrypt(pk *latticekit.KEMPublicKey, m, r []byte) []byte {
	params := pk.Params
	k := params.K

	at := expandMatrix(pk.Rho, k, true)

	rv := make([]ring.Poly, k)
	e1 := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		rv[i] = rq.NTT(rq.SampleCBD(r, byte(i), params.Eta1))
		e1[i] = rq.SampleCBD(r, byte(k+i), params.Eta2)
	}
	e2 := rq.SampleCBD(r, byte(2*k), params.Eta2)

	// u = A^T * r + e1
	u := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		var acc ring.Poly
		for j := 0; j < k; j++ {
			acc = rq.Add(acc, rq.MulNTT(at[i][j], rv[j]))
		}
		u[i] = rq.Add(rq.InvNTT(acc), e1[i])
	}

	// v = t^T * r + e2 + Decompress_1(m)
	var vacc ring.Poly
	for j := 0; j < k; j++ {
		vacc = rq.Add(vacc, rq.MulNTT(pk.T[j], rv[j]))
	}
	v := rq.Add(rq.Add(rq.InvNTT(vacc), e2), polyFromMsg(m))

	ct := make([]byte, 0, params.CiphertextSize)
	for i := 0; i < k; i++ {
		ct = append(ct, ring.PackBits(rq.Compress(u[i], params.Du), params.Du)...)
	}
	ct = append(ct, ring.PackBits(rq.Compress(v, params.Dv), params.Dv)...)
	return ct
}

// decrypt is the CPA decryption core. It recovers the 32-byte message from
// a well-formed ciphertext; on a malformed one it returns garbage, which the
// re-encryption check then rejects.
func decrypt(sk *latticekit.KEMSecretKey, ciphertext []byte) []byte {
	params := sk.Public.Params
	k := params.K
	uBytes := ring.N * int(params.Du) / 8

	u := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		u[i] = rq.NTT(rq.Decompress(ring.UnpackBits(ciphertext[i*uBytes:(i+1)*uBytes], params.Du), params.Du))
	}
	v := rq.Decompress(ring.UnpackBits(ciphertext[k*uBytes:], params.Dv), params.Dv)

	// m = Compress_1(v - s^T * u)
	var acc ring.Poly
	for i := 0; i < k; i++ {
		acc = rq.Add(acc, rq.MulNTT(sk.S[i], u[i]))
	}
	mp := rq.Sub(v, rq.InvNTT(acc))
	return polyToMsg(mp)
}

// expandMatrix derives the k x k public matrix from rho with SHAKE128.
// Each entry is sampled from an independent XOF position; transposed selects
// between the key-generation and encryption orientations.
func expandMatrix(rho [32]byte, k int, transposed bool) [][]ring.Poly {
	a := make([][]ring.Poly, k)
	for i := range a {
		a[i] = make([]ring.Poly, k)
	}

	var wg sync.WaitGroup
	wg.Add(k * k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			go func(i, j int) {
				defer wg.Done()
				if transposed {
					a[i][j] = rq.SampleUniform(rho[:], byte(i), byte(j))
				} else {
					a[i][j] = rq.SampleUniform(rho[:], byte(j), byte(i))
				}
			}(i, j)
		}
	}
	wg.Wait()
	return a
}

// polyFromMsg maps each message bit to 0 or round(q/2).
func polyFromMsg(m []byte) ring.Poly {
	return rq.Decompress(ring.UnpackBits(m, 1), 1)
}

// polyToMsg rounds each coefficient back to one bit and packs the result.
func polyToMsg(p ring.Poly) []byte {
	return ring.PackBits(rq.Compress(p, 1), 1)
}
