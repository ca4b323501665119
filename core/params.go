// Package core provides parameter sets and validation for latticekit.
package core

import (
	"errors"
	"fmt"

	latticekit "github.com/pqcraft/latticekit-go"
)

// Ring constants shared by all parameter sets.
const (
	// KEMQ is the KEM ring modulus.
	KEMQ = 3329
	// KEMRoot is a primitive 256th root of unity mod KEMQ.
	KEMRoot = 17
	// SignQ is the signature ring modulus.
	SignQ = 8380417
	// SignRoot is a primitive 512th root of unity mod SignQ.
	SignRoot = 1753
	// SeedSize is the size of all key-generation seeds in bytes.
	SeedSize = 32
	// SharedSecretSize is the size of the encapsulated shared secret in bytes.
	SharedSecretSize = 32
)

// Kyber512Params is the KEM parameter set for NIST security level 1.
var Kyber512Params = latticekit.KEMParams{
	Alg:  latticekit.Kyber512,
	K:    2,
	Eta1: 3,
	Eta2: 2,
	Du:   10,
	Dv:   4,

	PublicKeySize:    800,
	SecretKeySize:    1632,
	CiphertextSize:   768,
	SharedSecretSize: SharedSecretSize,
}

// Kyber768Params is the KEM parameter set for NIST security level 3.
var Kyber768Params = latticekit.KEMParams{
	Alg:  latticekit.Kyber768,
	K:    3,
	Eta1: 2,
	Eta2: 2,
	Du:   10,
	Dv:   4,

	PublicKeySize:    1184,
	SecretKeySize:    2400,
	CiphertextSize:   1088,
	SharedSecretSize: SharedSecretSize,
}

// Kyber1024Params is the KEM parameter set for NIST security level 5.
var Kyber1024Params = latticekit.KEMParams{
	Alg:  latticekit.Kyber1024,
	K:    4,
	Eta1: 2,
	Eta2: 2,
	Du:   11,
	Dv:   5,

	PublicKeySize:    1568,
	SecretKeySize:    3168,
	CiphertextSize:   1568,
	SharedSecretSize: SharedSecretSize,
}

// Dilithium2Params is the signature parameter set for NIST security level 2.
var Dilithium2Params = latticekit.SignParams{
	Alg:    latticekit.Dilithium2,
	K:      4,
	L:      4,
	Eta:    2,
	Tau:    39,
	Beta:   78,
	Gamma1: 1 << 17,
	Gamma2: (SignQ - 1) / 88,
	Omega:  80,
	D:      13,

	PublicKeySize: 1312,
	SecretKeySize: 2528,
	SignatureSize: 2420,
}

// Dilithium3Params is the signature parameter set for NIST security level 3.
var Dilithium3Params = latticekit.SignParams{
	Alg:    latticekit.Dilithium3,
	K:      6,
	L:      5,
	Eta:    4,
	Tau:    49,
	Beta:   196,
	Gamma1: 1 << 19,
	Gamma2: (SignQ - 1) / 32,
	Omega:  55,
	D:      13,

	PublicKeySize: 1952,
	SecretKeySize: 4000,
	SignatureSize: 3293,
}

// Dilithium5Params is the signature parameter set for NIST security level 5.
var Dilithium5Params = latticekit.SignParams{
	Alg:    latticekit.Dilithium5,
	K:      8,
	L:      7,
	Eta:    2,
	Tau:    60,
	Beta:   120,
	Gamma1: 1 << 19,
	Gamma2: (SignQ - 1) / 32,
	Omega:  75,
	D:      13,

	PublicKeySize: 2592,
	SecretKeySize: 4864,
	SignatureSize: 4595,
}

// GetKEMParams returns the KEM parameter set for the given algorithm.
func GetKEMParams(alg latticekit.KEMAlgorithm) (latticekit.KEMParams, error) {
	switch alg {
	case latticekit.Kyber512:
		return Kyber512Params, nil
	case latticekit.Kyber768:
		return Kyber768Params, nil
	case latticekit.Kyber1024:
		return Kyber1024Params, nil
	default:
		return latticekit.KEMParams{}, fmt.Errorf("unknown KEM algorithm: %d", alg)
	}
}

// GetSignParams returns the signature parameter set for the given algorithm.
func GetSignParams(alg latticekit.SignAlgorithm) (latticekit.SignParams, error) {
	switch alg {
	case latticekit.Dilithium2:
		return Dilithium2Params, nil
	case latticekit.Dilithium3:
		return Dilithium3Params, nil
	case latticekit.Dilithium5:
		return Dilithium5Params, nil
	default:
		return latticekit.SignParams{}, fmt.Errorf("unknown signature algorithm: %d", alg)
	}
}

// ValidateKEMParams validates a KEM parameter set for consistency.
func ValidateKEMParams(p latticekit.KEMParams) error {
	if p.K < 2 || p.K > 4 {
		return errors.New("module rank must be in [2, 4]")
	}
	if p.Eta1 != 2 && p.Eta1 != 3 {
		return errors.New("eta1 must be 2 or 3")
	}
	if p.Eta2 != 2 {
		return errors.New("eta2 must be 2")
	}
	if p.Du < p.Dv {
		return errors.New("du must be at least dv")
	}
	if 1<<p.Du > KEMQ {
		return errors.New("du exceeds modulus width")
	}
	if !isPrime(KEMQ) {
		return errors.New("ring modulus must be prime")
	}
	if p.PublicKeySize != p.K*384+32 {
		return errors.New("public key size inconsistent with rank")
	}
	if p.SecretKeySize != p.K*384+p.PublicKeySize+64 {
		return errors.New("secret key size inconsistent with rank")
	}
	if p.CiphertextSize != 32*(p.K*int(p.Du)+int(p.Dv)) {
		return errors.New("ciphertext size inconsistent with compression")
	}
	if p.SharedSecretSize != SharedSecretSize {
		return errors.New("shared secret size must be 32")
	}
	return nil
}

// ValidateSignParams validates a signature parameter set for consistency.
func ValidateSignParams(p latticekit.SignParams) error {
	if p.K < p.L {
		return errors.New("matrix must have at least as many rows as columns")
	}
	if p.L < 4 || p.K > 8 {
		return errors.New("matrix dimensions out of supported range")
	}
	if p.Eta != 2 && p.Eta != 4 {
		return errors.New("eta must be 2 or 4")
	}
	if p.Beta != int32(p.Tau)*p.Eta {
		return errors.New("beta must equal tau * eta")
	}
	if p.Gamma1 != 1<<17 && p.Gamma1 != 1<<19 {
		return errors.New("gamma1 must be 2^17 or 2^19")
	}
	if (SignQ-1)%(2*p.Gamma2) != 0 {
		return errors.New("2*gamma2 must divide q-1")
	}
	if p.Beta >= p.Gamma2 {
		return errors.New("beta must be below gamma2")
	}
	if p.Omega < p.K {
		return errors.New("omega must allow at least one hint per row")
	}
	if p.D != 13 {
		return errors.New("d must be 13")
	}
	if !isPrime(SignQ) {
		return errors.New("ring modulus must be prime")
	}
	etaBytes := 96
	if p.Eta == 4 {
		etaBytes = 128
	}
	zBytes := 576
	if p.Gamma1 == 1<<19 {
		zBytes = 640
	}
	if p.PublicKeySize != 32+320*p.K {
		return errors.New("public key size inconsistent with dimensions")
	}
	if p.SecretKeySize != 96+(p.K+p.L)*etaBytes+416*p.K {
		return errors.New("secret key size inconsistent with dimensions")
	}
	if p.SignatureSize != 32+p.L*zBytes+p.Omega+p.K {
		return errors.New("signature size inconsistent with dimensions")
	}
	return nil
}

// isPrime checks if a number is prime using a simple trial division.
// This is used for validating parameters, not for generating large primes.
func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n == 2 {
		return true
	}
	if n%2 == 0 {
		return false
	}
	for i := 3; i*i <= n; i += 2 {
		if n%i == 0 {
			return false
		}
	}
	return true
}
