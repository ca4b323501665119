// Package latticekit implements module-lattice post-quantum cryptography:
// a CRYSTALS-Kyber style key encapsulation mechanism and a CRYSTALS-Dilithium
// style digital signature scheme, built on a shared polynomial-ring
// arithmetic substrate. Users can also import specific sub-packages directly
// for more control.
//
// WARNING: This is a reference implementation aimed at correctness and
// testability. It performs algorithmic-level constant-time comparisons but
// carries no further side-channel hardening. DO NOT use in production systems
// protecting sensitive data without an independent review.
package latticekit

// Version of the latticekit Go implementation.
const Version = "1.0.0"

// API summary:
//
// Key Encapsulation (KEM):
//   - kem.GenerateKeyPair(alg) - Generate a key pair for the given algorithm
//   - kem.Encapsulate(pk) - Generate shared secret and ciphertext
//   - kem.Decapsulate(sk, ct) - Recover shared secret from ciphertext
//
// Digital Signatures:
//   - sign.GenerateKeyPair(alg) - Generate a signature key pair
//   - sign.Sign(sk, message) - Sign a message
//   - sign.Verify(pk, message, signature) - Verify a signature
//
// Facade:
//   - engine.New() - Byte-oriented facade with metrics, audit hooks and
//     parallel batch verification
//
// Parameters:
//   - core.GetKEMParams(alg) - Kyber512, Kyber768, Kyber1024
//   - core.GetSignParams(alg) - Dilithium2, Dilithium3, Dilithium5
