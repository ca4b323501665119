package latticekit

import (
	"github.com/pqcraft/latticekit-go/ring"
)

// KEMAlgorithm identifies a KEM parameter set. The zero value is invalid.
type KEMAlgorithm int

const (
	// Kyber512 targets NIST security level 1.
	Kyber512 KEMAlgorithm = iota + 1
	// Kyber768 targets NIST security level 3.
	Kyber768
	// Kyber1024 targets NIST security level 5.
	Kyber1024
)

// String returns the conventional name of the parameter set.
func (a KEMAlgorithm) String() string {
	switch a {
	case Kyber512:
		return "Kyber512"
	case Kyber768:
		return "Kyber768"
	case Kyber1024:
		return "Kyber1024"
	default:
		return "unknown"
	}
}

// SignAlgorithm identifies a signature parameter set. The zero value is invalid.
type SignAlgorithm int

const (
	// Dilithium2 targets NIST security level 2.
	Dilithium2 SignAlgorithm = iota + 1
	// Dilithium3 targets NIST security level 3.
	Dilithium3
	// Dilithium5 targets NIST security level 5.
	Dilithium5
)

// String returns the conventional name of the parameter set.
func (a SignAlgorithm) String() string {
	switch a {
	case Dilithium2:
		return "Dilithium2"
	case Dilithium3:
		return "Dilithium3"
	case Dilithium5:
		return "Dilithium5"
	default:
		return "unknown"
	}
}

// =============================================================================
// Parameter Types
// =============================================================================

// KEMParams contains the complete parameter set for one KEM security level.
// All byte sizes are fixed by the parameters and form the wire contract.
type KEMParams struct {
	Alg  KEMAlgorithm `json:"alg"`
	K    int          `json:"k"`    // Module rank
	Eta1 int          `json:"eta1"` // Noise bound for secrets
	Eta2 int          `json:"eta2"` // Noise bound for ciphertext errors
	Du   uint         `json:"du"`   // Compression bits for u
	Dv   uint         `json:"dv"`   // Compression bits for v

	PublicKeySize    int `json:"public_key_size"`
	SecretKeySize    int `json:"secret_key_size"`
	CiphertextSize   int `json:"ciphertext_size"`
	SharedSecretSize int `json:"shared_secret_size"`
}

// SignParams contains the complete parameter set for one signature security level.
type SignParams struct {
	Alg    SignAlgorithm `json:"alg"`
	K      int           `json:"k"`      // Rows of the matrix A
	L      int           `json:"l"`      // Columns of the matrix A
	Eta    int32         `json:"eta"`    // Secret coefficient bound
	Tau    int           `json:"tau"`    // Non-zero challenge coefficients
	Beta   int32         `json:"beta"`   // Tau * Eta
	Gamma1 int32         `json:"gamma1"` // Mask coefficient range
	Gamma2 int32         `json:"gamma2"` // Low-order rounding range
	Omega  int           `json:"omega"`  // Maximum hint weight
	D      uint          `json:"d"`      // Dropped bits from t

	PublicKeySize int `json:"public_key_size"`
	SecretKeySize int `json:"secret_key_size"`
	SignatureSize int `json:"signature_size"`
}

// =============================================================================
// KEM Key Types
// =============================================================================

// KEMPublicKey is the public key for encapsulation. T is held in the NTT
// domain, exactly as it is serialized.
type KEMPublicKey struct {
	Rho    [32]byte    // Matrix expansion seed
	T      []ring.Poly // t = A*s + e, NTT domain, length K
	Params KEMParams
}

// KEMSecretKey is the secret key for decapsulation. It caches the public key
// and its hash for the re-encryption step, plus the implicit-rejection seed.
type KEMSecretKey struct {
	S      []ring.Poly // Secret vector, NTT domain, length K
	Public KEMPublicKey
	PKHash [32]byte // H(serialized public key)
	Z      [32]byte // Implicit-rejection seed
}

// KEMKeyPair contains both public and secret keys.
type KEMKeyPair struct {
	PublicKey KEMPublicKey
	SecretKey KEMSecretKey
}

// EncapsulationResult contains the result of KEM encapsulation. The
// ciphertext length is fixed by the parameter set.
type EncapsulationResult struct {
	SharedSecret []byte
	Ciphertext   []byte
}

// =============================================================================
// Signature Key Types
// =============================================================================

// SignPublicKey is the public key for signature verification.
type SignPublicKey struct {
	Rho    [32]byte    // Matrix expansion seed
	T1     []ring.Poly // High bits of t = A*s1 + s2, length K
	Params SignParams
}

// SignSecretKey is the secret key for signing.
type SignSecretKey struct {
	Rho    [32]byte    // Matrix expansion seed
	Key    [32]byte    // Deterministic signing seed
	Tr     [32]byte    // H(serialized public key)
	S1     []ring.Poly // Secret vector, length L
	S2     []ring.Poly // Secret vector, length K
	T0     []ring.Poly // Low bits of t, length K
	Params SignParams
}

// SignKeyPair contains both public and secret keys for signatures.
type SignKeyPair struct {
	PublicKey SignPublicKey
	SecretKey SignSecretKey
}

// Signature is the decoded form of a signature.
type Signature struct {
	CTilde [32]byte    // Challenge seed
	Z      []ring.Poly // Response vector, length L
	Hint   []ring.Poly // Rounding hints, 0/1 coefficients, length K
}
