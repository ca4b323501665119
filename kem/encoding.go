package kem

import (
	latticekit "github.com/pqcraft/latticekit-go"
	"github.com/pqcraft/latticekit-go/core"
	"github.com/pqcraft/latticekit-go/ring"
	"github.com/pqcraft/latticekit-go/utils"
)

// coeffBits is the width of an uncompressed canonical coefficient mod 3329.
const coeffBits = 12

// polyBytes is the serialized size of one uncompressed polynomial.
const polyBytes = ring.N * coeffBits / 8

// SerializePublicKey encodes a public key as pack(t) || rho.
// The output length is fixed by the parameter set.
func SerializePublicKey(pk *latticekit.KEMPublicKey) []byte {
	out := make([]byte, 0, pk.Params.PublicKeySize)
	for _, p := range pk.T {
		out = append(out, ring.PackBits(p, coeffBits)...)
	}
	out = append(out, pk.Rho[:]...)
	return out
}

// DeserializePublicKey decodes a public key, enforcing the exact wire length
// and canonical coefficient range for the parameter set.
func DeserializePublicKey(data []byte, params latticekit.KEMParams) (*latticekit.KEMPublicKey, error) {
	if err := core.ValidateKEMParams(params); err != nil {
		return nil, err
	}
	if len(data) != params.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}

	pk := &latticekit.KEMPublicKey{Params: params}
	pk.T = make([]ring.Poly, params.K)
	for i := 0; i < params.K; i++ {
		p := ring.UnpackBits(data[i*polyBytes:(i+1)*polyBytes], coeffBits)
		for _, c := range p {
			if c >= core.KEMQ {
				return nil, ErrInvalidPublicKey
			}
		}
		pk.T[i] = p
	}
	copy(pk.Rho[:], data[params.K*polyBytes:])
	return pk, nil
}

// SerializeSecretKey encodes a secret key as
// pack(s) || SerializePublicKey || H(pk) || z.
func SerializeSecretKey(sk *latticekit.KEMSecretKey) []byte {
	out := make([]byte, 0, sk.Public.Params.SecretKeySize)
	for _, p := range sk.S {
		out = append(out, ring.PackBits(p, coeffBits)...)
	}
	out = append(out, SerializePublicKey(&sk.Public)...)
	out = append(out, sk.PKHash[:]...)
	out = append(out, sk.Z[:]...)
	return out
}

// DeserializeSecretKey decodes a secret key. The embedded public key hash is
// recomputed and checked, so a corrupted key fails closed here instead of
// producing wrong shared secrets later.
func DeserializeSecretKey(data []byte, params latticekit.KEMParams) (*latticekit.KEMSecretKey, error) {
	if err := core.ValidateKEMParams(params); err != nil {
		return nil, err
	}
	if len(data) != params.SecretKeySize {
		return nil, ErrInvalidSecretKey
	}

	sk := &latticekit.KEMSecretKey{}
	sk.S = make([]ring.Poly, params.K)
	for i := 0; i < params.K; i++ {
		p := ring.UnpackBits(data[i*polyBytes:(i+1)*polyBytes], coeffBits)
		for _, c := range p {
			if c >= core.KEMQ {
				return nil, ErrInvalidSecretKey
			}
		}
		sk.S[i] = p
	}

	offset := params.K * polyBytes
	pk, err := DeserializePublicKey(data[offset:offset+params.PublicKeySize], params)
	if err != nil {
		return nil, ErrInvalidSecretKey
	}
	sk.Public = *pk

	offset += params.PublicKeySize
	copy(sk.PKHash[:], data[offset:offset+32])
	copy(sk.Z[:], data[offset+32:offset+64])

	if !utils.ConstantTimeEqual(sk.PKHash[:], utils.SHA3256(SerializePublicKey(pk))) {
		return nil, ErrInvalidSecretKey
	}
	return sk, nil
}
