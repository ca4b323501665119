package sign

import (
	latticekit "github.com/pqcraft/latticekit-go"
	"github.com/pqcraft/latticekit-go/core"
	"github.com/pqcraft/latticekit-go/ring"
)

// Encoding widths fixed by the ring and rounding parameters.
const (
	t1Bits = 10 // high half of t after dropping d bits
	t0Bits = 13 // low half of t, centered
	t1Poly = ring.N * t1Bits / 8
	t0Poly = ring.N * t0Bits / 8
)

func etaBits(eta int32) uint {
	if eta == 4 {
		return 4
	}
	return 3
}

func zBits(gamma1 int32) uint {
	if gamma1 == 1<<19 {
		return 20
	}
	return 18
}

func w1Bits(gamma2 int32) uint {
	if gamma2 == (core.SignQ-1)/88 {
		return 6
	}
	return 4
}

// packCentered maps each coefficient x to bound - Center(x) and packs the
// result. It covers the eta, t0 and z encodings, which differ only in bound
// and width.
func packCentered(p ring.Poly, bound int32, bits uint) []byte {
	var raw ring.Poly
	for i := 0; i < ring.N; i++ {
		raw[i] = bound - rq.Center(p[i])
	}
	return ring.PackBits(raw, bits)
}

// unpackCentered reverses packCentered. Values above maxRaw are rejected as
// non-canonical; maxRaw < 0 disables the check for full-width encodings.
func unpackCentered(b []byte, bound int32, bits uint, maxRaw int32) (ring.Poly, bool) {
	raw := ring.UnpackBits(b, bits)
	var p ring.Poly
	for i := 0; i < ring.N; i++ {
		if maxRaw >= 0 && raw[i] > maxRaw {
			return p, false
		}
		p[i] = bound - raw[i]
	}
	return rq.Reduce(p), true
}

// packW1 encodes the high-bits vector hashed into the challenge.
func packW1(w1 []ring.Poly, params latticekit.SignParams) []byte {
	bits := w1Bits(params.Gamma2)
	out := make([]byte, 0, len(w1)*ring.N*int(bits)/8)
	for _, p := range w1 {
		out = append(out, ring.PackBits(p, bits)...)
	}
	return out
}

// SerializePublicKey encodes a public key as rho || pack(t1).
func SerializePublicKey(pk *latticekit.SignPublicKey) []byte {
	out := make([]byte, 0, pk.Params.PublicKeySize)
	out = append(out, pk.Rho[:]...)
	for _, p := range pk.T1 {
		out = append(out, ring.PackBits(p, t1Bits)...)
	}
	return out
}

// DeserializePublicKey decodes a public key, enforcing the exact wire length
// for the parameter set.
func DeserializePublicKey(data []byte, params latticekit.SignParams) (*latticekit.SignPublicKey, error) {
	if err := core.ValidateSignParams(params); err != nil {
		return nil, err
	}
	if len(data) != params.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}

	pk := &latticekit.SignPublicKey{Params: params}
	copy(pk.Rho[:], data[:32])
	pk.T1 = make([]ring.Poly, params.K)
	for i := 0; i < params.K; i++ {
		pk.T1[i] = ring.UnpackBits(data[32+i*t1Poly:32+(i+1)*t1Poly], t1Bits)
	}
	return pk, nil
}

// SerializeSecretKey encodes a secret key as
// rho || key || tr || pack(s1) || pack(s2) || pack(t0).
func SerializeSecretKey(sk *latticekit.SignSecretKey) []byte {
	params := sk.Params
	out := make([]byte, 0, params.SecretKeySize)
	out = append(out, sk.Rho[:]...)
	out = append(out, sk.Key[:]...)
	out = append(out, sk.Tr[:]...)
	for _, p := range sk.S1 {
		out = append(out, packCentered(p, params.Eta, etaBits(params.Eta))...)
	}
	for _, p := range sk.S2 {
		out = append(out, packCentered(p, params.Eta, etaBits(params.Eta))...)
	}
	for _, p := range sk.T0 {
		out = append(out, packCentered(p, int32(1)<<(params.D-1), t0Bits)...)
	}
	return out
}

// DeserializeSecretKey decodes a secret key, enforcing the exact wire length
// and the canonical coefficient ranges of every component.
func DeserializeSecretKey(data []byte, params latticekit.SignParams) (*latticekit.SignSecretKey, error) {
	if err := core.ValidateSignParams(params); err != nil {
		return nil, err
	}
	if len(data) != params.SecretKeySize {
		return nil, ErrInvalidSecretKey
	}

	sk := &latticekit.SignSecretKey{Params: params}
	copy(sk.Rho[:], data[:32])
	copy(sk.Key[:], data[32:64])
	copy(sk.Tr[:], data[64:96])

	eBits := etaBits(params.Eta)
	ePoly := ring.N * int(eBits) / 8
	offset := 96

	sk.S1 = make([]ring.Poly, params.L)
	for i := 0; i < params.L; i++ {
		p, ok := unpackCentered(data[offset:offset+ePoly], params.Eta, eBits, 2*params.Eta)
		if !ok {
			return nil, ErrInvalidSecretKey
		}
		sk.S1[i] = p
		offset += ePoly
	}
	sk.S2 = make([]ring.Poly, params.K)
	for i := 0; i < params.K; i++ {
		p, ok := unpackCentered(data[offset:offset+ePoly], params.Eta, eBits, 2*params.Eta)
		if !ok {
			return nil, ErrInvalidSecretKey
		}
		sk.S2[i] = p
		offset += ePoly
	}
	sk.T0 = make([]ring.Poly, params.K)
	for i := 0; i < params.K; i++ {
		p, ok := unpackCentered(data[offset:offset+t0Poly], int32(1)<<(params.D-1), t0Bits, -1)
		if !ok {
			return nil, ErrInvalidSecretKey
		}
		sk.T0[i] = p
		offset += t0Poly
	}
	return sk, nil
}

// SerializeSignature encodes a signature as cTilde || pack(z) || pack(hint).
func SerializeSignature(sig *latticekit.Signature, params latticekit.SignParams) []byte {
	out := make([]byte, 0, params.SignatureSize)
	out = append(out, sig.CTilde[:]...)
	for _, p := range sig.Z {
		out = append(out, packCentered(p, params.Gamma1, zBits(params.Gamma1))...)
	}
	out = append(out, packHint(sig.Hint, params)...)
	return out
}

// DeserializeSignature decodes a signature, enforcing the exact wire length
// and the canonical hint encoding.
func DeserializeSignature(data []byte, params latticekit.SignParams) (*latticekit.Signature, error) {
	if err := core.ValidateSignParams(params); err != nil {
		return nil, err
	}
	if len(data) != params.SignatureSize {
		return nil, ErrInvalidSignature
	}

	sig := &latticekit.Signature{}
	copy(sig.CTilde[:], data[:32])

	bits := zBits(params.Gamma1)
	zPoly := ring.N * int(bits) / 8
	offset := 32
	sig.Z = make([]ring.Poly, params.L)
	for i := 0; i < params.L; i++ {
		p, ok := unpackCentered(data[offset:offset+zPoly], params.Gamma1, bits, -1)
		if !ok {
			return nil, ErrInvalidSignature
		}
		sig.Z[i] = p
		offset += zPoly
	}

	hint, err := unpackHint(data[offset:], params)
	if err != nil {
		return nil, err
	}
	sig.Hint = hint
	return sig, nil
}

// packHint encodes the hint vector as omega position bytes followed by k
// cumulative counts. Unused position bytes are zero.
func packHint(hint []ring.Poly, params latticekit.SignParams) []byte {
	out := make([]byte, params.Omega+params.K)
	index := 0
	for i, p := range hint {
		for j := 0; j < ring.N; j++ {
			if p[j] != 0 {
				out[index] = byte(j)
				index++
			}
		}
		out[params.Omega+i] = byte(index)
	}
	return out
}

// unpackHint decodes and validates the hint encoding. The encoding must be
// canonical: counts non-decreasing and within omega, positions strictly
// increasing within each polynomial, trailing position bytes zero. This
// keeps signatures non-malleable.
func unpackHint(data []byte, params latticekit.SignParams) ([]ring.Poly, error) {
	if len(data) != params.Omega+params.K {
		return nil, ErrInvalidSignature
	}

	hint := make([]ring.Poly, params.K)
	index := 0
	for i := 0; i < params.K; i++ {
		count := int(data[params.Omega+i])
		if count < index || count > params.Omega {
			return nil, ErrInvalidSignature
		}
		for j := index; j < count; j++ {
			if j > index && data[j] <= data[j-1] {
				return nil, ErrInvalidSignature
			}
			hint[i][data[j]] = 1
		}
		index = count
	}
	for j := index; j < params.Omega; j++ {
		if data[j] != 0 {
			return nil, ErrInvalidSignature
		}
	}
	return hint, nil
}
